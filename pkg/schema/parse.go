package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpecSuffix is the file name convention for spec documents:
// <area>-<feature>.spec.md
const SpecSuffix = ".spec.md"

var (
	headingRe  = regexp.MustCompile(`^##\s+([A-Za-z0-9_-]+)[.)]\s+(.+?)\s*$`)
	titleRe    = regexp.MustCompile(`^#\s+(.+?)\s*$`)
	idLineRe   = regexp.MustCompile(`^ID:\s*(\S+)\s*$`)
	expectedRe = regexp.MustCompile(`(?i)^Expected:\s*(.*)$`)
)

// LoadFile reads and parses one spec file. Only structural failures
// (unreadable file, malformed front matter) return an error; content
// problems such as a missing expected-result line surface later as
// validation diagnostics.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	sp, err := Parse(data)
	if err != nil {
		return nil, err
	}
	sp.File = path
	sp.Base = strings.TrimSuffix(filepath.Base(path), SpecSuffix)
	return sp, nil
}

// Parse parses spec file content: a YAML front matter block delimited by
// `---` lines, then a body with one `## <n>. <title>` section per scenario.
func Parse(data []byte) (*Spec, error) {
	front, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	dec := yaml.NewDecoder(bytes.NewReader(front))
	dec.KnownFields(true) // reject unknown front matter keys
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode front matter: %w", err)
	}
	meta.ID = NormalizeID(meta.ID)
	for i, dep := range meta.DependsOn {
		meta.DependsOn[i] = NormalizeID(dep)
	}

	sp := &Spec{Metadata: meta}
	parseBody(sp, body)
	return sp, nil
}

// splitFrontMatter returns the YAML block between the leading `---`
// fences and the remaining body. The body is padded with blank lines in
// place of the consumed front matter so line numbers stay file-accurate.
func splitFrontMatter(data []byte) (front, body []byte, err error) {
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 || strings.TrimSpace(string(lines[0])) != "---" {
		return nil, nil, fmt.Errorf("missing front matter: spec files start with a --- fence")
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(string(lines[i])) == "---" {
			front = bytes.Join(lines[1:i], nil)
			body = bytes.Join(lines[i+1:], nil)
			// Preserve line numbering for diagnostics: prepend the
			// consumed front matter as blank lines.
			pad := bytes.Repeat([]byte("\n"), i+1)
			return front, append(pad, body...), nil
		}
	}
	return nil, nil, fmt.Errorf("unterminated front matter: closing --- fence not found")
}

// parseBody fills in the title and scenario sections. The body keeps the
// original line numbering so diagnostics can point at real locations.
func parseBody(sp *Spec, body []byte) {
	lines := strings.Split(string(body), "\n")

	var cur *Scenario
	var prose []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = strings.TrimSpace(strings.Join(prose, "\n"))
		sp.Scenarios = append(sp.Scenarios, *cur)
		cur = nil
		prose = nil
	}

	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")

		if m := titleRe.FindStringSubmatch(line); m != nil && sp.Title == "" && cur == nil {
			sp.Title = m[1]
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Scenario{ID: m[1], Title: m[2], Line: i + 1}
			continue
		}

		if cur == nil {
			continue
		}

		// An `ID:` line directly under the heading overrides the
		// positional identifier (explicit-id format variant).
		if m := idLineRe.FindStringSubmatch(line); m != nil && len(prose) == 0 && cur.Expected == "" {
			cur.ID = m[1]
			continue
		}

		if m := expectedRe.FindStringSubmatch(line); m != nil {
			cur.Expected = strings.TrimSpace(m[1])
			continue
		}

		prose = append(prose, line)
	}
	flush()
}

// IsSpecFile reports whether a file name follows the spec convention.
func IsSpecFile(name string) bool {
	return strings.HasSuffix(name, SpecSuffix)
}

// DiscoverFiles lists all spec files under dir (recursively), in
// deterministic lexical order.
func DiscoverFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsSpecFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan specs: %w", err)
	}
	return files, nil
}
