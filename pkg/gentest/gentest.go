// Package gentest associates machine-generated test files with specs.
// Association is by file naming convention (the test file's base name
// equals the spec file's base name); within a matched file, scenario
// coverage is decided by case-insensitive substring matching of
// scenario titles against declared test names. The substring heuristic
// is deliberately kept as the source material defined it: it can
// produce false positives and negatives, and the audit surfaces the
// raw matches so a reviewer can see why.
package gentest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// testNameRes extract declared test names from generated sources.
// Covers the test("…")/it("…")/describe("…") families with single,
// double or backtick quoting.
var testNameRes = []*regexp.Regexp{
	regexp.MustCompile("(?m)\\b(?:test|it)\\s*\\(\\s*['\"`]([^'\"`]+)['\"`]"),
	regexp.MustCompile("(?m)\\b(?:test\\.describe|describe)\\s*\\(\\s*['\"`]([^'\"`]+)['\"`]"),
}

// TestFile is one generated test source, reduced to the names it
// declares.
type TestFile struct {
	File  string
	Base  string // naming-convention key joining it to a spec
	Names []string
}

// ParseNames extracts every declared test name, in order of
// appearance, without duplicates.
func ParseNames(data []byte) []string {
	seen := make(map[string]bool)
	var names []string
	for _, re := range testNameRes {
		for _, m := range re.FindAllSubmatch(data, -1) {
			name := strings.TrimSpace(string(m[1]))
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// baseName strips the extension plus a trailing .spec/.test qualifier:
// auth-login.spec.ts → auth-login.
func baseName(file string) string {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, q := range []string{".spec", ".test"} {
		base = strings.TrimSuffix(base, q)
	}
	return base
}

// LoadDir scans a generated-test directory. A missing directory is an
// empty set, not an error: generated-test mode simply reports
// everything uncovered.
func LoadDir(dir string) ([]*TestFile, error) {
	var files []*TestFile
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read test file: %w", err)
		}
		files = append(files, &TestFile{
			File:  path,
			Base:  baseName(path),
			Names: ParseNames(data),
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan tests: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].File < files[j].File })
	return files, nil
}

// Covers reports whether any declared test name contains the scenario
// title as a case-insensitive substring.
func (t *TestFile) Covers(scenarioTitle string) bool {
	title := strings.ToLower(scenarioTitle)
	for _, name := range t.Names {
		if strings.Contains(strings.ToLower(name), title) {
			return true
		}
	}
	return false
}

// Index joins test files to specs by base name.
type Index struct {
	files  []*TestFile
	byBase map[string]*TestFile
}

// NewIndex builds the lookup. When several files share a base name the
// first (lexicographic) one wins; the rest surface as orphans.
func NewIndex(files []*TestFile) *Index {
	ix := &Index{files: files, byBase: make(map[string]*TestFile, len(files))}
	for _, f := range files {
		if _, dup := ix.byBase[f.Base]; !dup {
			ix.byBase[f.Base] = f
		}
	}
	return ix
}

// ForSpec returns the test file mapped to a spec, or nil: a spec with
// no matched file has every scenario uncovered.
func (ix *Index) ForSpec(sp *schema.Spec) *TestFile {
	return ix.byBase[sp.Base]
}

// Orphans returns test files whose base name maps to no spec in the
// set. These are audit findings, not errors.
func (ix *Index) Orphans(set *schema.Set) []*TestFile {
	bases := make(map[string]bool, len(set.Specs))
	for _, sp := range set.Specs {
		bases[sp.Base] = true
	}
	var orphans []*TestFile
	for _, f := range ix.files {
		if !bases[f.Base] || ix.byBase[f.Base] != f {
			orphans = append(orphans, f)
		}
	}
	return orphans
}

// Files returns every indexed test file.
func (ix *Index) Files() []*TestFile { return ix.files }
