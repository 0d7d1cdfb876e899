// Package runs loads historical execution records. Run files are
// append-only facts produced by an external executor; this package only
// reads them, groups them per spec, and orders them by time.
package runs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// RunSuffix is the run file naming convention: <spec-id>.run.md.
const RunSuffix = ".run.md"

// StampLayout names run directories. Lexicographic order equals
// chronological order, which is what history sorting relies on.
const StampLayout = "20060102-150405"

// Status is a recorded scenario outcome. The judgment behind it was
// made by the executor, not by this tool.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusSkip Status = "SKIP"
)

// ParseStatus normalizes a status cell. ok is false for anything
// outside the three known values.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPass:
		return StatusPass, true
	case StatusFail:
		return StatusFail, true
	case StatusSkip:
		return StatusSkip, true
	}
	return "", false
}

// ScenarioResult is one row of the run table.
type ScenarioResult struct {
	ScenarioID string
	Status     Status
	Notes      string
}

// RunFile is one historical execution record for one spec.
type RunFile struct {
	SpecID  string
	RunAt   time.Time
	Passed  int // summary counts as recorded by the executor
	Failed  int
	Skipped int
	Results []ScenarioResult

	File  string // source path
	Stamp string // name of the containing run directory
}

// Result returns the recorded status for a scenario id.
func (r *RunFile) Result(scenarioID string) (Status, bool) {
	for _, res := range r.Results {
		if res.ScenarioID == scenarioID {
			return res.Status, true
		}
	}
	return "", false
}

// Counts tallies the result rows (as opposed to the recorded summary).
func (r *RunFile) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusSkip:
			skipped++
		}
	}
	return
}

// runHeader is the front matter block of a run file.
type runHeader struct {
	Spec    string    `yaml:"spec"`
	RunAt   time.Time `yaml:"run_at"`
	Passed  int       `yaml:"passed"`
	Failed  int       `yaml:"failed"`
	Skipped int       `yaml:"skipped"`
}

// Parse parses run file content: YAML front matter plus a markdown
// table of scenario results. Diagnostics use the same severity rules as
// spec validation: a summary/table mismatch is a warning, not fatal.
func Parse(data []byte, path string) (*RunFile, []*schema.ValidationError, error) {
	front, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	var hdr runHeader
	dec := yaml.NewDecoder(bytes.NewReader(front))
	dec.KnownFields(true)
	if err := dec.Decode(&hdr); err != nil {
		return nil, nil, fmt.Errorf("%s: decode front matter: %w", path, err)
	}
	if hdr.Spec == "" {
		return nil, nil, fmt.Errorf("%s: front matter is missing the spec id", path)
	}

	rf := &RunFile{
		SpecID:  schema.NormalizeID(hdr.Spec),
		RunAt:   hdr.RunAt,
		Passed:  hdr.Passed,
		Failed:  hdr.Failed,
		Skipped: hdr.Skipped,
		File:    path,
	}

	var warns []*schema.ValidationError
	for i, line := range strings.Split(string(body), "\n") {
		row, ok := parseTableRow(line)
		if !ok {
			continue
		}
		status, known := ParseStatus(row[1])
		if !known {
			warns = append(warns, &schema.ValidationError{
				Phase: "run", File: path, Line: i + 1, Severity: "warning",
				Message: fmt.Sprintf("unknown status %q for scenario %q (want PASS, FAIL or SKIP)", row[1], row[0]),
			})
			continue
		}
		rf.Results = append(rf.Results, ScenarioResult{
			ScenarioID: row[0],
			Status:     status,
			Notes:      row[2],
		})
	}

	if p, f, s := rf.Counts(); p != rf.Passed || f != rf.Failed || s != rf.Skipped {
		warns = append(warns, &schema.ValidationError{
			Phase: "run", File: path, Severity: "warning",
			Message: fmt.Sprintf("summary counts %d/%d/%d do not match the %d/%d/%d result rows",
				rf.Passed, rf.Failed, rf.Skipped, p, f, s),
		})
	}

	return rf, warns, nil
}

// parseTableRow extracts (scenario, status, notes) from a markdown
// table row, skipping the header and separator rows.
func parseTableRow(line string) ([3]string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") {
		return [3]string{}, false
	}
	cells := strings.Split(strings.Trim(line, "|"), "|")
	if len(cells) < 2 {
		return [3]string{}, false
	}
	var row [3]string
	row[0] = strings.TrimSpace(cells[0])
	row[1] = strings.TrimSpace(cells[1])
	if len(cells) > 2 {
		// Notes may contain literal pipes; keep everything after the
		// second cell as one field.
		row[2] = strings.TrimSpace(strings.Join(cells[2:], "|"))
	}
	if row[0] == "" || strings.EqualFold(row[0], "scenario") {
		return [3]string{}, false
	}
	if strings.Trim(row[0], "-: ") == "" {
		return [3]string{}, false // separator row
	}
	return row, true
}

// splitFrontMatter mirrors the spec-file fence format.
func splitFrontMatter(data []byte) (front, body []byte, err error) {
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 || strings.TrimSpace(string(lines[0])) != "---" {
		return nil, nil, fmt.Errorf("missing front matter fence")
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(string(lines[i])) == "---" {
			return bytes.Join(lines[1:i], nil), bytes.Join(lines[i+1:], nil), nil
		}
	}
	return nil, nil, fmt.Errorf("unterminated front matter")
}

// LoadFile reads and parses one run file.
func LoadFile(path string) (*RunFile, []*schema.ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read run file: %w", err)
	}
	return Parse(data, path)
}

// History is the full run archive: every run file under the runs
// directory, grouped per spec and ordered by stamp.
type History struct {
	Dir    string
	Stamps []string // ascending, oldest first

	bySpec  map[string][]*RunFile // per spec, ascending by stamp
	byStamp map[string]map[string]*RunFile
}

// Load scans a runs directory. A missing directory yields an empty
// history (a project that has never executed anything is a valid
// state, reported as never-tested, not an error).
func Load(dir string) (*History, []*schema.ValidationError, error) {
	h := &History{
		Dir:     dir,
		bySpec:  make(map[string][]*RunFile),
		byStamp: make(map[string]map[string]*RunFile),
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return h, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan runs: %w", err)
	}

	var warns []*schema.ValidationError
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		stamp := e.Name()
		files, err := filepath.Glob(filepath.Join(dir, stamp, "*"+RunSuffix))
		if err != nil {
			return nil, nil, err
		}
		sort.Strings(files)
		for _, f := range files {
			rf, w, err := LoadFile(f)
			warns = append(warns, w...)
			if err != nil {
				warns = append(warns, &schema.ValidationError{
					Phase: "run", File: f, Severity: "warning",
					Message: err.Error(),
				})
				continue
			}
			rf.Stamp = stamp
			if h.byStamp[stamp] == nil {
				h.byStamp[stamp] = make(map[string]*RunFile)
				h.Stamps = append(h.Stamps, stamp)
			}
			h.byStamp[stamp][rf.SpecID] = rf
			h.bySpec[rf.SpecID] = append(h.bySpec[rf.SpecID], rf)
		}
	}

	sort.Strings(h.Stamps)
	for _, rs := range h.bySpec {
		sort.Slice(rs, func(i, j int) bool { return rs[i].Stamp < rs[j].Stamp })
	}
	return h, warns, nil
}

// Empty reports whether any run was ever recorded.
func (h *History) Empty() bool { return len(h.Stamps) == 0 }

// Latest returns the most recent run for a spec, or nil if the spec
// was never tested.
func (h *History) Latest(specID string) *RunFile {
	rs := h.bySpec[schema.NormalizeID(specID)]
	if len(rs) == 0 {
		return nil
	}
	return rs[len(rs)-1]
}

// LatestBySpec returns the most recent run per spec across the whole
// archive, keyed by spec id.
func (h *History) LatestBySpec() map[string]*RunFile {
	out := make(map[string]*RunFile, len(h.bySpec))
	for id, rs := range h.bySpec {
		out[id] = rs[len(rs)-1]
	}
	return out
}

// StampRuns returns the run set recorded under one stamp directory.
func (h *History) StampRuns(stamp string) map[string]*RunFile {
	return h.byStamp[stamp]
}

// CurrentStamp returns the newest stamp, or "".
func (h *History) CurrentStamp() string {
	if len(h.Stamps) == 0 {
		return ""
	}
	return h.Stamps[len(h.Stamps)-1]
}

// PreviousStamp returns the stamp before the newest, or "".
func (h *History) PreviousStamp() string {
	if len(h.Stamps) < 2 {
		return ""
	}
	return h.Stamps[len(h.Stamps)-2]
}

// SpecIDs returns every spec id that has at least one recorded run.
func (h *History) SpecIDs() []string {
	ids := make([]string, 0, len(h.bySpec))
	for id := range h.bySpec {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
