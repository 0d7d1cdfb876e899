// Package drift reconciles three independently produced views of the
// same feature set: the authored specs, the generated test files, and
// the recorded execution results. Mismatches between any two views
// become findings; judgment about why a failure happened is read from
// reviewer verdicts, never inferred.
package drift

import (
	"sort"

	"github.com/caleidos-dev/specaudit/pkg/gentest"
	"github.com/caleidos-dev/specaudit/pkg/runs"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// Uncovered is a spec scenario with no matching generated test.
type Uncovered struct {
	SpecID     string
	ScenarioID string
	Title      string
	// NoTestFile distinguishes "the spec has no generated file at all"
	// from "the file exists but misses this one scenario".
	NoTestFile bool
}

// Failure is a scenario recorded FAIL in the latest run, carrying the
// mechanical inputs a reviewer needs to bucket it.
type Failure struct {
	SpecID     string
	ScenarioID string
	Title      string
	Expected   string
	RunNote    string
	TestFile   string
	Verdict    Verdict
}

// Report is the outcome of one reconciliation pass.
type Report struct {
	// Uncovered scenarios, ordered by spec then scenario.
	Uncovered []Uncovered
	// OrphanTests are generated files no spec claims.
	OrphanTests []*gentest.TestFile
	// OrphanRunSpecs are spec ids with run history but no spec file.
	// Specs get deleted; their history does not, and that is a valid
	// state worth surfacing rather than an error.
	OrphanRunSpecs []string
	// NeverTested are spec ids with no run file anywhere in history.
	NeverTested []string
	// Failing lists the latest-run failures with their review state.
	Failing []Failure
}

// Pending counts failures no reviewer has bucketed yet.
func (r *Report) Pending() int {
	n := 0
	for _, f := range r.Failing {
		if f.Verdict.Category == CategoryPending {
			n++
		}
	}
	return n
}

// Empty reports whether the pass found nothing at all.
func (r *Report) Empty() bool {
	return len(r.Uncovered) == 0 && len(r.OrphanTests) == 0 &&
		len(r.OrphanRunSpecs) == 0 && len(r.NeverTested) == 0 &&
		len(r.Failing) == 0
}

// Scoped restricts the per-spec findings to the given specs. Orphan
// findings are kept untouched: whether a test or run file is orphaned
// is a statement about the full spec set, not about the slice of it a
// filter happens to select.
func (r *Report) Scoped(specs []*schema.Spec) *Report {
	keep := make(map[string]bool, len(specs))
	for _, sp := range specs {
		keep[sp.ID] = true
	}
	out := &Report{
		OrphanTests:    r.OrphanTests,
		OrphanRunSpecs: r.OrphanRunSpecs,
	}
	for _, u := range r.Uncovered {
		if keep[u.SpecID] {
			out.Uncovered = append(out.Uncovered, u)
		}
	}
	for _, id := range r.NeverTested {
		if keep[id] {
			out.NeverTested = append(out.NeverTested, id)
		}
	}
	for _, f := range r.Failing {
		if keep[f.SpecID] {
			out.Failing = append(out.Failing, f)
		}
	}
	return out
}

// Audit runs the reconciliation. set should be the full spec set even
// when only part of it is of interest (narrow afterwards with Scoped),
// otherwise artifacts of the excluded specs register as orphans.
// tests, hist, and verdicts may each be nil; a missing input simply
// produces the corresponding findings.
func Audit(set *schema.Set, tests *gentest.Index, hist *runs.History, verdicts Classifications) *Report {
	rep := &Report{}
	if verdicts == nil {
		verdicts = Classifications{}
	}
	if tests == nil {
		tests = gentest.NewIndex(nil)
	}
	if hist == nil {
		hist = &runs.History{}
	}

	for _, sp := range set.Specs {
		tf := tests.ForSpec(sp)
		for _, scen := range sp.Scenarios {
			if tf == nil || !tf.Covers(scen.Title) {
				rep.Uncovered = append(rep.Uncovered, Uncovered{
					SpecID:     sp.ID,
					ScenarioID: scen.ID,
					Title:      scen.Title,
					NoTestFile: tf == nil,
				})
			}
		}

		run := hist.Latest(sp.ID)
		if run == nil {
			rep.NeverTested = append(rep.NeverTested, sp.ID)
			continue
		}
		for _, res := range run.Results {
			if res.Status != runs.StatusFail {
				continue
			}
			f := Failure{
				SpecID:     sp.ID,
				ScenarioID: res.ScenarioID,
				RunNote:    res.Notes,
				Verdict:    verdicts.Lookup(sp.ID, res.ScenarioID),
			}
			if scen := findScenario(sp, res.ScenarioID); scen != nil {
				f.Title = scen.Title
				f.Expected = scen.Expected
			}
			if tf != nil {
				f.TestFile = tf.File
			}
			rep.Failing = append(rep.Failing, f)
		}
	}

	rep.OrphanTests = tests.Orphans(set)

	for _, id := range hist.SpecIDs() {
		if _, ok := set.ByID(id); !ok {
			rep.OrphanRunSpecs = append(rep.OrphanRunSpecs, id)
		}
	}
	sort.Strings(rep.OrphanRunSpecs)
	sort.Strings(rep.NeverTested)

	return rep
}

func findScenario(sp *schema.Spec, id string) *schema.Scenario {
	for i := range sp.Scenarios {
		if sp.Scenarios[i].ID == id {
			return &sp.Scenarios[i]
		}
	}
	return nil
}
