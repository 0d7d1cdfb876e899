// Package coverage aggregates scenario outcomes into spec, area and
// overall ratios. It never invents data: a spec with no recorded run
// is flagged never-tested and contributes nothing to the sums, which
// keeps "untested" distinguishable from "tested and failing".
package coverage

import (
	"sort"

	"github.com/caleidos-dev/specaudit/pkg/gentest"
	"github.com/caleidos-dev/specaudit/pkg/runs"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// Mode states which fact source the numbers came from.
type Mode string

const (
	// ModeRuns reads the most recent run file per spec; the numerator
	// is passing scenarios.
	ModeRuns Mode = "runs"
	// ModeTests reads generated test files; the numerator is scenarios
	// whose title matches a declared test name.
	ModeTests Mode = "tests"
)

// SpecCoverage is one spec's rollup.
type SpecCoverage struct {
	Spec *schema.Spec

	Total   int // denominator: scenarios with a recorded outcome (or all scenarios in test mode)
	Passed  int // passing (run mode) or covered (test mode) scenarios
	Failed  int
	Skipped int

	// Ratio is Passed/Total, zero when Total is zero.
	Ratio float64

	// NeverTested: no run file exists anywhere in history. Distinct
	// from a 0.0 ratio after testing; rendered differently.
	NeverTested bool

	// NoData: the denominator was zero (an empty run table, or a spec
	// with no scenarios). The zero ratio is explicit, not a division
	// result.
	NoData bool

	// FailedScenarios lists the ids recorded FAIL in the latest run
	// (run mode) or the uncovered scenario ids (test mode).
	FailedScenarios []string
}

// AreaCoverage aggregates the specs sharing one area value.
type AreaCoverage struct {
	Area    string
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Ratio   float64
	NoData  bool

	SpecCount   int
	NeverTested int // specs in this area with no run at all
}

// Summary is the full three-level rollup.
type Summary struct {
	Mode    Mode
	Specs   []SpecCoverage
	Areas   []AreaCoverage
	Overall AreaCoverage // Area field is empty
}

// BySpec returns the rollup for one spec id, or nil.
func (s *Summary) BySpec(id string) *SpecCoverage {
	key := schema.NormalizeID(id)
	for i := range s.Specs {
		if s.Specs[i].Spec.ID == key {
			return &s.Specs[i]
		}
	}
	return nil
}

// FromRuns computes coverage from the most recent run file per spec.
func FromRuns(set *schema.Set, latest map[string]*runs.RunFile) *Summary {
	sum := &Summary{Mode: ModeRuns}
	for _, sp := range set.Specs {
		sc := SpecCoverage{Spec: sp}
		run, ok := latest[sp.ID]
		if !ok || run == nil {
			sc.NeverTested = true
			sc.NoData = true
		} else {
			sc.Passed, sc.Failed, sc.Skipped = run.Counts()
			sc.Total = sc.Passed + sc.Failed + sc.Skipped
			for _, res := range run.Results {
				if res.Status == runs.StatusFail {
					sc.FailedScenarios = append(sc.FailedScenarios, res.ScenarioID)
				}
			}
			finish(&sc)
		}
		sum.Specs = append(sum.Specs, sc)
	}
	rollup(sum, set)
	return sum
}

// FromTests computes covered-scenario ratios from generated test files.
// A spec with no matched test file has every scenario uncovered.
func FromTests(set *schema.Set, ix *gentest.Index) *Summary {
	sum := &Summary{Mode: ModeTests}
	for _, sp := range set.Specs {
		sc := SpecCoverage{Spec: sp, Total: len(sp.Scenarios)}
		tf := ix.ForSpec(sp)
		for _, scen := range sp.Scenarios {
			if tf != nil && tf.Covers(scen.Title) {
				sc.Passed++
			} else {
				sc.FailedScenarios = append(sc.FailedScenarios, scen.ID)
			}
		}
		finish(&sc)
		sum.Specs = append(sum.Specs, sc)
	}
	rollup(sum, set)
	return sum
}

// finish derives the ratio with the explicit zero-denominator policy.
func finish(sc *SpecCoverage) {
	if sc.Total == 0 {
		sc.NoData = true
		sc.Ratio = 0
		return
	}
	sc.Ratio = float64(sc.Passed) / float64(sc.Total)
}

// rollup sums spec coverage into areas and the overall line.
// Never-tested specs contribute only their explicit zero: they are
// excluded from every numerator and denominator.
func rollup(sum *Summary, set *schema.Set) {
	areas := make(map[string]*AreaCoverage)
	var order []string

	add := func(ac *AreaCoverage, sc *SpecCoverage) {
		ac.SpecCount++
		if sc.NeverTested {
			ac.NeverTested++
			return
		}
		ac.Total += sc.Total
		ac.Passed += sc.Passed
		ac.Failed += sc.Failed
		ac.Skipped += sc.Skipped
	}

	for i := range sum.Specs {
		sc := &sum.Specs[i]
		area := sc.Spec.Area
		ac, ok := areas[area]
		if !ok {
			ac = &AreaCoverage{Area: area}
			areas[area] = ac
			order = append(order, area)
		}
		add(ac, sc)
		add(&sum.Overall, sc)
	}
	sum.Overall.Area = ""

	sort.Strings(order)
	for _, area := range order {
		ac := areas[area]
		finishArea(ac)
		sum.Areas = append(sum.Areas, *ac)
	}
	finishArea(&sum.Overall)
}

func finishArea(ac *AreaCoverage) {
	if ac.Total == 0 {
		ac.NoData = true
		ac.Ratio = 0
		return
	}
	ac.Ratio = float64(ac.Passed) / float64(ac.Total)
}
