// Package regress diffs two chronologically ordered run sets and
// classifies every scenario transition between them.
package regress

import (
	"sort"

	"github.com/caleidos-dev/specaudit/pkg/runs"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// Kind labels one scenario's transition from the baseline run to the
// current run.
type Kind string

const (
	// KindRegression is PASS in the baseline, FAIL now.
	KindRegression Kind = "regression"
	// KindFix is FAIL in the baseline, PASS now.
	KindFix Kind = "fix"
	// KindPersistentFailure is FAIL in both runs.
	KindPersistentFailure Kind = "persistentFailure"
	// KindUnchanged covers every other transition shared by both runs,
	// including anything involving SKIP.
	KindUnchanged Kind = "unchanged"
	// KindNew marks a scenario present only in the current run.
	KindNew Kind = "new"
	// KindRemoved marks a scenario present only in the baseline.
	KindRemoved Kind = "removed"
)

// Transition records what happened to one (spec, scenario) pair
// between the baseline and current runs.
type Transition struct {
	SpecID     string
	ScenarioID string
	Kind       Kind
	// Previous and Current are empty for the side the pair is absent
	// from (new and removed transitions).
	Previous runs.Status
	Current  runs.Status
	// Note carries the current run's table note, useful context when a
	// regression surfaces in a report.
	Note string
}

// Report is the outcome of one baseline comparison.
type Report struct {
	// NoBaseline is set when no previous run directory exists. An empty
	// transition list with NoBaseline clear means a comparison happened
	// and found nothing, which is a different statement.
	NoBaseline    bool
	CurrentStamp  string
	BaselineStamp string
	Transitions   []Transition
}

// Regressions returns only the PASS-to-FAIL transitions.
func (r *Report) Regressions() []Transition {
	return r.ofKind(KindRegression)
}

// Fixes returns only the FAIL-to-PASS transitions.
func (r *Report) Fixes() []Transition {
	return r.ofKind(KindFix)
}

func (r *Report) ofKind(k Kind) []Transition {
	var out []Transition
	for _, tr := range r.Transitions {
		if tr.Kind == k {
			out = append(out, tr)
		}
	}
	return out
}

// Count tallies transitions of one kind.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, tr := range r.Transitions {
		if tr.Kind == k {
			n++
		}
	}
	return n
}

type pairKey struct {
	spec     string
	scenario string
}

type pairVal struct {
	status runs.Status
	note   string
}

// Detect compares the two most recent run directories in the history
// and classifies every scenario transition. With fewer than two run
// directories the report carries the NoBaseline flag and no
// transitions.
func Detect(hist *runs.History) *Report {
	current := hist.CurrentStamp()
	baseline := hist.PreviousStamp()
	rep := &Report{CurrentStamp: current, BaselineStamp: baseline}
	if baseline == "" {
		rep.NoBaseline = true
		return rep
	}

	cur := indexStamp(hist, current)
	prev := indexStamp(hist, baseline)

	keys := make([]pairKey, 0, len(cur)+len(prev))
	seen := make(map[pairKey]bool, len(cur)+len(prev))
	for k := range cur {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range prev {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].spec != keys[j].spec {
			return keys[i].spec < keys[j].spec
		}
		return keys[i].scenario < keys[j].scenario
	})

	for _, k := range keys {
		c, inCur := cur[k]
		p, inPrev := prev[k]
		tr := Transition{SpecID: k.spec, ScenarioID: k.scenario}
		switch {
		case inCur && !inPrev:
			tr.Kind = KindNew
			tr.Current = c.status
			tr.Note = c.note
		case !inCur && inPrev:
			tr.Kind = KindRemoved
			tr.Previous = p.status
		default:
			tr.Previous = p.status
			tr.Current = c.status
			tr.Note = c.note
			tr.Kind = classify(p.status, c.status)
		}
		rep.Transitions = append(rep.Transitions, tr)
	}
	return rep
}

func classify(prev, cur runs.Status) Kind {
	switch {
	case prev == runs.StatusPass && cur == runs.StatusFail:
		return KindRegression
	case prev == runs.StatusFail && cur == runs.StatusPass:
		return KindFix
	case prev == runs.StatusFail && cur == runs.StatusFail:
		return KindPersistentFailure
	default:
		return KindUnchanged
	}
}

// indexStamp flattens one run directory into (spec, scenario) pairs.
// Spec ids are normalized so a casing drift between run files of the
// same spec still lines up.
func indexStamp(hist *runs.History, stamp string) map[pairKey]pairVal {
	out := make(map[pairKey]pairVal)
	for _, rf := range hist.StampRuns(stamp) {
		specID := schema.NormalizeID(rf.SpecID)
		for _, res := range rf.Results {
			out[pairKey{specID, res.ScenarioID}] = pairVal{res.Status, res.Notes}
		}
	}
	return out
}
