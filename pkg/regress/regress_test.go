package regress

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caleidos-dev/specaudit/pkg/runs"
)

func writeRun(t *testing.T, dir, stamp, specID string, rows map[string]string) {
	t.Helper()
	d := filepath.Join(dir, stamp)
	if err := os.MkdirAll(d, 0755); err != nil {
		t.Fatal(err)
	}
	var counts [3]int
	var table strings.Builder
	table.WriteString("| scenario | status | notes |\n|---|---|---|\n")
	ids := make([]string, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	// Map order is fine for the file; the detector sorts its output.
	for _, id := range ids {
		st := rows[id]
		fmt.Fprintf(&table, "| %s | %s | |\n", id, st)
		switch st {
		case "PASS":
			counts[0]++
		case "FAIL":
			counts[1]++
		case "SKIP":
			counts[2]++
		}
	}
	body := fmt.Sprintf(`---
spec: %s
run_at: 2026-08-29T10:00:00Z
passed: %d
failed: %d
skipped: %d
---
%s`, specID, counts[0], counts[1], counts[2], table.String())
	name := strings.ToLower(specID) + ".run.md"
	if err := os.WriteFile(filepath.Join(d, name), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func load(t *testing.T, dir string) *runs.History {
	t.Helper()
	h, warns, err := runs.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	return h
}

// TestDetectTransitions exercises all six kinds in one comparison.
func TestDetectTransitions(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "20260810-090000", "AUTH-LOGIN", map[string]string{
		"1": "PASS", // stays PASS
		"2": "PASS", // becomes FAIL
		"3": "FAIL", // becomes PASS
		"4": "FAIL", // stays FAIL
		"5": "PASS", // disappears
	})
	writeRun(t, dir, "20260829-100000", "AUTH-LOGIN", map[string]string{
		"1": "PASS",
		"2": "FAIL",
		"3": "PASS",
		"4": "FAIL",
		"6": "PASS", // appears
	})

	rep := Detect(load(t, dir))
	if rep.NoBaseline {
		t.Fatal("baseline exists")
	}
	if rep.CurrentStamp != "20260829-100000" || rep.BaselineStamp != "20260810-090000" {
		t.Errorf("stamps: %s vs %s", rep.CurrentStamp, rep.BaselineStamp)
	}

	want := map[string]Kind{
		"1": KindUnchanged,
		"2": KindRegression,
		"3": KindFix,
		"4": KindPersistentFailure,
		"5": KindRemoved,
		"6": KindNew,
	}
	if len(rep.Transitions) != len(want) {
		t.Fatalf("expected %d transitions, got %d: %+v", len(want), len(rep.Transitions), rep.Transitions)
	}
	for _, tr := range rep.Transitions {
		if tr.SpecID != "AUTH-LOGIN" {
			t.Errorf("spec id: %q", tr.SpecID)
		}
		if k := want[tr.ScenarioID]; tr.Kind != k {
			t.Errorf("scenario %s: got %s, want %s", tr.ScenarioID, tr.Kind, k)
		}
	}
}

// TestDetectAccounting: over shared scenarios the four shared kinds
// partition exactly, with new/removed covering the rest.
func TestDetectAccounting(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "20260810-090000", "WS-CREATE", map[string]string{
		"1": "PASS", "2": "FAIL", "3": "SKIP", "4": "PASS",
	})
	writeRun(t, dir, "20260829-100000", "WS-CREATE", map[string]string{
		"1": "FAIL", "2": "FAIL", "3": "PASS", "4": "SKIP",
	})

	rep := Detect(load(t, dir))
	shared := rep.Count(KindRegression) + rep.Count(KindFix) +
		rep.Count(KindPersistentFailure) + rep.Count(KindUnchanged)
	if shared != 4 {
		t.Errorf("shared scenarios must partition into the four kinds: got %d", shared)
	}
	if rep.Count(KindNew) != 0 || rep.Count(KindRemoved) != 0 {
		t.Errorf("no additions or removals expected: %+v", rep.Transitions)
	}
	// SKIP on either side is never a regression or a fix.
	if rep.Count(KindUnchanged) != 3 {
		t.Errorf("skip transitions should count as unchanged: %+v", rep.Transitions)
	}
	if rep.Count(KindRegression) != 1 {
		t.Errorf("expected the one PASS to FAIL regression")
	}
}

// TestDetectNoBaseline: a single run is not comparable and must say
// so explicitly instead of reporting zero regressions.
func TestDetectNoBaseline(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "20260829-100000", "AUTH-LOGIN", map[string]string{"1": "PASS"})

	rep := Detect(load(t, dir))
	if !rep.NoBaseline {
		t.Fatal("one run has no baseline")
	}
	if len(rep.Transitions) != 0 {
		t.Errorf("no transitions without a baseline: %+v", rep.Transitions)
	}
}

// TestDetectSpecOnlyInOneRunSet: a spec dropped between runs shows up
// as removed rows, not a crash or a silent omission.
func TestDetectSpecOnlyInOneRunSet(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "20260810-090000", "OLD-FEATURE", map[string]string{"1": "PASS"})
	writeRun(t, dir, "20260810-090000", "AUTH-LOGIN", map[string]string{"1": "PASS"})
	writeRun(t, dir, "20260829-100000", "AUTH-LOGIN", map[string]string{"1": "PASS"})

	rep := Detect(load(t, dir))
	removed := rep.ofKind(KindRemoved)
	if len(removed) != 1 || removed[0].SpecID != "OLD-FEATURE" {
		t.Errorf("expected OLD-FEATURE removed, got %+v", removed)
	}
}

// TestReportRegressionsAndFixes filters by kind and carries notes.
func TestReportRegressionsAndFixes(t *testing.T) {
	rep := &Report{Transitions: []Transition{
		{SpecID: "A", ScenarioID: "1", Kind: KindRegression, Note: "button disabled"},
		{SpecID: "A", ScenarioID: "2", Kind: KindFix},
		{SpecID: "A", ScenarioID: "3", Kind: KindUnchanged},
	}}
	if rg := rep.Regressions(); len(rg) != 1 || rg[0].Note != "button disabled" {
		t.Errorf("regressions: %+v", rg)
	}
	if fx := rep.Fixes(); len(fx) != 1 || fx[0].ScenarioID != "2" {
		t.Errorf("fixes: %+v", fx)
	}
}
