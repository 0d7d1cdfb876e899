package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caleidos-dev/specaudit/pkg/coverage"
	"github.com/caleidos-dev/specaudit/pkg/drift"
	"github.com/caleidos-dev/specaudit/pkg/regress"
	"github.com/caleidos-dev/specaudit/pkg/runs"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

func sampleInput() Input {
	login := &schema.Spec{
		Metadata: schema.Metadata{ID: "AUTH-LOGIN", Area: "auth", Priority: schema.PriorityP0},
	}
	ws := &schema.Spec{
		Metadata: schema.Metadata{ID: "WS-CREATE", Area: "workspace", Priority: schema.PriorityP2},
	}
	sum := &coverage.Summary{
		Mode: coverage.ModeRuns,
		Specs: []coverage.SpecCoverage{
			{Spec: login, Total: 4, Passed: 3, Failed: 1, Ratio: 0.75, FailedScenarios: []string{"3"}},
			{Spec: ws, NeverTested: true, NoData: true},
		},
		Areas: []coverage.AreaCoverage{
			{Area: "auth", SpecCount: 1, Total: 4, Passed: 3, Failed: 1, Ratio: 0.75},
			{Area: "workspace", SpecCount: 1, NeverTested: 1, NoData: true},
		},
		Overall: coverage.AreaCoverage{SpecCount: 2, Total: 4, Passed: 3, Failed: 1, Ratio: 0.75, NeverTested: 1},
	}
	return Input{
		Project:  "webapp-qa",
		Coverage: sum,
		Regress: &regress.Report{
			CurrentStamp:  "20260829-100000",
			BaselineStamp: "20260810-090000",
			Transitions: []regress.Transition{
				{SpecID: "AUTH-LOGIN", ScenarioID: "3", Kind: regress.KindRegression,
					Previous: runs.StatusPass, Current: runs.StatusFail, Note: "submit stays disabled"},
			},
		},
		Drift: &drift.Report{
			Uncovered:   []drift.Uncovered{{SpecID: "WS-CREATE", ScenarioID: "1", Title: "create", NoTestFile: true}},
			NeverTested: []string{"WS-CREATE"},
			Failing: []drift.Failure{{
				SpecID: "AUTH-LOGIN", ScenarioID: "3",
				Expected: "button enabled", RunNote: "submit stays disabled",
				Verdict: drift.Verdict{Category: drift.CategoryPending},
			}},
		},
		Now: time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC),
	}
}

// TestRenderSections: the document carries every section with the
// distinct no-data and never-tested states.
func TestRenderSections(t *testing.T) {
	md := Render(sampleInput())

	for _, want := range []string{
		"# Audit report — webapp-qa",
		"## Coverage",
		"| auth | 1 | 3 | 1 | 0 | 75% |",
		"never tested",
		"## Regressions",
		"Comparing 20260829-100000 against 20260810-090000",
		"**AUTH-LOGIN / 3** regressed: submit stays disabled",
		"## Drift",
		"no generated test file",
		"pendingReview",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q\n%s", want, md)
		}
	}
}

// TestRenderNoBaseline: the explicit message, never a zero count.
func TestRenderNoBaseline(t *testing.T) {
	in := sampleInput()
	in.Regress = &regress.Report{NoBaseline: true}
	md := Render(in)
	if !strings.Contains(md, "No baseline run to compare against.") {
		t.Errorf("missing no-baseline message:\n%s", md)
	}
	if strings.Contains(md, "0 regressions") {
		t.Error("a missing baseline must not read like a clean comparison")
	}
}

// TestWriteAtomic: one stamped file per invocation and no leftover
// temp file.
func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	in := sampleInput()
	path, err := Write(dir, in)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "audit-20260829-123000.md" {
		t.Errorf("report name: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != Render(in) {
		t.Error("persisted report differs from the rendered document")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file, found %d", len(entries))
	}
}

// TestTermRenderingStates: terminal output keeps never-tested and
// no-data distinguishable and flags pending reviews.
func TestTermRenderingStates(t *testing.T) {
	in := sampleInput()

	cov := TermCoverage(in.Coverage)
	if !strings.Contains(cov, "never tested") {
		t.Errorf("coverage output missing never-tested state:\n%s", cov)
	}
	if !strings.Contains(cov, "75%") {
		t.Errorf("coverage output missing ratio:\n%s", cov)
	}

	reg := TermRegress(in.Regress)
	if !strings.Contains(reg, "regressed") || !strings.Contains(reg, "AUTH-LOGIN") {
		t.Errorf("regress output:\n%s", reg)
	}

	dr := TermDrift(in.Drift)
	if !strings.Contains(dr, "pending review") {
		t.Errorf("drift output missing pending prompt:\n%s", dr)
	}
}
