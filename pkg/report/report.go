// Package report renders audit results. The markdown document is
// assembled fully in memory and persisted with a temp-file rename so a
// crash mid-write can never leave a truncated report behind.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caleidos-dev/specaudit/pkg/coverage"
	"github.com/caleidos-dev/specaudit/pkg/drift"
	"github.com/caleidos-dev/specaudit/pkg/regress"
)

// StampLayout names report files the same way run directories are
// named, so reports sort chronologically next to the runs they
// describe.
const StampLayout = "20060102-150405"

// Input bundles everything one report covers. Regress and Drift may be
// nil; their sections are omitted.
type Input struct {
	Project  string
	Coverage *coverage.Summary
	Regress  *regress.Report
	Drift    *drift.Report
	Now      time.Time
}

// Render assembles the full markdown document.
func Render(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Audit report — %s\n\n", in.Project)
	fmt.Fprintf(&b, "Generated %s\n\n", in.Now.Format(time.RFC3339))

	renderCoverage(&b, in.Coverage)
	if in.Regress != nil {
		renderRegress(&b, in.Regress)
	}
	if in.Drift != nil {
		renderDrift(&b, in.Drift)
	}
	return b.String()
}

func renderCoverage(b *strings.Builder, sum *coverage.Summary) {
	b.WriteString("## Coverage\n\n")
	fmt.Fprintf(b, "Overall: %s across %d specs", ratioCell(sum.Overall.Ratio, sum.Overall.NoData), sum.Overall.SpecCount)
	if sum.Overall.NeverTested > 0 {
		fmt.Fprintf(b, " (%d never tested)", sum.Overall.NeverTested)
	}
	b.WriteString("\n\n")

	b.WriteString("| Area | Specs | Passed | Failed | Skipped | Ratio |\n")
	b.WriteString("|------|-------|--------|--------|---------|-------|\n")
	for _, ac := range sum.Areas {
		fmt.Fprintf(b, "| %s | %d | %d | %d | %d | %s |\n",
			ac.Area, ac.SpecCount, ac.Passed, ac.Failed, ac.Skipped, ratioCell(ac.Ratio, ac.NoData))
	}
	b.WriteString("\n| Spec | Priority | Ratio | Failing |\n")
	b.WriteString("|------|----------|-------|--------|\n")
	for _, sc := range sum.Specs {
		state := ratioCell(sc.Ratio, sc.NoData)
		if sc.NeverTested {
			state = "never tested"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			sc.Spec.ID, sc.Spec.Priority, state, strings.Join(sc.FailedScenarios, ", "))
	}
	b.WriteString("\n")
}

func renderRegress(b *strings.Builder, rep *regress.Report) {
	b.WriteString("## Regressions\n\n")
	if rep.NoBaseline {
		b.WriteString("No baseline run to compare against.\n\n")
		return
	}
	fmt.Fprintf(b, "Comparing %s against %s: %d regressions, %d fixes, %d persistent failures.\n\n",
		rep.CurrentStamp, rep.BaselineStamp,
		rep.Count(regress.KindRegression), rep.Count(regress.KindFix),
		rep.Count(regress.KindPersistentFailure))
	for _, tr := range rep.Regressions() {
		fmt.Fprintf(b, "- **%s / %s** regressed", tr.SpecID, tr.ScenarioID)
		if tr.Note != "" {
			fmt.Fprintf(b, ": %s", tr.Note)
		}
		b.WriteString("\n")
	}
	if len(rep.Regressions()) > 0 {
		b.WriteString("\n")
	}
}

func renderDrift(b *strings.Builder, rep *drift.Report) {
	b.WriteString("## Drift\n\n")
	if rep.Empty() {
		b.WriteString("Specs, generated tests, and run results all agree.\n\n")
		return
	}
	if len(rep.Uncovered) > 0 {
		b.WriteString("### Uncovered scenarios\n\n")
		for _, u := range rep.Uncovered {
			reason := "no matching test name"
			if u.NoTestFile {
				reason = "no generated test file"
			}
			fmt.Fprintf(b, "- %s / %s — %s (%s)\n", u.SpecID, u.ScenarioID, u.Title, reason)
		}
		b.WriteString("\n")
	}
	if len(rep.OrphanTests) > 0 {
		b.WriteString("### Orphaned test files\n\n")
		for _, tf := range rep.OrphanTests {
			fmt.Fprintf(b, "- %s\n", tf.File)
		}
		b.WriteString("\n")
	}
	if len(rep.OrphanRunSpecs) > 0 {
		b.WriteString("### Run history for deleted specs\n\n")
		for _, id := range rep.OrphanRunSpecs {
			fmt.Fprintf(b, "- %s\n", id)
		}
		b.WriteString("\n")
	}
	if len(rep.NeverTested) > 0 {
		b.WriteString("### Never tested\n\n")
		for _, id := range rep.NeverTested {
			fmt.Fprintf(b, "- %s\n", id)
		}
		b.WriteString("\n")
	}
	if len(rep.Failing) > 0 {
		b.WriteString("### Failures\n\n")
		b.WriteString("| Spec | Scenario | Expected | Note | Classification |\n")
		b.WriteString("|------|----------|----------|------|----------------|\n")
		for _, f := range rep.Failing {
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
				f.SpecID, f.ScenarioID, f.Expected, f.RunNote, f.Verdict.Category)
		}
		b.WriteString("\n")
	}
}

func ratioCell(ratio float64, noData bool) string {
	if noData {
		return "no data"
	}
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// Write persists a rendered report into the reports directory as
// audit-<stamp>.md and returns the path. The write goes through a
// temporary file and a rename.
func Write(reportsDir string, in Input) (string, error) {
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}
	path := filepath.Join(reportsDir, "audit-"+in.Now.Format(StampLayout)+".md")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(Render(in)), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replacing %s: %w", path, err)
	}
	return path, nil
}
