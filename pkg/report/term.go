package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/caleidos-dev/specaudit/pkg/coverage"
	"github.com/caleidos-dev/specaudit/pkg/drift"
	"github.com/caleidos-dev/specaudit/pkg/regress"
)

// Status glyphs — convey meaning without relying on color alone.
const (
	GlyphPassing     = "✓"
	GlyphFailing     = "✗"
	GlyphNeverTested = "○"
	GlyphNoData      = "?"
	GlyphRegression  = "▼"
	GlyphFix         = "▲"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	passStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	dimStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(colorDim)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)
)

// TermCoverage renders the status table for the terminal. Never-tested
// and no-data specs are visually distinct from a plain zero ratio.
func TermCoverage(sum *coverage.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Coverage") + "\n\n")

	idW := len("SPEC")
	for _, sc := range sum.Specs {
		if w := runewidth.StringWidth(sc.Spec.ID); w > idW {
			idW = w
		}
	}

	b.WriteString(headerRowStyle.Render(pad("SPEC", idW)+"  PRI  RATIO") + "\n")
	for _, sc := range sum.Specs {
		line := pad(sc.Spec.ID, idW) + "  " + pad(string(sc.Spec.Priority), 3) + "  "
		switch {
		case sc.NeverTested:
			line = dimStyle.Render(line + GlyphNeverTested + " never tested")
		case sc.NoData:
			line = warnStyle.Render(line + GlyphNoData + " no data")
		case sc.Failed > 0 || len(sc.FailedScenarios) > 0:
			line = failStyle.Render(line + GlyphFailing + " " + ratioCell(sc.Ratio, false))
		default:
			line = passStyle.Render(line + GlyphPassing + " " + ratioCell(sc.Ratio, false))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	overall := fmt.Sprintf("overall %s across %d specs", ratioCell(sum.Overall.Ratio, sum.Overall.NoData), sum.Overall.SpecCount)
	if sum.Overall.NeverTested > 0 {
		overall += dimStyle.Render(fmt.Sprintf("  (%d never tested)", sum.Overall.NeverTested))
	}
	b.WriteString(overall + "\n")
	return b.String()
}

// TermRegress renders the regression diff summary.
func TermRegress(rep *regress.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Regressions") + "\n\n")
	if rep.NoBaseline {
		b.WriteString(warnStyle.Render("no baseline run to compare against") + "\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%s vs %s\n", rep.CurrentStamp, dimStyle.Render(rep.BaselineStamp))
	for _, tr := range rep.Transitions {
		switch tr.Kind {
		case regress.KindRegression:
			fmt.Fprintf(&b, "%s %s / %s", failStyle.Render(GlyphRegression+" regressed"), tr.SpecID, tr.ScenarioID)
			if tr.Note != "" {
				b.WriteString(dimStyle.Render("  " + tr.Note))
			}
			b.WriteString("\n")
		case regress.KindFix:
			fmt.Fprintf(&b, "%s %s / %s\n", passStyle.Render(GlyphFix+" fixed"), tr.SpecID, tr.ScenarioID)
		case regress.KindPersistentFailure:
			fmt.Fprintf(&b, "%s %s / %s\n", warnStyle.Render(GlyphFailing+" still failing"), tr.SpecID, tr.ScenarioID)
		}
	}
	fmt.Fprintf(&b, "\n%d regressions, %d fixes, %d persistent failures\n",
		rep.Count(regress.KindRegression), rep.Count(regress.KindFix), rep.Count(regress.KindPersistentFailure))
	return b.String()
}

// TermDrift renders the audit findings for the terminal.
func TermDrift(rep *drift.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Drift") + "\n\n")
	if rep.Empty() {
		b.WriteString(passStyle.Render(GlyphPassing+" specs, tests, and runs all agree") + "\n")
		return b.String()
	}
	for _, u := range rep.Uncovered {
		reason := "no matching test name"
		if u.NoTestFile {
			reason = "no generated test file"
		}
		fmt.Fprintf(&b, "%s %s / %s  %s\n", warnStyle.Render("uncovered"), u.SpecID, u.ScenarioID, dimStyle.Render(reason))
	}
	for _, tf := range rep.OrphanTests {
		fmt.Fprintf(&b, "%s %s\n", warnStyle.Render("orphan test"), tf.File)
	}
	for _, id := range rep.OrphanRunSpecs {
		fmt.Fprintf(&b, "%s %s\n", warnStyle.Render("orphan runs"), id)
	}
	for _, id := range rep.NeverTested {
		fmt.Fprintf(&b, "%s %s\n", dimStyle.Render(GlyphNeverTested+" never tested"), id)
	}
	for _, f := range rep.Failing {
		fmt.Fprintf(&b, "%s %s / %s  %s\n", failStyle.Render(GlyphFailing+" failing"), f.SpecID, f.ScenarioID, dimStyle.Render(string(f.Verdict.Category)))
	}
	if n := rep.Pending(); n > 0 {
		fmt.Fprintf(&b, "\n%d failures pending review (specaudit review)\n", n)
	}
	return b.String()
}

// Preview renders the markdown report with glamour for terminal
// display instead of persisting it. Falls back to the raw markdown if
// rendering fails.
func Preview(in Input) string {
	md := Render(in)
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}

func pad(s string, w int) string {
	return s + strings.Repeat(" ", max(0, w-runewidth.StringWidth(s)))
}
