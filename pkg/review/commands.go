package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/caleidos-dev/specaudit/pkg/drift"
)

// handleVerdict records a category for the current finding and
// advances. Remaining words become the verdict note.
func (r *Reviewer) handleVerdict(cat drift.Category, rest []string) {
	f := r.findings[r.index]
	v := drift.Verdict{
		Category:   cat,
		Reviewer:   r.reviewer,
		Note:       strings.Join(rest, " "),
		ReviewedAt: time.Now().UTC(),
	}
	if err := r.verdicts.Record(f.SpecID, f.ScenarioID, v); err != nil {
		fmt.Fprintf(r.output, "  Error: %v\n", err)
		return
	}
	if err := drift.SaveClassifications(r.reportsDir, r.verdicts); err != nil {
		fmt.Fprintf(r.output, "  Error saving classifications: %v\n", err)
		return
	}
	fmt.Fprintf(r.output, "  %s/%s classified %s\n", f.SpecID, f.ScenarioID, cat)
	r.advance()
}

// handleSkip leaves the current finding pending and advances.
func (r *Reviewer) handleSkip() {
	f := r.findings[r.index]
	fmt.Fprintf(r.output, "  %s/%s left %s\n", f.SpecID, f.ScenarioID, drift.CategoryPending)
	r.advance()
}

func (r *Reviewer) advance() {
	r.index++
	if r.index < len(r.findings) {
		fmt.Fprintln(r.output)
		r.showCurrent()
	}
}

// showCurrent prints the mechanical inputs a verdict needs: what was
// expected, what the run recorded, and which generated test ran.
func (r *Reviewer) showCurrent() {
	f := r.findings[r.index]
	fmt.Fprintf(r.output, "Finding %d/%d: %s scenario %s\n", r.index+1, len(r.findings), f.SpecID, f.ScenarioID)
	if f.Title != "" {
		fmt.Fprintf(r.output, "  scenario:  %s\n", f.Title)
	}
	if f.Expected != "" {
		fmt.Fprintf(r.output, "  expected:  %s\n", f.Expected)
	}
	if f.RunNote != "" {
		fmt.Fprintf(r.output, "  run note:  %s\n", f.RunNote)
	}
	if f.TestFile != "" {
		fmt.Fprintf(r.output, "  test file: %s\n", f.TestFile)
	}
	fmt.Fprintf(r.output, "  current:   %s\n", r.verdicts.Lookup(f.SpecID, f.ScenarioID).Category)
}

// handleList shows every finding with its review state.
func (r *Reviewer) handleList() {
	for i, f := range r.findings {
		marker := " "
		if i == r.index {
			marker = ">"
		}
		fmt.Fprintf(r.output, "  %s %d. %s/%s — %s\n", marker, i+1, f.SpecID, f.ScenarioID,
			r.verdicts.Lookup(f.SpecID, f.ScenarioID).Category)
	}
}

// handleHelp displays available commands.
func (r *Reviewer) handleHelp() {
	fmt.Fprintln(r.output, "Available commands:")
	fmt.Fprintln(r.output, "  app (a) [note]   Classify as appRegression")
	fmt.Fprintln(r.output, "  spec (s) [note]  Classify as specStaleness")
	fmt.Fprintln(r.output, "  test (t) [note]  Classify as testBrittleness")
	fmt.Fprintln(r.output, "  skip (n)         Leave pending and move on")
	fmt.Fprintln(r.output, "  show             Show the current finding again")
	fmt.Fprintln(r.output, "  list (l)         List all findings and their state")
	fmt.Fprintln(r.output, "  help (?)         Show this help")
	fmt.Fprintln(r.output, "  quit (q)         Exit review")
}
