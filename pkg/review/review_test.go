package review

import (
	"bytes"
	"strings"
	"testing"

	"github.com/caleidos-dev/specaudit/pkg/drift"
)

func twoFindings() []drift.Failure {
	return []drift.Failure{
		{SpecID: "AUTH-LOGIN", ScenarioID: "3", Title: "error shown",
			Expected: "inline error", RunNote: "toast instead",
			Verdict: drift.Verdict{Category: drift.CategoryPending}},
		{SpecID: "WS-CREATE", ScenarioID: "1",
			Verdict: drift.Verdict{Category: drift.CategoryPending}},
	}
}

// TestReviewVerdictRecordsAndPersists: a verdict lands in the
// classifications file immediately and the reviewer advances.
func TestReviewVerdictRecordsAndPersists(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	r := &Reviewer{
		findings:   twoFindings(),
		verdicts:   drift.Classifications{},
		reportsDir: dir,
		reviewer:   "sam",
		output:     &buf,
	}

	r.handleVerdict(drift.CategorySpecStale, []string{"copy", "changed"})

	if r.index != 1 {
		t.Errorf("reviewer should advance, index=%d", r.index)
	}
	back, err := drift.LoadClassifications(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v := back.Lookup("AUTH-LOGIN", "3")
	if v.Category != drift.CategorySpecStale || v.Reviewer != "sam" || v.Note != "copy changed" {
		t.Errorf("persisted verdict: %+v", v)
	}
}

// TestReviewSkipLeavesPending: skip advances without writing anything.
func TestReviewSkipLeavesPending(t *testing.T) {
	var buf bytes.Buffer
	r := &Reviewer{
		findings: twoFindings(),
		verdicts: drift.Classifications{},
		output:   &buf,
	}
	r.handleSkip()
	if r.index != 1 {
		t.Errorf("skip should advance, index=%d", r.index)
	}
	if len(r.verdicts) != 0 {
		t.Errorf("skip must not record a verdict: %v", r.verdicts)
	}
	if !strings.Contains(buf.String(), "pendingReview") {
		t.Errorf("skip output: %s", buf.String())
	}
}

// TestReviewShowCurrent lists the reviewer's mechanical inputs.
func TestReviewShowCurrent(t *testing.T) {
	var buf bytes.Buffer
	r := &Reviewer{
		findings: twoFindings(),
		verdicts: drift.Classifications{},
		output:   &buf,
	}
	r.showCurrent()
	out := buf.String()
	for _, want := range []string{"AUTH-LOGIN", "inline error", "toast instead", "pendingReview"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q: %s", want, out)
		}
	}
}

// TestReviewPromptFormat verifies the prompt shows position and
// finding.
func TestReviewPromptFormat(t *testing.T) {
	r := &Reviewer{findings: twoFindings(), verdicts: drift.Classifications{}}
	prompt := r.buildPrompt()
	if !strings.Contains(prompt, "1/2") || !strings.Contains(prompt, "AUTH-LOGIN/3") {
		t.Errorf("prompt format unexpected: %q", prompt)
	}
	r.index = 2
	if r.buildPrompt() != "review[done]> " {
		t.Errorf("done prompt: %q", r.buildPrompt())
	}
}

// TestReviewHelp lists every command.
func TestReviewHelp(t *testing.T) {
	var buf bytes.Buffer
	r := &Reviewer{output: &buf}
	r.handleHelp()
	out := buf.String()
	for _, cmd := range []string{"app", "spec", "test", "skip", "show", "list", "help", "quit"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help output missing command %q", cmd)
		}
	}
}
