// Package review implements the interactive REPL for classifying
// failing findings.
package review

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/caleidos-dev/specaudit/pkg/drift"
)

// Reviewer walks the failing findings of one audit pass and records
// verdicts into the classifications file.
type Reviewer struct {
	findings   []drift.Failure
	verdicts   drift.Classifications
	reportsDir string
	reviewer   string
	output     io.Writer
	rl         *readline.Instance
	index      int
}

// New creates a reviewer over the failing findings of an audit report.
func New(rep *drift.Report, verdicts drift.Classifications, reportsDir, reviewer string) *Reviewer {
	if verdicts == nil {
		verdicts = drift.Classifications{}
	}
	return &Reviewer{
		findings:   rep.Failing,
		verdicts:   verdicts,
		reportsDir: reportsDir,
		reviewer:   reviewer,
		output:     os.Stdout,
	}
}

// Run starts the interactive loop. Verdicts are persisted after every
// recorded judgment, so quitting early loses nothing.
func (r *Reviewer) Run() error {
	if len(r.findings) == 0 {
		fmt.Fprintf(r.output, "Nothing to review: no failing findings.\n")
		return nil
	}

	commands := []string{"app", "spec", "test", "skip", "show", "list", "help", "quit"}
	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	r.rl = rl
	defer rl.Close()

	fmt.Fprintf(r.output, "specaudit review — %d failing findings\n", len(r.findings))
	fmt.Fprintf(r.output, "Type 'help' for commands; app/spec/test records a verdict, skip leaves it pending.\n\n")
	r.showCurrent()

	for {
		rl.SetPrompt(r.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)

		switch parts[0] {
		case "app", "a":
			r.handleVerdict(drift.CategoryAppRegress, parts[1:])
		case "spec", "s":
			r.handleVerdict(drift.CategorySpecStale, parts[1:])
		case "test", "t":
			r.handleVerdict(drift.CategoryTestBrittle, parts[1:])
		case "skip", "n":
			r.handleSkip()
		case "show":
			r.showCurrent()
		case "list", "l":
			r.handleList()
		case "help", "?":
			r.handleHelp()
		case "quit", "q":
			fmt.Fprintf(r.output, "Exiting review.\n")
			return nil
		default:
			fmt.Fprintf(r.output, "Unknown command: %q. Type 'help' for commands.\n", parts[0])
		}

		if r.index >= len(r.findings) {
			fmt.Fprintf(r.output, "All findings reviewed.\n")
			return nil
		}
	}
}

// buildPrompt shows position and the finding under review:
// review[2/5 | AUTH-LOGIN/3]>
func (r *Reviewer) buildPrompt() string {
	if r.index >= len(r.findings) {
		return "review[done]> "
	}
	f := r.findings[r.index]
	return fmt.Sprintf("review[%d/%d | %s/%s]> ", r.index+1, len(r.findings), f.SpecID, f.ScenarioID)
}
