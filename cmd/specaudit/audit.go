package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/caleidos-dev/specaudit/pkg/coverage"
	"github.com/caleidos-dev/specaudit/pkg/drift"
	"github.com/caleidos-dev/specaudit/pkg/gentest"
	"github.com/caleidos-dev/specaudit/pkg/graph"
	"github.com/caleidos-dev/specaudit/pkg/project"
	"github.com/caleidos-dev/specaudit/pkg/query"
	"github.com/caleidos-dev/specaudit/pkg/regress"
	"github.com/caleidos-dev/specaudit/pkg/report"
	"github.com/caleidos-dev/specaudit/pkg/runs"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

var (
	auditArea  string
	auditWhere string
	auditTests bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Print the drift report reconciling specs, tests, and runs",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	set, err := loadSpecs(proj)
	if err != nil {
		return err
	}

	specs := set.Specs
	if auditArea != "" {
		specs, err = graph.Select(set, auditArea)
		if err != nil {
			return err
		}
	}
	specs, err = query.Apply(auditWhere, specs)
	if err != nil {
		return err
	}

	hist, tests, verdicts, err := loadArtifacts(proj)
	if err != nil {
		return err
	}

	if auditTests {
		sum := coverage.FromTests(schema.NewSet(specs), tests)
		fmt.Print(report.TermCoverage(sum))
		fmt.Println()
	}

	// Reconcile against the full set so out-of-scope artifacts do not
	// register as orphans, then narrow the findings to the selection.
	rep := drift.Audit(set, tests, hist, verdicts)
	if auditArea != "" || auditWhere != "" {
		rep = rep.Scoped(specs)
	}
	fmt.Print(report.TermDrift(rep))
	return nil
}

// loadArtifacts reads run history, generated tests, and reviewer
// verdicts. Run-file warnings go to stderr but never abort.
func loadArtifacts(proj *project.Project) (*runs.History, *gentest.Index, drift.Classifications, error) {
	hist, warns, err := runs.Load(proj.RunsDir())
	if err != nil {
		return nil, nil, nil, err
	}
	printDiagnostics(warns)

	files, err := gentest.LoadDir(proj.TestsDir())
	if err != nil {
		return nil, nil, nil, err
	}
	verdicts, err := drift.LoadClassifications(proj.ReportsDir())
	if err != nil {
		return nil, nil, nil, err
	}
	return hist, gentest.NewIndex(files), verdicts, nil
}

// --- regressions ---

var regressionsCmd = &cobra.Command{
	Use:   "regressions",
	Short: "Diff the latest run set against the previous one",
	Args:  cobra.NoArgs,
	RunE:  runRegressions,
}

func runRegressions(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	hist, warns, err := runs.Load(proj.RunsDir())
	if err != nil {
		return err
	}
	printDiagnostics(warns)

	rep := regress.Detect(hist)
	fmt.Print(report.TermRegress(rep))
	return nil
}

// --- report ---

var reportPreview bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Persist the rendered audit report to the reports directory",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	set, err := loadSpecs(proj)
	if err != nil {
		return err
	}
	hist, tests, verdicts, err := loadArtifacts(proj)
	if err != nil {
		return err
	}

	in := report.Input{
		Project:  proj.Name,
		Coverage: coverage.FromRuns(set, hist.LatestBySpec()),
		Regress:  regress.Detect(hist),
		Drift:    drift.Audit(set, tests, hist, verdicts),
		Now:      time.Now(),
	}

	if reportPreview {
		fmt.Print(report.Preview(in))
		return nil
	}

	path, err := report.Write(proj.ReportsDir(), in)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func init() {
	auditCmd.Flags().StringVar(&auditArea, "area", "", "restrict to one area")
	auditCmd.Flags().StringVar(&auditWhere, "where", "", "filter specs with an expression")
	auditCmd.Flags().BoolVar(&auditTests, "tests", false, "coverage from generated tests instead of runs")
	reportCmd.Flags().BoolVar(&reportPreview, "preview", false, "render to the terminal instead of writing")
}
