package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caleidos-dev/specaudit/pkg/coverage"
	"github.com/caleidos-dev/specaudit/pkg/project"
	"github.com/caleidos-dev/specaudit/pkg/query"
	"github.com/caleidos-dev/specaudit/pkg/report"
	"github.com/caleidos-dev/specaudit/pkg/runs"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "specaudit",
	Short: "Spec coverage and drift auditing",
	Long:  "specaudit — correlates authored test specs with generated tests and recorded run results: coverage, regressions, execution order, and drift.",
}

// loadProject discovers the project from the working directory.
func loadProject() (*project.Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	proj, err := project.Discover(cwd)
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// loadSpecs loads and validates the spec set, printing warnings and
// failing on error-severity diagnostics.
func loadSpecs(proj *project.Project) (*schema.Set, error) {
	set, diags, err := schema.LoadDir(proj.SpecsDir())
	if err != nil {
		return nil, err
	}
	errors := printDiagnostics(diags)
	if errors > 0 {
		return nil, fmt.Errorf("%d validation error(s) in %s", errors, proj.SpecsDir())
	}
	return set, nil
}

// printDiagnostics writes diagnostics to stderr and returns the number
// of error-severity ones.
func printDiagnostics(diags []*schema.ValidationError) int {
	errors := 0
	for _, d := range diags {
		if d.Severity == "error" {
			errors++
			fmt.Fprintf(os.Stderr, "  ✗ %s\n", d)
		} else {
			fmt.Fprintf(os.Stderr, "  ⚠ %s\n", d)
		}
	}
	return errors
}

// --- init ---

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter specaudit.yaml in the current directory",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	path, err := project.Init(cwd)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// --- validate ---

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate the spec files and report diagnostics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	var specsDir string
	if len(args) == 1 {
		specsDir = args[0]
	} else {
		proj, err := loadProject()
		if err != nil {
			return err
		}
		specsDir = proj.SpecsDir()
	}

	set, diags, err := schema.LoadDir(specsDir)
	if err != nil {
		return err
	}

	if validateJSON {
		data, err := json.MarshalIndent(diags, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		if hasErrors(diags) {
			os.Exit(1)
		}
		return nil
	}

	errors := printDiagnostics(diags)
	if errors > 0 {
		return fmt.Errorf("validation failed: %d error(s)", errors)
	}
	warnings := len(diags) - errors
	fmt.Printf("✓ %d specs valid", len(set.Specs))
	if warnings > 0 {
		fmt.Printf(" (%d warnings)", warnings)
	}
	fmt.Println()
	return nil
}

func hasErrors(diags []*schema.ValidationError) bool {
	for _, d := range diags {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}

// --- status ---

var statusWhere string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Coverage summary from the latest recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	set, err := loadSpecs(proj)
	if err != nil {
		return err
	}
	specs, err := query.Apply(statusWhere, set.Specs)
	if err != nil {
		return err
	}

	hist, warns, err := runs.Load(proj.RunsDir())
	if err != nil {
		return err
	}
	printDiagnostics(warns)

	sum := coverage.FromRuns(schema.NewSet(specs), hist.LatestBySpec())
	fmt.Print(report.TermCoverage(sum))
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("specaudit %s (%s)\n", version, commit)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "emit diagnostics as JSON")
	statusCmd.Flags().StringVar(&statusWhere, "where", "", "filter specs with an expression, e.g. 'area == \"auth\"'")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(regressionsCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}
