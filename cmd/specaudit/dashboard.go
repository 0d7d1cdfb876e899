package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/caleidos-dev/specaudit/pkg/coverage"
	"github.com/caleidos-dev/specaudit/pkg/drift"
	"github.com/caleidos-dev/specaudit/pkg/ecosystem/tui"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive coverage browser",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
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

	sum := coverage.FromRuns(set, hist.LatestBySpec())
	rep := drift.Audit(set, tests, hist, verdicts)

	m := tui.NewModel(proj.Name, sum, hist, rep)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// --- schema export ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema utilities",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the spec metadata JSON Schema",
	Args:  cobra.NoArgs,
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	data, err := schema.GenerateSpecJSONSchema()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	schemaCmd.AddCommand(schemaExportCmd)
}
