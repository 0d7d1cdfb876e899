// Package tui implements the coverage dashboard: a Bubble Tea app
// listing every spec with its latest coverage state and a detail pane
// for the selected spec.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/caleidos-dev/specaudit/pkg/coverage"
	"github.com/caleidos-dev/specaudit/pkg/drift"
	"github.com/caleidos-dev/specaudit/pkg/runs"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// SpecRow is one list entry in the dashboard.
type SpecRow struct {
	Spec     *schema.Spec
	Coverage coverage.SpecCoverage
	Run      *runs.RunFile
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	project  string
	rows     []SpecRow
	drift    *drift.Report
	selected int
	detail   viewport.Model
	width    int
	height   int
	ready    bool
}

// NewModel builds the dashboard from one audit pass.
func NewModel(project string, sum *coverage.Summary, hist *runs.History, rep *drift.Report) Model {
	rows := make([]SpecRow, 0, len(sum.Specs))
	for _, sc := range sum.Specs {
		rows = append(rows, SpecRow{
			Spec:     sc.Spec,
			Coverage: sc,
			Run:      hist.Latest(sc.Spec.ID),
		})
	}
	return Model{project: project, rows: rows, drift: rep}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.refreshDetail()
			}
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
				m.refreshDetail()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		detailHeight := msg.Height - len(m.rows) - 6
		if detailHeight < 3 {
			detailHeight = 3
		}
		if !m.ready {
			m.detail = viewport.New(msg.Width, detailHeight)
			m.ready = true
		} else {
			m.detail.Width = msg.Width
			m.detail.Height = detailHeight
		}
		m.refreshDetail()
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// refreshDetail rebuilds the viewport content for the selected spec.
func (m *Model) refreshDetail() {
	if !m.ready || m.selected >= len(m.rows) {
		return
	}
	m.detail.SetContent(m.detailText(m.rows[m.selected]))
	m.detail.GotoTop()
}

// detailText lists the selected spec's scenarios with their latest
// recorded status.
func (m *Model) detailText(row SpecRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %s (%s)\n", row.Spec.ID, row.Spec.Title, row.Spec.Priority)
	if len(row.Spec.DependsOn) > 0 {
		fmt.Fprintf(&b, "depends on: %s\n", strings.Join(row.Spec.DependsOn, ", "))
	}
	b.WriteString("\n")
	for _, scen := range row.Spec.Scenarios {
		status := "not run"
		icon := "○"
		if row.Run != nil {
			if st, ok := row.Run.Result(scen.ID); ok {
				status = string(st)
				switch st {
				case runs.StatusPass:
					icon = "✓"
				case runs.StatusFail:
					icon = "✗"
				case runs.StatusSkip:
					icon = "⊘"
				}
			}
		}
		fmt.Fprintf(&b, "  %s %s. %s — %s\n", icon, scen.ID, scen.Title, status)
		fmt.Fprintf(&b, "      expected: %s\n", scen.Expected)
	}
	return b.String()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	b.WriteString(headerStyle.Render(fmt.Sprintf("  specaudit: %s", m.project)))
	b.WriteString("\n\n")

	for i, row := range m.rows {
		line := fmt.Sprintf("  %s %s [%s]  %s", rowIcon(row.Coverage), row.Spec.ID, row.Spec.Priority, rowState(row.Coverage))
		if i == m.selected {
			selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
			b.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.detail.View())
		b.WriteString("\n")
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if m.drift != nil {
		if n := m.drift.Pending(); n > 0 {
			b.WriteString(statusStyle.Render(fmt.Sprintf("  %d failures pending review", n)))
			b.WriteString("\n")
		}
	}
	b.WriteString(statusStyle.Render("  q: quit  ↑/↓: navigate"))
	return b.String()
}

func rowIcon(sc coverage.SpecCoverage) string {
	switch {
	case sc.NeverTested:
		return "○"
	case sc.NoData:
		return "?"
	case sc.Failed > 0:
		return "✗"
	default:
		return "✓"
	}
}

func rowState(sc coverage.SpecCoverage) string {
	switch {
	case sc.NeverTested:
		return "never tested"
	case sc.NoData:
		return "no data"
	default:
		return fmt.Sprintf("%.0f%%", sc.Ratio*100)
	}
}
