package graph

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// Format is the diagram output format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
	FormatList    Format = "list"
)

// Diagram renders the resolved order and its dependency edges.
func Diagram(order []*schema.Spec, format Format) (string, error) {
	switch format {
	case FormatMermaid:
		return diagramMermaid(order), nil
	case FormatASCII:
		return diagramASCII(order), nil
	case FormatList:
		return diagramList(order), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// --- Mermaid flowchart ---

func diagramMermaid(order []*schema.Spec) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	inOrder := make(map[string]bool, len(order))
	for _, sp := range order {
		inOrder[sp.ID] = true
	}

	for _, sp := range order {
		b.WriteString(fmt.Sprintf("    %s[\"%s (%s)\"]\n", safeID(sp.ID), sp.ID, sp.Priority))
	}
	for _, sp := range order {
		for _, dep := range sp.DependsOn {
			if inOrder[dep] {
				b.WriteString(fmt.Sprintf("    %s --> %s\n", safeID(dep), safeID(sp.ID)))
			}
		}
	}

	// Highlight P0 specs.
	for _, sp := range order {
		if sp.Priority == schema.PriorityP0 {
			b.WriteString(fmt.Sprintf("    style %s fill:#1a3a4a,stroke:#0af\n", safeID(sp.ID)))
		}
	}
	return b.String()
}

// safeID sanitizes a spec id into a Mermaid node identifier.
func safeID(id string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(id)
}

// --- ASCII ---

// diagramASCII draws one box per spec in execution order with a single
// connector column, widths normalized via runewidth.
func diagramASCII(order []*schema.Spec) string {
	var b strings.Builder
	if len(order) == 0 {
		b.WriteString("(no specs selected)\n")
		return b.String()
	}

	width := 0
	labels := make([]string, len(order))
	for i, sp := range order {
		label := fmt.Sprintf(" %s  %s ", sp.ID, sp.Priority)
		if len(sp.DependsOn) > 0 {
			label = fmt.Sprintf(" %s  %s  after %s ", sp.ID, sp.Priority, strings.Join(sp.DependsOn, ","))
		}
		labels[i] = label
		if w := runewidth.StringWidth(label); w > width {
			width = w
		}
	}

	conn := strings.Repeat(" ", width/2+1)
	for i, label := range labels {
		pad := width - runewidth.StringWidth(label)
		b.WriteString("┌" + strings.Repeat("─", width) + "┐\n")
		b.WriteString("│" + label + strings.Repeat(" ", pad) + "│\n")
		b.WriteString("└" + strings.Repeat("─", width) + "┘\n")
		if i < len(order)-1 {
			b.WriteString(conn + "│\n")
			b.WriteString(conn + "▼\n")
		}
	}
	return b.String()
}

// --- plain list ---

func diagramList(order []*schema.Spec) string {
	var b strings.Builder
	for i, sp := range order {
		b.WriteString(fmt.Sprintf("%2d. %-20s %s  %s\n", i+1, sp.ID, sp.Priority, sp.Area))
	}
	return b.String()
}
