package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caleidos-dev/specaudit/pkg/graph"
	"github.com/caleidos-dev/specaudit/pkg/query"
)

var (
	orderArea   string
	orderSpecs  string
	orderWhere  string
	orderFormat string
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the dependency-resolved execution order",
	Args:  cobra.NoArgs,
	RunE:  runOrder,
}

func runOrder(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	set, err := loadSpecs(proj)
	if err != nil {
		return err
	}

	scope := "all"
	switch {
	case orderArea != "" && orderSpecs != "":
		return fmt.Errorf("--area and --spec are mutually exclusive")
	case orderArea != "":
		scope = orderArea
	case orderSpecs != "":
		scope = orderSpecs
	}

	selected, err := graph.Select(set, scope)
	if err != nil {
		return err
	}
	selected, err = query.Apply(orderWhere, selected)
	if err != nil {
		return err
	}

	order, err := graph.Resolve(set, selected)
	if err != nil {
		var cerr *graph.CycleError
		if errors.As(err, &cerr) {
			fmt.Fprintln(os.Stderr, "Dependency cycles detected:")
			for _, cycle := range cerr.Cycles {
				fmt.Fprintf(os.Stderr, "  %s\n", strings.Join(cycle, " -> "))
			}
		}
		return err
	}

	out, err := graph.Diagram(order, graph.Format(orderFormat))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func init() {
	orderCmd.Flags().StringVar(&orderArea, "area", "", "restrict to one area")
	orderCmd.Flags().StringVar(&orderSpecs, "spec", "", "comma-separated spec ids")
	orderCmd.Flags().StringVar(&orderWhere, "where", "", "filter specs with an expression")
	orderCmd.Flags().StringVar(&orderFormat, "format", "list", "output format: list, ascii, or mermaid")
}
