package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/caleidos-dev/specaudit/pkg/drift"
	"github.com/caleidos-dev/specaudit/pkg/review"
)

var reviewAs string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Interactively classify failing findings",
	Args:  cobra.NoArgs,
	RunE:  runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
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

	rep := drift.Audit(set, tests, hist, verdicts)
	if len(rep.Failing) == 0 {
		fmt.Println("Nothing to review: no failing findings.")
		return nil
	}

	reviewer := reviewAs
	if reviewer == "" {
		reviewer = currentUser()
	}

	return review.New(rep, verdicts, proj.ReportsDir(), reviewer).Run()
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

func init() {
	reviewCmd.Flags().StringVar(&reviewAs, "as", "", "reviewer identity recorded with each verdict")
}
