package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forensix-labs/volcorrelate/internal/report"
)

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <baseline.json> <current.json>",
		Short: "Compare two memory_report.json runs",
		Long:  "Produces a human-readable comparison: IOC count delta, confidence transition, per-technique finding-count deltas, and plugin ok/fail flips.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := report.LoadSummary(args[0])
			if err != nil {
				return fmt.Errorf("load baseline: %w", err)
			}
			current, err := report.LoadSummary(args[1])
			if err != nil {
				return fmt.Errorf("load current: %w", err)
			}
			fmt.Print(report.FormatComparison(report.Compare(baseline, current)))
			return nil
		},
	}
	return cmd
}
