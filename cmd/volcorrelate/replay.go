package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forensix-labs/volcorrelate/internal/report"
)

func newReplayCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "replay <memory_report.json>",
		Short: "Re-render a Markdown report from an existing JSON report",
		Long:  "Loads an existing memory_report.json and re-renders memory_report.md without re-invoking the memory-forensics engine.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := report.LoadSummary(args[0])
			if err != nil {
				return err
			}
			path, err := report.WriteMarkdown(summary, outputDir, "memory_report.md")
			if err != nil {
				return err
			}
			fmt.Printf("report: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write memory_report.md into")
	return cmd
}
