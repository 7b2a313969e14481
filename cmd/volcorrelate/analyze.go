package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forensix-labs/volcorrelate/internal/config"
	"github.com/forensix-labs/volcorrelate/internal/correlation"
	"github.com/forensix-labs/volcorrelate/internal/driver"
	"github.com/forensix-labs/volcorrelate/internal/logging"
	"github.com/forensix-labs/volcorrelate/internal/orchestrator"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		dumpPath    string
		outputDir   string
		quiet       bool
		verbose     bool
		concurrency int
		configPath  string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full memory-forensics pipeline against a dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(dumpPath); err != nil {
				return fmt.Errorf("dump file not found: %s", dumpPath)
			}

			cfg, err := config.LoadIfPresent(configPath)
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}

			logger, logFile, err := logging.New(logging.Options{
				Quiet:       quiet,
				Verbose:     verbose,
				LogFilePath: filepath.Join(outputDir, "memory_analysis.log"),
			})
			if err != nil {
				return err
			}
			if logFile != nil {
				defer logFile.Close()
			}

			d, err := driver.NewDefault()
			if err != nil {
				return fmt.Errorf("resolve memory-forensics engine: %w", err)
			}

			orch := orchestrator.New(d, correlation.New(cfg.Correlation))
			handle, err := orch.Run(cmd.Context(), orchestrator.Options{
				ImagePath:   dumpPath,
				OutputDir:   outputDir,
				Catalogue:   cfg.Catalogue,
				Concurrency: cfg.Concurrency,
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			fmt.Printf("analysis_status=%s total_iocs=%d confidence=%s\n",
				handle.Summary.Meta.AnalysisStatus, handle.Summary.Summary.TotalIOCs, handle.Summary.Summary.ConfidenceLevel)
			fmt.Printf("report: %s\n", handle.JSONPath)
			fmt.Printf("report: %s\n", handle.MarkdownPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpPath, "dump", "f", "", "Path to the memory image (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "analysis_output", "Output directory for reports")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug-level logging")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Max concurrent plugin invocations (default: number of CPUs)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	cmd.MarkFlagRequired("dump")

	return cmd
}
