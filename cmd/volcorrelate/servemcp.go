package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forensix-labs/volcorrelate/internal/config"
	"github.com/forensix-labs/volcorrelate/internal/correlation"
	"github.com/forensix-labs/volcorrelate/internal/driver"
	"github.com/forensix-labs/volcorrelate/internal/logging"
	"github.com/forensix-labs/volcorrelate/internal/mcp"
)

func newServeMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Start a Model Context Protocol server exposing analyze_memory_dump",
		Long: `Starts a stdio-transport MCP server so an AI-assisted triage workflow
can drive the pipeline by calling the analyze_memory_dump tool, instead
of shelling out to the CLI. No network listener is opened.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadIfPresent(configPath)
			if err != nil {
				return err
			}

			d, err := driver.NewDefault()
			if err != nil {
				return err
			}

			logger, _, err := logging.New(logging.Options{})
			if err != nil {
				return err
			}

			srv := mcp.NewServer(version, d, correlation.New(cfg.Correlation), cfg.Catalogue, logger)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	return cmd
}
