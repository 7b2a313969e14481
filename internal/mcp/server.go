// Package mcp exposes the memory-analysis pipeline over the Model
// Context Protocol so an AI-assisted triage workflow can drive it
// without shelling out to the CLI. The server is stdio-transport only;
// it never opens a listening socket.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/forensix-labs/volcorrelate/internal/correlation"
	"github.com/forensix-labs/volcorrelate/internal/driver"
	"github.com/forensix-labs/volcorrelate/internal/model"
)

// Server wraps the MCP server instance.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server exposing analyze_memory_dump, backed
// by d for plugin invocation, eng for correlation, and logger for
// per-run structured logging.
func NewServer(version string, d *driver.Driver, eng *correlation.Engine, catalogue []model.PluginSpec, logger zerolog.Logger) *Server {
	s := server.NewMCPServer("volcorrelate", version, server.WithLogging())
	registerTools(s, d, eng, catalogue, logger)
	return &Server{mcpServer: s}
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools adds analyze_memory_dump to the server.
func registerTools(s *server.MCPServer, d *driver.Driver, eng *correlation.Engine, catalogue []model.PluginSpec, logger zerolog.Logger) {
	analyzeTool := mcp.NewTool("analyze_memory_dump",
		mcp.WithDescription("Run the full memory-forensics pipeline against a memory image and return the RunSummary report (IOCs, MITRE ATT&CK technique mapping, confidence level)."),
		mcp.WithString("dump_path",
			mcp.Required(),
			mcp.Description("Path to the memory image file to analyze."),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory to write memory_report.json/.md into. Defaults to 'analysis_output'."),
			mcp.DefaultString("analysis_output"),
		),
	)
	s.AddTool(analyzeTool, makeHandleAnalyzeMemoryDump(d, eng, catalogue, logger))
}
