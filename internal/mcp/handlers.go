package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/forensix-labs/volcorrelate/internal/correlation"
	"github.com/forensix-labs/volcorrelate/internal/driver"
	"github.com/forensix-labs/volcorrelate/internal/model"
	"github.com/forensix-labs/volcorrelate/internal/orchestrator"
)

// analyzeTimeout bounds a full pipeline run invoked over MCP; it is
// generous relative to the per-plugin 300s budget since a run invokes
// many plugins.
const analyzeTimeout = 20 * time.Minute

// makeHandleAnalyzeMemoryDump returns the analyze_memory_dump handler
// closed over the orchestrator's collaborators, so the handler itself
// stays a thin argument-parsing/response-shaping layer.
func makeHandleAnalyzeMemoryDump(d *driver.Driver, eng *correlation.Engine, catalogue []model.PluginSpec, logger zerolog.Logger) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
		defer cancel()

		args := getArgs(request)
		dumpPath := stringArg(args, "dump_path", "")
		if dumpPath == "" {
			return errResult("dump_path is required"), nil
		}
		outputDir := stringArg(args, "output_dir", "analysis_output")

		orch := orchestrator.New(d, eng)
		handle, err := orch.Run(ctx, orchestrator.Options{
			ImagePath: dumpPath,
			OutputDir: outputDir,
			Catalogue: catalogue,
			Logger:    logger,
		})
		if err != nil {
			return errResult(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		jsonData, err := json.MarshalIndent(handle.Summary, "", "  ")
		if err != nil {
			return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
		}
		return newTextResult(string(jsonData)), nil
	}
}

// getArgs safely extracts the arguments map from a CallToolRequest.
// Returns an empty map if Arguments is nil or not a map.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg extracts a string argument with a default value.
func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}
