package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/forensix-labs/volcorrelate/internal/correlation"
	"github.com/forensix-labs/volcorrelate/internal/driver"
	"github.com/forensix-labs/volcorrelate/internal/model"
)

// --- getArgs / stringArg helpers ---

func TestGetArgsNilArguments(t *testing.T) {
	req := mcp.CallToolRequest{}
	args := getArgs(req)
	if args == nil {
		t.Fatal("getArgs returned nil, expected empty map")
	}
	if len(args) != 0 {
		t.Fatalf("expected empty map, got %v", args)
	}
}

func TestGetArgsValidMap(t *testing.T) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{"dump_path": "/tmp/dump.raw"},
		},
	}
	args := getArgs(req)
	if v, ok := args["dump_path"]; !ok || v != "/tmp/dump.raw" {
		t.Fatalf("expected dump_path=/tmp/dump.raw, got %v", args)
	}
}

func TestGetArgsWrongType(t *testing.T) {
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: "not a map"}}
	args := getArgs(req)
	if len(args) != 0 {
		t.Fatalf("expected empty map for wrong type, got %v", args)
	}
}

func TestStringArgPresent(t *testing.T) {
	args := map[string]interface{}{"output_dir": "out"}
	if got := stringArg(args, "output_dir", "analysis_output"); got != "out" {
		t.Fatalf("expected 'out', got %q", got)
	}
}

func TestStringArgMissingUsesDefault(t *testing.T) {
	if got := stringArg(map[string]interface{}{}, "output_dir", "analysis_output"); got != "analysis_output" {
		t.Fatalf("expected default, got %q", got)
	}
}

// --- analyze_memory_dump handler ---

type fakeMCPRunner struct{}

func (fakeMCPRunner) Run(ctx context.Context, binary string, args []string, env []string) (*driver.RawOutput, error) {
	return &driver.RawOutput{ExitCode: 0, Stdout: []byte(`{"rows": []}`)}, nil
}

func TestHandleAnalyzeMemoryDumpRequiresDumpPath(t *testing.T) {
	d := driver.New(driver.Engine{Binary: "vol3"}, fakeMCPRunner{})
	handler := makeHandleAnalyzeMemoryDump(d, correlation.NewDefault(), model.DefaultCatalogue(), zerolog.Nop())

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]interface{}{}}}
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned an error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an MCP-level error result when dump_path is missing")
	}
}

func TestHandleAnalyzeMemoryDumpRunsPipeline(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "dump.raw")
	if err := os.WriteFile(imagePath, []byte("image"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d := driver.New(driver.Engine{Binary: "vol3"}, fakeMCPRunner{})
	handler := makeHandleAnalyzeMemoryDump(d, correlation.NewDefault(), model.DefaultCatalogue(), zerolog.Nop())

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]interface{}{
		"dump_path":  imagePath,
		"output_dir": filepath.Join(dir, "out"),
	}}}
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned an error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected a successful result, got error: %+v", result)
	}
}
