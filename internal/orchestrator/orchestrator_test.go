package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/forensix-labs/volcorrelate/internal/correlation"
	"github.com/forensix-labs/volcorrelate/internal/driver"
	"github.com/forensix-labs/volcorrelate/internal/model"
)

// scriptedRunner maps a plugin name (recovered from the invocation
// args) to a fixed structured-JSON response, so concurrent plugin
// invocations can each be scripted independently without relying on a
// shared call counter.
type scriptedRunner struct {
	mu        sync.Mutex
	responses map[string]*driver.RawOutput
	calls     []string
}

func (r *scriptedRunner) Run(ctx context.Context, binary string, args []string, env []string) (*driver.RawOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plugin := pluginNameFromArgs(args)
	r.calls = append(r.calls, plugin)
	if resp, ok := r.responses[plugin]; ok {
		return resp, nil
	}
	return &driver.RawOutput{ExitCode: 0, Stdout: []byte(`{"rows": []}`)}, nil
}

// pluginNameFromArgs finds the dotted plugin identifier among args: it
// is the token following "-f <image>".
func pluginNameFromArgs(args []string) string {
	for i, a := range args {
		if a == "-f" && i+2 < len(args) {
			return args[i+2]
		}
	}
	return ""
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.raw")
	if err := os.WriteFile(path, []byte("fake memory image"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunFailsPreflightWhenImageMissing(t *testing.T) {
	runner := &scriptedRunner{responses: map[string]*driver.RawOutput{}}
	d := driver.New(driver.Engine{Binary: "vol3"}, runner)
	o := New(d, correlation.NewDefault())

	_, err := o.Run(context.Background(), Options{
		ImagePath: filepath.Join(t.TempDir(), "missing.raw"),
		OutputDir: t.TempDir(),
		Catalogue: model.DefaultCatalogue(),
		Logger:    zerolog.Nop(),
	})
	if err == nil {
		t.Fatal("expected an error for a missing image")
	}
}

func TestRunWritesReportsAndComputesIndicators(t *testing.T) {
	image := writeTempImage(t)
	outputDir := t.TempDir()

	runner := &scriptedRunner{responses: map[string]*driver.RawOutput{
		"windows.info.Info": {ExitCode: 0, Stdout: []byte(`{"rows": [{"Kernel": "10.0.19041"}]}`)},
		"windows.pslist.PsList": {ExitCode: 0, Stdout: []byte(
			`{"rows": [{"PID": "4", "ImageFileName": "System", "Path": "C:\\Windows\\System32\\ntoskrnl.exe"}]}`)},
		"windows.psscan.PsScan": {ExitCode: 0, Stdout: []byte(
			`{"rows": [{"PID": "4", "ImageFileName": "System"}, {"PID": "666", "ImageFileName": "evil.exe"}]}`)},
	}}
	d := driver.New(driver.Engine{Binary: "vol3"}, runner)
	o := New(d, correlation.NewDefault())

	handle, err := o.Run(context.Background(), Options{
		ImagePath:   image,
		OutputDir:   outputDir,
		Catalogue:   model.DefaultCatalogue(),
		Concurrency: 2,
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if handle.Summary.Meta.RunID == "" {
		t.Error("expected a non-empty run_id")
	}
	if _, err := os.Stat(handle.JSONPath); err != nil {
		t.Errorf("JSON report not written: %v", err)
	}
	if _, err := os.Stat(handle.MarkdownPath); err != nil {
		t.Errorf("Markdown report not written: %v", err)
	}

	foundHidden := false
	for _, ioc := range handle.Summary.IOCs {
		if ioc.Kind == "suspicious_process" {
			if pid, ok := ioc.Data["pid"]; ok && pid == 666 {
				foundHidden = true
			}
		}
	}
	if !foundHidden {
		t.Errorf("expected a hidden-process indicator for pid 666, iocs=%+v", handle.Summary.IOCs)
	}
}

func TestRunSkipsPrintKeyAndDoesNotCountItTowardStatus(t *testing.T) {
	image := writeTempImage(t)
	runner := &scriptedRunner{responses: map[string]*driver.RawOutput{}}
	d := driver.New(driver.Engine{Binary: "vol3"}, runner)
	o := New(d, correlation.NewDefault())

	handle, err := o.Run(context.Background(), Options{
		ImagePath: image,
		OutputDir: t.TempDir(),
		Catalogue: model.DefaultCatalogue(),
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := handle.Summary.Meta.PluginStatus["windows.registry.printkey.PrintKey"]; ok {
		t.Error("skipped plugin must not appear in plugin_status")
	}
}

func TestAnalysisStatusFormula(t *testing.T) {
	cases := []struct {
		attempted, ok int
		want          string
	}{
		{10, 0, "failed_no_valid_plugins"},
		{10, 4, "partial"},
		{10, 5, "ok"},
		{1, 1, "ok"},
		{3, 2, "ok"},
		{3, 1, "partial"},
	}
	for _, c := range cases {
		if got := analysisStatus(c.attempted, c.ok); got != c.want {
			t.Errorf("analysisStatus(%d, %d) = %q, want %q", c.attempted, c.ok, got, c.want)
		}
	}
}
