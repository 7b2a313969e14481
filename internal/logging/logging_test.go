package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewQuietReturnsNopLogger(t *testing.T) {
	logger, f, err := New(Options{RunID: "r1", Quiet: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f != nil {
		t.Error("expected no log file for quiet mode")
	}
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("level = %v, want Disabled", logger.GetLevel())
	}
}

func TestNewVerboseSetsDebugLevel(t *testing.T) {
	logger, f, err := New(Options{RunID: "r1", Verbose: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f != nil {
		f.Close()
	}
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want Debug", logger.GetLevel())
	}
}

func TestNewDefaultLevelIsInfo(t *testing.T) {
	logger, f, err := New(Options{RunID: "r1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f != nil {
		f.Close()
	}
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want Info", logger.GetLevel())
	}
}

func TestNewOpensAppendOnlyLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "memory_analysis.log")

	logger, f, err := New(Options{RunID: "r1", LogFilePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f == nil {
		t.Fatal("expected a non-nil log file")
	}
	logger.Info().Msg("first line")
	f.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file was not created: %v", err)
	}

	_, f2, err := New(Options{RunID: "r2", LogFilePath: path})
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	defer f2.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected prior content to survive reopening in append mode")
	}
}

func TestForPluginAddsPluginField(t *testing.T) {
	base, _, err := New(Options{RunID: "r1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := ForPlugin(base, "windows.pslist.PsList")
	if child.GetLevel() != base.GetLevel() {
		t.Error("child logger should inherit level from base")
	}
}
