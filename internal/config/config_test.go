package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadIfPresentWithEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := LoadIfPresent("")
	if err != nil {
		t.Fatalf("LoadIfPresent: %v", err)
	}
	if cfg.PluginTimeout != 300*time.Second {
		t.Errorf("PluginTimeout = %v, want 300s", cfg.PluginTimeout)
	}
	if len(cfg.Catalogue) == 0 {
		t.Error("expected built-in catalogue")
	}
}

func TestLoadIfPresentWithMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadIfPresent(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadIfPresent: %v", err)
	}
	if len(cfg.Catalogue) != len(Default().Catalogue) {
		t.Error("expected default catalogue for a missing config path")
	}
}

func TestLoadOverridesTimeoutAndConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "plugin_timeout: 60s\nconcurrency: 4\nsuspicious_ports: [9999]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PluginTimeout != 60*time.Second {
		t.Errorf("PluginTimeout = %v, want 60s", cfg.PluginTimeout)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if !cfg.Correlation.SuspiciousPorts[9999] {
		t.Error("expected overridden suspicious port 9999")
	}
	if cfg.Correlation.SuspiciousPorts[1337] {
		t.Error("overriding suspicious_ports should replace, not merge, the default set")
	}
}

func TestLoadOverridesCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "plugins:\n  - name: windows.info.Info\n    kind: info\n  - name: windows.pslist.PsList\n    kind: process_list\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Catalogue) != 2 {
		t.Fatalf("len(Catalogue) = %d, want 2", len(cfg.Catalogue))
	}
	if cfg.Catalogue[0].Name != "windows.info.Info" {
		t.Errorf("Catalogue[0].Name = %q", cfg.Catalogue[0].Name)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("plugins: [this is not: valid: yaml"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}
