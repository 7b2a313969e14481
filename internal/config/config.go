// Package config loads the optional YAML configuration file that lets
// an operator override the built-in plugin catalogue, per-plugin
// timeout, concurrency bound, and correlation constants without
// recompiling. Flags always win over the config file; the config file
// always wins over built-in defaults; absence of a config file is not
// an error. The timeout is parsed into Config.PluginTimeout, but no
// caller reads that field: the driver applies its fixed driver.Timeout
// to every invocation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forensix-labs/volcorrelate/internal/correlation"
	"github.com/forensix-labs/volcorrelate/internal/model"
)

// Plugin is the YAML-facing shape of a catalogue entry; Kind is a
// plain string here (matching model.PluginKind's underlying type)
// since YAML has no notion of a Go const.
type Plugin struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Skip string `yaml:"skip,omitempty"`
}

// File is the top-level shape of a configuration file. Every field is
// optional; a zero value means "use the built-in default".
type File struct {
	Plugins            []Plugin `yaml:"plugins"`
	PluginTimeout       string   `yaml:"plugin_timeout"`
	Concurrency         int      `yaml:"concurrency"`
	SuspiciousPorts     []int    `yaml:"suspicious_ports"`
	LegitimatePathPrefixes []string `yaml:"legitimate_path_prefixes"`
}

// Config is the resolved, ready-to-use configuration: built-in
// defaults overridden by whatever a loaded File supplied.
type Config struct {
	Catalogue       []model.PluginSpec
	PluginTimeout   time.Duration
	Concurrency     int
	Correlation     correlation.Config
}

// Default returns the built-in configuration with no file or flag
// overrides applied.
func Default() Config {
	return Config{
		Catalogue:     model.DefaultCatalogue(),
		PluginTimeout: 300 * time.Second,
		Concurrency:   0, // 0 means "let the caller pick, e.g. runtime.NumCPU()"
		Correlation:   correlation.DefaultConfig(),
	}
}

// Load reads and parses a YAML configuration file at path, applying
// its overrides on top of Default(). A non-existent path is not
// treated specially by this function — callers that want "absence is
// not an error" semantics should check os.Stat first and skip calling
// Load entirely, which is what cmd/volcorrelate does for an unset
// --config flag.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if len(f.Plugins) > 0 {
		catalogue := make([]model.PluginSpec, 0, len(f.Plugins))
		for _, p := range f.Plugins {
			catalogue = append(catalogue, model.PluginSpec{
				Name: p.Name,
				Kind: model.PluginKind(p.Kind),
				Skip: p.Skip,
			})
		}
		cfg.Catalogue = catalogue
	}

	if f.PluginTimeout != "" {
		d, err := time.ParseDuration(f.PluginTimeout)
		if err != nil {
			return cfg, fmt.Errorf("parse plugin_timeout %q: %w", f.PluginTimeout, err)
		}
		cfg.PluginTimeout = d
	}

	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}

	if len(f.SuspiciousPorts) > 0 {
		ports := make(map[int]bool, len(f.SuspiciousPorts))
		for _, p := range f.SuspiciousPorts {
			ports[p] = true
		}
		cfg.Correlation.SuspiciousPorts = ports
	}

	if len(f.LegitimatePathPrefixes) > 0 {
		cfg.Correlation.LegitimatePathPrefixes = f.LegitimatePathPrefixes
	}

	return cfg, nil
}

// LoadIfPresent loads path when it is non-empty and exists on disk,
// otherwise returns Default() unchanged. This is the precedence rule
// §10.3 describes: "absence of --config is not an error".
func LoadIfPresent(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("stat config %s: %w", path, err)
	}
	return Load(path)
}
