// Package logging wires up the structured logger used across the
// pipeline: one zerolog.Logger fanned out to stderr and an append-only
// log file, carrying a run_id field on every line.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Options controls how New builds the logger.
type Options struct {
	// RunID is attached to every log line emitted by the returned logger.
	RunID string
	// Quiet disables all logging output.
	Quiet bool
	// Verbose lowers the level to debug. Ignored when Quiet is set.
	Verbose bool
	// LogFilePath, if non-empty, is opened in append mode and receives
	// the same lines written to stderr. The file is never truncated or
	// atomically replaced, unlike the JSON/Markdown reports: a log is a
	// running record, not a point-in-time artifact.
	LogFilePath string
}

// New builds a zerolog.Logger per opts. The second return value is the
// opened log file, if any, so the caller can Close it on shutdown.
func New(opts Options) (zerolog.Logger, *os.File, error) {
	if opts.Quiet {
		return zerolog.Nop(), nil, nil
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}}
	var logFile *os.File
	if opts.LogFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFilePath), 0o755); err != nil {
			return zerolog.Logger{}, nil, err
		}
		f, err := os.OpenFile(opts.LogFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		logFile = f
		writers = append(writers, f)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("run_id", opts.RunID).
		Logger()

	return logger, logFile, nil
}

// ForPlugin returns a child logger carrying an additional plugin field,
// so every line emitted while invoking a given plugin is attributable
// to it without the caller repeating the field at every call site.
func ForPlugin(base zerolog.Logger, plugin string) zerolog.Logger {
	return base.With().Str("plugin", plugin).Logger()
}
