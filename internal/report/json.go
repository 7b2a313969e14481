// Package report renders a RunSummary as the two on-disk artifacts the
// pipeline produces: a JSON report with a stable top-level key order,
// and a human-readable Markdown report of the same summary (see
// BuildMarkdown for the JSON fields it leaves out).
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

// WriteJSON renders summary as indented JSON and writes it atomically:
// the document is rendered to a temp file in dir, then renamed over the
// final path, so a reader never observes a half-written report.
func WriteJSON(summary *model.RunSummary, dir, filename string) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode JSON report: %w", err)
	}
	finalPath := filepath.Join(dir, filename)
	if err := writeAtomic(dir, finalPath, data); err != nil {
		return "", err
	}
	return finalPath, nil
}

// writeAtomic renders data to a temp file inside dir and renames it
// over finalPath. The temp file lives in the same directory so the
// rename is guaranteed atomic on the same filesystem.
func writeAtomic(dir, finalPath string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrOutputWriteFailure, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", model.ErrOutputWriteFailure, tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", model.ErrOutputWriteFailure, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", model.ErrOutputWriteFailure, tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("%w: rename into place: %v", model.ErrOutputWriteFailure, err)
	}
	return nil
}
