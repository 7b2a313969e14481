package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

// Comparison is the result of comparing two runs of the same dump (or
// two different dumps being cross-checked).
type Comparison struct {
	Baseline        string         `json:"baseline_run_id"`
	Current         string         `json:"current_run_id"`
	IOCDelta        int            `json:"ioc_delta"`
	ConfidenceDelta string         `json:"confidence_delta"` // "baseline -> current"
	TechniqueChanges []CountChange `json:"technique_changes"`
	NewlyFailedPlugins []string    `json:"newly_failed_plugins,omitempty"`
	NewlyOKPlugins     []string    `json:"newly_ok_plugins,omitempty"`
}

// CountChange is a single named before/after count delta.
type CountChange struct {
	Name     string `json:"name"`
	Old      int    `json:"old"`
	New      int    `json:"new"`
	Delta    int    `json:"delta"`
}

// LoadSummary reads and parses a JSON report previously written by
// WriteJSON.
func LoadSummary(path string) (*model.RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var summary model.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &summary, nil
}

// Compare computes the differences between two RunSummary reports:
// total-IOC delta, confidence-level transition, per-technique finding
// count changes, and plugins whose ok/fail status flipped.
func Compare(baseline, current *model.RunSummary) *Comparison {
	c := &Comparison{
		Baseline:        baseline.Meta.RunID,
		Current:         current.Meta.RunID,
		IOCDelta:        len(current.IOCs) - len(baseline.IOCs),
		ConfidenceDelta: fmt.Sprintf("%s -> %s", baseline.Summary.ConfidenceLevel, current.Summary.ConfidenceLevel),
	}

	// counts[id] holds how many indicators carry id in the baseline ([0])
	// and current ([1]) runs.
	counts := make(map[string][2]int)
	for side, s := range []*model.RunSummary{baseline, current} {
		for _, ioc := range s.IOCs {
			for _, id := range ioc.TechniqueIDs {
				n := counts[id]
				n[side]++
				counts[id] = n
			}
		}
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		oldCount := counts[id][0]
		newCount := counts[id][1]
		if oldCount == newCount {
			continue
		}
		c.TechniqueChanges = append(c.TechniqueChanges, CountChange{
			Name: id, Old: oldCount, New: newCount, Delta: newCount - oldCount,
		})
	}

	for name, newSt := range current.Meta.PluginStatus {
		oldSt, ok := baseline.Meta.PluginStatus[name]
		if !ok {
			continue
		}
		if oldSt.OK && !newSt.OK {
			c.NewlyFailedPlugins = append(c.NewlyFailedPlugins, name)
		} else if !oldSt.OK && newSt.OK {
			c.NewlyOKPlugins = append(c.NewlyOKPlugins, name)
		}
	}
	sort.Strings(c.NewlyFailedPlugins)
	sort.Strings(c.NewlyOKPlugins)

	return c
}

// FormatComparison renders a Comparison as a human-readable summary.
func FormatComparison(c *Comparison) string {
	var sb strings.Builder

	sb.WriteString("=== Report Comparison ===\n")
	fmt.Fprintf(&sb, "Baseline run: %s\n", c.Baseline)
	fmt.Fprintf(&sb, "Current run:  %s\n\n", c.Current)
	fmt.Fprintf(&sb, "IOC count delta: %+d\n", c.IOCDelta)
	fmt.Fprintf(&sb, "Confidence: %s\n\n", c.ConfidenceDelta)

	if len(c.TechniqueChanges) > 0 {
		sb.WriteString("Technique finding changes:\n")
		for _, tc := range c.TechniqueChanges {
			fmt.Fprintf(&sb, "  %s: %d -> %d (%+d)\n", tc.Name, tc.Old, tc.New, tc.Delta)
		}
		sb.WriteString("\n")
	}

	if len(c.NewlyFailedPlugins) > 0 {
		fmt.Fprintf(&sb, "Newly failing plugins: %s\n", strings.Join(c.NewlyFailedPlugins, ", "))
	}
	if len(c.NewlyOKPlugins) > 0 {
		fmt.Fprintf(&sb, "Newly recovered plugins: %s\n", strings.Join(c.NewlyOKPlugins, ", "))
	}

	return sb.String()
}
