// volcorrelate — memory-forensics orchestration and correlation engine.
//
// Invokes a Volatility3-compatible memory-forensics tool plugin by
// plugin, lifts its output into typed artifacts, cross-correlates them
// into indicators of compromise mapped to MITRE ATT&CK techniques, and
// renders a JSON/Markdown report pair.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "volcorrelate",
		Short:   "Memory-forensics orchestration and correlation engine",
		Version: version,
		Long: `volcorrelate drives a memory-forensics engine (Volatility 3 or
compatible) plugin by plugin, lifts its tabular output into typed
artifacts, and runs a deterministic correlation engine over them to
surface indicators of compromise mapped to MITRE ATT&CK techniques.`,
	}

	rootCmd.AddCommand(newAnalyzeCmd(), newReplayCmd(), newDiffCmd(), newServeMCPCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// defaultCatalogue returns the built-in plugin catalogue, overridden by
// --config when one is given (internal/config).
func defaultCatalogue() []model.PluginSpec {
	return model.DefaultCatalogue()
}
