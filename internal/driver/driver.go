// Package driver invokes the external memory-forensics engine once per
// plugin, enforcing a timeout, falling back from structured to tabular
// output parsing, and classifying failures per the plugin-invocation
// contract.
package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/forensix-labs/volcorrelate/internal/model"
	"github.com/forensix-labs/volcorrelate/internal/parser"
)

// Timeout is the per-invocation deadline; both the structured and
// tabular attempts share this single budget.
const Timeout = 300 * time.Second

// maxErrorBytes bounds persisted error text.
const maxErrorBytes = 1000

// Result is the outcome of one Invoke call: the rows lifted from
// whichever attempt succeeded (possibly none), plus the PluginOutcome
// the orchestrator folds into meta.plugin_status.
type Result struct {
	Rows    []map[string]string
	Outcome *model.PluginOutcome
}

// Driver runs plugins of the external engine.
type Driver struct {
	runner   Runner
	security *SecurityChecker
	engine   Engine
}

// New creates a Driver bound to a specific resolved engine and runner.
// Tests substitute a fake Runner so no real subprocess is started.
func New(engine Engine, runner Runner) *Driver {
	return &Driver{runner: runner, security: NewSecurityChecker(), engine: engine}
}

// NewDefault resolves the external engine from PATH using the default
// os/exec runner. Returns an error if no engine binary can be found.
func NewDefault() (*Driver, error) {
	sc := NewSecurityChecker()
	engine, err := sc.ResolveEngine()
	if err != nil {
		return nil, err
	}
	if err := sc.VerifyBinary(engine.Binary); err != nil {
		return nil, err
	}
	return &Driver{runner: NewExecRunner(), security: sc, engine: engine}, nil
}

// Invoke runs one plugin against imagePath and returns its rows and
// outcome. It never returns a Go error: every failure, including a
// runner that cannot start the engine binary, is captured in
// Result.Outcome.
func (d *Driver) Invoke(ctx context.Context, spec model.PluginSpec, imagePath string, extraArgs []string) Result {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	env := d.security.SanitizeEnv()
	baseArgs := append(append([]string{}, d.engine.PrefixArgs...), "-f", imagePath, spec.Name)
	baseArgs = append(baseArgs, extraArgs...)

	// Attempt 1: structured (JSON) renderer.
	jsonArgs := append(append([]string{}, baseArgs...), "-r", "json")
	raw, err := d.runner.Run(ctx, d.engine.Binary, jsonArgs, env)
	if err != nil {
		return Result{Outcome: execFailureOutcome(spec.Name, err.Error())}
	}
	if ctx.Err() != nil {
		return Result{Outcome: timeoutOutcome(spec.Name)}
	}
	if raw.ExitCode == 0 && len(raw.Stdout) > 0 {
		if rows, ok := parser.ParseStructured(raw.Stdout); ok {
			return finalizeResult(spec.Name, rows, nil)
		}
	}

	// Attempt 2: plain tabular renderer.
	raw, err = d.runner.Run(ctx, d.engine.Binary, baseArgs, env)
	if err != nil {
		return Result{Outcome: execFailureOutcome(spec.Name, err.Error())}
	}
	if ctx.Err() != nil {
		return Result{Outcome: timeoutOutcome(spec.Name)}
	}

	if raw.ExitCode != 0 {
		errMsg := strings.TrimSpace(string(raw.Stderr))
		if errMsg == "" {
			errMsg = strings.TrimSpace(string(raw.Stdout))
		}
		if errMsg == "" {
			errMsg = fmt.Sprintf("exit code %d", raw.ExitCode)
		}
		outcome := &model.PluginOutcome{PluginName: spec.Name, OK: false, Error: truncate(errMsg, maxErrorBytes)}
		if model.IsSymbolError(errMsg) {
			outcome.SymbolError = true
			outcome.Warnings = append(outcome.Warnings, "kernel symbols missing — analysis limited")
		}
		return Result{Outcome: outcome}
	}

	rows := parser.ParseTabular(string(raw.Stdout))
	var warnings []string
	if strings.Contains(strings.ToLower(string(raw.Stderr)), "warning") {
		warnings = append(warnings, "warnings reported during plugin execution")
	}
	return finalizeResult(spec.Name, rows, warnings)
}

func finalizeResult(plugin string, rows []map[string]string, warnings []string) Result {
	rows, limitExceeded := parser.Truncate(rows)
	if limitExceeded {
		warnings = append(warnings, fmt.Sprintf("row limit exceeded — truncated to %d rows", parser.MaxRows))
	}
	return Result{
		Rows: rows,
		Outcome: &model.PluginOutcome{
			PluginName: plugin,
			OK:         len(rows) > 0,
			RowCount:   len(rows),
			Warnings:   warnings,
		},
	}
}

func execFailureOutcome(plugin, msg string) *model.PluginOutcome {
	return &model.PluginOutcome{PluginName: plugin, OK: false, Error: truncate(msg, maxErrorBytes)}
}

func timeoutOutcome(plugin string) *model.PluginOutcome {
	err := &model.PluginTimeoutError{Plugin: plugin}
	return &model.PluginOutcome{PluginName: plugin, OK: false, Error: truncate(err.Error(), maxErrorBytes)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
