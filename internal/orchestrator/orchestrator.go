// Package orchestrator drives one end-to-end pipeline run: preflight,
// plugin invocation (bounded-concurrency), lifting, correlation, and
// report rendering.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/forensix-labs/volcorrelate/internal/correlation"
	"github.com/forensix-labs/volcorrelate/internal/driver"
	"github.com/forensix-labs/volcorrelate/internal/lifter"
	"github.com/forensix-labs/volcorrelate/internal/logging"
	"github.com/forensix-labs/volcorrelate/internal/model"
	"github.com/forensix-labs/volcorrelate/internal/report"
)

// Options configures one Orchestrator.Run invocation.
type Options struct {
	ImagePath   string
	OutputDir   string
	Catalogue   []model.PluginSpec
	Concurrency int // 0 means runtime.NumCPU()
	Logger      zerolog.Logger
}

// Handle is what Run returns: the in-memory summary plus the on-disk
// paths the Report Builder wrote it to.
type Handle struct {
	Summary     *model.RunSummary
	JSONPath    string
	MarkdownPath string
}

// Orchestrator drives the pipeline described above, invoking plugins
// through a Driver so tests can substitute a fake Runner underneath it.
type Orchestrator struct {
	driver      *driver.Driver
	correlation *correlation.Engine
}

// New creates an Orchestrator bound to d for plugin invocation and eng
// for correlation.
func New(d *driver.Driver, eng *correlation.Engine) *Orchestrator {
	return &Orchestrator{driver: d, correlation: eng}
}

// Run executes the full pipeline contract (§4.7 of the originating
// design): preflight, info-plugin-first invocation, bounded-concurrency
// invocation of the remaining catalogue, lifting, correlation, and
// report rendering.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Handle, error) {
	if _, err := os.Stat(opts.ImagePath); err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrImageNotFound, opts.ImagePath)
	}

	rawDir := filepath.Join(opts.OutputDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directories: %w", err)
	}

	runID := uuid.NewString()
	logger := opts.Logger.With().Str("run_id", runID).Logger()

	catalogue := opts.Catalogue
	if catalogue == nil {
		catalogue = model.DefaultCatalogue()
	}

	meta := model.Meta{
		DumpPath:     opts.ImagePath,
		DumpName:     filepath.Base(opts.ImagePath),
		AnalysisTime: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		RunID:        runID,
		PluginStatus: make(map[string]*model.PluginOutcome),
	}

	outcomes := make(map[string]*model.PluginOutcome)
	rowsByPlugin := make(map[string][]map[string]string)

	// Step 3: info plugin runs first, outside the concurrent pool, so
	// its symbol-error status can be recorded before anything else.
	if infoSpec, ok := model.InfoPlugin(catalogue); ok && infoSpec.Skip == "" {
		res := o.invokeLogged(ctx, logging.ForPlugin(logger, infoSpec.Name), infoSpec, opts.ImagePath, rawDir)
		outcomes[infoSpec.Name] = res.Outcome
		rowsByPlugin[infoSpec.Name] = res.Rows
		if res.Outcome.SymbolError {
			meta.SymbolError = true
		}
	}

	// Step 4: the remaining catalogue runs with bounded concurrency.
	// Results arrive in completion order; liftAll below walks the
	// catalogue in declared order, which fixes the order of the lifted
	// artifacts (§5).
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)

	type pluginResult struct {
		name    string
		outcome *model.PluginOutcome
		rows    []map[string]string
	}
	resultCh := make(chan pluginResult, len(catalogue))

	for _, spec := range catalogue {
		spec := spec
		if spec.Kind == model.PluginKindInfo {
			continue // already invoked above
		}
		if spec.Skip != "" {
			logging.ForPlugin(logger, spec.Name).Info().Str("reason", spec.Skip).Msg("skipping plugin")
			continue
		}
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			res := o.invokeLogged(gctx, logging.ForPlugin(logger, spec.Name), spec, opts.ImagePath, rawDir)
			resultCh <- pluginResult{name: spec.Name, outcome: res.Outcome, rows: res.Rows}
			return nil
		})
	}

	// An errgroup error here can only come from context cancellation
	// (sem.Acquire); per-plugin failures never escape invokeLogged.
	groupErr := g.Wait()
	close(resultCh)
	for r := range resultCh {
		outcomes[r.name] = r.outcome
		rowsByPlugin[r.name] = r.rows
	}

	for name, outcome := range outcomes {
		meta.PluginStatus[name] = outcome
	}

	// analysis_status: T excludes skipped plugins, K is how many of
	// those attempted came back ok.
	attempted, ok := 0, 0
	for _, spec := range catalogue {
		if spec.Skip != "" {
			continue
		}
		attempted++
		if outcome := outcomes[spec.Name]; outcome != nil && outcome.OK {
			ok++
		}
	}
	meta.AnalysisStatus = analysisStatus(attempted, ok)

	artifacts, liftWarnings := o.liftAll(catalogue, rowsByPlugin)
	for plugin, warnings := range liftWarnings {
		if outcome := meta.PluginStatus[plugin]; outcome != nil {
			outcome.Warnings = append(outcome.Warnings, warnings...)
		}
	}

	corrResult := o.correlation.Run(artifacts)

	summary := &model.RunSummary{
		Meta:            meta,
		IOCs:            corrResult.Indicators,
		Sections:        corrResult.Sections,
		SpecialAnalysis: corrResult.Special,
		TechniqueIndex:  correlation.TechniqueIndex(corrResult.Indicators),
		Summary:         corrResult.Summary,
	}

	if groupErr != nil {
		logger.Warn().Err(groupErr).Msg("run cancelled before all plugins completed; reporting partial results")
		if meta.AnalysisStatus == "ok" {
			meta.AnalysisStatus = "partial"
			summary.Meta.AnalysisStatus = "partial"
		}
	}

	jsonPath, err := report.WriteJSON(summary, opts.OutputDir, "memory_report.json")
	if err != nil {
		return nil, err
	}
	mdPath, err := report.WriteMarkdown(summary, opts.OutputDir, "memory_report.md")
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("analysis_status", meta.AnalysisStatus).
		Int("total_iocs", summary.Summary.TotalIOCs).
		Str("confidence", summary.Summary.ConfidenceLevel).
		Msg("run complete")

	return &Handle{Summary: summary, JSONPath: jsonPath, MarkdownPath: mdPath}, nil
}

// invokeLogged invokes spec via the Driver, logging entry/exit and
// optionally stashing the raw rows under rawDir for auditing.
func (o *Orchestrator) invokeLogged(ctx context.Context, logger zerolog.Logger, spec model.PluginSpec, imagePath, rawDir string) driver.Result {
	start := time.Now()
	logger.Debug().Msg("invoking plugin")

	res := o.driver.Invoke(ctx, spec, imagePath, nil)

	elapsed := time.Since(start)
	if res.Outcome.OK {
		logger.Info().Dur("elapsed", elapsed).Int("rows", res.Outcome.RowCount).Msg("plugin ok")
	} else {
		logger.Warn().Dur("elapsed", elapsed).Str("error", res.Outcome.Error).Msg("plugin failed")
	}

	if len(res.Rows) > 0 {
		stashRawRows(rawDir, spec.Name, res.Rows)
	}

	return res
}

// analysisStatus implements the formula from the pipeline contract: K
// of T attempted plugins succeeded.
func analysisStatus(attempted, ok int) string {
	if ok == 0 {
		return "failed_no_valid_plugins"
	}
	half := (attempted + 1) / 2 // ceil(attempted/2)
	if ok < half {
		return "partial"
	}
	return "ok"
}

// liftAll runs the appropriate lifter for every plugin kind in
// catalogue order, concatenating hook-exposing plugins' output in that
// same order (§5's ordering guarantee).
func (o *Orchestrator) liftAll(catalogue []model.PluginSpec, rowsByPlugin map[string][]map[string]string) (*model.Artifacts, map[string][]string) {
	artifacts := &model.Artifacts{}
	warnings := make(map[string][]string)

	listedPIDs := make(map[int]bool)
	scannedPIDs := make(map[int]bool)
	var scannedProcesses []*model.Process

	for _, spec := range catalogue {
		if spec.Skip != "" {
			continue
		}
		rows, ok := rowsByPlugin[spec.Name]
		if !ok {
			continue
		}

		switch spec.Kind {
		case model.PluginKindProcessList:
			procs, warns := lifter.LiftProcesses(rows)
			artifacts.Processes = append(artifacts.Processes, procs...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
			for _, p := range procs {
				listedPIDs[p.PID] = true
			}
		case model.PluginKindProcessScan:
			procs, warns := lifter.LiftProcesses(rows)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
			scannedProcesses = append(scannedProcesses, procs...)
			for _, p := range procs {
				scannedPIDs[p.PID] = true
			}
		case model.PluginKindModuleList:
			mods, warns := lifter.LiftModules(rows)
			artifacts.Modules = append(artifacts.Modules, mods...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
		case model.PluginKindDriverScan:
			drivers, warns := lifter.LiftDrivers(rows)
			artifacts.Drivers = append(artifacts.Drivers, drivers...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
		case model.PluginKindRegionScan:
			regions, warns := lifter.LiftRegions(rows)
			artifacts.Regions = append(artifacts.Regions, regions...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
		case model.PluginKindHook:
			hooks, warns := lifter.LiftHooks(rows)
			artifacts.Hooks = append(artifacts.Hooks, hooks...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
		case model.PluginKindLoaderRecords:
			recs, warns := lifter.LiftLoaderRecords(rows)
			artifacts.LoaderRecords = append(artifacts.LoaderRecords, recs...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
		case model.PluginKindServiceList:
			svcs, warns := lifter.LiftServices(rows)
			artifacts.Services = append(artifacts.Services, svcs...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
		case model.PluginKindCmdline:
			cmds, warns := lifter.LiftCommandLines(rows)
			artifacts.CommandLines = append(artifacts.CommandLines, cmds...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
		case model.PluginKindNetwork:
			eps, warns := lifter.LiftNetwork(rows)
			artifacts.Endpoints = append(artifacts.Endpoints, eps...)
			warnings[spec.Name] = append(warnings[spec.Name], warns...)
		case model.PluginKindRegistry:
			// Registry plugins have no typed entity in the canonical
			// data model; they contribute only to plugin_status.
		case model.PluginKindUncorrelated:
			// Attempted and counted toward T/K, but no typed entity to
			// lift rows into (§3); contributes only to plugin_status.
		}
	}

	for _, p := range scannedProcesses {
		if !listedPIDs[p.PID] {
			artifacts.ScannerOnlyPIDs = append(artifacts.ScannerOnlyPIDs, p)
		}
	}

	return artifacts, warnings
}

// stashRawRows writes a plugin's lifted rows under rawDir for auditing,
// best-effort: a failure here never aborts the run.
func stashRawRows(rawDir, pluginName string, rows []map[string]string) {
	path := filepath.Join(rawDir, pluginName+".txt")
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()

	keys := rowKeys(rows)
	for _, row := range rows {
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, "\t")
			}
			fmt.Fprint(f, row[k])
		}
		fmt.Fprintln(f)
	}
}

// rowKeys collects a stable, sorted column list across all rows so the
// raw stash has a consistent column order even though rows are maps.
func rowKeys(rows []map[string]string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
