package model

// PluginKind classifies a catalogue entry by the artifact class it
// produces, so the lifter and correlation engine can address "the
// process-listing plugin" without string-matching plugin names.
type PluginKind string

const (
	PluginKindInfo          PluginKind = "info"
	PluginKindProcessList   PluginKind = "process_list"
	PluginKindProcessScan   PluginKind = "process_scan"
	PluginKindModuleList    PluginKind = "module_list"
	PluginKindDriverScan    PluginKind = "driver_scan"
	PluginKindRegionScan    PluginKind = "region_scan"
	PluginKindHook          PluginKind = "hook"
	PluginKindLoaderRecords PluginKind = "loader_records"
	PluginKindServiceList   PluginKind = "service_list"
	PluginKindCmdline       PluginKind = "cmdline"
	PluginKindNetwork       PluginKind = "network"
	PluginKindRegistry      PluginKind = "registry"
	// PluginKindUncorrelated marks plugins the reference catalogue runs
	// by default but that have no typed entity in the canonical data
	// model (§3): they are attempted, counted toward T/K, and recorded
	// in plugin_status, but contribute no rows to any artifact slice.
	PluginKindUncorrelated PluginKind = "uncorrelated"
)

// PluginSpec is one declared entry in the plugin catalogue. Order in
// the slice returned by DefaultCatalogue is significant: it is the
// order in which the orchestrator lifts plugin output, so hook-plugin
// rows are concatenated in catalogue order (§5 of the specification
// this module implements). plugin_status is a map keyed by plugin
// name; the JSON and Markdown reports list it sorted by name, not in
// catalogue order.
type PluginSpec struct {
	Name string
	Kind PluginKind
	// Skip, when non-empty, is the reason this plugin is declared but
	// never invoked (e.g. it requires a per-hive argument the pipeline
	// does not supply). A skipped plugin counts toward neither T nor K
	// in the analysis_status computation.
	Skip string
}

// DefaultCatalogue is the built-in plugin catalogue, naming plugins the
// way the reference memory-forensics engine (Volatility 3) does. An
// operator may override it via configuration (internal/config).
func DefaultCatalogue() []PluginSpec {
	return []PluginSpec{
		{Name: "windows.info.Info", Kind: PluginKindInfo},
		{Name: "windows.pslist.PsList", Kind: PluginKindProcessList},
		{Name: "windows.psscan.PsScan", Kind: PluginKindProcessScan},
		{Name: "windows.driverscan.DriverScan", Kind: PluginKindDriverScan},
		{Name: "windows.dlllist.DllList", Kind: PluginKindModuleList},
		{Name: "windows.malfind.Malfind", Kind: PluginKindRegionScan},
		{Name: "windows.malware.unhooked_system_calls.UnhookedSystemCalls", Kind: PluginKindHook},
		{Name: "windows.handles.Handles", Kind: PluginKindUncorrelated},
		{Name: "windows.cmdline.CmdLine", Kind: PluginKindCmdline},
		{Name: "windows.netscan.NetScan", Kind: PluginKindNetwork},
		{Name: "windows.netstat.NetStat", Kind: PluginKindUncorrelated},
		{Name: "windows.registry.userassist.UserAssist", Kind: PluginKindRegistry},
		{Name: "windows.registry.printkey.PrintKey", Kind: PluginKindRegistry, Skip: "requires a target hive argument"},
		{Name: "windows.callbacks.Callbacks", Kind: PluginKindHook},
		{Name: "windows.ldrmodules.LdrModules", Kind: PluginKindLoaderRecords},
		{Name: "windows.svclist.SvcList", Kind: PluginKindServiceList},
	}
}

// InfoPlugin returns the catalogue entry that must run first (§4.7 step 3).
func InfoPlugin(catalogue []PluginSpec) (PluginSpec, bool) {
	for _, spec := range catalogue {
		if spec.Kind == PluginKindInfo {
			return spec, true
		}
	}
	return PluginSpec{}, false
}

// TechniqueCatalogue maps technique identifiers to their display name,
// for both the JSON technique index and the human-readable report.
// T1027 and T1547 have no rule mapped to them in the current
// correlation engine (§4.5 design note); they are kept so a future rule
// or a human cross-referencing the catalogue finds a stable name.
var TechniqueCatalogue = map[string]string{
	"T1056.001": "Keylogging",
	"T1056.004": "Credential API Hooking",
	"T1055":     "Process Injection",
	"T1014":     "Rootkit / Driver Tampering",
	"T1027":     "Obfuscation",
	"T1547":     "Persistence via Registry",
	"T1543":     "Persistence via Services",
}
