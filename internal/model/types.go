// Package model defines the domain entities lifted from memory-forensics
// plugin output, the indicators the correlation engine produces from them,
// and the run-level summary that the report builder renders.
package model

// Process is a single process artifact, identified by pid.
type Process struct {
	PID        int      `json:"pid"`
	PPID       *int     `json:"ppid,omitempty"`
	Name       string   `json:"name"`
	Path       string   `json:"path,omitempty"`
	CreateTime string   `json:"create_time,omitempty"`
	ExitTime   string   `json:"exit_time,omitempty"`
	Flags      []string `json:"suspicious_flags,omitempty"`
}

// HasFlag reports whether the process already carries the given flag.
func (p *Process) HasFlag(flag string) bool {
	for _, f := range p.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag appends flag if not already present.
func (p *Process) AddFlag(flag string) {
	if !p.HasFlag(flag) {
		p.Flags = append(p.Flags, flag)
	}
}

// LoadedModule is a DLL mapped into a process's address space.
type LoadedModule struct {
	ProcessPID int      `json:"process_pid"`
	BaseName   string   `json:"base_name"`
	FullPath   string   `json:"full_path"`
	Flags      []string `json:"suspicious_flags,omitempty"`
}

func (m *LoadedModule) AddFlag(flag string) {
	for _, f := range m.Flags {
		if f == flag {
			return
		}
	}
	m.Flags = append(m.Flags, flag)
}

// Driver is a loaded kernel driver.
type Driver struct {
	Name    string   `json:"name"`
	Path    string   `json:"path,omitempty"`
	Created string   `json:"created,omitempty"`
	Flags   []string `json:"suspicious_flags,omitempty"`
}

func (d *Driver) AddFlag(flag string) {
	for _, f := range d.Flags {
		if f == flag {
			return
		}
	}
	d.Flags = append(d.Flags, flag)
}

// Hook is an observed API hook or callback.
type Hook struct {
	ProcessPID   *int   `json:"process_pid,omitempty"`
	Function     string `json:"function"`
	Module       string `json:"module,omitempty"`
	Target       string `json:"target,omitempty"`
	IsSuspicious bool   `json:"suspicious"`
}

// MemoryRegion is a suspicious memory mapping (e.g. from malfind).
type MemoryRegion struct {
	PID          *int   `json:"pid,omitempty"`
	ProcessName  string `json:"process,omitempty"`
	Protection   string `json:"protection"`
	Tag          string `json:"tag,omitempty"`
	IsSuspicious bool   `json:"-"`
}

// NetworkEndpoint is a network connection or listener.
type NetworkEndpoint struct {
	Proto        string `json:"proto"`
	LocalAddr    string `json:"local_addr"`
	LocalPort    int    `json:"local_port"`
	RemoteAddr   string `json:"remote_addr"`
	RemotePort   int    `json:"remote_port"`
	ProcessPID   *int   `json:"process_pid,omitempty"`
	IsSuspicious bool   `json:"suspicious"`
}

// Service is a registered Windows service.
type Service struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Path        string   `json:"path,omitempty"`
	ServiceType string   `json:"service_type,omitempty"`
	State       string   `json:"state,omitempty"`
	PID         *int     `json:"pid,omitempty"`
	Flags       []string `json:"suspicious_flags,omitempty"`
}

// HasFlag reports whether the service already carries the given flag.
func (s *Service) HasFlag(flag string) bool {
	for _, f := range s.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func (s *Service) AddFlag(flag string) {
	for _, f := range s.Flags {
		if f == flag {
			return
		}
	}
	s.Flags = append(s.Flags, flag)
}

// CommandLine is the command line a process was launched with.
type CommandLine struct {
	PID     int    `json:"pid"`
	Cmdline string `json:"cmdline"`
}

// LoaderRecord reflects a module's presence across the PEB loader lists.
type LoaderRecord struct {
	PID        int    `json:"pid"`
	ModuleName string `json:"module_name"`
	InLoad     bool   `json:"in_load"`
	InMem      bool   `json:"in_mem"`
	InInit     bool   `json:"in_init"`
}

// Indicator (IOC) is a single correlation-engine finding.
type Indicator struct {
	Kind         string                 `json:"type"`
	Description  string                 `json:"description"`
	Data         map[string]interface{} `json:"data,omitempty"`
	TechniqueIDs []string               `json:"mitre_ids,omitempty"`
}

// AddTechnique appends id to TechniqueIDs if not already present,
// preserving catalogue order of first insertion.
func (i *Indicator) AddTechnique(id string) {
	for _, existing := range i.TechniqueIDs {
		if existing == id {
			return
		}
	}
	i.TechniqueIDs = append(i.TechniqueIDs, id)
}

// PluginOutcome records the result of invoking one plugin.
type PluginOutcome struct {
	PluginName  string   `json:"-"`
	OK          bool     `json:"ok"`
	Error       string   `json:"error,omitempty"`
	RowCount    int      `json:"row_count"`
	Warnings    []string `json:"warnings,omitempty"`
	SymbolError bool     `json:"-"`
	Skipped     bool     `json:"-"`
}

// Artifacts is the full set of typed entities lifted from one run,
// keyed by artifact class rather than by originating plugin so the
// correlation engine can address "the processes" without knowing which
// plugin produced them.
type Artifacts struct {
	Processes       []*Process
	ScannerOnlyPIDs []*Process // processes seen only by the scanner plugin, not the lister
	Modules         []*LoadedModule
	Drivers         []*Driver
	Hooks           []*Hook
	Regions         []*MemoryRegion
	Endpoints       []*NetworkEndpoint
	Services        []*Service
	CommandLines    []*CommandLine
	LoaderRecords   []*LoaderRecord
}

// VendorBucket groups a process with its module and hook counts and its
// suspicious hooks, per rule 11 of the correlation engine (grouping
// only, not an indicator).
type VendorBucket struct {
	Process         *Process `json:"process"`
	ModuleCount      int      `json:"dll_count"`
	HookCount        int      `json:"hooks_count"`
	SuspiciousHooks  []*Hook  `json:"suspicious_hooks,omitempty"`
	Concerns         []string `json:"concerns,omitempty"`
}

// SpecialAnalysis buckets vendor/context-specific process groupings.
type SpecialAnalysis struct {
	TextInputHost []VendorBucket `json:"textinputhost"`
	Ctfmon        []VendorBucket `json:"ctfmon"`
	Razer         []VendorBucket `json:"razer"`
	Asus          []VendorBucket `json:"asus"`
	OneDrive      []VendorBucket `json:"onedrive"`
}

// Sections groups flagged entities by kind for the report's "sections" key.
type Sections struct {
	SuspiciousProcesses []*Process         `json:"suspicious_processes"`
	SuspiciousDLLs      []*LoadedModule    `json:"suspicious_dlls"`
	SuspiciousDrivers   []*Driver          `json:"suspicious_drivers"`
	SuspiciousHooks     []*Hook            `json:"suspicious_hooks"`
	SuspiciousInjections []*MemoryRegion   `json:"suspicious_injections"`
	SuspiciousNetwork   []*NetworkEndpoint `json:"suspicious_network"`
	SuspiciousServices  []*Service         `json:"suspicious_services"`
}

// Summary holds the aggregate confidence assessment.
type Summary struct {
	TotalIOCs        int    `json:"total_iocs"`
	ConfidenceLevel  string `json:"confidence_level"`
}

// Meta carries run-level metadata.
type Meta struct {
	DumpPath       string                   `json:"dump_path"`
	DumpName       string                   `json:"dump_name"`
	AnalysisTime   string                   `json:"analysis_time"`
	RunID          string                   `json:"run_id"`
	AnalysisStatus string                   `json:"analysis_status"`
	PluginStatus   map[string]*PluginOutcome `json:"plugin_status"`
	SymbolError    bool                     `json:"symbol_error"`
	ProfileInfo    map[string]interface{}   `json:"profile_info,omitempty"`
}

// RunSummary is the full in-memory result of one orchestrator run; it
// marshals to the JSON report's top-level shape in declared key order
// (meta, iocs, sections, special_analysis, technique_index, summary).
type RunSummary struct {
	Meta            Meta                  `json:"meta"`
	IOCs            []*Indicator          `json:"iocs"`
	Sections        Sections              `json:"sections"`
	SpecialAnalysis SpecialAnalysis       `json:"special_analysis"`
	TechniqueIndex  map[string][]string   `json:"technique_index"`
	Summary         Summary               `json:"summary"`
}
