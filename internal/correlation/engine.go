// Package correlation implements the memory-forensics correlation
// rules: a fixed, ordered set of heuristics that turn lifted artifacts
// into Indicators, a technique index, vendor/context buckets, and an
// overall confidence assessment.
package correlation

import (
	"fmt"
	"strings"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

// Engine evaluates the correlation rules against one run's artifacts.
type Engine struct {
	cfg Config
}

// New creates an Engine bound to cfg.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// NewDefault creates an Engine using DefaultConfig.
func NewDefault() *Engine {
	return New(DefaultConfig())
}

// Result is everything the correlation engine contributes to a run's
// RunSummary: the ordered indicator list, the flagged-entity sections,
// the vendor/context buckets, and the aggregate summary.
type Result struct {
	Indicators []*model.Indicator
	Sections   model.Sections
	Special    model.SpecialAnalysis
	Summary    model.Summary
}

// Run evaluates all eleven rules, in order, against a.
func (e *Engine) Run(a *model.Artifacts) Result {
	var iocs []*model.Indicator

	iocs = append(iocs, e.ruleHiddenProcess(a)...)
	iocs = append(iocs, e.rulePathLegitimacy(a)...)
	iocs = append(iocs, e.ruleInputHandler(a)...)
	iocs = append(iocs, e.ruleCmdlineObfuscation(a)...)
	iocs = append(iocs, e.ruleModulePath(a)...)
	iocs = append(iocs, e.ruleDriverAnomalies(a)...)
	iocs = append(iocs, e.ruleAPIHooking(a)...)
	iocs = append(iocs, e.ruleMemoryInjection(a)...)
	iocs = append(iocs, e.ruleNetworkAnomaly(a)...)
	iocs = append(iocs, e.ruleServiceAnomaly(a)...)
	special := e.ruleVendorBuckets(a)

	return Result{
		Indicators: iocs,
		Sections:   buildSections(a),
		Special:    special,
		Summary: model.Summary{
			TotalIOCs:       len(iocs),
			ConfidenceLevel: confidenceLevel(iocs),
		},
	}
}

// ruleHiddenProcess is rule 1: processes visible only to the scanner
// plugin, not the lister, are hidden by definition.
func (e *Engine) ruleHiddenProcess(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, p := range a.ScannerOnlyPIDs {
		p.AddFlag("hidden_process")
		out = append(out, &model.Indicator{
			Kind:        "suspicious_process",
			Description: fmt.Sprintf("hidden process (visible to the scanner but not the lister): %s (pid %d)", p.Name, p.PID),
			Data:        map[string]interface{}{"pid": p.PID, "name": p.Name, "flags": p.Flags},
			TechniqueIDs: []string{"T1014"},
		})
	}
	return out
}

// rulePathLegitimacy is rule 2.
func (e *Engine) rulePathLegitimacy(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, p := range a.Processes {
		pathLower := strings.ToLower(p.Path)
		flagged := false
		switch {
		case pathLower == "":
			p.AddFlag("no_path")
			flagged = true
		case !hasAnyPrefix(pathLower, e.cfg.LegitimatePathPrefixes):
			p.AddFlag("unusual_path")
			flagged = true
		}
		if flagged {
			out = append(out, &model.Indicator{
				Kind:        "suspicious_process",
				Description: fmt.Sprintf("process path outside standard directories: %s (pid %d)", p.Path, p.PID),
				Data:        map[string]interface{}{"pid": p.PID, "name": p.Name, "path": p.Path, "flags": p.Flags},
			})
		}
	}
	return out
}

// ruleInputHandler is rule 3.
func (e *Engine) ruleInputHandler(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, p := range a.Processes {
		if !containsString(e.cfg.InputHandlerNames, strings.ToLower(p.Name)) {
			continue
		}
		p.AddFlag("input_process")
		out = append(out, &model.Indicator{
			Kind:         "keyboard_manipulation",
			Description:  fmt.Sprintf("input-sensitive process detected: %s (pid %d)", p.Name, p.PID),
			Data:         map[string]interface{}{"pid": p.PID, "name": p.Name},
			TechniqueIDs: []string{"T1056.001", "T1056.004"},
		})
	}
	return out
}

// ruleCmdlineObfuscation is rule 4.
func (e *Engine) ruleCmdlineObfuscation(a *model.Artifacts) []*model.Indicator {
	cmdlineByPID := make(map[int]string, len(a.CommandLines))
	for _, c := range a.CommandLines {
		cmdlineByPID[c.PID] = c.Cmdline
	}

	var out []*model.Indicator
	for _, p := range a.Processes {
		cmdline, ok := cmdlineByPID[p.PID]
		if !ok || cmdline == "" {
			continue
		}
		lower := strings.ToLower(cmdline)
		marker, found := firstSubstring(lower, e.cfg.CmdlineObfuscationMarkers)
		if !found {
			continue
		}
		p.AddFlag("suspicious_cmdline")
		excerpt := cmdline
		if len(excerpt) > 100 {
			excerpt = excerpt[:100]
		}
		out = append(out, &model.Indicator{
			Kind:        "suspicious_process",
			Description: fmt.Sprintf("obfuscated command line (%s): %s (pid %d)", marker, excerpt, p.PID),
			Data:        map[string]interface{}{"pid": p.PID, "cmdline": excerpt, "marker": marker},
		})
	}
	return out
}

// ruleModulePath is rule 5.
func (e *Engine) ruleModulePath(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, m := range a.Modules {
		pathLower := strings.ToLower(m.FullPath)
		flagged := false
		if pathLower == "" || strings.HasPrefix(pathLower, `\`) {
			m.AddFlag("memory_only")
			flagged = true
		}
		if hasAnySubstring(pathLower, e.cfg.UnusualPathSubstrings) {
			m.AddFlag("unusual_path")
			flagged = true
		}
		if flagged {
			out = append(out, &model.Indicator{
				Kind:         "dll_mismatch",
				Description:  fmt.Sprintf("module in non-standard location: %s (pid %d)", m.FullPath, m.ProcessPID),
				Data:         map[string]interface{}{"pid": m.ProcessPID, "dll": m.BaseName, "path": m.FullPath, "flags": m.Flags},
				TechniqueIDs: []string{"T1055"},
			})
		}
	}
	return out
}

// ruleDriverAnomalies is rule 6.
func (e *Engine) ruleDriverAnomalies(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, d := range a.Drivers {
		pathLower := strings.ToLower(d.Path)
		nameLower := strings.ToLower(d.Name)
		flagged := false
		if strings.Contains(pathLower, `\temp\`) || strings.Contains(pathLower, `\users\`) {
			d.AddFlag("unusual_path")
			flagged = true
		}
		if strings.Contains(nameLower, "scvhost") || strings.Contains(nameLower, "lsas") {
			d.AddFlag("typosquatting")
			flagged = true
		}
		if flagged {
			out = append(out, &model.Indicator{
				Kind:         "driver_anomaly",
				Description:  fmt.Sprintf("anomalous driver: %s (%s)", d.Name, d.Path),
				Data:         map[string]interface{}{"name": d.Name, "path": d.Path, "flags": d.Flags},
				TechniqueIDs: []string{"T1014"},
			})
		}
	}
	return out
}

// ruleAPIHooking is rule 7. A hook matching both a keylogging and a
// credential API name carries both technique IDs on one indicator.
func (e *Engine) ruleAPIHooking(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, h := range a.Hooks {
		funcLower := strings.ToLower(h.Function)
		isKeylogging := containsFold(e.cfg.KeyloggingAPIs, funcLower)
		isCredential := containsFold(e.cfg.CredentialAPIs, funcLower)
		if !isKeylogging && !isCredential {
			continue
		}
		h.IsSuspicious = true
		ind := &model.Indicator{
			Kind:        "api_hooking",
			Description: fmt.Sprintf("suspicious hook: %s", h.Function),
			Data:        map[string]interface{}{"function": h.Function, "module": h.Module, "target": h.Target, "pid": h.ProcessPID},
		}
		if isKeylogging {
			ind.AddTechnique("T1056.001")
		}
		if isCredential {
			ind.AddTechnique("T1056.004")
		}
		out = append(out, ind)
	}
	return out
}

// ruleMemoryInjection is rule 8.
func (e *Engine) ruleMemoryInjection(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, r := range a.Regions {
		protection := r.Protection
		rwx := strings.Contains(protection, "RWX") ||
			(strings.Contains(protection, "READWRITE") && strings.Contains(protection, "EXECUTE"))
		if !rwx {
			continue
		}
		r.IsSuspicious = true
		out = append(out, &model.Indicator{
			Kind:         "memory_injection",
			Description:  fmt.Sprintf("suspicious executable memory region in %s: %s", r.ProcessName, protection),
			Data:         map[string]interface{}{"pid": r.PID, "process": r.ProcessName, "protection": protection, "tag": r.Tag},
			TechniqueIDs: []string{"T1055"},
		})
	}
	return out
}

// ruleNetworkAnomaly is rule 9.
func (e *Engine) ruleNetworkAnomaly(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, n := range a.Endpoints {
		suspicious := e.cfg.SuspiciousPorts[n.LocalPort] || e.cfg.SuspiciousPorts[n.RemotePort] ||
			strings.HasPrefix(n.RemoteAddr, "10.")
		if !suspicious {
			continue
		}
		n.IsSuspicious = true
		out = append(out, &model.Indicator{
			Kind:        "suspicious_network",
			Description: fmt.Sprintf("suspicious connection %s:%d -> %s:%d", n.LocalAddr, n.LocalPort, n.RemoteAddr, n.RemotePort),
			Data: map[string]interface{}{
				"proto": n.Proto,
				"local": fmt.Sprintf("%s:%d", n.LocalAddr, n.LocalPort),
				"remote": fmt.Sprintf("%s:%d", n.RemoteAddr, n.RemotePort),
				"pid":   n.ProcessPID,
			},
		})
	}
	return out
}

// ruleServiceAnomaly is rule 10.
func (e *Engine) ruleServiceAnomaly(a *model.Artifacts) []*model.Indicator {
	var out []*model.Indicator
	for _, s := range a.Services {
		if s.Path == "" {
			continue
		}
		pathLower := strings.ToLower(s.Path)
		if hasAnyPrefix(pathLower, e.cfg.LegitimatePathPrefixes) {
			continue
		}
		s.AddFlag("unusual_path")
		out = append(out, &model.Indicator{
			Kind:         "service_anomaly",
			Description:  fmt.Sprintf("service binary in non-standard path: %s (%s)", s.Name, s.Path),
			Data:         map[string]interface{}{"name": s.Name, "path": s.Path, "flags": s.Flags},
			TechniqueIDs: []string{"T1543"},
		})
	}
	return out
}

var vendorSubstrings = map[string][]string{
	"razer":    {"razer", "synapse", "chroma"},
	"asus":     {"asus", "armoury", "rog"},
	"onedrive": {"onedrive.exe", "onedrivesetup.exe"},
}

// ruleVendorBuckets is rule 11: grouping only, never an Indicator.
func (e *Engine) ruleVendorBuckets(a *model.Artifacts) model.SpecialAnalysis {
	var special model.SpecialAnalysis
	for _, p := range a.Processes {
		nameLower := strings.ToLower(p.Name)
		switch {
		case nameLower == "textinputhost.exe":
			special.TextInputHost = append(special.TextInputHost, vendorBucket(p, a))
		case nameLower == "ctfmon.exe":
			special.Ctfmon = append(special.Ctfmon, vendorBucket(p, a))
		case hasAnySubstring(nameLower, vendorSubstrings["razer"]):
			special.Razer = append(special.Razer, vendorBucket(p, a))
		case hasAnySubstring(nameLower, vendorSubstrings["asus"]):
			special.Asus = append(special.Asus, vendorBucket(p, a))
		case hasAnySubstring(nameLower, vendorSubstrings["onedrive"]):
			special.OneDrive = append(special.OneDrive, vendorBucket(p, a))
		}
	}
	return special
}

func vendorBucket(p *model.Process, a *model.Artifacts) model.VendorBucket {
	var moduleCount, hookCount int
	var suspicious []*model.Hook
	for _, m := range a.Modules {
		if m.ProcessPID == p.PID {
			moduleCount++
		}
	}
	for _, h := range a.Hooks {
		if h.ProcessPID != nil && *h.ProcessPID == p.PID {
			hookCount++
			if h.IsSuspicious {
				suspicious = append(suspicious, h)
			}
		}
	}
	var concerns []string
	nameLower := strings.ToLower(p.Name)
	if hookCount > 0 && (nameLower == "textinputhost.exe" || nameLower == "ctfmon.exe") {
		concerns = append(concerns, "hooks detected in input-sensitive process")
	}
	return model.VendorBucket{
		Process:         p,
		ModuleCount:     moduleCount,
		HookCount:       hookCount,
		SuspiciousHooks: suspicious,
		Concerns:        concerns,
	}
}

// buildSections collects every entity that carries a suspicion marker,
// preserving each input list's original order.
func buildSections(a *model.Artifacts) model.Sections {
	var s model.Sections
	for _, p := range a.Processes {
		if len(p.Flags) > 0 {
			s.SuspiciousProcesses = append(s.SuspiciousProcesses, p)
		}
	}
	for _, sp := range a.ScannerOnlyPIDs {
		s.SuspiciousProcesses = append(s.SuspiciousProcesses, sp)
	}
	for _, m := range a.Modules {
		if len(m.Flags) > 0 {
			s.SuspiciousDLLs = append(s.SuspiciousDLLs, m)
		}
	}
	for _, d := range a.Drivers {
		if len(d.Flags) > 0 {
			s.SuspiciousDrivers = append(s.SuspiciousDrivers, d)
		}
	}
	for _, h := range a.Hooks {
		if h.IsSuspicious {
			s.SuspiciousHooks = append(s.SuspiciousHooks, h)
		}
	}
	for _, r := range a.Regions {
		if r.IsSuspicious {
			s.SuspiciousInjections = append(s.SuspiciousInjections, r)
		}
	}
	for _, n := range a.Endpoints {
		if n.IsSuspicious {
			s.SuspiciousNetwork = append(s.SuspiciousNetwork, n)
		}
	}
	for _, svc := range a.Services {
		if len(svc.Flags) > 0 {
			s.SuspiciousServices = append(s.SuspiciousServices, svc)
		}
	}
	return s
}

// confidenceLevel implements the §4.4 formula: H counts indicators
// whose kind is api_hooking, memory_injection, or suspicious_process
// with the hidden_process flag.
func confidenceLevel(iocs []*model.Indicator) string {
	if len(iocs) == 0 {
		return "none"
	}
	h := 0
	for _, ioc := range iocs {
		switch ioc.Kind {
		case "api_hooking", "memory_injection":
			h++
		case "suspicious_process":
			if flags, ok := ioc.Data["flags"].([]string); ok && containsString(flags, "hidden_process") {
				h++
			}
		}
	}
	switch {
	case h >= 3:
		return "high"
	case h >= 1:
		return "medium"
	default:
		return "low"
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func hasAnySubstring(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstSubstring(s string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return c, true
		}
	}
	return "", false
}

func containsFold(list []string, target string) bool {
	targetLower := strings.ToLower(target)
	for _, item := range list {
		if strings.Contains(targetLower, strings.ToLower(item)) {
			return true
		}
	}
	return false
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
