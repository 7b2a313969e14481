package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

// WriteMarkdown renders summary as a titled Markdown report and writes
// it atomically, the same way WriteJSON does.
func WriteMarkdown(summary *model.RunSummary, dir, filename string) (string, error) {
	body := BuildMarkdown(summary)
	finalPath := filepath.Join(dir, filename)
	if err := writeAtomic(dir, finalPath, []byte(body)); err != nil {
		return "", err
	}
	return finalPath, nil
}

// BuildMarkdown renders summary into the Markdown report body: the meta
// header, executive-summary counts, per-plugin status sorted by name,
// each IOC's kind, description and technique mapping, the flagged-entity
// sections, the vendor buckets, and the technique index. It does not
// render meta.symbol_error, meta.profile_info, plugin warnings, IOC data
// payloads, every field of each flagged entity, the suspicious-hook
// lists of the buckets, or the module and hook counts of the Razer,
// ASUS and OneDrive buckets; those appear only in the JSON report.
func BuildMarkdown(s *model.RunSummary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Memory Analysis Report - %s\n\n", orNA(s.Meta.DumpName))
	fmt.Fprintf(&sb, "- **Dump path**: `%s`\n", s.Meta.DumpPath)
	fmt.Fprintf(&sb, "- **Analysis time (UTC)**: %s\n", s.Meta.AnalysisTime)
	fmt.Fprintf(&sb, "- **Run ID**: `%s`\n", s.Meta.RunID)
	fmt.Fprintf(&sb, "- **Analysis status**: `%s`\n\n", s.Meta.AnalysisStatus)

	if s.Meta.AnalysisStatus == "failed_no_valid_plugins" {
		sb.WriteString("> WARNING: no plugin of the memory-forensics engine completed successfully.\n")
		sb.WriteString("> This usually means kernel symbols (PDB) are missing or unreachable offline.\n\n")
	}

	sb.WriteString("### Executive Summary\n\n")
	fmt.Fprintf(&sb, "- **Total IOCs detected**: %d\n", len(s.IOCs))
	fmt.Fprintf(&sb, "- **Confidence level**: %s\n\n", s.Summary.ConfidenceLevel)
	sb.WriteString("**Key findings:**\n")
	fmt.Fprintf(&sb, "- Suspicious processes: **%d**\n", len(s.Sections.SuspiciousProcesses))
	fmt.Fprintf(&sb, "- Memory injections: **%d**\n", len(s.Sections.SuspiciousInjections))
	fmt.Fprintf(&sb, "- Suspicious API hooks: **%d**\n", len(s.Sections.SuspiciousHooks))
	fmt.Fprintf(&sb, "- Suspicious network connections: **%d**\n", len(s.Sections.SuspiciousNetwork))
	fmt.Fprintf(&sb, "- Anomalous drivers: **%d**\n", len(s.Sections.SuspiciousDrivers))
	fmt.Fprintf(&sb, "- Suspicious DLLs: **%d**\n", len(s.Sections.SuspiciousDLLs))
	fmt.Fprintf(&sb, "- Anomalous services: **%d**\n\n", len(s.Sections.SuspiciousServices))

	if len(s.Meta.PluginStatus) > 0 {
		names := make([]string, 0, len(s.Meta.PluginStatus))
		okCount := 0
		for name, st := range s.Meta.PluginStatus {
			names = append(names, name)
			if st.OK {
				okCount++
			}
		}
		sort.Strings(names)
		sb.WriteString("### Plugin status\n")
		fmt.Fprintf(&sb, "- Plugins OK: **%d / %d**\n\n", okCount, len(s.Meta.PluginStatus))
		for _, name := range names {
			st := s.Meta.PluginStatus[name]
			if st.OK {
				fmt.Fprintf(&sb, "- `%s`: OK (rows=%d)\n", name, st.RowCount)
			} else {
				fmt.Fprintf(&sb, "- `%s`: ERROR - %s\n", name, st.Error)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Detected IOCs\n\n")
	for _, ioc := range s.IOCs {
		mitreText := "N/A"
		if len(ioc.TechniqueIDs) > 0 {
			parts := make([]string, 0, len(ioc.TechniqueIDs))
			for _, id := range ioc.TechniqueIDs {
				parts = append(parts, fmt.Sprintf("%s (%s)", id, model.TechniqueCatalogue[id]))
			}
			mitreText = strings.Join(parts, ", ")
		}
		fmt.Fprintf(&sb, "- **%s**: %s\n", ioc.Kind, ioc.Description)
		fmt.Fprintf(&sb, "  - MITRE: %s\n", mitreText)
	}
	sb.WriteString("\n")

	sb.WriteString("### Suspicious processes\n")
	for _, p := range s.Sections.SuspiciousProcesses {
		fmt.Fprintf(&sb, "- PID %d - %s (%s)\n", p.PID, p.Name, p.Path)
	}
	sb.WriteString("\n")

	sb.WriteString("### Suspicious hooks\n")
	for _, h := range s.Sections.SuspiciousHooks {
		fmt.Fprintf(&sb, "- PID %s - %s -> %s\n", pidString(h.ProcessPID), h.Function, h.Target)
	}
	sb.WriteString("\n")

	sb.WriteString("### Memory injections (malfind)\n")
	for _, r := range s.Sections.SuspiciousInjections {
		fmt.Fprintf(&sb, "- %s (PID %s), protection=%s, tag=%s\n", r.ProcessName, pidString(r.PID), r.Protection, r.Tag)
	}
	sb.WriteString("\n")

	sb.WriteString("### Anomalous drivers\n")
	for _, d := range s.Sections.SuspiciousDrivers {
		fmt.Fprintf(&sb, "- %s - %s\n", d.Name, d.Path)
	}
	sb.WriteString("\n")

	sb.WriteString("### DLLs in non-standard paths\n")
	for _, m := range s.Sections.SuspiciousDLLs {
		fmt.Fprintf(&sb, "- PID %d - %s - %s\n", m.ProcessPID, m.BaseName, m.FullPath)
	}
	sb.WriteString("\n")

	sb.WriteString("### Suspicious network connections\n")
	for _, n := range s.Sections.SuspiciousNetwork {
		fmt.Fprintf(&sb, "- PID %s - %s %s:%d -> %s:%d\n",
			pidString(n.ProcessPID), n.Proto, n.LocalAddr, n.LocalPort, n.RemoteAddr, n.RemotePort)
	}
	sb.WriteString("\n")

	if len(s.Sections.SuspiciousServices) > 0 {
		sb.WriteString("### Anomalous services\n")
		for _, svc := range s.Sections.SuspiciousServices {
			fmt.Fprintf(&sb, "- %s (PID %s) - %s\n", svc.Name, pidString(svc.PID), svc.Path)
		}
		sb.WriteString("\n")
	}

	writeVendorSection(&sb, s.SpecialAnalysis)

	if len(s.TechniqueIndex) > 0 {
		sb.WriteString("### MITRE ATT&CK technique mapping\n\n")
		ids := make([]string, 0, len(s.TechniqueIndex))
		for id := range s.TechniqueIndex {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&sb, "- **%s** (%s): %s\n", id, model.TechniqueCatalogue[id], strings.Join(s.TechniqueIndex[id], ", "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Analysis confidence level\n")
	fmt.Fprintf(&sb, "- **%s**\n", s.Summary.ConfidenceLevel)

	return sb.String()
}

func writeVendorSection(sb *strings.Builder, special model.SpecialAnalysis) {
	if len(special.TextInputHost) == 0 && len(special.Ctfmon) == 0 && len(special.Razer) == 0 &&
		len(special.Asus) == 0 && len(special.OneDrive) == 0 {
		return
	}
	sb.WriteString("### Process-specific analysis\n\n")

	if len(special.TextInputHost) > 0 {
		sb.WriteString("#### TextInputHost.exe\n")
		for _, item := range special.TextInputHost {
			fmt.Fprintf(sb, "- PID %d - %s\n", item.Process.PID, item.Process.Name)
			fmt.Fprintf(sb, "  - Loaded DLLs: %d\n", item.ModuleCount)
			fmt.Fprintf(sb, "  - Hooks detected: %d\n", item.HookCount)
			if len(item.Concerns) > 0 {
				fmt.Fprintf(sb, "  - Concerns: %s\n", strings.Join(item.Concerns, ", "))
			}
		}
		sb.WriteString("\n")
	}
	if len(special.Ctfmon) > 0 {
		sb.WriteString("#### ctfmon.exe\n")
		for _, item := range special.Ctfmon {
			fmt.Fprintf(sb, "- PID %d - %s\n", item.Process.PID, item.Process.Name)
			fmt.Fprintf(sb, "  - Loaded DLLs: %d\n", item.ModuleCount)
			fmt.Fprintf(sb, "  - Hooks detected: %d\n", item.HookCount)
		}
		sb.WriteString("\n")
	}
	if len(special.Razer) > 0 {
		sb.WriteString("#### Razer processes\n")
		for _, item := range special.Razer {
			fmt.Fprintf(sb, "- %s (PID %d) - %s\n", item.Process.Name, item.Process.PID, item.Process.Path)
		}
		sb.WriteString("\n")
	}
	if len(special.Asus) > 0 {
		sb.WriteString("#### ASUS processes\n")
		for _, item := range special.Asus {
			fmt.Fprintf(sb, "- %s (PID %d) - %s\n", item.Process.Name, item.Process.PID, item.Process.Path)
		}
		sb.WriteString("\n")
	}
	if len(special.OneDrive) > 0 {
		sb.WriteString("#### OneDrive\n")
		for _, item := range special.OneDrive {
			fmt.Fprintf(sb, "- %s (PID %d) - %s\n", item.Process.Name, item.Process.PID, item.Process.Path)
		}
		sb.WriteString("\n")
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func pidString(pid *int) string {
	if pid == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *pid)
}
