package lifter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LiftProcesses builds Process entities from a process-listing or
// process-scanning plugin's rows. A row whose PID cannot be parsed is
// skipped (PID is mandatory) and recorded as a warning.
func LiftProcesses(rows []map[string]string) ([]*model.Process, []string) {
	var out []*model.Process
	var warnings []string
	for i, row := range rows {
		pid, ok := parseInt(firstNonEmpty(row, "PID", "Pid", "pid"))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("row %d: missing or invalid PID, skipped", i))
			continue
		}
		p := &model.Process{
			PID:        pid,
			Name:       optionalString(row, "ImageFileName", "Name", "name"),
			Path:       optionalString(row, "Path", "FilePath", "path"),
			CreateTime: optionalString(row, "CreateTime", "Created"),
			ExitTime:   optionalString(row, "ExitTime", "Exited"),
		}
		if ppid, ok := parseInt(firstNonEmpty(row, "PPID", "Ppid", "ppid")); ok {
			p.PPID = &ppid
		}
		out = append(out, p)
	}
	return out, warnings
}

// LiftCommandLines builds CommandLine entities. PID is mandatory.
func LiftCommandLines(rows []map[string]string) ([]*model.CommandLine, []string) {
	var out []*model.CommandLine
	var warnings []string
	for i, row := range rows {
		pid, ok := parseInt(firstNonEmpty(row, "PID", "Pid"))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("row %d: missing or invalid PID, skipped", i))
			continue
		}
		out = append(out, &model.CommandLine{
			PID:     pid,
			Cmdline: optionalString(row, "CommandLine", "Cmdline", "Command"),
		})
	}
	return out, warnings
}
