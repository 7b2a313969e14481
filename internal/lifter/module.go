package lifter

import (
	"fmt"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

// LiftModules builds LoadedModule entities from a DLL-listing plugin's
// rows. ProcessPID and BaseName are mandatory; a row missing either is
// skipped.
func LiftModules(rows []map[string]string) ([]*model.LoadedModule, []string) {
	var out []*model.LoadedModule
	var warnings []string
	for i, row := range rows {
		pid, ok := parseInt(firstNonEmpty(row, "PID", "Pid"))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("row %d: missing or invalid PID, skipped", i))
			continue
		}
		base := optionalString(row, "BaseDllName", "Name")
		if base == "" {
			warnings = append(warnings, fmt.Sprintf("row %d: missing base DLL name, skipped", i))
			continue
		}
		out = append(out, &model.LoadedModule{
			ProcessPID: pid,
			BaseName:   base,
			FullPath:   optionalString(row, "FullDllName", "Path"),
		})
	}
	return out, warnings
}

// LiftLoaderRecords builds LoaderRecord entities from a loader-list
// (ldrmodules-style) plugin's rows, tracking a module's presence across
// the three PEB loader lists.
func LiftLoaderRecords(rows []map[string]string) ([]*model.LoaderRecord, []string) {
	var out []*model.LoaderRecord
	var warnings []string
	for i, row := range rows {
		pid, ok := parseInt(firstNonEmpty(row, "PID", "Pid"))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("row %d: missing or invalid PID, skipped", i))
			continue
		}
		out = append(out, &model.LoaderRecord{
			PID:        pid,
			ModuleName: optionalString(row, "DllBase", "Name"),
			InLoad:     boolish(firstNonEmpty(row, "InLoad", "InLoadOrderLinks")),
			InMem:      boolish(firstNonEmpty(row, "InMem", "InMemoryOrderLinks")),
			InInit:     boolish(firstNonEmpty(row, "InInit", "InInitializationOrderLinks")),
		})
	}
	return out, warnings
}

func boolish(s string) bool {
	switch s {
	case "", "0", "false", "False", "FALSE", "-":
		return false
	default:
		return true
	}
}
