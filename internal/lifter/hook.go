package lifter

import "github.com/forensix-labs/volcorrelate/internal/model"

// LiftHooks builds Hook entities from any hook-exposing plugin's rows
// (API-hook scanners and kernel-callback scanners use different column
// names for the same concepts, so all aliases are tried together).
// IsSuspicious is left false here; the correlation engine's hooking
// rule sets it.
func LiftHooks(rows []map[string]string) ([]*model.Hook, []string) {
	var out []*model.Hook
	for _, row := range rows {
		fn := optionalString(row, "HookedFunction", "Function", "Callback", "Routine")
		if fn == "" {
			continue
		}
		h := &model.Hook{
			Function: fn,
			Module:   optionalString(row, "Module", "OwnerModule", "Owner"),
			Target:   optionalString(row, "HookingModule", "TargetModule", "Type", "CallbackType"),
		}
		if pid, ok := parseInt(firstNonEmpty(row, "PID", "Pid")); ok {
			h.ProcessPID = &pid
		}
		out = append(out, h)
	}
	return out, nil
}

// LiftRegions builds MemoryRegion entities from a malfind-style scan's
// rows. Protection is normalized to upper-case. IsSuspicious is left
// false; the correlation engine's injection rule sets it.
func LiftRegions(rows []map[string]string) ([]*model.MemoryRegion, []string) {
	var out []*model.MemoryRegion
	for _, row := range rows {
		r := &model.MemoryRegion{
			ProcessName: optionalString(row, "Process", "Name"),
			Protection:  toUpper(optionalString(row, "Protection")),
			Tag:         toUpper(optionalString(row, "Tag", "TagName")),
		}
		if pid, ok := parseInt(firstNonEmpty(row, "PID", "Pid")); ok {
			r.PID = &pid
		}
		out = append(out, r)
	}
	return out, nil
}
