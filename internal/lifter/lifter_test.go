package lifter

import "testing"

func TestLiftProcessesSkipsMissingPID(t *testing.T) {
	rows := []map[string]string{
		{"PID": "4", "ImageFileName": "System"},
		{"ImageFileName": "ghost.exe"},
	}
	procs, warnings := LiftProcesses(rows)
	if len(procs) != 1 {
		t.Fatalf("len(procs) = %d, want 1", len(procs))
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
	if procs[0].PID != 4 || procs[0].Name != "System" {
		t.Errorf("procs[0] = %+v", procs[0])
	}
}

func TestLiftProcessesOptionalPPID(t *testing.T) {
	procs, _ := LiftProcesses([]map[string]string{{"PID": "10", "PPID": "not-a-number"}})
	if procs[0].PPID != nil {
		t.Errorf("expected PPID to be left unset on parse failure, got %v", *procs[0].PPID)
	}
}

func TestLiftModulesSkipsMissingBaseName(t *testing.T) {
	rows := []map[string]string{
		{"PID": "4", "BaseDllName": "ntdll.dll", "FullDllName": `C:\Windows\System32\ntdll.dll`},
		{"PID": "4", "FullDllName": "orphan"},
	}
	mods, warnings := LiftModules(rows)
	if len(mods) != 1 {
		t.Fatalf("len(mods) = %d, want 1", len(mods))
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
}

func TestLiftHooksTriesAllAliasSets(t *testing.T) {
	rows := []map[string]string{
		{"HookedFunction": "GetAsyncKeyState", "PID": "100"},
		{"Callback": "PsSetCreateProcessNotifyRoutine"},
	}
	hooks, _ := LiftHooks(rows)
	if len(hooks) != 2 {
		t.Fatalf("len(hooks) = %d, want 2", len(hooks))
	}
	if hooks[0].ProcessPID == nil || *hooks[0].ProcessPID != 100 {
		t.Errorf("hooks[0].ProcessPID = %v, want 100", hooks[0].ProcessPID)
	}
	if hooks[1].ProcessPID != nil {
		t.Errorf("hooks[1].ProcessPID = %v, want nil", hooks[1].ProcessPID)
	}
}

func TestLiftRegionsUppercasesProtection(t *testing.T) {
	regions, _ := LiftRegions([]map[string]string{{"PID": "4", "Protection": "page_execute_readwrite"}})
	if regions[0].Protection != "PAGE_EXECUTE_READWRITE" {
		t.Errorf("Protection = %q", regions[0].Protection)
	}
}

func TestLiftNetworkSkipsUnparseablePorts(t *testing.T) {
	rows := []map[string]string{
		{"LocalPort": "4444", "ForeignPort": "80", "LocalAddr": "0.0.0.0", "ForeignAddr": "10.0.0.5"},
		{"LocalPort": "not-a-port", "ForeignPort": "80"},
	}
	endpoints, warnings := LiftNetwork(rows)
	if len(endpoints) != 1 {
		t.Fatalf("len(endpoints) = %d, want 1", len(endpoints))
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
}

func TestLiftServicesSkipsMissingName(t *testing.T) {
	rows := []map[string]string{
		{"Name": "wscsvc", "BinaryPath": `C:\Windows\System32\svchost.exe`},
		{"BinaryPath": "orphan"},
	}
	services, _ := LiftServices(rows)
	if len(services) != 1 {
		t.Fatalf("len(services) = %d, want 1", len(services))
	}
}

func TestLiftCommandLinesMandatoryPID(t *testing.T) {
	rows := []map[string]string{
		{"PID": "4", "CommandLine": `C:\Windows\System32\cmd.exe`},
		{"CommandLine": "orphan"},
	}
	lines, warnings := LiftCommandLines(rows)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
}

func TestLiftLoaderRecordsTracksPresenceBooleans(t *testing.T) {
	rows := []map[string]string{
		{"PID": "4", "DllBase": "evil.dll", "InLoad": "True", "InMem": "True", "InInit": ""},
	}
	records, _ := LiftLoaderRecords(rows)
	if !records[0].InLoad || !records[0].InMem || records[0].InInit {
		t.Errorf("records[0] = %+v", records[0])
	}
}
