package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

// fakeRunner replays a scripted sequence of responses, one per call, so
// tests exercise the structured-then-tabular fallback without shelling
// out to a real binary.
type fakeRunner struct {
	responses []*RawOutput
	errs      []error
	calls     [][]string
}

func (f *fakeRunner) Run(ctx context.Context, binary string, args []string, env []string) (*RawOutput, error) {
	i := len(f.calls)
	f.calls = append(f.calls, args)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return &RawOutput{}, nil
}

func testSpec() model.PluginSpec {
	return model.PluginSpec{Name: "windows.pslist.PsList", Kind: model.PluginKindProcessList}
}

func TestInvokeStructuredSucceedsOnFirstAttempt(t *testing.T) {
	runner := &fakeRunner{
		responses: []*RawOutput{
			{ExitCode: 0, Stdout: []byte(`{"rows": [{"PID": "4", "ImageFileName": "System"}]}`)},
		},
	}
	d := New(Engine{Binary: "vol3"}, runner)
	res := d.Invoke(context.Background(), testSpec(), "/tmp/dump.raw", nil)

	if !res.Outcome.OK {
		t.Fatalf("expected OK=true, got outcome=%+v", res.Outcome)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(res.Rows))
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected a single attempt, runner was called %d times", len(runner.calls))
	}
}

func TestInvokeFallsBackToTabularWhenStructuredFails(t *testing.T) {
	runner := &fakeRunner{
		responses: []*RawOutput{
			{ExitCode: 0, Stdout: []byte("not json")},
			{ExitCode: 0, Stdout: []byte("PID\tImageFileName\n4\tSystem\n666\tevil.exe\n")},
		},
	}
	d := New(Engine{Binary: "vol3"}, runner)
	res := d.Invoke(context.Background(), testSpec(), "/tmp/dump.raw", nil)

	if !res.Outcome.OK {
		t.Fatalf("expected OK=true, got outcome=%+v", res.Outcome)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(res.Rows))
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected two attempts, runner was called %d times", len(runner.calls))
	}
}

func TestInvokeEmptyRowsIsNotOK(t *testing.T) {
	runner := &fakeRunner{
		responses: []*RawOutput{
			{ExitCode: 0, Stdout: []byte(`{"rows": []}`)},
			{ExitCode: 0, Stdout: []byte("header only\n")},
		},
	}
	d := New(Engine{Binary: "vol3"}, runner)
	res := d.Invoke(context.Background(), testSpec(), "/tmp/dump.raw", nil)

	if res.Outcome.OK {
		t.Fatalf("expected OK=false for zero rows, got outcome=%+v", res.Outcome)
	}
	if res.Outcome.Error != "" {
		t.Errorf("expected no error string for a clean empty result, got %q", res.Outcome.Error)
	}
}

func TestInvokeNonZeroExitClassifiesSymbolError(t *testing.T) {
	runner := &fakeRunner{
		responses: []*RawOutput{
			{ExitCode: 1, Stderr: []byte("Unable to validate the plugin requirements: symbol table not found")},
			{ExitCode: 1, Stderr: []byte("Unable to validate the plugin requirements: symbol table not found")},
		},
	}
	d := New(Engine{Binary: "vol3"}, runner)
	res := d.Invoke(context.Background(), testSpec(), "/tmp/dump.raw", nil)

	if res.Outcome.OK {
		t.Fatal("expected OK=false")
	}
	if !res.Outcome.SymbolError {
		t.Error("expected SymbolError=true")
	}
	if res.Outcome.Error == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestInvokeRunnerErrorProducesFailureOutcome(t *testing.T) {
	runner := &fakeRunner{errs: []error{errors.New("fork/exec vol3: no such file or directory")}}
	d := New(Engine{Binary: "vol3"}, runner)
	res := d.Invoke(context.Background(), testSpec(), "/tmp/dump.raw", nil)

	if res.Outcome.OK {
		t.Fatal("expected OK=false")
	}
	if res.Rows != nil {
		t.Errorf("expected no rows, got %v", res.Rows)
	}
}

func TestInvokeErrorMessageIsTruncated(t *testing.T) {
	longMsg := make([]byte, maxErrorBytes+500)
	for i := range longMsg {
		longMsg[i] = 'x'
	}
	runner := &fakeRunner{
		responses: []*RawOutput{
			{ExitCode: 1, Stderr: longMsg},
			{ExitCode: 1, Stderr: longMsg},
		},
	}
	d := New(Engine{Binary: "vol3"}, runner)
	res := d.Invoke(context.Background(), testSpec(), "/tmp/dump.raw", nil)

	if len(res.Outcome.Error) != maxErrorBytes {
		t.Errorf("len(Error) = %d, want %d", len(res.Outcome.Error), maxErrorBytes)
	}
}

func TestInvokePassesImageAndPluginNameToRunner(t *testing.T) {
	runner := &fakeRunner{
		responses: []*RawOutput{
			{ExitCode: 0, Stdout: []byte(`{"rows": [{"PID": "4"}]}`)},
		},
	}
	d := New(Engine{Binary: "vol3", PrefixArgs: []string{"-m", "volatility3.cli"}}, runner)
	d.Invoke(context.Background(), testSpec(), "/tmp/dump.raw", []string{"--pid", "4"})

	args := runner.calls[0]
	found := map[string]bool{}
	for _, a := range args {
		found[a] = true
	}
	for _, want := range []string{"-m", "volatility3.cli", "-f", "/tmp/dump.raw", "windows.pslist.PsList", "--pid", "4", "-r", "json"} {
		if !found[want] {
			t.Errorf("args %v missing expected token %q", args, want)
		}
	}
}
