package templates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// fakeSandbox is a minimal in-memory Sandbox used across this package's
// tests, standing in for internal/sandboxrt's sandbox handles.
type fakeSandbox struct {
	runResult RunResult
	runErr    error
	lastCmd   string
	lastStdin string
	host      string
	port      string
}

func (f *fakeSandbox) Run(_ context.Context, cmd string, opts RunOptions) (RunResult, error) {
	f.lastCmd = cmd
	f.lastStdin = opts.Stdin
	return f.runResult, f.runErr
}

func (f *fakeSandbox) MappedPort(string) (string, string, error) {
	return f.host, f.port, nil
}

func (f *fakeSandbox) Language() string { return "python" }

func TestExpectOutput_Pass(t *testing.T) {
	sbx := &fakeSandbox{runResult: RunResult{ExitCode: 0, Stdout: "42\n"}}
	params := []api.TestParameter{
		{Name: "program_command", Value: "python3 main.py"},
		{Name: "inputs", Value: []string{"6", "7"}},
		{Name: "expected_output", Value: "42"},
	}

	outcome, err := expectOutput(context.Background(), params, nil, sbx)
	require.NoError(t, err)
	assert.Equal(t, api.TestPass, outcome.Status)
	assert.Equal(t, "python3 main.py", sbx.lastCmd)
	assert.Equal(t, "6\n7\n", sbx.lastStdin)
}

func TestExpectOutput_Mismatch(t *testing.T) {
	sbx := &fakeSandbox{runResult: RunResult{ExitCode: 0, Stdout: "41\n"}}
	params := []api.TestParameter{
		{Name: "program_command", Value: "python3 main.py"},
		{Name: "expected_output", Value: "42"},
	}

	outcome, err := expectOutput(context.Background(), params, nil, sbx)
	require.NoError(t, err)
	assert.Equal(t, api.TestFail, outcome.Status)
}

func TestExpectOutput_NonZeroExit(t *testing.T) {
	sbx := &fakeSandbox{runResult: RunResult{ExitCode: 1, Stderr: "traceback"}}
	params := []api.TestParameter{{Name: "program_command", Value: "python3 main.py"}}

	outcome, err := expectOutput(context.Background(), params, nil, sbx)
	require.NoError(t, err)
	assert.Equal(t, api.TestFail, outcome.Status)
	assert.Equal(t, "traceback", outcome.Telemetry.Stderr)
}

func TestExpectOutput_NoSandbox(t *testing.T) {
	outcome, err := expectOutput(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestError, outcome.Status)
}

func TestDefaultRunDeadline(t *testing.T) {
	p := map[string]interface{}{"timeout_seconds": 10}
	assert.Equal(t, 10*time.Second, defaultRunDeadline(p))
	assert.Equal(t, api.DefaultTestCommandTimeout, defaultRunDeadline(map[string]interface{}{}))
}
