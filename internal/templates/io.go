package templates

import (
	"context"
	"strings"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// newIORegistry builds the input_output template (§4.4): runs the student
// program in the sandbox with inputs piped on stdin and compares stdout
// against an expected value.
func newIORegistry() *Registry {
	return &Registry{
		TemplateName:    "input_output",
		RequiresSandbox: true,
		funcs: map[string]TestFunc{
			"expect_output": expectOutput,
		},
	}
}

// expectOutput implements expect_output(inputs, expected_output,
// program_command, trim_whitespace) (§4.4). program_command is resolved
// per-language by the criteria tree before the test is invoked, so here it
// arrives as a plain string ready to run.
func expectOutput(ctx context.Context, params []api.TestParameter, _ []api.SubmissionFile, sbx Sandbox) (TestOutcome, error) {
	if sbx == nil {
		return errOutcome("expect_output: no sandbox available"), nil
	}

	p := paramMap(params)
	command := stringParam(p, "program_command", "")
	if command == "" {
		return errOutcome("expect_output: missing 'program_command' parameter"), nil
	}
	inputs := stringSliceParam(p, "inputs")
	expected := stringParam(p, "expected_output", "")
	trimWhitespace := boolParam(p, "trim_whitespace", true)

	stdin := strings.Join(inputs, "\n")
	if len(inputs) > 0 {
		stdin += "\n"
	}

	result, err := sbx.Run(ctx, command, RunOptions{Stdin: stdin, Deadline: defaultRunDeadline(p)})
	if err != nil {
		return errOutcome("expect_output: sandbox run failed: %v", err), nil
	}

	telemetry := &api.Telemetry{Stdout: result.Stdout, Stderr: result.Stderr, ExitCode: result.ExitCode}

	if result.ExitCode != 0 {
		return TestOutcome{
			Status:    api.TestFail,
			Score:     0,
			Report:    "program exited with non-zero status " + itoa(result.ExitCode),
			Telemetry: telemetry,
		}, nil
	}

	got, want := result.Stdout, expected
	if trimWhitespace {
		got = strings.TrimSpace(got)
		want = strings.TrimSpace(want)
	}

	if got == want {
		return TestOutcome{Status: api.TestPass, Score: 100, Report: "output matched", Telemetry: telemetry}, nil
	}
	return TestOutcome{
		Status:    api.TestFail,
		Score:     0,
		Report:    "output mismatch: expected " + quote(want) + ", got " + quote(got),
		Telemetry: telemetry,
	}, nil
}

func boolParam(m map[string]interface{}, name string, def bool) bool {
	if v, ok := m[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func quote(s string) string {
	if len(s) > 120 {
		s = s[:120] + "…"
	}
	return "\"" + s + "\""
}
