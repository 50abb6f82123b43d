package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// newAPIRegistry builds the api template (§4.4): starts the student's
// server in the sandbox, probes it over HTTP through the sandbox's mapped
// port, and asserts on status code and response body/JSON fields.
func newAPIRegistry() *Registry {
	return &Registry{
		TemplateName:    "api",
		RequiresSandbox: true,
		funcs: map[string]TestFunc{
			"expect_status":        expectStatus,
			"expect_body_contains": expectBodyContains,
			"expect_json_field":    expectJSONField,
		},
	}
}

// launchServer starts the declared server command in the background,
// resolves the probe base URL from the sandbox's mapped port, and waits
// for the server to start accepting connections before returning (§4.4
// "waits for readiness on the mapped host port"). The server is left
// running until the pool sanitizes the container on release, which kills
// the sandbox user's processes (§4.5).
func launchServer(ctx context.Context, params map[string]interface{}, sbx Sandbox) (string, error) {
	startCommand := stringParam(params, "start_command", "")
	if startCommand == "" {
		return "", errMissingParam("start_command")
	}
	containerPort := stringParam(params, "container_port", "8080")

	_, err := sbx.Run(ctx, startCommand, RunOptions{Background: true})
	if err != nil {
		return "", err
	}

	host, port, err := sbx.MappedPort(containerPort)
	if err != nil {
		return "", err
	}
	base := "http://" + host + ":" + port

	readinessTimeout := time.Duration(intParam(params, "readiness_timeout_seconds", 0)) * time.Second
	if readinessTimeout <= 0 {
		readinessTimeout = api.DefaultServerReadinessWait
	}
	if err := waitForReady(base, readinessTimeout); err != nil {
		return "", err
	}
	return base, nil
}

// waitForReady polls base with bounded retry until a connection succeeds
// or timeout elapses, mirroring internal/sandboxrt's own readiness-polling
// pattern for the sandbox itself (internal/sandboxrt/remote.go's
// acquireRemote), applied here to the student server process running
// inside the sandbox.
func waitForReady(base string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	const pollInterval = 100 * time.Millisecond

	for {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(base + "/")
		req.Header.SetMethod("GET")
		err := fasthttp.DoTimeout(req, resp, pollInterval)
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server at %s did not become ready within %s: %w", base, timeout, err)
		}
		time.Sleep(pollInterval)
	}
}

type paramErr struct{ name string }

func (e *paramErr) Error() string { return "missing parameter '" + e.name + "'" }
func errMissingParam(name string) error { return &paramErr{name: name} }

func doRequest(base string, params map[string]interface{}, timeout time.Duration) (*fasthttp.Response, error) {
	path := stringParam(params, "path", "/")
	method := strings.ToUpper(stringParam(params, "method", "GET"))
	body := stringParam(params, "body", "")

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)

	req.SetRequestURI(base + path)
	req.Header.SetMethod(method)
	if body != "" {
		req.SetBodyString(body)
		req.Header.SetContentType("application/json")
	}

	if err := fasthttp.DoTimeout(req, resp, timeout); err != nil {
		fasthttp.ReleaseResponse(resp)
		return nil, err
	}
	return resp, nil
}

// expectStatus implements expect_status(start_command, container_port,
// path, method, expected_status) (§4.4).
func expectStatus(ctx context.Context, params []api.TestParameter, _ []api.SubmissionFile, sbx Sandbox) (TestOutcome, error) {
	if sbx == nil {
		return errOutcome("expect_status: no sandbox available"), nil
	}
	p := paramMap(params)

	base, err := launchServer(ctx, p, sbx)
	if err != nil {
		return errOutcome("expect_status: %v", err), nil
	}

	expectedStatus := intParam(p, "expected_status", 200)
	resp, err := doRequest(base, p, defaultRunDeadline(p))
	if err != nil {
		return errOutcome("expect_status: request failed: %v", err), nil
	}
	defer fasthttp.ReleaseResponse(resp)

	status := resp.StatusCode()
	if status == expectedStatus {
		return TestOutcome{Status: api.TestPass, Score: 100, Report: "status " + itoa(status) + " as expected"}, nil
	}
	return TestOutcome{
		Status: api.TestFail,
		Score:  0,
		Report: "expected status " + itoa(expectedStatus) + ", got " + itoa(status),
	}, nil
}

// expectBodyContains implements expect_body_contains(start_command,
// container_port, path, method, body, contains) (§4.4).
func expectBodyContains(ctx context.Context, params []api.TestParameter, _ []api.SubmissionFile, sbx Sandbox) (TestOutcome, error) {
	if sbx == nil {
		return errOutcome("expect_body_contains: no sandbox available"), nil
	}
	p := paramMap(params)

	base, err := launchServer(ctx, p, sbx)
	if err != nil {
		return errOutcome("expect_body_contains: %v", err), nil
	}

	needle := stringParam(p, "contains", "")
	if needle == "" {
		return errOutcome("expect_body_contains: missing 'contains' parameter"), nil
	}

	resp, err := doRequest(base, p, defaultRunDeadline(p))
	if err != nil {
		return errOutcome("expect_body_contains: request failed: %v", err), nil
	}
	defer fasthttp.ReleaseResponse(resp)

	got := string(resp.Body())
	if strings.Contains(got, needle) {
		return TestOutcome{Status: api.TestPass, Score: 100, Report: "response body contained expected substring"}, nil
	}
	return TestOutcome{Status: api.TestFail, Score: 0, Report: "response body did not contain " + quote(needle)}, nil
}

// expectJSONField implements expect_json_field(start_command,
// container_port, path, method, body, field, value) (§4.4 "assert on
// status code and JSON body shape/values"). field is a dot-separated path
// into the decoded JSON body (e.g. "user.id"); value is optional — when
// absent, the test only asserts the field is present.
func expectJSONField(ctx context.Context, params []api.TestParameter, _ []api.SubmissionFile, sbx Sandbox) (TestOutcome, error) {
	if sbx == nil {
		return errOutcome("expect_json_field: no sandbox available"), nil
	}
	p := paramMap(params)

	base, err := launchServer(ctx, p, sbx)
	if err != nil {
		return errOutcome("expect_json_field: %v", err), nil
	}

	fieldPath := stringParam(p, "field", "")
	if fieldPath == "" {
		return errOutcome("expect_json_field: missing 'field' parameter"), nil
	}
	expected, hasExpected := p["value"]

	resp, err := doRequest(base, p, defaultRunDeadline(p))
	if err != nil {
		return errOutcome("expect_json_field: request failed: %v", err), nil
	}
	defer fasthttp.ReleaseResponse(resp)

	var doc interface{}
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return TestOutcome{Status: api.TestFail, Score: 0, Report: "response body is not valid JSON: " + err.Error()}, nil
	}

	got, found := resolveJSONPath(doc, fieldPath)
	if !found {
		return TestOutcome{Status: api.TestFail, Score: 0, Report: "json field " + quote(fieldPath) + " not present in response"}, nil
	}
	if !hasExpected {
		return TestOutcome{Status: api.TestPass, Score: 100, Report: "json field " + quote(fieldPath) + " present"}, nil
	}
	if !jsonValueEqual(got, expected) {
		return TestOutcome{
			Status: api.TestFail,
			Score:  0,
			Report: fmt.Sprintf("json field %s: expected %v, got %v", quote(fieldPath), expected, got),
		}, nil
	}
	return TestOutcome{Status: api.TestPass, Score: 100, Report: "json field " + quote(fieldPath) + " matched expected value"}, nil
}

// resolveJSONPath walks a dot-separated path (e.g. "user.address.city")
// through a decoded JSON document of nested maps.
func resolveJSONPath(doc interface{}, path string) (interface{}, bool) {
	cur := doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// jsonValueEqual compares a decoded JSON value against a config-declared
// expected value. Both sides are normalized through their string
// representation so a float64 1.0 (what json.Unmarshal always produces for
// numbers) matches an expected value declared as an int in YAML/JSON.
func jsonValueEqual(got, want interface{}) bool {
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}
