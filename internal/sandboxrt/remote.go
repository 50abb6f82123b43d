package sandboxrt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/templates"
	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

const remoteSubsystem = "SandboxPool.Remote"

// remoteSandbox is the per-acquisition handle when a language's pool is
// configured in remote-proxy mode (§4.5 "Remote proxy mode"): every
// operation is an HTTP call against the configured execution agent instead
// of a local container.
type remoteSandbox struct {
	endpoint string
	language string
	sandboxID string
}

var _ templates.Sandbox = (*remoteSandbox)(nil)

type remoteRunRequest struct {
	SandboxID  string `json:"sandbox_id"`
	Command    string `json:"command"`
	Stdin      string `json:"stdin,omitempty"`
	DeadlineMS int64  `json:"deadline_ms,omitempty"`
	Background bool   `json:"background,omitempty"`
}

type remoteRunResponse struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// acquireRemote polls the agent's readiness endpoint with bounded retry
// (§4.5: "typ. 30s") and, once ready, asks it to allocate a sandbox for
// language.
func acquireRemote(ctx context.Context, language, endpoint string, deadline time.Time) (templates.Sandbox, error) {
	for {
		if time.Now().After(deadline) {
			return nil, api.NewGradingError(api.KindSandboxUnavailable, fmt.Sprintf("remote agent for %s not ready before deadline", language), nil)
		}
		if ctx.Err() != nil {
			return nil, api.NewGradingError(api.KindCancelled, "acquire cancelled", nil)
		}

		status, body, err := remoteCall(endpoint+"/sandboxes", "POST", []byte(fmt.Sprintf(`{"language":%q}`, language)), api.DefaultSandboxAcquireWait)
		if err == nil && status == 200 {
			var resp struct {
				SandboxID string `json:"sandbox_id"`
			}
			if jerr := json.Unmarshal(body, &resp); jerr == nil && resp.SandboxID != "" {
				return &remoteSandbox{endpoint: endpoint, language: language, sandboxID: resp.SandboxID}, nil
			}
		}
		logging.Debug(remoteSubsystem, "agent %s not ready for %s yet, retrying", stripScheme(endpoint), language)
		time.Sleep(minDuration(500*time.Millisecond, time.Until(deadline)))
	}
}

func (r *remoteSandbox) Run(ctx context.Context, cmd string, opts templates.RunOptions) (templates.RunResult, error) {
	req := remoteRunRequest{
		SandboxID:  r.sandboxID,
		Command:    cmd,
		Stdin:      opts.Stdin,
		DeadlineMS: opts.Deadline.Milliseconds(),
		Background: opts.Background,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return templates.RunResult{}, err
	}

	timeout := opts.Deadline
	if timeout <= 0 {
		timeout = api.DefaultTestCommandTimeout
	}
	status, body, err := remoteCall(r.endpoint+"/run", "POST", payload, timeout)
	if err != nil {
		return templates.RunResult{}, fmt.Errorf("exec_timeout: remote run: %w", err)
	}
	if status != 200 {
		return templates.RunResult{}, fmt.Errorf("remote run: agent returned status %d", status)
	}
	if opts.Background {
		return templates.RunResult{}, nil
	}

	var resp remoteRunResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return templates.RunResult{}, fmt.Errorf("remote run: decoding response: %w", err)
	}
	return templates.RunResult{ExitCode: resp.ExitCode, Stdout: resp.Stdout, Stderr: resp.Stderr}, nil
}

func (r *remoteSandbox) MappedPort(containerPort string) (string, string, error) {
	status, body, err := remoteCall(fmt.Sprintf("%s/sandboxes/%s/port?container_port=%s", r.endpoint, r.sandboxID, containerPort), "GET", nil, 5*time.Second)
	if err != nil {
		return "", "", err
	}
	if status != 200 {
		return "", "", fmt.Errorf("mapped_port: agent returned status %d", status)
	}
	var resp struct {
		Host string `json:"host"`
		Port string `json:"port"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	return resp.Host, resp.Port, nil
}

func (r *remoteSandbox) Language() string { return r.language }

// release tells the agent to sanitize/return the sandbox (§4.5 release).
func (r *remoteSandbox) release(ctx context.Context) error {
	status, _, err := remoteCall(fmt.Sprintf("%s/sandboxes/%s/release", r.endpoint, r.sandboxID), "POST", nil, 10*time.Second)
	if err != nil {
		return err
	}
	if status != 200 {
		return fmt.Errorf("release: agent returned status %d", status)
	}
	return nil
}

func remoteCall(url, method string, body []byte, timeout time.Duration) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := fasthttp.DoTimeout(req, resp, timeout); err != nil {
		return 0, nil, err
	}

	respBody := make([]byte, len(resp.Body()))
	copy(respBody, resp.Body())
	return resp.StatusCode(), respBody, nil
}

// stripScheme is used by callers constructing a remote endpoint's display
// name for logging. It removes only the scheme prefix; any user info, path
// or query in the endpoint is kept.
func stripScheme(endpoint string) string {
	if i := strings.Index(endpoint, "://"); i >= 0 {
		return endpoint[i+3:]
	}
	return endpoint
}
