package sandboxrt

import (
	"context"
	"fmt"

	"github.com/webtech-network/autograder-sub001/internal/templates"
)

// dockerSandbox is the per-acquisition handle for a local, container-backed
// sandbox; it implements templates.Sandbox so test functions can run
// commands without knowing the sandbox is Docker-backed.
type dockerSandbox struct {
	runtime     ContainerRuntime
	containerID string
	workingDir  string
	language    string
}

var _ templates.Sandbox = (*dockerSandbox)(nil)

// Run executes cmd in the container's working directory, respecting
// opts.Deadline and opts.Background (§4.5 run).
func (d *dockerSandbox) Run(ctx context.Context, cmd string, opts templates.RunOptions) (templates.RunResult, error) {
	if opts.Background {
		if err := d.runtime.ExecDetached(ctx, d.containerID, d.workingDir, cmd); err != nil {
			return templates.RunResult{}, err
		}
		return templates.RunResult{}, nil
	}

	runCtx := ctx
	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	stdout, stderr, exitCode, err := d.runtime.ExecInContainer(runCtx, d.containerID, d.workingDir, cmd, opts.Stdin)
	if err != nil {
		if runCtx.Err() != nil {
			return templates.RunResult{}, fmt.Errorf("exec_timeout: %w", runCtx.Err())
		}
		return templates.RunResult{}, err
	}
	return templates.RunResult{ExitCode: exitCode, Stdout: stdout, Stderr: stderr}, nil
}

// MappedPort returns the host-accessible address for a forwarded container
// port (api template only).
func (d *dockerSandbox) MappedPort(containerPort string) (string, string, error) {
	port, err := d.runtime.GetContainerPort(context.Background(), d.containerID, containerPort)
	if err != nil {
		return "", "", err
	}
	return "127.0.0.1", port, nil
}

func (d *dockerSandbox) Language() string { return d.language }
