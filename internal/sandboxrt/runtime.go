package sandboxrt

import (
	"context"
	"io"
)

// ContainerRuntime is the driver Pool uses to create and command isolated
// environments (§4.5 isolation requirements: dedicated filesystem
// namespace, restricted egress, unprivileged identity).
type ContainerRuntime interface {
	// PullImage pulls a container image if not already present.
	PullImage(ctx context.Context, image string) error

	// StartContainer starts a detached, long-running container per config
	// and returns its id.
	StartContainer(ctx context.Context, config ContainerConfig) (string, error)

	// StopContainer stops a running container.
	StopContainer(ctx context.Context, containerID string) error

	// GetContainerLogs returns a reader for container logs.
	GetContainerLogs(ctx context.Context, containerID string) (io.ReadCloser, error)

	// IsContainerRunning checks if a container is running.
	IsContainerRunning(ctx context.Context, containerID string) (bool, error)

	// GetContainerPort gets the mapped host port for a container port.
	GetContainerPort(ctx context.Context, containerID string, containerPort string) (string, error)

	// RemoveContainer destroys a container.
	RemoveContainer(ctx context.Context, containerID string) error

	// ExecInContainer runs shellCmd inside containerID's workingDir as the
	// container's non-privileged user, piping stdin if non-empty, and
	// blocks for the result (§4.5 run, foreground case).
	ExecInContainer(ctx context.Context, containerID, workingDir, shellCmd, stdin string) (stdout, stderr string, exitCode int, err error)

	// ExecDetached starts shellCmd inside containerID's workingDir without
	// waiting for completion (§4.5 run, background=true case).
	ExecDetached(ctx context.Context, containerID, workingDir, shellCmd string) error
}

// ContainerConfig holds configuration for starting a container.
type ContainerConfig struct {
	Name        string            // Container name
	Image       string            // Container image
	Env         map[string]string // Environment variables
	Ports       []string          // Port mappings (host:container)
	Volumes     []string          // Volume mounts (host:container)
	Entrypoint  []string          // Entrypoint override
	User        string            // User to run as
	HealthCheck []string          // Health check command
}
