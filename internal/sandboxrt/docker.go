package sandboxrt

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

const dockerSubsystem = "Containerizer"

// DockerRuntime implements ContainerRuntime using the Docker CLI.
type DockerRuntime struct{}

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// NewDockerRuntime creates a new Docker runtime instance
func NewDockerRuntime() (*DockerRuntime, error) {
	if _, err := exec.LookPath("docker"); err != nil {
		return nil, fmt.Errorf("docker command not found in PATH: %w", err)
	}

	ctx := context.Background()
	cmd := execCommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker daemon not accessible: %w", err)
	}

	return &DockerRuntime{}, nil
}

// PullImage pulls a container image if not already present
func (d *DockerRuntime) PullImage(ctx context.Context, image string) error {
	logging.Info(dockerSubsystem, "Checking if image %s exists locally", image)

	checkCmd := execCommandContext(ctx, "docker", "image", "inspect", image)
	if err := checkCmd.Run(); err == nil {
		logging.Debug(dockerSubsystem, "Image %s already exists", image)
		return nil
	}

	logging.Info(dockerSubsystem, "Pulling image %s", image)
	pullCmd := execCommandContext(ctx, "docker", "pull", image)
	pullCmd.Stdout = os.Stdout
	pullCmd.Stderr = os.Stderr

	if err := pullCmd.Run(); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}

	return nil
}

// StartContainer starts a detached, long-running container (§4.5
// initialize: "each detached and kept alive by a no-op long-running
// command") unless the caller supplies its own entrypoint.
func (d *DockerRuntime) StartContainer(ctx context.Context, config ContainerConfig) (string, error) {
	args := []string{"run", "-d", "--name", config.Name, "--security-opt", "no-new-privileges"}

	for k, v := range config.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}

	for _, port := range config.Ports {
		args = append(args, "-p", port)
	}

	for _, vol := range config.Volumes {
		expandedVol := expandPath(vol)
		args = append(args, "-v", expandedVol)
	}

	if config.User != "" {
		args = append(args, "--user", config.User)
	}

	if len(config.Entrypoint) > 0 {
		args = append(args, "--entrypoint", config.Entrypoint[0])
	}

	args = append(args, config.Image)

	if len(config.Entrypoint) > 1 {
		args = append(args, config.Entrypoint[1:]...)
	} else if len(config.Entrypoint) == 0 {
		// No-op keepalive so the sandbox survives until explicitly released.
		args = append(args, "sleep", "infinity")
	}

	logging.Debug(dockerSubsystem, "Starting container with command: docker %s", strings.Join(args, " "))

	cmd := execCommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to start container: %w\nOutput: %s", err, string(output))
	}

	containerID := strings.TrimSpace(string(output))
	logging.Info(dockerSubsystem, "Started container %s with ID %s", config.Name, shortID(containerID))

	return containerID, nil
}

// StopContainer stops a running container
func (d *DockerRuntime) StopContainer(ctx context.Context, containerID string) error {
	logging.Info(dockerSubsystem, "Stopping container %s", shortID(containerID))

	cmd := execCommandContext(ctx, "docker", "stop", containerID)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", shortID(containerID), err)
	}

	return nil
}

// GetContainerLogs returns a reader for container logs
func (d *DockerRuntime) GetContainerLogs(ctx context.Context, containerID string) (io.ReadCloser, error) {
	cmd := execCommandContext(ctx, "docker", "logs", "-f", containerID)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("failed to start logs command: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		defer stdout.Close()
		defer stderr.Close()

		go io.Copy(pw, stdout)
		io.Copy(pw, stderr)
		cmd.Wait()
	}()

	return pr, nil
}

// IsContainerRunning checks if a container is running
func (d *DockerRuntime) IsContainerRunning(ctx context.Context, containerID string) (bool, error) {
	cmd := execCommandContext(ctx, "docker", "inspect", "-f", "{{.State.Running}}", containerID)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to inspect container %s: %w", shortID(containerID), err)
	}

	return strings.TrimSpace(string(output)) == "true", nil
}

// GetContainerPort gets the mapped host port for a container port
func (d *DockerRuntime) GetContainerPort(ctx context.Context, containerID string, containerPort string) (string, error) {
	cmd := execCommandContext(ctx, "docker", "port", containerID, containerPort)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get port mapping for %s:%s: %w", shortID(containerID), containerPort, err)
	}

	portOutput := strings.TrimSpace(string(output))
	if portOutput == "" {
		return "", fmt.Errorf("no port mapping found for %s:%s", shortID(containerID), containerPort)
	}

	parts := strings.Split(portOutput, ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("unexpected port output format: %s", portOutput)
	}

	return parts[len(parts)-1], nil
}

// RemoveContainer removes a container
func (d *DockerRuntime) RemoveContainer(ctx context.Context, containerID string) error {
	logging.Debug(dockerSubsystem, "Removing container %s", shortID(containerID))

	cmd := execCommandContext(ctx, "docker", "rm", "-f", containerID)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", shortID(containerID), err)
	}

	return nil
}

// ExecInContainer runs shellCmd via `docker exec`, piping stdin and
// separating stdout/stderr/exit code (§4.5 run).
func (d *DockerRuntime) ExecInContainer(ctx context.Context, containerID, workingDir, shellCmd, stdin string) (string, string, int, error) {
	args := []string{"exec", "-i"}
	if workingDir != "" {
		args = append(args, "-w", workingDir)
	}
	args = append(args, containerID, "sh", "-c", shellCmd)

	cmd := execCommandContext(ctx, "docker", args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return stdout.String(), stderr.String(), -1, fmt.Errorf("exec in container %s: %w", shortID(containerID), err)
		}
	}

	return stdout.String(), stderr.String(), exitCode, nil
}

// ExecDetached starts shellCmd in the background inside the container
// (§4.5 run, background=true).
func (d *DockerRuntime) ExecDetached(ctx context.Context, containerID, workingDir, shellCmd string) error {
	args := []string{"exec", "-d"}
	if workingDir != "" {
		args = append(args, "-w", workingDir)
	}
	args = append(args, containerID, "sh", "-c", shellCmd)

	cmd := execCommandContext(ctx, "docker", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("detached exec in container %s: %w", shortID(containerID), err)
	}
	return nil
}

func shortID(containerID string) string {
	if len(containerID) > 12 {
		return containerID[:12]
	}
	return containerID
}

// expandPath expands tilde in paths to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// parseContainerLogsJSON reads logs and extracts port information, used by
// callers diagnosing a sandbox that never reports a mapped port.
func parseContainerLogsJSON(reader io.Reader) (int, error) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()

		var logEntry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &logEntry); err == nil {
			if port, ok := logEntry["port"].(float64); ok {
				return int(port), nil
			}
			if msg, ok := logEntry["message"].(string); ok {
				if strings.Contains(msg, "listening on port") {
					parts := strings.Fields(msg)
					for i, part := range parts {
						if part == "port" && i+1 < len(parts) {
							var port int
							if _, err := fmt.Sscanf(parts[i+1], "%d", &port); err == nil {
								return port, nil
							}
						}
					}
				}
			}
		}
	}

	return 0, fmt.Errorf("port information not found in logs")
}
