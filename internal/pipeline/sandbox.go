package pipeline

import (
	"context"
	"time"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/templates"
)

// SandboxPool is the pipeline's view of the sandbox pool manager (§4.5):
// just enough to satisfy PRE_FLIGHT's acquire/inject/run/release sequence.
// internal/sandboxrt provides the concrete Docker-backed and remote-proxy
// implementations; the pipeline depends only on this interface so a fake
// pool can drive step tests without containers.
type SandboxPool interface {
	// Acquire blocks, bounded by deadline, until an idle sandbox for
	// language is available (§4.5 acquire).
	Acquire(ctx context.Context, language string, deadline time.Time) (templates.Sandbox, error)
	// InjectFiles atomically places the submission's files into the
	// sandbox's working directory (§4.5 inject_files).
	InjectFiles(ctx context.Context, sbx templates.Sandbox, files []api.SubmissionFile) error
	// Release sanitizes and returns the sandbox, or destroys it and
	// replaces it lazily if sanitization fails (§4.5 release). MUST be
	// called exactly once per successful Acquire, on every pipeline exit
	// path.
	Release(ctx context.Context, sbx templates.Sandbox) error
}
