package coordinator

import "context"

// DispatchQueue decouples "a submission is ready to run" from the process
// that runs it, so more than one Coordinator can drain a shared backlog
// instead of each being limited to its own goroutines (§4.6 supplement:
// horizontally scaled executors). When a Coordinator has no DispatchQueue
// set, it dispatches purely in-process, as it always has.
type DispatchQueue interface {
	Enqueue(ctx context.Context, submissionID string) error
	// Dequeue blocks until a submission id is available or ctx is done.
	Dequeue(ctx context.Context) (string, error)
}
