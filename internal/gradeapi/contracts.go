package api

import "context"

// SubmissionResult is the persisted outcome of a completed or failed
// grading run (§6 submission_results).
type SubmissionResult struct {
	SubmissionID       string
	ResultTree         *ResultTree
	Focus              *Focus
	Feedback           string
	DegradedFeedback   bool
	PipelineExecution  *PipelineExecution
	FinalScore         float64
}

// Repository is the persistence contract (§6): store/load configurations,
// submissions, and results. The core treats this as an external
// collaborator — internal/repository provides a sqlite-backed and an
// in-memory implementation, but nothing in the pipeline, grader, or
// coordinator depends on either concretely.
type Repository interface {
	// SaveConfig stores a new GradingConfig version. The new version becomes
	// the active one when cfg.IsActive is set or when no active version
	// exists yet for ExternalAssignmentID; otherwise it is stored inactive
	// (the thin HTTP adapter enforces the §6 "conflict" rule before
	// calling this).
	SaveConfig(ctx context.Context, cfg *GradingConfig) error
	ActiveConfig(ctx context.Context, externalAssignmentID string) (*GradingConfig, error)
	ActivateConfig(ctx context.Context, externalAssignmentID string, version int) error

	SaveSubmission(ctx context.Context, sub *Submission) error
	Submission(ctx context.Context, id string) (*Submission, error)
	UpdateSubmissionStatus(ctx context.Context, id string, status SubmissionStatus) error

	SaveResult(ctx context.Context, result *SubmissionResult) error
	Result(ctx context.Context, submissionID string) (*SubmissionResult, error)
}

// FeedbackProducer turns a ResultTree + Focus into a human-readable
// feedback string (§1: "opaque producer of a feedback string given a test
// report"). internal/feedback provides a deterministic default formatter
// and an AI-backed producer; the FEEDBACK step depends only on this
// interface.
type FeedbackProducer interface {
	Produce(ctx context.Context, sub *Submission, cfg *GradingConfig, tree *ResultTree, focus *Focus) (string, error)
}

// ExportSink delivers a completed result to an external system (§4.1
// EXPORT step), e.g. a configured webhook. A nil sink means EXPORT is
// skipped.
type ExportSink interface {
	Export(ctx context.Context, sub *Submission, result *SubmissionResult) error
}
