package api

import "time"

// Step names for the grading pipeline, in declaration order (§4.1).
const (
	StepLoadConfig   = "LOAD_CONFIG"
	StepLoadTemplate = "LOAD_TEMPLATE"
	StepBuildTree    = "BUILD_TREE"
	StepPreFlight    = "PRE_FLIGHT"
	StepGrade        = "GRADE"
	StepFocus        = "FOCUS"
	StepFeedback     = "FEEDBACK"
	StepExport       = "EXPORT"
)

// DefaultSteps is the ordered step set for a standard grading run.
var DefaultSteps = []string{
	StepLoadConfig,
	StepLoadTemplate,
	StepBuildTree,
	StepPreFlight,
	StepGrade,
	StepFocus,
	StepFeedback,
	StepExport,
}

// Default timeouts (§5), overridable per GradingConfig/setup config.
const (
	DefaultSetupCommandTimeout = 30 * time.Second
	DefaultTestCommandTimeout  = 30 * time.Second
	DefaultSandboxAcquireWait  = 30 * time.Second
	DefaultSubmissionBudget    = 5 * time.Minute
	DefaultServerReadinessWait = 10 * time.Second
)

// RequestSubmissionIDHeader carries the caller's idempotency key on submit,
// letting retried HTTP requests resolve to the same submission record
// instead of creating duplicates.
const RequestSubmissionIDHeader = "X-Gradecore-Submission-Id"
