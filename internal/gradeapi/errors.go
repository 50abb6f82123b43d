package api

import (
	"errors"
	"fmt"
)

// ErrorKind is the §7 error taxonomy. Every fatal/soft outcome a pipeline
// step can produce names one of these.
type ErrorKind string

const (
	KindConfigMissing        ErrorKind = "config_missing"
	KindTemplateUnknown      ErrorKind = "template_unknown"
	KindTreeMalformed        ErrorKind = "tree_malformed"
	KindPreflightMissingFile ErrorKind = "preflight_missing_file"
	KindPreflightSetupFailed ErrorKind = "preflight_setup_failed"
	KindSandboxUnavailable   ErrorKind = "sandbox_unavailable"
	KindExecTimeout          ErrorKind = "exec_timeout"
	KindTestInfrastructure   ErrorKind = "test_infrastructure"
	KindFeedbackFailed       ErrorKind = "feedback_failed"
	KindExportFailed         ErrorKind = "export_failed"
	KindCancelled            ErrorKind = "cancelled"
	KindInternalError        ErrorKind = "internal_error"
)

// fatalKinds halt the pipeline outright; everything else is soft (§7).
var fatalKinds = map[ErrorKind]bool{
	KindConfigMissing:        true,
	KindTemplateUnknown:      true,
	KindTreeMalformed:        true,
	KindPreflightMissingFile: true,
	KindPreflightSetupFailed: true,
	KindSandboxUnavailable:   true,
	KindExecTimeout:          true,
	KindCancelled:            true,
	KindInternalError:        true,
}

// IsFatal reports whether a step observing this error kind must halt the
// pipeline, per §7's fatal/soft split.
func IsFatal(kind ErrorKind) bool {
	return fatalKinds[kind]
}

// GradingError is the typed error every pipeline step, the criteria tree
// builder, and the sandbox manager raise. Details carries structured
// context (exit codes, missing filenames, offending test names) that the
// HTTP layer and feedback formatter render back to the caller.
type GradingError struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
}

func (e *GradingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewGradingError constructs a GradingError with optional structured details.
func NewGradingError(kind ErrorKind, message string, details map[string]interface{}) *GradingError {
	return &GradingError{Kind: kind, Message: message, Details: details}
}

// KindOf extracts the ErrorKind carried by err, if any, defaulting to
// KindInternalError for errors that did not originate as a GradingError —
// this is what lets a recovered panic be reported with a concrete kind
// without every call site having to type-switch.
func KindOf(err error) ErrorKind {
	var gerr *GradingError
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindInternalError
}

// Sentinel errors for the small set of cases that are programmer errors
// rather than grading-domain outcomes (missing handler wiring at startup).
var (
	ErrRepositoryNotConfigured  = errors.New("repository not configured")
	ErrSandboxPoolNotConfigured = errors.New("sandbox pool not configured")
)
