package api

// StepOutcome is the coarse result a pipeline step produces (§4.1).
type StepOutcome string

const (
	OutcomeOK   StepOutcome = "ok"
	OutcomeSkip StepOutcome = "skip"
	OutcomeFail StepOutcome = "fail"
)

// StepResult is returned by every pipeline step's Execute method. A fail
// outcome additionally carries the ErrorKind so the engine can decide
// whether to halt (fatal) or continue (soft), per §7.
type StepResult struct {
	Outcome StepOutcome
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
}

// OK reports a step that completed normally.
func OK() StepResult {
	return StepResult{Outcome: OutcomeOK}
}

// Skip reports a step intentionally not run (e.g. BUILD_TREE on a
// single-submission fast path, FOCUS when feedback is disabled).
func Skip(reason string) StepResult {
	return StepResult{Outcome: OutcomeSkip, Message: reason}
}

// Fail reports a step failure of the given kind. Callers decide fatal vs.
// soft by the kind alone (api.IsFatal), not by a separate flag, so there is
// exactly one place that encodes which kinds halt the pipeline.
func Fail(kind ErrorKind, message string, details map[string]interface{}) StepResult {
	return StepResult{Outcome: OutcomeFail, Kind: kind, Message: message, Details: details}
}

// IsFatal reports whether this result should halt the pipeline.
func (r StepResult) IsFatal() bool {
	return r.Outcome == OutcomeFail && IsFatal(r.Kind)
}
