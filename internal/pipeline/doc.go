// Package pipeline implements the grading pipeline engine (§4.1): an
// ordered list of steps executed against one submission, each observing the
// prior steps' side effects through a shared context. The engine guarantees
// a complete PipelineExecution trace — every planned step gets a StepRecord
// even if never reached — and releases any acquired sandbox on every exit
// path.
package pipeline
