// Package coordinator implements the submission coordinator (§4.6): it
// accepts submissions, writes a pending record, and dispatches grading to a
// bounded background executor so callers can poll for the result instead of
// blocking on a pipeline run.
package coordinator
