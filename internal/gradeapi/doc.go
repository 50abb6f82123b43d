// Package api holds the domain types and contracts shared across gradecore's
// subsystems: the pipeline engine, the criteria tree builder, the grader, the
// test template library, and the sandbox pool manager.
//
// This mirrors the role the teacher project gives its own api package — a
// single, dependency-free layer that every other internal package imports
// but that imports nothing internal itself, so that packages never reach
// directly into one another's guts. Concretely it carries:
//
//   - Submission and GradingConfig, the two inputs a grading run starts from.
//   - The error-kind taxonomy (§7 of the spec) and the StepResult type the
//     pipeline engine uses to report per-step outcomes.
//   - PipelineExecution, the observability record every run produces
//     regardless of how it ends.
//   - The Repository and FeedbackProducer interfaces that the coordinator
//     and pipeline depend on as abstractions, with concrete implementations
//     living in internal/repository and internal/feedback respectively. The
//     sandbox pool contract (SandboxPool) is declared by its consumer,
//     internal/pipeline, and implemented by internal/sandboxrt.
package api
