// Package logging provides a structured logging system for gradecore's CLI
// and service (daemon) execution modes, with unified log handling and
// subsystem-tagged output.
//
// # Architecture
//
// ## Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about application operation
//   - **Warn**: Warning messages that indicate potential issues
//   - **Error**: Error messages for failures and exceptional conditions
//
// ## Execution Modes
//   - **CLI Mode**: Human-readable text output (InitForCLI)
//   - **Service Mode**: JSON output for log aggregation (InitForService)
//
// # Usage
//
//	import "github.com/webtech-network/autograder-sub001/pkg/logging"
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("Pipeline", "starting grading run for submission %s", submissionID)
//	logging.Error("SandboxPool", err, "failed to acquire sandbox for %s", language)
//
// # Subsystem Organization
//
//   - **Bootstrap**: application initialization and startup
//   - **Config**: configuration loading and validation
//   - **Pipeline**: step-by-step grading execution
//   - **Grader**: criteria tree traversal and scoring
//   - **SandboxPool**: sandbox acquisition, release, command execution
//   - **Containerizer**: underlying container runtime operations
//   - **Coordinator**: submission intake and background dispatch
//   - **Feedback**: feedback production (default formatter and AI producer)
//   - **HTTPAPI**: the thin submission API adapter
//
// # Thread Safety
//
// All logging functions are safe for concurrent use from multiple
// goroutines; the package-level logger is configured once at startup and
// treated as read-only thereafter.
package logging
