// Package sandboxrt supplies isolated, language-specific execution
// environments to the grading pipeline's PRE_FLIGHT and GRADE steps (§4.5).
//
// Runtime is the low-level container driver (Docker CLI today; Podman is a
// stub). Pool sits above it: it pre-warms a fixed number of containers per
// language, hands them out via Acquire, and sanitizes them back to idle via
// Release. A Pool configured with a language's RemoteAgentEndpoint instead
// proxies acquire/run/mapped_port to an external execution agent over HTTP,
// invisible to callers.
package sandboxrt
