// Package templates is the test library (§4.4): a named registry mapping
// test-function names to concrete implementations, one registry per
// template family (webdev, input_output, api, essay).
//
// Each test function has the uniform signature the spec's design notes
// call for (§9 "Dynamic test-function dispatch → capability set"):
// parameters, submission files, and an optional Sandbox in, a TestOutcome
// out. The Sandbox type is declared here as the minimal interface a test
// function needs, not as the concrete sandbox pool's handle type, so this
// package depends on no sandbox implementation detail — internal/sandboxrt's
// Docker and remote-proxy sandbox handles satisfy it structurally.
package templates
