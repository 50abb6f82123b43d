// Package app wires the grading service's bootstrap sequence: load
// config.ServiceConfig, construct the repository, template set, feedback
// producer, sandbox pool, pipeline engine, coordinator, and HTTP adapter,
// then serve until asked to stop.
package app
