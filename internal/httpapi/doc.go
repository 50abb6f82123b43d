// Package httpapi is the thin Submission API adapter (§6): routing only,
// translating HTTP requests into internal/coordinator calls. The
// criteria_config and setup_config documents of a POST /configs body are
// validated against a JSON Schema before the coordinator or criteria tree
// builder ever sees them (§4.2's tree_malformed check runs on top of, not
// instead of, this boundary validation); other request bodies are only
// decoded and checked field by field in their handlers.
package httpapi
