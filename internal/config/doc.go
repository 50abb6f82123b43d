// Package config loads the grading service's startup configuration: the
// HTTP listen address, the repository backend, the per-language sandbox
// pool sizes, and the feedback provider (§4.5, §4.6, §6).
//
// # Configuration Layers
//
// Configuration is loaded and merged in this order:
//
//  1. GetDefaultConfig() — a minimal, single-node, sqlite-backed default
//     with no AI feedback configured.
//  2. config.yaml in the directory passed to LoadConfig, which overrides
//     only the fields it sets.
//  3. Secret resolution: any `*_file` field (e.g. Feedback.AIAPIKeyFile) is
//     read and trimmed into its corresponding plain field, and an
//     environment variable override is applied last, so production
//     deployments never need to check a key into config.yaml.
//
// # Usage
//
//	cfg, err := config.LoadConfig("/etc/gradecore")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
