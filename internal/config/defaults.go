package config

import "time"

// GetDefaultConfig returns the minimal single-node configuration: sqlite
// repository, a python sandbox pool of two pre-warmed sandboxes,
// deterministic feedback, a 5
// minute submission budget (§5).
func GetDefaultConfig() ServiceConfig {
	return ServiceConfig{
		HTTP: HTTPConfig{Addr: ":8080"},
		Repository: RepositoryConfig{
			Driver:     "sqlite3",
			SQLitePath: "gradecore.db",
		},
		SandboxPools: map[string]LanguagePoolConfig{
			"python": {Image: "python:3.12-slim", PoolSize: 2, WorkingDir: "/workspace"},
		},
		Feedback:               FeedbackConfig{Provider: "default"},
		SubmissionBudget:       5 * time.Minute,
		MaxConcurrentPipelines: 4,
	}
}
