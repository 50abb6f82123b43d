package config

import "time"

// ServiceConfig is the grading service's top-level startup configuration.
type ServiceConfig struct {
	HTTP                   HTTPConfig                   `yaml:"http"`
	Repository             RepositoryConfig              `yaml:"repository"`
	SandboxPools           map[string]LanguagePoolConfig  `yaml:"sandbox_pools"`
	Feedback               FeedbackConfig                `yaml:"feedback"`
	SubmissionBudget       time.Duration                  `yaml:"submission_budget,omitempty"`
	MaxConcurrentPipelines int64                          `yaml:"max_concurrent_pipelines,omitempty"`
	DispatchQueue          DispatchQueueConfig            `yaml:"dispatch_queue,omitempty"`
}

// DispatchQueueConfig optionally puts a shared Redis list in front of the
// coordinator's background executor so multiple coordinator processes can
// drain one backlog instead of each dispatching purely in-process (§4.6
// supplement). A blank Addr keeps dispatch in-process, which is the
// single-node default.
type DispatchQueueConfig struct {
	Addr string `yaml:"redis_addr,omitempty"`
	Key  string `yaml:"redis_key,omitempty"`
}

// HTTPConfig configures the thin submission API adapter (§6).
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// RepositoryConfig selects the repository backend (§3, §6). Driver is
// "memory" or "sqlite3"; SQLitePath is ignored for "memory".
type RepositoryConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// LanguagePoolConfig is one entry of the sandbox pool manager's
// language_tag → {image, pool_size, working_dir} map (§4.5). A non-empty
// RemoteAgentEndpoint switches the language to remote-proxy mode.
type LanguagePoolConfig struct {
	Image               string `yaml:"image"`
	PoolSize            int    `yaml:"pool_size"`
	WorkingDir          string `yaml:"working_dir"`
	RemoteAgentEndpoint string `yaml:"remote_agent_endpoint,omitempty"`
}

// FeedbackConfig selects and configures the feedback producer (§4.1 FEEDBACK,
// §4.7). Provider is "none", "default" (deterministic template), or "ai".
type FeedbackConfig struct {
	Provider     string `yaml:"provider"`
	AIAPIKeyFile string `yaml:"ai_api_key_file,omitempty"`
	AIAPIKey     string `yaml:"-"`
	AIModel      string `yaml:"ai_model,omitempty"`
}
