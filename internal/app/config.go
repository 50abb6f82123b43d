package app

// Config is the bootstrap configuration derived from CLI flags (SPEC_FULL.md
// ambient stack: the `serve` command's entrypoint). It governs how the
// service is started, before config.ServiceConfig is loaded from disk.
type Config struct {
	// Debug raises the log level to LevelDebug.
	Debug bool

	// ConfigPath points at a directory containing config.yaml. Empty
	// means the current working directory (config.LoadConfig's default).
	ConfigPath string
}

// NewConfig constructs a bootstrap Config from CLI flag values.
func NewConfig(debug bool, configPath string) *Config {
	return &Config{Debug: debug, ConfigPath: configPath}
}
