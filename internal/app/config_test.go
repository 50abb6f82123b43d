package app

import "testing"

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name       string
		debug      bool
		configPath string
	}{
		{name: "full configuration", debug: true, configPath: "/custom/config/path"},
		{name: "minimal configuration", debug: false, configPath: ""},
		{name: "debug only", debug: true, configPath: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(tt.debug, tt.configPath)

			if cfg.Debug != tt.debug {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.debug)
			}
			if cfg.ConfigPath != tt.configPath {
				t.Errorf("ConfigPath = %v, want %v", cfg.ConfigPath, tt.configPath)
			}
		})
	}
}
