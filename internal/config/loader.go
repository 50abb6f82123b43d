package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

const configFileName = "config.yaml"

// LoadConfig loads config.yaml from configPath, layered over
// GetDefaultConfig(), then resolves secret files and environment overrides.
// A missing config.yaml is not an error — the service runs on defaults.
func LoadConfig(configPath string) (ServiceConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "no config.yaml at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return ServiceConfig{}, fmt.Errorf("reading %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServiceConfig{}, fmt.Errorf("parsing %s: %w", configFilePath, err)
	}
	logging.Info("Config", "loaded configuration from %s", configFilePath)

	if err := resolveFeedbackSecret(&cfg); err != nil {
		return ServiceConfig{}, err
	}
	if err := Validate(cfg); err != nil {
		return ServiceConfig{}, err
	}

	return cfg, nil
}

// resolveFeedbackSecret reads the AI provider key from AIAPIKeyFile (if
// set), then lets GRADECORE_AI_API_KEY override it — the same file-then-env
// precedence production deployments use to keep secrets out of config.yaml.
func resolveFeedbackSecret(cfg *ServiceConfig) error {
	if cfg.Feedback.AIAPIKeyFile != "" {
		data, err := os.ReadFile(cfg.Feedback.AIAPIKeyFile)
		if err != nil {
			return fmt.Errorf("reading feedback.ai_api_key_file: %w", err)
		}
		cfg.Feedback.AIAPIKey = strings.TrimSpace(string(data))
	}
	if v := os.Getenv("GRADECORE_AI_API_KEY"); v != "" {
		cfg.Feedback.AIAPIKey = v
	}
	return nil
}

// Validate rejects a ServiceConfig that would fail at bootstrap with a
// confusing error deeper in the stack.
func Validate(cfg ServiceConfig) error {
	var errs ValidationErrors
	if err := ValidateOneOf("repository.driver", cfg.Repository.Driver, []string{"memory", "sqlite3"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if cfg.Repository.Driver == "sqlite3" {
		if err := ValidateRequired("repository.sqlite_path", cfg.Repository.SQLitePath, "sqlite3 repository"); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	}
	if err := ValidateOneOf("feedback.provider", cfg.Feedback.Provider, []string{"none", "default", "ai"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	for lang, pool := range cfg.SandboxPools {
		if pool.RemoteAgentEndpoint == "" && pool.Image == "" {
			errs.Add(fmt.Sprintf("sandbox_pools[%s].image", lang), "is required for local sandbox pools")
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}
