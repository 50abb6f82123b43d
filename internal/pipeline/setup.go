package pipeline

import (
	"fmt"
	"time"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// resolveSetupConfig picks the effective setup_config for language (§3
// GradingConfig: "setup_config (per-language or single-language setup)").
// A multi-language config may nest per-language overrides under the
// language's own key; everything else falls back to the top-level map.
func resolveSetupConfig(cfg *api.GradingConfig, language string) map[string]interface{} {
	if cfg.SetupConfig == nil {
		return map[string]interface{}{}
	}
	if !cfg.IsMultiLanguage() || language == "" {
		return cfg.SetupConfig
	}
	if perLang, ok := cfg.SetupConfig[language].(map[string]interface{}); ok {
		return perLang
	}
	return cfg.SetupConfig
}

// stringSlice coerces a decoded-JSON []interface{} of strings (the shape
// required_files arrives in) into a []string.
func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// setupCommand is one entry of setup_config.setup_commands, supporting both
// the bare-string and {name, command} object forms (spec.md §6).
type setupCommand struct {
	Name    string
	Command string
}

// setupCommands parses the decoded-JSON setup_commands value. An entry
// whose shape is neither a string nor a {command: string} object is an
// error rather than a silently dropped command, so a misconfigured setup
// document surfaces instead of running fewer commands than declared.
func setupCommands(v interface{}) ([]setupCommand, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("setup_commands must be an array")
	}
	out := make([]setupCommand, 0, len(raw))
	for _, item := range raw {
		switch entry := item.(type) {
		case string:
			out = append(out, setupCommand{Command: entry})
		case map[string]interface{}:
			cmd, ok := entry["command"].(string)
			if !ok || cmd == "" {
				return nil, fmt.Errorf("setup_commands entry missing string \"command\" field")
			}
			name, _ := entry["name"].(string)
			out = append(out, setupCommand{Name: name, Command: cmd})
		default:
			return nil, fmt.Errorf("setup_commands entry must be a string or {name, command} object")
		}
	}
	return out, nil
}

func sandboxAcquireTimeout(setup map[string]interface{}) time.Duration {
	if v, ok := setup["acquire_timeout_seconds"]; ok {
		if n, ok := v.(float64); ok {
			return time.Duration(n * float64(time.Second))
		}
	}
	return api.DefaultSandboxAcquireWait
}

func setupCommandTimeout(setup map[string]interface{}) time.Duration {
	if v, ok := setup["timeout_seconds"]; ok {
		if n, ok := v.(float64); ok {
			return time.Duration(n * float64(time.Second))
		}
	}
	return api.DefaultSetupCommandTimeout
}
