package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadConfig_OverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	yamlBody := "http:\n  addr: \":9090\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(yamlBody), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "sqlite3", cfg.Repository.Driver)
}

func TestLoadConfig_RejectsUnknownRepositoryDriver(t *testing.T) {
	dir := t.TempDir()
	yamlBody := "repository:\n  driver: postgres\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(yamlBody), 0644))

	_, err := LoadConfig(dir)
	require.Error(t, err)
}

func TestLoadConfig_ResolvesAIKeyFromFile(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("sk-test\n"), 0600))

	yamlBody := "feedback:\n  provider: ai\n  ai_api_key_file: \"" + keyFile + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(yamlBody), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Feedback.AIAPIKey)
}

func TestLoadConfig_EnvOverridesFileSecret(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("from-file"), 0600))

	yamlBody := "feedback:\n  provider: ai\n  ai_api_key_file: \"" + keyFile + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(yamlBody), 0644))

	t.Setenv("GRADECORE_AI_API_KEY", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Feedback.AIAPIKey)
}

func TestValidate_RejectsSandboxPoolMissingImage(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.SandboxPools["go"] = LanguagePoolConfig{PoolSize: 1}

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_AllowsRemoteAgentPoolWithoutImage(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.SandboxPools["go"] = LanguagePoolConfig{RemoteAgentEndpoint: "http://agent:9000"}

	require.NoError(t, Validate(cfg))
}
