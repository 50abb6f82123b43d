package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnConfigFileWrite(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(configFile, []byte("http:\n  addr: \":8080\"\n"), 0644))

	w := NewWatcher(dir, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan ServiceConfig, 1)
	require.NoError(t, w.Start(ctx, func(cfg ServiceConfig, err error) {
		if err == nil {
			reloaded <- cfg
		}
	}))
	defer w.Stop()

	require.NoError(t, os.WriteFile(configFile, []byte("http:\n  addr: \":9090\"\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, ":9090", cfg.HTTP.Addr)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcher_StopHaltsBackgroundLoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(""), 0644))

	w := NewWatcher(dir, 10*time.Millisecond)
	require.NoError(t, w.Start(context.Background(), func(ServiceConfig, error) {}))
	w.Stop()
}

func TestNewWatcher_DefaultsEmptyPathToCurrentDir(t *testing.T) {
	w := NewWatcher("", 0)
	assert.Equal(t, ".", w.configPath)
	assert.Equal(t, 500*time.Millisecond, w.debounce)
}
