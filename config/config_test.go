package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEnvProvider for testing
type MockEnvProvider struct {
	vars    map[string]string
	homeDir string
}

func (p *MockEnvProvider) Getenv(key string) string {
	return p.vars[key]
}

func (p *MockEnvProvider) UserHomeDir() (string, error) {
	return p.homeDir, nil
}

func TestNewConfig_Defaults(t *testing.T) {
	env := &MockEnvProvider{vars: map[string]string{}, homeDir: "/home/dev"}

	cfg, err := NewConfigWithEnv(env, "")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/dev", ".local", "share", "flightdeck"), cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "flightdeck.db"), cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.ColorEnabled)
	assert.Equal(t, "127.0.0.1", cfg.HTTPHost)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "https://api.github.com", cfg.GitHubBaseURL)

	assert.Equal(t, 3*time.Second, cfg.Correlator.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.Correlator.RetryDelay)
	assert.Equal(t, 5, cfg.Correlator.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Correlator.RecencyWindow)

	assert.Equal(t, 10*time.Second, cfg.Polling.FastInterval)
	assert.Equal(t, 2*time.Minute, cfg.Polling.FastThreshold)
}

func TestNewConfig_XDGDataHome(t *testing.T) {
	env := &MockEnvProvider{
		vars:    map[string]string{"XDG_DATA_HOME": "/data"},
		homeDir: "/home/dev",
	}

	cfg, err := NewConfigWithEnv(env, "")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "flightdeck"), cfg.DataDir)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	env := &MockEnvProvider{
		vars: map[string]string{
			"FLIGHTDECK_DATA_DIR":                "/var/lib/flightdeck",
			"FLIGHTDECK_LOG_LEVEL":               "debug",
			"FLIGHTDECK_COLOR":                   "false",
			"FLIGHTDECK_HTTP_PORT":               "9090",
			"FLIGHTDECK_GITHUB_BASE_URL":         "https://github.example.test/api/v3",
			"FLIGHTDECK_CORRELATOR_MAX_ATTEMPTS": "3",
			"FLIGHTDECK_CORRELATOR_RETRY_DELAY":  "10s",
			"FLIGHTDECK_POLL_SLOW_INTERVAL":      "2m",
		},
		homeDir: "/home/dev",
	}

	cfg, err := NewConfigWithEnv(env, "")

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/flightdeck", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.ColorEnabled)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "https://github.example.test/api/v3", cfg.GitHubBaseURL)
	assert.Equal(t, 3, cfg.Correlator.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Correlator.RetryDelay)
	assert.Equal(t, 2*time.Minute, cfg.Polling.SlowInterval)
}

func TestNewConfig_CLIDataDirWinsOverEnv(t *testing.T) {
	env := &MockEnvProvider{
		vars:    map[string]string{"FLIGHTDECK_DATA_DIR": "/from/env"},
		homeDir: "/home/dev",
	}

	cfg, err := NewConfigWithEnv(env, "/from/flag")

	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.DataDir)
	assert.Equal(t, filepath.Join("/from/flag", "flightdeck.db"), cfg.DatabasePath)
}

func TestNewConfig_InvalidPort(t *testing.T) {
	env := &MockEnvProvider{
		vars:    map[string]string{"FLIGHTDECK_HTTP_PORT": "99999"},
		homeDir: "/home/dev",
	}

	_, err := NewConfigWithEnv(env, "")

	assert.Error(t, err)
}
