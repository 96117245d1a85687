// Package config holds runtime configuration for all Flightdeck services.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const DataDirName = "flightdeck"

// EnvProvider abstracts environment variable access for testing.
type EnvProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
}

// DefaultEnvProvider implements EnvProvider using real OS functions.
type DefaultEnvProvider struct{}

func (p *DefaultEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (p *DefaultEnvProvider) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// GetDefaultDataDir returns the default data directory following the XDG
// Base Directory specification.
func GetDefaultDataDir() string {
	return getDefaultDataDirWithEnv(&DefaultEnvProvider{})
}

func getDefaultDataDirWithEnv(env EnvProvider) string {
	if xdgDataHome := env.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, DataDirName)
	}
	homeDir, _ := env.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", DataDirName)
}

// CorrelatorConfig tunes the run correlator. The values are load-bearing for
// correctness under GitHub's dispatch latency, not arbitrary.
type CorrelatorConfig struct {
	InitialDelay  time.Duration
	RetryDelay    time.Duration
	MaxAttempts   int
	RecencyWindow time.Duration
	PageSize      int
}

// PollingConfig tunes the deployment status poller. The interval adapts to
// the age of the oldest active deployment.
type PollingConfig struct {
	FastInterval    time.Duration // while the oldest active deployment is younger than FastThreshold
	MediumInterval  time.Duration // between FastThreshold and MediumThreshold
	SlowInterval    time.Duration // beyond MediumThreshold
	FastThreshold   time.Duration
	MediumThreshold time.Duration
}

// Config holds configuration for all services.
type Config struct {
	// Core paths
	DataDir      string
	DatabasePath string

	// Logging
	LogLevel     string
	ColorEnabled bool

	// HTTP server
	HTTPHost string
	HTTPPort int

	// GitHub API
	GitHubBaseURL string
	GitHubTimeout time.Duration

	Correlator CorrelatorConfig
	Polling    PollingConfig

	// Encryption
	EncryptionKey string

	env EnvProvider
}

// NewConfig creates a configuration from the environment with an optional
// data directory override (CLI flag).
func NewConfig(cliDataDir string) (*Config, error) {
	return newConfigWithEnv(&DefaultEnvProvider{}, cliDataDir)
}

// NewConfigWithEnv creates a configuration with a custom environment
// provider (for testing).
func NewConfigWithEnv(env EnvProvider, cliDataDir string) (*Config, error) {
	return newConfigWithEnv(env, cliDataDir)
}

func newConfigWithEnv(env EnvProvider, cliDataDir string) (*Config, error) {
	c := &Config{env: env}

	c.setDefaults()
	c.loadFromEnv()

	if cliDataDir != "" {
		c.DataDir = cliDataDir
	}

	c.DatabasePath = filepath.Join(c.DataDir, "flightdeck.db")

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) setDefaults() {
	c.DataDir = getDefaultDataDirWithEnv(c.env)
	c.LogLevel = "info"
	c.ColorEnabled = true
	c.HTTPHost = "127.0.0.1"
	c.HTTPPort = 8080
	c.GitHubBaseURL = "https://api.github.com"
	c.GitHubTimeout = 30 * time.Second
	c.Correlator = CorrelatorConfig{
		InitialDelay:  3 * time.Second,
		RetryDelay:    5 * time.Second,
		MaxAttempts:   5,
		RecencyWindow: 30 * time.Second,
		PageSize:      20,
	}
	c.Polling = PollingConfig{
		FastInterval:    10 * time.Second,
		MediumInterval:  30 * time.Second,
		SlowInterval:    60 * time.Second,
		FastThreshold:   2 * time.Minute,
		MediumThreshold: 5 * time.Minute,
	}
}

func (c *Config) loadFromEnv() {
	if v := c.env.Getenv("FLIGHTDECK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := c.env.Getenv("FLIGHTDECK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := c.env.Getenv("FLIGHTDECK_COLOR"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.ColorEnabled = enabled
		}
	}
	if v := c.env.Getenv("FLIGHTDECK_HTTP_HOST"); v != "" {
		c.HTTPHost = v
	}
	if v := c.env.Getenv("FLIGHTDECK_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	if v := c.env.Getenv("FLIGHTDECK_GITHUB_BASE_URL"); v != "" {
		c.GitHubBaseURL = v
	}
	if v := c.env.Getenv("FLIGHTDECK_GITHUB_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.GitHubTimeout = d
		}
	}
	if v := c.env.Getenv("FLIGHTDECK_ENCRYPTION_KEY"); v != "" {
		c.EncryptionKey = v
	}

	c.loadDuration("FLIGHTDECK_CORRELATOR_INITIAL_DELAY", &c.Correlator.InitialDelay)
	c.loadDuration("FLIGHTDECK_CORRELATOR_RETRY_DELAY", &c.Correlator.RetryDelay)
	c.loadDuration("FLIGHTDECK_CORRELATOR_RECENCY_WINDOW", &c.Correlator.RecencyWindow)
	if v := c.env.Getenv("FLIGHTDECK_CORRELATOR_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Correlator.MaxAttempts = n
		}
	}
	if v := c.env.Getenv("FLIGHTDECK_CORRELATOR_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Correlator.PageSize = n
		}
	}

	c.loadDuration("FLIGHTDECK_POLL_FAST_INTERVAL", &c.Polling.FastInterval)
	c.loadDuration("FLIGHTDECK_POLL_MEDIUM_INTERVAL", &c.Polling.MediumInterval)
	c.loadDuration("FLIGHTDECK_POLL_SLOW_INTERVAL", &c.Polling.SlowInterval)
	c.loadDuration("FLIGHTDECK_POLL_FAST_THRESHOLD", &c.Polling.FastThreshold)
	c.loadDuration("FLIGHTDECK_POLL_MEDIUM_THRESHOLD", &c.Polling.MediumThreshold)
}

func (c *Config) loadDuration(key string, dst *time.Duration) {
	if v := c.env.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.Correlator.MaxAttempts <= 0 {
		return fmt.Errorf("correlator max attempts must be positive")
	}
	if c.Polling.FastThreshold >= c.Polling.MediumThreshold {
		return fmt.Errorf("polling fast threshold must be below medium threshold")
	}
	return nil
}
