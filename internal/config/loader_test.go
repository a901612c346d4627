package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, ".cache", cfg.Cache.Directory)
	require.Equal(t, time.Hour, cfg.Cache.ExpireAfter)
	require.Equal(t, 100, cfg.Cache.MaxSizeMB)
	require.Equal(t, 4, cfg.Checks.MaxConcurrent)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "info", cfg.Logging.Level)

	require.Len(t, cfg.Platforms, 4)
	whatsapp := cfg.Platforms["whatsapp"]
	require.True(t, whatsapp.Enabled)
	require.Equal(t, 10*time.Second, whatsapp.Timeout)
	require.Equal(t, 10, whatsapp.RateLimitCalls)
	require.Equal(t, time.Minute, whatsapp.RateLimitPeriod)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := writeConfigFile(t, `
cache:
  enabled: true
  directory: /tmp/numlens-cache
  expire_after: 30m
  max_size_mb: 5
checks:
  max_concurrent: 2
platforms:
  telegram:
    enabled: false
  whatsapp:
    timeout: 3s
    rate_limit_calls: 20
server:
  port: 9090
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/tmp/numlens-cache", cfg.Cache.Directory)
	require.Equal(t, 30*time.Minute, cfg.Cache.ExpireAfter)
	require.Equal(t, 5, cfg.Cache.MaxSizeMB)
	require.Equal(t, 2, cfg.Checks.MaxConcurrent)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Logging.Level)

	require.False(t, cfg.Platforms["telegram"].Enabled)
	require.Equal(t, 3*time.Second, cfg.Platforms["whatsapp"].Timeout)
	require.Equal(t, 20, cfg.Platforms["whatsapp"].RateLimitCalls)

	// Untouched platforms keep their defaults.
	require.True(t, cfg.Platforms["instagram"].Enabled)
	require.Equal(t, 10*time.Second, cfg.Platforms["instagram"].Timeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfigFile(t, "cache: [not a map\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("NUMLENS_SERVER_PORT", "9999")
	t.Setenv("NUMLENS_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Server.Port)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero cache size", func(c *Config) { c.Cache.MaxSizeMB = 0 }, "cache.max_size_mb"},
		{"negative expiry", func(c *Config) { c.Cache.ExpireAfter = -time.Minute }, "cache.expire_after"},
		{"empty cache dir", func(c *Config) { c.Cache.Directory = "" }, "cache.directory"},
		{"zero concurrency", func(c *Config) { c.Checks.MaxConcurrent = 0 }, "checks.max_concurrent"},
		{"out-of-range port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero platform timeout", func(c *Config) {
			p := c.Platforms["whatsapp"]
			p.Timeout = 0
			c.Platforms["whatsapp"] = p
		}, "platforms.whatsapp.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateSkipsDisabledPlatformsAndCache(t *testing.T) {
	cfg := Default()
	cfg.Cache.Enabled = false
	cfg.Cache.MaxSizeMB = 0

	telegram := cfg.Platforms["telegram"]
	telegram.Enabled = false
	telegram.RateLimitCalls = 0
	cfg.Platforms["telegram"] = telegram

	require.NoError(t, cfg.Validate())
}

func TestPlatformForUnknownFallsBack(t *testing.T) {
	cfg := Default()
	p := cfg.PlatformFor("signal")
	require.True(t, p.Enabled)
	require.Equal(t, 10*time.Second, p.Timeout)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
