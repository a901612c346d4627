package config

import "time"

// Config is the complete application configuration. It is loaded once and
// passed explicitly into the components that need it; there is no implicit
// process-wide state.
type Config struct {
	Cache     CacheConfig               `mapstructure:"cache" yaml:"cache"`
	Platforms map[string]PlatformConfig `mapstructure:"platforms" yaml:"platforms"`
	Checks    ChecksConfig              `mapstructure:"checks" yaml:"checks"`
	Server    ServerConfig              `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig             `mapstructure:"logging" yaml:"logging"`
}

// CacheConfig controls the persistent result cache.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Directory   string        `mapstructure:"directory" yaml:"directory"`
	ExpireAfter time.Duration `mapstructure:"expire_after" yaml:"expire_after"`
	MaxSizeMB   int           `mapstructure:"max_size_mb" yaml:"max_size_mb"`
}

// PlatformConfig controls one probe adapter.
type PlatformConfig struct {
	Enabled         bool              `mapstructure:"enabled" yaml:"enabled"`
	Timeout         time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	RetryAttempts   int               `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RateLimitCalls  int               `mapstructure:"rate_limit_calls" yaml:"rate_limit_calls"`
	RateLimitPeriod time.Duration     `mapstructure:"rate_limit_period" yaml:"rate_limit_period"`
	Headers         map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
}

// ChecksConfig controls the orchestrator.
type ChecksConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent" yaml:"max_concurrent"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig contains the logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the built-in configuration. The per-platform rate limits
// and timeouts are conservative by intent.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled:     true,
			Directory:   ".cache",
			ExpireAfter: time.Hour,
			MaxSizeMB:   100,
		},
		Platforms: map[string]PlatformConfig{
			"whatsapp": {
				Enabled:         true,
				Timeout:         10 * time.Second,
				RetryAttempts:   3,
				RateLimitCalls:  10,
				RateLimitPeriod: time.Minute,
			},
			"telegram": {
				Enabled:         true,
				Timeout:         15 * time.Second,
				RetryAttempts:   3,
				RateLimitCalls:  5,
				RateLimitPeriod: time.Minute,
			},
			"instagram": {
				Enabled:         true,
				Timeout:         10 * time.Second,
				RetryAttempts:   2,
				RateLimitCalls:  5,
				RateLimitPeriod: time.Minute,
			},
			"snapchat": {
				Enabled:         true,
				Timeout:         15 * time.Second,
				RetryAttempts:   1,
				RateLimitCalls:  3,
				RateLimitPeriod: time.Minute,
			},
		},
		Checks: ChecksConfig{MaxConcurrent: 4},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// PlatformFor returns the configuration for a platform, falling back to a
// neutral default for unknown platforms.
func (c *Config) PlatformFor(platform string) PlatformConfig {
	if cfg, ok := c.Platforms[platform]; ok {
		return cfg
	}
	return PlatformConfig{
		Enabled:         true,
		Timeout:         10 * time.Second,
		RetryAttempts:   3,
		RateLimitCalls:  10,
		RateLimitPeriod: time.Minute,
	}
}
