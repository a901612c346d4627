// Package config provides centralized configuration management for NumLens.
// Settings are layered: built-in defaults, then an optional config file, then
// NUMLENS_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load builds the configuration. configFile may be empty, in which case only
// defaults and environment variables apply. A missing explicit file is an
// error; a malformed file is too.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NUMLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	decode := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decode); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Cache.Enabled {
		if c.Cache.MaxSizeMB <= 0 {
			return fmt.Errorf("cache.max_size_mb must be positive, got %d", c.Cache.MaxSizeMB)
		}
		if c.Cache.ExpireAfter <= 0 {
			return fmt.Errorf("cache.expire_after must be positive, got %s", c.Cache.ExpireAfter)
		}
		if c.Cache.Directory == "" {
			return fmt.Errorf("cache.directory must be set when the cache is enabled")
		}
	}
	if c.Checks.MaxConcurrent <= 0 {
		return fmt.Errorf("checks.max_concurrent must be positive, got %d", c.Checks.MaxConcurrent)
	}
	for name, p := range c.Platforms {
		if !p.Enabled {
			continue
		}
		if p.Timeout <= 0 {
			return fmt.Errorf("platforms.%s.timeout must be positive, got %s", name, p.Timeout)
		}
		if p.RateLimitCalls <= 0 {
			return fmt.Errorf("platforms.%s.rate_limit_calls must be positive, got %d", name, p.RateLimitCalls)
		}
		if p.RateLimitPeriod <= 0 {
			return fmt.Errorf("platforms.%s.rate_limit_period must be positive, got %s", name, p.RateLimitPeriod)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [0, 65535], got %d", c.Server.Port)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("cache.enabled", def.Cache.Enabled)
	v.SetDefault("cache.directory", def.Cache.Directory)
	v.SetDefault("cache.expire_after", def.Cache.ExpireAfter)
	v.SetDefault("cache.max_size_mb", def.Cache.MaxSizeMB)

	for name, p := range def.Platforms {
		key := "platforms." + name
		v.SetDefault(key+".enabled", p.Enabled)
		v.SetDefault(key+".timeout", p.Timeout)
		v.SetDefault(key+".retry_attempts", p.RetryAttempts)
		v.SetDefault(key+".rate_limit_calls", p.RateLimitCalls)
		v.SetDefault(key+".rate_limit_period", p.RateLimitPeriod)
	}

	v.SetDefault("checks.max_concurrent", def.Checks.MaxConcurrent)

	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", def.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", def.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)

	v.SetDefault("logging.level", def.Logging.Level)
}
