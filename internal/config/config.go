// Package config loads lawkit configuration from TOML or YAML files
// with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

// Config is the full lawkit configuration.
type Config struct {
	Cache CacheConfig `toml:"cache" yaml:"cache"`
	Watch WatchConfig `toml:"watch" yaml:"watch"`
	Rules RulesConfig `toml:"rules" yaml:"rules"`
	Log   LogConfig   `toml:"log" yaml:"log"`
}

// CacheConfig configures the document cache.
type CacheConfig struct {
	MaxSize   int `toml:"max_size" yaml:"max_size"`
	MaxAgeSec int `toml:"max_age_seconds" yaml:"max_age_seconds"` // 0 = no expiry
}

// MaxAge returns the configured max age as a duration.
func (c CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSec) * time.Second
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms" yaml:"debounce_ms"`
}

// Debounce returns the configured debounce as a duration.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// RulesConfig configures the Lua lint rules.
type RulesConfig struct {
	Dir string `toml:"dir" yaml:"dir"` // empty disables lint rules
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Pretty bool   `toml:"pretty" yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{MaxSize: 64},
		Watch: WatchConfig{DebounceMS: 200},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads configuration from path, chosen by extension (.toml,
// .yaml, .yml), applies it over the defaults, and then applies
// environment overrides. A missing file is not an error: defaults plus
// environment are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else {
			if err := unmarshal(path, data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Cache.MaxSize <= 0 {
		cfg.Cache.MaxSize = Default().Cache.MaxSize
	}
	return cfg, nil
}

// unmarshal decodes data into cfg based on the file extension.
func unmarshal(path string, data []byte, cfg *Config) error {
	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

// applyEnv overrides configuration from LAWKIT_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("LAWKIT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LAWKIT_RULES_DIR"); v != "" {
		cfg.Rules.Dir = v
	}
	if v := os.Getenv("LAWKIT_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.MaxSize = n
		}
	}
}
