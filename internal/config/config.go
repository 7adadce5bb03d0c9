// Package config resolves Logria's on-disk configuration root ($CONFIG,
// spec §6) and the engine-tunable settings layered on top of it
// (poll rate, smart-poll, history persistence, analytics top-K).
// Grounded on the teacher's viper-based search-path/env-prefix pattern,
// narrowed from xcw's command-default sub-configs to Logria's single
// flat settings block plus the parsers/sessions/history root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the engine-tunable settings of spec §6/§9.
type Config struct {
	Level string `mapstructure:"level"`

	PollRate       time.Duration `mapstructure:"-"`
	PollRateMillis float64       `mapstructure:"poll_rate_ms"`
	SmartPoll      bool          `mapstructure:"smart_poll"`
	HistoryEnabled bool          `mapstructure:"history_enabled"`
	AnalyticsTopK  int           `mapstructure:"analytics_top_k"`
	BufferCap      int           `mapstructure:"buffer_cap"`

	// Root is the resolved $CONFIG directory; not itself persisted.
	Root string `mapstructure:"-"`
}

// Default returns a Config with Logria's built-in defaults.
func Default() *Config {
	return &Config{
		Level:          "info",
		PollRateMillis: 10,
		PollRate:       10 * time.Millisecond,
		SmartPoll:      true,
		HistoryEnabled: true,
		AnalyticsTopK:  10,
		BufferCap:      0,
	}
}

// Load resolves $CONFIG (see Root) and layers config.yaml under it plus
// LOGRIA_* environment overrides on top of Default(), grounded on
// internal/config/config.go's viper wiring.
func Load() (*Config, error) {
	cfg := Default()
	cfg.Root = Root()

	v := viper.New()
	v.SetDefault("level", cfg.Level)
	v.SetDefault("poll_rate_ms", cfg.PollRateMillis)
	v.SetDefault("smart_poll", cfg.SmartPoll)
	v.SetDefault("history_enabled", cfg.HistoryEnabled)
	v.SetDefault("analytics_top_k", cfg.AnalyticsTopK)
	v.SetDefault("buffer_cap", cfg.BufferCap)

	v.SetEnvPrefix("LOGRIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(cfg.Root, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.PollRate = time.Duration(cfg.PollRateMillis * float64(time.Millisecond))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Root resolves $CONFIG per spec §6: LOGRIA_CONFIG_DIR overrides it
// entirely; otherwise it defaults to ~/.logria.
func Root() string {
	if dir := os.Getenv("LOGRIA_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".logria")
}

// ParsersDir, SessionsDir, and HistoryPath are the on-disk layout of
// spec §6 rooted at $CONFIG.
func (c *Config) ParsersDir() string  { return filepath.Join(c.Root, "parsers") }
func (c *Config) SessionsDir() string { return filepath.Join(c.Root, "sessions") }
func (c *Config) HistoryPath() string { return filepath.Join(c.Root, "history", "tape") }

// Validate checks config values for basic correctness.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level: %q (expected debug, info, warn, error)", c.Level)
	}
	if c.PollRateMillis <= 0 {
		return fmt.Errorf("poll_rate_ms must be > 0")
	}
	if c.AnalyticsTopK <= 0 {
		return fmt.Errorf("analytics_top_k must be > 0")
	}
	if c.BufferCap < 0 {
		return fmt.Errorf("buffer_cap must be >= 0")
	}
	return nil
}
