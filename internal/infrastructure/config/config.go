package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Server     ServerConfig
	Mirror     MirrorConfig
	Supervisor SupervisorConfig
	Bridge     BridgeConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds the control API listener.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8765"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// MirrorConfig locates the external tools and the profile catalog.
type MirrorConfig struct {
	ScrcpyPath    string        `envconfig:"SCRCPY_PATH" default:"scrcpy"`
	AdbPath       string        `envconfig:"ADB_PATH" default:"adb"`
	AdbTimeout    time.Duration `envconfig:"ADB_TIMEOUT" default:"5s"`
	ProfilePath   string        `envconfig:"PROFILE_PATH"`
	ProfileWatch  bool          `envconfig:"PROFILE_WATCH" default:"true"`
	DefaultPreset string        `envconfig:"DEFAULT_PRESET" default:"high-quality"`
}

// SupervisorConfig tunes the aspect-ratio control loop.
type SupervisorConfig struct {
	Grace     time.Duration `envconfig:"ASPECT_GRACE" default:"1s"`
	Interval  time.Duration `envconfig:"ASPECT_INTERVAL" default:"500ms"`
	Tolerance float64       `envconfig:"ASPECT_TOLERANCE" default:"0.02"`
}

// BridgeConfig configures the circuit breaker in front of adb.
type BridgeConfig struct {
	BreakerFailures uint32        `envconfig:"BRIDGE_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"BRIDGE_BREAKER_TIMEOUT" default:"10s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values the supervisor or bridge cannot run with.
func (c *Config) Validate() error {
	if c.Supervisor.Interval <= 0 {
		return fmt.Errorf("ASPECT_INTERVAL must be positive, got %s", c.Supervisor.Interval)
	}
	if c.Supervisor.Grace < 0 {
		return fmt.Errorf("ASPECT_GRACE must not be negative, got %s", c.Supervisor.Grace)
	}
	if c.Supervisor.Tolerance <= 0 || c.Supervisor.Tolerance >= 1 {
		return fmt.Errorf("ASPECT_TOLERANCE must be in (0,1), got %g", c.Supervisor.Tolerance)
	}
	if c.Mirror.AdbTimeout <= 0 {
		return fmt.Errorf("ADB_TIMEOUT must be positive, got %s", c.Mirror.AdbTimeout)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8765",
			Host: "127.0.0.1",
		},
		Mirror: MirrorConfig{
			ScrcpyPath:    "scrcpy",
			AdbPath:       "adb",
			AdbTimeout:    5 * time.Second,
			ProfileWatch:  true,
			DefaultPreset: "high-quality",
		},
		Supervisor: SupervisorConfig{
			Grace:     time.Second,
			Interval:  500 * time.Millisecond,
			Tolerance: 0.02,
		},
		Bridge: BridgeConfig{
			BreakerFailures: 5,
			BreakerTimeout:  10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
