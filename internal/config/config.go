package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// FileEnv names the environment variable pointing at an optional YAML
// configuration file. Environment variables override file values.
const FileEnv = "FETCHVIEW_CONFIG"

// Config holds all application configuration. The 10 MiB transfer cap is
// deliberately absent: it is a process-wide constant, not configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Fetch     FetchConfig     `yaml:"fetch"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port string `yaml:"port" envconfig:"PORT"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `yaml:"development" envconfig:"LOG_DEV"`
}

// RateLimitConfig holds per-IP rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" envconfig:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond int  `yaml:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int  `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins" envconfig:"CORS_ALLOW_ORIGINS"`
}

// FetchConfig holds outbound fetch configuration. Timeout zero means no
// client timeout: a hung upstream hangs the request, which mirrors the
// original behavior and is a known limitation.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" envconfig:"FETCH_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" envconfig:"FETCH_USER_AGENT"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 100,
			Burst:             200,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Fetch: FetchConfig{
			Timeout:   0,
			UserAgent: "fetchview/1.0",
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file named
// by FETCHVIEW_CONFIG, then environment variables on top.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration, falling back to defaults on error.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}
