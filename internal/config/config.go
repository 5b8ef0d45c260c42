package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings. Values come from an optional YAML file
// overridden by environment variables.
type Config struct {
	HTTPAddr  string        `yaml:"http_addr"`
	MySQLDSN  string        `yaml:"mysql_dsn"`
	RedisAddr string        `yaml:"redis_addr"`
	JWTSecret string        `yaml:"jwt_secret"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`
	LogLevel  string        `yaml:"log_level"`

	// Dev runs the server against an in-memory store with seeded sample
	// data, no MySQL or Redis required.
	Dev bool `yaml:"dev"`
}

func defaults() Config {
	return Config{
		HTTPAddr:  ":8080",
		MySQLDSN:  "root:root@tcp(localhost:3306)/stockroom?parseTime=true",
		JWTExpiry: 24 * time.Hour,
		LogLevel:  "info",
	}
}

// Load reads configuration: defaults, then the YAML file at path (if path
// is non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQLDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("JWT_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWTExpiry = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DEV_MODE"); v == "1" || v == "true" {
		cfg.Dev = true
	}
}

func (c *Config) validate() error {
	if c.Dev {
		// Dev mode mints tokens with a throwaway secret when none is set.
		if c.JWTSecret == "" {
			c.JWTSecret = "dev-only-secret"
		}
		return nil
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 10 {
		return errors.New("config: JWT_SECRET must be at least 10 characters")
	}
	if c.MySQLDSN == "" {
		return errors.New("config: MYSQL_DSN is required")
	}
	return nil
}
