// Package config loads server settings from a .env file, an optional YAML
// file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"taskpilot/pkg/oracle"
)

const (
	DefaultPort            = "4000"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the resolved server configuration.
type Config struct {
	Port            string
	DatabaseURL     string // empty: in-memory store
	JWTSecret       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Oracle          oracle.Config
}

// file mirrors the YAML layout.
type file struct {
	Port            string   `yaml:"port"`
	DatabaseURL     string   `yaml:"database_url"`
	JWTSecret       string   `yaml:"jwt_secret"`
	AllowedOrigins  []string `yaml:"cors_allowed_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	Oracle          struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"oracle"`
}

// Load resolves the server configuration. A missing .env file is fine; a
// missing JWT secret is not.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// Read resolves the configuration without requiring the JWT secret. Tools
// that never serve HTTP use it.
func Read() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var f file
	if path := os.Getenv("TASKPILOT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := &Config{
		Port:           pick(os.Getenv("PORT"), f.Port, DefaultPort),
		DatabaseURL:    pick(os.Getenv("DATABASE_URL"), f.DatabaseURL),
		JWTSecret:      pick(os.Getenv("JWT_SECRET"), f.JWTSecret),
		AllowedOrigins: f.AllowedOrigins,
		Oracle: oracle.Config{
			APIKey:  pick(os.Getenv("GEMINI_API_KEY"), f.Oracle.APIKey),
			Model:   pick(os.Getenv("GEMINI_MODEL"), f.Oracle.Model, oracle.DefaultModel),
			BaseURL: pick(os.Getenv("GEMINI_BASE_URL"), f.Oracle.BaseURL),
		},
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	var err error
	if cfg.ShutdownTimeout, err = duration("SHUTDOWN_TIMEOUT", pick(os.Getenv("SHUTDOWN_TIMEOUT"), f.ShutdownTimeout), DefaultShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.Oracle.Timeout, err = duration("ORACLE_TIMEOUT", pick(os.Getenv("ORACLE_TIMEOUT"), f.Oracle.Timeout), oracle.DefaultTimeout); err != nil {
		return nil, err
	}
	return cfg, nil
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func duration(name, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", name, d)
	}
	return d, nil
}
