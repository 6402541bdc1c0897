// Package config loads server configuration from an optional .env file, an
// optional clawstreetbets.yaml, and the environment, in that order of
// precedence (environment wins).
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Port        string `yaml:"port"`
	BaseURL     string `yaml:"base_url"`
	DatabaseURL string `yaml:"database_url"`
	DatabaseDir string `yaml:"database_dir"`

	JWTSecret         string `yaml:"jwt_secret"`
	AdminPasswordHash string `yaml:"admin_password_hash"`

	// Platform key used for cross-posting new markets to Moltbook.
	// Empty disables cross-posting.
	MoltbookAPIKey string `yaml:"moltbook_api_key"`

	RateLimit RateLimit `yaml:"rate_limit"`
}

// RateLimit bounds write requests per client IP.
type RateLimit struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

// Load reads configuration. A missing .env or yaml file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        "8080",
		BaseURL:     "https://clawstreetbets.com",
		DatabaseDir: ".",
		RateLimit:   RateLimit{PerMinute: 30, Burst: 10},
	}

	if raw, err := os.ReadFile("clawstreetbets.yaml"); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing clawstreetbets.yaml: %w", err)
		}
	}

	overlayEnv(&cfg.Port, "PORT")
	overlayEnv(&cfg.BaseURL, "CSB_BASE_URL")
	overlayEnv(&cfg.DatabaseURL, "DATABASE_URL")
	overlayEnv(&cfg.DatabaseDir, "DATABASE_DIR")
	overlayEnv(&cfg.JWTSecret, "CSB_JWT_SECRET")
	overlayEnv(&cfg.AdminPasswordHash, "CSB_ADMIN_PASSWORD_HASH")
	overlayEnv(&cfg.MoltbookAPIKey, "CSB_MOLTBOOK_API_KEY")

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("CSB_JWT_SECRET is required")
	}
	if cfg.RateLimit.PerMinute <= 0 {
		cfg.RateLimit.PerMinute = 30
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 10
	}
	return cfg, nil
}

func overlayEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
