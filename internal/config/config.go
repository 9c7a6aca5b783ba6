// Package config loads process configuration from an optional YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration. Flags override it in main.
type Config struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"`
	DBPath  string `yaml:"database_path"`
	LogPath string `yaml:"log_path"`

	Backend BackendConfig `yaml:"backend"`
	Notify  NotifyConfig  `yaml:"notify"`

	// SessionTTL is how long an idle browser session is kept in memory.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// BackendConfig selects and configures the hosted service.
// An empty URL selects local mode.
type BackendConfig struct {
	URL         string `yaml:"url"`
	AnonKey     string `yaml:"anon_key"`
	JWTSecret   string `yaml:"jwt_secret"`
	ImageBucket string `yaml:"image_bucket"`
}

// NotifyConfig tunes the borrow notification dispatcher.
type NotifyConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
	Queue     int     `yaml:"queue"`
}

// Hosted reports whether a hosted backend is configured.
func (c *Config) Hosted() bool {
	return c.Backend.URL != ""
}

// Load returns defaults, overlaid by the YAML file at path (if any),
// overlaid by environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:    ":8080",
		BaseURL: "http://localhost:8080",
		DBPath:  "campusplug.sqlite3",
		Backend: BackendConfig{
			ImageBucket: "item-images",
		},
		Notify: NotifyConfig{
			PerSecond: 2,
			Burst:     5,
			Queue:     64,
		},
		SessionTTL: 12 * time.Hour,
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}

	cfg.Backend.URL = getEnv("SUPABASE_URL", cfg.Backend.URL)
	cfg.Backend.AnonKey = getEnv("SUPABASE_ANON_KEY", cfg.Backend.AnonKey)
	cfg.Backend.JWTSecret = getEnv("SUPABASE_JWT_SECRET", cfg.Backend.JWTSecret)
	cfg.Addr = getEnv("CAMPUSPLUG_ADDR", cfg.Addr)
	cfg.BaseURL = getEnv("CAMPUSPLUG_BASE_URL", cfg.BaseURL)
	cfg.DBPath = getEnv("CAMPUSPLUG_DB", cfg.DBPath)

	if v := os.Getenv("CAMPUSPLUG_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing CAMPUSPLUG_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("CAMPUSPLUG_NOTIFY_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing CAMPUSPLUG_NOTIFY_RATE: %w", err)
		}
		cfg.Notify.PerSecond = r
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Hosted() && c.Backend.AnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY is required when SUPABASE_URL is set")
	}
	if !c.Hosted() && c.DBPath == "" {
		return fmt.Errorf("database path is required in local mode")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
