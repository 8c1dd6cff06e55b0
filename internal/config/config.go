package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultLoginMaxAttempts        = 5
	defaultLoginAttemptsWindowMins = 15
)

// AdminConfig is one entry of the static admin allow-list. Admins are
// added or removed here only, there is no runtime admin management.
type AdminConfig struct {
	Email        string `toml:"email"`
	PasswordHash string `toml:"password_hash"`
	Name         string `toml:"name"`
}

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// cloudinary image hosting
	CloudinaryCloudName    string `toml:"cloudinary_cloud_name"`
	CloudinaryUploadPreset string `toml:"cloudinary_upload_preset"`

	// login brute force protection
	LoginMaxAttempts           int `toml:"login_max_attempts"`
	LoginAttemptsWindowMinutes int `toml:"login_attempts_window_minutes"`

	Admins []AdminConfig `toml:"admins"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var cfgToml Toml
	if _, err := toml.DecodeFile(path, &cfgToml); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := cfgToml.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s missing", env)
	}

	switch strings.ToLower(env) {
	case "prod", "production":
		cfg.Environment = "production"
	default:
		cfg.Environment = "development"
	}

	if cfg.LoginMaxAttempts <= 0 {
		cfg.LoginMaxAttempts = defaultLoginMaxAttempts
	}
	if cfg.LoginAttemptsWindowMinutes <= 0 {
		cfg.LoginAttemptsWindowMinutes = defaultLoginAttemptsWindowMins
	}

	return cfg, nil
}
