package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	ServerPort string `yaml:"server_port"`
	ServerHost string `yaml:"server_host"`

	// Database
	DatabaseURL  string `yaml:"database_url"`
	DatabaseType string `yaml:"database_type"` // "postgres" or "sqlite"

	// JWT (shared secret with the hosted auth provider)
	JWTSecret     string `yaml:"jwt_secret"`
	JWTExpiration int    `yaml:"jwt_expiration"` // hours

	// Storage
	UploadDir string `yaml:"upload_dir"`

	// Team sync
	SyncConcurrency int `yaml:"sync_concurrency"` // max concurrent per-row writes in one fan-out

	// App
	AppURL           string `yaml:"app_url"`
	AppName          string `yaml:"app_name"`
	CoordinatorEmail string `yaml:"coordinator_email"`
	LogLevel         string `yaml:"log_level"`
}

// Default returns the built-in defaults, before any file or environment overrides.
func Default() *Config {
	return &Config{
		ServerPort: "8080",
		ServerHost: "0.0.0.0",

		DatabaseURL:  "kp-portal.db",
		DatabaseType: "sqlite",

		JWTSecret:     "your-super-secret-key-change-in-production",
		JWTExpiration: 72,

		UploadDir: "./uploads",

		SyncConcurrency: 8,

		AppURL:           "http://localhost:8080",
		AppName:          "SIKP",
		CoordinatorEmail: "koordinator-kp@kampus.ac.id",
		LogLevel:         "info",
	}
}

// Load builds the configuration from defaults, then the optional YAML file at path,
// then environment variables. Environment always wins.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	// Server
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.ServerHost = getEnv("SERVER_HOST", cfg.ServerHost)

	// Database
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DatabaseType = getEnv("DATABASE_TYPE", cfg.DatabaseType)

	// JWT
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTExpiration = getEnvInt("JWT_EXPIRATION", cfg.JWTExpiration)

	// Storage
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)

	// Team sync
	cfg.SyncConcurrency = getEnvInt("SYNC_CONCURRENCY", cfg.SyncConcurrency)

	// App
	cfg.AppURL = getEnv("APP_URL", cfg.AppURL)
	cfg.AppName = getEnv("APP_NAME", cfg.AppName)
	cfg.CoordinatorEmail = getEnv("COORDINATOR_EMAIL", cfg.CoordinatorEmail)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.DatabaseType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q", c.DatabaseType)
	}
	if c.DatabaseURL == "" {
		return errors.New("database url is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.SyncConcurrency <= 0 {
		return fmt.Errorf("sync concurrency must be positive, got %d", c.SyncConcurrency)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
