package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	Host           string
	Port           int
	SecretKey      string
	Env            string
	DatabaseDriver string
	DatabaseURL    string
	SessionTTL     time.Duration
	LogLevel       zerolog.Level
	AllowedOrigins []string

	// GeneratedSecret is set when no SECRET_KEY was configured and a
	// throwaway one was created for this process.
	GeneratedSecret bool
}

// Addr is the address the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first but never overrides
// variables already present in the environment. CONFIG_FILE may name an
// additional file (yaml, toml, json, ...) understood by viper.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 5000)
	v.SetDefault("secret_key", "")
	v.SetDefault("app_env", "development")
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_url", "./mamakara.db")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allowed_origins", "")
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	port, err := parsePort(v.GetString("port"))
	if err != nil {
		return nil, err
	}

	ttl, err := time.ParseDuration(v.GetString("session_ttl"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL %q", v.GetString("session_ttl"))
	}

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("log_level")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	driver := strings.ToLower(v.GetString("database_driver"))
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	cfg := &Config{
		Host:           v.GetString("host"),
		Port:           port,
		SecretKey:      v.GetString("secret_key"),
		Env:            strings.ToLower(v.GetString("app_env")),
		DatabaseDriver: driver,
		DatabaseURL:    v.GetString("database_url"),
		SessionTTL:     ttl,
		LogLevel:       level,
		AllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SECRET_KEY must be set in production")
		}
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SecretKey = secret
		cfg.GeneratedSecret = true
	}

	return cfg, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid PORT %q", s)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("PORT out of range: %d", port)
	}
	return port, nil
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

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
