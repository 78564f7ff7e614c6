package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port               string        `env:"PORT" envDefault:"4000"`
	DatabaseURL        string        `env:"DATABASE_URL"`
	JWTSecret          string        `env:"JWT_SECRET"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
	CorsAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	Admin              AdminConfig   `envPrefix:"ADMIN_"`
}

// AdminConfig seeds the first admin account. Leave Email empty to skip.
type AdminConfig struct {
	Email       string `env:"EMAIL"`
	Password    string `env:"PASSWORD"`
	DisplayName string `env:"DISPLAY_NAME"`
}

// Load reads a .env file if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return parse()
}

func parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Port = strings.TrimSpace(cfg.Port)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.CorsAllowedOrigins = cleanList(cfg.CorsAllowedOrigins)

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.TokenTTL < 0 {
		return Config{}, errors.New("TOKEN_TTL must not be negative")
	}
	if cfg.Admin.Email != "" && (cfg.Admin.Password == "" || cfg.Admin.DisplayName == "") {
		return Config{}, errors.New("ADMIN_PASSWORD and ADMIN_DISPLAY_NAME are required with ADMIN_EMAIL")
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		item := strings.TrimSpace(v)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
