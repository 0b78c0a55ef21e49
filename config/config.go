package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the service settings read from the environment
type Config struct {
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer   string `env:"JWT_ISSUER,required,notEmpty"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL    string `env:"REDIS_URL,required,notEmpty"`

	GitHubClientID     string        `env:"GITHUB_OAUTH_CLIENT_ID"`
	GitHubClientSecret string        `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	GitHubTimeout      time.Duration `env:"GITHUB_TIMEOUT" envDefault:"10s"`

	BaseURL           string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	Port              string `env:"PORT" envDefault:"3000"`
	Environment       string `env:"APP_ENV" envDefault:"production"`
	AppName           string `env:"APP_NAME" envDefault:"ZakoBox/ZakoPako"`
	MessageEncoding   string `env:"MESSAGE_ENCODING" envDefault:"text"`
	SessionRevocation bool   `env:"SESSION_REVOCATION" envDefault:"false"`
	AutoMigrate       bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

// Load reads an optional .env file, then the environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.MessageEncoding {
	case "text", "hex":
	default:
		return Config{}, fmt.Errorf("MESSAGE_ENCODING must be text or hex, got %q", cfg.MessageEncoding)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// Development reports whether APP_ENV selects development mode
func (c Config) Development() bool {
	return c.Environment == "development"
}

// GitHubRedirectURL is the callback registered with the GitHub OAuth app
func (c Config) GitHubRedirectURL() string {
	return c.BaseURL + "/api/v1/github-connections/authorize"
}
