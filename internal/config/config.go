package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

// minReleaseSecretLen is the shortest JWT secret accepted in release mode.
const minReleaseSecretLen = 32

type Config struct {
	Mode        Mode     `envconfig:"MODE" default:"debug"`
	ServerPort  string   `envconfig:"SERVER_PORT" default:"8080"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"unicollab"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"unicollab"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL"`

	JWTSecret    string        `envconfig:"JWT_SECRET"`
	JWTExpiresIn time.Duration `envconfig:"JWT_EXPIRES_IN" default:"720h"`

	Log       Log
	SentryDSN string `envconfig:"SENTRY_DSN"`
}

// Log fields are read with the LOG_ prefix, e.g. LOG_FILE_PATH.
type Log struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	FilePath   string `envconfig:"FILE_PATH"`
	MaxSize    int    `envconfig:"MAX_SIZE" default:"100"` // megabytes
	MaxBackups int    `envconfig:"MAX_BACKUPS" default:"5"`
	MaxAge     int    `envconfig:"MAX_AGE" default:"30"` // days
	Compress   bool   `envconfig:"COMPRESS" default:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Mode != ModeDebug && c.Mode != ModeRelease {
		return fmt.Errorf("MODE must be %q or %q, got %q", ModeDebug, ModeRelease, c.Mode)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Mode == ModeRelease && len(c.JWTSecret) < minReleaseSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes in release mode", minReleaseSecretLen)
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a URL built from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}
