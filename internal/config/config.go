package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// DefaultSecretKey is used when SECRET_KEY is unset. Never rely on it outside development.
const DefaultSecretKey = "defaultSecretKey"

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	SecretKey     string `envconfig:"SECRET_KEY" default:"defaultSecretKey"`
	StoreDriver   string `envconfig:"STORE_DRIVER" default:"memory"`
	RedisURL      string `envconfig:"REDIS_URL"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	BadgerPath    string `envconfig:"BADGER_PATH" default:"./data/badger"`
	PurgeSchedule string `envconfig:"PURGE_SCHEDULE" default:"0 */2 * * *"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"json"`
	GinMode       string `envconfig:"GIN_MODE" default:"release"`
}

// Load reads .env.local, then .env, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL is required for the redis store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	case "badger":
		if c.BadgerPath == "" {
			return errors.New("config: BADGER_PATH is required for the badger store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if _, err := cron.ParseStandard(c.PurgeSchedule); err != nil {
		return fmt.Errorf("config: PURGE_SCHEDULE: %w", err)
	}
	if c.SecretKey == "" {
		return errors.New("config: SECRET_KEY must not be empty")
	}
	return nil
}

func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
