package config

import (
	"errors"
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	AutoMigrate   bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	JWTSecret     string `env:"JWT_SECRET,required,notEmpty"`
	Port          int    `env:"PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv        string `env:"APP_ENV" envDefault:"production"`

	ConflictMaxRetries     int           `env:"CONFLICT_MAX_RETRIES" envDefault:"4"`
	ConflictBackoffInitial time.Duration `env:"CONFLICT_BACKOFF_INITIAL" envDefault:"10ms"`
	ConflictBackoffMax     time.Duration `env:"CONFLICT_BACKOFF_MAX" envDefault:"200ms"`

	RedisURL              string        `env:"REDIS_URL"`
	NotifyQueueKey        string        `env:"NOTIFY_QUEUE_KEY" envDefault:"bank:notifications"`
	NotifyBuffer          int           `env:"NOTIFY_BUFFER" envDefault:"1024"`
	NotifyTimeout         time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"2s"`
	NotifyBreakerFailures uint32        `env:"NOTIFY_BREAKER_FAILURES" envDefault:"5"`
	NotifyBreakerOpen     time.Duration `env:"NOTIFY_BREAKER_OPEN" envDefault:"30s"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.ConflictMaxRetries < 0 {
		return errors.New("CONFLICT_MAX_RETRIES must not be negative")
	}
	if c.NotifyBuffer < 1 {
		return errors.New("NOTIFY_BUFFER must be at least 1")
	}
	return nil
}
