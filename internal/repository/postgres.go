package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
}

const connectAttempts = 30

// NewPostgresDB opens the pool and waits for the server to accept
// connections, pinging once a second.
func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	attempt := 0
	ping := func() error {
		attempt++
		err := db.PingContext(ctx)
		if err != nil {
			slog.Info("waiting for database", "attempt", attempt)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), connectAttempts-1), ctx)
	if err := backoff.Retry(ping, b); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewPostgresDB: gave up after %d attempts: %w", attempt, err)
	}

	return db, nil
}
