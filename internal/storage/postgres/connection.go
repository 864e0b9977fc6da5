// Package postgres wraps database/sql over pgx/v5's stdlib driver with
// retry-with-backoff connection setup and migration running.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrInvalidDSN is returned when Config.DSN is empty.
var ErrInvalidDSN = errors.New("postgres: dsn is required")

// Config holds pool sizing and retry behavior for the connection.
type Config struct {
	DSN                 string
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetime     time.Duration
	ConnMaxIdleTime     time.Duration
	RetryAttempts       int
	RetryDelay          time.Duration
}

// DefaultConfig returns production-sane pool defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
	}
}

func (c *Config) validate() error {
	if c.DSN == "" {
		return ErrInvalidDSN
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = time.Minute
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return nil
}

// DB wraps sql.DB with the config it was constructed from.
type DB struct {
	*sql.DB
	config *Config
}

// Connect opens a pool, retrying with exponential backoff on failure.
func Connect(ctx context.Context, config *Config) (*DB, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}

	var db *sql.DB
	var err error

	delay := config.RetryDelay
	for attempt := 0; attempt <= config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}

		db, err = sql.Open("pgx", config.DSN)
		if err != nil {
			if attempt == config.RetryAttempts {
				return nil, fmt.Errorf("open database after %d attempts: %w", attempt+1, err)
			}
			continue
		}

		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxIdleConns)
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
		db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

		if err = db.PingContext(ctx); err != nil {
			db.Close()
			if attempt == config.RetryAttempts {
				return nil, fmt.Errorf("ping database after %d attempts: %w", attempt+1, err)
			}
			continue
		}

		return &DB{DB: db, config: config}, nil
	}

	return nil, fmt.Errorf("connect to database: %w", err)
}
