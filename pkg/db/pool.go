// Package db stores the agent registry in Postgres via pgx.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// Pool sizing. The registry is read once at startup and the CLI runs one statement at a time.
const (
	poolMaxConns          = 5
	poolMinConns          = 1
	poolHealthCheckPeriod = 30 * time.Second
	applicationName       = "agent-delegation"
)

// NewPool creates a pgx connection pool for the agent registry and verifies it with a ping.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established (max %d conns)", logPrefix, config.MaxConns))
	return pool, nil
}

// poolConfig parses databaseURL and applies the registry's pool sizing. An application_name
// given in the URL is kept.
func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	config.MaxConns = poolMaxConns
	config.MinConns = poolMinConns
	config.HealthCheckPeriod = poolHealthCheckPeriod
	if config.ConnConfig.RuntimeParams == nil {
		config.ConnConfig.RuntimeParams = map[string]string{}
	}
	if config.ConnConfig.RuntimeParams["application_name"] == "" {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return config, nil
}
