package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearAgents truncates the agent registry tables. Schema and applied migrations are kept.
func ClearAgents(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing agent tables", clearLogPrefix))

	if _, err := pool.Exec(ctx, `TRUNCATE TABLE agent_tools, agents CASCADE`); err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Agent registry cleared", clearLogPrefix))
	return nil
}
