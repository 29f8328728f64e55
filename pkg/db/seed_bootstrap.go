package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/agent-delegation/pkg/agents"
	"github.com/morezero/agent-delegation/pkg/bootstrap"
)

const seedBootstrapLogPrefix = "db:seed_bootstrap"

// SeedBootstrap loads the bootstrap config from the given path and upserts its agents, together
// with the tools the catalogue knows for each of them. Idempotent.
func SeedBootstrap(ctx context.Context, pool *pgxpool.Pool, bootstrapFilePath string, catalog agents.Catalog) error {
	slog.Info(fmt.Sprintf("%s - seeding from %q", seedBootstrapLogPrefix, bootstrapFilePath))

	cfg, err := bootstrap.LoadBootstrapConfig(bootstrapFilePath)
	if err != nil {
		return fmt.Errorf("%s - load bootstrap config: %w", seedBootstrapLogPrefix, err)
	}
	return SeedBootstrapConfig(ctx, pool, cfg, catalog)
}

// SeedBootstrapConfig upserts the agents of an already loaded bootstrap config.
func SeedBootstrapConfig(ctx context.Context, pool *pgxpool.Pool, cfg *bootstrap.BootstrapConfig, catalog agents.Catalog) error {
	if cfg == nil || len(cfg.Agents) == 0 {
		slog.Info(fmt.Sprintf("%s - no agents to seed", seedBootstrapLogPrefix))
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin tx: %w", seedBootstrapLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	for _, e := range cfg.Entries() {
		if _, err := upsertAgent(ctx, tx, UpsertAgentParams{
			AgentID:     e.AgentID,
			Endpoint:    e.Endpoint,
			Transport:   e.Transport,
			Subject:     e.Subject,
			Version:     e.Version,
			Description: e.Description,
		}); err != nil {
			return fmt.Errorf("%s - %w", seedBootstrapLogPrefix, err)
		}

		ts, ok := catalog.Lookup(e.AgentID)
		if !ok {
			continue
		}
		if err := syncTools(ctx, tx, ts); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit: %w", seedBootstrapLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - seeded %d agents", seedBootstrapLogPrefix, len(cfg.Agents)))
	return nil
}

// syncTools replaces the recorded tools of one agent with the catalogue's.
func syncTools(ctx context.Context, tx pgx.Tx, ts *agents.Toolset) error {
	if _, err := tx.Exec(ctx, `DELETE FROM agent_tools WHERE agent_id = $1`, ts.Agent); err != nil {
		return fmt.Errorf("%s - clear tools %s: %w", seedBootstrapLogPrefix, ts.Agent, err)
	}
	for _, tool := range ts.Tools() {
		required := tool.Required
		if required == nil {
			required = []string{}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO agent_tools (agent_id, name, description, required)
			 VALUES ($1, $2, $3, $4)`,
			ts.Agent, tool.Name, nullable(tool.Description), required)
		if err != nil {
			return fmt.Errorf("%s - insert tool %s.%s: %w", seedBootstrapLogPrefix, ts.Agent, tool.Name, err)
		}
	}
	return nil
}
