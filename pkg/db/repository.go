package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/agent-delegation/pkg/registry"
)

const repoLogPrefix = "db:repository"

// Repository provides database access for the agent registry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const agentColumns = `id, agent_id, endpoint, transport, subject, version, description,
	status, revision, created, modified`

// GetAgent finds an agent by id. Returns nil, nil when no row exists.
func (r *Repository) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	slog.Debug(fmt.Sprintf("%s - GetAgent agent=%s", repoLogPrefix, agentID))

	row := r.pool.QueryRow(ctx,
		`SELECT `+agentColumns+`
		 FROM agents
		 WHERE agent_id = $1
		 LIMIT 1`, agentID)

	a, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetAgent failed: %w", repoLogPrefix, err)
	}
	return a, nil
}

// ListAgents returns agents ordered by id. Disabled agents are only included when asked.
func (r *Repository) ListAgents(ctx context.Context, includeDisabled bool) ([]Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	args := []interface{}{}
	if !includeDisabled {
		query += ` WHERE status = $1`
		args = append(args, AgentStatusActive)
	}
	query += ` ORDER BY agent_id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s - ListAgents failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s - ListAgents scan failed: %w", repoLogPrefix, err)
		}
		agents = append(agents, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - ListAgents rows: %w", repoLogPrefix, err)
	}
	return agents, nil
}

// UpsertAgentParams holds parameters for UpsertAgent.
type UpsertAgentParams struct {
	AgentID     string
	Endpoint    string
	Transport   registry.Transport
	Subject     string
	Version     string
	Description string
}

// UpsertAgent creates or updates an agent and re-activates it. The revision is bumped on update.
func (r *Repository) UpsertAgent(ctx context.Context, params UpsertAgentParams) (*Agent, error) {
	return upsertAgent(ctx, r.pool, params)
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func upsertAgent(ctx context.Context, q rowQuerier, params UpsertAgentParams) (*Agent, error) {
	slog.Info(fmt.Sprintf("%s - UpsertAgent agent=%s transport=%s", repoLogPrefix, params.AgentID, params.Transport))

	transport := params.Transport
	if transport == "" {
		transport = registry.TransportHTTP
	}

	row := q.QueryRow(ctx,
		`INSERT INTO agents (agent_id, endpoint, transport, subject, version, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (agent_id) DO UPDATE SET
		   endpoint = EXCLUDED.endpoint,
		   transport = EXCLUDED.transport,
		   subject = EXCLUDED.subject,
		   version = EXCLUDED.version,
		   description = COALESCE(EXCLUDED.description, agents.description),
		   status = 'active',
		   revision = agents.revision + 1,
		   modified = NOW()
		 RETURNING `+agentColumns,
		params.AgentID, nullable(params.Endpoint), string(transport), nullable(params.Subject),
		nullable(params.Version), nullable(params.Description))

	a, err := scanAgent(row)
	if err != nil {
		return nil, fmt.Errorf("%s - UpsertAgent %s failed: %w", repoLogPrefix, params.AgentID, err)
	}
	return a, nil
}

// SetAgentStatus marks an agent active or disabled. Returns false when no row matched.
func (r *Repository) SetAgentStatus(ctx context.Context, agentID, status string) (bool, error) {
	if status != AgentStatusActive && status != AgentStatusDisabled {
		return false, fmt.Errorf("%s - invalid status %q", repoLogPrefix, status)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE agents SET status = $2, revision = revision + 1, modified = NOW() WHERE agent_id = $1`,
		agentID, status)
	if err != nil {
		return false, fmt.Errorf("%s - SetAgentStatus failed: %w", repoLogPrefix, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAgent removes an agent and its tools. Returns false when no row matched.
func (r *Repository) DeleteAgent(ctx context.Context, agentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agents WHERE agent_id = $1`, agentID)
	if err != nil {
		return false, fmt.Errorf("%s - DeleteAgent failed: %w", repoLogPrefix, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListAgentTools returns the tools recorded for an agent, ordered by name.
func (r *Repository) ListAgentTools(ctx context.Context, agentID string) ([]AgentTool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT agent_id, name, description, required, modified
		 FROM agent_tools
		 WHERE agent_id = $1
		 ORDER BY name ASC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("%s - ListAgentTools failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var tools []AgentTool
	for rows.Next() {
		var t AgentTool
		if err := rows.Scan(&t.AgentID, &t.Name, &t.Description, &t.Required, &t.Modified); err != nil {
			return nil, fmt.Errorf("%s - ListAgentTools scan failed: %w", repoLogPrefix, err)
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}

// LoadRegistry builds an immutable registry from the active agents.
func (r *Repository) LoadRegistry(ctx context.Context) (*registry.Registry, error) {
	agents, err := r.ListAgents(ctx, false)
	if err != nil {
		return nil, err
	}
	entries := make([]registry.Entry, 0, len(agents))
	for i := range agents {
		entries = append(entries, agents[i].Entry())
	}
	reg, err := registry.NewRegistry(entries...)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid agent rows: %w", repoLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d agents from database", repoLogPrefix, reg.Len()))
	return reg, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanAgent(row pgx.Row) (*Agent, error) {
	var a Agent
	err := row.Scan(
		&a.ID, &a.AgentID, &a.Endpoint, &a.Transport, &a.Subject, &a.Version, &a.Description,
		&a.Status, &a.Revision, &a.Created, &a.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
