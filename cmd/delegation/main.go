// Package main is the entrypoint for the agent delegation coordinator and its workers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/morezero/agent-delegation/internal/config"
	"github.com/morezero/agent-delegation/internal/server"
	"github.com/morezero/agent-delegation/pkg/agents"
	"github.com/morezero/agent-delegation/pkg/commsutil"
	"github.com/morezero/agent-delegation/pkg/db"
	"github.com/morezero/agent-delegation/pkg/delegation"
	"github.com/morezero/agent-delegation/pkg/events"
)

const usage = `Usage: delegation [command]
       delegation serve                     Start the coordinator (HTTP, optional NATS).
       delegation worker <agent>            Run one agent's worker at its registered endpoint.
       delegation workers                   Run all five onboarding workers.
       delegation call <agent> <tool> [json] Delegate one tool call and print the envelope.
       delegation migrate up                Run database migrations.
       delegation migrate status            Show pending migrations.
       delegation ensure-db [name]          Create database if missing (default name: delegation_test). Uses DATABASE_URL host/user.
       delegation clear                     Truncate the agent tables; schema is preserved.
       delegation seed [file]               Upsert agents from a bootstrap file into the database.
       delegation disable <agent>           Mark an agent disabled in the database registry.
       delegation enable <agent>            Re-activate a disabled agent.
       delegation remove <agent>            Delete an agent and its tools from the database registry.

Commands:
  serve            (default) Start the coordinator.
  worker <agent>   Serve POST <endpoint>/run_tool for one agent (intake_agent, document_agent, ...).
  workers          Serve every agent in the catalogue on its own port.
  call             Stand-in for the upstream reasoning component.
  migrate up       Run database migrations only.
  migrate status   List migrations not yet applied.
  ensure-db [name] Create database (e.g. delegation_test) on same host as DATABASE_URL.
  clear            Truncate agent data; schema preserved.
  seed [file]      Seed agents from bootstrap JSON (default DELEGATION_BOOTSTRAP_FILE).
  disable|enable   Change an agent's status; takes effect on the next coordinator start.
  remove <agent>   Delete an agent row (tools cascade).

Environment: DELEGATION_HTTP_ADDR, DELEGATION_TIMEOUT, DELEGATION_BOOTSTRAP_FILE, REGISTRY_SOURCE,
DATABASE_URL, MIGRATION_PATH, COMMS_ENABLED, COMMS_URL, WORKER_PORT, LOG_LEVEL.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "worker":
		if len(args) < 2 {
			log.Fatalf("delegation worker: require agent name (%v)", agents.DefaultCatalog().Agents())
		}
		if err := runWorkers(args[1:2]); err != nil {
			log.Fatalf("delegation worker: %v", err)
		}
		return
	case "workers":
		if err := runWorkers(nil); err != nil {
			log.Fatalf("delegation workers: %v", err)
		}
		return
	case "call":
		if len(args) < 3 {
			log.Fatalf("delegation call: require <agent> <tool> [json args]")
		}
		rawArgs := ""
		if len(args) > 3 {
			rawArgs = args[3]
		}
		ok, err := runCall(args[1], args[2], rawArgs)
		if err != nil {
			log.Fatalf("delegation call: %v", err)
		}
		if !ok {
			os.Exit(1)
		}
		return
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("delegation migrate: require subcommand (up, status)")
		}
		switch sub := args[1]; sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("delegation migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("delegation migrate status: %v", err)
			}
		default:
			log.Fatalf("delegation migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("delegation clear: %v", err)
		}
		return
	case "seed":
		bootstrapFile := ""
		if len(args) > 1 {
			bootstrapFile = args[1]
		}
		if err := runSeed(bootstrapFile); err != nil {
			log.Fatalf("delegation seed: %v", err)
		}
		return
	case "disable", "enable", "remove":
		if len(args) < 2 || args[1] == "" {
			log.Fatalf("delegation %s: require agent name", cmd)
		}
		if err := runAgentAdmin(cmd, args[1]); err != nil {
			log.Fatalf("delegation %s: %v", cmd, err)
		}
		return
	case "ensure-db":
		dbName := "delegation_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("delegation ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("delegation: %v", err)
	}
}

// parseToolArgs decodes the optional JSON object given to "call".
func parseToolArgs(raw string) (map[string]interface{}, error) {
	toolArgs := map[string]interface{}{}
	if raw == "" {
		return toolArgs, nil
	}
	if err := json.Unmarshal([]byte(raw), &toolArgs); err != nil {
		return nil, fmt.Errorf("tool args must be a JSON object: %w", err)
	}
	return toolArgs, nil
}

func runCall(agent, tool, rawArgs string) (bool, error) {
	toolArgs, err := parseToolArgs(rawArgs)
	if err != nil {
		return false, err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return false, fmt.Errorf("load config: %w", err)
	}
	server.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := server.LoadRegistry(ctx, cfg)
	if err != nil {
		return false, err
	}
	defer src.Close()

	params := delegation.NewClientParams{Resolver: src.Registry, Timeout: cfg.Timeout}
	if cfg.COMMSEnabled {
		nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName, commsutil.DefaultConnectTimeout)
		if err != nil {
			return false, fmt.Errorf("connect NATS: %w", err)
		}
		defer nc.Close()
		params.NATS = delegation.NewNATSTransport(nc)
		params.Publisher = events.NewCommsPublisher(nc, server.PublisherOpts(cfg, src.Bootstrap))
	}
	client := delegation.NewClient(params)
	defer client.Close()

	env := client.CallSubAgentTool(ctx, agent, tool, toolArgs)
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode envelope: %w", err)
	}
	fmt.Println(string(out))
	return env.IsSuccess(), nil
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	pendingNames, err := db.PendingMigrations(ctx, pool, migrations)
	if err != nil {
		return err
	}
	if len(pendingNames) == 0 {
		fmt.Printf("Migration status: up to date (%d migration files in %s)\n", len(migrations), cfg.MigrationPath)
		return nil
	}
	fmt.Printf("Migration status: %d pending (run 'delegation migrate up'):\n", len(pendingNames))
	for _, name := range pendingNames {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func runClear() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.ClearAgents(ctx, pool); err != nil {
		return fmt.Errorf("clear agents: %w", err)
	}
	return nil
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	targetURL, err := withDatabase(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

// withDatabase replaces the database name in a connection URL, keeping the query.
func withDatabase(databaseURL, dbName string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}

func runSeed(bootstrapFileOverride string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	bootstrapPath := bootstrapFileOverride
	if bootstrapPath == "" {
		bootstrapPath = cfg.BootstrapFile
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.SeedBootstrap(ctx, pool, bootstrapPath, agents.DefaultCatalog()); err != nil {
		return fmt.Errorf("seed agents: %w", err)
	}
	return nil
}

// statusForCommand maps disable/enable to the agent status they set.
func statusForCommand(cmd string) (string, bool) {
	switch cmd {
	case "disable":
		return db.AgentStatusDisabled, true
	case "enable":
		return db.AgentStatusActive, true
	}
	return "", false
}

func runAgentAdmin(cmd, agentID string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	repo := db.NewRepository(pool)

	var found bool
	if status, ok := statusForCommand(cmd); ok {
		found, err = repo.SetAgentStatus(ctx, agentID, status)
	} else {
		found, err = repo.DeleteAgent(ctx, agentID)
	}
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("agent %q not found in database", agentID)
	}
	fmt.Printf("Agent %q: %s done.\n", agentID, cmd)
	return nil
}
