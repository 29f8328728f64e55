// Package server wires the coordinator: registry source, optional COMMS connection, delegation
// client, the call_sub_agent_tool surfaces and HTTP health.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/morezero/agent-delegation/internal/config"
	"github.com/morezero/agent-delegation/pkg/agents"
	"github.com/morezero/agent-delegation/pkg/bootstrap"
	"github.com/morezero/agent-delegation/pkg/commsutil"
	"github.com/morezero/agent-delegation/pkg/db"
	"github.com/morezero/agent-delegation/pkg/delegation"
	"github.com/morezero/agent-delegation/pkg/envelope"
	"github.com/morezero/agent-delegation/pkg/events"
	"github.com/morezero/agent-delegation/pkg/registry"
)

const logPrefix = "server:server"

// delegator is the part of the delegation client the server needs.
type delegator interface {
	CallSubAgentTool(ctx context.Context, agentName, toolName string, toolArgs map[string]interface{}) *envelope.Envelope
}

// Server is the coordinator's HTTP and COMMS surface.
type Server struct {
	cfg     *config.Config
	client  delegator
	reg     *registry.Registry
	catalog agents.Catalog
	// pinger and store are nil when the registry does not come from the database.
	pinger func(ctx context.Context) error
	store  agentStore
	nc     *comms.Conn
}

// agentStore is the database view of agents used by GET /agents/{agent}.
type agentStore interface {
	GetAgent(ctx context.Context, agentID string) (*db.Agent, error)
	ListAgentTools(ctx context.Context, agentID string) ([]db.AgentTool, error)
}

// NewServerParams holds parameters for NewServer.
type NewServerParams struct {
	Config   *config.Config
	Client   delegator
	Registry *registry.Registry
	Catalog  agents.Catalog
	Pinger   func(ctx context.Context) error
	Store    agentStore
	Conn     *comms.Conn
}

// NewServer creates a Server from already-built components.
func NewServer(params NewServerParams) *Server {
	catalog := params.Catalog
	if catalog == nil {
		catalog = agents.DefaultCatalog()
	}
	return &Server{
		cfg:     params.Config,
		client:  params.Client,
		reg:     params.Registry,
		catalog: catalog,
		pinger:  params.Pinger,
		store:   params.Store,
		nc:      params.Conn,
	}
}

// SetupLogging installs the default text logger at the configured level.
func SetupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
}

// RegistrySource is the loaded registry plus what it was loaded from.
type RegistrySource struct {
	Registry *registry.Registry
	// Bootstrap is the bootstrap document in effect. In database mode it still supplies the
	// event subjects and the seed data.
	Bootstrap *bootstrap.BootstrapConfig
	// Pool is nil unless the database source was used; the caller closes it.
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (src *RegistrySource) Close() {
	if src.Pool != nil {
		src.Pool.Close()
	}
}

// LoadRegistry builds the registry from the configured source.
func LoadRegistry(ctx context.Context, cfg *config.Config) (*RegistrySource, error) {
	bootstrapCfg, err := bootstrap.LoadBootstrapConfig(cfg.BootstrapFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load bootstrap config: %w", logPrefix, err)
	}

	if cfg.RegistrySource != config.RegistrySourceDatabase {
		reg, err := bootstrapCfg.Registry()
		if err != nil {
			return nil, fmt.Errorf("%s - invalid bootstrap registry: %w", logPrefix, err)
		}
		return &RegistrySource{Registry: reg, Bootstrap: bootstrapCfg}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	if cfg.RunMigrations {
		migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
		if err := db.SeedBootstrapConfig(ctx, pool, bootstrapCfg, agents.DefaultCatalog()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to seed bootstrap agents: %w", logPrefix, err)
		}
	}
	reg, err := db.NewRepository(pool).LoadRegistry(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &RegistrySource{Registry: reg, Bootstrap: bootstrapCfg, Pool: pool}, nil
}

// PublisherOpts picks the dispatch event subjects: DELEGATION_EVENT_SUBJECT wins for the global
// subject, otherwise the bootstrap eventSubjects apply.
func PublisherOpts(cfg *config.Config, bootstrapCfg *bootstrap.BootstrapConfig) *events.CommsPublisherOpts {
	opts := &events.CommsPublisherOpts{}
	if bootstrapCfg != nil {
		opts.GlobalSubject = bootstrapCfg.EventSubjects.Global
		opts.AgentSubjectPattern = bootstrapCfg.EventSubjects.Pattern
	}
	if cfg.DispatchEventSubject != "" {
		opts.GlobalSubject = cfg.DispatchEventSubject
	}
	return opts
}

// Run starts the coordinator, blocks until a shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	SetupLogging(cfg)
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting agent delegation coordinator", logPrefix))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Step 1: Registry
	src, err := LoadRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()
	reg := src.Registry
	var pinger func(ctx context.Context) error
	var store agentStore
	if src.Pool != nil {
		pinger = src.Pool.Ping
		store = db.NewRepository(src.Pool)
	}
	slog.Info(fmt.Sprintf("%s - Registry loaded from %s with %d agents", logPrefix, cfg.RegistrySource, reg.Len()))

	// Step 2: COMMS (optional)
	var nc *comms.Conn
	var publisher events.EventPublisher = &events.NoOpPublisher{}
	var natsTransport delegation.Transport
	if cfg.COMMSEnabled {
		nc, err = commsutil.Connect(cfg.COMMSURL, cfg.COMMSName, commsutil.DefaultConnectTimeout)
		if err != nil {
			return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
		}
		defer nc.Drain()
		publisher = events.NewCommsPublisher(nc, PublisherOpts(cfg, src.Bootstrap))
		natsTransport = delegation.NewNATSTransport(nc)
		slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))
	}

	// Step 3: Delegation client
	client := delegation.NewClient(delegation.NewClientParams{
		Resolver:  reg,
		NATS:      natsTransport,
		Publisher: publisher,
		Timeout:   cfg.Timeout,
	})
	defer client.Close()

	s := NewServer(NewServerParams{
		Config:   cfg,
		Client:   client,
		Registry: reg,
		Pinger:   pinger,
		Store:    store,
		Conn:     nc,
	})

	// Step 4: COMMS entry point
	if nc != nil {
		sub, err := s.SubscribeCalls(ctx, commsutil.SubjectCall)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	// Step 5: HTTP
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, cfg.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s - HTTP server error: %w", logPrefix, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info(fmt.Sprintf("%s - Shutting down", logPrefix))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	slog.Info(fmt.Sprintf("%s - Coordinator is ready", logPrefix))
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// SubscribeCalls answers call_sub_agent_tool requests on subject with result envelopes.
func (s *Server) SubscribeCalls(ctx context.Context, subject string) (*comms.Subscription, error) {
	sub, err := s.nc.Subscribe(subject, func(msg *comms.Msg) {
		var req CallRequest
		var env *envelope.Envelope
		if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			env = envelope.Failure("", "", envelope.CodeInvalidRequest, "Failed to decode request")
		} else if err := req.Validate(); err != nil {
			env = envelope.Failure(req.AgentName, req.ToolName, envelope.CodeInvalidRequest, err.Error())
		} else {
			env = s.client.CallSubAgentTool(ctx, req.AgentName, req.ToolName, req.ToolArgs)
		}

		data, err := commsutil.EncodePayload(env)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to respond on %s: %v", logPrefix, subject, err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, subject))
	return sub, nil
}
