package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"

	comms "github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/morezero/agent-delegation/internal/config"
	"github.com/morezero/agent-delegation/internal/server"
	"github.com/morezero/agent-delegation/pkg/agents"
	"github.com/morezero/agent-delegation/pkg/bootstrap"
	"github.com/morezero/agent-delegation/pkg/commsutil"
	"github.com/morezero/agent-delegation/pkg/registry"
	"github.com/morezero/agent-delegation/pkg/worker"
)

const logPrefix = "cmd:workers"

// plannedWorker is one worker whose listen address has already been resolved.
type plannedWorker struct {
	worker   *worker.Worker
	subject  string
	addr     string
	basePath string
}

// runWorkers serves each named agent at the address its bootstrap entry advertises, until a
// signal arrives or one of them fails. A nil agentIDs runs every configured agent the catalogue
// implements.
func runWorkers(agentIDs []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	server.SetupLogging(cfg)

	bootstrapCfg, err := bootstrap.LoadBootstrapConfig(cfg.BootstrapFile)
	if err != nil {
		return fmt.Errorf("load bootstrap config: %w", err)
	}
	reg, err := bootstrapCfg.Registry()
	if err != nil {
		return fmt.Errorf("bootstrap registry: %w", err)
	}
	catalog := agents.DefaultCatalog()
	if agentIDs == nil {
		agentIDs = implementedAgents(bootstrapCfg.AgentIDs(), catalog)
	}

	planned, err := planWorkers(agentIDs, reg, catalog, cfg.WorkerPort)
	if err != nil {
		return err
	}

	var nc *comms.Conn
	if cfg.COMMSEnabled {
		nc, err = commsutil.Connect(cfg.COMMSURL, cfg.COMMSName+"-workers", commsutil.DefaultConnectTimeout)
		if err != nil {
			return fmt.Errorf("connect NATS: %w", err)
		}
		defer nc.Drain()
		for _, p := range planned {
			sub, err := p.worker.ServeNATS(nc, p.subject)
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range planned {
		g.Go(func() error {
			return p.worker.ListenAndServe(gctx, p.addr, p.basePath)
		})
	}

	slog.Info(fmt.Sprintf("%s - %d worker(s) running", logPrefix, len(planned)))
	return g.Wait()
}

// implementedAgents keeps the configured agents that have a toolset in the catalogue.
func implementedAgents(configured []string, catalog agents.Catalog) []string {
	ids := make([]string, 0, len(configured))
	for _, id := range configured {
		if _, ok := catalog.Lookup(id); !ok {
			slog.Warn(fmt.Sprintf("%s - %s is configured but has no worker implementation; skipping", logPrefix, id))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// planWorkers resolves every worker before any of them starts, so a bad agent name or endpoint
// fails the command without leaving listeners behind.
func planWorkers(agentIDs []string, reg *registry.Registry, catalog agents.Catalog, portOverride int) ([]plannedWorker, error) {
	if len(agentIDs) == 0 {
		return nil, fmt.Errorf("no workers to run")
	}
	if portOverride != 0 && len(agentIDs) > 1 {
		return nil, fmt.Errorf("WORKER_PORT can only be set when running a single worker")
	}

	planned := make([]plannedWorker, 0, len(agentIDs))
	for _, id := range agentIDs {
		ts, ok := catalog.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown agent %q (known: %v)", id, catalog.Agents())
		}
		entry, ok := reg.Resolve(id)
		if !ok {
			return nil, fmt.Errorf("agent %q has no bootstrap entry", id)
		}
		addr, basePath, err := listenTarget(entry, portOverride)
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedWorker{worker: worker.New(ts), subject: entry.Subject, addr: addr, basePath: basePath})
	}
	return planned, nil
}

// listenTarget derives a worker's listen address and base path from its registered endpoint.
// portOverride replaces the endpoint's port when non-zero.
func listenTarget(entry registry.Entry, portOverride int) (addr, basePath string, err error) {
	if entry.Endpoint == "" {
		if portOverride == 0 {
			return "", "", fmt.Errorf("agent %q has no endpoint; set WORKER_PORT", entry.AgentID)
		}
		return ":" + strconv.Itoa(portOverride), "", nil
	}

	u, err := url.Parse(entry.Endpoint)
	if err != nil {
		return "", "", fmt.Errorf("agent %q endpoint: %w", entry.AgentID, err)
	}
	port := u.Port()
	if portOverride != 0 {
		port = strconv.Itoa(portOverride)
	}
	if port == "" {
		port = "80"
	}
	return net.JoinHostPort("", port), u.Path, nil
}
