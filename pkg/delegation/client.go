// Package delegation routes (agent, tool, args) requests to workers and normalises every
// outcome into a result envelope.
package delegation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/agent-delegation/pkg/agents"
	"github.com/morezero/agent-delegation/pkg/envelope"
	"github.com/morezero/agent-delegation/pkg/events"
	"github.com/morezero/agent-delegation/pkg/registry"
)

const logPrefix = "delegation:client"

// DefaultTimeout bounds a single delegated call when none is configured.
const DefaultTimeout = 10 * time.Second

// Client is the coordinator-side delegation client. It holds no per-call state; the only
// shared resources are the transports' connection pools.
type Client struct {
	resolver   registry.Resolver
	catalog    agents.Catalog
	transports map[registry.Transport]Transport
	publisher  events.EventPublisher
	timeout    time.Duration
}

// NewClientParams holds parameters for NewClient.
type NewClientParams struct {
	Resolver registry.Resolver
	// Catalog backs simulated agents. Defaults to agents.DefaultCatalog().
	Catalog agents.Catalog
	// HTTP defaults to a pooled HTTPTransport using Timeout.
	HTTP Transport
	// NATS is optional; nats entries fail with a transport failure without it.
	NATS      Transport
	Publisher events.EventPublisher
	Timeout   time.Duration
}

// NewClient creates a new Client.
func NewClient(params NewClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	catalog := params.Catalog
	if catalog == nil {
		catalog = agents.DefaultCatalog()
	}
	httpTransport := params.HTTP
	if httpTransport == nil {
		httpTransport = NewHTTPTransport(timeout)
	}
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}

	transports := map[registry.Transport]Transport{registry.TransportHTTP: httpTransport}
	if params.NATS != nil {
		transports[registry.TransportNATS] = params.NATS
	}

	return &Client{
		resolver:   params.Resolver,
		catalog:    catalog,
		transports: transports,
		publisher:  pub,
		timeout:    timeout,
	}
}

// CallSubAgentTool is the coordinator-facing entry point. It never returns a raw error.
func (c *Client) CallSubAgentTool(ctx context.Context, agentName, toolName string, toolArgs map[string]interface{}) *envelope.Envelope {
	return c.Dispatch(ctx, agentName, toolName, toolArgs)
}

// Dispatch resolves the agent, makes a single attempt through its transport (or computes the
// result locally for simulated agents) and returns exactly one envelope.
func (c *Client) Dispatch(ctx context.Context, agent, tool string, args map[string]interface{}) *envelope.Envelope {
	requestID := uuid.NewString()
	start := time.Now()

	entry, found := c.resolve(agent)
	var env *envelope.Envelope
	switch {
	case !found:
		env = envelope.Failure(agent, tool, envelope.CodeUnknownAgent,
			fmt.Sprintf("Sub-agent '%s' not found in configuration (tool '%s').", agent, tool))
	case entry.IsSimulated():
		env = c.simulate(entry, tool, args)
	default:
		env = c.delegate(ctx, requestID, entry, tool, args)
	}

	c.record(ctx, requestID, entry, agent, tool, args, env, time.Since(start))
	return env
}

func (c *Client) resolve(agent string) (registry.Entry, bool) {
	if c.resolver == nil {
		return registry.Entry{}, false
	}
	return c.resolver.Resolve(agent)
}

func (c *Client) simulate(entry registry.Entry, tool string, args map[string]interface{}) *envelope.Envelope {
	ts, ok := c.catalog.Lookup(entry.AgentID)
	if !ok {
		return envelope.Failure(entry.AgentID, tool, envelope.CodeUnknownAgent,
			fmt.Sprintf("Sub-agent '%s' is marked simulated but has no simulated implementation (tool '%s').", entry.AgentID, tool))
	}
	return ts.Simulate(tool, args)
}

func (c *Client) delegate(ctx context.Context, requestID string, entry registry.Entry, tool string, args map[string]interface{}) *envelope.Envelope {
	transport, ok := c.transports[entry.Transport]
	if !ok {
		return envelope.Failure(entry.AgentID, tool, envelope.CodeTransportFailure,
			fmt.Sprintf("delegation to %s tool '%s' failed: no %s transport configured", entry.AgentID, tool, entry.Transport))
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	remote, err := transport.RunTool(callCtx, entry, &envelope.RunToolRequest{
		ToolName:  tool,
		ToolArgs:  args,
		RequestID: requestID,
	})
	if err != nil {
		return classify(entry.AgentID, tool, err)
	}
	if remote.IsSuccess() {
		return envelope.Success(entry.AgentID, tool, remote.Result)
	}

	code := remote.Code
	if code == "" || code == envelope.CodeTransportFailure {
		code = envelope.CodeRemoteError
	}
	return envelope.Failure(entry.AgentID, tool, code,
		fmt.Sprintf("delegation to %s tool '%s' failed: %s", entry.AgentID, tool, remote.Message))
}

func (c *Client) record(ctx context.Context, requestID string, entry registry.Entry, agent, tool string, args map[string]interface{}, env *envelope.Envelope, elapsed time.Duration) {
	target := entry.Endpoint
	if entry.Transport == registry.TransportNATS {
		target = entry.Subject
	}
	if env.IsSuccess() {
		slog.Info(fmt.Sprintf("%s - Delegated %s.%s via %s (%s) args=%v status=%s in %s",
			logPrefix, agent, tool, entry.Transport, target, args, env.Status, elapsed))
	} else {
		slog.Warn(fmt.Sprintf("%s - Delegation %s.%s via %s (%s) args=%v failed code=%s: %s",
			logPrefix, agent, tool, entry.Transport, target, args, env.Code, env.Message))
	}

	event := &events.DispatchEvent{
		RequestID:  requestID,
		Agent:      agent,
		Tool:       tool,
		Args:       args,
		Transport:  string(entry.Transport),
		Endpoint:   target,
		Status:     string(env.Status),
		Code:       env.Code,
		Message:    env.Message,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := c.publisher.PublishDispatched(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish dispatch event %s: %v", logPrefix, requestID, err))
	}
}

// Agents lists the registry entries when the resolver can enumerate them.
func (c *Client) Agents() []registry.Entry {
	if lister, ok := c.resolver.(interface{ Entries() []registry.Entry }); ok {
		return lister.Entries()
	}
	return nil
}

// Close releases pooled HTTP connections.
func (c *Client) Close() {
	if t, ok := c.transports[registry.TransportHTTP].(*HTTPTransport); ok {
		t.CloseIdleConnections()
	}
}
