package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/morezero/agent-delegation/pkg/commsutil"
	"github.com/morezero/agent-delegation/pkg/semver"
)

const logPrefix = "registry:registry"

// Resolver looks up the entry for an agent reference.
type Resolver interface {
	Resolve(agentRef string) (Entry, bool)
}

// Registry is an immutable agent id → entry table. It is safe for concurrent reads.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry validates and indexes the given entries. Entries without a transport default to
// http when they have an endpoint and to simulated otherwise; nats entries without a subject
// get the default per-agent subject.
func NewRegistry(entries ...Entry) (*Registry, error) {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		e, err := normalize(e)
		if err != nil {
			return nil, err
		}
		if _, dup := m[e.AgentID]; dup {
			return nil, invalidEntry("duplicate agent %q", e.AgentID)
		}
		m[e.AgentID] = e
	}
	slog.Debug(fmt.Sprintf("%s - Registry built with %d agents", logPrefix, len(m)))
	return &Registry{entries: m}, nil
}

func normalize(e Entry) (Entry, error) {
	e.AgentID = strings.TrimSpace(e.AgentID)
	if !semver.ValidateAgentID(e.AgentID) {
		return e, invalidEntry("invalid agent id %q", e.AgentID)
	}
	e.Endpoint = strings.TrimRight(strings.TrimSpace(e.Endpoint), "/")
	if e.Transport == "" {
		if e.Endpoint != "" {
			e.Transport = TransportHTTP
		} else {
			e.Transport = TransportSimulated
		}
	}
	if !e.Transport.Valid() {
		return e, invalidEntry("agent %q has unknown transport %q", e.AgentID, e.Transport)
	}
	if e.Transport == TransportHTTP && e.Endpoint == "" {
		return e, invalidEntry("agent %q uses http transport without an endpoint", e.AgentID)
	}
	if e.Transport == TransportNATS && e.Subject == "" {
		e.Subject = commsutil.BuildAgentSubject(e.AgentID)
	}
	if e.Version != "" {
		if err := semver.ValidateVersion(e.Version); err != nil {
			return e, invalidEntry("agent %q: %v", e.AgentID, err)
		}
	}
	return e, nil
}

// Resolve returns the entry for an agent id or an "id@range" reference. A reference with a
// range only matches when the registered version satisfies it.
func (r *Registry) Resolve(agentRef string) (Entry, bool) {
	if e, ok := r.entries[agentRef]; ok {
		return e, true
	}
	ref, err := semver.ParseAgentRef(agentRef)
	if err != nil {
		return Entry{}, false
	}
	e, ok := r.entries[ref.ID]
	if !ok || !semver.SatisfiesRange(e.Version, ref.Range) {
		return Entry{}, false
	}
	return e, true
}

// With returns a new registry with e added or replaced. The receiver is left untouched.
func (r *Registry) With(e Entry) (*Registry, error) {
	e, err := normalize(e)
	if err != nil {
		return nil, err
	}
	m := make(map[string]Entry, len(r.entries)+1)
	for id, existing := range r.entries {
		m[id] = existing
	}
	m[e.AgentID] = e
	return &Registry{entries: m}, nil
}

// Without returns a new registry with the agent removed.
func (r *Registry) Without(agentID string) *Registry {
	m := make(map[string]Entry, len(r.entries))
	for id, existing := range r.entries {
		if id != agentID {
			m[id] = existing
		}
	}
	return &Registry{entries: m}
}

// Entries returns all entries sorted by agent id.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.entries)
}
