// Package bootstrap loads the agent registry configuration supplied at startup.
package bootstrap

import (
	"sort"

	"github.com/morezero/agent-delegation/pkg/registry"
)

// BootstrapAgent is one agent entry in the bootstrap config.
type BootstrapAgent struct {
	Endpoint    string `json:"endpoint,omitempty"`
	Transport   string `json:"transport,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// BootstrapConfig is the root bootstrap configuration.
type BootstrapConfig struct {
	Name          string                    `json:"name"`
	Version       string                    `json:"version"`
	Description   string                    `json:"description,omitempty"`
	Agents        map[string]BootstrapAgent `json:"agents"`
	EventSubjects EventSubjects             `json:"eventSubjects"`
}

// EventSubjects defines dispatch event subject patterns.
type EventSubjects struct {
	Global  string `json:"global"`
	Pattern string `json:"pattern"`
}

// Entries converts the configured agents into registry entries, sorted by agent id.
func (c *BootstrapConfig) Entries() []registry.Entry {
	ids := make([]string, 0, len(c.Agents))
	for id := range c.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]registry.Entry, 0, len(ids))
	for _, id := range ids {
		a := c.Agents[id]
		entries = append(entries, registry.Entry{
			AgentID:     id,
			Endpoint:    a.Endpoint,
			Transport:   registry.Transport(a.Transport),
			Subject:     a.Subject,
			Version:     a.Version,
			Description: a.Description,
		})
	}
	return entries
}

// Registry builds an immutable registry from the configured agents.
func (c *BootstrapConfig) Registry() (*registry.Registry, error) {
	return registry.NewRegistry(c.Entries()...)
}

// AgentIDs returns the configured agent ids in sorted order.
func (c *BootstrapConfig) AgentIDs() []string {
	ids := make([]string, 0, len(c.Agents))
	for id := range c.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
