package db

import (
	"time"

	"github.com/morezero/agent-delegation/pkg/agents"
	"github.com/morezero/agent-delegation/pkg/registry"
)

// Agent statuses.
const (
	AgentStatusActive   = "active"
	AgentStatusDisabled = "disabled"
)

// Agent represents a row in the agents table.
type Agent struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agent_id"`
	Endpoint    *string   `json:"endpoint,omitempty"`
	Transport   string    `json:"transport"`
	Subject     *string   `json:"subject,omitempty"`
	Version     *string   `json:"version,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	Revision    int       `json:"revision"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// Entry converts the row into a registry entry.
func (a *Agent) Entry() registry.Entry {
	return registry.Entry{
		AgentID:     a.AgentID,
		Endpoint:    deref(a.Endpoint),
		Transport:   registry.Transport(a.Transport),
		Subject:     deref(a.Subject),
		Version:     deref(a.Version),
		Description: deref(a.Description),
	}
}

// AgentTool represents a row in the agent_tools table.
type AgentTool struct {
	AgentID     string    `json:"agent_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Required    []string  `json:"required"`
	Modified    time.Time `json:"modified"`
}

// Tool converts the row into a catalogue tool description. The row has no function attached.
func (t *AgentTool) Tool() agents.Tool {
	required := t.Required
	if required == nil {
		required = []string{}
	}
	return agents.Tool{Name: t.Name, Description: deref(t.Description), Required: required}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
