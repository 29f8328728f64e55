// Package agents holds the legal onboarding domain functions and the per-agent tool tables
// that workers and the simulated fallback both dispatch through.
package agents

import (
	"fmt"
	"sort"
	"strings"

	"github.com/morezero/agent-delegation/pkg/envelope"
)

// Agent identifiers known to the default catalogue.
const (
	Intake        = "intake_agent"
	Document      = "document_agent"
	ConflictCheck = "conflict_check_agent"
	Billing       = "billing_agent"
	Case          = "case_agent"
)

// Args are the loosely typed tool arguments. Each domain function defaults its own keys.
type Args map[string]interface{}

// String returns the value for key rendered as a string, or def when the key is absent or nil.
func (a Args) String(key, def string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ToolFunc is the uniform signature of a domain operation.
type ToolFunc func(args Args) (map[string]interface{}, error)

// Tool is one entry of a worker's dispatch table.
type Tool struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required"`
	Fn          ToolFunc `json:"-"`
}

// Toolset is the dispatch table of a single agent, built once at startup.
type Toolset struct {
	Agent       string
	DisplayName string
	Description string
	tools       map[string]Tool
}

// NewToolset builds a toolset from the given tools.
func NewToolset(agent, displayName, description string, tools ...Tool) *Toolset {
	m := make(map[string]Tool, len(tools))
	for _, t := range tools {
		m[t.Name] = t
	}
	return &Toolset{
		Agent:       agent,
		DisplayName: displayName,
		Description: description,
		tools:       m,
	}
}

// Tools returns the toolset's tools sorted by name.
func (ts *Toolset) Tools() []Tool {
	out := make([]Tool, 0, len(ts.tools))
	for _, t := range ts.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Has reports whether the toolset supports the tool.
func (ts *Toolset) Has(tool string) bool {
	_, ok := ts.tools[tool]
	return ok
}

// RunTool runs a tool the way the worker itself does, self-reporting its display name as source.
func (ts *Toolset) RunTool(tool string, args map[string]interface{}) *envelope.Envelope {
	return ts.run(tool, args, ts.DisplayName)
}

// Simulate runs a tool on behalf of an unreachable or unimplemented worker.
func (ts *Toolset) Simulate(tool string, args map[string]interface{}) *envelope.Envelope {
	return ts.run(tool, args, "Simulated "+ts.Agent)
}

func (ts *Toolset) run(tool string, args map[string]interface{}, source string) *envelope.Envelope {
	t, ok := ts.tools[tool]
	if !ok {
		return envelope.UnknownTool(ts.Agent, tool)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	result, err := t.Fn(Args(args))
	if err != nil {
		return envelope.Failure(ts.Agent, tool, envelope.CodeRemoteError,
			fmt.Sprintf("tool '%s' failed for %s: %v", tool, ts.Agent, err))
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	result["source"] = source
	return envelope.Success(ts.Agent, tool, result)
}

// Catalog maps agent ids to their toolsets.
type Catalog map[string]*Toolset

// DefaultCatalog returns the five legal onboarding agents.
func DefaultCatalog() Catalog {
	return Catalog{
		Intake:        IntakeToolset(),
		Document:      DocumentToolset(),
		ConflictCheck: ConflictCheckToolset(),
		Billing:       BillingToolset(),
		Case:          CaseToolset(),
	}
}

// Lookup returns the toolset for an agent.
func (c Catalog) Lookup(agent string) (*Toolset, bool) {
	ts, ok := c[agent]
	return ts, ok
}

// Agents returns the catalogue's agent ids in sorted order.
func (c Catalog) Agents() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func dashed(s string) string {
	return strings.ReplaceAll(s, " ", "-")
}
