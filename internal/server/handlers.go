package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/morezero/agent-delegation/pkg/agents"
	"github.com/morezero/agent-delegation/pkg/envelope"
	"github.com/morezero/agent-delegation/pkg/registry"
)

// maxCallBytes caps a call_sub_agent_tool request body.
const maxCallBytes = 1 << 20

// CallRequest is the body of POST /call_sub_agent_tool and of COMMS call requests.
type CallRequest struct {
	AgentName string                 `json:"agent_name"`
	ToolName  string                 `json:"tool_name"`
	ToolArgs  map[string]interface{} `json:"tool_args"`
}

// Validate checks that agent and tool are named.
func (r *CallRequest) Validate() error {
	if r.AgentName == "" {
		return errors.New("agent_name is required")
	}
	if r.ToolName == "" {
		return errors.New("tool_name is required")
	}
	return nil
}

// AgentView is one agent as listed by GET /agents.
type AgentView struct {
	registry.Entry
	DisplayName string        `json:"displayName,omitempty"`
	Tools       []agents.Tool `json:"tools"`
	// Status and Revision are only known when the registry comes from the database.
	Status   string `json:"status,omitempty"`
	Revision int    `json:"revision,omitempty"`
}

// HealthOutput is the GET /health body.
type HealthOutput struct {
	Status    string          `json:"status"`
	Agents    int             `json:"agents"`
	Checks    map[string]bool `json:"checks"`
	Timestamp string          `json:"timestamp"`
}

// Handler returns the coordinator's HTTP surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome())
	mux.HandleFunc("GET /agent/{agent}", s.handleAgentDetail())
	mux.HandleFunc("POST /call_sub_agent_tool", s.handleCall)
	mux.HandleFunc("GET /agents", s.handleAgents)
	mux.HandleFunc("GET /agents/{agent}", s.handleAgent)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	return mux
}

// handleCall always answers 200 with an envelope once the body parses; malformed bodies get 400.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCallBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope.Failure("", "", envelope.CodeInvalidRequest,
			fmt.Sprintf("malformed call_sub_agent_tool request: %v", err)))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope.Failure(req.AgentName, req.ToolName, envelope.CodeInvalidRequest, err.Error()))
		return
	}

	env := s.client.CallSubAgentTool(r.Context(), req.AgentName, req.ToolName, req.ToolArgs)
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"agents": s.agentViews()})
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	view, ok, err := s.lookupAgent(r.Context(), r.PathValue("agent"))
	if err != nil {
		slog.Error(fmt.Sprintf("%s - agent lookup %s: %v", logPrefix, r.PathValue("agent"), err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "agent store unavailable"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, envelope.Failure(r.PathValue("agent"), "", envelope.CodeUnknownAgent,
			fmt.Sprintf("Sub-agent '%s' not found in configuration.", r.PathValue("agent"))))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.health(r.Context())
	status := http.StatusOK
	if h.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) health(ctx context.Context) *HealthOutput {
	h := &HealthOutput{
		Status:    "healthy",
		Checks:    map[string]bool{"registry": s.reg != nil && s.reg.Len() > 0},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.reg != nil {
		h.Agents = s.reg.Len()
	}
	if s.pinger != nil {
		timeout := 5 * time.Second
		if s.cfg != nil && s.cfg.HealthCheckTimeout > 0 {
			timeout = s.cfg.HealthCheckTimeout
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		h.Checks["database"] = s.pinger(pingCtx) == nil
	}
	if s.nc != nil {
		h.Checks["comms"] = s.nc.IsConnected()
	}
	for _, ok := range h.Checks {
		if !ok {
			h.Status = "unhealthy"
		}
	}
	return h
}

func (s *Server) agentViews() []AgentView {
	if s.reg == nil {
		return []AgentView{}
	}
	entries := s.reg.Entries()
	views := make([]AgentView, 0, len(entries))
	for _, e := range entries {
		views = append(views, s.viewFor(e))
	}
	return views
}

func (s *Server) agentView(agentID string) (AgentView, bool) {
	if s.reg == nil {
		return AgentView{}, false
	}
	e, ok := s.reg.Resolve(agentID)
	if !ok {
		return AgentView{}, false
	}
	return s.viewFor(e), true
}

// lookupAgent reads one agent from the database when the registry comes from there, so that
// disabled agents and the recorded tool list are visible. Otherwise it uses the registry.
func (s *Server) lookupAgent(ctx context.Context, agentRef string) (AgentView, bool, error) {
	if s.store == nil {
		view, ok := s.agentView(agentRef)
		return view, ok, nil
	}

	agentID, _, _ := strings.Cut(agentRef, "@")
	row, err := s.store.GetAgent(ctx, agentID)
	if err != nil || row == nil {
		return AgentView{}, false, err
	}
	tools, err := s.store.ListAgentTools(ctx, agentID)
	if err != nil {
		return AgentView{}, false, err
	}

	view := s.viewFor(row.Entry())
	view.Status = row.Status
	view.Revision = row.Revision
	if len(tools) > 0 {
		view.Tools = make([]agents.Tool, 0, len(tools))
		for _, t := range tools {
			view.Tools = append(view.Tools, t.Tool())
		}
	}
	return view, true, nil
}

func (s *Server) viewFor(e registry.Entry) AgentView {
	v := AgentView{Entry: e, Tools: []agents.Tool{}}
	if ts, ok := s.catalog.Lookup(e.AgentID); ok {
		v.DisplayName = ts.DisplayName
		v.Tools = ts.Tools()
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
	}
}
