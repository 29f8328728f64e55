// Package worker exposes one agent's toolset over HTTP (POST /run_tool) and, optionally, NATS.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/agent-delegation/pkg/agents"
	"github.com/morezero/agent-delegation/pkg/commsutil"
	"github.com/morezero/agent-delegation/pkg/envelope"
)

const logPrefix = "worker:worker"

// maxRequestBytes caps a run_tool request body.
const maxRequestBytes = 1 << 20

// RequestIDHeader carries the caller's request id and is echoed on the response.
const RequestIDHeader = "X-Request-ID"

// Worker serves a single agent's tools.
type Worker struct {
	tools *agents.Toolset
}

// New creates a Worker for the given toolset.
func New(tools *agents.Toolset) *Worker {
	return &Worker{tools: tools}
}

// Agent returns the agent id the worker serves.
func (w *Worker) Agent() string {
	return w.tools.Agent
}

// Handle runs one decoded request. It never returns nil.
func (w *Worker) Handle(req *envelope.RunToolRequest) *envelope.Envelope {
	slog.Info(fmt.Sprintf("%s - %s running tool=%s request=%s", logPrefix, w.tools.Agent, req.ToolName, req.RequestID))
	return w.tools.RunTool(req.ToolName, req.ToolArgs)
}

// Handler returns the HTTP surface. basePath is the path component of the agent's registered
// endpoint (e.g. "/legal_intake_api"); routes are served beneath it.
func (w *Worker) Handler(basePath string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /run_tool", w.handleRunTool)
	mux.HandleFunc("GET /tools", w.handleTools)
	mux.HandleFunc("GET /health", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, map[string]string{"status": "healthy", "agent": w.tools.Agent})
	})

	basePath = "/" + strings.Trim(basePath, "/")
	if basePath == "/" {
		return mux
	}
	return http.StripPrefix(basePath, mux)
}

func (w *Worker) handleRunTool(rw http.ResponseWriter, r *http.Request) {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		rw.Header().Set(RequestIDHeader, id)
	}

	var req envelope.RunToolRequest
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		slog.Warn(fmt.Sprintf("%s - %s failed to decode run_tool body: %v", logPrefix, w.tools.Agent, err))
		writeJSON(rw, http.StatusBadRequest, envelope.Failure(w.tools.Agent, "", envelope.CodeInvalidRequest,
			fmt.Sprintf("malformed run_tool request for %s: %v", w.tools.Agent, err)))
		return
	}
	if req.RequestID == "" {
		req.RequestID = r.Header.Get(RequestIDHeader)
	}

	env := w.Handle(&req)
	writeJSON(rw, statusFor(env), env)
}

func (w *Worker) handleTools(rw http.ResponseWriter, _ *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]interface{}{
		"agent":       w.tools.Agent,
		"description": w.tools.Description,
		"tools":       w.tools.Tools(),
	})
}

// statusFor maps an envelope to the HTTP status the worker answers with.
func statusFor(env *envelope.Envelope) int {
	if env.IsSuccess() {
		return http.StatusOK
	}
	switch env.Code {
	case envelope.CodeUnknownTool:
		return http.StatusNotFound
	case envelope.CodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
	}
}

// ServeNATS answers run_tool requests on subject as part of the shared worker queue group.
func (w *Worker) ServeNATS(nc *comms.Conn, subject string) (*comms.Subscription, error) {
	if subject == "" {
		subject = commsutil.BuildAgentSubject(w.tools.Agent)
	}
	sub, err := nc.QueueSubscribe(subject, commsutil.QueueWorkers, func(msg *comms.Msg) {
		var req envelope.RunToolRequest
		var env *envelope.Envelope
		if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
			slog.Warn(fmt.Sprintf("%s - %s failed to decode request on %s: %v", logPrefix, w.tools.Agent, subject, err))
			env = envelope.Failure(w.tools.Agent, "", envelope.CodeInvalidRequest,
				fmt.Sprintf("malformed run_tool request for %s: %v", w.tools.Agent, err))
		} else {
			env = w.Handle(&req)
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
	slog.Info(fmt.Sprintf("%s - %s subscribed to %s", logPrefix, w.tools.Agent, subject))
	return sub, nil
}

// ListenAndServe serves the worker's HTTP surface on addr until ctx is cancelled.
func (w *Worker) ListenAndServe(ctx context.Context, addr, basePath string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           w.Handler(basePath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info(fmt.Sprintf("%s - %s listening on %s%s", logPrefix, w.tools.Agent, addr, basePath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s - %s server error: %w", logPrefix, w.tools.Agent, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s - %s shutdown: %w", logPrefix, w.tools.Agent, err)
		}
		slog.Info(fmt.Sprintf("%s - %s stopped", logPrefix, w.tools.Agent))
		return nil
	}
}
