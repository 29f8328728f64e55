package delegation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/agent-delegation/pkg/commsutil"
	"github.com/morezero/agent-delegation/pkg/envelope"
	"github.com/morezero/agent-delegation/pkg/registry"
)

// maxResponseBytes caps how much of a worker response is read.
const maxResponseBytes = 1 << 20

// requestIDHeader mirrors the worker's header name.
const requestIDHeader = "X-Request-ID"

// Transport carries a run_tool request to a worker.
//
// A returned error means no envelope came back: either the worker could not be reached
// (transport failure) or it answered with a non-success status and no envelope (*StatusError).
// An error envelope the worker produced itself is returned as a value with a nil error.
type Transport interface {
	RunTool(ctx context.Context, entry registry.Entry, req *envelope.RunToolRequest) (*envelope.Envelope, error)
}

// StatusError is returned when a reachable worker answered with a failure status or a body
// that is not a result envelope.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return "malformed worker response: " + e.Body
	}
	return fmt.Sprintf("worker returned HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPTransport posts to <endpoint>/run_tool over a shared, pooled http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates an HTTPTransport. The client carries no overall timeout: each call is
// bounded by its context deadline, and timeout only caps the wait for response headers.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &HTTPTransport{client: &http.Client{Transport: base}}
}

// NewHTTPTransportWithClient wraps an existing client (e.g. httptest.Server.Client()).
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

// RunTool implements Transport.
func (t *HTTPTransport) RunTool(ctx context.Context, entry registry.Entry, req *envelope.RunToolRequest) (*envelope.Envelope, error) {
	body, err := commsutil.EncodePayload(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, entry.Endpoint+"/run_tool", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.RequestID != "" {
		httpReq.Header.Set(requestIDHeader, req.RequestID)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	env, decodeErr := decodeEnvelope(data)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && env.Status == envelope.StatusError {
			return env, nil
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet(data)}
	}
	if decodeErr != nil {
		return nil, &StatusError{Body: decodeErr.Error()}
	}
	return env, nil
}

// CloseIdleConnections releases pooled connections.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// NATSTransport sends run_tool requests on the entry's subject.
type NATSTransport struct {
	nc *comms.Conn
}

// NewNATSTransport creates a NATSTransport over an established connection.
func NewNATSTransport(nc *comms.Conn) *NATSTransport {
	return &NATSTransport{nc: nc}
}

// RunTool implements Transport.
func (t *NATSTransport) RunTool(ctx context.Context, entry registry.Entry, req *envelope.RunToolRequest) (*envelope.Envelope, error) {
	data, err := commsutil.EncodePayload(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	msg, err := t.nc.RequestWithContext(ctx, entry.Subject, data)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(msg.Data)
	if err != nil {
		return nil, &StatusError{Body: err.Error()}
	}
	return env, nil
}

// decodeEnvelope accepts either a full envelope or a bare result payload. A body without
// result, message or agent keys is a bare payload: it is a success result unless its own
// status says otherwise.
func decodeEnvelope(data []byte) (*envelope.Envelope, error) {
	var raw map[string]json.RawMessage
	if err := commsutil.DecodePayload(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty response object")
	}
	_, hasResult := raw["result"]
	_, hasMessage := raw["message"]
	_, hasAgent := raw["agent"]
	if !hasResult && !hasMessage && !hasAgent {
		var payload map[string]interface{}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if status, ok := payload["status"]; ok && status != string(envelope.StatusSuccess) {
			return &envelope.Envelope{
				Status:  envelope.StatusError,
				Code:    envelope.CodeRemoteError,
				Message: bareErrorMessage(payload),
			}, nil
		}
		delete(payload, "status")
		return &envelope.Envelope{Status: envelope.StatusSuccess, Result: payload}, nil
	}

	var env envelope.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Status != envelope.StatusSuccess && env.Status != envelope.StatusError {
		return nil, fmt.Errorf("unknown envelope status %q", env.Status)
	}
	return &env, nil
}

// bareErrorMessage picks the failure text out of a bare {"status":"error",...} body.
func bareErrorMessage(payload map[string]interface{}) string {
	for _, key := range []string{"error_message", "error", "details"} {
		if msg, ok := payload[key].(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("worker reported status %v", payload["status"])
}

func snippet(data []byte) string {
	const max = 256
	s := string(bytes.TrimSpace(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}
