// Package envelope defines the result shape shared by workers and the delegation client.
package envelope

import "fmt"

// Status is the outcome of a delegated tool call.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Error codes carried by error envelopes.
const (
	CodeUnknownAgent     = "UNKNOWN_AGENT"
	CodeUnknownTool      = "UNKNOWN_TOOL"
	CodeTransportFailure = "TRANSPORT_FAILURE"
	CodeRemoteError      = "REMOTE_APPLICATION_ERROR"
	CodeInvalidRequest   = "INVALID_REQUEST"
)

// Envelope is the single success/error shape every worker produces and every caller parses.
type Envelope struct {
	Status    Status                 `json:"status"`
	Agent     string                 `json:"agent"`
	Tool      string                 `json:"tool"`
	Result    map[string]interface{} `json:"result,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Code      string                 `json:"code,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
}

// RunToolRequest is the JSON body posted to a worker's run_tool operation.
type RunToolRequest struct {
	ToolName  string                 `json:"tool_name"`
	ToolArgs  map[string]interface{} `json:"tool_args"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Success builds a success envelope.
func Success(agent, tool string, result map[string]interface{}) *Envelope {
	return &Envelope{
		Status: StatusSuccess,
		Agent:  agent,
		Tool:   tool,
		Result: result,
	}
}

// Failure builds an error envelope. Transport failures are the only retryable kind.
func Failure(agent, tool, code, message string) *Envelope {
	return &Envelope{
		Status:    StatusError,
		Agent:     agent,
		Tool:      tool,
		Message:   message,
		Code:      code,
		Retryable: code == CodeTransportFailure,
	}
}

// UnknownTool builds the error a worker returns for a tool name missing from its table.
func UnknownTool(agent, tool string) *Envelope {
	return Failure(agent, tool, CodeUnknownTool, fmt.Sprintf("tool '%s' not recognized for %s", tool, agent))
}

// IsSuccess reports whether the envelope carries a result.
func (e *Envelope) IsSuccess() bool {
	return e != nil && e.Status == StatusSuccess
}

// Error implements error so an error envelope can travel through error-returning code.
func (e *Envelope) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}
