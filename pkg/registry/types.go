// Package registry implements the capability registry mapping agent ids to worker locations.
package registry

import "fmt"

// Transport says how an agent's tools are reached.
type Transport string

const (
	// TransportHTTP posts to <endpoint>/run_tool.
	TransportHTTP Transport = "http"
	// TransportNATS sends a request on the entry's subject.
	TransportNATS Transport = "nats"
	// TransportSimulated computes the result locally with the agent's toolset.
	TransportSimulated Transport = "simulated"
)

// Valid reports whether t is a known transport.
func (t Transport) Valid() bool {
	switch t {
	case TransportHTTP, TransportNATS, TransportSimulated:
		return true
	}
	return false
}

// Entry is one registered agent. Entries are values and never mutated after construction.
type Entry struct {
	AgentID     string    `json:"agentId"`
	Endpoint    string    `json:"endpoint,omitempty"`
	Transport   Transport `json:"transport"`
	Subject     string    `json:"subject,omitempty"`
	Version     string    `json:"version,omitempty"`
	Description string    `json:"description,omitempty"`
}

// IsSimulated reports whether the entry has no real transport target.
func (e Entry) IsSimulated() bool {
	return e.Transport == TransportSimulated
}

// RegistryError is a structured error from the registry.
type RegistryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RegistryError) Error() string {
	return e.Code + ": " + e.Message
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(code, message string) *RegistryError {
	return &RegistryError{Code: code, Message: message}
}

func invalidEntry(format string, args ...interface{}) *RegistryError {
	return NewRegistryError("INVALID_ARGUMENT", fmt.Sprintf(format, args...))
}
