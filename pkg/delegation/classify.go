package delegation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/agent-delegation/pkg/envelope"
)

// classify turns a Transport error into an error envelope. *StatusError means the worker was
// reached; everything else is an infrastructure failure.
func classify(agent, tool string, err error) *envelope.Envelope {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return envelope.Failure(agent, tool, envelope.CodeRemoteError,
			fmt.Sprintf("delegation to %s tool '%s' failed: %s", agent, tool, statusErr.Error()))
	}
	return envelope.Failure(agent, tool, envelope.CodeTransportFailure,
		fmt.Sprintf("delegation to %s tool '%s' failed: %s: %v", agent, tool, transportCause(err), err))
}

// transportCause names the kind of transport failure for the envelope message.
func transportCause(err error) string {
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, comms.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, comms.ErrNoResponders):
		return "no responders"
	case errors.Is(err, comms.ErrConnectionClosed), errors.Is(err, comms.ErrConnectionDraining):
		return "connection closed"
	case errors.As(err, &dnsErr):
		return "dns lookup failed"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport error"
	}
}
