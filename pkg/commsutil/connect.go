// Package commsutil provides COMMS (NATS) connection helpers, subjects and payload codec
// shared by the delegation client, workers and the event publisher.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// DefaultConnectTimeout bounds the initial dial when no timeout is given.
const DefaultConnectTimeout = 10 * time.Second

// Connect creates a COMMS connection to the given URL. A zero timeout uses DefaultConnectTimeout.
// The connection keeps reconnecting in the background; callers see ErrNoResponders or timeouts
// on requests made while it is down.
func Connect(url, name string, timeout time.Duration) (*comms.Conn, error) {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	slog.Info(fmt.Sprintf("%s - Connecting to COMMS at %s as %s", logPrefix, url, name))

	nc, err := comms.Connect(url,
		comms.Name(name),
		comms.Timeout(timeout),
		comms.ReconnectWait(2*time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", logPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(_ *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS connection closed", logPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s", logPrefix, nc.ConnectedUrl()))
	return nc, nil
}
