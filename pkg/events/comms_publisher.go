package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/agent-delegation/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// GlobalSubject overrides the global dispatch event subject (e.g. from DELEGATION_EVENT_SUBJECT).
	GlobalSubject string
	// AgentSubjectPattern overrides the per-agent subject; "{agent}" is replaced with the agent id.
	AgentSubjectPattern string
}

// CommsPublisher publishes dispatch events to COMMS subjects.
type CommsPublisher struct {
	nc            *comms.Conn
	globalSubject string
	agentPattern  string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	p := &CommsPublisher{nc: nc, globalSubject: commsutil.SubjectDispatchEvents}
	if opts != nil {
		if opts.GlobalSubject != "" {
			p.globalSubject = opts.GlobalSubject
		}
		p.agentPattern = opts.AgentSubjectPattern
	}
	return p
}

// PublishDispatched publishes a DispatchEvent to both the per-agent and global subjects.
func (p *CommsPublisher) PublishDispatched(_ context.Context, event *DispatchEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	agentSubject := commsutil.ExpandAgentPattern(p.agentPattern, event.Agent)
	if err := p.nc.Publish(agentSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, agentSubject, err))
		return err
	}

	if p.globalSubject != agentSubject {
		if err := p.nc.Publish(p.globalSubject, data); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.globalSubject, err))
			return err
		}
	}

	slog.Debug(fmt.Sprintf("%s - Published dispatch event %s for %s.%s", commsPublisherLogPrefix, event.RequestID, event.Agent, event.Tool))
	return nil
}
