package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	// SubjectCall is where the coordinator accepts call_sub_agent_tool requests over COMMS.
	SubjectCall = "delegation.call_sub_agent_tool"
	// SubjectDispatchEvents receives one event per delegation attempt.
	SubjectDispatchEvents = "delegation.dispatched"
	// AgentPlaceholder is replaced with the agent id in per-agent subject patterns.
	AgentPlaceholder = "{agent}"
	// QueueWorkers is the queue group workers join so replicas share a subject.
	QueueWorkers = "agent-workers"
)

// BuildAgentSubject builds the request subject a worker serves run_tool on.
func BuildAgentSubject(agentID string) string {
	return fmt.Sprintf("agent.%s.run_tool", agentID)
}

// BuildDispatchEventSubject builds a per-agent dispatch event subject.
func BuildDispatchEventSubject(agentID string) string {
	return fmt.Sprintf("%s.%s", SubjectDispatchEvents, agentID)
}

// ExpandAgentPattern substitutes agentID into a pattern such as "delegation.dispatched.{agent}".
// An empty pattern falls back to BuildDispatchEventSubject.
func ExpandAgentPattern(pattern, agentID string) string {
	if pattern == "" {
		return BuildDispatchEventSubject(agentID)
	}
	return strings.ReplaceAll(pattern, AgentPlaceholder, agentID)
}
