// Package semver parses agent references and checks them against registered agent versions.
package semver

import (
	"fmt"
	"regexp"
	"strings"
)

const logPrefix = "semver:parser"

// AgentRef holds the parsed components of an agent reference such as "intake_agent@^1.2".
type AgentRef struct {
	// Agent identifier (e.g., "intake_agent")
	ID string
	// Version range if specified (e.g., "^1.2.0", "1", ""); empty string means any version
	Range string
	// Raw input string
	Raw string
}

var (
	agentIDRegex      = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// ParseAgentRef parses an agent reference string.
//
// Supported formats:
//   - intake_agent           (any version)
//   - intake_agent@1         (major only)
//   - intake_agent@1.2.0     (exact version)
//   - intake_agent@^1.2.0    (caret range)
//   - intake_agent@>=1.0.0   (comparison range)
func ParseAgentRef(input string) (*AgentRef, error) {
	raw := strings.TrimSpace(input)

	id := raw
	rangeStr := ""
	if atIndex := strings.Index(raw, "@"); atIndex >= 0 {
		id = raw[:atIndex]
		rangeStr = strings.TrimSpace(raw[atIndex+1:])
		if rangeStr == "" {
			return nil, fmt.Errorf("%s - empty version range: %s", logPrefix, raw)
		}
	}

	if !ValidateAgentID(id) {
		return nil, fmt.Errorf("%s - invalid agent id: %q", logPrefix, raw)
	}

	return &AgentRef{ID: id, Range: rangeStr, Raw: raw}, nil
}

// String renders the reference back to its canonical form.
func (r *AgentRef) String() string {
	if r.Range == "" {
		return r.ID
	}
	return r.ID + "@" + r.Range
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g., "3.2.1").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}

// ExtractMajorFromRange extracts the major version if the range is major-only.
// Returns -1 if not a major-only range.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	var major int
	fmt.Sscanf(rangeStr, "%d", &major)
	return major
}

// ValidateAgentID validates an agent id (letters, digits, dots, hyphens, underscores).
func ValidateAgentID(id string) bool {
	return agentIDRegex.MatchString(id)
}
