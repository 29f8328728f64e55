package agents

import "fmt"

// ConflictCheckToolset returns the conflict of interest agent.
func ConflictCheckToolset() *Toolset {
	return NewToolset(ConflictCheck, "Conflict Check Agent",
		"Performs conflict of interest checks for prospective clients.",
		Tool{
			Name:        "check_conflicts",
			Description: "Check a prospective client against internal records for conflicts of interest.",
			Required:    []string{"client_name"},
			Fn:          checkConflicts,
		},
	)
}

// checkConflicts has no conflicts database behind it; every check comes back clear.
func checkConflicts(args Args) (map[string]interface{}, error) {
	name := args.String("client_name", "Unnamed Client")
	return map[string]interface{}{
		"conflicts_found":   false,
		"onboarding_status": "conflict_check_complete",
		"details": fmt.Sprintf("Conflict check for %s completed against internal records. No direct conflicts found at this stage. Proceed with caution and further due diligence.",
			name),
	}, nil
}
