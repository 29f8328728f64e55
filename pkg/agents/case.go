package agents

import "fmt"

// CaseToolset returns the case management agent.
func CaseToolset() *Toolset {
	return NewToolset(Case, "Case Agent",
		"Creates new case entries in the firm's case management system.",
		Tool{
			Name:        "create_new_case_entry",
			Description: "Open a new case entry for a client.",
			Required:    []string{"client_id", "case_title"},
			Fn:          createNewCaseEntry,
		},
	)
}

func createNewCaseEntry(args Args) (map[string]interface{}, error) {
	clientID := args.String("client_id", "N/A")
	title := args.String("case_title", "New Legal Matter")
	return map[string]interface{}{
		"case_id":           fmt.Sprintf("CASE-%s-%s", clientID, dashed(title)),
		"onboarding_status": "case_entry_created",
		"details": fmt.Sprintf("New case entry '%s' created for client %s in the internal case management system. Ready for document association and task assignment.",
			title, clientID),
	}, nil
}
