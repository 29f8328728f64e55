package agents

import "fmt"

// IntakeToolset returns the client intake and compliance agent.
func IntakeToolset() *Toolset {
	return NewToolset(Intake, "Intake Agent",
		"Collects client information and performs internal KYC/AML checks during legal client onboarding.",
		Tool{
			Name:        "collect_client_info",
			Description: "Collect a new client's name, contact information, and case type.",
			Required:    []string{"client_name", "contact_info", "case_type"},
			Fn:          collectClientInfo,
		},
		Tool{
			Name:        "perform_internal_kyc_aml",
			Description: "Run an internal KYC/AML compliance check for a known client.",
			Required:    []string{"client_id", "client_name"},
			Fn:          performInternalKYCAML,
		},
	)
}

func collectClientInfo(args Args) (map[string]interface{}, error) {
	name := args.String("client_name", "Unnamed Client")
	contact := args.String("contact_info", "N/A")
	caseType := args.String("case_type", "N/A")
	return map[string]interface{}{
		"client_id":        "LCL-001-" + dashed(name),
		"onboarding_stage": "initial_data_collected",
		"details": fmt.Sprintf("Initial information collected for client %s. Contact: %s, Case Type: %s.",
			name, contact, caseType),
		"next_steps": "Proceed to internal KYC/AML check and document preparation.",
	}, nil
}

func performInternalKYCAML(args Args) (map[string]interface{}, error) {
	clientID := args.String("client_id", "N/A")
	name := args.String("client_name", "Unnamed Client")
	return map[string]interface{}{
		"client_id":        clientID,
		"kyc_aml_status":   "cleared_internal",
		"onboarding_stage": "kyc_aml_checked",
		"details": fmt.Sprintf("Internal KYC/AML check for %s (%s) completed. No immediate red flags found based on firm's internal records. Further external checks may be necessary based on firm policy.",
			name, clientID),
	}, nil
}
