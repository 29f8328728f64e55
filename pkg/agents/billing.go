package agents

import "fmt"

// BillingToolset returns the billing setup agent.
func BillingToolset() *Toolset {
	return NewToolset(Billing, "Billing Agent",
		"Sets up billing accounts and fee structures for new clients.",
		Tool{
			Name:        "setup_client_billing",
			Description: "Create a billing account with the agreed fee structure (hourly, flat_fee, contingency).",
			Required:    []string{"client_id", "fee_structure"},
			Fn:          setupClientBilling,
		},
	)
}

func setupClientBilling(args Args) (map[string]interface{}, error) {
	clientID := args.String("client_id", "N/A")
	feeStructure := args.String("fee_structure", "hourly")
	return map[string]interface{}{
		"billing_account_id": "BILL-" + clientID,
		"onboarding_status":  "billing_setup_complete",
		"details": fmt.Sprintf("Billing account for client %s setup with %s fee structure. Ready for time entry and invoicing.",
			clientID, feeStructure),
	}, nil
}
