package agents

import "fmt"

// DocumentToolset returns the agreement drafting agent.
func DocumentToolset() *Toolset {
	return NewToolset(Document, "Document Agent",
		"Drafts initial legal documents like client agreements.",
		Tool{
			Name:        "draft_initial_agreement",
			Description: "Draft an initial agreement (e.g. retainer, engagement letter) for a client.",
			Required:    []string{"client_id", "agreement_type"},
			Fn:          draftInitialAgreement,
		},
	)
}

func draftInitialAgreement(args Args) (map[string]interface{}, error) {
	clientID := args.String("client_id", "N/A")
	agreementType := args.String("agreement_type", "client agreement")
	return map[string]interface{}{
		"document_id":       fmt.Sprintf("DOC-%s-%s", clientID, dashed(agreementType)),
		"onboarding_status": "agreement_drafted",
		"next_step":         "Review draft and send to client.",
		"details": fmt.Sprintf("Initial %s drafted for client %s. Standard clauses included. Requires review by paralegal/attorney.",
			agreementType, clientID),
	}, nil
}
