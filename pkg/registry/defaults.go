package registry

// DefaultEntries returns the legal onboarding agents at their conventional local addresses.
// Only the intake worker is deployed as a real service; the rest are simulated until their
// workers ship.
func DefaultEntries() []Entry {
	return []Entry{
		{AgentID: "intake_agent", Endpoint: "http://localhost:8002/legal_intake_api", Transport: TransportHTTP, Version: "1.0.0",
			Description: "Client intake and internal KYC/AML checks"},
		{AgentID: "document_agent", Endpoint: "http://localhost:8003/legal_docs_api", Transport: TransportSimulated, Version: "1.0.0",
			Description: "Initial agreement drafting"},
		{AgentID: "conflict_check_agent", Endpoint: "http://localhost:8004/legal_conflict_api", Transport: TransportSimulated, Version: "1.0.0",
			Description: "Conflict of interest checks"},
		{AgentID: "billing_agent", Endpoint: "http://localhost:8005/legal_billing_api", Transport: TransportSimulated, Version: "1.0.0",
			Description: "Billing account setup"},
		{AgentID: "case_agent", Endpoint: "http://localhost:8006/legal_case_api", Transport: TransportSimulated, Version: "1.0.0",
			Description: "Case management entries"},
	}
}
