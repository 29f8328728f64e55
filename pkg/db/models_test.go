package db

import (
	"testing"

	"github.com/morezero/agent-delegation/pkg/registry"
)

func TestAgent_Entry(t *testing.T) {
	endpoint := "http://localhost:8002/legal_intake_api"
	version := "1.0.0"
	a := &Agent{
		AgentID:   "intake_agent",
		Endpoint:  &endpoint,
		Transport: "http",
		Version:   &version,
		Status:    AgentStatusActive,
	}

	e := a.Entry()
	if e.AgentID != "intake_agent" || e.Endpoint != endpoint || e.Version != version {
		t.Errorf("db:models_test - unexpected entry %+v", e)
	}
	if e.Transport != registry.TransportHTTP {
		t.Errorf("db:models_test - transport = %s", e.Transport)
	}
	if e.Subject != "" || e.Description != "" {
		t.Errorf("db:models_test - NULL columns should map to empty strings: %+v", e)
	}
}

func TestNullable(t *testing.T) {
	if nullable("") != nil {
		t.Error("db:models_test - empty string should map to NULL")
	}
	if p := nullable("x"); p == nil || *p != "x" {
		t.Errorf("db:models_test - nullable(x) = %v", p)
	}
	if deref(nil) != "" {
		t.Error("db:models_test - deref(nil) should be empty")
	}
}

func TestAgentTool_Tool(t *testing.T) {
	desc := "Sets up the billing account"
	row := &AgentTool{AgentID: "billing_agent", Name: "setup_client_billing", Description: &desc, Required: []string{"client_id"}}
	tool := row.Tool()
	if tool.Name != "setup_client_billing" || tool.Description != desc || len(tool.Required) != 1 {
		t.Errorf("db:models_test - unexpected tool %+v", tool)
	}
	if tool.Fn != nil {
		t.Error("db:models_test - a stored tool has no function")
	}

	bare := (&AgentTool{Name: "noop"}).Tool()
	if bare.Required == nil || bare.Description != "" {
		t.Errorf("db:models_test - NULL columns should map to empty values: %+v", bare)
	}
}
