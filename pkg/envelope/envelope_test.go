package envelope

import (
	"encoding/json"
	"strings"
	"testing"
)

const envelopeTestPrefix = "envelope:envelope_test"

func TestSuccess_Marshal(t *testing.T) {
	env := Success("intake_agent", "collect_client_info", map[string]interface{}{
		"client_id": "LCL-001-Jane-Doe",
	})

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("%s - marshal failed: %v", envelopeTestPrefix, err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("%s - unmarshal failed: %v", envelopeTestPrefix, err)
	}
	if decoded["status"] != "success" {
		t.Errorf("%s - status = %v, want success", envelopeTestPrefix, decoded["status"])
	}
	if _, ok := decoded["message"]; ok {
		t.Errorf("%s - success envelope should omit message", envelopeTestPrefix)
	}
	result, ok := decoded["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("%s - result missing or wrong type: %T", envelopeTestPrefix, decoded["result"])
	}
	if result["client_id"] != "LCL-001-Jane-Doe" {
		t.Errorf("%s - client_id = %v", envelopeTestPrefix, result["client_id"])
	}
}

func TestFailure_Retryable(t *testing.T) {
	tests := []struct {
		code      string
		retryable bool
	}{
		{CodeTransportFailure, true},
		{CodeUnknownAgent, false},
		{CodeUnknownTool, false},
		{CodeRemoteError, false},
		{CodeInvalidRequest, false},
	}
	for _, tt := range tests {
		env := Failure("billing_agent", "setup_client_billing", tt.code, "boom")
		if env.Status != StatusError {
			t.Errorf("%s - %s: status = %s, want error", envelopeTestPrefix, tt.code, env.Status)
		}
		if env.Retryable != tt.retryable {
			t.Errorf("%s - %s: retryable = %v, want %v", envelopeTestPrefix, tt.code, env.Retryable, tt.retryable)
		}
		if env.IsSuccess() {
			t.Errorf("%s - %s: IsSuccess() = true", envelopeTestPrefix, tt.code)
		}
	}
}

func TestUnknownTool_NamesToolAndAgent(t *testing.T) {
	env := UnknownTool("document_agent", "nonexistent_tool")
	if env.Code != CodeUnknownTool {
		t.Errorf("%s - code = %s, want %s", envelopeTestPrefix, env.Code, CodeUnknownTool)
	}
	if !strings.Contains(env.Message, "nonexistent_tool") || !strings.Contains(env.Message, "document_agent") {
		t.Errorf("%s - message %q should name tool and agent", envelopeTestPrefix, env.Message)
	}
	if env.Error() != CodeUnknownTool+": "+env.Message {
		t.Errorf("%s - Error() = %q", envelopeTestPrefix, env.Error())
	}
}

func TestEnvelope_RoundTripPreservesNestedResult(t *testing.T) {
	in := Success("conflict_check_agent", "check_conflicts", map[string]interface{}{
		"conflicts_found":   false,
		"onboarding_status": "conflict_check_complete",
		"details":           "none",
	})
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("%s - marshal failed: %v", envelopeTestPrefix, err)
	}
	var out Envelope
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("%s - unmarshal failed: %v", envelopeTestPrefix, err)
	}
	if out.Agent != in.Agent || out.Tool != in.Tool || out.Status != in.Status {
		t.Errorf("%s - header fields changed: %+v", envelopeTestPrefix, out)
	}
	if len(out.Result) != len(in.Result) {
		t.Fatalf("%s - result has %d keys, want %d", envelopeTestPrefix, len(out.Result), len(in.Result))
	}
	for k, v := range in.Result {
		if out.Result[k] != v {
			t.Errorf("%s - result[%s] = %v, want %v", envelopeTestPrefix, k, out.Result[k], v)
		}
	}
}
