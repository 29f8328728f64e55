package commsutil

import "testing"

func TestEncodePayload_Unserializable(t *testing.T) {
	if _, err := EncodePayload(make(chan int)); err == nil {
		t.Error("commsutil:codec_test - expected error for channel")
	}
}

func TestDecodePayload(t *testing.T) {
	var got struct {
		ToolName string                 `json:"tool_name"`
		ToolArgs map[string]interface{} `json:"tool_args"`
	}
	err := DecodePayload([]byte(`{"tool_name":"check_conflicts","tool_args":{"client_name":"Jane Doe"}}`), &got)
	if err != nil {
		t.Fatalf("commsutil:codec_test - unexpected error: %v", err)
	}
	if got.ToolName != "check_conflicts" {
		t.Errorf("commsutil:codec_test - ToolName = %q", got.ToolName)
	}
	if got.ToolArgs["client_name"] != "Jane Doe" {
		t.Errorf("commsutil:codec_test - client_name = %v", got.ToolArgs["client_name"])
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	var v map[string]interface{}
	if err := DecodePayload(nil, &v); err == nil {
		t.Error("commsutil:codec_test - expected error for empty payload")
	}
	if err := DecodePayload([]byte(`{not json`), &v); err == nil {
		t.Error("commsutil:codec_test - expected error for malformed payload")
	}
}
