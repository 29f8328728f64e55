package events

import (
	"context"
	"errors"
	"testing"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishDispatched(context.Background(), &DispatchEvent{
		Agent:  "intake_agent",
		Tool:   "collect_client_info",
		Status: "success",
	})
	if err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *DispatchEvent

	pub := NewCallbackPublisher(func(_ context.Context, event *DispatchEvent) error {
		captured = event
		return nil
	})

	event := &DispatchEvent{
		RequestID:  "req-1",
		Agent:      "billing_agent",
		Tool:       "setup_client_billing",
		Status:     "error",
		Code:       "TRANSPORT_FAILURE",
		DurationMs: 12,
		Timestamp:  "2025-01-01T00:00:00Z",
	}

	if err := pub.PublishDispatched(context.Background(), event); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
	if captured == nil {
		t.Fatal("events:publisher_test - expected callback to be called")
	}
	if captured.Agent != "billing_agent" {
		t.Errorf("events:publisher_test - expected agent billing_agent, got %s", captured.Agent)
	}
	if captured.Code != "TRANSPORT_FAILURE" {
		t.Errorf("events:publisher_test - expected code TRANSPORT_FAILURE, got %s", captured.Code)
	}
}

func TestCallbackPublisher_PropagatesError(t *testing.T) {
	want := errors.New("sink down")
	pub := NewCallbackPublisher(func(context.Context, *DispatchEvent) error { return want })
	if err := pub.PublishDispatched(context.Background(), &DispatchEvent{}); !errors.Is(err, want) {
		t.Errorf("events:publisher_test - err = %v, want %v", err, want)
	}
}
