package events

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishHandled(context.Background(), NewInteractionHandledEvent("i-1", "command", "ping"))
	if err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *InteractionHandledEvent

	pub := NewCallbackPublisher(func(_ context.Context, event *InteractionHandledEvent) error {
		captured = event
		return nil
	})

	event := NewInteractionHandledEvent("i-2", "component", "confirm")
	event.Outcome = OutcomeOK
	event.Calls = 2

	if err := pub.PublishHandled(context.Background(), event); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
	if captured == nil {
		t.Fatal("events:publisher_test - expected callback to be called")
	}
	if captured.Identifier != "confirm" || captured.Calls != 2 {
		t.Errorf("events:publisher_test - captured %+v", captured)
	}
}

func TestNewInteractionHandledEvent(t *testing.T) {
	a := NewInteractionHandledEvent("i-1", "modal", "feedback")
	b := NewInteractionHandledEvent("i-1", "modal", "feedback")

	if _, err := uuid.Parse(a.EventID); err != nil {
		t.Errorf("events:publisher_test - EventID %q is not a uuid: %v", a.EventID, err)
	}
	if a.EventID == b.EventID {
		t.Errorf("events:publisher_test - expected distinct event ids")
	}
	if a.Timestamp == "" {
		t.Errorf("events:publisher_test - expected timestamp")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	pub := NewLogPublisher(logger)

	tests := []struct {
		outcome   string
		wantLevel string
	}{
		{OutcomeOK, "level=DEBUG"},
		{OutcomeFailed, "level=WARN"},
	}
	for _, tt := range tests {
		buf.Reset()
		event := NewInteractionHandledEvent("i-3", "command", "ping")
		event.Route = "ping"
		event.Outcome = tt.outcome
		if err := pub.PublishHandled(context.Background(), event); err != nil {
			t.Fatalf("events:publisher_test - PublishHandled: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, tt.wantLevel) || !strings.Contains(out, "outcome="+tt.outcome) || !strings.Contains(out, "interaction=i-3") {
			t.Errorf("events:publisher_test - log line %q", out)
		}
	}
}
