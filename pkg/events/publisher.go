package events

import (
	"context"
	"fmt"
	"log/slog"
)

// EventPublisher delivers InteractionHandledEvents.
type EventPublisher interface {
	PublishHandled(ctx context.Context, event *InteractionHandledEvent) error
}

// NoOpPublisher drops every event.
type NoOpPublisher struct{}

// PublishHandled is a no-op.
func (p *NoOpPublisher) PublishHandled(_ context.Context, _ *InteractionHandledEvent) error {
	return nil
}

// CallbackPublisher hands each event to a function.
type CallbackPublisher struct {
	callback func(ctx context.Context, event *InteractionHandledEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *InteractionHandledEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishHandled calls the callback.
func (p *CallbackPublisher) PublishHandled(ctx context.Context, event *InteractionHandledEvent) error {
	return p.callback(ctx, event)
}

// LogPublisher writes one debug line per event, failures at warn level.
// It is the publisher of the direct gateway mode, which has no bus.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger means slog.Default().
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishHandled logs the event.
func (p *LogPublisher) PublishHandled(ctx context.Context, e *InteractionHandledEvent) error {
	logger := p.logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelDebug
	if e.Outcome == OutcomeFailed {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, fmt.Sprintf("events:publisher - handled %s %q outcome=%s calls=%d pages=%d in %dms",
		e.Kind, e.Route, e.Outcome, e.Calls, e.Pages, e.DurationMs),
		slog.String("interaction", e.InteractionID))
	return nil
}
