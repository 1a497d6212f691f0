package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/interaction-router/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// HandledSubject overrides the global handled event subject (HANDLED_EVENT_SUBJECT).
	HandledSubject string
}

// CommsPublisher publishes interaction events to COMMS subjects.
type CommsPublisher struct {
	nc             *comms.Conn
	handledSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	subject := commsutil.SubjectHandled
	if opts != nil && opts.HandledSubject != "" {
		subject = opts.HandledSubject
	}
	return &CommsPublisher{nc: nc, handledSubject: subject}
}

// PublishHandled publishes an InteractionHandledEvent to both the granular
// and global handled event subjects.
func (p *CommsPublisher) PublishHandled(ctx context.Context, event *InteractionHandledEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granularSubject := commsutil.BuildHandledSubject(event.Kind, event.Identifier)
	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
		return err
	}

	if err := p.nc.Publish(p.handledSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.handledSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published handled event %s for %s %s", commsPublisherLogPrefix, event.EventID, event.Kind, event.Identifier))
	return nil
}
