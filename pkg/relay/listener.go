package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/interaction-router/pkg/commsutil"
	"github.com/morezero/interaction-router/pkg/dispatcher"
)

const listenerLogPrefix = "relay:listener"

// Listener feeds interactions from the inbound subject into a Dispatcher.
// Router instances share a queue group so each interaction is handled once.
type Listener struct {
	nc         *comms.Conn
	dispatcher *dispatcher.Dispatcher
	transport  *Transport
	subject    string
	queue      string
	timeout    time.Duration

	mu      sync.Mutex
	sub     *comms.Subscription
	stopped bool
	wg      sync.WaitGroup
}

// NewListenerParams holds parameters for NewListener.
type NewListenerParams struct {
	Conn       *comms.Conn
	Dispatcher *dispatcher.Dispatcher
	Transport  *Transport
	// Subject defaults to commsutil.SubjectInbound.
	Subject string
	// Queue defaults to commsutil.QueueRouters.
	Queue string
	// HandleTimeout bounds the handling of one interaction.
	HandleTimeout time.Duration
}

// NewListener creates a new Listener.
func NewListener(params NewListenerParams) *Listener {
	subject := params.Subject
	if subject == "" {
		subject = commsutil.SubjectInbound
	}
	queue := params.Queue
	if queue == "" {
		queue = commsutil.QueueRouters
	}
	timeout := params.HandleTimeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &Listener{
		nc:         params.Conn,
		dispatcher: params.Dispatcher,
		transport:  params.Transport,
		subject:    subject,
		queue:      queue,
		timeout:    timeout,
	}
}

// Start subscribes to the inbound subject. Each interaction is handled on its
// own goroutine under ctx.
func (l *Listener) Start(ctx context.Context) error {
	sub, err := l.nc.QueueSubscribe(l.subject, l.queue, func(msg *comms.Msg) {
		l.receive(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", listenerLogPrefix, l.subject, err)
	}
	l.mu.Lock()
	l.sub = sub
	l.mu.Unlock()

	slog.Info(fmt.Sprintf("%s - Subscribed to %s (queue %s)", listenerLogPrefix, l.subject, l.queue))
	return nil
}

// Stop unsubscribes and waits for in-flight interactions.
func (l *Listener) Stop() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.stopped = true
	l.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn(fmt.Sprintf("%s - unsubscribe %s: %v", listenerLogPrefix, l.subject, err))
		}
	}
	l.wg.Wait()
	slog.Info(fmt.Sprintf("%s - Stopped", listenerLogPrefix))
}

func (l *Listener) receive(ctx context.Context, msg *comms.Msg) {
	var req dispatcher.InteractionRequest
	if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", listenerLogPrefix, err))
		l.ack(msg, req.ID, &dispatcher.ErrorDetail{Code: "INVALID_REQUEST", Message: "Failed to decode request"})
		return
	}
	if req.Type != dispatcher.RequestTypeInteraction || req.Interaction == nil {
		slog.Warn(fmt.Sprintf("%s - ignoring request %s of type %q", listenerLogPrefix, req.ID, req.Type))
		l.ack(msg, req.ID, &dispatcher.ErrorDetail{Code: "INVALID_REQUEST", Message: "Expected an interaction"})
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.ack(msg, req.ID, &dispatcher.ErrorDetail{Code: "UNAVAILABLE", Message: "Router is shutting down", Retryable: true})
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()
	l.ack(msg, req.ID, nil)

	transport := l.transport
	if req.Ctx != nil && req.Ctx.FollowUps != nil && !*req.Ctx.FollowUps {
		transport = transport.WithoutFollowUps()
	}

	go func() {
		defer l.wg.Done()
		hctx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()
		l.dispatcher.HandleWith(hctx, req.Interaction, transport)
	}()
}

// ack replies to gateways that publish with a reply subject.
func (l *Listener) ack(msg *comms.Msg, id string, detail *dispatcher.ErrorDetail) {
	if msg.Reply == "" {
		return
	}
	data, err := commsutil.EncodePayload(&dispatcher.CallResponse{ID: id, Ok: detail == nil, Error: detail})
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode ack: %v", listenerLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to ack %s: %v", listenerLogPrefix, id, err))
	}
}
