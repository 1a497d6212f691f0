package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/morezero/interaction-router/pkg/events"
	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/metrics"
	"github.com/morezero/interaction-router/pkg/registry"
	"github.com/morezero/interaction-router/pkg/session"
)

const logPrefix = "dispatcher:dispatch"

// Messages shown to end users when an interaction fails.
const (
	MessageFailed          = interaction.DefaultFailureMessage
	MessageContentTooLarge = "Content too large"
	MessageInternalError   = "Internal error"
)

// Dispatcher routes interactions to registry Actions.
type Dispatcher struct {
	registry  *registry.Registry
	transport session.Transport
	publisher events.EventPublisher
	metrics   *metrics.Metrics
}

// NewDispatcherParams holds parameters for NewDispatcher.
type NewDispatcherParams struct {
	Registry  *registry.Registry
	Transport session.Transport
	// Publisher defaults to events.NoOpPublisher.
	Publisher events.EventPublisher
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	return &Dispatcher{
		registry:  params.Registry,
		transport: params.Transport,
		publisher: pub,
		metrics:   params.Metrics,
	}
}

// Handle processes one interaction with the dispatcher's transport. It never
// returns an error: every failure is logged and, where possible, turned into
// a short message for the user.
func (d *Dispatcher) Handle(ctx context.Context, in *interaction.Interaction) {
	d.HandleWith(ctx, in, d.transport)
}

// HandleWith is Handle with an explicit transport, for sources that answer
// each interaction through its own channel.
func (d *Dispatcher) HandleWith(ctx context.Context, in *interaction.Interaction, transport session.Transport) {
	start := time.Now()
	done := d.metrics.Begin()
	defer done()

	event := events.NewInteractionHandledEvent(in.ID, in.Kind.String(), in.Identifier)
	event.UserID = in.UserID
	event.GuildID = in.GuildID

	s := session.New(in, transport)
	d.handle(ctx, in, s, event)

	event.Calls = s.Calls()
	event.FollowUps = s.FollowUps()
	event.Pages = s.Pages()
	event.DurationMs = time.Since(start).Milliseconds()

	d.metrics.Observe(metrics.Observation{
		Kind:      event.Kind,
		Outcome:   event.Outcome,
		Duration:  time.Since(start),
		Pages:     event.Pages,
		FollowUps: event.FollowUps,
	})
	if err := d.publisher.PublishHandled(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish handled event for %s: %v", logPrefix, in.ID, err))
	}
}

func (d *Dispatcher) handle(ctx context.Context, in *interaction.Interaction, s *session.Session, event *events.InteractionHandledEvent) {
	switch in.Kind {
	case interaction.KindCommand, interaction.KindComponent, interaction.KindAutocomplete, interaction.KindModal:
	default:
		slog.Warn(fmt.Sprintf("%s - dropping interaction %s with unsupported kind %d", logPrefix, in.ID, in.Kind))
		event.Outcome = events.OutcomeUnsupported
		return
	}

	subPath, leaf := descend(in)
	route := append([]string{in.Identifier}, subPath...)
	event.Route = strings.Join(route, " ")

	action, err := d.registry.Resolve(in.Kind, in.Identifier, subPath)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - no action for %s %q: %v", logPrefix, in.Kind, event.Route, err))
		event.Outcome = events.OutcomeUnresolved
		event.ErrorCode = interaction.CodeOf(err)
		d.fail(ctx, s, err)
		return
	}

	c := session.NewContext(s, buildOptions(in, leaf), route)
	c.Logger().Debug(fmt.Sprintf("%s - invoking %s (%s)", logPrefix, action.Name, action.Variant))

	msg, err := invoke(ctx, action, c)
	if err == nil && !msg.IsEmpty() {
		err = d.deliver(ctx, s, msg, false)
	}
	if err != nil {
		event.ErrorCode = interaction.CodeOf(err)
		if event.ErrorCode == interaction.CodeUserFacing {
			event.Outcome = events.OutcomeUserError
		} else {
			event.Outcome = events.OutcomeFailed
		}
		d.fail(ctx, s, err)
		return
	}
	event.Outcome = events.OutcomeOK
}

// invoke runs the Action and turns a panic into an error.
func invoke(ctx context.Context, action *registry.Action, c *session.Context) (msg *interaction.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger().Error(fmt.Sprintf("%s - action %s panicked: %v\n%s", logPrefix, action.Name, r, debug.Stack()))
			msg, err = nil, fmt.Errorf("%s - action %s panicked: %v", logPrefix, action.Name, r)
		}
	}()
	return action.Invoke(ctx, c, c.Options())
}

// deliver sends msg as the initial response, or as a follow-up once one
// exists. Failure messages default to ephemeral.
func (d *Dispatcher) deliver(ctx context.Context, s *session.Session, msg *interaction.Message, failure bool) error {
	var opts []session.SendOption
	switch s.State() {
	case session.StateSent, session.StateFollowedUp:
		opts = append(opts, session.FollowUp())
		if failure {
			opts = append(opts, session.Ephemeral(true))
		}
	case session.StateUnset:
		if failure {
			opts = append(opts, session.Ephemeral(true))
		}
	}
	return s.Send(ctx, msg, opts...)
}

// fail logs err and shows the user the matching short message.
func (d *Dispatcher) fail(ctx context.Context, s *session.Session, err error) {
	in := s.Interaction()
	text := UserMessage(err)

	switch interaction.CodeOf(err) {
	case interaction.CodeUserFacing, interaction.CodeNotFound:
		slog.Info(fmt.Sprintf("%s - interaction %s failed: %v", logPrefix, in.ID, err))
	default:
		slog.Error(fmt.Sprintf("%s - interaction %s (%s %s) failed: %v", logPrefix, in.ID, in.Kind, in.Identifier, err))
	}

	if in.Kind == interaction.KindAutocomplete {
		// There is nowhere to show text; the platform reports the failure itself.
		return
	}
	// A deferred response is still edited; only a sent one needs a follow-up.
	if sent := s.State() == session.StateSent || s.State() == session.StateFollowedUp; sent && !s.CanFollowUp() {
		slog.Warn(fmt.Sprintf("%s - cannot report failure for %s: response already sent", logPrefix, in.ID))
		return
	}
	if err := d.deliver(ctx, s, interaction.Text(text), true); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to send failure message for %s: %v", logPrefix, in.ID, err))
	}
}

// UserMessage maps an error to the text shown to the end user.
func UserMessage(err error) string {
	switch interaction.CodeOf(err) {
	case interaction.CodeUserFacing:
		if e := asError(err); e != nil && e.Message != "" {
			return e.Message
		}
		return MessageFailed
	case interaction.CodeNotFound:
		return MessageFailed
	case interaction.CodePaginationOverflow:
		return MessageContentTooLarge
	default:
		return MessageInternalError
	}
}
