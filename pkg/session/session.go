package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/interaction-router/pkg/embed"
	"github.com/morezero/interaction-router/pkg/interaction"
)

const logPrefix = "session:session"

// State is the lifecycle state of a Session.
type State int

const (
	StateUnset State = iota
	StateDeferred
	StateSent
	StateFollowedUp
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateDeferred:
		return "deferred"
	case StateSent:
		return "sent"
	case StateFollowedUp:
		return "followed_up"
	default:
		return "unknown"
	}
}

// Session tracks what has been sent for one interaction. It is owned by the
// goroutine handling that interaction and is not safe for concurrent use.
type Session struct {
	in        *interaction.Interaction
	transport Transport

	state     State
	ephemeral *bool
	followUps int
	calls     int
	pages     int
}

// New creates a Session in StateUnset.
func New(in *interaction.Interaction, transport Transport) *Session {
	return &Session{in: in, transport: transport}
}

// Interaction returns the interaction the session answers.
func (s *Session) Interaction() *interaction.Interaction { return s.in }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// InitialSent reports whether the initial response (or deferral) went out.
func (s *Session) InitialSent() bool { return s.state != StateUnset }

// Ephemeral returns the session privacy and whether it has been fixed yet.
func (s *Session) Ephemeral() (ephemeral, fixed bool) {
	if s.ephemeral == nil {
		return false, false
	}
	return *s.ephemeral, true
}

// FollowUps returns the number of follow-up messages sent.
func (s *Session) FollowUps() int { return s.followUps }

// Calls returns the number of successful outbound calls.
func (s *Session) Calls() int { return s.calls }

// Pages returns the number of embed pages emitted.
func (s *Session) Pages() int { return s.pages }

// CanFollowUp reports whether follow-up messages are possible at all for
// this interaction.
func (s *Session) CanFollowUp() bool {
	return s.in.Kind != interaction.KindAutocomplete && s.transport.SupportsFollowUp()
}

// SendOption customizes a Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	ephemeral *bool
	followUp  bool
}

// Ephemeral sets the privacy of the message.
func Ephemeral(v bool) SendOption {
	return func(o *sendOptions) { o.ephemeral = &v }
}

// FollowUp sends the message as an additional follow-up.
func FollowUp() SendOption {
	return func(o *sendOptions) { o.followUp = true }
}

// Defer acknowledges the interaction without content. It is a no-op once any
// response exists.
func (s *Session) Defer(ctx context.Context, ephemeral bool) error {
	if s.state != StateUnset {
		return nil
	}
	if s.in.Kind == interaction.KindAutocomplete {
		return interaction.NewError(interaction.CodeInvalidState, "autocomplete interactions cannot be deferred")
	}

	rt := ResponseDeferredMessage
	if s.in.Kind == interaction.KindComponent {
		rt = ResponseDeferredUpdate
	}
	if err := s.transport.CreateInitialResponse(ctx, s.in, rt, nil, flagsFor(ephemeral)); err != nil {
		return fmt.Errorf("%s - defer: %w", logPrefix, err)
	}
	s.calls++
	s.ephemeral = &ephemeral
	s.state = StateDeferred
	slog.Debug(fmt.Sprintf("%s - deferred interaction=%s type=%s ephemeral=%v", logPrefix, s.in.ID, rt, ephemeral))
	return nil
}

// Send delivers msg. Oversized embeds are paginated first; the first page
// follows the normal rules and the remaining pages go out as follow-ups.
// Overflow is detected before anything is sent.
func (s *Session) Send(ctx context.Context, msg *interaction.Message, opts ...SendOption) error {
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}
	if msg.IsEmpty() {
		return interaction.NewError(interaction.CodeInvalidArgument, "message is empty")
	}

	pages, err := paginate(msg)
	if err != nil {
		return err
	}
	if len(pages) > 1 && !s.CanFollowUp() {
		// Only one page can be delivered here.
		return interaction.NewError(interaction.CodePaginationOverflow,
			fmt.Sprintf("content needs %d pages but follow-ups are not available", len(pages)))
	}

	ephemeral, err := s.sendOne(ctx, pages[0], o)
	if err != nil {
		return err
	}
	for _, page := range pages[1:] {
		if err := s.followUp(ctx, page, ephemeral); err != nil {
			return err
		}
	}
	return nil
}

// Edit replaces the content of the initial response.
func (s *Session) Edit(ctx context.Context, msg *interaction.Message) error {
	if s.state == StateUnset {
		return interaction.NewError(interaction.CodeInvalidState, "no initial response to edit")
	}
	if msg.IsEmpty() {
		return interaction.NewError(interaction.CodeInvalidArgument, "message is empty")
	}
	if msg.Embed != nil && !embed.Fits(msg.Embed) {
		return interaction.NewError(interaction.CodeInvalidArgument, "edited content must fit a single page")
	}
	if err := s.transport.EditInitialResponse(ctx, s.in, msg); err != nil {
		return fmt.Errorf("%s - edit: %w", logPrefix, err)
	}
	s.calls++
	s.countPages(msg)
	if s.state == StateDeferred {
		s.state = StateSent
	}
	return nil
}

// sendOne sends a single page and returns the privacy it was sent with.
func (s *Session) sendOne(ctx context.Context, msg *interaction.Message, o sendOptions) (bool, error) {
	if o.followUp {
		if !s.CanFollowUp() {
			return false, interaction.NewError(interaction.CodeInvalidState,
				fmt.Sprintf("follow-ups are not supported for %s interactions on this transport", s.in.Kind))
		}
		if s.state == StateUnset {
			// The platform needs an initial response before any follow-up.
			return s.initial(ctx, msg, o.ephemeral, true)
		}
		ephemeral, _ := s.Ephemeral()
		if o.ephemeral != nil {
			ephemeral = *o.ephemeral
		}
		return ephemeral, s.followUp(ctx, msg, ephemeral)
	}

	switch s.state {
	case StateUnset:
		return s.initial(ctx, msg, o.ephemeral, false)
	case StateDeferred:
		if o.ephemeral != nil && *o.ephemeral != *s.ephemeral {
			return false, interaction.NewError(interaction.CodeInvalidState, "ephemeral has already been set, cannot change it")
		}
		if err := s.transport.EditInitialResponse(ctx, s.in, msg); err != nil {
			return false, fmt.Errorf("%s - edit deferred response: %w", logPrefix, err)
		}
		s.calls++
		s.countPages(msg)
		s.state = StateSent
		return *s.ephemeral, nil
	default:
		return false, interaction.NewError(interaction.CodeInvalidState,
			fmt.Sprintf("initial response already sent (state %s); use a follow-up", s.state))
	}
}

func (s *Session) initial(ctx context.Context, msg *interaction.Message, ephemeral *bool, asNew bool) (bool, error) {
	eph := false
	if ephemeral != nil {
		eph = *ephemeral
	}

	rt := ResponseMessage
	switch {
	case s.in.Kind == interaction.KindAutocomplete:
		rt = ResponseAutocomplete
	case s.in.Kind == interaction.KindComponent && !asNew:
		rt = ResponseUpdate
	}

	if err := s.transport.CreateInitialResponse(ctx, s.in, rt, msg, flagsFor(eph)); err != nil {
		return false, fmt.Errorf("%s - initial response: %w", logPrefix, err)
	}
	s.calls++
	s.countPages(msg)
	s.ephemeral = &eph
	s.state = StateSent
	return eph, nil
}

func (s *Session) followUp(ctx context.Context, msg *interaction.Message, ephemeral bool) error {
	if err := s.transport.CreateFollowUp(ctx, s.in, msg, flagsFor(ephemeral)); err != nil {
		return fmt.Errorf("%s - follow-up: %w", logPrefix, err)
	}
	s.calls++
	s.countPages(msg)
	s.followUps++
	s.state = StateFollowedUp
	return nil
}

func (s *Session) countPages(msg *interaction.Message) {
	if msg.Embed != nil {
		s.pages++
	}
}

func paginate(msg *interaction.Message) ([]*interaction.Message, error) {
	if msg.Embed == nil || !embed.NeedsSplit(msg.Embed) {
		return []*interaction.Message{msg}, nil
	}
	docs, err := embed.Split(msg.Embed)
	if err != nil {
		return nil, err
	}
	pages := make([]*interaction.Message, len(docs))
	for i, d := range docs {
		pages[i] = &interaction.Message{Embed: d}
	}
	pages[0].Content = msg.Content
	pages[0].Choices = msg.Choices
	return pages, nil
}
