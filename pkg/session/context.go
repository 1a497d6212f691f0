package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/morezero/interaction-router/pkg/interaction"
)

// Invoker is anything a Context can chain to. registry.Action implements it.
type Invoker interface {
	Invoke(ctx context.Context, c *Context, opts interaction.Options) (*interaction.Message, error)
}

// Context is the surface an Action uses to respond to its interaction.
type Context struct {
	session *Session
	opts    interaction.Options
	path    []string
	logger  *slog.Logger
}

// NewContext wraps a session for one Action invocation. path is the resolved
// identifier followed by any sub-command names.
func NewContext(s *Session, opts interaction.Options, path []string) *Context {
	if opts == nil {
		opts = interaction.Options{}
	}
	in := s.in
	return &Context{
		session: s,
		opts:    opts,
		path:    path,
		logger: slog.Default().With(
			"interaction", in.ID,
			"kind", in.Kind.String(),
			"route", strings.Join(path, " "),
		),
	}
}

// Interaction returns the interaction being handled.
func (c *Context) Interaction() *interaction.Interaction { return c.session.in }

// Options returns the flattened options.
func (c *Context) Options() interaction.Options { return c.opts }

// Path returns the resolved route.
func (c *Context) Path() []string { return c.path }

// Session returns the underlying response session.
func (c *Context) Session() *Session { return c.session }

// Logger returns a logger annotated with the interaction.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Defer acknowledges the interaction; see Session.Defer.
func (c *Context) Defer(ctx context.Context, ephemeral bool) error {
	return c.session.Defer(ctx, ephemeral)
}

// Send delivers a message; see Session.Send.
func (c *Context) Send(ctx context.Context, msg *interaction.Message, opts ...SendOption) error {
	return c.session.Send(ctx, msg, opts...)
}

// Edit replaces the initial response; see Session.Edit.
func (c *Context) Edit(ctx context.Context, msg *interaction.Message) error {
	return c.session.Edit(ctx, msg)
}

// Chain runs another Action on the same session with the same options.
// With followUp the chained Action's result is sent immediately as a
// follow-up and nil is returned; otherwise the result is returned for the
// caller to send or return.
func (c *Context) Chain(ctx context.Context, next Invoker, followUp bool) (*interaction.Message, error) {
	if followUp && !c.session.CanFollowUp() {
		return nil, interaction.NewError(interaction.CodeInvalidState, "chained follow-ups are not supported on this transport")
	}
	msg, err := next.Invoke(ctx, c, c.opts)
	if err != nil || !followUp {
		return msg, err
	}
	if msg.IsEmpty() {
		return nil, nil
	}
	return nil, c.session.Send(ctx, msg, FollowUp())
}
