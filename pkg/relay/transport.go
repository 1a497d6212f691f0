// Package relay connects the router to a separate gateway process over
// COMMS: interactions arrive on a queue subscription and every response call
// is a request/reply back to the gateway.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/interaction-router/pkg/commsutil"
	"github.com/morezero/interaction-router/pkg/dispatcher"
	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/session"
)

const transportLogPrefix = "relay:transport"

const defaultCallTimeout = 5 * time.Second

// Transport performs session calls by asking the gateway to execute them.
type Transport struct {
	nc        *comms.Conn
	prefix    string
	timeout   time.Duration
	followUps bool
}

// NewTransportParams holds parameters for NewTransport.
type NewTransportParams struct {
	Conn *comms.Conn
	// SubjectPrefix defaults to commsutil.SubjectOutbound.
	SubjectPrefix string
	// CallTimeout bounds each call when ctx has no deadline.
	CallTimeout time.Duration
	// FollowUps reports whether the gateway can send follow-up messages.
	FollowUps bool
}

// NewTransport creates a new Transport.
func NewTransport(params NewTransportParams) *Transport {
	prefix := params.SubjectPrefix
	if prefix == "" {
		prefix = commsutil.SubjectOutbound
	}
	timeout := params.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Transport{nc: params.Conn, prefix: prefix, timeout: timeout, followUps: params.FollowUps}
}

// WithoutFollowUps returns a copy that reports no follow-up support.
func (t *Transport) WithoutFollowUps() *Transport {
	c := *t
	c.followUps = false
	return &c
}

// CreateInitialResponse implements session.Transport.
func (t *Transport) CreateInitialResponse(ctx context.Context, in *interaction.Interaction, rt session.ResponseType, msg *interaction.Message, flags session.Flags) error {
	call := newCall(session.CallInitial, in, msg)
	call.ResponseType = rt.String()
	call.Flags = uint64(flags)
	return t.do(ctx, call)
}

// EditInitialResponse implements session.Transport.
func (t *Transport) EditInitialResponse(ctx context.Context, in *interaction.Interaction, msg *interaction.Message) error {
	return t.do(ctx, newCall(session.CallEdit, in, msg))
}

// CreateFollowUp implements session.Transport.
func (t *Transport) CreateFollowUp(ctx context.Context, in *interaction.Interaction, msg *interaction.Message, flags session.Flags) error {
	call := newCall(session.CallFollowUp, in, msg)
	call.Flags = uint64(flags)
	return t.do(ctx, call)
}

// SupportsFollowUp implements session.Transport.
func (t *Transport) SupportsFollowUp() bool { return t.followUps }

func newCall(kind string, in *interaction.Interaction, msg *interaction.Message) *dispatcher.ResponseCall {
	call := &dispatcher.ResponseCall{
		ID:            uuid.NewString(),
		Call:          kind,
		InteractionID: in.ID,
		ApplicationID: in.ApplicationID,
		Token:         in.Token,
	}
	if msg != nil {
		call.Content = msg.Content
		call.Embed = msg.Embed
		call.Choices = msg.Choices
	}
	return call
}

func (t *Transport) do(ctx context.Context, call *dispatcher.ResponseCall) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	data, err := commsutil.EncodePayload(call)
	if err != nil {
		return fmt.Errorf("%s - failed to encode %s call: %w", transportLogPrefix, call.Call, err)
	}

	subject := commsutil.BuildOutboundSubject(t.prefix, call.Call)
	reply, err := t.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("%s - %s call for %s: %w", transportLogPrefix, call.Call, call.InteractionID, err)
	}

	var resp dispatcher.CallResponse
	if err := commsutil.DecodePayload(reply.Data, &resp); err != nil {
		return fmt.Errorf("%s - failed to decode %s reply: %w", transportLogPrefix, call.Call, err)
	}
	if !resp.Ok {
		code, message := "UNKNOWN", "no error detail"
		if resp.Error != nil {
			code, message = resp.Error.Code, resp.Error.Message
		}
		return fmt.Errorf("%s - gateway rejected %s call for %s: %s: %s", transportLogPrefix, call.Call, call.InteractionID, code, message)
	}

	slog.Debug(fmt.Sprintf("%s - %s call %s for %s ok", transportLogPrefix, call.Call, call.ID, call.InteractionID))
	return nil
}

var _ session.Transport = (*Transport)(nil)
