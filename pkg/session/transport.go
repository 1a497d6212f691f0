// Package session enforces the response protocol for a single interaction:
// one initial response (optionally deferred), then any number of follow-ups.
package session

import (
	"context"

	"github.com/morezero/interaction-router/pkg/interaction"
)

// ResponseType selects how the initial response is delivered.
type ResponseType int

const (
	// ResponseMessage creates a new message.
	ResponseMessage ResponseType = iota + 1
	// ResponseUpdate updates the message a component is attached to.
	ResponseUpdate
	// ResponseDeferredMessage acknowledges now and creates the message later.
	ResponseDeferredMessage
	// ResponseDeferredUpdate acknowledges now and updates the component message later.
	ResponseDeferredUpdate
	// ResponseAutocomplete returns autocomplete choices.
	ResponseAutocomplete
)

func (t ResponseType) String() string {
	switch t {
	case ResponseMessage:
		return "message"
	case ResponseUpdate:
		return "update"
	case ResponseDeferredMessage:
		return "deferred_message"
	case ResponseDeferredUpdate:
		return "deferred_update"
	case ResponseAutocomplete:
		return "autocomplete"
	default:
		return "unknown"
	}
}

// Flags are message flags sent with a response.
type Flags uint64

// FlagEphemeral makes a message visible only to the invoking user.
const FlagEphemeral Flags = 1 << 6

func flagsFor(ephemeral bool) Flags {
	if ephemeral {
		return FlagEphemeral
	}
	return 0
}

// Transport performs the outbound calls for a session. Implementations may
// fail with a transport error; the session does not retry.
type Transport interface {
	CreateInitialResponse(ctx context.Context, in *interaction.Interaction, rt ResponseType, msg *interaction.Message, flags Flags) error
	EditInitialResponse(ctx context.Context, in *interaction.Interaction, msg *interaction.Message) error
	CreateFollowUp(ctx context.Context, in *interaction.Interaction, msg *interaction.Message, flags Flags) error
	// SupportsFollowUp is false for transports that can only answer once,
	// such as a plain HTTP interaction endpoint.
	SupportsFollowUp() bool
}
