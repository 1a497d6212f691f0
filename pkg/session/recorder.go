package session

import (
	"context"
	"sync"

	"github.com/morezero/interaction-router/pkg/interaction"
)

// Call kinds recorded by Recorder.
const (
	CallInitial  = "initial"
	CallEdit     = "edit"
	CallFollowUp = "followup"
)

// RecordedCall is one outbound call captured by Recorder.
type RecordedCall struct {
	Call          string
	InteractionID string
	Type          ResponseType
	Message       *interaction.Message
	Flags         Flags
}

// Recorder is a Transport that records calls instead of sending them (for
// testing and dry runs).
type Recorder struct {
	// NoFollowUps makes SupportsFollowUp return false.
	NoFollowUps bool
	// Err, when set, is returned from every call.
	Err error

	mu    sync.Mutex
	calls []RecordedCall
}

// CreateInitialResponse records an initial response.
func (r *Recorder) CreateInitialResponse(_ context.Context, in *interaction.Interaction, rt ResponseType, msg *interaction.Message, flags Flags) error {
	return r.record(RecordedCall{Call: CallInitial, InteractionID: in.ID, Type: rt, Message: msg, Flags: flags})
}

// EditInitialResponse records an edit.
func (r *Recorder) EditInitialResponse(_ context.Context, in *interaction.Interaction, msg *interaction.Message) error {
	return r.record(RecordedCall{Call: CallEdit, InteractionID: in.ID, Message: msg})
}

// CreateFollowUp records a follow-up.
func (r *Recorder) CreateFollowUp(_ context.Context, in *interaction.Interaction, msg *interaction.Message, flags Flags) error {
	return r.record(RecordedCall{Call: CallFollowUp, InteractionID: in.ID, Message: msg, Flags: flags})
}

// SupportsFollowUp reports !NoFollowUps.
func (r *Recorder) SupportsFollowUp() bool { return !r.NoFollowUps }

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedCall, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *Recorder) record(c RecordedCall) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	return nil
}
