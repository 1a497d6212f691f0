// Package events defines the interaction-handled event and the publishers
// that deliver it.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Outcomes of a handled interaction.
const (
	OutcomeOK          = "ok"
	OutcomeUserError   = "user_error"
	OutcomeUnresolved  = "unresolved"
	OutcomeFailed      = "failed"
	OutcomeUnsupported = "unsupported"
)

// InteractionHandledEvent is emitted once the dispatcher finishes an
// interaction, whatever the outcome.
type InteractionHandledEvent struct {
	EventID       string `json:"eventId"`
	InteractionID string `json:"interactionId"`
	Kind          string `json:"kind"`
	Identifier    string `json:"identifier"`
	Route         string `json:"route,omitempty"`
	Outcome       string `json:"outcome"`
	ErrorCode     string `json:"errorCode,omitempty"`
	Calls         int    `json:"calls"`
	FollowUps     int    `json:"followUps"`
	Pages         int    `json:"pages"`
	DurationMs    int64  `json:"durationMs"`
	UserID        string `json:"userId,omitempty"`
	GuildID       string `json:"guildId,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// NewInteractionHandledEvent stamps a new event with an id and the current time.
func NewInteractionHandledEvent(interactionID, kind, identifier string) *InteractionHandledEvent {
	return &InteractionHandledEvent{
		EventID:       uuid.NewString(),
		InteractionID: interactionID,
		Kind:          kind,
		Identifier:    identifier,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
	}
}
