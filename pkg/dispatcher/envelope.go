// Package dispatcher turns inbound interactions into Action invocations and
// the resulting response calls.
package dispatcher

import (
	"github.com/morezero/interaction-router/pkg/embed"
	"github.com/morezero/interaction-router/pkg/interaction"
)

// InteractionRequest is the JSON envelope a gateway publishes on the inbound
// COMMS subject.
type InteractionRequest struct {
	ID          string                   `json:"id"`
	Type        string                   `json:"type"`
	Interaction *interaction.Interaction `json:"interaction"`
	Ctx         *InvocationContext       `json:"ctx,omitempty"`
}

// RequestTypeInteraction is the only InteractionRequest.Type accepted.
const RequestTypeInteraction = "interaction"

// InvocationContext holds context from the gateway.
type InvocationContext struct {
	RequestID     string `json:"requestId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	Shard         int    `json:"shard,omitempty"`
	ReceivedAt    string `json:"receivedAt,omitempty"`
	// FollowUps is false when the gateway can only answer once.
	FollowUps *bool `json:"followUps,omitempty"`
}

// ResponseCall is one outbound call the gateway performs on the router's behalf.
type ResponseCall struct {
	ID            string               `json:"id"`
	Call          string               `json:"call"`
	InteractionID string               `json:"interactionId"`
	ApplicationID string               `json:"applicationId"`
	Token         string               `json:"token"`
	ResponseType  string               `json:"responseType,omitempty"`
	Flags         uint64               `json:"flags,omitempty"`
	Content       string               `json:"content,omitempty"`
	Embed         *embed.Document      `json:"embed,omitempty"`
	Choices       []interaction.Choice `json:"choices,omitempty"`
}

// CallResponse is the gateway's reply to a ResponseCall.
type CallResponse struct {
	ID    string       `json:"id"`
	Ok    bool         `json:"ok"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}
