package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	// SubjectInbound carries interactions published by a gateway process.
	SubjectInbound = "interactions.inbound"
	// SubjectOutbound carries response calls back to the gateway.
	SubjectOutbound = "interactions.outbound"
	// SubjectHandled carries InteractionHandledEvent notifications.
	SubjectHandled = "interactions.handled"
	// QueueRouters is the queue group shared by router instances.
	QueueRouters = "interaction-routers"
)

// BuildHandledSubject builds a granular handled-event subject, e.g.
// interactions.handled.command.settings.
func BuildHandledSubject(kind, identifier string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectHandled, kind, Token(identifier))
}

// BuildOutboundSubject builds the subject for one outbound call kind, e.g.
// interactions.outbound.followup.
func BuildOutboundSubject(prefix, call string) string {
	if prefix == "" {
		prefix = SubjectOutbound
	}
	return prefix + "." + call
}

// Token makes s safe for use as a single subject token. Dots, spaces and
// wildcards become underscores; an empty string becomes "_".
func Token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '*', '>', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
