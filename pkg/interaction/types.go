// Package interaction defines the inbound interaction value, the outbound
// message shape and the error taxonomy shared by the router packages.
package interaction

import "github.com/morezero/interaction-router/pkg/embed"

// Kind classifies an interaction.
type Kind int

const (
	KindUnknown Kind = iota
	KindCommand
	KindComponent
	KindAutocomplete
	KindModal
)

// Kinds lists every routable kind.
var Kinds = []Kind{KindCommand, KindComponent, KindAutocomplete, KindModal}

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindComponent:
		return "component"
	case KindAutocomplete:
		return "autocomplete"
	case KindModal:
		return "modal"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	for _, k := range Kinds {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

// OptionType mirrors the platform's application-command option types.
type OptionType int

const (
	OptionSubCommand      OptionType = 1
	OptionSubCommandGroup OptionType = 2
	OptionString          OptionType = 3
	OptionInteger         OptionType = 4
	OptionBoolean         OptionType = 5
	OptionUser            OptionType = 6
	OptionChannel         OptionType = 7
	OptionRole            OptionType = 8
	OptionMentionable     OptionType = 9
	OptionNumber          OptionType = 10
	OptionAttachment      OptionType = 11
)

// IsNested reports whether the option selects a sub-command or group.
func (t OptionType) IsNested() bool {
	return t == OptionSubCommand || t == OptionSubCommandGroup
}

// Option is one command option as received from the platform. Sub-command
// and group options carry their own nested Options.
type Option struct {
	Name    string      `json:"name"`
	Type    OptionType  `json:"type"`
	Value   interface{} `json:"value,omitempty"`
	Focused bool        `json:"focused,omitempty"`
	Options []Option    `json:"options,omitempty"`
}

// Interaction is an inbound event that needs a response. It is supplied by a
// transport and never modified by the router.
type Interaction struct {
	ID            string            `json:"id"`
	ApplicationID string            `json:"applicationId"`
	Token         string            `json:"token"`
	Kind          Kind              `json:"kind"`
	Identifier    string            `json:"identifier"`
	Options       []Option          `json:"options,omitempty"`
	Values        []string          `json:"values,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	UserID        string            `json:"userId,omitempty"`
	GuildID       string            `json:"guildId,omitempty"`
	ChannelID     string            `json:"channelId,omitempty"`
	Locale        string            `json:"locale,omitempty"`
}

// Choice is one autocomplete suggestion.
type Choice struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Message is the content of an outbound response.
type Message struct {
	Content string          `json:"content,omitempty"`
	Embed   *embed.Document `json:"embed,omitempty"`
	Choices []Choice        `json:"choices,omitempty"`
}

// Text builds a plain text message.
func Text(s string) *Message {
	return &Message{Content: s}
}

// Embed builds a message carrying a single rich document.
func Embed(d *embed.Document) *Message {
	return &Message{Embed: d}
}

// IsEmpty reports whether there is nothing to send.
func (m *Message) IsEmpty() bool {
	return m == nil || (m.Content == "" && m.Embed == nil && len(m.Choices) == 0)
}
