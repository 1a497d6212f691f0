// Package manifest declares the application commands the router exposes on
// the platform and decides when they need to be synced.
package manifest

// CommandType is the platform command type.
type CommandType string

const (
	CommandChatInput CommandType = "chat_input"
	CommandUser      CommandType = "user"
	CommandMessage   CommandType = "message"
)

// OptionType is the platform option type.
type OptionType string

const (
	OptionSubCommand      OptionType = "sub_command"
	OptionSubCommandGroup OptionType = "sub_command_group"
	OptionString          OptionType = "string"
	OptionInteger         OptionType = "integer"
	OptionBoolean         OptionType = "boolean"
	OptionUser            OptionType = "user"
	OptionChannel         OptionType = "channel"
	OptionRole            OptionType = "role"
	OptionMentionable     OptionType = "mentionable"
	OptionNumber          OptionType = "number"
	OptionAttachment      OptionType = "attachment"
)

// Choice is a fixed value offered for an option.
type Choice struct {
	Name  string      `yaml:"name" json:"name"`
	Value interface{} `yaml:"value" json:"value"`
}

// Option is a command parameter, sub-command or sub-command group.
type Option struct {
	Name         string     `yaml:"name" json:"name"`
	Description  string     `yaml:"description" json:"description"`
	Type         OptionType `yaml:"type" json:"type"`
	Required     bool       `yaml:"required,omitempty" json:"required,omitempty"`
	Autocomplete bool       `yaml:"autocomplete,omitempty" json:"autocomplete,omitempty"`
	Choices      []Choice   `yaml:"choices,omitempty" json:"choices,omitempty"`
	Options      []Option   `yaml:"options,omitempty" json:"options,omitempty"`
	MinValue     *float64   `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue     *float64   `yaml:"max_value,omitempty" json:"max_value,omitempty"`
	MinLength    *int       `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength    int        `yaml:"max_length,omitempty" json:"max_length,omitempty"`
}

// IsSubCommand reports whether the option routes rather than carries a value.
func (o Option) IsSubCommand() bool {
	return o.Type == OptionSubCommand || o.Type == OptionSubCommandGroup
}

// Command is one application command.
type Command struct {
	Name         string      `yaml:"name" json:"name"`
	Description  string      `yaml:"description,omitempty" json:"description,omitempty"`
	Type         CommandType `yaml:"type,omitempty" json:"type,omitempty"`
	Options      []Option    `yaml:"options,omitempty" json:"options,omitempty"`
	DMPermission *bool       `yaml:"dm_permission,omitempty" json:"dm_permission,omitempty"`
	NSFW         bool        `yaml:"nsfw,omitempty" json:"nsfw,omitempty"`
}

// EffectiveType returns the command type, defaulting to chat_input.
func (c Command) EffectiveType() CommandType {
	if c.Type == "" {
		return CommandChatInput
	}
	return c.Type
}

// Manifest is the root of a command manifest file.
type Manifest struct {
	Name        string    `yaml:"name" json:"name"`
	Version     string    `yaml:"version" json:"version"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Commands    []Command `yaml:"commands" json:"commands"`
}

// Paths lists the routing path of every invocable chat_input command leaf:
// the command name followed by its group and sub-command names.
func (m *Manifest) Paths() [][]string {
	var out [][]string
	for _, c := range m.Commands {
		if c.EffectiveType() != CommandChatInput {
			continue
		}
		out = appendPaths(out, []string{c.Name}, c.Options)
	}
	return out
}

func appendPaths(out [][]string, prefix []string, opts []Option) [][]string {
	leaf := true
	for _, o := range opts {
		if !o.IsSubCommand() {
			continue
		}
		leaf = false
		p := append(append([]string{}, prefix...), o.Name)
		out = appendPaths(out, p, o.Options)
	}
	if leaf {
		out = append(out, prefix)
	}
	return out
}
