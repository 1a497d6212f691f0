package manifest

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"

	"github.com/morezero/interaction-router/pkg/interaction"
)

// Platform limits.
const (
	MaxCommands          = 100
	MaxOptions           = 25
	MaxChoices           = 25
	MaxNameLength        = 32
	MaxDescriptionLength = 100
)

var chatInputName = regexp.MustCompile(`^[-_\p{Ll}\p{N}]{1,32}$`)

// Validate checks the manifest against platform limits. The returned error
// is an INVALID_ARGUMENT *interaction.Error whose Details lists every issue.
func Validate(m *Manifest) error {
	var issues []string
	add := func(format string, args ...interface{}) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if m.Name == "" {
		add("name is required")
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		add("version %q is not a valid semantic version", m.Version)
	}

	chatInputs := 0
	seen := make(map[string]bool)
	for i, c := range m.Commands {
		t := c.EffectiveType()
		key := string(t) + "/" + c.Name
		if seen[key] {
			add("commands[%d]: duplicate %s command %q", i, t, c.Name)
		}
		seen[key] = true

		switch t {
		case CommandChatInput:
			chatInputs++
			if !chatInputName.MatchString(c.Name) {
				add("commands[%d]: invalid name %q", i, c.Name)
			}
			checkDescription(add, fmt.Sprintf("commands[%d]", i), c.Description)
			checkOptions(add, fmt.Sprintf("commands[%d]", i), c.Options, 0)
		case CommandUser, CommandMessage:
			if c.Name == "" || utf8.RuneCountInString(c.Name) > MaxNameLength {
				add("commands[%d]: invalid name %q", i, c.Name)
			}
			if c.Description != "" || len(c.Options) > 0 {
				add("commands[%d]: %s commands take no description or options", i, t)
			}
		default:
			add("commands[%d]: unknown type %q", i, c.Type)
		}
	}
	if chatInputs > MaxCommands {
		add("too many chat_input commands: %d > %d", chatInputs, MaxCommands)
	}

	if len(issues) == 0 {
		return nil
	}
	e := interaction.NewError(interaction.CodeInvalidArgument,
		fmt.Sprintf("manifest %s has %d issue(s)", m.Name, len(issues)))
	e.Details = issues
	return e
}

func checkDescription(add func(string, ...interface{}), where, desc string) {
	n := utf8.RuneCountInString(desc)
	if n == 0 || n > MaxDescriptionLength {
		add("%s: description must be 1-%d characters", where, MaxDescriptionLength)
	}
}

// depth counts sub-command levels: 0 at the command, 1 inside a group or
// sub-command, 2 inside a sub-command of a group.
func checkOptions(add func(string, ...interface{}), where string, opts []Option, depth int) {
	if len(opts) > MaxOptions {
		add("%s: too many options: %d > %d", where, len(opts), MaxOptions)
	}

	optional := false
	routing, values := 0, 0
	names := make(map[string]bool)
	for i, o := range opts {
		at := fmt.Sprintf("%s.options[%d]", where, i)
		if !chatInputName.MatchString(o.Name) {
			add("%s: invalid name %q", at, o.Name)
		}
		if names[o.Name] {
			add("%s: duplicate option %q", at, o.Name)
		}
		names[o.Name] = true
		checkDescription(add, at, o.Description)

		switch o.Type {
		case OptionSubCommandGroup:
			routing++
			if depth > 0 {
				add("%s: groups are only allowed at the top level", at)
			}
			for j, sub := range o.Options {
				if sub.Type != OptionSubCommand {
					add("%s.options[%d]: groups may only contain sub-commands", at, j)
				}
			}
			checkOptions(add, at, o.Options, depth+1)
		case OptionSubCommand:
			routing++
			if depth > 1 {
				add("%s: sub-commands nest at most two levels", at)
			}
			for j, sub := range o.Options {
				if sub.IsSubCommand() {
					add("%s.options[%d]: sub-commands cannot contain sub-commands", at, j)
				}
			}
			checkOptions(add, at, o.Options, depth+1)
		case OptionString, OptionInteger, OptionBoolean, OptionUser, OptionChannel,
			OptionRole, OptionMentionable, OptionNumber, OptionAttachment:
			values++
			if o.Required && optional {
				add("%s: required option after an optional one", at)
			}
			if !o.Required {
				optional = true
			}
			if len(o.Choices) > MaxChoices {
				add("%s: too many choices: %d > %d", at, len(o.Choices), MaxChoices)
			}
			if o.Autocomplete && len(o.Choices) > 0 {
				add("%s: autocomplete and choices are exclusive", at)
			}
		default:
			add("%s: unknown option type %q", at, o.Type)
		}
	}
	if routing > 0 && values > 0 {
		add("%s: sub-commands and value options cannot be mixed", where)
	}
}
