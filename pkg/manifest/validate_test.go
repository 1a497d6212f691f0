package manifest

import (
	"strings"
	"testing"

	"github.com/morezero/interaction-router/pkg/interaction"
)

func TestValidate_Issues(t *testing.T) {
	str := func(name string, required bool) Option {
		return Option{Name: name, Description: name, Type: OptionString, Required: required}
	}

	tests := []struct {
		name     string
		mutate   func(m *Manifest)
		contains string
	}{
		{"bad version", func(m *Manifest) { m.Version = "v1" }, "not a valid semantic version"},
		{"missing name", func(m *Manifest) { m.Name = "" }, "name is required"},
		{"uppercase command", func(m *Manifest) { m.Commands[0].Name = "Ping" }, "invalid name"},
		{"empty description", func(m *Manifest) { m.Commands[0].Description = "" }, "description must be"},
		{"long description", func(m *Manifest) { m.Commands[0].Description = strings.Repeat("d", 101) }, "description must be"},
		{"duplicate command", func(m *Manifest) { m.Commands = append(m.Commands, m.Commands[0]) }, "duplicate chat_input command"},
		{"unknown command type", func(m *Manifest) { m.Commands[0].Type = "slash" }, "unknown type"},
		{"required after optional", func(m *Manifest) {
			m.Commands[0].Options = []Option{str("a", false), str("b", true)}
		}, "required option after an optional one"},
		{"too many options", func(m *Manifest) {
			for i := 0; i < 26; i++ {
				m.Commands[0].Options = append(m.Commands[0].Options, str("o"+strings.Repeat("x", i), false))
			}
		}, "too many options"},
		{"mixed routing and values", func(m *Manifest) {
			m.Commands[0].Options = []Option{
				{Name: "sub", Description: "sub", Type: OptionSubCommand},
				str("value", false),
			}
		}, "cannot be mixed"},
		{"nested group", func(m *Manifest) {
			m.Commands[0].Options = []Option{{
				Name: "sub", Description: "sub", Type: OptionSubCommand,
				Options: []Option{{Name: "grp", Description: "grp", Type: OptionSubCommandGroup}},
			}}
		}, "cannot contain sub-commands"},
		{"group holding values", func(m *Manifest) {
			m.Commands[0].Options = []Option{{
				Name: "grp", Description: "grp", Type: OptionSubCommandGroup,
				Options: []Option{str("value", false)},
			}}
		}, "groups may only contain sub-commands"},
		{"autocomplete with choices", func(m *Manifest) {
			o := str("pick", false)
			o.Autocomplete = true
			o.Choices = []Choice{{Name: "a", Value: "a"}}
			m.Commands[0].Options = []Option{o}
		}, "exclusive"},
		{"message command with description", func(m *Manifest) {
			m.Commands = append(m.Commands, Command{Name: "Report", Type: CommandMessage, Description: "x"})
		}, "take no description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manifest{
				Name:     "demo",
				Version:  "1.0.0",
				Commands: []Command{{Name: "ping", Description: "Ping"}},
			}
			tt.mutate(m)

			err := Validate(m)
			if !interaction.IsCode(err, interaction.CodeInvalidArgument) {
				t.Fatalf("manifest:validate_test - expected INVALID_ARGUMENT, got %v", err)
			}
			issues, _ := err.(*interaction.Error).Details.([]string)
			found := false
			for _, is := range issues {
				if strings.Contains(is, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Errorf("manifest:validate_test - issues %v do not mention %q", issues, tt.contains)
			}
		})
	}
}

func TestValidate_NestedTree(t *testing.T) {
	m, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("manifest:validate_test - Parse failed: %v", err)
	}
	if err := Validate(m); err != nil {
		t.Errorf("manifest:validate_test - expected valid manifest, got %v", err)
	}
}
