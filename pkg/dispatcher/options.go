package dispatcher

import (
	"errors"

	"github.com/morezero/interaction-router/pkg/interaction"
)

// descend follows sub-command and group options from the head of the option
// list. It returns the names walked and the options of the innermost level.
func descend(in *interaction.Interaction) ([]string, []interaction.Option) {
	opts := in.Options
	if in.Kind != interaction.KindCommand && in.Kind != interaction.KindAutocomplete {
		return nil, opts
	}
	var path []string
	for len(opts) > 0 && opts[0].Type.IsNested() {
		path = append(path, opts[0].Name)
		opts = opts[0].Options
	}
	return path, opts
}

// buildOptions flattens the kind-specific payload into snake_case Options.
func buildOptions(in *interaction.Interaction, leaf []interaction.Option) interaction.Options {
	switch in.Kind {
	case interaction.KindComponent:
		values := in.Values
		if values == nil {
			values = []string{}
		}
		return interaction.Options{interaction.KeyValues: values}
	case interaction.KindModal:
		out := make(interaction.Options, len(in.Fields))
		for k, v := range in.Fields {
			out[interaction.NormalizeKey(k)] = v
		}
		return out
	case interaction.KindAutocomplete:
		out := interaction.Flatten(leaf)
		if name, _, ok := interaction.Focused(leaf); ok {
			out[interaction.KeyFocused] = name
		}
		return out
	default:
		return interaction.Flatten(leaf)
	}
}

func asError(err error) *interaction.Error {
	var e *interaction.Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
