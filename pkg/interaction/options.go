package interaction

import (
	"fmt"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
)

// Reserved option keys filled in by the dispatcher.
const (
	// KeyValues holds the selected values of a component interaction.
	KeyValues = "values"
	// KeyFocused holds the key of the option being typed in during autocomplete.
	KeyFocused = "_focused"
)

// Options is the flattened option mapping handed to an Action. Keys are
// snake_case regardless of how the platform spelled them.
type Options map[string]interface{}

// NormalizeKey converts a platform option name ("user-id", "userId") to the
// key used in Options ("user_id").
func NormalizeKey(name string) string {
	return strcase.ToSnake(name)
}

// Flatten turns a leaf option list into Options. Nested options are ignored;
// callers descend sub-commands before flattening.
func Flatten(opts []Option) Options {
	out := make(Options, len(opts))
	for _, o := range opts {
		if o.Type.IsNested() {
			continue
		}
		out[NormalizeKey(o.Name)] = o.Value
	}
	return out
}

// String returns the option as a string, or "" when absent or not a string.
func (o Options) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Int returns the option as an int64. JSON numbers arrive as float64.
func (o Options) Int(key string) (int64, bool) {
	switch v := o[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Bool returns the option as a bool.
func (o Options) Bool(key string) bool {
	b, _ := o[key].(bool)
	return b
}

// Strings returns the option as a string slice; component values use this.
func (o Options) Strings(key string) []string {
	switch v := o[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Has reports whether key was supplied.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Decode copies the options into out, a pointer to a struct. Fields are
// matched by their `option` tag.
func (o Options) Decode(out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "option",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("interaction:options - decoder: %w", err)
	}
	if err := dec.Decode(map[string]interface{}(o)); err != nil {
		return NewError(CodeInvalidArgument, fmt.Sprintf("invalid options: %v", err))
	}
	return nil
}

// Focused returns the name and value of the option the user is typing in
// during an autocomplete request.
func Focused(opts []Option) (string, interface{}, bool) {
	for _, o := range opts {
		if o.Focused {
			return NormalizeKey(o.Name), o.Value, true
		}
		if o.Type.IsNested() {
			if name, v, ok := Focused(o.Options); ok {
				return name, v, true
			}
		}
	}
	return "", nil, false
}
