package registry

import (
	"context"
	"fmt"

	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/session"
)

// Variant selects how an Action is invoked.
type Variant int

const (
	// VariantPlain calls a free function.
	VariantPlain Variant = iota + 1
	// VariantBound calls a method value on an owning instance.
	VariantBound
	// VariantFactory constructs a fresh Runner for every invocation.
	VariantFactory
)

func (v Variant) String() string {
	switch v {
	case VariantPlain:
		return "plain"
	case VariantBound:
		return "bound"
	case VariantFactory:
		return "factory"
	default:
		return "unknown"
	}
}

// HandlerFunc is the body of a plain Action.
type HandlerFunc func(ctx context.Context, c *session.Context, opts interaction.Options) (*interaction.Message, error)

// Runner is built by a factory Action for a single invocation.
type Runner interface {
	Run(ctx context.Context, c *session.Context, opts interaction.Options) (*interaction.Message, error)
}

// Action is a registered unit of work. Actions are immutable once built.
type Action struct {
	Name        string
	Description string
	Variant     Variant

	fn      HandlerFunc
	owner   interface{}
	factory func() Runner
}

// Plain builds an Action around a free function.
func Plain(name, description string, fn HandlerFunc) *Action {
	return &Action{Name: name, Description: description, Variant: VariantPlain, fn: fn}
}

// Bound builds an Action that calls method with owner on every invocation.
func Bound[T any](name, description string, owner T, method func(T, context.Context, *session.Context, interaction.Options) (*interaction.Message, error)) *Action {
	return &Action{
		Name:        name,
		Description: description,
		Variant:     VariantBound,
		owner:       owner,
		fn: func(ctx context.Context, c *session.Context, opts interaction.Options) (*interaction.Message, error) {
			return method(owner, ctx, c, opts)
		},
	}
}

// Factory builds an Action that constructs a new Runner per invocation.
func Factory(name, description string, newRunner func() Runner) *Action {
	return &Action{Name: name, Description: description, Variant: VariantFactory, factory: newRunner}
}

// Owner returns the instance a bound Action was built with, or nil.
func (a *Action) Owner() interface{} { return a.owner }

// Invoke runs the Action. It implements session.Invoker.
func (a *Action) Invoke(ctx context.Context, c *session.Context, opts interaction.Options) (*interaction.Message, error) {
	switch a.Variant {
	case VariantPlain, VariantBound:
		if a.fn == nil {
			return nil, interaction.NewError(interaction.CodeInvalidState, fmt.Sprintf("action %q has no handler", a.Name))
		}
		return a.fn(ctx, c, opts)
	case VariantFactory:
		if a.factory == nil {
			return nil, interaction.NewError(interaction.CodeInvalidState, fmt.Sprintf("action %q has no factory", a.Name))
		}
		runner := a.factory()
		if runner == nil {
			return nil, interaction.NewError(interaction.CodeInvalidState, fmt.Sprintf("factory for action %q returned nil", a.Name))
		}
		return runner.Run(ctx, c, opts)
	default:
		return nil, interaction.NewError(interaction.CodeInvalidState, fmt.Sprintf("action %q has unknown variant %d", a.Name, a.Variant))
	}
}

// withDefaults returns a copy named after id when the name is empty. An empty
// description falls back to the name.
func (a *Action) withDefaults(id string) *Action {
	out := *a
	if out.Name == "" {
		out.Name = id
	}
	if out.Description == "" {
		out.Description = out.Name
	}
	return &out
}

var _ session.Invoker = (*Action)(nil)
