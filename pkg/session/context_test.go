package session

import (
	"context"
	"testing"

	"github.com/morezero/interaction-router/pkg/interaction"
)

const contextTestPrefix = "session:context_test"

type invokerFunc func(ctx context.Context, c *Context, opts interaction.Options) (*interaction.Message, error)

func (f invokerFunc) Invoke(ctx context.Context, c *Context, opts interaction.Options) (*interaction.Message, error) {
	return f(ctx, c, opts)
}

func TestContext_Accessors(t *testing.T) {
	s, _ := newSession(interaction.KindCommand)
	c := NewContext(s, nil, []string{"settings", "notifications"})

	if c.Interaction().ID != "i-1" {
		t.Errorf("%s - Interaction().ID = %q", contextTestPrefix, c.Interaction().ID)
	}
	if c.Options() == nil {
		t.Errorf("%s - Options() should never be nil", contextTestPrefix)
	}
	if len(c.Path()) != 2 || c.Session() != s || c.Logger() == nil {
		t.Errorf("%s - unexpected accessors", contextTestPrefix)
	}
}

func TestContext_ChainReturnsResult(t *testing.T) {
	s, rec := newSession(interaction.KindCommand)
	c := NewContext(s, interaction.Options{"name": "bob"}, []string{"greet"})

	next := invokerFunc(func(_ context.Context, _ *Context, opts interaction.Options) (*interaction.Message, error) {
		return interaction.Text("hi " + opts.String("name")), nil
	})

	msg, err := c.Chain(context.Background(), next, false)
	if err != nil {
		t.Fatalf("%s - Chain failed: %v", contextTestPrefix, err)
	}
	if msg.Content != "hi bob" {
		t.Errorf("%s - Content = %q, want %q", contextTestPrefix, msg.Content, "hi bob")
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("%s - Chain without followUp should not send", contextTestPrefix)
	}
}

func TestContext_ChainFollowUpSends(t *testing.T) {
	s, rec := newSession(interaction.KindCommand)
	c := NewContext(s, nil, []string{"a"})
	ctx := context.Background()

	if err := c.Send(ctx, interaction.Text("first")); err != nil {
		t.Fatalf("%s - Send failed: %v", contextTestPrefix, err)
	}
	next := invokerFunc(func(context.Context, *Context, interaction.Options) (*interaction.Message, error) {
		return interaction.Text("second"), nil
	})
	msg, err := c.Chain(ctx, next, true)
	if err != nil {
		t.Fatalf("%s - Chain failed: %v", contextTestPrefix, err)
	}
	if msg != nil {
		t.Errorf("%s - expected nil message after follow-up chain", contextTestPrefix)
	}
	calls := rec.Calls()
	if len(calls) != 2 || calls[1].Call != CallFollowUp {
		t.Errorf("%s - calls = %+v, want initial then followup", contextTestPrefix, calls)
	}
}

func TestContext_ChainFollowUpRejectedWithoutSupport(t *testing.T) {
	rec := &Recorder{NoFollowUps: true}
	s := New(&interaction.Interaction{ID: "i", Kind: interaction.KindCommand}, rec)
	c := NewContext(s, nil, nil)

	called := false
	next := invokerFunc(func(context.Context, *Context, interaction.Options) (*interaction.Message, error) {
		called = true
		return nil, nil
	})
	_, err := c.Chain(context.Background(), next, true)
	if !interaction.IsCode(err, interaction.CodeInvalidState) {
		t.Errorf("%s - expected INVALID_STATE, got %v", contextTestPrefix, err)
	}
	if called {
		t.Errorf("%s - chained action should not run", contextTestPrefix)
	}
}
