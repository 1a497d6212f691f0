// Package builtin provides the commands every router instance serves.
package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/morezero/interaction-router/pkg/embed"
	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/registry"
	"github.com/morezero/interaction-router/pkg/session"
)

const logPrefix = "builtin:builtin"

// HelpColor is the embed color of the help listing.
const HelpColor = 0x5865F2

// Register adds ping, help (with its autocomplete) and echo to reg.
func Register(reg *registry.Registry) error {
	h := NewHelp(reg.Routes)

	entries := []registry.RegisterParams{
		{Kind: interaction.KindCommand, ID: "ping", Action: registry.Plain("ping", "Check that the bot is responding", Ping)},
		{Kind: interaction.KindCommand, ID: "help", Action: registry.Bound("help", "List available commands", h, (*Help).List)},
		{Kind: interaction.KindAutocomplete, ID: "help", Action: registry.Bound("help", "Suggest command names", h, (*Help).Suggest)},
		{Kind: interaction.KindCommand, ID: "echo", Action: registry.Factory("echo", "Repeat a message", NewEcho)},
	}
	for _, e := range entries {
		if _, err := reg.Register(e); err != nil {
			return fmt.Errorf("%s - register %s %s: %w", logPrefix, e.Kind, e.ID, err)
		}
	}
	return nil
}

// Ping answers "Pong!".
func Ping(context.Context, *session.Context, interaction.Options) (*interaction.Message, error) {
	return interaction.Text("Pong!"), nil
}

// Help lists registered command routes.
type Help struct {
	routes func() []registry.Route
}

// NewHelp creates a Help over a route source.
func NewHelp(routes func() []registry.Route) *Help {
	return &Help{routes: routes}
}

// List renders every command route as an embed field. Long listings are
// paginated by the session.
func (h *Help) List(_ context.Context, _ *session.Context, opts interaction.Options) (*interaction.Message, error) {
	filter := strings.ToLower(strings.TrimSpace(opts.String("command")))

	doc := &embed.Document{Title: "Commands", Color: HelpColor}
	for _, rt := range h.routes() {
		if rt.Kind != interaction.KindCommand {
			continue
		}
		if filter != "" && rt.Path[0] != filter {
			continue
		}
		doc.AddField("/"+strings.Join(rt.Path, " "), rt.Description, false)
	}

	if len(doc.Fields) == 0 {
		if filter != "" {
			return nil, interaction.UserError(fmt.Sprintf("Unknown command: %s", filter))
		}
		doc.Description = "No commands registered."
	}
	doc.Footer = fmt.Sprintf("%d command(s)", len(doc.Fields))
	return interaction.Embed(doc), nil
}

// Suggest offers command names starting with the typed text.
func (h *Help) Suggest(_ context.Context, _ *session.Context, opts interaction.Options) (*interaction.Message, error) {
	typed := strings.ToLower(opts.String("command"))

	seen := make(map[string]bool)
	var names []string
	for _, rt := range h.routes() {
		if rt.Kind != interaction.KindCommand || seen[rt.Path[0]] {
			continue
		}
		seen[rt.Path[0]] = true
		if strings.HasPrefix(rt.Path[0], typed) {
			names = append(names, rt.Path[0])
		}
	}
	sort.Strings(names)
	if len(names) > maxChoices {
		names = names[:maxChoices]
	}

	msg := &interaction.Message{Choices: make([]interaction.Choice, 0, len(names))}
	for _, n := range names {
		msg.Choices = append(msg.Choices, interaction.Choice{Name: n, Value: n})
	}
	return msg, nil
}

const maxChoices = 25

// Echo repeats its text option. A fresh Echo handles every invocation.
type Echo struct {
	Text      string `option:"text"`
	Ephemeral bool   `option:"ephemeral"`
}

// NewEcho is the Echo factory.
func NewEcho() registry.Runner {
	return &Echo{}
}

// Run implements registry.Runner.
func (e *Echo) Run(ctx context.Context, c *session.Context, opts interaction.Options) (*interaction.Message, error) {
	if err := opts.Decode(e); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.Text) == "" {
		return nil, interaction.UserError("Nothing to echo")
	}
	if !e.Ephemeral {
		return interaction.Text(e.Text), nil
	}
	if err := c.Send(ctx, interaction.Text(e.Text), session.Ephemeral(true)); err != nil {
		return nil, err
	}
	c.Logger().Debug(fmt.Sprintf("%s - echoed privately", logPrefix))
	return nil, nil
}
