package discord

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/session"
)

const gatewayTestPrefix = "discord:gateway_test"

type fakeConn struct {
	openErr  error
	handlers []interface{}
	removed  int
	opened   bool
	closed   bool
}

func (c *fakeConn) AddHandler(h interface{}) func() {
	c.handlers = append(c.handlers, h)
	return func() { c.removed++ }
}

func (c *fakeConn) Open() error {
	c.opened = true
	return c.openErr
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type recordingHandler struct {
	mu      sync.Mutex
	handled []*interaction.Interaction
	release chan struct{}
}

func (h *recordingHandler) HandleWith(_ context.Context, in *interaction.Interaction, _ session.Transport) {
	if h.release != nil {
		<-h.release
	}
	h.mu.Lock()
	h.handled = append(h.handled, in)
	h.mu.Unlock()
}

func commandInteraction(id string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:   id,
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: "ping"},
	}
}

func TestGateway_StartDispatchStop(t *testing.T) {
	conn := &fakeConn{}
	h := &recordingHandler{release: make(chan struct{})}
	g := NewGateway(NewGatewayParams{Conn: conn, Handler: h, Transport: &session.Recorder{}})

	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("%s - Start failed: %v", gatewayTestPrefix, err)
	}
	if !conn.opened || len(conn.handlers) != 2 {
		t.Fatalf("%s - opened=%v handlers=%d", gatewayTestPrefix, conn.opened, len(conn.handlers))
	}

	onInteraction, ok := conn.handlers[1].(func(*discordgo.Session, *discordgo.InteractionCreate))
	if !ok {
		t.Fatalf("%s - second handler has type %T", gatewayTestPrefix, conn.handlers[1])
	}
	onInteraction(nil, &discordgo.InteractionCreate{Interaction: commandInteraction("a")})
	onInteraction(nil, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{ID: "p", Type: discordgo.InteractionPing}})

	// Stop waits for the in-flight interaction.
	done := make(chan struct{})
	go func() {
		g.Stop()
		close(done)
	}()
	close(h.release)
	<-done

	if len(h.handled) != 1 || h.handled[0].ID != "a" || h.handled[0].Identifier != "ping" {
		t.Errorf("%s - handled = %+v", gatewayTestPrefix, h.handled)
	}
	if conn.removed != 2 || !conn.closed {
		t.Errorf("%s - removed=%d closed=%v", gatewayTestPrefix, conn.removed, conn.closed)
	}

	if g.dispatch(commandInteraction("late")) {
		t.Errorf("%s - interaction accepted after Stop", gatewayTestPrefix)
	}
}

func TestGateway_OpenError(t *testing.T) {
	openErr := errors.New("bad token")
	g := NewGateway(NewGatewayParams{Conn: &fakeConn{openErr: openErr}, Handler: &recordingHandler{}})
	if err := g.Start(context.Background()); !errors.Is(err, openErr) {
		t.Errorf("%s - expected open error, got %v", gatewayTestPrefix, err)
	}
}

func TestNewSession_SetsIntents(t *testing.T) {
	s, err := NewSession("token")
	if err != nil {
		t.Fatalf("%s - NewSession failed: %v", gatewayTestPrefix, err)
	}
	if s.Identify.Intents != discordgo.IntentsGuilds {
		t.Errorf("%s - intents = %d", gatewayTestPrefix, s.Identify.Intents)
	}
	if s.Token != "Bot token" {
		t.Errorf("%s - token = %q", gatewayTestPrefix, s.Token)
	}
}
