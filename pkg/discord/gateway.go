package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/session"
)

const gatewayLogPrefix = "discord:gateway"

// Handler processes one interaction. *dispatcher.Dispatcher implements it.
type Handler interface {
	HandleWith(ctx context.Context, in *interaction.Interaction, transport session.Transport)
}

// Conn is the subset of *discordgo.Session the Gateway drives.
type Conn interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
}

// NewSession creates a bot session that only receives guild events.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create session: %w", gatewayLogPrefix, err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

// Gateway receives interactions over the platform websocket and hands each
// one to the Handler on its own goroutine.
type Gateway struct {
	conn      Conn
	handler   Handler
	transport session.Transport
	timeout   time.Duration

	mu       sync.Mutex
	ctx      context.Context
	removers []func()
	stopped  bool
	wg       sync.WaitGroup
}

// NewGatewayParams holds parameters for NewGateway.
type NewGatewayParams struct {
	Conn      Conn
	Handler   Handler
	Transport session.Transport
	// HandleTimeout bounds the handling of one interaction. The platform
	// invalidates interaction tokens after 15 minutes.
	HandleTimeout time.Duration
}

// NewGateway creates a new Gateway.
func NewGateway(params NewGatewayParams) *Gateway {
	timeout := params.HandleTimeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &Gateway{
		conn:      params.Conn,
		handler:   params.Handler,
		transport: params.Transport,
		timeout:   timeout,
		ctx:       context.Background(),
	}
}

// Start registers the event handlers and opens the websocket.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	g.ctx = ctx
	g.removers = append(g.removers,
		g.conn.AddHandler(g.onReady),
		g.conn.AddHandler(g.onInteraction),
	)
	g.mu.Unlock()

	if err := g.conn.Open(); err != nil {
		return fmt.Errorf("%s - failed to open gateway: %w", gatewayLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Gateway connected", gatewayLogPrefix))
	return nil
}

// Stop removes the handlers, waits for in-flight interactions and closes
// the websocket.
func (g *Gateway) Stop() {
	g.mu.Lock()
	removers := g.removers
	g.removers = nil
	g.stopped = true
	g.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	g.wg.Wait()

	if err := g.conn.Close(); err != nil {
		slog.Warn(fmt.Sprintf("%s - close: %v", gatewayLogPrefix, err))
	}
	slog.Info(fmt.Sprintf("%s - Stopped", gatewayLogPrefix))
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	user := ""
	if r.User != nil {
		user = r.User.Username
	}
	slog.Info(fmt.Sprintf("%s - Ready as %s in %d guilds", gatewayLogPrefix, user, len(r.Guilds)))
}

func (g *Gateway) onInteraction(_ *discordgo.Session, ev *discordgo.InteractionCreate) {
	if ev == nil || ev.Interaction == nil {
		return
	}
	g.dispatch(ev.Interaction)
}

// dispatch returns false when the interaction was dropped.
func (g *Gateway) dispatch(i *discordgo.Interaction) bool {
	in, ok := FromDiscord(i)
	if !ok {
		slog.Debug(fmt.Sprintf("%s - ignoring interaction %s of type %d", gatewayLogPrefix, i.ID, i.Type))
		return false
	}

	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		slog.Warn(fmt.Sprintf("%s - dropping interaction %s during shutdown", gatewayLogPrefix, i.ID))
		return false
	}
	g.wg.Add(1)
	ctx := g.ctx
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		hctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		g.handler.HandleWith(hctx, in, g.transport)
	}()
	return true
}
