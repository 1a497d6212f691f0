// Package server orchestrates all components: transport, optional DB, registry, dispatcher, HTTP health.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/interaction-router/internal/builtin"
	"github.com/morezero/interaction-router/internal/config"
	"github.com/morezero/interaction-router/pkg/commsutil"
	"github.com/morezero/interaction-router/pkg/db"
	"github.com/morezero/interaction-router/pkg/discord"
	"github.com/morezero/interaction-router/pkg/dispatcher"
	"github.com/morezero/interaction-router/pkg/events"
	"github.com/morezero/interaction-router/pkg/manifest"
	"github.com/morezero/interaction-router/pkg/metrics"
	"github.com/morezero/interaction-router/pkg/registry"
	"github.com/morezero/interaction-router/pkg/relay"
)

const logPrefix = "server:server"

// source is an inbound interaction source: the relay listener or the gateway.
type source interface {
	Start(ctx context.Context) error
	Stop()
}

// Server is the interaction-router orchestrator.
type Server struct {
	cfg        *config.Config
	reg        *registry.Registry
	metrics    *metrics.Metrics
	manifest   *manifest.Manifest
	issues     []string
	checks     map[string]func(context.Context) error
	syncState  func(context.Context) (*db.SyncState, error)
	ready      atomic.Bool
	httpServer *http.Server
}

// NewServerParams holds parameters for NewServer.
type NewServerParams struct {
	Config   *config.Config
	Registry *registry.Registry
	Metrics  *metrics.Metrics
	Manifest *manifest.Manifest
	// Checks are named dependency health checks reported by /health.
	Checks map[string]func(context.Context) error
	// SyncState, when set, reports the last command sync on the home page.
	SyncState func(context.Context) (*db.SyncState, error)
}

// NewServer creates the HTTP side of the router.
func NewServer(params NewServerParams) *Server {
	s := &Server{
		cfg:       params.Config,
		reg:       params.Registry,
		metrics:   params.Metrics,
		manifest:  params.Manifest,
		checks:    params.Checks,
		syncState: params.SyncState,
	}
	if s.manifest != nil && s.reg != nil {
		s.issues = manifest.CrossCheck(s.manifest, s.reg.Routes())
	}
	return s
}

// BuildRegistry registers the built-in actions and seals the registry.
func BuildRegistry() (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if err := builtin.Register(reg); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}

// SetupLogging installs the default slog handler for level.
func SetupLogging(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)})))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Run starts the router, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	SetupLogging(cfg.LogLevel)
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting interaction-router (transport %s)", logPrefix, cfg.Transport))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Registry and manifest
	reg, err := BuildRegistry()
	if err != nil {
		return fmt.Errorf("%s - failed to build registry: %w", logPrefix, err)
	}
	m, _, err := manifest.Load(cfg.ManifestFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load manifest: %w", logPrefix, err)
	}

	checks := map[string]func(context.Context) error{}
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	// Step 2: Database (optional)
	var repo *db.Repository
	if cfg.HasDatabase() {
		pool, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, pool.Close)
		repo = db.NewRepository(pool)
		checks["database"] = repo.Ping
	}

	// Step 3: Transport, publisher and inbound source
	mtr := metrics.New()
	var src source
	var syncer *discord.Syncer

	switch cfg.Transport {
	case config.TransportRelay:
		nc, err := commsutil.Connect(commsutil.ConnectParams{URL: cfg.COMMSURL, Name: cfg.COMMSName})
		if err != nil {
			return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
		}
		cleanups = append(cleanups, func() {
			if err := nc.Drain(); err != nil {
				nc.Close()
			}
		})
		checks["comms"] = commsCheck(nc)

		transport := relay.NewTransport(relay.NewTransportParams{
			Conn:          nc,
			SubjectPrefix: cfg.OutboundSubject,
			CallTimeout:   cfg.CallTimeout,
			FollowUps:     cfg.RelayFollowUps,
		})
		disp := dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
			Registry:  reg,
			Transport: transport,
			Publisher: events.NewCommsPublisher(nc, &events.CommsPublisherOpts{HandledSubject: cfg.HandledEventSubject}),
			Metrics:   mtr,
		})
		src = relay.NewListener(relay.NewListenerParams{
			Conn:          nc,
			Dispatcher:    disp,
			Transport:     transport,
			Subject:       cfg.InboundSubject,
			Queue:         cfg.QueueGroup,
			HandleTimeout: cfg.HandleTimeout,
		})

	case config.TransportDiscord:
		sess, err := discord.NewSession(cfg.DiscordToken)
		if err != nil {
			return err
		}
		transport := discord.NewTransport(sess)
		disp := dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
			Registry:  reg,
			Transport: transport,
			Publisher: events.NewLogPublisher(nil),
			Metrics:   mtr,
		})
		src = discord.NewGateway(discord.NewGatewayParams{
			Conn:          sess,
			Handler:       disp,
			Transport:     transport,
			HandleTimeout: cfg.HandleTimeout,
		})
		syncer = newSyncer(cfg, sess, repo)
	}

	// Step 4: Command sync
	if cfg.SyncOnStart {
		if syncer == nil {
			sess, err := discord.NewSession(cfg.DiscordToken)
			if err != nil {
				return err
			}
			syncer = newSyncer(cfg, sess, repo)
		}
		res, err := syncer.Sync(ctx, m, false)
		if err != nil {
			return fmt.Errorf("%s - command sync failed: %w", logPrefix, err)
		}
		slog.Info(fmt.Sprintf("%s - Command sync %s: %s", logPrefix, res.Decision.Action, res.Decision.Reason))
	}

	// Step 5: HTTP
	params := NewServerParams{Config: cfg, Registry: reg, Metrics: mtr, Manifest: m, Checks: checks}
	if repo != nil {
		scope := db.Scope{ApplicationID: cfg.ApplicationID, GuildID: cfg.GuildID}
		params.SyncState = func(ctx context.Context) (*db.SyncState, error) { return repo.GetSyncState(ctx, scope) }
	}
	s := NewServer(params)
	for _, issue := range s.issues {
		slog.Warn(fmt.Sprintf("%s - manifest: %s", logPrefix, issue))
	}
	s.httpServer = &http.Server{Addr: cfg.ListenAddr(), Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, cfg.ListenAddr()))
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	// Step 6: Start receiving
	if err := src.Start(ctx); err != nil {
		return err
	}
	s.ready.Store(true)
	slog.Info(fmt.Sprintf("%s - interaction-router is ready", logPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	s.ready.Store(false)
	src.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.RunMigrations {
		if err := db.EnsureDatabase(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("%s - failed to ensure database: %w", logPrefix, err)
		}
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	if cfg.RunMigrations {
		migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if _, err := db.RunMigrations(ctx, pool, migrations); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
	}
	return pool, nil
}

func newSyncer(cfg *config.Config, api discord.CommandOverwriter, repo *db.Repository) *discord.Syncer {
	params := discord.NewSyncerParams{API: api, ApplicationID: cfg.ApplicationID, GuildID: cfg.GuildID}
	if repo != nil {
		params.Store = repo
	}
	return discord.NewSyncer(params)
}

func commsCheck(nc *comms.Conn) func(context.Context) error {
	return func(context.Context) error {
		if !nc.IsConnected() {
			return fmt.Errorf("COMMS %s", nc.Status())
		}
		return nil
	}
}
