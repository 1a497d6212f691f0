// Package main is the entrypoint for the interaction-router.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/morezero/interaction-router/internal/config"
	"github.com/morezero/interaction-router/internal/server"
	"github.com/morezero/interaction-router/pkg/db"
	"github.com/morezero/interaction-router/pkg/discord"
	"github.com/morezero/interaction-router/pkg/manifest"
)

const usage = `Usage: interaction-router [command]
       interaction-router serve                    Start the router (transport, HTTP health, optional DB).
       interaction-router migrate up               Run database migrations.
       interaction-router migrate status           Show migration status.
       interaction-router sync [file] [--force]    Register the command manifest with Discord.
       interaction-router validate [file]          Validate the command manifest and check it against registered actions.
       interaction-router export [file]            Print the manifest as Discord application commands (JSON).
       interaction-router routes                   List registered actions.
       interaction-router ensure-db [name]         Create database if missing (default name: interaction_router_test).
       interaction-router clear                    Forget stored commands and sync state; the next sync always runs.

Commands:
  serve           (default) Start the interaction router.
  migrate up      Run database migrations only.
  migrate status  Show current migration status.
  sync            Validate, compare with the last sync and bulk-overwrite commands. --force syncs regardless.
  validate        Report manifest problems without contacting Discord.
  export          Show the payload a sync would send.
  routes          Print kind, path and action name of every registered action.
  ensure-db       Create the database on the same host as DATABASE_URL.
  clear           Delete stored commands for DISCORD_APPLICATION_ID / DISCORD_GUILD_ID.

Environment: ROUTER_TRANSPORT (relay|discord), COMMS_URL, DISCORD_TOKEN, DISCORD_APPLICATION_ID,
DISCORD_GUILD_ID, MANIFEST_FILE, DATABASE_URL, MIGRATION_PATH, ROUTER_HTTP_ADDR (default :8080). See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("interaction-router migrate: require subcommand (up, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("interaction-router migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("interaction-router migrate status: %v", err)
			}
		default:
			log.Fatalf("interaction-router migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "sync":
		file, force := parseSyncArgs(args[1:])
		if err := runSync(file, force); err != nil {
			log.Fatalf("interaction-router sync: %v", err)
		}
		return
	case "validate":
		if err := runValidate(argAt(args, 1)); err != nil {
			log.Fatalf("interaction-router validate: %v", err)
		}
		return
	case "export":
		if err := runExport(argAt(args, 1)); err != nil {
			log.Fatalf("interaction-router export: %v", err)
		}
		return
	case "routes":
		if err := runRoutes(); err != nil {
			log.Fatalf("interaction-router routes: %v", err)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("interaction-router clear: %v", err)
		}
		return
	case "ensure-db":
		dbName := "interaction_router_test"
		if name := argAt(args, 1); name != "" {
			dbName = name
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("interaction-router ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("interaction-router: %v", err)
	}
}

func argAt(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

// parseSyncArgs accepts an optional manifest path and --force in any order.
func parseSyncArgs(args []string) (file string, force bool) {
	for _, a := range args {
		switch {
		case a == "--force" || a == "-f":
			force = true
		case file == "" && !strings.HasPrefix(a, "-"):
			file = a
		}
	}
	return file, force
}

func loadManifest(file string) (*manifest.Manifest, error) {
	m, path, err := manifest.Load(file)
	if err != nil {
		return nil, err
	}
	if path == "" {
		fmt.Println("No manifest file found; using the built-in default.")
	} else {
		fmt.Printf("Manifest: %s\n", path)
	}
	return m, nil
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	n, err := db.RunMigrations(ctx, pool, migrations)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	fmt.Printf("Applied %d migration(s).\n", n)
	return nil
}

func runMigrateStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	state, err := db.MigrationStatus(ctx, pool, migrations)
	if err != nil {
		return err
	}
	for _, name := range state.Applied {
		fmt.Printf("  applied  %s\n", name)
	}
	for _, name := range state.Pending {
		fmt.Printf("  pending  %s\n", name)
	}
	fmt.Printf("%d applied, %d pending.\n", len(state.Applied), len(state.Pending))
	return nil
}

func runSync(file string, force bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForSync(); err != nil {
		return err
	}
	m, err := loadManifest(file)
	if err != nil {
		return err
	}
	sess, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	ctx := context.Background()
	params := discord.NewSyncerParams{API: sess, ApplicationID: cfg.ApplicationID, GuildID: cfg.GuildID}
	if cfg.HasDatabase() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		params.Store = db.NewRepository(pool)
	}

	res, err := discord.NewSyncer(params).Sync(ctx, m, force)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s@%s: %s\n", res.Decision.Action, m.Name, m.Version, res.Decision.Reason)
	for _, c := range res.Commands {
		fmt.Printf("  %-20s %s\n", c.Name, c.CommandID)
	}
	return nil
}

func runValidate(file string) error {
	m, err := loadManifest(file)
	if err != nil {
		return err
	}
	if err := manifest.Validate(m); err != nil {
		return err
	}
	reg, err := server.BuildRegistry()
	if err != nil {
		return err
	}
	issues := manifest.CrossCheck(m, reg.Routes())
	for _, issue := range issues {
		fmt.Printf("  warning: %s\n", issue)
	}
	hash, err := manifest.Hash(m)
	if err != nil {
		return err
	}
	fmt.Printf("%s@%s is valid (%d commands, hash %s).\n", m.Name, m.Version, len(m.Commands), hash[:12])
	return nil
}

func runExport(file string) error {
	m, _, err := manifest.Load(file)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(discord.ToApplicationCommands(m), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runRoutes() error {
	reg, err := server.BuildRegistry()
	if err != nil {
		return err
	}
	for _, rt := range reg.Routes() {
		fmt.Printf("  %-13s %-24s %-20s %s\n", rt.Kind, strings.Join(rt.Path, " "), rt.Name, rt.Variant)
	}
	return nil
}

func runClear() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	if cfg.ApplicationID == "" {
		return fmt.Errorf("DISCORD_APPLICATION_ID is required")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	scope := db.Scope{ApplicationID: cfg.ApplicationID, GuildID: cfg.GuildID}
	if err := db.ClearCommands(ctx, pool, scope); err != nil {
		return fmt.Errorf("clear commands: %w", err)
	}
	return nil
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	// Replace path with target database name; query (e.g. sslmode) is kept on u.RawQuery.
	u.Path = "/" + dbName
	if err := db.EnsureDatabase(context.Background(), u.String()); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}
