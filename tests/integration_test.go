//go:build integration

package tests

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/morezero/interaction-router/pkg/db"
	"github.com/morezero/interaction-router/pkg/discord"
	"github.com/morezero/interaction-router/pkg/manifest"
)

const integrationTestPrefix = "tests:integration_test"

// Integration tests use DATABASE_URL (e.g. .../interaction_router_test).
// Create the database once with: interaction-router ensure-db

// countingOverwriter stands in for the Discord REST API.
type countingOverwriter struct {
	calls int
}

func (c *countingOverwriter) ApplicationCommandBulkOverwrite(_, _ string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	c.calls++
	out := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for i, cmd := range cmds {
		created := *cmd
		created.ID = strconv.Itoa(c.calls*1000 + i)
		out = append(out, &created)
	}
	return out, nil
}

func TestIntegration_SyncWithRepository(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skipf("%s - DATABASE_URL not set, skipping", integrationTestPrefix)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.EnsureDatabase(ctx, url); err != nil {
		t.Fatalf("%s - EnsureDatabase failed: %v", integrationTestPrefix, err)
	}
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		t.Fatalf("%s - NewPool failed: %v", integrationTestPrefix, err)
	}
	defer pool.Close()

	migrationPath := "migrations"
	if _, err := os.Stat(migrationPath); os.IsNotExist(err) {
		migrationPath = filepath.Join("..", "migrations")
	}
	migrations, err := db.LoadMigrationFiles(migrationPath)
	if err != nil {
		t.Fatalf("%s - LoadMigrationFiles failed: %v", integrationTestPrefix, err)
	}
	if _, err := db.RunMigrations(ctx, pool, migrations); err != nil {
		t.Fatalf("%s - RunMigrations failed: %v", integrationTestPrefix, err)
	}

	scope := db.Scope{ApplicationID: "it-app", GuildID: "it-guild"}
	if err := db.ClearCommands(ctx, pool, scope); err != nil {
		t.Fatalf("%s - ClearCommands failed: %v", integrationTestPrefix, err)
	}
	t.Cleanup(func() { _ = db.ClearCommands(context.Background(), pool, scope) })

	repo := db.NewRepository(pool)
	api := &countingOverwriter{}
	syncer := discord.NewSyncer(discord.NewSyncerParams{
		API:           api,
		Store:         repo,
		ApplicationID: scope.ApplicationID,
		GuildID:       scope.GuildID,
	})
	m := manifest.Default()

	res, err := syncer.Sync(ctx, m, false)
	if err != nil {
		t.Fatalf("%s - first Sync failed: %v", integrationTestPrefix, err)
	}
	if res.Decision.Action != manifest.ActionSync {
		t.Errorf("%s - first decision = %s, want sync", integrationTestPrefix, res.Decision.Action)
	}

	state, err := repo.GetSyncState(ctx, scope)
	if err != nil || state == nil {
		t.Fatalf("%s - GetSyncState = %v, %v", integrationTestPrefix, state, err)
	}
	if state.ManifestVersion != m.Version || state.CommandCount != len(m.Commands) {
		t.Errorf("%s - state = %+v", integrationTestPrefix, state)
	}

	// The same manifest again is a no-op against the platform.
	res, err = syncer.Sync(ctx, m, false)
	if err != nil {
		t.Fatalf("%s - second Sync failed: %v", integrationTestPrefix, err)
	}
	if res.Decision.Action != manifest.ActionSkip || api.calls != 1 {
		t.Errorf("%s - second decision = %s, calls = %d", integrationTestPrefix, res.Decision.Action, api.calls)
	}

	// A downgrade is refused.
	older := manifest.Default()
	older.Version = "0.9.0"
	if _, err := syncer.Sync(ctx, older, false); err == nil {
		t.Errorf("%s - downgrade should be rejected", integrationTestPrefix)
	}

	cmds, err := repo.ListApplicationCommands(ctx, scope)
	if err != nil {
		t.Fatalf("%s - ListApplicationCommands failed: %v", integrationTestPrefix, err)
	}
	if len(cmds) != len(m.Commands) || cmds[0].CommandID == "" {
		t.Errorf("%s - stored commands = %+v", integrationTestPrefix, cmds)
	}
}
