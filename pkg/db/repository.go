package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Repository persists application-command registrations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// GetSyncState returns the last recorded sync for scope, or nil when the
// scope was never synced.
func (r *Repository) GetSyncState(ctx context.Context, scope Scope) (*SyncState, error) {
	slog.Debug(fmt.Sprintf("%s - GetSyncState app=%s guild=%q", repoLogPrefix, scope.ApplicationID, scope.GuildID))

	var s SyncState
	err := r.pool.QueryRow(ctx,
		`SELECT application_id, guild_id, manifest_name, manifest_version, manifest_hash, command_count, synced_at
		 FROM command_sync_state
		 WHERE application_id = $1 AND guild_id = $2`,
		scope.ApplicationID, scope.GuildID,
	).Scan(&s.ApplicationID, &s.GuildID, &s.ManifestName, &s.ManifestVersion, &s.ManifestHash, &s.CommandCount, &s.SyncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetSyncState: %w", repoLogPrefix, err)
	}
	return &s, nil
}

// RecordSync replaces the stored commands of the scope and its sync state in
// one transaction. The platform overwrite is total, so rows for commands
// that are no longer declared are removed.
func (r *Repository) RecordSync(ctx context.Context, params RecordSyncParams) error {
	slog.Info(fmt.Sprintf("%s - RecordSync app=%s guild=%q version=%s commands=%d",
		repoLogPrefix, params.Scope.ApplicationID, params.Scope.GuildID, params.ManifestVersion, len(params.Commands)))

	now := time.Now().UTC()
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM application_commands WHERE application_id = $1 AND guild_id = $2`,
			params.Scope.ApplicationID, params.Scope.GuildID); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, c := range params.Commands {
			batch.Queue(
				`INSERT INTO application_commands
				   (application_id, guild_id, name, command_type, command_id, description, manifest_version, synced_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				params.Scope.ApplicationID, params.Scope.GuildID, c.Name, c.Type, c.CommandID, c.Description,
				params.ManifestVersion, now)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO command_sync_state
			   (application_id, guild_id, manifest_name, manifest_version, manifest_hash, command_count, synced_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (application_id, guild_id) DO UPDATE SET
			   manifest_name = EXCLUDED.manifest_name,
			   manifest_version = EXCLUDED.manifest_version,
			   manifest_hash = EXCLUDED.manifest_hash,
			   command_count = EXCLUDED.command_count,
			   synced_at = EXCLUDED.synced_at`,
			params.Scope.ApplicationID, params.Scope.GuildID, params.ManifestName, params.ManifestVersion,
			params.ManifestHash, len(params.Commands), now)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s - RecordSync: %w", repoLogPrefix, err)
	}
	return nil
}

// ListApplicationCommands returns the stored commands of scope ordered by
// type and name.
func (r *Repository) ListApplicationCommands(ctx context.Context, scope Scope) ([]ApplicationCommand, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT application_id, guild_id, name, command_type, command_id, description, manifest_version, synced_at
		 FROM application_commands
		 WHERE application_id = $1 AND guild_id = $2
		 ORDER BY command_type, name`,
		scope.ApplicationID, scope.GuildID)
	if err != nil {
		return nil, fmt.Errorf("%s - ListApplicationCommands: %w", repoLogPrefix, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ApplicationCommand, error) {
		var c ApplicationCommand
		err := row.Scan(&c.ApplicationID, &c.GuildID, &c.Name, &c.Type, &c.CommandID, &c.Description, &c.ManifestVersion, &c.SyncedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s - ListApplicationCommands scan: %w", repoLogPrefix, err)
	}
	return out, nil
}
