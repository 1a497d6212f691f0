package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearCommands removes stored commands and sync state for scope, forcing
// the next sync to run. It does not touch the platform.
func ClearCommands(ctx context.Context, pool *pgxpool.Pool, scope Scope) error {
	slog.Info(fmt.Sprintf("%s - Clearing commands app=%s guild=%q", clearLogPrefix, scope.ApplicationID, scope.GuildID))

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM application_commands WHERE application_id = $1 AND guild_id = $2`,
			scope.ApplicationID, scope.GuildID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`DELETE FROM command_sync_state WHERE application_id = $1 AND guild_id = $2`,
			scope.ApplicationID, scope.GuildID)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s - delete failed: %w", clearLogPrefix, err)
	}
	return nil
}
