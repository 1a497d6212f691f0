package db

import "time"

// ApplicationCommand is a row in application_commands.
type ApplicationCommand struct {
	ApplicationID   string    `json:"application_id"`
	GuildID         string    `json:"guild_id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	CommandID       string    `json:"command_id"`
	Description     string    `json:"description"`
	ManifestVersion string    `json:"manifest_version"`
	SyncedAt        time.Time `json:"synced_at"`
}

// SyncState is a row in command_sync_state.
type SyncState struct {
	ApplicationID   string    `json:"application_id"`
	GuildID         string    `json:"guild_id"`
	ManifestName    string    `json:"manifest_name"`
	ManifestVersion string    `json:"manifest_version"`
	ManifestHash    string    `json:"manifest_hash"`
	CommandCount    int       `json:"command_count"`
	SyncedAt        time.Time `json:"synced_at"`
}

// Scope identifies where commands are registered. GuildID is empty for
// global commands.
type Scope struct {
	ApplicationID string
	GuildID       string
}

// RecordSyncParams holds parameters for RecordSync.
type RecordSyncParams struct {
	Scope           Scope
	ManifestName    string
	ManifestVersion string
	ManifestHash    string
	Commands        []ApplicationCommand
}
