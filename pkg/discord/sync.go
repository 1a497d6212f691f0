package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/morezero/interaction-router/pkg/db"
	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/manifest"
)

const syncLogPrefix = "discord:sync"

// CommandOverwriter is the subset of *discordgo.Session the Syncer calls.
type CommandOverwriter interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// SyncStore remembers what was synced. *db.Repository implements it.
type SyncStore interface {
	GetSyncState(ctx context.Context, scope db.Scope) (*db.SyncState, error)
	RecordSync(ctx context.Context, params db.RecordSyncParams) error
}

// Syncer registers a command manifest on the platform.
type Syncer struct {
	api   CommandOverwriter
	store SyncStore
	scope db.Scope
}

// NewSyncerParams holds parameters for NewSyncer.
type NewSyncerParams struct {
	API           CommandOverwriter
	Store         SyncStore // optional; without it every run syncs
	ApplicationID string
	GuildID       string // empty registers global commands
}

// NewSyncer creates a new Syncer.
func NewSyncer(params NewSyncerParams) *Syncer {
	return &Syncer{
		api:   params.API,
		store: params.Store,
		scope: db.Scope{ApplicationID: params.ApplicationID, GuildID: params.GuildID},
	}
}

// SyncResult describes a finished sync run.
type SyncResult struct {
	Decision manifest.Decision
	Commands []db.ApplicationCommand
}

// Sync validates m, compares it with the stored state and, when needed,
// overwrites the platform commands and records the result.
func (s *Syncer) Sync(ctx context.Context, m *manifest.Manifest, force bool) (*SyncResult, error) {
	if s.scope.ApplicationID == "" {
		return nil, interaction.NewError(interaction.CodeInvalidArgument, "application id is required for command sync")
	}
	if err := manifest.Validate(m); err != nil {
		return nil, err
	}

	params := manifest.DecideParams{Manifest: m, Force: force}
	if s.store != nil {
		state, err := s.store.GetSyncState(ctx, s.scope)
		if err != nil {
			return nil, fmt.Errorf("%s - load sync state: %w", syncLogPrefix, err)
		}
		if state != nil {
			params.StoredVersion = state.ManifestVersion
			params.StoredHash = state.ManifestHash
		}
	}

	decision, err := manifest.Decide(params)
	if err != nil {
		return nil, err
	}
	result := &SyncResult{Decision: decision}

	switch decision.Action {
	case manifest.ActionSkip:
		slog.Info(fmt.Sprintf("%s - Skipping sync: %s", syncLogPrefix, decision.Reason))
		return result, nil
	case manifest.ActionReject:
		e := interaction.NewError(interaction.CodeConflict, decision.Reason)
		e.Details = map[string]interface{}{"stored": params.StoredVersion, "manifest": m.Version}
		return result, e
	}

	slog.Info(fmt.Sprintf("%s - Syncing %d commands for app=%s guild=%q: %s",
		syncLogPrefix, len(m.Commands), s.scope.ApplicationID, s.scope.GuildID, decision.Reason))

	created, err := s.api.ApplicationCommandBulkOverwrite(s.scope.ApplicationID, s.scope.GuildID,
		ToApplicationCommands(m), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s - bulk overwrite: %w", syncLogPrefix, err)
	}

	for _, c := range created {
		result.Commands = append(result.Commands, db.ApplicationCommand{
			ApplicationID:   s.scope.ApplicationID,
			GuildID:         s.scope.GuildID,
			Name:            c.Name,
			Type:            commandTypeName(c.Type),
			CommandID:       c.ID,
			Description:     c.Description,
			ManifestVersion: m.Version,
		})
	}

	if s.store != nil {
		err := s.store.RecordSync(ctx, db.RecordSyncParams{
			Scope:           s.scope,
			ManifestName:    m.Name,
			ManifestVersion: m.Version,
			ManifestHash:    decision.Hash,
			Commands:        result.Commands,
		})
		if err != nil {
			// The platform already has the new commands; the next run will
			// overwrite them again.
			return result, fmt.Errorf("%s - record sync: %w", syncLogPrefix, err)
		}
	}
	return result, nil
}

// ToApplicationCommands renders the manifest as platform commands.
func ToApplicationCommands(m *manifest.Manifest) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(m.Commands))
	for _, c := range m.Commands {
		cmd := &discordgo.ApplicationCommand{
			Name:         c.Name,
			Description:  c.Description,
			Type:         commandType(c.EffectiveType()),
			DMPermission: c.DMPermission,
			Options:      toCommandOptions(c.Options),
		}
		if c.NSFW {
			nsfw := true
			cmd.NSFW = &nsfw
		}
		out = append(out, cmd)
	}
	return out
}

func toCommandOptions(opts []manifest.Option) []*discordgo.ApplicationCommandOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, o := range opts {
		opt := &discordgo.ApplicationCommandOption{
			Type:         optionType(o.Type),
			Name:         o.Name,
			Description:  o.Description,
			Required:     o.Required,
			Autocomplete: o.Autocomplete,
			Options:      toCommandOptions(o.Options),
			MinValue:     o.MinValue,
			MinLength:    o.MinLength,
			MaxLength:    o.MaxLength,
		}
		if o.MaxValue != nil {
			opt.MaxValue = *o.MaxValue
		}
		for _, ch := range o.Choices {
			opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: ch.Name, Value: ch.Value})
		}
		out = append(out, opt)
	}
	return out
}

func commandType(t manifest.CommandType) discordgo.ApplicationCommandType {
	switch t {
	case manifest.CommandUser:
		return discordgo.UserApplicationCommand
	case manifest.CommandMessage:
		return discordgo.MessageApplicationCommand
	default:
		return discordgo.ChatApplicationCommand
	}
}

func commandTypeName(t discordgo.ApplicationCommandType) string {
	switch t {
	case discordgo.UserApplicationCommand:
		return string(manifest.CommandUser)
	case discordgo.MessageApplicationCommand:
		return string(manifest.CommandMessage)
	default:
		return string(manifest.CommandChatInput)
	}
}

var optionTypes = map[manifest.OptionType]discordgo.ApplicationCommandOptionType{
	manifest.OptionSubCommand:      discordgo.ApplicationCommandOptionSubCommand,
	manifest.OptionSubCommandGroup: discordgo.ApplicationCommandOptionSubCommandGroup,
	manifest.OptionString:          discordgo.ApplicationCommandOptionString,
	manifest.OptionInteger:         discordgo.ApplicationCommandOptionInteger,
	manifest.OptionBoolean:         discordgo.ApplicationCommandOptionBoolean,
	manifest.OptionUser:            discordgo.ApplicationCommandOptionUser,
	manifest.OptionChannel:         discordgo.ApplicationCommandOptionChannel,
	manifest.OptionRole:            discordgo.ApplicationCommandOptionRole,
	manifest.OptionMentionable:     discordgo.ApplicationCommandOptionMentionable,
	manifest.OptionNumber:          discordgo.ApplicationCommandOptionNumber,
	manifest.OptionAttachment:      discordgo.ApplicationCommandOptionAttachment,
}

func optionType(t manifest.OptionType) discordgo.ApplicationCommandOptionType {
	return optionTypes[t]
}
