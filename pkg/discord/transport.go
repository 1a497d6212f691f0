package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/session"
)

const transportLogPrefix = "discord:transport"

// RESTClient is the subset of *discordgo.Session the Transport calls.
type RESTClient interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Transport answers interactions through the platform REST API. The
// interaction token stays valid for follow-ups, so SupportsFollowUp is true.
type Transport struct {
	api RESTClient
}

// NewTransport creates a new Transport.
func NewTransport(api RESTClient) *Transport {
	return &Transport{api: api}
}

var _ session.Transport = (*Transport)(nil)

// CreateInitialResponse implements session.Transport.
func (t *Transport) CreateInitialResponse(ctx context.Context, in *interaction.Interaction, rt session.ResponseType, msg *interaction.Message, flags session.Flags) error {
	slog.Debug(fmt.Sprintf("%s - initial %s id=%s", transportLogPrefix, rt, in.ID))

	resp := &discordgo.InteractionResponse{
		Type: responseType(rt),
		Data: responseData(rt, msg, flags),
	}
	if err := t.api.InteractionRespond(toDiscord(in), resp, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%s - respond: %w", transportLogPrefix, err)
	}
	return nil
}

// EditInitialResponse implements session.Transport.
func (t *Transport) EditInitialResponse(ctx context.Context, in *interaction.Interaction, msg *interaction.Message) error {
	slog.Debug(fmt.Sprintf("%s - edit id=%s", transportLogPrefix, in.ID))

	content := msg.Content
	embeds := toEmbeds(msg.Embed)
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	edit := &discordgo.WebhookEdit{Content: &content, Embeds: &embeds}
	if _, err := t.api.InteractionResponseEdit(toDiscord(in), edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%s - edit: %w", transportLogPrefix, err)
	}
	return nil
}

// CreateFollowUp implements session.Transport.
func (t *Transport) CreateFollowUp(ctx context.Context, in *interaction.Interaction, msg *interaction.Message, flags session.Flags) error {
	slog.Debug(fmt.Sprintf("%s - follow-up id=%s", transportLogPrefix, in.ID))

	params := &discordgo.WebhookParams{
		Content: msg.Content,
		Embeds:  toEmbeds(msg.Embed),
		Flags:   discordgo.MessageFlags(flags),
	}
	if _, err := t.api.FollowupMessageCreate(toDiscord(in), true, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%s - follow-up: %w", transportLogPrefix, err)
	}
	return nil
}

// SupportsFollowUp implements session.Transport.
func (t *Transport) SupportsFollowUp() bool { return true }
