// Package discord connects the router directly to the platform with
// discordgo: a gateway handler feeds interactions to the dispatcher, a
// Transport answers them over REST and a Syncer registers the command
// manifest.
package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/morezero/interaction-router/pkg/embed"
	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/session"
)

// FromDiscord converts a platform interaction. ok is false for interaction
// types the router does not route, such as pings.
func FromDiscord(i *discordgo.Interaction) (in *interaction.Interaction, ok bool) {
	in = &interaction.Interaction{
		ID:            i.ID,
		ApplicationID: i.AppID,
		Token:         i.Token,
		GuildID:       i.GuildID,
		ChannelID:     i.ChannelID,
		Locale:        string(i.Locale),
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		in.UserID = i.Member.User.ID
	case i.User != nil:
		in.UserID = i.User.ID
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand, discordgo.InteractionApplicationCommandAutocomplete:
		in.Kind = interaction.KindCommand
		if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
			in.Kind = interaction.KindAutocomplete
		}
		data := i.ApplicationCommandData()
		in.Identifier = data.Name
		in.Options = convertOptions(data.Options)
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		in.Kind = interaction.KindComponent
		in.Identifier = data.CustomID
		in.Values = data.Values
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		in.Kind = interaction.KindModal
		in.Identifier = data.CustomID
		in.Fields = make(map[string]string)
		collectFields(in.Fields, data.Components)
	default:
		return nil, false
	}
	return in, true
}

func convertOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) []interaction.Option {
	if len(opts) == 0 {
		return nil
	}
	out := make([]interaction.Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, interaction.Option{
			Name:    o.Name,
			Type:    interaction.OptionType(o.Type),
			Value:   o.Value,
			Focused: o.Focused,
			Options: convertOptions(o.Options),
		})
	}
	return out
}

// collectFields walks action rows and records every text input by custom id.
func collectFields(out map[string]string, components []discordgo.MessageComponent) {
	for _, c := range components {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			collectFields(out, v.Components)
		case discordgo.ActionsRow:
			collectFields(out, v.Components)
		case *discordgo.TextInput:
			out[v.CustomID] = v.Value
		case discordgo.TextInput:
			out[v.CustomID] = v.Value
		}
	}
}

// toDiscord builds the minimal platform interaction REST calls need.
func toDiscord(in *interaction.Interaction) *discordgo.Interaction {
	return &discordgo.Interaction{ID: in.ID, AppID: in.ApplicationID, Token: in.Token}
}

func responseType(rt session.ResponseType) discordgo.InteractionResponseType {
	switch rt {
	case session.ResponseUpdate:
		return discordgo.InteractionResponseUpdateMessage
	case session.ResponseDeferredMessage:
		return discordgo.InteractionResponseDeferredChannelMessageWithSource
	case session.ResponseDeferredUpdate:
		return discordgo.InteractionResponseDeferredMessageUpdate
	case session.ResponseAutocomplete:
		return discordgo.InteractionApplicationCommandAutocompleteResult
	default:
		return discordgo.InteractionResponseChannelMessageWithSource
	}
}

func toEmbed(d *embed.Document) *discordgo.MessageEmbed {
	if d == nil {
		return nil
	}
	e := &discordgo.MessageEmbed{
		Title:       d.Title,
		Description: d.Description,
		URL:         d.URL,
		Color:       d.Color,
	}
	if d.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: d.Footer}
	}
	for _, f := range d.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return e
}

func toEmbeds(d *embed.Document) []*discordgo.MessageEmbed {
	if d == nil {
		return nil
	}
	return []*discordgo.MessageEmbed{toEmbed(d)}
}

func toChoices(choices []interaction.Choice) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
	for _, c := range choices {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
	}
	return out
}

// responseData renders msg for an initial response. Deferred responses carry
// flags only.
func responseData(rt session.ResponseType, msg *interaction.Message, flags session.Flags) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{Flags: discordgo.MessageFlags(flags)}
	if msg == nil {
		return data
	}
	if rt == session.ResponseAutocomplete {
		data.Choices = toChoices(msg.Choices)
		return data
	}
	data.Content = msg.Content
	data.Embeds = toEmbeds(msg.Embed)
	return data
}
