package router

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Responder is the slice of the Discord session the handlers and the
// scheduler use. Tests substitute a recording fake.
type Responder interface {
	// Respond answers an interaction (message, update, modal or deferral).
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	// InteractionMessage fetches the message created by the initial response,
	// so its id can be tracked for later edits.
	InteractionMessage(i *discordgo.Interaction) (*discordgo.Message, error)
	// EditMessage rewrites a tracked message in place.
	EditMessage(channelID, messageID string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error
	// SendMessage posts a standalone message to a channel.
	SendMessage(channelID string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error)
	// Pin pins a message. Callers treat failures as best-effort.
	Pin(channelID, messageID string) error
	// GuildOwner returns the owner user id of a guild.
	GuildOwner(guildID string) (string, error)
}

// DiscordResponder backs Responder with a live discordgo session.
type DiscordResponder struct {
	S *discordgo.Session
}

func (r *DiscordResponder) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return r.S.InteractionRespond(i, resp)
}

func (r *DiscordResponder) InteractionMessage(i *discordgo.Interaction) (*discordgo.Message, error) {
	return r.S.InteractionResponse(i)
}

func (r *DiscordResponder) EditMessage(channelID, messageID string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	_, err := r.S.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}

func (r *DiscordResponder) SendMessage(channelID string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	return r.S.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     embeds,
		Components: components,
	})
}

func (r *DiscordResponder) Pin(channelID, messageID string) error {
	return r.S.ChannelMessagePin(channelID, messageID)
}

func (r *DiscordResponder) GuildOwner(guildID string) (string, error) {
	if g, err := r.S.State.Guild(guildID); err == nil && g.OwnerID != "" {
		return g.OwnerID, nil
	}
	g, err := r.S.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("router: guild %s: %w", guildID, err)
	}
	return g.OwnerID, nil
}

var _ Responder = (*DiscordResponder)(nil)
