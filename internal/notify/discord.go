package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts events to one channel as embeds.
type Discord struct {
	Session   session
	ChannelID string
}

// NewDiscord builds a Discord dispatcher from a bot token. The session is
// REST-only; no gateway connection is opened.
func NewDiscord(token, channelID string) (*Discord, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notify: create discord session: %w", err)
	}
	return &Discord{Session: dg, ChannelID: channelID}, nil
}

func (d *Discord) Notify(_ context.Context, ev Event) {
	embed := &discordgo.MessageEmbed{
		Title:       ev.Title(),
		Description: ev.Body(),
		Color:       parseHexColor(ev.color()),
	}
	if _, err := d.Session.ChannelMessageSendEmbed(d.ChannelID, embed); err != nil {
		log.Printf("notify: discord post: %v", err)
	}
}

func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var color int
	for _, c := range hex {
		color <<= 4
		switch {
		case c >= '0' && c <= '9':
			color |= int(c - '0')
		case c >= 'a' && c <= 'f':
			color |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			color |= int(c-'A') + 10
		}
	}
	return color
}
