package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Channels looks channels up in the gateway state cache first and falls back
// to the REST API.
type Channels struct {
	s *discordgo.Session
}

func NewChannels(s *discordgo.Session) *Channels {
	return &Channels{s: s}
}

func (c *Channels) Channel(ctx context.Context, _, channelID string) (*discordgo.Channel, error) {
	if c.s.State != nil {
		if ch, err := c.s.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	return c.s.Channel(channelID, discordgo.WithContext(ctx))
}
