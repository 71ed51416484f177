package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/pkg/slash"
)

const quoteLimit = 1024

// Menus holds the context-menu actions.
type Menus struct {
	env Env
}

func (m *Menus) Name() string     { return "menus" }
func (m *Menus) Category() string { return "🕯️ Information" }

func declareMenus(col *slash.Collector, env Env) error {
	inspect, err := slash.NewUserCommand(slash.ContextSpec{Name: "Inspect"}, runInspect)
	if err != nil {
		return err
	}
	quote, err := slash.NewMessageCommand(slash.ContextSpec{Name: "Quote"}, runQuote)
	if err != nil {
		return err
	}
	return col.AttachGroup(&Menus{env: env}, inspect, quote)
}

func runInspect(_ context.Context, owner slash.Group, i *discordgo.Interaction, user *discordgo.User, member *discordgo.Member) error {
	m := owner.(*Menus)

	created, err := discordgo.SnowflakeTimestamp(user.ID)
	if err != nil {
		return fmt.Errorf("parse user id %s: %w", user.ID, err)
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "ID", Value: user.ID, Inline: true},
		{Name: "Created", Value: fmt.Sprintf("<t:%d:R>", created.Unix()), Inline: true},
	}
	if user.Bot {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Bot", Value: "yes", Inline: true})
	}
	if member != nil {
		if member.Nick != "" {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Nickname", Value: member.Nick, Inline: true})
		}
		if !member.JoinedAt.IsZero() {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Joined", Value: fmt.Sprintf("<t:%d:R>", member.JoinedAt.Unix()), Inline: true})
		}
		if len(member.Roles) > 0 {
			roles := make([]string, len(member.Roles))
			for n, r := range member.Roles {
				roles[n] = "<@&" + r + ">"
			}
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Roles", Value: strings.Join(roles, " ")})
		}
	}

	return m.env.Replier.Reply(i, &discordgo.MessageEmbed{
		Title:  user.Username,
		Fields: fields,
	}, true)
}

func runQuote(_ context.Context, owner slash.Group, i *discordgo.Interaction, msg *discordgo.Message) error {
	m := owner.(*Menus)

	text := msg.Content
	if text == "" {
		text = "*no text*"
	}
	if r := []rune(text); len(r) > quoteLimit {
		text = string(r[:quoteLimit-1]) + "…"
	}

	embed := &discordgo.MessageEmbed{
		Description: "> " + strings.ReplaceAll(text, "\n", "\n> "),
	}
	if !msg.Timestamp.IsZero() {
		embed.Timestamp = msg.Timestamp.Format(time.RFC3339)
	}
	if msg.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: msg.Author.Username}
	}
	if i.GuildID != "" {
		embed.Title = "Jump to message"
		embed.URL = fmt.Sprintf("https://discord.com/channels/%s/%s/%s", i.GuildID, msg.ChannelID, msg.ID)
	}
	if u := invoker(i); u != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Quoted by " + u.Username}
	}
	return m.env.Replier.Reply(i, embed, false)
}
