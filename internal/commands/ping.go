package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/pkg/slash"
)

// Core holds the informational commands.
type Core struct {
	env Env
}

func (c *Core) Name() string     { return "core" }
func (c *Core) Category() string { return "🛠️ Maintenance" }

func declareCore(col *slash.Collector, env Env) error {
	ping, err := slash.NewChatCommand(slash.ChatSpec{
		Name:        "ping",
		Description: "Check bot latency",
		Handler:     runPing,
	})
	if err != nil {
		return err
	}

	help, err := slash.NewChatCommand(slash.ChatSpec{
		Name:        "help",
		Description: "Get a list of available commands",
		Params:      []slash.Param{{Name: "view_as", Type: slash.TypeString, Optional: true}},
		Options: []slash.OptionSpec{{
			Name:        "view_as",
			Description: "View commands by category or as a flat list",
			Choices: []*slash.Choice{
				{Name: "Categories", Value: "category"},
				{Name: "Flat list", Value: "flat"},
			},
		}},
		Handler: runHelp,
	})
	if err != nil {
		return err
	}

	return col.AttachGroup(&Core{env: env}, ping, help)
}

func runPing(_ context.Context, owner slash.Group, i *discordgo.Interaction, _ slash.Args) error {
	c := owner.(*Core)
	latency := int64(0)
	if c.env.Latency != nil {
		latency = c.env.Latency().Milliseconds()
	}
	return c.env.Replier.Reply(i, &discordgo.MessageEmbed{
		Title:       "Pong!",
		Description: fmt.Sprintf("Latency: %dms", latency),
	}, true)
}
