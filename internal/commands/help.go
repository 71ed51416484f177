package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/pkg/slash"
)

const uncategorized = "📦 Other"

func runHelp(_ context.Context, owner slash.Group, i *discordgo.Interaction, args slash.Args) error {
	c := owner.(*Core)
	visible := visibleCommands(c.env.Registry, i.GuildID)

	var out string
	if args.String("view_as") == "flat" {
		out = helpFlat(visible)
	} else {
		out = helpByCategory(visible)
	}
	return c.env.Replier.Reply(i, &discordgo.MessageEmbed{
		Title:       "Help",
		Description: out,
	}, true)
}

// visibleCommands returns the global commands plus those declared for guildID.
func visibleCommands(reg *slash.Registry, guildID string) []*slash.Command {
	if reg == nil {
		return nil
	}
	var out []*slash.Command
	for _, cmd := range reg.Commands() {
		if cmd.GuildID == "" || cmd.GuildID == guildID {
			out = append(out, cmd)
		}
	}
	return out
}

// usage lists the invocable forms of cmd, one per subcommand.
func usage(cmd *slash.Command) []string {
	switch cmd.Kind {
	case slash.KindUser:
		return []string{fmt.Sprintf("`%s` (user menu)", cmd.Name)}
	case slash.KindMessage:
		return []string{fmt.Sprintf("`%s` (message menu)", cmd.Name)}
	}

	var lines []string
	for _, o := range cmd.Options {
		if o.IsSubcommand() {
			lines = append(lines, fmt.Sprintf("`/%s %s` - %s", cmd.Name, o.Name, o.Description))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, fmt.Sprintf("`/%s` - %s", cmd.Name, cmd.Description))
	}
	return lines
}

func category(cmd *slash.Command) string {
	if c, ok := cmd.Owner().(Categorized); ok {
		return c.Category()
	}
	return uncategorized
}

func helpFlat(cmds []*slash.Command) string {
	var lines []string
	for _, cmd := range cmds {
		lines = append(lines, usage(cmd)...)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func helpByCategory(cmds []*slash.Command) string {
	byCat := make(map[string][]string)
	for _, cmd := range cmds {
		cat := category(cmd)
		byCat[cat] = append(byCat[cat], usage(cmd)...)
	}

	cats := make([]string, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(a, b int) bool {
		wa, oka := CategoryWeights[cats[a]]
		wb, okb := CategoryWeights[cats[b]]
		if oka != okb {
			return oka
		}
		if wa != wb {
			return wa < wb
		}
		return cats[a] < cats[b]
	})

	var sb strings.Builder
	for n, cat := range cats {
		if n > 0 {
			sb.WriteString("\n")
		}
		lines := byCat[cat]
		sort.Strings(lines)
		fmt.Fprintf(&sb, "**%s**\n%s\n", cat, strings.Join(lines, "\n"))
	}
	return sb.String()
}
