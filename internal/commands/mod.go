package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/pkg/slash"
)

const maxTimeoutMinutes = 28 * 24 * 60

// Mod holds the moderation commands. They live in a single guild.
type Mod struct {
	env Env
}

func (m *Mod) Name() string     { return "mod" }
func (m *Mod) Category() string { return "🛡️ Moderation" }

func declareMod(col *slash.Collector, env Env) error {
	if env.ModGuildID == "" {
		return nil
	}

	spec := slash.ChatSpec{
		Name:        "mod",
		Description: "Moderation tools",
		GuildID:     env.ModGuildID,
		GuildOnly:   true,
	}
	if env.ModRoleID != "" {
		locked := false
		spec.DefaultPermission = &locked
		spec.Permissions = []*discordgo.ApplicationCommandPermissions{{
			ID:         env.ModRoleID,
			Type:       discordgo.ApplicationCommandPermissionTypeRole,
			Permission: true,
		}}
	}
	cmd, err := slash.NewChatCommand(spec)
	if err != nil {
		return err
	}

	if _, err := cmd.AddSubcommand(slash.SubcommandSpec{
		Name:        "ban",
		Description: "Ban a member",
		Params: []slash.Param{
			{Name: "user", Type: slash.TypeUser},
			{Name: "reason", Type: slash.TypeString, Optional: true},
			{Name: "delete_days", Range: slash.Between(0, 7), Optional: true},
		},
		Options: []slash.OptionSpec{
			{Name: "user", Description: "Who to ban"},
			{Name: "reason", Description: "Shown in the audit log"},
			{Name: "delete_days", Description: "Days of messages to delete"},
		},
		Handler: runBan,
	}); err != nil {
		return err
	}

	if _, err := cmd.AddSubcommand(slash.SubcommandSpec{
		Name:        "timeout",
		Description: "Time a member out",
		Params: []slash.Param{
			{Name: "user", Type: slash.TypeMember},
			{Name: "minutes", Range: slash.Between(1, maxTimeoutMinutes)},
			{Name: "reason", Type: slash.TypeString, Optional: true},
		},
		Options: []slash.OptionSpec{
			{Name: "user", Description: "Who to silence"},
			{Name: "minutes", Description: "How long"},
			{Name: "reason", Description: "Shown in the audit log"},
		},
		Handler: runTimeout,
	}); err != nil {
		return err
	}

	return col.AttachGroup(&Mod{env: env}, cmd)
}

func runBan(ctx context.Context, owner slash.Group, i *discordgo.Interaction, args slash.Args) error {
	m := owner.(*Mod)
	if msg := missingPermission(i, discordgo.PermissionBanMembers); msg != "" {
		return m.env.Replier.Reply(i, &discordgo.MessageEmbed{Description: msg}, true)
	}
	target := args.User("user")
	if target == nil {
		return fmt.Errorf("ban: no user resolved")
	}
	if u := invoker(i); u != nil && u.ID == target.ID {
		return m.env.Replier.Reply(i, &discordgo.MessageEmbed{Description: "You can't ban yourself."}, true)
	}

	reason := args.String("reason")
	days := int(args.Int("delete_days"))
	if err := m.env.Moderator.GuildBanCreateWithReason(i.GuildID, target.ID, reason, days, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("ban %s: %w", target.ID, err)
	}

	return m.env.Replier.Reply(i, &discordgo.MessageEmbed{
		Title:       "🔨 Banned",
		Description: fmt.Sprintf("<@%s> was banned.%s", target.ID, reasonSuffix(reason)),
	}, false)
}

func runTimeout(ctx context.Context, owner slash.Group, i *discordgo.Interaction, args slash.Args) error {
	m := owner.(*Mod)
	if msg := missingPermission(i, discordgo.PermissionModerateMembers); msg != "" {
		return m.env.Replier.Reply(i, &discordgo.MessageEmbed{Description: msg}, true)
	}
	target := args.User("user")
	if target == nil {
		return fmt.Errorf("timeout: no user resolved")
	}
	if args.Member("user") == nil {
		return m.env.Replier.Reply(i, &discordgo.MessageEmbed{Description: "That user is not a member of this server."}, true)
	}

	reason := args.String("reason")
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}

	until := m.env.now().Add(time.Duration(args.Int("minutes")) * time.Minute)
	if err := m.env.Moderator.GuildMemberTimeout(i.GuildID, target.ID, &until, opts...); err != nil {
		return fmt.Errorf("timeout %s: %w", target.ID, err)
	}

	return m.env.Replier.Reply(i, &discordgo.MessageEmbed{
		Title:       "🔇 Timed out",
		Description: fmt.Sprintf("<@%s> is muted until <t:%d:t>.%s", target.ID, until.Unix(), reasonSuffix(reason)),
	}, false)
}

func reasonSuffix(reason string) string {
	if reason == "" {
		return ""
	}
	return "\nReason: " + reason
}
