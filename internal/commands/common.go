package commands

import (
	"math/rand/v2"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/internal/discord"
	"github.com/keshon/slashroute/pkg/slash"
)

// Categorized is implemented by groups that appear in /help.
type Categorized interface {
	Category() string
}

// CategoryWeights orders help sections.
var CategoryWeights = map[string]int{
	"🕯️ Information": 0,
	"📢 Utilities":    10,
	"🎲 Gameplay":     20,
	"🛡️ Moderation":  50,
	"🛠️ Maintenance": 60,
}

// Replier sends the one reply a command gives to its interaction.
type Replier interface {
	Reply(i *discordgo.Interaction, embed *discordgo.MessageEmbed, ephemeral bool) error
}

// Moderator is the part of the Discord API the moderation commands use.
type Moderator interface {
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
}

// Env carries what command handlers need from the outside world.
type Env struct {
	Replier   Replier
	Moderator Moderator
	Registry  *slash.Registry

	Latency func() time.Duration
	Now     func() time.Time
	IntN    func(n int) int

	// ModGuildID enables the moderation commands in that guild. ModRoleID,
	// when set, is the role allowed to use them.
	ModGuildID string
	ModRoleID  string
}

// SessionEnv returns an Env backed by s.
func SessionEnv(s *discordgo.Session, reg *slash.Registry) Env {
	return Env{
		Replier:   sessionReplier{s: s},
		Moderator: s,
		Registry:  reg,
		Latency:   s.HeartbeatLatency,
		Now:       time.Now,
		IntN:      rand.IntN,
	}
}

type sessionReplier struct {
	s *discordgo.Session
}

func (r sessionReplier) Reply(i *discordgo.Interaction, embed *discordgo.MessageEmbed, ephemeral bool) error {
	if ephemeral {
		return discord.RespondEmbedEphemeral(r.s, i, embed)
	}
	return discord.RespondEmbed(r.s, i, embed)
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e Env) intN(n int) int {
	if e.IntN == nil {
		return rand.IntN(n)
	}
	return e.IntN(n)
}

// invoker returns the user who triggered i.
func invoker(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
