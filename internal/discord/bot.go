package discord

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/pkg/slash"
	"go.uber.org/zap"
)

// Dispatcher is the part of slash.Dispatcher the bot needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, i *discordgo.Interaction) error
}

// Bot connects a gateway session to a Dispatcher and is the error boundary
// for every interaction event.
type Bot struct {
	s          *discordgo.Session
	dispatcher Dispatcher
	log        *zap.Logger

	// notify tells the invoking user that a command failed.
	notify func(i *discordgo.Interaction, msg string) error
}

// NewSession creates a gateway session for a bot token.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

// NewBot returns a Bot routing interactions of s to d.
func NewBot(s *discordgo.Session, d Dispatcher, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bot{s: s, dispatcher: d, log: log}
	b.notify = func(i *discordgo.Interaction, msg string) error {
		return RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{Description: msg})
	}
	return b
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.s.AddHandler(b.onReady)
	b.s.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		b.HandleInteraction(ctx, ic.Interaction)
	})

	if err := b.s.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.s.Close()

	<-ctx.Done()
	b.log.Info("Shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("Discord bot is running",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)))
}

// HandleInteraction dispatches one interaction. Failures, panics included,
// are logged and never escape. A failed command is answered with an
// ephemeral notice so the interaction does not stay unanswered.
func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Interaction panicked",
				zap.String("interaction_id", i.ID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	err := b.dispatcher.Dispatch(ctx, i)
	if err == nil {
		return
	}

	fields := []zap.Field{
		zap.String("interaction_id", i.ID),
		zap.Int("type", int(i.Type)),
		zap.String("guild_id", i.GuildID),
		zap.Error(err),
	}
	var pe *slash.PanicError
	if errors.As(err, &pe) {
		fields = append(fields, zap.ByteString("stack", pe.Stack))
	}
	switch {
	case errors.Is(err, slash.ErrUnsupportedInteraction):
		b.log.Debug("Ignoring interaction", fields...)
		return
	case errors.Is(err, slash.ErrUnknownCommand), errors.Is(err, slash.ErrUnknownSubcommand):
		b.log.Warn("Command catalog out of sync", fields...)
	default:
		b.log.Error("Interaction failed", fields...)
	}

	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if nerr := b.notify(i, userMessage(err)); nerr != nil {
		b.log.Warn("Failed to report error to user", zap.String("interaction_id", i.ID), zap.Error(nerr))
	}
}

// userMessage is the text shown to the user for a failed command.
func userMessage(err error) string {
	switch {
	case errors.Is(err, slash.ErrGuildOnly):
		return "This command can only be used in a server."
	case errors.Is(err, slash.ErrUnknownCommand), errors.Is(err, slash.ErrUnknownSubcommand):
		return "This command is not available right now. Please try again later."
	default:
		return fmt.Sprintf("Error running command: %v", err)
	}
}
