package discord

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/pkg/slash"
)

type dispatchFunc func(ctx context.Context, i *discordgo.Interaction) error

func (f dispatchFunc) Dispatch(ctx context.Context, i *discordgo.Interaction) error { return f(ctx, i) }

func TestHandleInteractionBoundary(t *testing.T) {
	tests := []struct {
		name     string
		typ      discordgo.InteractionType
		err      error
		panics   bool
		notified string
	}{
		{name: "success", typ: discordgo.InteractionApplicationCommand},
		{name: "handler error", typ: discordgo.InteractionApplicationCommand, err: errors.New("boom"), notified: "boom"},
		{name: "unknown command", typ: discordgo.InteractionApplicationCommand, err: &slash.LookupError{Err: slash.ErrUnknownCommand}, notified: "not available"},
		{name: "guild only", typ: discordgo.InteractionApplicationCommand, err: slash.ErrGuildOnly, notified: "server"},
		{name: "autocomplete error", typ: discordgo.InteractionApplicationCommandAutocomplete, err: slash.ErrNoFocusedOption},
		{name: "component", typ: discordgo.InteractionMessageComponent, err: slash.ErrUnsupportedInteraction},
		{name: "panic", typ: discordgo.InteractionApplicationCommand, panics: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBot(nil, dispatchFunc(func(context.Context, *discordgo.Interaction) error {
				if tt.panics {
					panic("dispatcher bug")
				}
				return tt.err
			}), nil)
			var notified []string
			b.notify = func(_ *discordgo.Interaction, msg string) error {
				notified = append(notified, msg)
				return nil
			}

			b.HandleInteraction(context.Background(), &discordgo.Interaction{ID: "i1", Type: tt.typ})

			if tt.notified == "" {
				if len(notified) != 0 {
					t.Fatalf("unexpected notice %v", notified)
				}
				return
			}
			if len(notified) != 1 || !strings.Contains(notified[0], tt.notified) {
				t.Fatalf("notices = %v, want one containing %q", notified, tt.notified)
			}
		})
	}
}
