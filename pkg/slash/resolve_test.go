package slash

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type fakeChannels map[string]*discordgo.Channel

func (f fakeChannels) Channel(_ context.Context, _, id string) (*discordgo.Channel, error) {
	if ch, ok := f[id]; ok {
		return ch, nil
	}
	return nil, errors.New("404 Not Found")
}

func commandInteraction(guildID string, data discordgo.ApplicationCommandInteractionData) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Data:    data,
	}
}

func testResolved() *discordgo.ApplicationCommandInteractionDataResolved {
	return &discordgo.ApplicationCommandInteractionDataResolved{
		Users: map[string]*discordgo.User{
			"55": {ID: "55", Username: "alice"},
			"56": {ID: "56", Username: "bob"},
		},
		Members: map[string]*discordgo.Member{
			"55": {Nick: "Al"},
		},
		Roles: map[string]*discordgo.Role{
			"7": {ID: "7", Name: "mods"},
		},
		Messages: map[string]*discordgo.Message{
			"m1": {ID: "m1", Content: "hello"},
		},
	}
}

func TestResolveOptions(t *testing.T) {
	raw := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "reason", Type: OptionString, Value: "spam"},
		{Name: "days", Type: OptionInteger, Value: float64(3)},
		{Name: "member", Type: OptionUser, Value: "55"},
		{Name: "user", Type: OptionUser, Value: "56"},
		{Name: "role", Type: OptionRole, Value: "7"},
		{Name: "who", Type: OptionMentionable, Value: "56"},
		{Name: "what", Type: OptionMentionable, Value: "7"},
		{Name: "where", Type: OptionChannel, Value: "c1"},
		{Name: "blob", Type: discordgo.ApplicationCommandOptionAttachment, Value: "a1"},
	}
	i := commandInteraction("g1", discordgo.ApplicationCommandInteractionData{Options: raw, Resolved: testResolved()})
	r := NewResolver(fakeChannels{"c1": {ID: "c1", Name: "general"}})

	sub, args, err := r.ResolveOptions(context.Background(), i, raw)
	if err != nil {
		t.Fatalf("ResolveOptions: %v", err)
	}
	if sub != "" {
		t.Errorf("sub = %q", sub)
	}
	if args.String("reason") != "spam" || args.Int("days") != 3 {
		t.Errorf("scalars = %v", args)
	}

	m := args.Member("member")
	if m == nil || m.Nick != "Al" || m.User == nil || m.User.ID != "55" || m.GuildID != "g1" {
		t.Errorf("member = %+v", m)
	}
	if args.Member("user") != nil || args.User("user").Username != "bob" {
		t.Errorf("user = %#v", args["user"])
	}
	if args.Role("role").Name != "mods" {
		t.Errorf("role = %#v", args["role"])
	}
	if args.User("who") == nil || args.Role("what") == nil {
		t.Errorf("mentionables = %#v %#v", args["who"], args["what"])
	}
	if args.Channel("where").Name != "general" {
		t.Errorf("channel = %#v", args["where"])
	}
	if args["blob"] != "a1" {
		t.Errorf("unknown type = %#v", args["blob"])
	}

	// The resolved payload must stay untouched.
	if testResolved().Members["55"].User != nil || i.ApplicationCommandData().Resolved.Members["55"].User != nil {
		t.Error("resolved member was mutated")
	}
}

func TestResolveOptionsIdempotent(t *testing.T) {
	raw := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "member", Type: OptionUser, Value: "55"},
		{Name: "role", Type: OptionRole, Value: "7"},
	}
	i := commandInteraction("g1", discordgo.ApplicationCommandInteractionData{Options: raw, Resolved: testResolved()})
	r := NewResolver(nil)

	_, first, err := r.ResolveOptions(context.Background(), i, raw)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	_, second, err := r.ResolveOptions(context.Background(), i, raw)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %#v vs %#v", first, second)
	}
}

func TestResolveOptionsSubcommand(t *testing.T) {
	raw := []*discordgo.ApplicationCommandInteractionDataOption{{
		Name: "ban",
		Type: OptionSubcommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "user", Type: OptionUser, Value: "56"},
		},
	}}
	i := commandInteraction("", discordgo.ApplicationCommandInteractionData{Options: raw, Resolved: testResolved()})

	sub, args, err := NewResolver(nil).ResolveOptions(context.Background(), i, raw)
	if err != nil {
		t.Fatalf("ResolveOptions: %v", err)
	}
	if sub != "ban" || len(args) != 1 || args.User("user").ID != "56" {
		t.Fatalf("sub=%q args=%v", sub, args)
	}
}

func TestResolveMissingEntities(t *testing.T) {
	tests := []struct {
		name string
		opt  *discordgo.ApplicationCommandInteractionDataOption
		kind string
	}{
		{"user", &discordgo.ApplicationCommandInteractionDataOption{Name: "u", Type: OptionUser, Value: "404"}, "user"},
		{"role", &discordgo.ApplicationCommandInteractionDataOption{Name: "r", Type: OptionRole, Value: "404"}, "role"},
		{"channel", &discordgo.ApplicationCommandInteractionDataOption{Name: "c", Type: OptionChannel, Value: "404"}, "channel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []*discordgo.ApplicationCommandInteractionDataOption{tt.opt}
			i := commandInteraction("g1", discordgo.ApplicationCommandInteractionData{Options: raw, Resolved: testResolved()})
			_, _, err := NewResolver(fakeChannels{}).ResolveOptions(context.Background(), i, raw)
			var re *ResolutionError
			if !errors.As(err, &re) || re.Kind != tt.kind || re.ID != "404" {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestResolveContextTargets(t *testing.T) {
	i := commandInteraction("g1", discordgo.ApplicationCommandInteractionData{Resolved: testResolved()})
	r := NewResolver(nil)

	user, member, err := r.ResolveUser(i, "55")
	if err != nil || user.ID != "55" || member == nil || member.User != user {
		t.Fatalf("ResolveUser = %v %v %v", user, member, err)
	}
	if _, member, _ := r.ResolveUser(i, "56"); member != nil {
		t.Fatalf("member for non-member = %v", member)
	}

	msg, err := r.ResolveMessage(i, "m1")
	if err != nil || msg.Content != "hello" {
		t.Fatalf("ResolveMessage = %v %v", msg, err)
	}
	if _, err := r.ResolveMessage(i, "m2"); err == nil {
		t.Fatal("missing message resolved")
	}
}
