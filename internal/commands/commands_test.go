package commands

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"github.com/keshon/slashroute/pkg/slash"
)

// maxRoll always rolls the highest face.
func maxRoll(n int) int { return n - 1 }

func TestEvalFormula(t *testing.T) {
	tests := []struct {
		formula string
		want    int
		wantErr string
	}{
		{formula: "2d6", want: 12},
		{formula: "d20+1", want: 21},
		{formula: "2d6+1d4*2-3", want: 17},
		{formula: "10/3", want: 3},
		{formula: "2+3*4", want: 14},
		{formula: "1d6/0", wantErr: "divide by zero"},
		{formula: "2d6+", wantErr: "ends with an operator"},
		{formula: "*2", wantErr: "Unexpected operator"},
		{formula: "2x6", wantErr: "Can't parse"},
		{formula: "101d6", wantErr: "too big"},
		{formula: "1d1", wantErr: "invalid dice sides"},
		{formula: "1d1000*9223372036854775807", wantErr: "number too big"},
		{formula: "99999999999999999999", wantErr: "number too big"},
		{formula: "1000000*1000000", wantErr: "Result too big"},
		{formula: "1000*1000*1000*1000", wantErr: "Result too big"},
		{formula: "1000000*1000-1", want: 999999999},
		{formula: "1000000*1000+1000000*1000", wantErr: "Result too big"},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, _, err := evalFormula(tt.formula, maxRoll)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("total = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEvalFormulaShowsRolls(t *testing.T) {
	_, pretty, err := evalFormula("3d6", func(int) int { return 1 })
	if err != nil {
		t.Fatal(err)
	}
	if pretty != "`3d6` [2, 2, 2]" {
		t.Fatalf("pretty = %q", pretty)
	}
}

func TestMatchCities(t *testing.T) {
	got := matchCities("an")
	if len(got) == 0 {
		t.Fatal("no matches")
	}
	// prefix matches sort before inner matches
	prefixEnd := 0
	for n, city := range got {
		if strings.HasPrefix(strings.ToLower(city), "an") {
			if n != prefixEnd {
				t.Fatalf("prefix match %q after inner matches: %v", city, got)
			}
			prefixEnd++
		}
	}
	if all := matchCities(""); len(all) != len(cities) {
		t.Fatalf("empty input matched %d cities, want %d", len(all), len(cities))
	}
	if none := matchCities("zzz"); len(none) != 0 {
		t.Fatalf("unexpected matches %v", none)
	}
}

func TestDeclareModScope(t *testing.T) {
	t.Run("disabled without guild", func(t *testing.T) {
		c := slash.NewCollector()
		if err := Declare(c, Env{}); err != nil {
			t.Fatal(err)
		}
		for _, cmd := range c.Commands() {
			if cmd.Name == "mod" {
				t.Fatal("mod declared without a guild")
			}
		}
	})

	t.Run("locked to role", func(t *testing.T) {
		c := slash.NewCollector()
		if err := Declare(c, Env{ModGuildID: "g1", ModRoleID: "r1"}); err != nil {
			t.Fatal(err)
		}
		var mod *slash.Command
		for _, cmd := range c.Commands() {
			if cmd.Name == "mod" {
				mod = cmd
			}
		}
		if mod == nil {
			t.Fatal("mod not declared")
		}
		if mod.GuildID != "g1" || mod.DefaultPermission {
			t.Fatalf("guild = %q default = %v", mod.GuildID, mod.DefaultPermission)
		}
		if len(mod.Permissions) != 1 || mod.Permissions[0].ID != "r1" || !mod.Permissions[0].Permission {
			t.Fatalf("permissions = %+v", mod.Permissions)
		}
	})
}

func TestHelpByCategory(t *testing.T) {
	reg := slash.NewRegistry()
	c := slash.NewCollector()
	if err := Declare(c, Env{ModGuildID: "g1"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Collect(c); err != nil {
		t.Fatal(err)
	}

	out := helpByCategory(visibleCommands(reg, "g1"))
	order := []string{"🕯️ Information", "📢 Utilities", "🎲 Gameplay", "🛡️ Moderation", "🛠️ Maintenance"}
	last := -1
	for _, cat := range order {
		at := strings.Index(out, cat)
		if at < 0 {
			t.Fatalf("category %q missing from:\n%s", cat, out)
		}
		if at < last {
			t.Fatalf("category %q out of order:\n%s", cat, out)
		}
		last = at
	}
	if !strings.Contains(out, "`/mod ban`") || !strings.Contains(out, "`/mod timeout`") {
		t.Fatalf("subcommands missing:\n%s", out)
	}

	if strings.Contains(helpFlat(visibleCommands(reg, "other")), "/mod") {
		t.Fatal("guild command shown in another guild")
	}
}

type reply struct {
	embed     *discordgo.MessageEmbed
	ephemeral bool
}

type fakeReplier struct {
	replies []reply
}

func (r *fakeReplier) Reply(_ *discordgo.Interaction, embed *discordgo.MessageEmbed, ephemeral bool) error {
	r.replies = append(r.replies, reply{embed, ephemeral})
	return nil
}

type ban struct {
	guildID, userID, reason string
	days                    int
}

type fakeModerator struct {
	bans     []ban
	timeouts map[string]time.Time
}

func (m *fakeModerator) GuildBanCreateWithReason(guildID, userID, reason string, days int, _ ...discordgo.RequestOption) error {
	m.bans = append(m.bans, ban{guildID, userID, reason, days})
	return nil
}

func (m *fakeModerator) GuildMemberTimeout(_, userID string, until *time.Time, _ ...discordgo.RequestOption) error {
	if m.timeouts == nil {
		m.timeouts = make(map[string]time.Time)
	}
	m.timeouts[userID] = *until
	return nil
}

// idCatalog assigns "<scope>/<name>" IDs.
type idCatalog struct {
	mu     sync.Mutex
	scopes []string
}

func (c *idCatalog) OverwriteCommands(_ context.Context, scope slash.Scope, payload []byte) ([]slash.RemoteCommand, error) {
	var cmds []slash.RemoteCommand
	if err := json.Unmarshal(payload, &cmds); err != nil {
		return nil, err
	}
	for n := range cmds {
		cmds[n].ID = scope.String() + "/" + cmds[n].Name
	}
	c.mu.Lock()
	c.scopes = append(c.scopes, scope.String())
	c.mu.Unlock()
	return cmds, nil
}

func (c *idCatalog) OverwritePermissions(context.Context, slash.Scope, []byte) error { return nil }

type autocompleteReply struct {
	choices []*discordgo.ApplicationCommandOptionChoice
}

func (r *autocompleteReply) Autocomplete(_ context.Context, _ *discordgo.Interaction, choices []*discordgo.ApplicationCommandOptionChoice) error {
	r.choices = choices
	return nil
}

type harness struct {
	replier    *fakeReplier
	moderator  *fakeModerator
	completer  *autocompleteReply
	registry   *slash.Registry
	dispatcher *slash.Dispatcher

	// perms are the invoking member's permissions.
	perms int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		replier:   &fakeReplier{},
		moderator: &fakeModerator{},
		completer: &autocompleteReply{},
		registry:  slash.NewRegistry(),
		perms:     discordgo.PermissionAdministrator,
	}
	env := Env{
		Replier:    h.replier,
		Moderator:  h.moderator,
		Registry:   h.registry,
		Now:        func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
		IntN:       maxRoll,
		ModGuildID: "g1",
	}

	c := slash.NewCollector()
	if err := Declare(c, env); err != nil {
		t.Fatal(err)
	}
	if err := h.registry.Collect(c); err != nil {
		t.Fatal(err)
	}
	if err := slash.NewSynchronizer(h.registry, &idCatalog{}).Synchronize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.registry.Bound() != h.registry.Len() {
		t.Fatalf("bound %d of %d commands", h.registry.Bound(), h.registry.Len())
	}
	h.dispatcher = slash.NewDispatcher(h.registry, slash.NewResolver(nil), h.completer,
		slash.WithMiddleware(slash.WithRecover(), slash.WithGuildOnly()))
	return h
}

func (h *harness) dispatch(t *testing.T, typ discordgo.InteractionType, id, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) error {
	t.Helper()
	return h.dispatcher.Dispatch(context.Background(), &discordgo.Interaction{
		Type:    typ,
		GuildID: "g1",
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "1", Username: "mod"},
			Permissions: h.perms,
		},
		Data: discordgo.ApplicationCommandInteractionData{
			ID:          id,
			Name:        name,
			CommandType: discordgo.ChatApplicationCommand,
			Options:     opts,
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Users:   map[string]*discordgo.User{"55": {ID: "55", Username: "troll"}},
				Members: map[string]*discordgo.Member{"55": {Nick: "t"}},
			},
		},
	})
}

func TestModBanEndToEnd(t *testing.T) {
	h := newHarness(t)

	err := h.dispatch(t, discordgo.InteractionApplicationCommand, "guild:g1/mod", "mod", &discordgo.ApplicationCommandInteractionDataOption{
		Name: "ban",
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "user", Type: discordgo.ApplicationCommandOptionUser, Value: "55"},
			{Name: "reason", Type: discordgo.ApplicationCommandOptionString, Value: "spam"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(h.moderator.bans) != 1 {
		t.Fatalf("bans = %+v", h.moderator.bans)
	}
	if got := h.moderator.bans[0]; got != (ban{"g1", "55", "spam", 0}) {
		t.Fatalf("ban = %+v", got)
	}
	if len(h.replier.replies) != 1 || !strings.Contains(h.replier.replies[0].embed.Description, "Reason: spam") {
		t.Fatalf("replies = %+v", h.replier.replies)
	}
}

func TestModTimeoutEndToEnd(t *testing.T) {
	h := newHarness(t)

	err := h.dispatch(t, discordgo.InteractionApplicationCommand, "guild:g1/mod", "mod", &discordgo.ApplicationCommandInteractionDataOption{
		Name: "timeout",
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "user", Type: discordgo.ApplicationCommandOptionUser, Value: "55"},
			{Name: "minutes", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(30)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	if got := h.moderator.timeouts["55"]; !got.Equal(want) {
		t.Fatalf("until = %v, want %v", got, want)
	}
}

func TestTimeEndToEnd(t *testing.T) {
	h := newHarness(t)

	err := h.dispatch(t, discordgo.InteractionApplicationCommandAutocomplete, "global/time", "time",
		&discordgo.ApplicationCommandInteractionDataOption{Name: "city", Type: discordgo.ApplicationCommandOptionString, Value: "tok", Focused: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(h.completer.choices) != 1 || h.completer.choices[0].Value != "Tokyo" {
		t.Fatalf("choices = %+v", h.completer.choices)
	}

	err = h.dispatch(t, discordgo.InteractionApplicationCommand, "global/time", "time",
		&discordgo.ApplicationCommandInteractionDataOption{Name: "city", Type: discordgo.ApplicationCommandOptionString, Value: "Tokyo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(h.replier.replies) != 1 || !strings.HasPrefix(h.replier.replies[0].embed.Description, "**21:00**") {
		t.Fatalf("replies = %+v", h.replier.replies)
	}
}

func TestRollEndToEnd(t *testing.T) {
	h := newHarness(t)

	err := h.dispatch(t, discordgo.InteractionApplicationCommand, "global/roll", "roll",
		&discordgo.ApplicationCommandInteractionDataOption{Name: "formula", Type: discordgo.ApplicationCommandOptionString, Value: "2d6 + 1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(h.replier.replies) != 1 || !strings.Contains(h.replier.replies[0].embed.Description, "**13**") {
		t.Fatalf("replies = %+v", h.replier.replies)
	}
}

func TestModRequiresPermission(t *testing.T) {
	h := newHarness(t)
	h.perms = discordgo.PermissionKickMembers

	err := h.dispatch(t, discordgo.InteractionApplicationCommand, "guild:g1/mod", "mod", &discordgo.ApplicationCommandInteractionDataOption{
		Name: "ban",
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "user", Type: discordgo.ApplicationCommandOptionUser, Value: "55"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(h.moderator.bans) != 0 {
		t.Fatalf("ban went through: %+v", h.moderator.bans)
	}
	if len(h.replier.replies) != 1 || !h.replier.replies[0].ephemeral ||
		!strings.Contains(h.replier.replies[0].embed.Description, "Ban Members") {
		t.Fatalf("replies = %+v", h.replier.replies)
	}
}

func TestRollRejectedInDM(t *testing.T) {
	h := newHarness(t)

	err := h.dispatcher.Dispatch(context.Background(), &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		User: &discordgo.User{ID: "1"},
		Data: discordgo.ApplicationCommandInteractionData{
			ID:          "global/roll",
			Name:        "roll",
			CommandType: discordgo.ChatApplicationCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "formula", Type: discordgo.ApplicationCommandOptionString, Value: "1d6"},
			},
		},
	})
	if !errors.Is(err, slash.ErrGuildOnly) {
		t.Fatalf("err = %v, want ErrGuildOnly", err)
	}
	if len(h.replier.replies) != 0 {
		t.Fatalf("replies = %+v", h.replier.replies)
	}
}
