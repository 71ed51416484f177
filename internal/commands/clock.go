package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/pkg/slash"
)

// cities maps the names offered by /time to their IANA zones.
var cities = map[string]string{
	"Amsterdam":     "Europe/Amsterdam",
	"Auckland":      "Pacific/Auckland",
	"Berlin":        "Europe/Berlin",
	"Buenos Aires":  "America/Argentina/Buenos_Aires",
	"Cairo":         "Africa/Cairo",
	"Chicago":       "America/Chicago",
	"Dubai":         "Asia/Dubai",
	"Hong Kong":     "Asia/Hong_Kong",
	"Istanbul":      "Europe/Istanbul",
	"Jakarta":       "Asia/Jakarta",
	"Johannesburg":  "Africa/Johannesburg",
	"Kyiv":          "Europe/Kyiv",
	"Lagos":         "Africa/Lagos",
	"Lisbon":        "Europe/Lisbon",
	"London":        "Europe/London",
	"Los Angeles":   "America/Los_Angeles",
	"Madrid":        "Europe/Madrid",
	"Mexico City":   "America/Mexico_City",
	"Moscow":        "Europe/Moscow",
	"Mumbai":        "Asia/Kolkata",
	"New York":      "America/New_York",
	"Paris":         "Europe/Paris",
	"Reykjavik":     "Atlantic/Reykjavik",
	"Rome":          "Europe/Rome",
	"San Francisco": "America/Los_Angeles",
	"Sao Paulo":     "America/Sao_Paulo",
	"Seoul":         "Asia/Seoul",
	"Singapore":     "Asia/Singapore",
	"Stockholm":     "Europe/Stockholm",
	"Sydney":        "Australia/Sydney",
	"Tokyo":         "Asia/Tokyo",
	"Toronto":       "America/Toronto",
	"Vancouver":     "America/Vancouver",
	"Warsaw":        "Europe/Warsaw",
}

// Clock holds the time zone commands.
type Clock struct {
	env Env
}

func (c *Clock) Name() string     { return "clock" }
func (c *Clock) Category() string { return "📢 Utilities" }

func declareClock(col *slash.Collector, env Env) error {
	cmd, err := slash.NewChatCommand(slash.ChatSpec{
		Name:        "time",
		Description: "Show the local time in a city",
		Params:      []slash.Param{{Name: "city", Type: slash.TypeString}},
		Options: []slash.OptionSpec{{
			Name:         "city",
			Description:  "Start typing a city name",
			Autocomplete: completeCity,
		}},
		Handler: runTime,
	})
	if err != nil {
		return err
	}
	return col.AttachGroup(&Clock{env: env}, cmd)
}

func runTime(_ context.Context, owner slash.Group, i *discordgo.Interaction, args slash.Args) error {
	c := owner.(*Clock)
	city := args.String("city")

	zone, ok := lookupCity(city)
	if !ok {
		return c.env.Replier.Reply(i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("I don't know a city called `%s`.", city),
		}, true)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return fmt.Errorf("load zone %s: %w", zone, err)
	}

	now := c.env.now().In(loc)
	return c.env.Replier.Reply(i, &discordgo.MessageEmbed{
		Title:       "🕰️ " + city,
		Description: fmt.Sprintf("**%s**\n%s (%s)", now.Format("15:04"), now.Format("Monday, 2 January"), zone),
	}, false)
}

func lookupCity(name string) (string, bool) {
	for city, zone := range cities {
		if strings.EqualFold(city, name) {
			return zone, true
		}
	}
	return "", false
}

// completeCity suggests cities whose name contains the typed text. Prefix
// matches come first.
func completeCity(_ context.Context, _ slash.Group, _ *discordgo.Interaction, current any) ([]string, error) {
	typed, _ := current.(string)
	return matchCities(typed), nil
}

func matchCities(typed string) []string {
	typed = strings.ToLower(strings.TrimSpace(typed))

	var prefix, inner []string
	for city := range cities {
		lc := strings.ToLower(city)
		switch {
		case strings.HasPrefix(lc, typed):
			prefix = append(prefix, city)
		case strings.Contains(lc, typed):
			inner = append(inner, city)
		}
	}
	sort.Strings(prefix)
	sort.Strings(inner)
	return append(prefix, inner...)
}
