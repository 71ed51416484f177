package slash

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// Args maps option names to resolved values. Scalars keep their wire form, so
// integers usually arrive as float64.
type Args map[string]any

// Has reports whether the invocation supplied name.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Args) Int(name string) int64 {
	switch v := a[name].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func (a Args) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// User returns the user behind a USER or MENTIONABLE option, whether it
// resolved to a member or to a bare user.
func (a Args) User(name string) *discordgo.User {
	switch v := a[name].(type) {
	case *discordgo.User:
		return v
	case *discordgo.Member:
		return v.User
	}
	return nil
}

// Member returns the member record of a USER option, or nil when the user is
// not a member of the invoking guild.
func (a Args) Member(name string) *discordgo.Member {
	m, _ := a[name].(*discordgo.Member)
	return m
}

func (a Args) Role(name string) *discordgo.Role {
	r, _ := a[name].(*discordgo.Role)
	return r
}

func (a Args) Channel(name string) *discordgo.Channel {
	c, _ := a[name].(*discordgo.Channel)
	return c
}
