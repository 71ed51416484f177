package slash

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ChannelSource looks a channel up in the local cache and falls back to the
// remote API.
type ChannelSource interface {
	Channel(ctx context.Context, guildID, channelID string) (*discordgo.Channel, error)
}

// Resolver converts raw option values into domain values.
type Resolver struct {
	channels ChannelSource
}

// NewResolver returns a Resolver that fetches channels from channels.
func NewResolver(channels ChannelSource) *Resolver {
	return &Resolver{channels: channels}
}

// ResolveOptions walks raw once. A subcommand entry replaces the working list
// with its nested options and its name is returned as sub; only one level of
// nesting is followed. Every remaining option is converted by its wire type.
func (r *Resolver) ResolveOptions(ctx context.Context, i *discordgo.Interaction, raw []*discordgo.ApplicationCommandInteractionDataOption) (sub string, args Args, err error) {
	opts := make([]*discordgo.ApplicationCommandInteractionDataOption, 0, len(raw))
	for _, o := range raw {
		if o.Type == OptionSubcommand {
			sub = o.Name
			opts = o.Options
			break
		}
		opts = append(opts, o)
	}

	data := i.ApplicationCommandData()
	args = make(Args, len(opts))
	for _, o := range opts {
		v, err := r.resolveValue(ctx, i, data.Resolved, o)
		if err != nil {
			return sub, nil, fmt.Errorf("option %q: %w", o.Name, err)
		}
		args[o.Name] = v
	}
	return sub, args, nil
}

func (r *Resolver) resolveValue(ctx context.Context, i *discordgo.Interaction, res *discordgo.ApplicationCommandInteractionDataResolved, o *discordgo.ApplicationCommandInteractionDataOption) (any, error) {
	switch o.Type {
	case OptionString, OptionInteger, OptionBoolean, OptionNumber:
		return o.Value, nil

	case OptionUser:
		return resolveUserValue(i, res, idOf(o.Value))

	case OptionChannel:
		id := idOf(o.Value)
		if r.channels == nil {
			return nil, &ResolutionError{Kind: "channel", ID: id, Err: fmt.Errorf("no channel source")}
		}
		ch, err := r.channels.Channel(ctx, i.GuildID, id)
		if err != nil {
			return nil, &ResolutionError{Kind: "channel", ID: id, Err: err}
		}
		if ch == nil {
			return nil, &ResolutionError{Kind: "channel", ID: id}
		}
		return ch, nil

	case OptionRole:
		return resolveRole(res, idOf(o.Value))

	case OptionMentionable:
		id := idOf(o.Value)
		if res != nil && res.Users != nil {
			if _, ok := res.Users[id]; ok {
				return resolveUserValue(i, res, id)
			}
		}
		return resolveRole(res, id)

	default:
		return o.Value, nil
	}
}

// ResolveUser returns the user id refers to and, when the resolved payload
// carries a member record for it, a copy of that member with User set.
func (r *Resolver) ResolveUser(i *discordgo.Interaction, id string) (*discordgo.User, *discordgo.Member, error) {
	return resolveUser(i, i.ApplicationCommandData().Resolved, id)
}

// ResolveMessage returns the message id refers to.
func (r *Resolver) ResolveMessage(i *discordgo.Interaction, id string) (*discordgo.Message, error) {
	res := i.ApplicationCommandData().Resolved
	if res == nil || res.Messages == nil || res.Messages[id] == nil {
		return nil, &ResolutionError{Kind: "message", ID: id}
	}
	return res.Messages[id], nil
}

func resolveUser(i *discordgo.Interaction, res *discordgo.ApplicationCommandInteractionDataResolved, id string) (*discordgo.User, *discordgo.Member, error) {
	if res == nil || res.Users == nil || res.Users[id] == nil {
		return nil, nil, &ResolutionError{Kind: "user", ID: id}
	}
	user := res.Users[id]
	if res.Members == nil || res.Members[id] == nil {
		return user, nil, nil
	}
	member := *res.Members[id]
	member.User = user
	if member.GuildID == "" {
		member.GuildID = i.GuildID
	}
	return user, &member, nil
}

// resolveUserValue yields the member when there is one, the user otherwise.
func resolveUserValue(i *discordgo.Interaction, res *discordgo.ApplicationCommandInteractionDataResolved, id string) (any, error) {
	user, member, err := resolveUser(i, res, id)
	if err != nil {
		return nil, err
	}
	if member != nil {
		return member, nil
	}
	return user, nil
}

func resolveRole(res *discordgo.ApplicationCommandInteractionDataResolved, id string) (*discordgo.Role, error) {
	if res == nil || res.Roles == nil || res.Roles[id] == nil {
		return nil, &ResolutionError{Kind: "role", ID: id}
	}
	return res.Roles[id], nil
}

func idOf(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
