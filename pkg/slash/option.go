package slash

import (
	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
)

// Wire type codes of the options this package produces.
const (
	OptionSubcommand  = discordgo.ApplicationCommandOptionSubCommand
	OptionString      = discordgo.ApplicationCommandOptionString
	OptionInteger     = discordgo.ApplicationCommandOptionInteger
	OptionBoolean     = discordgo.ApplicationCommandOptionBoolean
	OptionUser        = discordgo.ApplicationCommandOptionUser
	OptionChannel     = discordgo.ApplicationCommandOptionChannel
	OptionRole        = discordgo.ApplicationCommandOptionRole
	OptionMentionable = discordgo.ApplicationCommandOptionMentionable
	OptionNumber      = discordgo.ApplicationCommandOptionNumber
)

// Choice is one static entry of an option's choice list.
type Choice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Option describes one parameter, or one subcommand stub when Type is
// OptionSubcommand. Subcommand stubs carry their own Handler and Options.
type Option struct {
	Type         discordgo.ApplicationCommandOptionType
	Name         string
	Description  string
	Required     bool
	Choices      []*Choice
	Options      []*Option
	MinValue     *float64
	MaxValue     *float64
	ChannelTypes []discordgo.ChannelType

	Autocomplete AutocompleteHandler
	Handler      ChatHandler
}

// AutocompleteEnabled reports whether the option asks the client for live
// suggestions.
func (o *Option) AutocompleteEnabled() bool { return o.Autocomplete != nil }

// IsSubcommand reports whether the option is a subcommand stub.
func (o *Option) IsSubcommand() bool { return o.Type == OptionSubcommand }

// option finds a child option by exact name.
func (o *Option) option(name string) *Option {
	return findOption(o.Options, name)
}

type optionPayload struct {
	Type         discordgo.ApplicationCommandOptionType `json:"type"`
	Name         string                                 `json:"name"`
	Description  string                                 `json:"description"`
	Required     bool                                   `json:"required"`
	Options      []*Option                              `json:"options,omitempty"`
	Choices      []*Choice                              `json:"choices,omitempty"`
	MinValue     *float64                               `json:"min_value,omitempty"`
	MaxValue     *float64                               `json:"max_value,omitempty"`
	ChannelTypes []discordgo.ChannelType                `json:"channel_types,omitempty"`
	Autocomplete bool                                   `json:"autocomplete"`
}

// MarshalJSON renders the option in the remote catalog's wire shape.
// autocomplete is always present.
func (o *Option) MarshalJSON() ([]byte, error) {
	return json.Marshal(optionPayload{
		Type:         o.Type,
		Name:         o.Name,
		Description:  o.Description,
		Required:     o.Required,
		Options:      o.Options,
		Choices:      o.Choices,
		MinValue:     o.MinValue,
		MaxValue:     o.MaxValue,
		ChannelTypes: o.ChannelTypes,
		Autocomplete: o.AutocompleteEnabled(),
	})
}

func findOption(opts []*Option, name string) *Option {
	for _, o := range opts {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// validateOptions checks one option level of a command.
func validateOptions(command string, opts []*Option) error {
	seen := make(map[string]struct{}, len(opts))
	subs, plain := 0, 0
	for _, o := range opts {
		if o.Name == "" {
			return declErr(command, "", ErrInvalidDeclaration, "option without a name")
		}
		if _, dup := seen[o.Name]; dup {
			return declErr(command, o.Name, ErrDuplicateName, "")
		}
		seen[o.Name] = struct{}{}

		if o.IsSubcommand() != (o.Handler != nil) {
			return declErr(command, o.Name, ErrInvalidDeclaration, "subcommand stubs and handlers must come together")
		}
		if o.IsSubcommand() {
			subs++
			if err := validateOptions(command, o.Options); err != nil {
				return err
			}
			for _, child := range o.Options {
				if child.IsSubcommand() {
					return declErr(command, child.Name, ErrInvalidDeclaration, "only one level of subcommands is supported")
				}
			}
			continue
		}
		plain++

		if len(o.Choices) > 0 && o.AutocompleteEnabled() {
			return declErr(command, o.Name, ErrConflictingOption, "choices and autocomplete are mutually exclusive")
		}
		if o.AutocompleteEnabled() {
			switch o.Type {
			case OptionString, OptionInteger, OptionNumber:
			default:
				return declErr(command, o.Name, ErrConflictingOption, "autocomplete requires a string, integer or number option")
			}
		}
		if o.MinValue != nil && o.MaxValue != nil && *o.MinValue > *o.MaxValue {
			return declErr(command, o.Name, ErrInvalidDeclaration, "min_value %v exceeds max_value %v", *o.MinValue, *o.MaxValue)
		}
	}
	if subs > 0 && plain > 0 {
		return declErr(command, "", ErrInvalidDeclaration, "subcommands cannot be mixed with plain options")
	}
	return nil
}
