// Package slash declares application commands, keeps them in sync with the
// remote command catalog and routes inbound interactions to their handlers.
//
// Commands are declared with NewChatCommand, NewUserCommand and
// NewMessageCommand, collected explicitly, synchronized once at startup and
// then looked up by the ID the catalog assigned to them.
package slash

import (
	"context"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
)

// Command kinds.
const (
	KindChat    = discordgo.ChatApplicationCommand
	KindUser    = discordgo.UserApplicationCommand
	KindMessage = discordgo.MessageApplicationCommand
)

// Group owns a set of commands and is handed to their handlers.
type Group interface {
	Name() string
}

type (
	ChatHandler         func(ctx context.Context, owner Group, i *discordgo.Interaction, args Args) error
	UserHandler         func(ctx context.Context, owner Group, i *discordgo.Interaction, user *discordgo.User, member *discordgo.Member) error
	MessageHandler      func(ctx context.Context, owner Group, i *discordgo.Interaction, msg *discordgo.Message) error
	AutocompleteHandler func(ctx context.Context, owner Group, i *discordgo.Interaction, current any) ([]string, error)
)

// Command is one declared top-level command or context-menu action.
type Command struct {
	Kind              discordgo.ApplicationCommandType
	Name              string
	Description       string
	DefaultPermission bool
	GuildID           string
	GuildOnly         bool
	Options           []*Option
	Permissions       []*discordgo.ApplicationCommandPermissions

	chat    ChatHandler
	user    UserHandler
	message MessageHandler

	owner  Group
	id     atomic.Pointer[string]
	sealed atomic.Bool
}

// ChatSpec declares a chat input command.
type ChatSpec struct {
	Name              string
	Description       string
	GuildID           string
	GuildOnly         bool // hidden in DMs and rejected there by WithGuildOnly
	DefaultPermission *bool
	Permissions       []*discordgo.ApplicationCommandPermissions
	Params            []Param
	Options           []OptionSpec
	Handler           ChatHandler
}

// ContextSpec declares a user or message context-menu action.
type ContextSpec struct {
	Name              string
	GuildID           string
	GuildOnly         bool
	DefaultPermission *bool
	Permissions       []*discordgo.ApplicationCommandPermissions
}

// SubcommandSpec declares a subcommand of a chat command.
type SubcommandSpec struct {
	Name        string
	Description string
	Params      []Param
	Options     []OptionSpec
	Handler     ChatHandler
}

// NewChatCommand declares a chat input command. Option specs are checked
// against Params here so a misnamed option fails at startup.
func NewChatCommand(spec ChatSpec) (*Command, error) {
	if spec.Name == "" {
		return nil, declErr(spec.Name, "", ErrInvalidDeclaration, "missing name")
	}
	if spec.Description == "" {
		return nil, declErr(spec.Name, "", ErrInvalidDeclaration, "chat commands need a description")
	}
	opts, err := inferAll(spec.Name, spec.Params, spec.Options)
	if err != nil {
		return nil, err
	}
	if err := validateOptions(spec.Name, opts); err != nil {
		return nil, err
	}
	if spec.Handler == nil && len(opts) > 0 {
		return nil, declErr(spec.Name, "", ErrInvalidDeclaration, "options declared without a handler")
	}

	cmd := newCommand(KindChat, spec.Name, spec.GuildID, spec.DefaultPermission, spec.Permissions)
	cmd.Description = spec.Description
	cmd.GuildOnly = spec.GuildOnly
	cmd.Options = opts
	cmd.chat = spec.Handler
	return cmd, nil
}

// NewUserCommand declares a user context-menu action.
func NewUserCommand(spec ContextSpec, h UserHandler) (*Command, error) {
	if spec.Name == "" || h == nil {
		return nil, declErr(spec.Name, "", ErrInvalidDeclaration, "user commands need a name and a handler")
	}
	cmd := newCommand(KindUser, spec.Name, spec.GuildID, spec.DefaultPermission, spec.Permissions)
	cmd.GuildOnly = spec.GuildOnly
	cmd.user = h
	return cmd, nil
}

// NewMessageCommand declares a message context-menu action.
func NewMessageCommand(spec ContextSpec, h MessageHandler) (*Command, error) {
	if spec.Name == "" || h == nil {
		return nil, declErr(spec.Name, "", ErrInvalidDeclaration, "message commands need a name and a handler")
	}
	cmd := newCommand(KindMessage, spec.Name, spec.GuildID, spec.DefaultPermission, spec.Permissions)
	cmd.GuildOnly = spec.GuildOnly
	cmd.message = h
	return cmd, nil
}

func newCommand(kind discordgo.ApplicationCommandType, name, guildID string, defaultPerm *bool, perms []*discordgo.ApplicationCommandPermissions) *Command {
	cmd := &Command{
		Kind:              kind,
		Name:              name,
		DefaultPermission: true,
		GuildID:           guildID,
		Permissions:       perms,
	}
	if defaultPerm != nil {
		cmd.DefaultPermission = *defaultPerm
	}
	return cmd
}

// AddSubcommand attaches a subcommand to a chat command. It must be called
// before the command is added to a Registry.
func (c *Command) AddSubcommand(spec SubcommandSpec) (*Option, error) {
	if c.sealed.Load() {
		return nil, declErr(c.Name, spec.Name, ErrInvalidDeclaration, "command is already registered")
	}
	if c.Kind != KindChat {
		return nil, declErr(c.Name, spec.Name, ErrInvalidDeclaration, "only chat commands have subcommands")
	}
	if spec.Handler == nil || spec.Description == "" {
		return nil, declErr(c.Name, spec.Name, ErrInvalidDeclaration, "subcommands need a description and a handler")
	}
	opts, err := inferAll(c.Name, spec.Params, spec.Options)
	if err != nil {
		return nil, err
	}

	sub := &Option{
		Type:        OptionSubcommand,
		Name:        spec.Name,
		Description: spec.Description,
		Options:     opts,
		Handler:     spec.Handler,
	}
	next := append(append([]*Option(nil), c.Options...), sub)
	if err := validateOptions(c.Name, next); err != nil {
		return nil, err
	}
	c.Options = next
	return sub, nil
}

// ID returns the server-assigned ID, or "" before synchronization.
func (c *Command) ID() string {
	if id := c.id.Load(); id != nil {
		return *id
	}
	return ""
}

// Owner returns the group the command was attached to, if any.
func (c *Command) Owner() Group { return c.owner }

// Scope returns the registration scope of the command.
func (c *Command) Scope() Scope { return Scope{GuildID: c.GuildID} }

// option finds a top-level option by exact name.
func (c *Command) option(name string) *Option {
	return findOption(c.Options, name)
}

type commandPayload struct {
	Type              discordgo.ApplicationCommandType `json:"type"`
	Name              string                           `json:"name"`
	DefaultPermission bool                             `json:"default_permission"`
	DMPermission      *bool                            `json:"dm_permission,omitempty"`
	Description       string                           `json:"description,omitempty"`
	Options           []*Option                        `json:"options,omitempty"`
}

// MarshalJSON renders the declaration in the bulk-upsert wire shape.
func (c *Command) MarshalJSON() ([]byte, error) {
	p := commandPayload{
		Type:              c.Kind,
		Name:              c.Name,
		DefaultPermission: c.DefaultPermission,
		Description:       c.Description,
		Options:           c.Options,
	}
	if c.GuildOnly {
		p.DMPermission = new(bool)
	}
	return json.Marshal(p)
}

// Scope is the registration domain of a command: global, or a single guild.
type Scope struct {
	GuildID string
}

// Global is the application-wide scope.
var Global = Scope{}

// IsGlobal reports whether the scope is application-wide.
func (s Scope) IsGlobal() bool { return s.GuildID == "" }

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "guild:" + s.GuildID
}
