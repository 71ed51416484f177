package slash

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// MaxChoices is the most suggestions the platform accepts in one reply.
const MaxChoices = 25

// Responder sends the immediate autocomplete callback (response type 8).
type Responder interface {
	Autocomplete(ctx context.Context, i *discordgo.Interaction, choices []*discordgo.ApplicationCommandOptionChoice) error
}

// Dispatcher routes interactions to the commands bound in a Registry. It
// holds no per-event state and may be called from many goroutines at once.
type Dispatcher struct {
	registry  *Registry
	resolver  *Resolver
	responder Responder
	invoke    Invoker
	log       *zap.Logger
}

// DispatchOption configures a Dispatcher.
type DispatchOption func(*dispatchConfig)

type dispatchConfig struct {
	middlewares []Middleware
	log         *zap.Logger
}

// WithMiddleware wraps every handler invocation, first one outermost.
func WithMiddleware(mws ...Middleware) DispatchOption {
	return func(c *dispatchConfig) { c.middlewares = append(c.middlewares, mws...) }
}

// WithDispatchLogger sets the logger. The default discards everything.
func WithDispatchLogger(l *zap.Logger) DispatchOption {
	return func(c *dispatchConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(registry *Registry, resolver *Resolver, responder Responder, opts ...DispatchOption) *Dispatcher {
	cfg := dispatchConfig{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Dispatcher{
		registry:  registry,
		resolver:  resolver,
		responder: responder,
		invoke:    Chain(invokeHandler, cfg.middlewares...),
		log:       cfg.log,
	}
}

// Dispatch handles one interaction. It returns once the handler, or the
// autocomplete reply, has completed.
func (d *Dispatcher) Dispatch(ctx context.Context, i *discordgo.Interaction) error {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return d.dispatchCommand(ctx, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		return d.dispatchAutocomplete(ctx, i)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedInteraction, i.Type)
	}
}

func (d *Dispatcher) lookup(data discordgo.ApplicationCommandInteractionData) (*Command, error) {
	cmd, ok := d.registry.Lookup(data.ID)
	if !ok {
		return nil, &LookupError{CommandID: data.ID, Name: data.Name, Err: ErrUnknownCommand}
	}
	return cmd, nil
}

// subcommand returns the subcommand stub raw descends into, or nil when the
// first raw option is not a subcommand.
func subcommand(cmd *Command, raw []*discordgo.ApplicationCommandInteractionDataOption) (*Option, *discordgo.ApplicationCommandInteractionDataOption, error) {
	if len(raw) == 0 || raw[0].Type != OptionSubcommand {
		return nil, nil, nil
	}
	sub := cmd.option(raw[0].Name)
	if sub == nil || !sub.IsSubcommand() {
		return nil, nil, &LookupError{CommandID: cmd.ID(), Name: cmd.Name + " " + raw[0].Name, Err: ErrUnknownSubcommand}
	}
	return sub, raw[0], nil
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, i *discordgo.Interaction) error {
	data := i.ApplicationCommandData()
	cmd, err := d.lookup(data)
	if err != nil {
		return err
	}

	call := &Call{Command: cmd, Interaction: i}
	switch cmd.Kind {
	case KindChat:
		call.handler = cmd.chat
		sub, _, err := subcommand(cmd, data.Options)
		if err != nil {
			return err
		}
		if sub != nil {
			call.handler = sub.Handler
		}
		name, args, err := d.resolver.ResolveOptions(ctx, i, data.Options)
		if err != nil {
			return fmt.Errorf("command %q: %w", cmd.Name, err)
		}
		call.Subcommand = name
		call.Args = args

	case KindUser:
		user, member, err := d.resolver.ResolveUser(i, data.TargetID)
		if err != nil {
			return fmt.Errorf("command %q: %w", cmd.Name, err)
		}
		call.TargetUser, call.TargetMember = user, member

	case KindMessage:
		msg, err := d.resolver.ResolveMessage(i, data.TargetID)
		if err != nil {
			return fmt.Errorf("command %q: %w", cmd.Name, err)
		}
		call.TargetMessage = msg

	default:
		return fmt.Errorf("command %q: unsupported kind %d", cmd.Name, cmd.Kind)
	}

	return d.invoke(ctx, call)
}

// invokeHandler is the innermost Invoker: it calls the declared handler.
func invokeHandler(ctx context.Context, call *Call) error {
	cmd := call.Command
	switch cmd.Kind {
	case KindChat:
		if call.handler == nil {
			return fmt.Errorf("command %q has no handler for %q", cmd.Name, call.Path())
		}
		return call.handler(ctx, cmd.owner, call.Interaction, call.Args)
	case KindUser:
		return cmd.user(ctx, cmd.owner, call.Interaction, call.TargetUser, call.TargetMember)
	case KindMessage:
		return cmd.message(ctx, cmd.owner, call.Interaction, call.TargetMessage)
	}
	return nil
}

func (d *Dispatcher) dispatchAutocomplete(ctx context.Context, i *discordgo.Interaction) error {
	data := i.ApplicationCommandData()
	cmd, err := d.lookup(data)
	if err != nil {
		return err
	}

	scope, raw := cmd.Options, data.Options
	sub, subRaw, err := subcommand(cmd, raw)
	if err != nil {
		return err
	}
	if sub != nil {
		scope, raw = sub.Options, subRaw.Options
	}

	focused := focusedOption(raw)
	if focused == nil {
		d.log.Debug("Autocomplete request without a focused option", zap.String("command", cmd.Name))
		return fmt.Errorf("command %q: %w", cmd.Name, ErrNoFocusedOption)
	}
	schema := findOption(scope, focused.Name)
	if schema == nil || schema.Autocomplete == nil {
		return fmt.Errorf("command %q option %q: %w", cmd.Name, focused.Name, ErrNoAutocomplete)
	}

	suggestions, err := schema.Autocomplete(ctx, cmd.owner, i, focused.Value)
	if err != nil {
		return fmt.Errorf("autocomplete %q option %q: %w", cmd.Name, focused.Name, err)
	}
	return d.responder.Autocomplete(ctx, i, Choices(suggestions))
}

// focusedOption returns the option the user is typing into. When the request
// flags none, the only option carrying a value is taken as the focused one.
func focusedOption(raw []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	var valued *discordgo.ApplicationCommandInteractionDataOption
	n := 0
	for _, o := range raw {
		if o.Focused {
			return o
		}
		if o.Value != nil {
			valued = o
			n++
		}
	}
	if n == 1 {
		return valued
	}
	return nil
}

// Choices turns suggestions into autocomplete choices whose name and value
// are both the suggestion. At most MaxChoices are kept.
func Choices(suggestions []string) []*discordgo.ApplicationCommandOptionChoice {
	if len(suggestions) > MaxChoices {
		suggestions = suggestions[:MaxChoices]
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(suggestions))
	for _, s := range suggestions {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: s, Value: s})
	}
	return choices
}
