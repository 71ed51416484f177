package slash

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ErrGuildOnly is returned by WithGuildOnly for invocations outside a guild.
var ErrGuildOnly = errors.New("command is only available in guilds")

// Call is one resolved handler invocation.
type Call struct {
	Command     *Command
	Subcommand  string
	Interaction *discordgo.Interaction

	Args          Args
	TargetUser    *discordgo.User
	TargetMember  *discordgo.Member
	TargetMessage *discordgo.Message

	handler ChatHandler
}

// Path is the command name followed by the subcommand, if any.
func (c *Call) Path() string {
	if c.Subcommand == "" {
		return c.Command.Name
	}
	return c.Command.Name + " " + c.Subcommand
}

// Invoker runs a Call.
type Invoker func(ctx context.Context, call *Call) error

// Middleware wraps an Invoker (logging, guards, recovery).
type Middleware func(next Invoker) Invoker

// Chain wraps inv with mws; the first middleware is the outermost.
func Chain(inv Invoker, mws ...Middleware) Invoker {
	for i := len(mws) - 1; i >= 0; i-- {
		inv = mws[i](inv)
	}
	return inv
}

// WithLogging logs every invocation with its outcome and duration.
func WithLogging(log *zap.Logger) Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, call *Call) error {
			start := time.Now()
			err := next(ctx, call)

			fields := []zap.Field{
				zap.String("command", call.Path()),
				zap.String("guild_id", call.Interaction.GuildID),
				zap.String("channel_id", call.Interaction.ChannelID),
				zap.String("user_id", invokerID(call.Interaction)),
				zap.Duration("took", time.Since(start)),
			}
			if err != nil {
				log.Warn("Command failed", append(fields, zap.Error(err))...)
				return err
			}
			log.Info("Command executed", fields...)
			return nil
		}
	}
}

// PanicError is returned by WithRecover when a handler panics.
type PanicError struct {
	Command string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command %q panicked: %v", e.Command, e.Value)
}

// WithRecover turns a handler panic into a *PanicError.
func WithRecover() Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, call *Call) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Command: call.Path(), Value: r, Stack: debug.Stack()}
				}
			}()
			return next(ctx, call)
		}
	}
}

// WithGuildOnly rejects invocations of GuildOnly commands made outside a
// guild.
func WithGuildOnly() Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, call *Call) error {
			if call.Command.GuildOnly && call.Interaction.GuildID == "" {
				return fmt.Errorf("%s: %w", call.Path(), ErrGuildOnly)
			}
			return next(ctx, call)
		}
	}
}

func invokerID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
