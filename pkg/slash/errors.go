package slash

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	// Declaration time.
	ErrNoSuchParameter    = errors.New("no such parameter")
	ErrConflictingOption  = errors.New("conflicting option settings")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrInvalidDeclaration = errors.New("invalid declaration")

	// Dispatch time.
	ErrUnknownCommand         = errors.New("unknown command")
	ErrUnknownSubcommand      = errors.New("unknown subcommand")
	ErrNoFocusedOption        = errors.New("no focused option in autocomplete request")
	ErrNoAutocomplete         = errors.New("option has no autocomplete handler")
	ErrUnsupportedInteraction = errors.New("unsupported interaction type")
)

// DeclarationError is returned while commands are being declared. It is fatal
// to startup.
type DeclarationError struct {
	Command string
	Option  string
	Err     error
}

func (e *DeclarationError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("declare command %q: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("declare command %q option %q: %v", e.Command, e.Option, e.Err)
}

func (e *DeclarationError) Unwrap() error { return e.Err }

func declErr(command, option string, err error, format string, args ...any) error {
	if format != "" {
		err = fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
	}
	return &DeclarationError{Command: command, Option: option, Err: err}
}

// ScopeError records one failed remote call for a single scope.
type ScopeError struct {
	Scope Scope
	Op    string
	Err   error
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Scope, e.Op, e.Err)
}

func (e *ScopeError) Unwrap() error { return e.Err }

// SyncError aggregates every scope that failed during one synchronization.
type SyncError struct {
	err error
}

func (e *SyncError) Error() string {
	scopes := make([]string, 0)
	for _, se := range e.Scopes() {
		scopes = append(scopes, se.Scope.String())
	}
	return fmt.Sprintf("synchronize commands failed for %s: %v", strings.Join(scopes, ", "), e.err)
}

// Unwrap exposes the individual scope failures to errors.Is/As.
func (e *SyncError) Unwrap() []error { return multierr.Errors(e.err) }

// Scopes lists the failures in the order they were recorded.
func (e *SyncError) Scopes() []*ScopeError {
	var out []*ScopeError
	for _, err := range multierr.Errors(e.err) {
		var se *ScopeError
		if errors.As(err, &se) {
			out = append(out, se)
		}
	}
	return out
}

// LookupError signals a desync between the remote catalog and the Registry.
type LookupError struct {
	CommandID string
	Name      string
	Err       error
}

func (e *LookupError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%v: id=%s", e.Err, e.CommandID)
	}
	return fmt.Sprintf("%v: %q (command id=%s)", e.Err, e.Name, e.CommandID)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ResolutionError is returned when a referenced entity cannot be produced.
type ResolutionError struct {
	Kind string
	ID   string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s %s: %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("resolve %s %s: not present in resolved payload", e.Kind, e.ID)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
