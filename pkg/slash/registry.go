package slash

import "sync"

// Collector gathers declared commands before they enter a Registry.
type Collector struct {
	commands []*Command
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends commands that have no owning group.
func (c *Collector) Add(cmds ...*Command) {
	c.commands = append(c.commands, cmds...)
}

// AttachGroup records group as the owner of cmds and appends them. A command
// can be attached to a group only once.
func (c *Collector) AttachGroup(group Group, cmds ...*Command) error {
	if group == nil {
		return declErr("", "", ErrInvalidDeclaration, "nil group")
	}
	for _, cmd := range cmds {
		if cmd.owner != nil {
			return declErr(cmd.Name, "", ErrInvalidDeclaration, "already attached to group %q", cmd.owner.Name())
		}
		if cmd.sealed.Load() {
			return declErr(cmd.Name, "", ErrInvalidDeclaration, "command is already registered")
		}
	}
	for _, cmd := range cmds {
		cmd.owner = group
	}
	c.commands = append(c.commands, cmds...)
	return nil
}

// Commands returns the collected commands in declaration order.
func (c *Collector) Commands() []*Command {
	return append([]*Command(nil), c.commands...)
}

type scopedName struct {
	scope Scope
	name  string
}

// Registry stores declared commands awaiting synchronization and, after
// synchronization, the same commands keyed by their server-assigned ID.
type Registry struct {
	mu       sync.RWMutex
	order    []*Command
	declared map[scopedName]*Command
	pending  map[scopedName]*Command
	byID     map[string]*Command

	// unpushed holds scopes whose permission overwrites have not reached the
	// catalog yet.
	unpushed map[Scope]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		declared: make(map[scopedName]*Command),
		pending:  make(map[scopedName]*Command),
		byID:     make(map[string]*Command),
		unpushed: make(map[Scope]bool),
	}
}

// Add registers commands as pending. Names must be unique within a scope.
// The batch is checked as a whole; on error nothing is registered.
func (r *Registry) Add(cmds ...*Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[scopedName]bool, len(cmds))
	for _, cmd := range cmds {
		if cmd == nil {
			return declErr("", "", ErrInvalidDeclaration, "nil command")
		}
		if cmd.Kind == KindChat && cmd.chat == nil && !hasSubcommands(cmd) {
			return declErr(cmd.Name, "", ErrInvalidDeclaration, "chat command has neither a handler nor subcommands")
		}
		key := scopedName{scope: cmd.Scope(), name: cmd.Name}
		if _, dup := r.declared[key]; dup || batch[key] {
			return declErr(cmd.Name, "", ErrDuplicateName, "already declared in %s", key.scope)
		}
		if cmd.ID() != "" {
			return declErr(cmd.Name, "", ErrInvalidDeclaration, "command already bound to id %s", cmd.ID())
		}
		batch[key] = true
	}

	for _, cmd := range cmds {
		key := scopedName{scope: cmd.Scope(), name: cmd.Name}
		cmd.sealed.Store(true)
		r.declared[key] = cmd
		r.pending[key] = cmd
		r.order = append(r.order, cmd)
	}
	return nil
}

// Collect adds every command of c.
func (r *Registry) Collect(c *Collector) error {
	return r.Add(c.Commands()...)
}

// Commands returns every declared command in declaration order.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.order...)
}

// Pending returns commands that have not been bound yet, in declaration order.
func (r *Registry) Pending() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Command, 0, len(r.pending))
	for _, cmd := range r.order {
		if _, ok := r.pending[scopedName{scope: cmd.Scope(), name: cmd.Name}]; ok {
			out = append(out, cmd)
		}
	}
	return out
}

// Lookup returns the command bound to the server-assigned id.
func (r *Registry) Lookup(id string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byID[id]
	return cmd, ok
}

// Len returns the number of declared commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Bound returns the number of commands bound to an ID.
func (r *Registry) Bound() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// bind attaches id to the command declared as name in scope and indexes it.
// A command re-sent in a later synchronization is re-indexed if the catalog
// assigned it a new id. It reports false when nothing is declared under that
// name or id already belongs to another command.
func (r *Registry) bind(scope Scope, name, id string) (*Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scopedName{scope: scope, name: name}
	cmd, ok := r.declared[key]
	if !ok || id == "" {
		return nil, false
	}
	if prev, taken := r.byID[id]; taken && prev != cmd {
		return nil, false
	}
	if cur := cmd.ID(); cur != "" && cur != id {
		delete(r.byID, cur)
	}
	delete(r.pending, key)
	cmd.id.Store(&id)
	r.byID[id] = cmd
	return cmd, true
}

// setPermissionsPushed records whether the permission overwrites of scope
// reached the catalog.
func (r *Registry) setPermissionsPushed(scope Scope, pushed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pushed {
		delete(r.unpushed, scope)
	} else {
		r.unpushed[scope] = true
	}
}

// dirtyScopes returns the scopes that still need a synchronization: those
// with unbound commands and those whose permissions were not pushed.
func (r *Registry) dirtyScopes() map[Scope]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dirty := make(map[Scope]bool, len(r.unpushed))
	for key := range r.pending {
		dirty[key.scope] = true
	}
	for scope := range r.unpushed {
		dirty[scope] = true
	}
	return dirty
}

func hasSubcommands(cmd *Command) bool {
	for _, o := range cmd.Options {
		if o.IsSubcommand() {
			return true
		}
	}
	return false
}
