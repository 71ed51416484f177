package slash

import (
	"context"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RemoteCommand is the part of a catalog response entry the Synchronizer
// reads back. Other fields the catalog returns are ignored.
type RemoteCommand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog is the remote command catalog. OverwriteCommands replaces the whole
// command set of a scope with payload and returns what the catalog now holds.
type Catalog interface {
	OverwriteCommands(ctx context.Context, scope Scope, payload []byte) ([]RemoteCommand, error)
	OverwritePermissions(ctx context.Context, scope Scope, payload []byte) error
}

// ScopePlan is the complete command set sent for one scope.
type ScopePlan struct {
	Scope    Scope
	Commands []*Command
}

// Payload returns the bulk-upsert body for the plan.
func (p ScopePlan) Payload() ([]byte, error) {
	return json.Marshal(p.Commands)
}

type permissionPayload struct {
	ID          string                                     `json:"id"`
	Permissions []*discordgo.ApplicationCommandPermissions `json:"permissions"`
}

// Synchronizer pushes the Registry's declarations to a Catalog and binds the
// returned IDs.
type Synchronizer struct {
	registry    *Registry
	catalog     Catalog
	log         *zap.Logger
	concurrency int
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithSyncLogger sets the logger. The default discards everything.
func WithSyncLogger(l *zap.Logger) SyncOption {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithConcurrency bounds how many guild scopes are synchronized at once.
func WithConcurrency(n int) SyncOption {
	return func(s *Synchronizer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewSynchronizer creates a Synchronizer over registry and catalog.
func NewSynchronizer(registry *Registry, catalog Catalog, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		registry:    registry,
		catalog:     catalog,
		log:         zap.NewNop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan partitions the registry into scopes that still have unbound commands
// or permission overwrites that did not reach the catalog. Each plan carries
// every command declared in its scope, because the catalog replaces a scope
// wholesale. The global scope comes first, guilds follow in ID order.
func (s *Synchronizer) Plan() []ScopePlan {
	dirty := s.registry.dirtyScopes()

	byScope := make(map[Scope][]*Command)
	for _, cmd := range s.registry.Commands() {
		if dirty[cmd.Scope()] {
			byScope[cmd.Scope()] = append(byScope[cmd.Scope()], cmd)
		}
	}

	plans := make([]ScopePlan, 0, len(byScope))
	for scope, cmds := range byScope {
		plans = append(plans, ScopePlan{Scope: scope, Commands: cmds})
	}
	sort.Slice(plans, func(i, j int) bool {
		a, b := plans[i].Scope, plans[j].Scope
		if a.IsGlobal() != b.IsGlobal() {
			return a.IsGlobal()
		}
		return a.GuildID < b.GuildID
	})
	return plans
}

// Synchronize sends every scope plan to the catalog. The global scope is
// synchronized before any guild. A failing scope does not stop the others;
// all failures are returned together as a *SyncError.
func (s *Synchronizer) Synchronize(ctx context.Context) error {
	plans := s.Plan()
	if len(plans) == 0 {
		s.log.Debug("No commands to synchronize")
		return nil
	}

	var (
		mu   sync.Mutex
		errs error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = multierr.Append(errs, err)
		mu.Unlock()
	}

	if plans[0].Scope.IsGlobal() {
		record(s.syncScope(ctx, plans[0]))
		plans = plans[1:]
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, plan := range plans {
		g.Go(func() error {
			record(s.syncScope(ctx, plan))
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil {
		return &SyncError{err: errs}
	}
	return nil
}

func (s *Synchronizer) syncScope(ctx context.Context, plan ScopePlan) error {
	log := s.log.With(zap.Stringer("scope", plan.Scope))

	payload, err := plan.Payload()
	if err != nil {
		return &ScopeError{Scope: plan.Scope, Op: "encode commands", Err: err}
	}

	remote, err := s.catalog.OverwriteCommands(ctx, plan.Scope, payload)
	if err != nil {
		log.Error("Failed to overwrite commands", zap.Int("commands", len(plan.Commands)), zap.Error(err))
		return &ScopeError{Scope: plan.Scope, Op: "overwrite commands", Err: err}
	}

	var perms []permissionPayload
	bound := 0
	for _, rc := range remote {
		cmd, ok := s.registry.bind(plan.Scope, rc.Name, rc.ID)
		if !ok {
			log.Debug("Ignoring catalog entry without a declaration", zap.String("name", rc.Name), zap.String("id", rc.ID))
			continue
		}
		bound++
		if cmd.Permissions != nil {
			perms = append(perms, permissionPayload{ID: rc.ID, Permissions: cmd.Permissions})
		}
	}
	if bound < len(plan.Commands) {
		log.Warn("Catalog response is missing declared commands", zap.Int("sent", len(plan.Commands)), zap.Int("bound", bound))
	}
	log.Info("Commands synchronized", zap.Int("sent", len(plan.Commands)), zap.Int("bound", bound))

	if len(perms) == 0 {
		s.registry.setPermissionsPushed(plan.Scope, true)
		return nil
	}
	body, err := json.Marshal(perms)
	if err != nil {
		s.registry.setPermissionsPushed(plan.Scope, false)
		return &ScopeError{Scope: plan.Scope, Op: "encode permissions", Err: err}
	}
	if err := s.catalog.OverwritePermissions(ctx, plan.Scope, body); err != nil {
		s.registry.setPermissionsPushed(plan.Scope, false)
		log.Error("Failed to overwrite permissions", zap.Int("commands", len(perms)), zap.Error(err))
		return &ScopeError{Scope: plan.Scope, Op: "overwrite permissions", Err: err}
	}
	s.registry.setPermissionsPushed(plan.Scope, true)
	log.Info("Permissions synchronized", zap.Int("commands", len(perms)))
	return nil
}
