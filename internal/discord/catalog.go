package discord

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"github.com/keshon/slashroute/pkg/slash"
)

// Catalog is the slash.Catalog backed by the Discord REST API. Each scope is
// replaced with a single bulk overwrite request.
type Catalog struct {
	s     *discordgo.Session
	appID string
}

// NewCatalog returns a Catalog for the application appID.
func NewCatalog(s *discordgo.Session, appID string) *Catalog {
	return &Catalog{s: s, appID: appID}
}

func (c *Catalog) commandsURL(scope slash.Scope) string {
	if scope.IsGlobal() {
		return discordgo.EndpointApplicationGlobalCommands(c.appID)
	}
	return discordgo.EndpointApplicationGuildCommands(c.appID, scope.GuildID)
}

// OverwriteCommands replaces every command of scope with payload.
func (c *Catalog) OverwriteCommands(ctx context.Context, scope slash.Scope, payload []byte) ([]slash.RemoteCommand, error) {
	url := c.commandsURL(scope)
	body, err := c.s.RequestWithBucketID(http.MethodPut, url, json.RawMessage(payload), url, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("bulk overwrite %s: %w", scope, err)
	}

	var out []slash.RemoteCommand
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s commands: %w", scope, err)
	}
	return out, nil
}

// OverwritePermissions replaces the permission overwrites of every command in
// payload.
func (c *Catalog) OverwritePermissions(ctx context.Context, scope slash.Scope, payload []byte) error {
	url := c.commandsURL(scope) + "/permissions"
	if _, err := c.s.RequestWithBucketID(http.MethodPut, url, json.RawMessage(payload), url, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("overwrite %s permissions: %w", scope, err)
	}
	return nil
}

// ApplicationID returns configured when set, and otherwise the ID of the bot
// user, which Discord uses as the application ID for bot applications.
func ApplicationID(ctx context.Context, s *discordgo.Session, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if s.State != nil && s.State.User != nil && s.State.User.ID != "" {
		return s.State.User.ID, nil
	}
	u, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetch bot user: %w", err)
	}
	return u.ID, nil
}
