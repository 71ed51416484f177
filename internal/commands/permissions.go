package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var permissionNames = map[int64]string{
	discordgo.PermissionAdministrator:   "Administrator",
	discordgo.PermissionKickMembers:     "Kick Members",
	discordgo.PermissionBanMembers:      "Ban Members",
	discordgo.PermissionManageGuild:     "Manage Server",
	discordgo.PermissionManageMessages:  "Manage Messages",
	discordgo.PermissionManageRoles:     "Manage Roles",
	discordgo.PermissionModerateMembers: "Moderate Members",
}

// missingPermission returns a notice for the invoker when their member
// permissions include none of required, or "" when they may proceed.
// Administrators always pass.
func missingPermission(i *discordgo.Interaction, required ...int64) string {
	if len(required) == 0 {
		return ""
	}
	var perms int64
	if i.Member != nil {
		perms = i.Member.Permissions
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return ""
	}
	for _, p := range required {
		if perms&p != 0 {
			return ""
		}
	}

	allowed := make([]string, 0, len(required))
	for _, p := range required {
		name := permissionNames[p]
		if name == "" {
			name = fmt.Sprintf("0x%x", p)
		}
		allowed = append(allowed, name)
	}
	return fmt.Sprintf("You need at least one of the following permissions to run this command:\n`%s`",
		strings.Join(allowed, "`, `"))
}
