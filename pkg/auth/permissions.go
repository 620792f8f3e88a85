package auth

import "strings"

// Permission names follow a scope:action shape, where action is "r" or "w".
// Write access on a scope implies read access on the same scope.
const (
	PermStoriesRead       = "stories:r"
	PermStoriesWrite      = "stories:w"
	PermResponsesRead     = "responses:r"
	PermResponsesWrite    = "responses:w"
	PermNLUDataRead       = "nlu-data:r"
	PermNLUDataWrite      = "nlu-data:w"
	PermConversationsRead = "conversations:r"
	PermUsersRead         = "users:r"
	PermUsersWrite        = "users:w"
)

// rolePermissions expands simple role names into the permissions they grant.
// Role names that are themselves scope:action shaped grant exactly that
// permission and are handled in HasPermission directly.
var rolePermissions = map[string][]string{
	"admin": {
		PermStoriesWrite, PermResponsesWrite, PermNLUDataWrite,
		PermConversationsRead, PermUsersWrite,
	},
	"editor": {
		PermStoriesWrite, PermResponsesWrite, PermNLUDataWrite,
		PermConversationsRead,
	},
	"annotator": {
		PermStoriesRead, PermResponsesRead, PermNLUDataWrite,
		PermConversationsRead,
	},
	"viewer": {
		PermStoriesRead, PermResponsesRead, PermNLUDataRead,
		PermConversationsRead,
	},
}

// grants reports whether a held permission satisfies a required one:
// an exact match, or write on the same scope when read is required.
func grants(held, required string) bool {
	if held == required {
		return true
	}
	scope, action, ok := strings.Cut(required, ":")
	if !ok || action != "r" {
		return false
	}
	return held == scope+":w"
}

// HasPermission reports whether the claims grant the required permission,
// either through an expanded role or a permission-shaped role name.
func (c *Claims) HasPermission(required string) bool {
	for _, role := range c.Roles {
		if strings.Contains(role, ":") {
			if grants(role, required) {
				return true
			}
			continue
		}
		for _, held := range rolePermissions[role] {
			if grants(held, required) {
				return true
			}
		}
	}
	return false
}

// HasAllPermissions reports whether the claims grant every listed permission.
func (c *Claims) HasAllPermissions(required ...string) bool {
	for _, p := range required {
		if !c.HasPermission(p) {
			return false
		}
	}
	return true
}
