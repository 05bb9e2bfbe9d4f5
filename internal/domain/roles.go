package domain

import "strings"

const (
	RoleUser      = "user"
	RoleService   = "service"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// IsPrivilegedRole reports whether role ranks above service accounts.
func IsPrivilegedRole(role string) bool {
	return role == RoleAdmin || role == RoleModerator
}

func IsServiceRole(role string) bool { return role == RoleService }

// CanManage: owners manage their own rows, privileged roles manage any.
func CanManage(actorID, actorRole, ownerID string) bool {
	if IsPrivilegedRole(actorRole) {
		return true
	}
	return strings.TrimSpace(actorID) != "" && actorID == ownerID
}

// Actor is the authenticated caller as resolved by the transport layer.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) Privileged() bool { return IsPrivilegedRole(a.Role) }
