package domain

import "time"

// Role distinguishes administrators from scoped executives.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleExecutive Role = "executive"
)

// User is the persisted account behind an Actor.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	ZoneID       *string
	BranchID     *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActorFor builds the authorization view of a user. Grants are ignored for admins.
func ActorFor(user *User, granted []Permission) Actor {
	if user.Role == RoleAdmin {
		return Admin{UserID: user.ID}
	}
	return Executive{
		UserID:   user.ID,
		ZoneID:   user.ZoneID,
		BranchID: user.BranchID,
		Granted:  NewPermissionSet(granted...),
	}
}
