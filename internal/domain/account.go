package domain

import "time"

// ActorRole enumerates the closed set of caller roles. Dispatch sites switch
// exhaustively over this type; adding a role must revisit each of them.
type ActorRole string

const (
	RoleConsumer  ActorRole = "consumer"
	RoleProvider  ActorRole = "provider"
	RoleModerator ActorRole = "moderator"
	RoleAdmin     ActorRole = "admin"
)

// ValidRole reports whether r names a known role.
func ValidRole(r ActorRole) bool {
	switch r {
	case RoleConsumer, RoleProvider, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role reviews flags and rejects issues.
func (r ActorRole) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// AccountStatus represents lifecycle states for an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account is the domain model for authenticated identities: consumers who
// report issues, providers who work them, and moderators/admins who review.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         ActorRole
	Profession   *IssueCategory
	Contact      *string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the identity every core operation receives.
type Actor struct {
	ID         string
	Role       ActorRole
	Profession *IssueCategory
}

// Actor projects the account into the identity the core consumes.
func (a *Account) Actor() Actor {
	return Actor{ID: a.ID, Role: a.Role, Profession: a.Profession}
}
