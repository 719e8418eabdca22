package domain

// Permission identifies an operation gated by the access policy.
type Permission string

const (
	PermComplaintView         Permission = "complaint.view"
	PermComplaintCreate       Permission = "complaint.create"
	PermComplaintEdit         Permission = "complaint.edit"
	PermComplaintUpdateStatus Permission = "complaint.updateStatus"
	PermComplaintAssign       Permission = "complaint.assign"
)

// AllPermissions lists every permission the engine checks.
func AllPermissions() []Permission {
	return []Permission{
		PermComplaintView,
		PermComplaintCreate,
		PermComplaintEdit,
		PermComplaintUpdateStatus,
		PermComplaintAssign,
	}
}

// PermissionSet is an unordered set of granted permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether p is granted.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Actor is the authenticated caller. The concrete type is either Admin or Executive.
type Actor interface {
	ActorID() string
	Role() Role
}

// Admin holds every permission for every zone.
type Admin struct {
	UserID string
}

func (a Admin) ActorID() string { return a.UserID }
func (a Admin) Role() Role      { return RoleAdmin }

// Executive is scoped by granted permissions and an optional zone/branch assignment.
// A nil ZoneID means the executive is not zone-restricted.
type Executive struct {
	UserID   string
	ZoneID   *string
	BranchID *string
	Granted  PermissionSet
}

func (e Executive) ActorID() string { return e.UserID }
func (e Executive) Role() Role      { return RoleExecutive }

// Scope is the zone/branch of a resource being accessed.
type Scope struct {
	ZoneID   string
	BranchID string
}

// DenyReason is the machine-readable reason attached to a denied AccessDecision.
type DenyReason string

const (
	ReasonNone                 DenyReason = ""
	ReasonUnauthenticated      DenyReason = "unauthenticated"
	ReasonPermissionDenied     DenyReason = "permission_denied"
	ReasonZoneScopeViolation   DenyReason = "zone_scope_violation"
	ReasonBranchScopeViolation DenyReason = "branch_scope_violation"
)

// AccessDecision is the outcome of an access check. It is never persisted.
type AccessDecision struct {
	Allowed bool
	Reason  DenyReason
}
