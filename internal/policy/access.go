package policy

import "github.com/spec-kit/complaint-service/internal/domain"

var allow = domain.AccessDecision{Allowed: true}

func deny(reason domain.DenyReason) domain.AccessDecision {
	return domain.AccessDecision{Allowed: false, Reason: reason}
}

// Authorize decides whether actor may perform perm against a resource in scope.
//
// Admins are always allowed. Executives need perm granted, then must match the
// resource zone when they have one, and the resource branch when they have one.
// An executive without a zone is treated as org-wide for the permissions they hold.
func Authorize(actor domain.Actor, perm domain.Permission, scope domain.Scope) domain.AccessDecision {
	switch a := actor.(type) {
	case nil:
		return deny(domain.ReasonUnauthenticated)
	case domain.Admin:
		return allow
	case *domain.Admin:
		if a == nil {
			return deny(domain.ReasonUnauthenticated)
		}
		return allow
	case domain.Executive:
		return authorizeExecutive(a, perm, scope)
	case *domain.Executive:
		if a == nil {
			return deny(domain.ReasonUnauthenticated)
		}
		return authorizeExecutive(*a, perm, scope)
	default:
		return deny(domain.ReasonPermissionDenied)
	}
}

func authorizeExecutive(e domain.Executive, perm domain.Permission, scope domain.Scope) domain.AccessDecision {
	if !e.Granted.Has(perm) {
		return deny(domain.ReasonPermissionDenied)
	}
	if e.ZoneID == nil {
		return allow
	}
	if *e.ZoneID != scope.ZoneID {
		return deny(domain.ReasonZoneScopeViolation)
	}
	if e.BranchID != nil && *e.BranchID != scope.BranchID {
		return deny(domain.ReasonBranchScopeViolation)
	}
	return allow
}

// ScopeRestriction is the zone/branch an actor is confined to for a permission.
// Nil fields mean unrestricted.
type ScopeRestriction struct {
	ZoneID   *string
	BranchID *string
}

// RestrictionFor returns the listing scope of actor for perm, and false when the
// actor holds no such permission at all.
func RestrictionFor(actor domain.Actor, perm domain.Permission) (ScopeRestriction, bool) {
	switch a := actor.(type) {
	case domain.Admin:
		return ScopeRestriction{}, true
	case *domain.Admin:
		return ScopeRestriction{}, a != nil
	case domain.Executive:
		return executiveRestriction(a, perm)
	case *domain.Executive:
		if a == nil {
			return ScopeRestriction{}, false
		}
		return executiveRestriction(*a, perm)
	default:
		return ScopeRestriction{}, false
	}
}

func executiveRestriction(e domain.Executive, perm domain.Permission) (ScopeRestriction, bool) {
	if !e.Granted.Has(perm) {
		return ScopeRestriction{}, false
	}
	if e.ZoneID == nil {
		return ScopeRestriction{}, true
	}
	return ScopeRestriction{ZoneID: e.ZoneID, BranchID: e.BranchID}, true
}
