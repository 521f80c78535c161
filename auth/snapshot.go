// Package auth holds the role-evaluation lattice and the routing guard used
// to gate pages and mutations. Evaluation is pure: a Snapshot is an immutable
// view of the resolved principal and its active company membership, and every
// predicate degrades to false when data is absent.
package auth

import "estatenexus/models"

// Snapshot is the resolved identity a request or session is evaluated
// against. A nil Principal means unauthenticated; a nil Membership means no
// active company affiliation.
type Snapshot struct {
	Principal  *models.Profile
	Membership *models.CompanyMember
}

// Anonymous is the snapshot used when no session is present or resolution
// failed.
var Anonymous = Snapshot{}

func (s Snapshot) IsAuthenticated() bool {
	return s.Principal != nil
}

// IsPlatformAdmin reports whether the principal holds the marketplace-wide
// admin role.
func (s Snapshot) IsPlatformAdmin() bool {
	return s.Principal != nil && s.Principal.Role == models.RoleAdmin
}

// IsPlatformAgent reports agent capability: a global agent/admin role, or
// sufficient company standing. The two hierarchies join at this predicate.
func (s Snapshot) IsPlatformAgent() bool {
	if s.Principal != nil && (s.Principal.Role == models.RoleAgent || s.Principal.Role == models.RoleAdmin) {
		return true
	}
	return s.IsCompanyAgentOrAbove()
}

// activeRole returns the company role when the membership is active, or ""
// otherwise. Pending and inactive memberships grant nothing.
func (s Snapshot) activeRole() models.CompanyRole {
	if s.Membership == nil || s.Membership.Status != models.MembershipActive {
		return ""
	}
	return s.Membership.Role
}

func (s Snapshot) IsCompanyAdmin() bool {
	return s.activeRole() == models.CompanyRoleAdmin
}

// IsCompanyManager is true for managers and every tier above them.
func (s Snapshot) IsCompanyManager() bool {
	return s.activeRole() == models.CompanyRoleManager || s.IsCompanyAdmin()
}

// IsCompanyAgentOrAbove is true for company agents and every tier above them.
func (s Snapshot) IsCompanyAgentOrAbove() bool {
	return s.activeRole() == models.CompanyRoleAgent || s.IsCompanyManager()
}

// SameCompany reports whether the snapshot's active membership belongs to the
// given company.
func (s Snapshot) SameCompany(companyID string) bool {
	if s.Membership == nil || s.Membership.Status != models.MembershipActive {
		return false
	}
	return s.Membership.CompanyID.String() == companyID
}
