package models

import "fmt"

// PlatformRole is the marketplace-wide role stored on a profile.
type PlatformRole string

const (
	RoleAdmin PlatformRole = "admin"
	RoleAgent PlatformRole = "agent"
	RoleBuyer PlatformRole = "buyer"
)

// ParsePlatformRole converts a raw string to a PlatformRole, returning an
// error for unknown values.
func ParsePlatformRole(s string) (PlatformRole, error) {
	r := PlatformRole(s)
	switch r {
	case RoleAdmin, RoleAgent, RoleBuyer:
		return r, nil
	}
	return "", fmt.Errorf("unknown platform role %q", s)
}

// CompanyRole is the company-scoped role on a membership. Permission order is
// admin > manager > agent > employee, each tier inheriting the tiers below.
type CompanyRole string

const (
	CompanyRoleAdmin    CompanyRole = "admin"
	CompanyRoleManager  CompanyRole = "manager"
	CompanyRoleAgent    CompanyRole = "agent"
	CompanyRoleEmployee CompanyRole = "employee"
)

func ParseCompanyRole(s string) (CompanyRole, error) {
	r := CompanyRole(s)
	switch r {
	case CompanyRoleAdmin, CompanyRoleManager, CompanyRoleAgent, CompanyRoleEmployee:
		return r, nil
	}
	return "", fmt.Errorf("unknown company role %q", s)
}

type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
)

func ParseMembershipStatus(s string) (MembershipStatus, error) {
	st := MembershipStatus(s)
	switch st {
	case MembershipPending, MembershipActive, MembershipInactive:
		return st, nil
	}
	return "", fmt.Errorf("unknown membership status %q", s)
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)
