package models

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Website     string    `json:"website,omitempty" db:"website"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	Email       string    `json:"email,omitempty" db:"email"`
	Address     string    `json:"address,omitempty" db:"address"`
	City        string    `json:"city,omitempty" db:"city"`
	State       string    `json:"state,omitempty" db:"state"`
	ZipCode     string    `json:"zip_code,omitempty" db:"zip_code"`
	LogoURL     string    `json:"logo_url,omitempty" db:"logo_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CompanyMember links a profile to a company with a company-scoped role.
// A profile has at most one active membership surfaced at a time.
type CompanyMember struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	CompanyID uuid.UUID        `json:"company_id" db:"company_id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Role      CompanyRole      `json:"role" db:"role"`
	Status    MembershipStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	// Joined from profiles for team views; not persisted on this row.
	FullName  string `json:"full_name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Invitation is a pending offer to join a company. Tokens expire seven days
// after creation.
type Invitation struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	CompanyID uuid.UUID        `json:"company_id" db:"company_id"`
	Email     string           `json:"email" db:"email"`
	Role      CompanyRole      `json:"role" db:"role"`
	Token     string           `json:"token" db:"token"`
	InvitedBy uuid.UUID        `json:"invited_by" db:"invited_by"`
	Status    InvitationStatus `json:"status" db:"status"`
	ExpiresAt time.Time        `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
