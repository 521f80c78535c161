package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the principal record backing an authenticated user.
type Profile struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Email       string       `json:"email" db:"email"`
	Role        PlatformRole `json:"role" db:"role"`
	FullName    string       `json:"full_name,omitempty" db:"full_name"`
	AvatarURL   string       `json:"avatar_url,omitempty" db:"avatar_url"`
	Phone       string       `json:"phone,omitempty" db:"phone"`
	Bio         string       `json:"bio,omitempty" db:"bio"`
	LinkedInURL string       `json:"linkedin_url,omitempty" db:"linkedin_url"`
	CompanyID   *uuid.UUID   `json:"company_id,omitempty" db:"company_id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}
