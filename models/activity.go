package models

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityListingCreated ActivityType = "listing_created"
	ActivityListingUpdated ActivityType = "listing_updated"
	ActivityListingDeleted ActivityType = "listing_deleted"
	ActivityMemberJoined   ActivityType = "member_joined"
	ActivityMemberRemoved  ActivityType = "member_removed"
	ActivityInviteSent     ActivityType = "invite_sent"
)

// ActivityEvent is a dashboard feed entry.
type ActivityEvent struct {
	ID         int64        `json:"id" db:"id"`
	Type       ActivityType `json:"type" db:"type"`
	ActorID    *uuid.UUID   `json:"actor_id,omitempty" db:"actor_id"`
	CompanyID  *uuid.UUID   `json:"company_id,omitempty" db:"company_id"`
	PropertyID *uuid.UUID   `json:"property_id,omitempty" db:"property_id"`
	Message    string       `json:"message" db:"message"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// ContactMessage is a buyer-to-agent inquiry queued locally until delivered.
type ContactMessage struct {
	ID         int64      `json:"id" db:"id"`
	PropertyID *uuid.UUID `json:"property_id,omitempty" db:"property_id"`
	AgentID    uuid.UUID  `json:"agent_id" db:"agent_id"`
	Name       string     `json:"name" db:"name"`
	Email      string     `json:"email" db:"email"`
	Phone      string     `json:"phone,omitempty" db:"phone"`
	Body       string     `json:"body" db:"body"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	SentAt     *time.Time `json:"sent_at,omitempty" db:"sent_at"`
}

// DashboardStats are the aggregate counters shown on the dashboard.
type DashboardStats struct {
	TotalListings     int     `json:"total_listings"`
	AvailableListings int     `json:"available_listings"`
	TotalAgents       int     `json:"total_agents"`
	TotalCompanies    int     `json:"total_companies"`
	AveragePrice      float64 `json:"average_price"`
}
