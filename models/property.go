package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PropertyType is the closed set of listing categories.
type PropertyType string

const (
	TypeHouse     PropertyType = "House"
	TypeApartment PropertyType = "Apartment"
	TypeCondo     PropertyType = "Condo"
	TypeTownhouse PropertyType = "Townhouse"
	TypeVilla     PropertyType = "Villa"
)

// ParsePropertyType converts a raw string to a PropertyType, returning an
// error for unknown values.
func ParsePropertyType(s string) (PropertyType, error) {
	t := PropertyType(s)
	switch t {
	case TypeHouse, TypeApartment, TypeCondo, TypeTownhouse, TypeVilla:
		return t, nil
	}
	return "", fmt.Errorf("unknown property type %q", s)
}

// PropertyTypes lists all valid listing categories in display order.
func PropertyTypes() []PropertyType {
	return []PropertyType{TypeHouse, TypeApartment, TypeCondo, TypeTownhouse, TypeVilla}
}

type Location struct {
	Address string   `json:"address" db:"address"`
	City    string   `json:"city" db:"city"`
	State   string   `json:"state" db:"state"`
	Zip     string   `json:"zip" db:"zip_code"`
	Lat     *float64 `json:"lat,omitempty" db:"lat"`
	Lng     *float64 `json:"lng,omitempty" db:"lng"`
}

// AgentSummary is the denormalized agent contact attached to a listing.
type AgentSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Phone  string    `json:"phone"`
	Avatar string    `json:"avatar"`
}

// Property is a marketplace listing. Price, beds, baths and area are always
// present and non-negative; images may be empty only before creation
// completes.
type Property struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Title        string        `json:"title" db:"title"`
	Type         PropertyType  `json:"type" db:"type"`
	Price        float64       `json:"price" db:"price"`
	Beds         int           `json:"beds" db:"beds"`
	Baths        float64       `json:"baths" db:"baths"` // half-baths allowed
	Area         int           `json:"area" db:"area"`   // square feet
	Description  string        `json:"description" db:"description"`
	Features     []string      `json:"features" db:"features"`
	Images       []string      `json:"images" db:"images"`
	Location     Location      `json:"location"`
	YearBuilt    *int          `json:"year_built,omitempty" db:"year_built"`
	GarageSpaces *int          `json:"garage_spaces,omitempty" db:"garage_spaces"`
	Available    bool          `json:"available" db:"available"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	AgentID      *uuid.UUID    `json:"agent_id,omitempty" db:"agent_id"`
	CompanyID    *uuid.UUID    `json:"company_id,omitempty" db:"company_id"`
	Agent        *AgentSummary `json:"agent,omitempty"`
}
