package models

import (
	"time"

	"github.com/google/uuid"
)

type Office struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	City    string `json:"city" yaml:"city"`
	State   string `json:"state" yaml:"state"`
}

type Social struct {
	Facebook  string `json:"facebook,omitempty" yaml:"facebook"`
	Twitter   string `json:"twitter,omitempty" yaml:"twitter"`
	Instagram string `json:"instagram,omitempty" yaml:"instagram"`
	LinkedIn  string `json:"linkedin,omitempty" yaml:"linkedin"`
}

// Agent is a directory profile for a real-estate agent. ListingsCount and
// SoldCount are rollups maintained by the stats worker.
type Agent struct {
	ID              uuid.UUID `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Email           string    `json:"email" yaml:"email"`
	Phone           string    `json:"phone" yaml:"phone"`
	Photo           string    `json:"photo" yaml:"photo"`
	Bio             string    `json:"bio" yaml:"bio"`
	Specializations []string  `json:"specialization" yaml:"specialization"`
	Experience      int       `json:"experience" yaml:"experience"` // years
	Rating          float64   `json:"rating" yaml:"rating"`         // out of 5
	ReviewCount     int       `json:"review_count" yaml:"review_count"`
	ListingsCount   int       `json:"listings_count" yaml:"listings_count"`
	SoldCount       int       `json:"sold_count" yaml:"sold_count"`
	Office          Office    `json:"office" yaml:"office"`
	Social          Social    `json:"social" yaml:"social"`
	CreatedAt       time.Time `json:"created_at" yaml:"-"`
}
