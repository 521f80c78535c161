// Package search implements the in-memory faceted filtering, sorting and
// pagination used by the property and agent browsing endpoints. All functions
// are pure: inputs are never mutated and no function here can fail.
package search

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"estatenexus/models"
)

// MatchAll is the categorical facet sentinel that matches every item.
const MatchAll = "all"

// PropertyFilters is a set of independently optional predicates combined with
// logical AND. Zero values impose no constraint.
type PropertyFilters struct {
	Query    string // substring of title, case-insensitive
	Location string // substring of city, state or address
	Type     string // exact property type, or "all"/""
	MinPrice *float64
	MaxPrice *float64
	MinBeds  *int
	MinBaths *float64
}

// Match reports whether a single property satisfies every active predicate.
func (f PropertyFilters) Match(p *models.Property) bool {
	if q := fold(f.Query); q != "" {
		if !strings.Contains(fold(p.Title), q) {
			return false
		}
	}
	if q := fold(f.Location); q != "" {
		if !strings.Contains(fold(p.Location.City), q) &&
			!strings.Contains(fold(p.Location.State), q) &&
			!strings.Contains(fold(p.Location.Address), q) {
			return false
		}
	}
	if f.Type != "" && f.Type != MatchAll && string(p.Type) != f.Type {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinBeds != nil && p.Beds < *f.MinBeds {
		return false
	}
	if f.MinBaths != nil && p.Baths < *f.MinBaths {
		return false
	}
	return true
}

// FilterProperties returns the properties matching every active facet,
// preserving input order. The input slice is not modified.
func FilterProperties(items []models.Property, f PropertyFilters) []models.Property {
	out := make([]models.Property, 0, len(items))
	for i := range items {
		if f.Match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

// AgentFilters narrows the agent directory.
type AgentFilters struct {
	Query          string // name, office city/state or specialization
	Specialization string // exact membership, or "all"/""
	State          string // exact office state, or "all"/""
	MinExperience  *int
	MinRating      *float64
}

func (f AgentFilters) Match(a *models.Agent) bool {
	if q := fold(f.Query); q != "" {
		if !strings.Contains(fold(a.Name), q) &&
			!strings.Contains(fold(a.Office.City), q) &&
			!strings.Contains(fold(a.Office.State), q) &&
			!matchAnySpec(a.Specializations, q) {
			return false
		}
	}
	if f.Specialization != "" && f.Specialization != MatchAll &&
		!slices.Contains(a.Specializations, f.Specialization) {
		return false
	}
	if f.State != "" && f.State != MatchAll && a.Office.State != f.State {
		return false
	}
	if f.MinExperience != nil && a.Experience < *f.MinExperience {
		return false
	}
	if f.MinRating != nil && a.Rating < *f.MinRating {
		return false
	}
	return true
}

// FilterAgents returns the agents matching every active facet, preserving
// input order.
func FilterAgents(items []models.Agent, f AgentFilters) []models.Agent {
	out := make([]models.Agent, 0, len(items))
	for i := range items {
		if f.Match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

func matchAnySpec(specs []string, foldedQuery string) bool {
	for _, s := range specs {
		if strings.Contains(fold(s), foldedQuery) {
			return true
		}
	}
	return false
}

// fold lowercases without locale-specific casing rules so "MIAMI" matches
// "Miami" regardless of the host locale.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParsePropertyFilters builds filters from request query parameters.
// Malformed numeric values and the "any" sentinel impose no constraint
// rather than failing the pipeline.
func ParsePropertyFilters(values url.Values) PropertyFilters {
	return PropertyFilters{
		Query:    values.Get("q"),
		Location: values.Get("location"),
		Type:     values.Get("type"),
		MinPrice: parseFloat(values.Get("min_price")),
		MaxPrice: parseFloat(values.Get("max_price")),
		MinBeds:  parseInt(values.Get("beds")),
		MinBaths: parseFloat(values.Get("baths")),
	}
}

// ParseAgentFilters builds agent directory filters from query parameters.
func ParseAgentFilters(values url.Values) AgentFilters {
	return AgentFilters{
		Query:          values.Get("q"),
		Specialization: values.Get("specialization"),
		State:          values.Get("state"),
		MinExperience:  parseInt(values.Get("experience")),
		MinRating:      parseFloat(values.Get("rating")),
	}
}

func parseInt(s string) *int {
	if s == "" || s == "any" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(s string) *float64 {
	if s == "" || s == "any" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
