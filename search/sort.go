package search

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"estatenexus/models"
)

// SortKey selects a total ordering. Unknown keys leave the input order
// unchanged.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"

	SortExperienceDesc SortKey = "experience-desc"
	SortRatingDesc     SortKey = "rating-desc"
	SortListingsDesc   SortKey = "listings-desc"
	SortNameAsc        SortKey = "name-asc"
)

// nameCollator orders display names the way a directory listing would,
// independent of byte order for accented names.
var nameCollator = collate.New(language.English, collate.Loose)

// SortProperties returns a new slice ordered by key. The sort is stable:
// equal keys preserve relative input order, which also breaks "newest" ties
// deterministically.
func SortProperties(items []models.Property, key SortKey) []models.Property {
	out := make([]models.Property, len(items))
	copy(out, items)

	switch key {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price < out[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price > out[j].Price
		})
	}
	return out
}

// SortAgents returns a new slice ordered by key, stable like SortProperties.
func SortAgents(items []models.Agent, key SortKey) []models.Agent {
	out := make([]models.Agent, len(items))
	copy(out, items)

	switch key {
	case SortExperienceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Experience > out[j].Experience
		})
	case SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Rating > out[j].Rating
		})
	case SortListingsDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ListingsCount > out[j].ListingsCount
		})
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return nameCollator.CompareString(out[i].Name, out[j].Name) < 0
		})
	}
	return out
}
