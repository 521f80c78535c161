package search

import (
	"testing"
	"time"

	"estatenexus/models"
)

func TestSortProperties_PriceAsc(t *testing.T) {
	items := []models.Property{
		prop("first", models.TypeHouse, 100000, 2, 1, "Austin", "TX"),
		prop("second", models.TypeCondo, 500000, 3, 2, "Austin", "TX"),
		prop("third", models.TypeHouse, 250000, 4, 2, "Dallas", "TX"),
	}

	got := SortProperties(items, SortPriceAsc)
	want := []string{"first", "third", "second"}
	for idx, title := range want {
		if got[idx].Title != title {
			t.Fatalf("price-asc order wrong at %d: got %v, want %v", idx, titles(got), want)
		}
	}
	if items[1].Title != "second" {
		t.Fatalf("input slice was mutated")
	}
}

func TestSortProperties_PriceDesc(t *testing.T) {
	items := []models.Property{
		prop("cheap", models.TypeHouse, 100000, 2, 1, "Austin", "TX"),
		prop("dear", models.TypeCondo, 500000, 3, 2, "Austin", "TX"),
	}
	got := SortProperties(items, SortPriceDesc)
	if got[0].Title != "dear" || got[1].Title != "cheap" {
		t.Fatalf("price-desc order wrong: %v", titles(got))
	}
}

func TestSortProperties_NewestTiesStable(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := prop("older", models.TypeHouse, 1, 1, 1, "", "")
	a.CreatedAt = base.Add(-time.Hour)
	b := prop("tied-one", models.TypeHouse, 2, 1, 1, "", "")
	b.CreatedAt = base
	c := prop("tied-two", models.TypeHouse, 3, 1, 1, "", "")
	c.CreatedAt = base

	got := SortProperties([]models.Property{a, b, c}, SortNewest)
	want := []string{"tied-one", "tied-two", "older"}
	for idx, title := range want {
		if got[idx].Title != title {
			t.Fatalf("newest order wrong: got %v, want %v", titles(got), want)
		}
	}
}

func TestSortProperties_Totality(t *testing.T) {
	items := []models.Property{
		prop("a", models.TypeHouse, 3, 1, 1, "", ""),
		prop("b", models.TypeHouse, 1, 1, 1, "", ""),
		prop("c", models.TypeHouse, 2, 1, 1, "", ""),
	}
	for _, key := range []SortKey{SortNewest, SortPriceAsc, SortPriceDesc, SortKey("bogus")} {
		got := SortProperties(items, key)
		if len(got) != len(items) {
			t.Fatalf("sort %q dropped or duplicated items: %d != %d", key, len(got), len(items))
		}
	}
}

func TestSortAgents_ExperienceDescStable(t *testing.T) {
	items := []models.Agent{
		agent("Bob", nil, "NY", 5, 4.0),
		agent("Amy", nil, "NY", 5, 4.5),
		agent("Cid", nil, "NY", 9, 3.9),
	}

	got := SortAgents(items, SortExperienceDesc)
	want := []string{"Cid", "Bob", "Amy"}
	for idx, name := range want {
		if got[idx].Name != name {
			t.Fatalf("experience-desc order wrong at %d: got %s, want %s", idx, got[idx].Name, name)
		}
	}
}

func TestSortAgents_NameAsc(t *testing.T) {
	items := []models.Agent{
		agent("Zoe", nil, "NY", 1, 1),
		agent("ana", nil, "NY", 1, 1),
		agent("Ben", nil, "NY", 1, 1),
	}
	got := SortAgents(items, SortNameAsc)
	want := []string{"ana", "Ben", "Zoe"}
	for idx, name := range want {
		if got[idx].Name != name {
			t.Fatalf("name-asc should compare case-insensitively: got %s at %d, want %s", got[idx].Name, idx, name)
		}
	}
}

func TestSortAgents_RatingAndListings(t *testing.T) {
	items := []models.Agent{
		agent("low", nil, "NY", 1, 3.5),
		agent("high", nil, "NY", 1, 4.9),
	}
	items[0].ListingsCount = 20
	items[1].ListingsCount = 5

	got := SortAgents(items, SortRatingDesc)
	if got[0].Name != "high" {
		t.Fatalf("rating-desc should put high first, got %s", got[0].Name)
	}
	got = SortAgents(items, SortListingsDesc)
	if got[0].Name != "low" {
		t.Fatalf("listings-desc should put the busier agent first, got %s", got[0].Name)
	}
}
