package search

import (
	"math"
	"testing"
)

func TestPaginate_LastPartialPage(t *testing.T) {
	items := make([]int, 13)
	for i := range items {
		items[i] = i
	}

	page, total := Paginate(items, 6, 2)
	if total != 3 {
		t.Fatalf("expected 3 pages for 13 items of size 6, got %d", total)
	}
	if len(page) != 1 || page[0] != 12 {
		t.Fatalf("expected last page [12], got %v", page)
	}
}

func TestPaginate_EmptyInputStillHasOnePage(t *testing.T) {
	page, total := Paginate([]int{}, 10, 0)
	if total != 1 {
		t.Fatalf("empty input should report 1 page, got %d", total)
	}
	if len(page) != 0 {
		t.Fatalf("empty input should yield an empty page, got %v", page)
	}
}

func TestPaginate_OutOfRangeIndex(t *testing.T) {
	items := []int{1, 2, 3}

	page, total := Paginate(items, 2, 5)
	if total != 2 {
		t.Fatalf("expected 2 pages, got %d", total)
	}
	if len(page) != 0 {
		t.Fatalf("out-of-range page should be empty, got %v", page)
	}

	page, _ = Paginate(items, 2, -1)
	if len(page) != 0 {
		t.Fatalf("negative page should be empty, got %v", page)
	}
}

func TestPaginate_CoversSequenceWithoutGapsOrOverlaps(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	var joined []int
	_, total := Paginate(items, 7, 0)
	for idx := 0; idx < total; idx++ {
		page, _ := Paginate(items, 7, idx)
		joined = append(joined, page...)
	}

	if len(joined) != len(items) {
		t.Fatalf("pages cover %d items, want %d", len(joined), len(items))
	}
	for i, v := range joined {
		if v != i {
			t.Fatalf("pages out of order at %d: got %d", i, v)
		}
	}
}

func TestPaginate_HugePageIndex(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, total := Paginate(items, 100, math.MaxInt/50)
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if len(page) != 0 {
		t.Fatalf("huge page index should be empty, got %v", page)
	}

	// An index whose product with the page size wraps back into range must
	// still be treated as out of range.
	page, total = Paginate(items, 4, 1<<62)
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if len(page) != 0 {
		t.Fatalf("wrapped page index should be empty, got %v", page)
	}
}
