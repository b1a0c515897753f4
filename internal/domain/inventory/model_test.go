package inventory

import "testing"

func populated(weights ...int64) PopulatedCategory {
	var c PopulatedCategory
	for _, w := range weights {
		c.Items = append(c.Items, Item{Weight: w})
	}
	return c
}

func TestTotalWeight(t *testing.T) {
	if got := populated().TotalWeight(); got != 0 {
		t.Errorf("empty category weight = %d, want 0", got)
	}
	if got := populated(2000, 500, 300).TotalWeight(); got != 2800 {
		t.Errorf("category weight = %d, want 2800", got)
	}

	inv := Inventory{Categories: []PopulatedCategory{populated(5), populated(12)}}
	if got := inv.TotalWeight(); got != 17 {
		t.Errorf("inventory weight = %d, want 17", got)
	}
}

func TestBiggestCategoryWeight(t *testing.T) {
	// 1, not 0: the value divides in proportional bar rendering
	if got := BiggestCategoryWeight(nil); got != 1 {
		t.Errorf("biggest weight of no categories = %d, want 1", got)
	}
	if got := BiggestCategoryWeight([]PopulatedCategory{populated(5), populated(12)}); got != 12 {
		t.Errorf("biggest weight = %d, want 12", got)
	}
	// all-zero categories still yield the divisor floor
	if got := BiggestCategoryWeight([]PopulatedCategory{populated(), populated(0)}); got != 1 {
		t.Errorf("biggest weight of weightless categories = %d, want 1", got)
	}
}
