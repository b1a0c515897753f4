package inventory

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Item struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Weight      int64     `json:"weight"` // grams
	CreatedAt   time.Time `json:"created_at"`
}

// PopulatedCategory is a category together with its loaded items. Weight
// aggregation lives here and not on Category, so an unloaded category can
// never be asked for a weight.
type PopulatedCategory struct {
	Category
	Items []Item `json:"items"`
}

func (c PopulatedCategory) TotalWeight() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.Weight
	}
	return total
}

// Inventory is the full set of a user's categories, each with its items.
type Inventory struct {
	Categories []PopulatedCategory `json:"categories"`
}

func (inv Inventory) TotalWeight() int64 {
	var total int64
	for _, c := range inv.Categories {
		total += c.TotalWeight()
	}
	return total
}

// BiggestCategoryWeight returns the heaviest category's total weight.
// Never less than 1: the result is a divisor when rendering proportional
// weight bars.
func BiggestCategoryWeight(cats []PopulatedCategory) int64 {
	max := int64(1)
	for _, c := range cats {
		if w := c.TotalWeight(); w > max {
			max = w
		}
	}
	return max
}
