package trips

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/packlab/packager/internal/domain/inventory"
)

type Trip struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	DateStart time.Time `json:"date_start"`
	DateEnd   time.Time `json:"date_end"`
	State     State     `json:"state"`
	Location  *string   `json:"location,omitempty"`
	TempMin   *int      `json:"temp_min,omitempty"`
	TempMax   *int      `json:"temp_max,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TripItem links one inventory item to one trip. The (trip, item) pair is
// unique. Packed only makes sense for picked items; the repo enforces that
// when toggling flags.
type TripItem struct {
	TripID uuid.UUID      `json:"trip_id"`
	ItemID uuid.UUID      `json:"item_id"`
	Picked bool           `json:"picked"`
	Packed bool           `json:"packed"`
	New    bool           `json:"new"` // added by sync after the trip left Init
	Item   inventory.Item `json:"item"`
}

// TripCategory groups a trip's items by the underlying inventory category.
type TripCategory struct {
	Category inventory.Category `json:"category"`
	Items    []TripItem         `json:"items"`
}

func (tc TripCategory) TotalPickedWeight() int64 {
	var total int64
	for _, ti := range tc.Items {
		if ti.Picked {
			total += ti.Item.Weight
		}
	}
	return total
}

// TotalPickedWeight sums picked weight over all categories of a trip. Must
// agree with Repo.FindTotalPickedWeight for the same trip.
func TotalPickedWeight(cats []TripCategory) int64 {
	var total int64
	for _, tc := range cats {
		total += tc.TotalPickedWeight()
	}
	return total
}

// TripType is a user-defined tag attached to trips ("Biking", "Winter", ...).
type TripType struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// FlagKey selects which trip-item flag a toggle targets.
type FlagKey string

const (
	FlagPick FlagKey = "pick"
	FlagPack FlagKey = "pack"
)

func ParseFlagKey(raw string) (FlagKey, error) {
	switch FlagKey(raw) {
	case FlagPick:
		return FlagPick, nil
	case FlagPack:
		return FlagPack, nil
	}
	return "", fmt.Errorf("unknown trip item flag %q", raw)
}
