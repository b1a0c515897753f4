package trips

import (
	"context"

	"github.com/google/uuid"
)

// SyncStore is the slice of the repository the sync routine needs.
type SyncStore interface {
	// UnsyncedItemIDs lists inventory items of the user that have no trip
	// item row for the trip yet.
	UnsyncedItemIDs(ctx context.Context, tripID, userID uuid.UUID) ([]uuid.UUID, error)
	// AddItem inserts a fresh trip item row with pick=false, pack=false.
	AddItem(ctx context.Context, tripID, itemID uuid.UUID, markNew bool) error
}

// SyncWithInventory reconciles the trip's item set against the user's current
// inventory: every inventory item without a trip item row gets one. Purely
// additive; existing rows are never modified or removed, so the routine is
// idempotent and a rerun after a partial failure just inserts the remainder.
//
// Items discovered after the trip left Init are flagged new, so the user can
// triage gear that appeared mid-planning.
//
// Inserts are not wrapped in one transaction. A concurrent sync for the same
// trip may win the race on a row; that surfaces as db.ErrDuplicate and aborts
// this sync. Returns the number of rows inserted.
func SyncWithInventory(ctx context.Context, store SyncStore, trip *Trip) (int, error) {
	ids, err := store.UnsyncedItemIDs(ctx, trip.ID, trip.UserID)
	if err != nil {
		return 0, err
	}

	markNew := trip.State != StateInit
	inserted := 0
	for _, itemID := range ids {
		if err := store.AddItem(ctx, trip.ID, itemID, markNew); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
