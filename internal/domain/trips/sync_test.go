package trips

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/packlab/packager/internal/domain/inventory"
)

// fakeStore keeps a user's inventory and one trip's item rows in memory. It
// mirrors the SQL semantics of the real repo: the anti-join lists items
// without a row, inserts never touch existing rows.
type fakeStore struct {
	itemOrder []uuid.UUID
	items     map[uuid.UUID]inventory.Item
	rows      map[uuid.UUID]*TripItem

	failOn int // 1-based insert number to fail on, 0 = never
	calls  int
}

var errInjected = errors.New("injected insert failure")

func newFakeStore() *fakeStore {
	return &fakeStore{
		items: make(map[uuid.UUID]inventory.Item),
		rows:  make(map[uuid.UUID]*TripItem),
	}
}

func (s *fakeStore) addInventoryItem(name string, weight int64, categoryID uuid.UUID) uuid.UUID {
	id := uuid.New()
	s.items[id] = inventory.Item{ID: id, CategoryID: categoryID, Name: name, Weight: weight}
	s.itemOrder = append(s.itemOrder, id)
	return id
}

func (s *fakeStore) UnsyncedItemIDs(_ context.Context, _, _ uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, id := range s.itemOrder {
		if _, ok := s.rows[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *fakeStore) AddItem(_ context.Context, tripID, itemID uuid.UUID, markNew bool) error {
	s.calls++
	if s.failOn != 0 && s.calls == s.failOn {
		return errInjected
	}
	s.rows[itemID] = &TripItem{TripID: tripID, ItemID: itemID, New: markNew, Item: s.items[itemID]}
	return nil
}

// aggregate mirrors the direct SQL picked-weight query.
func (s *fakeStore) aggregatePickedWeight() int64 {
	var total int64
	for id, row := range s.rows {
		if row.Picked {
			total += s.items[id].Weight
		}
	}
	return total
}

// categories mirrors LoadCategories: rows grouped by inventory category.
func (s *fakeStore) categories() []TripCategory {
	byCat := make(map[uuid.UUID]*TripCategory)
	var order []uuid.UUID
	for _, id := range s.itemOrder {
		row, ok := s.rows[id]
		if !ok {
			continue
		}
		catID := s.items[id].CategoryID
		tc, ok := byCat[catID]
		if !ok {
			tc = &TripCategory{Category: inventory.Category{ID: catID}}
			byCat[catID] = tc
			order = append(order, catID)
		}
		tc.Items = append(tc.Items, *row)
	}
	out := make([]TripCategory, 0, len(order))
	for _, id := range order {
		out = append(out, *byCat[id])
	}
	return out
}

func TestSyncCompletenessAndIdempotence(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cat := uuid.New()
	store.addInventoryItem("Tent", 2000, cat)
	store.addInventoryItem("Stove", 500, cat)

	trip := &Trip{ID: uuid.New(), UserID: uuid.New(), State: StateInit}

	n, err := SyncWithInventory(ctx, store, trip)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if n != 2 || len(store.rows) != 2 {
		t.Fatalf("first sync inserted %d rows (store has %d), want 2", n, len(store.rows))
	}

	n, err = SyncWithInventory(ctx, store, trip)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if n != 0 || len(store.rows) != 2 {
		t.Errorf("second sync inserted %d rows (store has %d), want 0 and 2", n, len(store.rows))
	}
}

func TestSyncNewFlag(t *testing.T) {
	ctx := context.Background()
	cat := uuid.New()

	for _, tc := range []struct {
		state   State
		wantNew bool
	}{
		{StateInit, false},
		{StatePlanning, true},
		{StateActive, true},
	} {
		store := newFakeStore()
		id := store.addInventoryItem("Tent", 2000, cat)
		trip := &Trip{ID: uuid.New(), UserID: uuid.New(), State: tc.state}

		if _, err := SyncWithInventory(ctx, store, trip); err != nil {
			t.Fatalf("state %q: %v", tc.state, err)
		}
		if got := store.rows[id].New; got != tc.wantNew {
			t.Errorf("state %q: new flag = %v, want %v", tc.state, got, tc.wantNew)
		}
		if store.rows[id].Picked || store.rows[id].Packed {
			t.Errorf("state %q: fresh rows must start unpicked and unpacked", tc.state)
		}
	}
}

func TestSyncNeverTouchesExistingRows(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cat := uuid.New()
	tent := store.addInventoryItem("Tent", 2000, cat)

	trip := &Trip{ID: uuid.New(), UserID: uuid.New(), State: StateInit}
	if _, err := SyncWithInventory(ctx, store, trip); err != nil {
		t.Fatal(err)
	}
	store.rows[tent].Picked = true
	store.rows[tent].Packed = true

	store.addInventoryItem("Stove", 500, cat)
	trip.State = StateActive
	if _, err := SyncWithInventory(ctx, store, trip); err != nil {
		t.Fatal(err)
	}

	row := store.rows[tent]
	if !row.Picked || !row.Packed || row.New {
		t.Errorf("existing row was modified by sync: %+v", row)
	}
}

func TestSyncPartialFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cat := uuid.New()
	store.addInventoryItem("Tent", 2000, cat)
	store.addInventoryItem("Stove", 500, cat)
	store.addInventoryItem("Lantern", 300, cat)
	store.failOn = 2

	trip := &Trip{ID: uuid.New(), UserID: uuid.New(), State: StateInit}

	n, err := SyncWithInventory(ctx, store, trip)
	if !errors.Is(err, errInjected) {
		t.Fatalf("want injected failure, got %v", err)
	}
	if n != 1 || len(store.rows) != 1 {
		t.Fatalf("partial sync left %d rows, reported %d", len(store.rows), n)
	}

	// retry picks up exactly the remainder
	n, err = SyncWithInventory(ctx, store, trip)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if n != 2 || len(store.rows) != 3 {
		t.Errorf("retry inserted %d rows (store has %d), want 2 and 3", n, len(store.rows))
	}
}

// TestCampingScenario walks the end-to-end flow: sync an Init trip, pick an
// item, grow the inventory, advance the trip, sync again.
func TestCampingScenario(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	camping := uuid.New()
	tent := store.addInventoryItem("Tent", 2000, camping)
	store.addInventoryItem("Stove", 500, camping)

	trip := &Trip{ID: uuid.New(), UserID: uuid.New(), State: StateInit}

	if n, err := SyncWithInventory(ctx, store, trip); err != nil || n != 2 {
		t.Fatalf("initial sync: n=%d err=%v", n, err)
	}
	for id, row := range store.rows {
		if row.Picked || row.Packed || row.New {
			t.Fatalf("row %s should start with all flags false: %+v", id, row)
		}
	}

	store.rows[tent].Picked = true
	if got := TotalPickedWeight(store.categories()); got != 2000 {
		t.Errorf("picked weight after picking tent = %d, want 2000", got)
	}

	lantern := store.addInventoryItem("Lantern", 300, camping)
	trip.State = StatePlanning
	if n, err := SyncWithInventory(ctx, store, trip); err != nil || n != 1 {
		t.Fatalf("second sync: n=%d err=%v", n, err)
	}
	if !store.rows[lantern].New {
		t.Error("lantern should be flagged new after syncing a planning trip")
	}
	if got := TotalPickedWeight(store.categories()); got != 2000 {
		t.Errorf("picked weight after second sync = %d, want unchanged 2000", got)
	}
}

func TestPickedWeightAgreement(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	catA := uuid.New()
	catB := uuid.New()
	a := store.addInventoryItem("Tent", 2000, catA)
	store.addInventoryItem("Stove", 500, catA)
	b := store.addInventoryItem("Bike lock", 700, catB)

	trip := &Trip{ID: uuid.New(), UserID: uuid.New(), State: StateInit}
	if _, err := SyncWithInventory(ctx, store, trip); err != nil {
		t.Fatal(err)
	}

	// zero picked items: both paths must agree on 0
	if got, want := TotalPickedWeight(store.categories()), store.aggregatePickedWeight(); got != want || got != 0 {
		t.Fatalf("category path %d, aggregate path %d, want both 0", got, want)
	}

	store.rows[a].Picked = true
	store.rows[b].Picked = true

	got := TotalPickedWeight(store.categories())
	want := store.aggregatePickedWeight()
	if got != want {
		t.Errorf("category path %d disagrees with aggregate path %d", got, want)
	}
	if got != 2700 {
		t.Errorf("picked weight = %d, want 2700", got)
	}
}
