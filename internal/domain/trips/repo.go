package trips

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlab/packager/internal/domain/inventory"
	"github.com/packlab/packager/internal/infra/db"
)

// ErrNotPicked is returned when packing an item that is not picked.
var ErrNotPicked = errors.New("item is not picked")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const tripCols = `id, user_id, name, date_start, date_end, state, location, temp_min, temp_max, comment, created_at, updated_at`

func scanTrip(row interface{ Scan(...any) error }) (*Trip, error) {
	var t Trip
	var rawState string
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.DateStart, &t.DateEnd, &rawState,
		&t.Location, &t.TempMin, &t.TempMax, &t.Comment, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, db.MapError(err)
	}
	st, err := ParseState(rawState)
	if err != nil {
		return nil, err
	}
	t.State = st
	return &t, nil
}

/* Trips CRUD */

func (r *Repo) Create(ctx context.Context, userID uuid.UUID, name string, dateStart, dateEnd time.Time) (*Trip, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO trips (id, user_id, name, date_start, date_end, state)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+tripCols+`
	`, uuid.New(), userID, name, dateStart, dateEnd, string(StateInit))
	return scanTrip(row)
}

func (r *Repo) GetByID(ctx context.Context, id, userID uuid.UUID) (*Trip, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tripCols+` FROM trips WHERE id = $1 AND user_id = $2
	`, id, userID)
	return scanTrip(row)
}

func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]Trip, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tripCols+` FROM trips WHERE user_id = $1 ORDER BY date_start, name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, t *Trip) (*Trip, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE trips
		SET name=$3, date_start=$4, date_end=$5, location=$6, temp_min=$7, temp_max=$8, comment=$9, updated_at=now()
		WHERE id=$1 AND user_id=$2
		RETURNING `+tripCols+`
	`, t.ID, t.UserID, t.Name, t.DateStart, t.DateEnd, t.Location, t.TempMin, t.TempMax, t.Comment)
	return scanTrip(row)
}

func (r *Repo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM trips WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// SetState persists a lifecycle transition. Callers are expected to have
// obtained st via State.Next or State.Prev.
func (r *Repo) SetState(ctx context.Context, id, userID uuid.UUID, st State) (*Trip, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE trips SET state=$3, updated_at=now()
		WHERE id=$1 AND user_id=$2
		RETURNING `+tripCols+`
	`, id, userID, string(st))
	return scanTrip(row)
}

/* Trip items */

// UnsyncedItemIDs lists the user's inventory items that have no row in
// trips_items for the trip yet. Left anti-join, so neither side is pulled
// into memory wholesale.
func (r *Repo) UnsyncedItemIDs(ctx context.Context, tripID, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id
		FROM inventory_items i
		WHERE i.user_id = $2
		  AND NOT EXISTS (
			SELECT 1 FROM trips_items ti
			WHERE ti.trip_id = $1 AND ti.item_id = i.id
		  )
		ORDER BY i.id
	`, tripID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) AddItem(ctx context.Context, tripID, itemID uuid.UUID, markNew bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trips_items (trip_id, item_id, pick, pack, is_new)
		VALUES ($1,$2,FALSE,FALSE,$3)
	`, tripID, itemID, markNew)
	return db.MapError(err)
}

// SetItemFlag toggles pick or pack on one trip item.
// Unpicking also unpacks; packing an unpicked item fails with ErrNotPicked.
func (r *Repo) SetItemFlag(ctx context.Context, tripID, itemID uuid.UUID, key FlagKey, value bool) error {
	switch key {
	case FlagPick:
		tag, err := r.pool.Exec(ctx, `
			UPDATE trips_items
			SET pick = $3,
			    pack = CASE WHEN $3 THEN pack ELSE FALSE END
			WHERE trip_id = $1 AND item_id = $2
		`, tripID, itemID, value)
		if err != nil {
			return db.MapError(err)
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}
		return nil

	case FlagPack:
		if !value {
			tag, err := r.pool.Exec(ctx, `
				UPDATE trips_items SET pack = FALSE
				WHERE trip_id = $1 AND item_id = $2
			`, tripID, itemID)
			if err != nil {
				return db.MapError(err)
			}
			if tag.RowsAffected() == 0 {
				return db.ErrNotFound
			}
			return nil
		}
		tag, err := r.pool.Exec(ctx, `
			UPDATE trips_items SET pack = TRUE
			WHERE trip_id = $1 AND item_id = $2 AND pick = TRUE
		`, tripID, itemID)
		if err != nil {
			return db.MapError(err)
		}
		if tag.RowsAffected() == 0 {
			// distinguish a missing row from an unpicked one
			var exists bool
			if err := r.pool.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM trips_items WHERE trip_id=$1 AND item_id=$2)
			`, tripID, itemID).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return ErrNotPicked
			}
			return db.ErrNotFound
		}
		return nil
	}
	return db.ErrNotFound
}

// LoadCategories returns the trip's items grouped by inventory category,
// ordered by category then item name. Categories without trip items are
// omitted.
func (r *Repo) LoadCategories(ctx context.Context, tripID uuid.UUID) ([]TripCategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.user_id, c.name, c.description, c.created_at,
		       ti.trip_id, ti.pick, ti.pack, ti.is_new,
		       i.id, i.user_id, i.category_id, i.name, i.description, i.weight, i.created_at
		FROM trips_items ti
		JOIN inventory_items i ON i.id = ti.item_id
		JOIN inventory_items_categories c ON c.id = i.category_id
		WHERE ti.trip_id = $1
		ORDER BY c.name, i.name
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TripCategory
	for rows.Next() {
		var c inventory.Category
		var ti TripItem
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt,
			&ti.TripID, &ti.Picked, &ti.Packed, &ti.New,
			&ti.Item.ID, &ti.Item.UserID, &ti.Item.CategoryID, &ti.Item.Name, &ti.Item.Description, &ti.Item.Weight, &ti.Item.CreatedAt,
		); err != nil {
			return nil, err
		}
		ti.ItemID = ti.Item.ID
		if len(out) == 0 || out[len(out)-1].Category.ID != c.ID {
			out = append(out, TripCategory{Category: c})
		}
		out[len(out)-1].Items = append(out[len(out)-1].Items, ti)
	}
	return out, rows.Err()
}

// FindTotalPickedWeight computes the picked weight directly in SQL. Agrees
// with TotalPickedWeight over LoadCategories for the same trip.
func (r *Repo) FindTotalPickedWeight(ctx context.Context, tripID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(i.weight), 0)
		FROM trips_items ti
		JOIN inventory_items i ON i.id = ti.item_id
		WHERE ti.trip_id = $1 AND ti.pick = TRUE
	`, tripID).Scan(&total)
	return total, err
}

/* Trip types */

func (r *Repo) CreateType(ctx context.Context, userID uuid.UUID, name string) (*TripType, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO trips_types (id, user_id, name)
		VALUES ($1,$2,$3)
		RETURNING id, user_id, name
	`, uuid.New(), userID, name)
	var tt TripType
	if err := row.Scan(&tt.ID, &tt.UserID, &tt.Name); err != nil {
		return nil, db.MapError(err)
	}
	return &tt, nil
}

func (r *Repo) DeleteType(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM trips_types WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repo) ListTypes(ctx context.Context, userID uuid.UUID) ([]TripType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name FROM trips_types WHERE user_id=$1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TripType
	for rows.Next() {
		var tt TripType
		if err := rows.Scan(&tt.ID, &tt.UserID, &tt.Name); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

func (r *Repo) AttachType(ctx context.Context, tripID, typeID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trips_to_trips_types (trip_id, type_id)
		VALUES ($1,$2)
		ON CONFLICT (trip_id, type_id) DO NOTHING
	`, tripID, typeID)
	return db.MapError(err)
}

func (r *Repo) DetachType(ctx context.Context, tripID, typeID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM trips_to_trips_types WHERE trip_id=$1 AND type_id=$2
	`, tripID, typeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repo) ListTripTypes(ctx context.Context, tripID uuid.UUID) ([]TripType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.user_id, t.name
		FROM trips_to_trips_types tt
		JOIN trips_types t ON t.id = tt.type_id
		WHERE tt.trip_id = $1
		ORDER BY t.name
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TripType
	for rows.Next() {
		var tt TripType
		if err := rows.Scan(&tt.ID, &tt.UserID, &tt.Name); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}
