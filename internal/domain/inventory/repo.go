package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlab/packager/internal/infra/db"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Categories */

func (r *Repo) CreateCategory(ctx context.Context, userID uuid.UUID, name, description string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO inventory_items_categories (id, user_id, name, description)
		VALUES ($1,$2,$3,$4)
		RETURNING id, user_id, name, description, created_at
	`, uuid.New(), userID, name, description)
	var c Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &c, nil
}

func (r *Repo) GetCategory(ctx context.Context, id, userID uuid.UUID) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, created_at
		FROM inventory_items_categories
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	var c Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &c, nil
}

func (r *Repo) UpdateCategory(ctx context.Context, id, userID uuid.UUID, name, description string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE inventory_items_categories SET name=$3, description=$4
		WHERE id=$1 AND user_id=$2
		RETURNING id, user_id, name, description, created_at
	`, id, userID, name, description)
	var c Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &c, nil
}

// DeleteCategory fails with db.ErrRefNotFound while items still reference the
// category.
func (r *Repo) DeleteCategory(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM inventory_items_categories WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repo) ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, description, created_at
		FROM inventory_items_categories
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

/* Items */

func (r *Repo) CreateItem(ctx context.Context, userID, categoryID uuid.UUID, name, description string, weight int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (id, user_id, category_id, name, description, weight)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, user_id, category_id, name, description, weight, created_at
	`, uuid.New(), userID, categoryID, name, description, weight)
	var it Item
	if err := row.Scan(&it.ID, &it.UserID, &it.CategoryID, &it.Name, &it.Description, &it.Weight, &it.CreatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &it, nil
}

func (r *Repo) GetItem(ctx context.Context, id, userID uuid.UUID) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, category_id, name, description, weight, created_at
		FROM inventory_items
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	var it Item
	if err := row.Scan(&it.ID, &it.UserID, &it.CategoryID, &it.Name, &it.Description, &it.Weight, &it.CreatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &it, nil
}

func (r *Repo) UpdateItem(ctx context.Context, id, userID, categoryID uuid.UUID, name, description string, weight int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE inventory_items
		SET category_id=$3, name=$4, description=$5, weight=$6
		WHERE id=$1 AND user_id=$2
		RETURNING id, user_id, category_id, name, description, weight, created_at
	`, id, userID, categoryID, name, description, weight)
	var it Item
	if err := row.Scan(&it.ID, &it.UserID, &it.CategoryID, &it.Name, &it.Description, &it.Weight, &it.CreatedAt); err != nil {
		return nil, db.MapError(err)
	}
	return &it, nil
}

func (r *Repo) DeleteItem(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM inventory_items WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// Load fetches all categories of the user and populates each one's items.
// No partially loaded state escapes: the result is ready for weight
// aggregation.
func (r *Repo) Load(ctx context.Context, userID uuid.UUID) (Inventory, error) {
	cats, err := r.ListCategories(ctx, userID)
	if err != nil {
		return Inventory{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, category_id, name, description, weight, created_at
		FROM inventory_items
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return Inventory{}, err
	}
	defer rows.Close()

	byCategory := make(map[uuid.UUID][]Item, len(cats))
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.CategoryID, &it.Name, &it.Description, &it.Weight, &it.CreatedAt); err != nil {
			return Inventory{}, err
		}
		byCategory[it.CategoryID] = append(byCategory[it.CategoryID], it)
	}
	if err := rows.Err(); err != nil {
		return Inventory{}, err
	}

	inv := Inventory{Categories: make([]PopulatedCategory, 0, len(cats))}
	for _, c := range cats {
		inv.Categories = append(inv.Categories, PopulatedCategory{
			Category: c,
			Items:    byCategory[c.ID],
		})
	}
	return inv, nil
}
