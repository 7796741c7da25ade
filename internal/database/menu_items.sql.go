package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, category, description, price, is_veg, is_available, preparation_time, image_url, created_at, updated_at`

func scanMenuItem(row scanner) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.Description,
		&i.Price,
		&i.IsVeg,
		&i.IsAvailable,
		&i.PreparationTime,
		&i.ImageUrl,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (name, category, description, price, is_veg, is_available, preparation_time)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	Name            string         `json:"name"`
	Category        string         `json:"category"`
	Description     pgtype.Text    `json:"description"`
	Price           pgtype.Numeric `json:"price"`
	IsVeg           bool           `json:"is_veg"`
	IsAvailable     bool           `json:"is_available"`
	PreparationTime int32          `json:"preparation_time"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Category,
		arg.Description,
		arg.Price,
		arg.IsVeg,
		arg.IsAvailable,
		arg.PreparationTime,
	)
	return scanMenuItem(row)
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	return scanMenuItem(row)
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE ($1::boolean = false OR is_available = true)
  AND ($2::text IS NULL OR category = $2::text)
ORDER BY category, name`

type ListMenuItemsParams struct {
	AvailableOnly bool        `json:"available_only"`
	Category      pgtype.Text `json:"category"`
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, arg.AvailableOnly, arg.Category)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanMenuItem)
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu_items
SET name = $2, category = $3, description = $4, price = $5, is_veg = $6,
    preparation_time = $7, updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Category        string         `json:"category"`
	Description     pgtype.Text    `json:"description"`
	Price           pgtype.Numeric `json:"price"`
	IsVeg           bool           `json:"is_veg"`
	PreparationTime int32          `json:"preparation_time"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.Name,
		arg.Category,
		arg.Description,
		arg.Price,
		arg.IsVeg,
		arg.PreparationTime,
	)
	return scanMenuItem(row)
}

const setMenuItemAvailability = `-- name: SetMenuItemAvailability :one
UPDATE menu_items SET is_available = $2, updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type SetMenuItemAvailabilityParams struct {
	ID          uuid.UUID `json:"id"`
	IsAvailable bool      `json:"is_available"`
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, setMenuItemAvailability, arg.ID, arg.IsAvailable)
	return scanMenuItem(row)
}

const setMenuItemImage = `-- name: SetMenuItemImage :one
UPDATE menu_items SET image_url = $2, updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type SetMenuItemImageParams struct {
	ID       uuid.UUID   `json:"id"`
	ImageUrl pgtype.Text `json:"image_url"`
}

func (q *Queries) SetMenuItemImage(ctx context.Context, arg SetMenuItemImageParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, setMenuItemImage, arg.ID, arg.ImageUrl)
	return scanMenuItem(row)
}

const deleteMenuItem = `-- name: DeleteMenuItem :execrows
DELETE FROM menu_items WHERE id = $1`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteMenuItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
