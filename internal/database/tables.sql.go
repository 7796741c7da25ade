package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, number, capacity, status, floor, section, created_at, updated_at`

func scanDiningTable(row scanner) (DiningTable, error) {
	var i DiningTable
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.Capacity,
		&i.Status,
		&i.Floor,
		&i.Section,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createTable = `-- name: CreateTable :one
INSERT INTO dining_tables (number, capacity, status, floor, section)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + tableColumns

type CreateTableParams struct {
	Number   int32       `json:"number"`
	Capacity int32       `json:"capacity"`
	Status   string      `json:"status"`
	Floor    int32       `json:"floor"`
	Section  pgtype.Text `json:"section"`
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (DiningTable, error) {
	row := q.db.QueryRow(ctx, createTable,
		arg.Number,
		arg.Capacity,
		arg.Status,
		arg.Floor,
		arg.Section,
	)
	return scanDiningTable(row)
}

const getTable = `-- name: GetTable :one
SELECT ` + tableColumns + ` FROM dining_tables
WHERE id = $1`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (DiningTable, error) {
	row := q.db.QueryRow(ctx, getTable, id)
	return scanDiningTable(row)
}

const getTableForUpdate = `-- name: GetTableForUpdate :one
SELECT ` + tableColumns + ` FROM dining_tables
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetTableForUpdate(ctx context.Context, id uuid.UUID) (DiningTable, error) {
	row := q.db.QueryRow(ctx, getTableForUpdate, id)
	return scanDiningTable(row)
}

const getTableByNumber = `-- name: GetTableByNumber :one
SELECT ` + tableColumns + ` FROM dining_tables
WHERE number = $1`

func (q *Queries) GetTableByNumber(ctx context.Context, number int32) (DiningTable, error) {
	row := q.db.QueryRow(ctx, getTableByNumber, number)
	return scanDiningTable(row)
}

const listTables = `-- name: ListTables :many
SELECT ` + tableColumns + ` FROM dining_tables
ORDER BY number`

func (q *Queries) ListTables(ctx context.Context) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanDiningTable)
}

const updateTable = `-- name: UpdateTable :one
UPDATE dining_tables
SET number = $2, capacity = $3, floor = $4, section = $5, updated_at = now()
WHERE id = $1
RETURNING ` + tableColumns

type UpdateTableParams struct {
	ID       uuid.UUID   `json:"id"`
	Number   int32       `json:"number"`
	Capacity int32       `json:"capacity"`
	Floor    int32       `json:"floor"`
	Section  pgtype.Text `json:"section"`
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (DiningTable, error) {
	row := q.db.QueryRow(ctx, updateTable,
		arg.ID,
		arg.Number,
		arg.Capacity,
		arg.Floor,
		arg.Section,
	)
	return scanDiningTable(row)
}

const updateTableStatus = `-- name: UpdateTableStatus :one
UPDATE dining_tables SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + tableColumns

type UpdateTableStatusParams struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (DiningTable, error) {
	row := q.db.QueryRow(ctx, updateTableStatus, arg.ID, arg.Status)
	return scanDiningTable(row)
}

const occupyTable = `-- name: OccupyTable :one
UPDATE dining_tables SET status = 'occupied', updated_at = now()
WHERE id = $1 AND status IN ('available', 'reserved')
RETURNING ` + tableColumns

// OccupyTable returns pgx.ErrNoRows when the table was not free to occupy.
func (q *Queries) OccupyTable(ctx context.Context, id uuid.UUID) (DiningTable, error) {
	row := q.db.QueryRow(ctx, occupyTable, id)
	return scanDiningTable(row)
}

const deleteTable = `-- name: DeleteTable :execrows
DELETE FROM dining_tables WHERE id = $1`

func (q *Queries) DeleteTable(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTable, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
