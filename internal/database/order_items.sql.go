package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderItemColumns = `id, order_id, menu_item_id, quantity, unit_price, line_total, status, notes,
    prepared_by, prepared_at, served_by, served_at, created_at, updated_at`

func scanOrderItem(row scanner) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Quantity,
		&i.UnitPrice,
		&i.LineTotal,
		&i.Status,
		&i.Notes,
		&i.PreparedBy,
		&i.PreparedAt,
		&i.ServedBy,
		&i.ServedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price, line_total, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID    uuid.UUID      `json:"order_id"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Quantity   int32          `json:"quantity"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	LineTotal  pgtype.Numeric `json:"line_total"`
	Notes      pgtype.Text    `json:"notes"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Quantity,
		arg.UnitPrice,
		arg.LineTotal,
		arg.Notes,
	)
	return scanOrderItem(row)
}

const getOrderItem = `-- name: GetOrderItem :one
SELECT ` + orderItemColumns + ` FROM order_items
WHERE id = $1 AND order_id = $2`

type GetOrderItemParams struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
}

func (q *Queries) GetOrderItem(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, getOrderItem, arg.ID, arg.OrderID)
	return scanOrderItem(row)
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT oi.id, oi.order_id, oi.menu_item_id, oi.quantity, oi.unit_price, oi.line_total, oi.status, oi.notes,
       oi.prepared_by, oi.prepared_at, oi.served_by, oi.served_at, oi.created_at, oi.updated_at,
       mi.name AS menu_item_name
FROM order_items oi
JOIN menu_items mi ON mi.id = oi.menu_item_id
WHERE oi.order_id = $1
ORDER BY oi.created_at, oi.id`

type ListOrderItemsByOrderRow struct {
	ID           uuid.UUID          `json:"id"`
	OrderID      uuid.UUID          `json:"order_id"`
	MenuItemID   uuid.UUID          `json:"menu_item_id"`
	Quantity     int32              `json:"quantity"`
	UnitPrice    pgtype.Numeric     `json:"unit_price"`
	LineTotal    pgtype.Numeric     `json:"line_total"`
	Status       string             `json:"status"`
	Notes        pgtype.Text        `json:"notes"`
	PreparedBy   pgtype.UUID        `json:"prepared_by"`
	PreparedAt   pgtype.Timestamptz `json:"prepared_at"`
	ServedBy     pgtype.UUID        `json:"served_by"`
	ServedAt     pgtype.Timestamptz `json:"served_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	MenuItemName string             `json:"menu_item_name"`
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]ListOrderItemsByOrderRow, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(row scanner) (ListOrderItemsByOrderRow, error) {
		var i ListOrderItemsByOrderRow
		err := row.Scan(
			&i.ID,
			&i.OrderID,
			&i.MenuItemID,
			&i.Quantity,
			&i.UnitPrice,
			&i.LineTotal,
			&i.Status,
			&i.Notes,
			&i.PreparedBy,
			&i.PreparedAt,
			&i.ServedBy,
			&i.ServedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.MenuItemName,
		)
		return i, err
	})
}

const updateOrderItemStatus = `-- name: UpdateOrderItemStatus :one
UPDATE order_items
SET status      = $2,
    prepared_by = COALESCE($3, prepared_by),
    prepared_at = COALESCE($4, prepared_at),
    served_by   = COALESCE($5, served_by),
    served_at   = COALESCE($6, served_at),
    updated_at  = now()
WHERE id = $1
RETURNING ` + orderItemColumns

type UpdateOrderItemStatusParams struct {
	ID         uuid.UUID          `json:"id"`
	Status     string             `json:"status"`
	PreparedBy pgtype.UUID        `json:"prepared_by"`
	PreparedAt pgtype.Timestamptz `json:"prepared_at"`
	ServedBy   pgtype.UUID        `json:"served_by"`
	ServedAt   pgtype.Timestamptz `json:"served_at"`
}

func (q *Queries) UpdateOrderItemStatus(ctx context.Context, arg UpdateOrderItemStatusParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, updateOrderItemStatus,
		arg.ID,
		arg.Status,
		arg.PreparedBy,
		arg.PreparedAt,
		arg.ServedBy,
		arg.ServedAt,
	)
	return scanOrderItem(row)
}

const deleteOrderItem = `-- name: DeleteOrderItem :execrows
DELETE FROM order_items WHERE id = $1 AND order_id = $2`

type DeleteOrderItemParams struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
}

func (q *Queries) DeleteOrderItem(ctx context.Context, arg DeleteOrderItemParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteOrderItem, arg.ID, arg.OrderID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const sumActiveOrderItems = `-- name: SumActiveOrderItems :one
SELECT COALESCE(SUM(line_total), 0)::numeric(12,2) FROM order_items
WHERE order_id = $1 AND status <> 'cancelled'`

// SumActiveOrderItems totals line_total over every non-cancelled item.
func (q *Queries) SumActiveOrderItems(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumActiveOrderItems, orderID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const countActiveOrderItems = `-- name: CountActiveOrderItems :one
SELECT count(*) FROM order_items
WHERE order_id = $1 AND status <> 'cancelled'`

func (q *Queries) CountActiveOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countActiveOrderItems, orderID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countOrderItemsByMenuItem = `-- name: CountOrderItemsByMenuItem :one
SELECT count(*) FROM order_items WHERE menu_item_id = $1`

func (q *Queries) CountOrderItemsByMenuItem(ctx context.Context, menuItemID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countOrderItemsByMenuItem, menuItemID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
