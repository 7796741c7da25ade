package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, table_id, customer_id, waiter_id, status, order_type, notes,
    subtotal, tax, discount, total, is_paid, payment_method, paid_at, created_at, updated_at`

func scanOrder(row scanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.TableID,
		&i.CustomerID,
		&i.WaiterID,
		&i.Status,
		&i.OrderType,
		&i.Notes,
		&i.Subtotal,
		&i.Tax,
		&i.Discount,
		&i.Total,
		&i.IsPaid,
		&i.PaymentMethod,
		&i.PaidAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const nextSequenceValue = `-- name: NextSequenceValue :one
INSERT INTO sequence_counters (scope, day, last_value)
VALUES ($1, $2, 1)
ON CONFLICT (scope, day) DO UPDATE SET last_value = sequence_counters.last_value + 1
RETURNING last_value`

type NextSequenceValueParams struct {
	Scope string      `json:"scope"`
	Day   pgtype.Date `json:"day"`
}

// NextSequenceValue atomically bumps the per-day counter for scope.
func (q *Queries) NextSequenceValue(ctx context.Context, arg NextSequenceValueParams) (int32, error) {
	row := q.db.QueryRow(ctx, nextSequenceValue, arg.Scope, arg.Day)
	var lastValue int32
	err := row.Scan(&lastValue)
	return lastValue, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    order_number, table_id, customer_id, waiter_id, status, order_type, notes,
    subtotal, tax, discount, total
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber string         `json:"order_number"`
	TableID     uuid.UUID      `json:"table_id"`
	CustomerID  pgtype.UUID    `json:"customer_id"`
	WaiterID    pgtype.UUID    `json:"waiter_id"`
	Status      string         `json:"status"`
	OrderType   string         `json:"order_type"`
	Notes       pgtype.Text    `json:"notes"`
	Subtotal    pgtype.Numeric `json:"subtotal"`
	Tax         pgtype.Numeric `json:"tax"`
	Discount    pgtype.Numeric `json:"discount"`
	Total       pgtype.Numeric `json:"total"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.TableID,
		arg.CustomerID,
		arg.WaiterID,
		arg.Status,
		arg.OrderType,
		arg.Notes,
		arg.Subtotal,
		arg.Tax,
		arg.Discount,
		arg.Total,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	return scanOrder(row)
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1
FOR UPDATE`

// GetOrderForUpdate locks the order row until the surrounding transaction ends.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	return scanOrder(row)
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE ($1::text IS NULL OR status = $1::text)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

type ListOrdersParams struct {
	Status pgtype.Text `json:"status"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanOrder)
}

const listActiveOrders = `-- name: ListActiveOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE status NOT IN ('completed', 'cancelled')
ORDER BY created_at`

func (q *Queries) ListActiveOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listActiveOrders)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanOrder)
}

const listOrdersByTable = `-- name: ListOrdersByTable :many
SELECT ` + orderColumns + ` FROM orders
WHERE table_id = $1
  AND ($2::boolean = false OR status NOT IN ('completed', 'cancelled'))
ORDER BY created_at DESC`

type ListOrdersByTableParams struct {
	TableID    uuid.UUID `json:"table_id"`
	ActiveOnly bool      `json:"active_only"`
}

func (q *Queries) ListOrdersByTable(ctx context.Context, arg ListOrdersByTableParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByTable, arg.TableID, arg.ActiveOnly)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanOrder)
}

const countActiveOrdersForTable = `-- name: CountActiveOrdersForTable :one
SELECT count(*) FROM orders
WHERE table_id = $1 AND status NOT IN ('completed', 'cancelled')`

func (q *Queries) CountActiveOrdersForTable(ctx context.Context, tableID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countActiveOrdersForTable, tableID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateOrderTotals = `-- name: UpdateOrderTotals :one
UPDATE orders
SET subtotal = $2, tax = $3, discount = $4, total = $5, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderTotalsParams struct {
	ID       uuid.UUID      `json:"id"`
	Subtotal pgtype.Numeric `json:"subtotal"`
	Tax      pgtype.Numeric `json:"tax"`
	Discount pgtype.Numeric `json:"discount"`
	Total    pgtype.Numeric `json:"total"`
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderTotals,
		arg.ID,
		arg.Subtotal,
		arg.Tax,
		arg.Discount,
		arg.Total,
	)
	return scanOrder(row)
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status)
	return scanOrder(row)
}

const completeOrderPayment = `-- name: CompleteOrderPayment :one
UPDATE orders
SET status = 'completed', is_paid = true, payment_method = $2, paid_at = $3, updated_at = now()
WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
RETURNING ` + orderColumns

type CompleteOrderPaymentParams struct {
	ID            uuid.UUID          `json:"id"`
	PaymentMethod pgtype.Text        `json:"payment_method"`
	PaidAt        pgtype.Timestamptz `json:"paid_at"`
}

func (q *Queries) CompleteOrderPayment(ctx context.Context, arg CompleteOrderPaymentParams) (Order, error) {
	row := q.db.QueryRow(ctx, completeOrderPayment, arg.ID, arg.PaymentMethod, arg.PaidAt)
	return scanOrder(row)
}

const cancelOrder = `-- name: CancelOrder :one
UPDATE orders SET status = 'cancelled', updated_at = now()
WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
RETURNING ` + orderColumns

func (q *Queries) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, cancelOrder, id)
	return scanOrder(row)
}
