package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const billColumns = `id, bill_number, order_id, table_id, subtotal, tax, discount, total_amount, status, is_paid,
    payment_method, paid_amount, change_amount, cashier_id, paid_at, version, created_at, updated_at`

func scanBill(row scanner) (Bill, error) {
	var i Bill
	err := row.Scan(
		&i.ID,
		&i.BillNumber,
		&i.OrderID,
		&i.TableID,
		&i.Subtotal,
		&i.Tax,
		&i.Discount,
		&i.TotalAmount,
		&i.Status,
		&i.IsPaid,
		&i.PaymentMethod,
		&i.PaidAmount,
		&i.ChangeAmount,
		&i.CashierID,
		&i.PaidAt,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createBill = `-- name: CreateBill :one
INSERT INTO bills (bill_number, order_id, table_id, subtotal, tax, discount, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + billColumns

type CreateBillParams struct {
	BillNumber  string         `json:"bill_number"`
	OrderID     uuid.UUID      `json:"order_id"`
	TableID     uuid.UUID      `json:"table_id"`
	Subtotal    pgtype.Numeric `json:"subtotal"`
	Tax         pgtype.Numeric `json:"tax"`
	Discount    pgtype.Numeric `json:"discount"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, createBill,
		arg.BillNumber,
		arg.OrderID,
		arg.TableID,
		arg.Subtotal,
		arg.Tax,
		arg.Discount,
		arg.TotalAmount,
	)
	return scanBill(row)
}

const getBill = `-- name: GetBill :one
SELECT ` + billColumns + ` FROM bills
WHERE id = $1`

func (q *Queries) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	row := q.db.QueryRow(ctx, getBill, id)
	return scanBill(row)
}

const getBillForUpdate = `-- name: GetBillForUpdate :one
SELECT ` + billColumns + ` FROM bills
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetBillForUpdate(ctx context.Context, id uuid.UUID) (Bill, error) {
	row := q.db.QueryRow(ctx, getBillForUpdate, id)
	return scanBill(row)
}

const getBillByOrder = `-- name: GetBillByOrder :one
SELECT ` + billColumns + ` FROM bills
WHERE order_id = $1`

func (q *Queries) GetBillByOrder(ctx context.Context, orderID uuid.UUID) (Bill, error) {
	row := q.db.QueryRow(ctx, getBillByOrder, orderID)
	return scanBill(row)
}

const refreshBill = `-- name: RefreshBill :one
UPDATE bills
SET subtotal = $2, tax = $3, discount = $4, total_amount = $5,
    version = version + 1, updated_at = now()
WHERE id = $1 AND status = 'draft'
RETURNING ` + billColumns

type RefreshBillParams struct {
	ID          uuid.UUID      `json:"id"`
	Subtotal    pgtype.Numeric `json:"subtotal"`
	Tax         pgtype.Numeric `json:"tax"`
	Discount    pgtype.Numeric `json:"discount"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
}

// RefreshBill rewrites the amounts of a draft bill and bumps its version.
func (q *Queries) RefreshBill(ctx context.Context, arg RefreshBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, refreshBill,
		arg.ID,
		arg.Subtotal,
		arg.Tax,
		arg.Discount,
		arg.TotalAmount,
	)
	return scanBill(row)
}

const settleBill = `-- name: SettleBill :one
UPDATE bills
SET status = 'settled', is_paid = true, payment_method = $3, paid_amount = $4, change_amount = $5,
    cashier_id = $6, paid_at = $7, version = version + 1, updated_at = now()
WHERE id = $1 AND version = $2 AND status = 'draft'
RETURNING ` + billColumns

type SettleBillParams struct {
	ID            uuid.UUID          `json:"id"`
	Version       int32              `json:"version"`
	PaymentMethod pgtype.Text        `json:"payment_method"`
	PaidAmount    pgtype.Numeric     `json:"paid_amount"`
	ChangeAmount  pgtype.Numeric     `json:"change_amount"`
	CashierID     pgtype.UUID        `json:"cashier_id"`
	PaidAt        pgtype.Timestamptz `json:"paid_at"`
}

// SettleBill marks a draft bill paid. Returns pgx.ErrNoRows when the bill is
// already settled or its version moved on.
func (q *Queries) SettleBill(ctx context.Context, arg SettleBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, settleBill,
		arg.ID,
		arg.Version,
		arg.PaymentMethod,
		arg.PaidAmount,
		arg.ChangeAmount,
		arg.CashierID,
		arg.PaidAt,
	)
	return scanBill(row)
}

const listSettledBillsBetween = `-- name: ListSettledBillsBetween :many
SELECT b.bill_number, o.order_number, t.number AS table_number, b.subtotal, b.tax, b.discount,
       b.total_amount, b.payment_method, b.paid_amount, b.change_amount, b.paid_at
FROM bills b
JOIN orders o ON o.id = b.order_id
JOIN dining_tables t ON t.id = b.table_id
WHERE b.status = 'settled' AND b.paid_at >= $1 AND b.paid_at < $2
ORDER BY b.paid_at`

type ListSettledBillsBetweenParams struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ListSettledBillsBetweenRow struct {
	BillNumber    string             `json:"bill_number"`
	OrderNumber   string             `json:"order_number"`
	TableNumber   int32              `json:"table_number"`
	Subtotal      pgtype.Numeric     `json:"subtotal"`
	Tax           pgtype.Numeric     `json:"tax"`
	Discount      pgtype.Numeric     `json:"discount"`
	TotalAmount   pgtype.Numeric     `json:"total_amount"`
	PaymentMethod pgtype.Text        `json:"payment_method"`
	PaidAmount    pgtype.Numeric     `json:"paid_amount"`
	ChangeAmount  pgtype.Numeric     `json:"change_amount"`
	PaidAt        pgtype.Timestamptz `json:"paid_at"`
}

func (q *Queries) ListSettledBillsBetween(ctx context.Context, arg ListSettledBillsBetweenParams) ([]ListSettledBillsBetweenRow, error) {
	rows, err := q.db.Query(ctx, listSettledBillsBetween, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(row scanner) (ListSettledBillsBetweenRow, error) {
		var i ListSettledBillsBetweenRow
		err := row.Scan(
			&i.BillNumber,
			&i.OrderNumber,
			&i.TableNumber,
			&i.Subtotal,
			&i.Tax,
			&i.Discount,
			&i.TotalAmount,
			&i.PaymentMethod,
			&i.PaidAmount,
			&i.ChangeAmount,
			&i.PaidAt,
		)
		return i, err
	})
}
