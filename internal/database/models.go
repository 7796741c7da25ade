package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	HashedPassword string      `json:"hashed_password"`
	Role           string      `json:"role"`
	Phone          pgtype.Text `json:"phone"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type DiningTable struct {
	ID        uuid.UUID   `json:"id"`
	Number    int32       `json:"number"`
	Capacity  int32       `json:"capacity"`
	Status    string      `json:"status"`
	Floor     int32       `json:"floor"`
	Section   pgtype.Text `json:"section"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type MenuItem struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Category        string         `json:"category"`
	Description     pgtype.Text    `json:"description"`
	Price           pgtype.Numeric `json:"price"`
	IsVeg           bool           `json:"is_veg"`
	IsAvailable     bool           `json:"is_available"`
	PreparationTime int32          `json:"preparation_time"`
	ImageUrl        pgtype.Text    `json:"image_url"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type SequenceCounter struct {
	Scope     string      `json:"scope"`
	Day       pgtype.Date `json:"day"`
	LastValue int32       `json:"last_value"`
}

type Order struct {
	ID            uuid.UUID          `json:"id"`
	OrderNumber   string             `json:"order_number"`
	TableID       uuid.UUID          `json:"table_id"`
	CustomerID    pgtype.UUID        `json:"customer_id"`
	WaiterID      pgtype.UUID        `json:"waiter_id"`
	Status        string             `json:"status"`
	OrderType     string             `json:"order_type"`
	Notes         pgtype.Text        `json:"notes"`
	Subtotal      pgtype.Numeric     `json:"subtotal"`
	Tax           pgtype.Numeric     `json:"tax"`
	Discount      pgtype.Numeric     `json:"discount"`
	Total         pgtype.Numeric     `json:"total"`
	IsPaid        bool               `json:"is_paid"`
	PaymentMethod pgtype.Text        `json:"payment_method"`
	PaidAt        pgtype.Timestamptz `json:"paid_at"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type OrderItem struct {
	ID         uuid.UUID          `json:"id"`
	OrderID    uuid.UUID          `json:"order_id"`
	MenuItemID uuid.UUID          `json:"menu_item_id"`
	Quantity   int32              `json:"quantity"`
	UnitPrice  pgtype.Numeric     `json:"unit_price"`
	LineTotal  pgtype.Numeric     `json:"line_total"`
	Status     string             `json:"status"`
	Notes      pgtype.Text        `json:"notes"`
	PreparedBy pgtype.UUID        `json:"prepared_by"`
	PreparedAt pgtype.Timestamptz `json:"prepared_at"`
	ServedBy   pgtype.UUID        `json:"served_by"`
	ServedAt   pgtype.Timestamptz `json:"served_at"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type Bill struct {
	ID            uuid.UUID          `json:"id"`
	BillNumber    string             `json:"bill_number"`
	OrderID       uuid.UUID          `json:"order_id"`
	TableID       uuid.UUID          `json:"table_id"`
	Subtotal      pgtype.Numeric     `json:"subtotal"`
	Tax           pgtype.Numeric     `json:"tax"`
	Discount      pgtype.Numeric     `json:"discount"`
	TotalAmount   pgtype.Numeric     `json:"total_amount"`
	Status        string             `json:"status"`
	IsPaid        bool               `json:"is_paid"`
	PaymentMethod pgtype.Text        `json:"payment_method"`
	PaidAmount    pgtype.Numeric     `json:"paid_amount"`
	ChangeAmount  pgtype.Numeric     `json:"change_amount"`
	CashierID     pgtype.UUID        `json:"cashier_id"`
	PaidAt        pgtype.Timestamptz `json:"paid_at"`
	Version       int32              `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
