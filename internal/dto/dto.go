// Package dto holds the JSON views of entities shared by the HTTP handlers
// and the realtime push frames.
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
)

type Table struct {
	ID        uuid.UUID `json:"id"`
	Number    int32     `json:"number"`
	Capacity  int32     `json:"capacity"`
	Status    string    `json:"status"`
	Floor     int32     `json:"floor"`
	Section   *string   `json:"section"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MenuItem struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Description     *string   `json:"description"`
	Price           string    `json:"price"`
	IsVeg           bool      `json:"is_veg"`
	IsAvailable     bool      `json:"is_available"`
	PreparationTime int32     `json:"preparation_time"`
	ImageURL        *string   `json:"image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Order struct {
	ID             uuid.UUID   `json:"id"`
	OrderNumber    string      `json:"order_number"`
	TableID        uuid.UUID   `json:"table_id"`
	TableNumber    int32       `json:"table_number"`
	CustomerID     *string     `json:"customer_id"`
	WaiterID       *string     `json:"waiter_id"`
	Status         string      `json:"status"`
	OrderType      string      `json:"order_type"`
	Notes          *string     `json:"notes"`
	Subtotal       string      `json:"subtotal"`
	Tax            string      `json:"tax"`
	Discount       string      `json:"discount"`
	Total          string      `json:"total"`
	IsPaid         bool        `json:"is_paid"`
	PaymentMethod  *string     `json:"payment_method"`
	PaidAt         *time.Time  `json:"paid_at"`
	AllItemsServed bool        `json:"all_items_served"`
	Items          []OrderItem `json:"items"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID           uuid.UUID  `json:"id"`
	MenuItemID   uuid.UUID  `json:"menu_item_id"`
	MenuItemName string     `json:"menu_item_name"`
	Quantity     int32      `json:"quantity"`
	UnitPrice    string     `json:"unit_price"`
	LineTotal    string     `json:"line_total"`
	Status       string     `json:"status"`
	Notes        *string    `json:"notes"`
	PreparedBy   *string    `json:"prepared_by"`
	PreparedAt   *time.Time `json:"prepared_at"`
	ServedBy     *string    `json:"served_by"`
	ServedAt     *time.Time `json:"served_at"`
}

type Bill struct {
	ID            uuid.UUID  `json:"id"`
	BillNumber    string     `json:"bill_number"`
	OrderID       uuid.UUID  `json:"order_id"`
	TableID       uuid.UUID  `json:"table_id"`
	Subtotal      string     `json:"subtotal"`
	Tax           string     `json:"tax"`
	Discount      string     `json:"discount"`
	TotalAmount   string     `json:"total_amount"`
	Status        string     `json:"status"`
	IsPaid        bool       `json:"is_paid"`
	PaymentMethod *string    `json:"payment_method"`
	PaidAmount    *string    `json:"paid_amount"`
	ChangeAmount  *string    `json:"change_amount"`
	CashierID     *string    `json:"cashier_id"`
	PaidAt        *time.Time `json:"paid_at"`
	Version       int32      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Phone     *string   `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewTable(t database.DiningTable) Table {
	return Table{
		ID:        t.ID,
		Number:    t.Number,
		Capacity:  t.Capacity,
		Status:    t.Status,
		Floor:     t.Floor,
		Section:   textPtr(t.Section),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func NewMenuItem(m database.MenuItem) MenuItem {
	return MenuItem{
		ID:              m.ID,
		Name:            m.Name,
		Category:        m.Category,
		Description:     textPtr(m.Description),
		Price:           NumericToString(m.Price),
		IsVeg:           m.IsVeg,
		IsAvailable:     m.IsAvailable,
		PreparationTime: m.PreparationTime,
		ImageURL:        textPtr(m.ImageUrl),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// NewOrder builds the order view. items may be nil for list views.
func NewOrder(o database.Order, tableNumber int32, items []database.ListOrderItemsByOrderRow, allItemsServed bool) Order {
	resp := Order{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		TableID:        o.TableID,
		TableNumber:    tableNumber,
		CustomerID:     uuidPtr(o.CustomerID),
		WaiterID:       uuidPtr(o.WaiterID),
		Status:         o.Status,
		OrderType:      o.OrderType,
		Notes:          textPtr(o.Notes),
		Subtotal:       NumericToString(o.Subtotal),
		Tax:            NumericToString(o.Tax),
		Discount:       NumericToString(o.Discount),
		Total:          NumericToString(o.Total),
		IsPaid:         o.IsPaid,
		PaymentMethod:  textPtr(o.PaymentMethod),
		PaidAt:         timePtr(o.PaidAt),
		AllItemsServed: allItemsServed,
		Items:          make([]OrderItem, len(items)),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	for i, item := range items {
		resp.Items[i] = NewOrderItem(item)
	}
	return resp
}

func NewOrderItem(i database.ListOrderItemsByOrderRow) OrderItem {
	return OrderItem{
		ID:           i.ID,
		MenuItemID:   i.MenuItemID,
		MenuItemName: i.MenuItemName,
		Quantity:     i.Quantity,
		UnitPrice:    NumericToString(i.UnitPrice),
		LineTotal:    NumericToString(i.LineTotal),
		Status:       i.Status,
		Notes:        textPtr(i.Notes),
		PreparedBy:   uuidPtr(i.PreparedBy),
		PreparedAt:   timePtr(i.PreparedAt),
		ServedBy:     uuidPtr(i.ServedBy),
		ServedAt:     timePtr(i.ServedAt),
	}
}

func NewBill(b database.Bill) Bill {
	resp := Bill{
		ID:            b.ID,
		BillNumber:    b.BillNumber,
		OrderID:       b.OrderID,
		TableID:       b.TableID,
		Subtotal:      NumericToString(b.Subtotal),
		Tax:           NumericToString(b.Tax),
		Discount:      NumericToString(b.Discount),
		TotalAmount:   NumericToString(b.TotalAmount),
		Status:        b.Status,
		IsPaid:        b.IsPaid,
		PaymentMethod: textPtr(b.PaymentMethod),
		CashierID:     uuidPtr(b.CashierID),
		PaidAt:        timePtr(b.PaidAt),
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.PaidAmount.Valid {
		s := NumericToString(b.PaidAmount)
		resp.PaidAmount = &s
	}
	if b.ChangeAmount.Valid {
		s := NumericToString(b.ChangeAmount)
		resp.ChangeAmount = &s
	}
	return resp
}

func NewUser(u database.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     textPtr(u.Phone),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NumericToString renders a money column with two decimals.
func NumericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func uuidPtr(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
