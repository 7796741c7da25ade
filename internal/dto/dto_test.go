package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tableside/api/internal/database"
)

func numeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(s)
	return n
}

func TestNumericToString(t *testing.T) {
	assert.Equal(t, "0.00", NumericToString(pgtype.Numeric{}))
	assert.Equal(t, "550.00", NumericToString(numeric("550")))
	assert.Equal(t, "12.50", NumericToString(numeric("12.5")))
}

func TestNewOrder(t *testing.T) {
	waiter := uuid.New()
	order := database.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-20260101-0001",
		TableID:     uuid.New(),
		WaiterID:    pgtype.UUID{Bytes: waiter, Valid: true},
		Status:      "pending",
		OrderType:   "dine-in",
		Subtotal:    numeric("450"),
		Tax:         numeric("45"),
		Discount:    numeric("0"),
		Total:       numeric("495"),
	}
	items := []database.ListOrderItemsByOrderRow{{
		ID:           uuid.New(),
		MenuItemID:   uuid.New(),
		MenuItemName: "Paneer Tikka",
		Quantity:     2,
		UnitPrice:    numeric("100"),
		LineTotal:    numeric("200"),
		Status:       "pending",
	}}

	got := NewOrder(order, 7, items, false)

	assert.Equal(t, int32(7), got.TableNumber)
	assert.Equal(t, "495.00", got.Total)
	require.NotNil(t, got.WaiterID)
	assert.Equal(t, waiter.String(), *got.WaiterID)
	assert.Nil(t, got.CustomerID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "100.00", got.Items[0].UnitPrice)
	assert.Equal(t, "Paneer Tikka", got.Items[0].MenuItemName)
}

func TestNewOrder_NilItemsEncodesEmptyList(t *testing.T) {
	got := NewOrder(database.Order{ID: uuid.New()}, 1, nil, false)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"items":[]`)
}

func TestNewBill_OptionalAmounts(t *testing.T) {
	draft := NewBill(database.Bill{ID: uuid.New(), Status: "draft", TotalAmount: numeric("550")})
	assert.Nil(t, draft.PaidAmount)
	assert.Nil(t, draft.ChangeAmount)
	assert.Nil(t, draft.PaidAt)

	paidAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	settled := NewBill(database.Bill{
		ID:           uuid.New(),
		Status:       "settled",
		IsPaid:       true,
		TotalAmount:  numeric("550"),
		PaidAmount:   numeric("600"),
		ChangeAmount: numeric("50"),
		PaidAt:       pgtype.Timestamptz{Time: paidAt, Valid: true},
	})
	require.NotNil(t, settled.ChangeAmount)
	assert.Equal(t, "50.00", *settled.ChangeAmount)
	assert.Equal(t, paidAt, *settled.PaidAt)
}
