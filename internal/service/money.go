package service

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the money breakdown shared by orders and bills.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// computeTotals applies taxRate (a percentage) to subtotal and subtracts
// discount. total == subtotal + tax - discount unless that would be negative,
// in which case the discount is capped so total is zero.
func computeTotals(subtotal, discount, taxRate decimal.Decimal) Totals {
	tax := subtotal.Mul(taxRate).Div(hundred).Round(2)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if ceiling := subtotal.Add(tax); discount.GreaterThan(ceiling) {
		discount = ceiling
	}
	return Totals{
		Subtotal: subtotal.Round(2),
		Tax:      tax,
		Discount: discount.Round(2),
		Total:    subtotal.Add(tax).Sub(discount).Round(2),
	}
}

// documentNumber formats per-day document numbers such as ORD-20260314-0007.
func documentNumber(prefix string, day time.Time, seq int32) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}

func dateOf(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
