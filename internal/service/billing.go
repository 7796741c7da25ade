package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/dto"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/events"
)

const (
	billNumberConstraint = "bills_bill_number_key"
	billSequenceScope    = "bill"

	// refreshOrderLimit bounds the order list sent to clients after a settlement.
	refreshOrderLimit = 200
)

// BillingStore defines the DB methods needed to generate and settle bills.
// Satisfied by *database.Queries (and its WithTx variant).
type BillingStore interface {
	orderReader
	tableReleaser
	NextSequenceValue(ctx context.Context, arg database.NextSequenceValueParams) (int32, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	CompleteOrderPayment(ctx context.Context, arg database.CompleteOrderPaymentParams) (database.Order, error)
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error)
	GetBillForUpdate(ctx context.Context, id uuid.UUID) (database.Bill, error)
	GetBillByOrder(ctx context.Context, orderID uuid.UUID) (database.Bill, error)
	RefreshBill(ctx context.Context, arg database.RefreshBillParams) (database.Bill, error)
	SettleBill(ctx context.Context, arg database.SettleBillParams) (database.Bill, error)
}

// NewBillingStore creates a BillingStore from a DBTX (pool or tx).
type NewBillingStore func(db database.DBTX) BillingStore

// SettleBillRequest is the validated input for settling a bill.
// ExpectedVersion of zero skips the version check.
type SettleBillRequest struct {
	BillID          uuid.UUID
	PaymentMethod   string
	PaidAmount      decimal.Decimal
	CashierID       uuid.UUID
	ExpectedVersion int32
}

// SettleBillResult carries everything that changed in one settlement.
// Orders is the most recent order list, the settled order included.
type SettleBillResult struct {
	Bill   database.Bill
	Order  *OrderDetail
	Table  database.DiningTable
	Orders []OrderDetail
}

// BillingService handles bill generation and settlement.
type BillingService struct {
	pool     TxBeginner
	newStore NewBillingStore
	events   events.Publisher
	now      func() time.Time
}

// NewBillingService creates a new BillingService.
func NewBillingService(pool TxBeginner, newStore NewBillingStore, publisher events.Publisher) *BillingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &BillingService{pool: pool, newStore: newStore, events: publisher, now: time.Now}
}

// GenerateBill creates the bill of an order, or refreshes the draft bill when
// the order's amounts moved since it was generated. A settled bill is
// returned unchanged.
func (s *BillingService) GenerateBill(ctx context.Context, orderID uuid.UUID) (database.Bill, error) {
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		bill, tableNumber, changed, err := s.generateBillTx(ctx, orderID)
		if err == nil {
			if changed {
				s.events.Publish(ctx, events.Event{
					Type:        events.BillUpdated,
					TableNumber: tableNumber,
					Payload:     dto.NewBill(bill),
				})
			}
			return bill, nil
		}
		if isUniqueViolation(err, billNumberConstraint) {
			lastErr = err
			continue
		}
		return database.Bill{}, err
	}
	return database.Bill{}, lastErr
}

func (s *BillingService) generateBillTx(ctx context.Context, orderID uuid.UUID) (database.Bill, int32, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Bill{}, 0, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Bill{}, 0, false, ErrOrderNotFound
		}
		return database.Bill{}, 0, false, fmt.Errorf("get order: %w", err)
	}
	if order.Status == enum.OrderStatusCancelled {
		return database.Bill{}, 0, false, ErrCancelledOrderBill
	}

	table, err := store.GetTable(ctx, order.TableID)
	if err != nil {
		return database.Bill{}, 0, false, fmt.Errorf("get table: %w", err)
	}

	existing, err := store.GetBillByOrder(ctx, order.ID)
	switch {
	case err == nil:
		if existing.Status == enum.BillStatusSettled || sameAmounts(existing, order) {
			if err := tx.Commit(ctx); err != nil {
				return database.Bill{}, 0, false, fmt.Errorf("commit tx: %w", err)
			}
			return existing, table.Number, false, nil
		}
		bill, err := store.RefreshBill(ctx, database.RefreshBillParams{
			ID:          existing.ID,
			Subtotal:    order.Subtotal,
			Tax:         order.Tax,
			Discount:    order.Discount,
			TotalAmount: order.Total,
		})
		if err != nil {
			return database.Bill{}, 0, false, fmt.Errorf("refresh bill: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return database.Bill{}, 0, false, fmt.Errorf("commit tx: %w", err)
		}
		return bill, table.Number, true, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return database.Bill{}, 0, false, fmt.Errorf("get bill by order: %w", err)
	}

	now := s.now()
	seq, err := store.NextSequenceValue(ctx, database.NextSequenceValueParams{
		Scope: billSequenceScope,
		Day:   dateOf(now),
	})
	if err != nil {
		return database.Bill{}, 0, false, fmt.Errorf("next bill number: %w", err)
	}

	bill, err := store.CreateBill(ctx, database.CreateBillParams{
		BillNumber:  documentNumber("BILL", now, seq),
		OrderID:     order.ID,
		TableID:     order.TableID,
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		Discount:    order.Discount,
		TotalAmount: order.Total,
	})
	if err != nil {
		return database.Bill{}, 0, false, fmt.Errorf("create bill: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Bill{}, 0, false, fmt.Errorf("commit tx: %w", err)
	}
	return bill, table.Number, true, nil
}

// SettleBill records payment of a draft bill, completes its order and frees
// the table, all in one transaction. The order row is locked before the bill
// row, the same order GenerateBill uses.
func (s *BillingService) SettleBill(ctx context.Context, req SettleBillRequest) (*SettleBillResult, error) {
	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	if req.PaidAmount.IsNegative() {
		return nil, ErrInvalidPaidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetBill(ctx, req.BillID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}

	order, err := store.GetOrderForUpdate(ctx, current.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	bill, err := store.GetBillForUpdate(ctx, req.BillID)
	if err != nil {
		return nil, fmt.Errorf("lock bill: %w", err)
	}
	if bill.Status == enum.BillStatusSettled || bill.IsPaid {
		return nil, ErrBillSettled
	}
	if req.ExpectedVersion != 0 && req.ExpectedVersion != bill.Version {
		return nil, ErrBillVersion
	}
	if enum.IsTerminalOrderStatus(order.Status) {
		return nil, ErrOrderClosed
	}

	total := numericToDecimal(bill.TotalAmount)
	if !total.Equal(numericToDecimal(order.Total)) {
		return nil, ErrBillStale
	}
	if req.PaidAmount.LessThan(total) {
		return nil, ErrInsufficientPayment
	}

	paidAt := pgtype.Timestamptz{Time: s.now(), Valid: true}
	method := pgtype.Text{String: req.PaymentMethod, Valid: true}

	bill, err = store.SettleBill(ctx, database.SettleBillParams{
		ID:            bill.ID,
		Version:       bill.Version,
		PaymentMethod: method,
		PaidAmount:    decimalToNumeric(req.PaidAmount),
		ChangeAmount:  decimalToNumeric(req.PaidAmount.Sub(total)),
		CashierID:     optionalUUID(req.CashierID),
		PaidAt:        paidAt,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillSettled
		}
		return nil, fmt.Errorf("settle bill: %w", err)
	}

	order, err = store.CompleteOrderPayment(ctx, database.CompleteOrderPaymentParams{
		ID:            order.ID,
		PaymentMethod: method,
		PaidAt:        paidAt,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderClosed
		}
		return nil, fmt.Errorf("complete order: %w", err)
	}

	released, err := releaseTableIfIdle(ctx, store, order)
	if err != nil {
		return nil, err
	}
	var table database.DiningTable
	if released != nil {
		table = *released
	} else if table, err = store.GetTable(ctx, order.TableID); err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}

	settled, err := loadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}
	recent, err := store.ListOrders(ctx, database.ListOrdersParams{Limit: refreshOrderLimit})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	details, err := loadOrderDetails(ctx, store, recent)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	views := make([]dto.Order, len(details))
	for i := range details {
		views[i] = details[i].View()
	}
	s.events.Publish(ctx, events.Event{
		Type:        events.OrderUpdated,
		TableNumber: table.Number,
		Payload:     settled.View(),
	})
	s.events.Publish(ctx, events.Event{
		Type:        events.BillSettled,
		TableNumber: table.Number,
		Payload: events.BillSettledPayload{
			Bill:   dto.NewBill(bill),
			Table:  dto.NewTable(table),
			Orders: views,
		},
	})

	return &SettleBillResult{
		Bill:   bill,
		Order:  settled,
		Table:  table,
		Orders: details,
	}, nil
}

// GetBill returns a bill by id.
func (s *BillingService) GetBill(ctx context.Context, billID uuid.UUID) (database.Bill, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Bill{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	bill, err := s.newStore(tx).GetBill(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Bill{}, ErrBillNotFound
		}
		return database.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return bill, nil
}

func sameAmounts(b database.Bill, o database.Order) bool {
	return numericToDecimal(b.Subtotal).Equal(numericToDecimal(o.Subtotal)) &&
		numericToDecimal(b.Tax).Equal(numericToDecimal(o.Tax)) &&
		numericToDecimal(b.Discount).Equal(numericToDecimal(o.Discount)) &&
		numericToDecimal(b.TotalAmount).Equal(numericToDecimal(o.Total))
}
