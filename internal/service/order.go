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
	maxOrderNumberRetries = 3
	orderNumberConstraint = "orders_order_number_key"
	orderSequenceScope    = "order"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// orderReader is the subset of queries needed to assemble an OrderDetail.
type orderReader interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
}

// OrderStore defines the DB methods needed by the order lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	orderReader
	NextSequenceValue(ctx context.Context, arg database.NextSequenceValueParams) (int32, error)
	GetTableByNumber(ctx context.Context, number int32) (database.DiningTable, error)
	OccupyTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListActiveOrders(ctx context.Context) ([]database.Order, error)
	ListOrdersByTable(ctx context.Context, arg database.ListOrdersByTableParams) ([]database.Order, error)
	CountActiveOrdersForTable(ctx context.Context, tableID uuid.UUID) (int64, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	UpdateOrderItemStatus(ctx context.Context, arg database.UpdateOrderItemStatusParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) (int64, error)
	SumActiveOrderItems(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error)
	CountActiveOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	TableNumber int32
	OrderType   string
	Notes       string
	CustomerID  uuid.UUID
	WaiterID    uuid.UUID
	Items       []OrderItemRequest
}

// OrderItemRequest is a single line of a new order or an addition.
type OrderItemRequest struct {
	MenuItemID string
	Quantity   int32
	Notes      string
}

// UpdateItemStatusRequest moves one item along the kitchen flow.
type UpdateItemStatusRequest struct {
	OrderID uuid.UUID
	ItemID  uuid.UUID
	Status  string
	ActorID uuid.UUID
}

// ListOrdersFilter narrows ListOrders.
type ListOrdersFilter struct {
	Status     string
	ActiveOnly bool
	Limit      int32
	Offset     int32
}

// OrderDetail is an order with its items and the derived served flag.
type OrderDetail struct {
	Order          database.Order
	TableNumber    int32
	Items          []database.ListOrderItemsByOrderRow
	AllItemsServed bool
}

// View renders the detail as its JSON view.
func (d *OrderDetail) View() dto.Order {
	return dto.NewOrder(d.Order, d.TableNumber, d.Items, d.AllItemsServed)
}

// ItemStatusResult is returned by UpdateItemStatus. OrderCancelled is set
// when the item was the last active one and the order was cancelled with it.
type ItemStatusResult struct {
	Order          *OrderDetail
	Item           database.ListOrderItemsByOrderRow
	OrderCancelled bool
}

// DeleteItemResult is returned by DeleteItem. OrderCancelled is set when the
// removed item was the last active one.
type DeleteItemResult struct {
	Order          *OrderDetail
	OrderCancelled bool
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	events   events.Publisher
	taxRate  decimal.Decimal
	now      func() time.Time
}

// NewOrderService creates a new OrderService. taxRate is a percentage.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, publisher events.Publisher, taxRate decimal.Decimal) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{pool: pool, newStore: newStore, events: publisher, taxRate: taxRate, now: time.Now}
}

// preparedItem is a validated order line ready for insertion.
type preparedItem struct {
	menuItemID uuid.UUID
	quantity   int32
	unitPrice  decimal.Decimal
	lineTotal  decimal.Decimal
	notes      pgtype.Text
}

// CreateOrder validates the cart, prices it from the menu and stores the
// order atomically. A dine-in order occupies its table in the same
// transaction. Retries up to maxOrderNumberRetries times on order_number
// unique constraint violations.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error) {
	orderType, err := validateOrderType(req.OrderType)
	if err != nil {
		return nil, err
	}
	if req.TableNumber <= 0 {
		return nil, ErrInvalidTableNumber
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		detail, table, err := s.createOrderTx(ctx, req, orderType)
		if err == nil {
			s.publishOrder(ctx, events.OrderCreated, detail)
			if table != nil {
				s.publishTable(ctx, *table)
			}
			return detail, nil
		}
		if isUniqueViolation(err, orderNumberConstraint) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// createOrderTx executes the full order creation in a single transaction.
// The returned table is non-nil when the order flipped it to occupied.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, orderType string) (*OrderDetail, *database.DiningTable, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTableByNumber(ctx, req.TableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrTableNotFound
		}
		return nil, nil, fmt.Errorf("get table: %w", err)
	}

	items, subtotal, err := s.prepareItems(ctx, store, req.Items)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	seq, err := store.NextSequenceValue(ctx, database.NextSequenceValueParams{
		Scope: orderSequenceScope,
		Day:   dateOf(now),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("next order number: %w", err)
	}

	totals := computeTotals(subtotal, decimal.Zero, s.taxRate)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber: documentNumber("ORD", now, seq),
		TableID:     table.ID,
		CustomerID:  optionalUUID(req.CustomerID),
		WaiterID:    optionalUUID(req.WaiterID),
		Status:      enum.OrderStatusPending,
		OrderType:   orderType,
		Notes:       optionalText(req.Notes),
		Subtotal:    decimalToNumeric(totals.Subtotal),
		Tax:         decimalToNumeric(totals.Tax),
		Discount:    decimalToNumeric(totals.Discount),
		Total:       decimalToNumeric(totals.Total),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}

	if err := insertItems(ctx, store, order.ID, items); err != nil {
		return nil, nil, err
	}

	var occupied *database.DiningTable
	if orderType == enum.OrderTypeDineIn {
		t, err := store.OccupyTable(ctx, table.ID)
		switch {
		case err == nil:
			occupied = &t
		case errors.Is(err, pgx.ErrNoRows):
			// already occupied or being cleaned
		default:
			return nil, nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	detail, err := loadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return detail, occupied, nil
}

// AddItems appends items to an open order and recomputes its totals. The
// order row stays locked for the whole transaction so concurrent additions
// apply one after the other. A ready or served order goes back to preparing.
func (s *OrderService) AddItems(ctx context.Context, orderID uuid.UUID, reqItems []OrderItemRequest) (*OrderDetail, error) {
	if err := validateItems(reqItems); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOpenOrder(ctx, store, orderID)
	if err != nil {
		return nil, err
	}

	items, _, err := s.prepareItems(ctx, store, reqItems)
	if err != nil {
		return nil, err
	}
	if err := insertItems(ctx, store, order.ID, items); err != nil {
		return nil, err
	}

	order, err = s.recomputeTotals(ctx, store, order)
	if err != nil {
		return nil, err
	}

	// New lines go back to the kitchen.
	if order.Status == enum.OrderStatusReady || order.Status == enum.OrderStatusServed {
		order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{ID: order.ID, Status: enum.OrderStatusPreparing})
		if err != nil {
			return nil, fmt.Errorf("reopen order: %w", err)
		}
	}

	detail, err := loadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.publishOrder(ctx, events.OrderUpdated, detail)
	return detail, nil
}

// UpdateItemStatus moves an item along pending -> preparing -> ready -> served
// or cancels it. The actor is stamped on ready (prepared_by) and served
// (served_by). The order status then rolls forward from its items.
func (s *OrderService) UpdateItemStatus(ctx context.Context, req UpdateItemStatusRequest) (*ItemStatusResult, error) {
	if !isValidItemStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOpenOrder(ctx, store, req.OrderID)
	if err != nil {
		return nil, err
	}

	item, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: req.ItemID, OrderID: order.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}

	if !CanTransitionItem(item.Status, req.Status) {
		return nil, transitionError(item.Status, req.Status)
	}

	params := database.UpdateOrderItemStatusParams{ID: item.ID, Status: req.Status}
	stamp := pgtype.Timestamptz{Time: s.now(), Valid: true}
	switch req.Status {
	case enum.OrderItemStatusReady:
		params.PreparedBy = optionalUUID(req.ActorID)
		params.PreparedAt = stamp
	case enum.OrderItemStatusServed:
		params.ServedBy = optionalUUID(req.ActorID)
		params.ServedAt = stamp
	}
	if _, err := store.UpdateOrderItemStatus(ctx, params); err != nil {
		return nil, fmt.Errorf("update order item status: %w", err)
	}

	var (
		cancelled bool
		released  *database.DiningTable
	)
	if req.Status == enum.OrderItemStatusCancelled {
		order, err = s.recomputeTotals(ctx, store, order)
		if err != nil {
			return nil, err
		}
		remaining, err := store.CountActiveOrderItems(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("count order items: %w", err)
		}
		if remaining == 0 {
			cancelled = true
			order, err = store.CancelOrder(ctx, order.ID)
			if err != nil {
				return nil, fmt.Errorf("cancel order: %w", err)
			}
			released, err = releaseTableIfIdle(ctx, store, order)
			if err != nil {
				return nil, err
			}
		}
	}

	detail, err := loadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if next := rolledOrderStatus(order.Status, detail.Items); next != order.Status {
		order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{ID: order.ID, Status: next})
		if err != nil {
			return nil, fmt.Errorf("roll order status: %w", err)
		}
		detail.Order = order
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	result := &ItemStatusResult{Order: detail, OrderCancelled: cancelled}
	for _, it := range detail.Items {
		if it.ID == item.ID {
			result.Item = it
			break
		}
	}

	s.events.Publish(ctx, events.Event{
		Type:        events.ItemStatusChanged,
		TableNumber: detail.TableNumber,
		Payload: events.ItemStatusPayload{
			Order: detail.View(),
			Item:  dto.NewOrderItem(result.Item),
		},
	})
	if cancelled {
		s.publishOrder(ctx, events.OrderCancelled, detail)
	}
	if released != nil {
		s.publishTable(ctx, *released)
	}
	return result, nil
}

// DeleteItem removes an unserved item. Removing the last active item cancels
// the order instead of leaving it empty.
func (s *OrderService) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) (*DeleteItemResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOpenOrder(ctx, store, orderID)
	if err != nil {
		return nil, err
	}

	item, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: itemID, OrderID: order.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	if item.Status == enum.OrderItemStatusServed {
		return nil, ErrItemServed
	}

	if _, err := store.DeleteOrderItem(ctx, database.DeleteOrderItemParams{ID: item.ID, OrderID: order.ID}); err != nil {
		return nil, fmt.Errorf("delete order item: %w", err)
	}

	order, err = s.recomputeTotals(ctx, store, order)
	if err != nil {
		return nil, err
	}

	remaining, err := store.CountActiveOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("count order items: %w", err)
	}

	var released *database.DiningTable
	cancelled := remaining == 0
	if cancelled {
		order, err = store.CancelOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("cancel order: %w", err)
		}
		released, err = releaseTableIfIdle(ctx, store, order)
		if err != nil {
			return nil, err
		}
	}

	detail, err := loadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if cancelled {
		s.publishOrder(ctx, events.OrderCancelled, detail)
	} else {
		s.publishOrder(ctx, events.OrderUpdated, detail)
	}
	if released != nil {
		s.publishTable(ctx, *released)
	}
	return &DeleteItemResult{Order: detail, OrderCancelled: cancelled}, nil
}

// UpdateOrderStatus moves an order forward along
// pending -> confirmed -> preparing -> ready -> served. Cancelling is
// delegated to CancelOrder; completion only happens through settlement.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDetail, error) {
	switch {
	case status == enum.OrderStatusCancelled:
		return s.CancelOrder(ctx, orderID)
	case status == enum.OrderStatusCompleted:
		return nil, ErrCompleteViaSettlement
	case orderStatusRank(status) < 0:
		return nil, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOpenOrder(ctx, store, orderID)
	if err != nil {
		return nil, err
	}
	if orderStatusRank(status) <= orderStatusRank(order.Status) {
		return nil, transitionError(order.Status, status)
	}

	order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{ID: order.ID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	detail, err := loadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.publishOrder(ctx, events.OrderUpdated, detail)
	return detail, nil
}

// CancelOrder cancels an open order and frees its table when nothing else is
// running on it.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOpenOrder(ctx, store, orderID)
	if err != nil {
		return nil, err
	}

	order, err = store.CancelOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	released, err := releaseTableIfIdle(ctx, store, order)
	if err != nil {
		return nil, err
	}

	detail, err := loadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.publishOrder(ctx, events.OrderCancelled, detail)
	if released != nil {
		s.publishTable(ctx, *released)
	}
	return detail, nil
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return loadOrderDetail(ctx, store, order)
}

// ListOrders returns orders newest first, or every open order oldest first
// when filter.ActiveOnly is set.
func (s *OrderService) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]OrderDetail, error) {
	if filter.Status != "" && orderStatusRank(filter.Status) < 0 &&
		filter.Status != enum.OrderStatusCompleted && filter.Status != enum.OrderStatusCancelled {
		return nil, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	var orders []database.Order
	if filter.ActiveOnly {
		orders, err = store.ListActiveOrders(ctx)
	} else {
		orders, err = store.ListOrders(ctx, database.ListOrdersParams{
			Status: optionalText(filter.Status),
			Limit:  filter.Limit,
			Offset: filter.Offset,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return loadOrderDetails(ctx, store, orders)
}

// ListOrdersByTable returns the orders placed against a table number.
func (s *OrderService) ListOrdersByTable(ctx context.Context, tableNumber int32, activeOnly bool) ([]OrderDetail, error) {
	if tableNumber <= 0 {
		return nil, ErrInvalidTableNumber
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTableByNumber(ctx, tableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	orders, err := store.ListOrdersByTable(ctx, database.ListOrdersByTableParams{
		TableID:    table.ID,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders by table: %w", err)
	}
	return loadOrderDetails(ctx, store, orders)
}

// --- Helpers ---

// prepareItems validates each line against the menu and snapshots its price.
func (s *OrderService) prepareItems(ctx context.Context, store OrderStore, reqItems []OrderItemRequest) ([]preparedItem, decimal.Decimal, error) {
	subtotal := decimal.Zero
	items := make([]preparedItem, 0, len(reqItems))

	for i, item := range reqItems {
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
		}

		menuItem, err := store.GetMenuItem(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, decimal.Zero, fmt.Errorf("item[%d]: get menu item: %w", i, err)
		}
		if !menuItem.IsAvailable {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrMenuItemUnavailable)
		}

		unitPrice := numericToDecimal(menuItem.Price)
		lineTotal := unitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		subtotal = subtotal.Add(lineTotal)

		items = append(items, preparedItem{
			menuItemID: menuItemID,
			quantity:   item.Quantity,
			unitPrice:  unitPrice,
			lineTotal:  lineTotal,
			notes:      optionalText(item.Notes),
		})
	}
	return items, subtotal, nil
}

func insertItems(ctx context.Context, store OrderStore, orderID uuid.UUID, items []preparedItem) error {
	for i, it := range items {
		_, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    orderID,
			MenuItemID: it.menuItemID,
			Quantity:   it.quantity,
			UnitPrice:  decimalToNumeric(it.unitPrice),
			LineTotal:  decimalToNumeric(it.lineTotal),
			Notes:      it.notes,
		})
		if err != nil {
			return fmt.Errorf("item[%d]: create order item: %w", i, err)
		}
	}
	return nil
}

// recomputeTotals derives subtotal from the stored non-cancelled items and
// keeps the order's existing discount.
func (s *OrderService) recomputeTotals(ctx context.Context, store OrderStore, order database.Order) (database.Order, error) {
	sum, err := store.SumActiveOrderItems(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("sum order items: %w", err)
	}

	totals := computeTotals(numericToDecimal(sum), numericToDecimal(order.Discount), s.taxRate)
	updated, err := store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:       order.ID,
		Subtotal: decimalToNumeric(totals.Subtotal),
		Tax:      decimalToNumeric(totals.Tax),
		Discount: decimalToNumeric(totals.Discount),
		Total:    decimalToNumeric(totals.Total),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update order totals: %w", err)
	}
	return updated, nil
}

// lockOpenOrder locks the order row and rejects completed or cancelled orders.
func lockOpenOrder(ctx context.Context, store interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
}, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if enum.IsTerminalOrderStatus(order.Status) {
		return database.Order{}, ErrOrderClosed
	}
	return order, nil
}

// tableReleaser is the subset of queries releaseTableIfIdle needs.
type tableReleaser interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	CountActiveOrdersForTable(ctx context.Context, tableID uuid.UUID) (int64, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error)
}

// releaseTableIfIdle sets an occupied table back to available once it has no
// open orders left. Returns the updated table, or nil when nothing changed.
func releaseTableIfIdle(ctx context.Context, store tableReleaser, order database.Order) (*database.DiningTable, error) {
	active, err := store.CountActiveOrdersForTable(ctx, order.TableID)
	if err != nil {
		return nil, fmt.Errorf("count table orders: %w", err)
	}
	if active > 0 {
		return nil, nil
	}

	table, err := store.GetTable(ctx, order.TableID)
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	if table.Status != enum.TableStatusOccupied {
		return nil, nil
	}

	table, err = store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     table.ID,
		Status: enum.TableStatusAvailable,
	})
	if err != nil {
		return nil, fmt.Errorf("release table: %w", err)
	}
	return &table, nil
}

func loadOrderDetail(ctx context.Context, store orderReader, order database.Order) (*OrderDetail, error) {
	table, err := store.GetTable(ctx, order.TableID)
	if err != nil {
		return nil, fmt.Errorf("get order table: %w", err)
	}
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &OrderDetail{
		Order:          order,
		TableNumber:    table.Number,
		Items:          items,
		AllItemsServed: AllItemsServed(items),
	}, nil
}

func loadOrderDetails(ctx context.Context, store orderReader, orders []database.Order) ([]OrderDetail, error) {
	numbers := make(map[uuid.UUID]int32)
	details := make([]OrderDetail, 0, len(orders))
	for _, o := range orders {
		number, ok := numbers[o.TableID]
		if !ok {
			table, err := store.GetTable(ctx, o.TableID)
			if err != nil {
				return nil, fmt.Errorf("get order table: %w", err)
			}
			number = table.Number
			numbers[o.TableID] = number
		}
		items, err := store.ListOrderItemsByOrder(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		details = append(details, OrderDetail{
			Order:          o,
			TableNumber:    number,
			Items:          items,
			AllItemsServed: AllItemsServed(items),
		})
	}
	return details, nil
}

func (s *OrderService) publishOrder(ctx context.Context, typ events.Type, detail *OrderDetail) {
	s.events.Publish(ctx, events.Event{
		Type:        typ,
		TableNumber: detail.TableNumber,
		Payload:     detail.View(),
	})
}

func (s *OrderService) publishTable(ctx context.Context, table database.DiningTable) {
	publishTable(ctx, s.events, table)
}

func publishTable(ctx context.Context, p events.Publisher, table database.DiningTable) {
	p.Publish(ctx, events.Event{
		Type:        events.TableUpdated,
		TableNumber: table.Number,
		Payload:     dto.NewTable(table),
	})
}

func validateOrderType(s string) (string, error) {
	switch s {
	case "":
		return enum.OrderTypeDineIn, nil
	case enum.OrderTypeDineIn, enum.OrderTypeTakeaway, enum.OrderTypeDelivery:
		return s, nil
	}
	return "", ErrInvalidOrderType
}

func validateItems(items []OrderItemRequest) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	for i, item := range items {
		if item.Quantity < 1 {
			return fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	return nil
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func optionalUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}
