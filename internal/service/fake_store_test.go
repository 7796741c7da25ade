package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/events"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits++
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// eventRecorder implements events.Publisher.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Publish(ctx context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// memStore is an in-memory stand-in for *database.Queries that satisfies
// OrderStore, BillingStore and TableStore. errs fails a method every time;
// failOnce fails it on the next call only.
type memStore struct {
	tables   map[uuid.UUID]database.DiningTable
	menu     map[uuid.UUID]database.MenuItem
	orders   map[uuid.UUID]database.Order
	items    []database.OrderItem
	bills    map[uuid.UUID]database.Bill
	seq      map[string]int32
	errs     map[string]error
	failOnce map[string]error
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		tables:   map[uuid.UUID]database.DiningTable{},
		menu:     map[uuid.UUID]database.MenuItem{},
		orders:   map[uuid.UUID]database.Order{},
		bills:    map[uuid.UUID]database.Bill{},
		seq:      map[string]int32{},
		errs:     map[string]error{},
		failOnce: map[string]error{},
		clock:    time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) fail(name string) error {
	if err, ok := m.failOnce[name]; ok {
		delete(m.failOnce, name)
		return err
	}
	return m.errs[name]
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// --- seeding helpers ---

func (m *memStore) addTable(number int32, status string) database.DiningTable {
	t := database.DiningTable{ID: uuid.New(), Number: number, Capacity: 4, Status: status, Floor: 1, CreatedAt: m.tick()}
	t.UpdatedAt = t.CreatedAt
	m.tables[t.ID] = t
	return t
}

func (m *memStore) addMenuItem(name, price string, available bool) database.MenuItem {
	mi := database.MenuItem{
		ID:          uuid.New(),
		Name:        name,
		Category:    "mains",
		Price:       makeNumeric(price),
		IsAvailable: available,
		CreatedAt:   m.tick(),
	}
	m.menu[mi.ID] = mi
	return mi
}

func (m *memStore) itemsOf(orderID uuid.UUID) []database.OrderItem {
	var out []database.OrderItem
	for _, it := range m.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

// --- sequence ---

func (m *memStore) NextSequenceValue(ctx context.Context, arg database.NextSequenceValueParams) (int32, error) {
	if err := m.fail("NextSequenceValue"); err != nil {
		return 0, err
	}
	key := arg.Scope + arg.Day.Time.Format("2006-01-02")
	m.seq[key]++
	return m.seq[key], nil
}

// --- tables ---

func (m *memStore) CreateTable(ctx context.Context, arg database.CreateTableParams) (database.DiningTable, error) {
	if err := m.fail("CreateTable"); err != nil {
		return database.DiningTable{}, err
	}
	for _, t := range m.tables {
		if t.Number == arg.Number {
			return database.DiningTable{}, &pgconn.PgError{Code: "23505", ConstraintName: "dining_tables_number_key"}
		}
	}
	t := database.DiningTable{
		ID: uuid.New(), Number: arg.Number, Capacity: arg.Capacity, Status: arg.Status,
		Floor: arg.Floor, Section: arg.Section, CreatedAt: m.tick(),
	}
	t.UpdatedAt = t.CreatedAt
	m.tables[t.ID] = t
	return t, nil
}

func (m *memStore) GetTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error) {
	if err := m.fail("GetTable"); err != nil {
		return database.DiningTable{}, err
	}
	t, ok := m.tables[id]
	if !ok {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memStore) GetTableByNumber(ctx context.Context, number int32) (database.DiningTable, error) {
	if err := m.fail("GetTableByNumber"); err != nil {
		return database.DiningTable{}, err
	}
	for _, t := range m.tables {
		if t.Number == number {
			return t, nil
		}
	}
	return database.DiningTable{}, pgx.ErrNoRows
}

func (m *memStore) ListTables(ctx context.Context) ([]database.DiningTable, error) {
	if err := m.fail("ListTables"); err != nil {
		return nil, err
	}
	out := make([]database.DiningTable, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *memStore) UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.DiningTable, error) {
	if err := m.fail("UpdateTable"); err != nil {
		return database.DiningTable{}, err
	}
	t, ok := m.tables[arg.ID]
	if !ok {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	t.Number, t.Capacity, t.Floor, t.Section, t.UpdatedAt = arg.Number, arg.Capacity, arg.Floor, arg.Section, m.tick()
	m.tables[t.ID] = t
	return t, nil
}

func (m *memStore) UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error) {
	if err := m.fail("UpdateTableStatus"); err != nil {
		return database.DiningTable{}, err
	}
	t, ok := m.tables[arg.ID]
	if !ok {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	t.Status, t.UpdatedAt = arg.Status, m.tick()
	m.tables[t.ID] = t
	return t, nil
}

func (m *memStore) OccupyTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error) {
	if err := m.fail("OccupyTable"); err != nil {
		return database.DiningTable{}, err
	}
	t, ok := m.tables[id]
	if !ok || (t.Status != enum.TableStatusAvailable && t.Status != enum.TableStatusReserved) {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	t.Status, t.UpdatedAt = enum.TableStatusOccupied, m.tick()
	m.tables[id] = t
	return t, nil
}

func (m *memStore) DeleteTable(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := m.fail("DeleteTable"); err != nil {
		return 0, err
	}
	if _, ok := m.tables[id]; !ok {
		return 0, nil
	}
	for _, o := range m.orders {
		if o.TableID == id {
			return 0, &pgconn.PgError{Code: "23503"}
		}
	}
	delete(m.tables, id)
	return 1, nil
}

// --- menu ---

func (m *memStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	if err := m.fail("GetMenuItem"); err != nil {
		return database.MenuItem{}, err
	}
	mi, ok := m.menu[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return mi, nil
}

// --- orders ---

func (m *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := m.fail("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	o := database.Order{
		ID: uuid.New(), OrderNumber: arg.OrderNumber, TableID: arg.TableID, CustomerID: arg.CustomerID,
		WaiterID: arg.WaiterID, Status: arg.Status, OrderType: arg.OrderType, Notes: arg.Notes,
		Subtotal: arg.Subtotal, Tax: arg.Tax, Discount: arg.Discount, Total: arg.Total, CreatedAt: m.tick(),
	}
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.fail("GetOrder"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.fail("GetOrderForUpdate"); err != nil {
		return database.Order{}, err
	}
	return m.GetOrder(ctx, id)
}

func (m *memStore) sortedOrders(keep func(database.Order) bool, newestFirst bool) []database.Order {
	var out []database.Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *memStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	if err := m.fail("ListOrders"); err != nil {
		return nil, err
	}
	out := m.sortedOrders(func(o database.Order) bool {
		return !arg.Status.Valid || o.Status == arg.Status.String
	}, true)
	if int(arg.Offset) >= len(out) {
		return []database.Order{}, nil
	}
	out = out[arg.Offset:]
	if arg.Limit > 0 && int(arg.Limit) < len(out) {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (m *memStore) ListActiveOrders(ctx context.Context) ([]database.Order, error) {
	if err := m.fail("ListActiveOrders"); err != nil {
		return nil, err
	}
	return m.sortedOrders(func(o database.Order) bool { return !enum.IsTerminalOrderStatus(o.Status) }, false), nil
}

func (m *memStore) ListOrdersByTable(ctx context.Context, arg database.ListOrdersByTableParams) ([]database.Order, error) {
	if err := m.fail("ListOrdersByTable"); err != nil {
		return nil, err
	}
	return m.sortedOrders(func(o database.Order) bool {
		return o.TableID == arg.TableID && (!arg.ActiveOnly || !enum.IsTerminalOrderStatus(o.Status))
	}, true), nil
}

func (m *memStore) CountActiveOrdersForTable(ctx context.Context, tableID uuid.UUID) (int64, error) {
	if err := m.fail("CountActiveOrdersForTable"); err != nil {
		return 0, err
	}
	var n int64
	for _, o := range m.orders {
		if o.TableID == tableID && !enum.IsTerminalOrderStatus(o.Status) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error) {
	if err := m.fail("UpdateOrderTotals"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Subtotal, o.Tax, o.Discount, o.Total, o.UpdatedAt = arg.Subtotal, arg.Tax, arg.Discount, arg.Total, m.tick()
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) updateOpenOrder(id uuid.UUID, mutate func(*database.Order)) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok || enum.IsTerminalOrderStatus(o.Status) {
		return database.Order{}, pgx.ErrNoRows
	}
	mutate(&o)
	o.UpdatedAt = m.tick()
	m.orders[id] = o
	return o, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	if err := m.fail("UpdateOrderStatus"); err != nil {
		return database.Order{}, err
	}
	return m.updateOpenOrder(arg.ID, func(o *database.Order) { o.Status = arg.Status })
}

func (m *memStore) CompleteOrderPayment(ctx context.Context, arg database.CompleteOrderPaymentParams) (database.Order, error) {
	if err := m.fail("CompleteOrderPayment"); err != nil {
		return database.Order{}, err
	}
	return m.updateOpenOrder(arg.ID, func(o *database.Order) {
		o.Status = enum.OrderStatusCompleted
		o.IsPaid = true
		o.PaymentMethod = arg.PaymentMethod
		o.PaidAt = arg.PaidAt
	})
}

func (m *memStore) CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.fail("CancelOrder"); err != nil {
		return database.Order{}, err
	}
	return m.updateOpenOrder(id, func(o *database.Order) { o.Status = enum.OrderStatusCancelled })
}

// --- order items ---

func (m *memStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	if err := m.fail("CreateOrderItem"); err != nil {
		return database.OrderItem{}, err
	}
	it := database.OrderItem{
		ID: uuid.New(), OrderID: arg.OrderID, MenuItemID: arg.MenuItemID, Quantity: arg.Quantity,
		UnitPrice: arg.UnitPrice, LineTotal: arg.LineTotal, Status: enum.OrderItemStatusPending,
		Notes: arg.Notes, CreatedAt: m.tick(),
	}
	it.UpdatedAt = it.CreatedAt
	m.items = append(m.items, it)
	return it, nil
}

func (m *memStore) GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error) {
	if err := m.fail("GetOrderItem"); err != nil {
		return database.OrderItem{}, err
	}
	for _, it := range m.items {
		if it.ID == arg.ID && it.OrderID == arg.OrderID {
			return it, nil
		}
	}
	return database.OrderItem{}, pgx.ErrNoRows
}

func (m *memStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error) {
	if err := m.fail("ListOrderItemsByOrder"); err != nil {
		return nil, err
	}
	out := []database.ListOrderItemsByOrderRow{}
	for _, it := range m.itemsOf(orderID) {
		out = append(out, database.ListOrderItemsByOrderRow{
			ID: it.ID, OrderID: it.OrderID, MenuItemID: it.MenuItemID, Quantity: it.Quantity,
			UnitPrice: it.UnitPrice, LineTotal: it.LineTotal, Status: it.Status, Notes: it.Notes,
			PreparedBy: it.PreparedBy, PreparedAt: it.PreparedAt, ServedBy: it.ServedBy, ServedAt: it.ServedAt,
			CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt, MenuItemName: m.menu[it.MenuItemID].Name,
		})
	}
	return out, nil
}

func (m *memStore) UpdateOrderItemStatus(ctx context.Context, arg database.UpdateOrderItemStatusParams) (database.OrderItem, error) {
	if err := m.fail("UpdateOrderItemStatus"); err != nil {
		return database.OrderItem{}, err
	}
	for i, it := range m.items {
		if it.ID != arg.ID {
			continue
		}
		it.Status = arg.Status
		if arg.PreparedBy.Valid {
			it.PreparedBy = arg.PreparedBy
		}
		if arg.PreparedAt.Valid {
			it.PreparedAt = arg.PreparedAt
		}
		if arg.ServedBy.Valid {
			it.ServedBy = arg.ServedBy
		}
		if arg.ServedAt.Valid {
			it.ServedAt = arg.ServedAt
		}
		it.UpdatedAt = m.tick()
		m.items[i] = it
		return it, nil
	}
	return database.OrderItem{}, pgx.ErrNoRows
}

func (m *memStore) DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) (int64, error) {
	if err := m.fail("DeleteOrderItem"); err != nil {
		return 0, err
	}
	for i, it := range m.items {
		if it.ID == arg.ID && it.OrderID == arg.OrderID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) SumActiveOrderItems(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error) {
	if err := m.fail("SumActiveOrderItems"); err != nil {
		return pgtype.Numeric{}, err
	}
	sum := decimal.Zero
	for _, it := range m.itemsOf(orderID) {
		if it.Status != enum.OrderItemStatusCancelled {
			sum = sum.Add(numericToDecimal(it.LineTotal))
		}
	}
	return decimalToNumeric(sum), nil
}

func (m *memStore) CountActiveOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	if err := m.fail("CountActiveOrderItems"); err != nil {
		return 0, err
	}
	var n int64
	for _, it := range m.itemsOf(orderID) {
		if it.Status != enum.OrderItemStatusCancelled {
			n++
		}
	}
	return n, nil
}

// --- bills ---

func (m *memStore) CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
	if err := m.fail("CreateBill"); err != nil {
		return database.Bill{}, err
	}
	for _, b := range m.bills {
		if b.OrderID == arg.OrderID {
			return database.Bill{}, &pgconn.PgError{Code: "23505", ConstraintName: "bills_order_id_key"}
		}
	}
	b := database.Bill{
		ID: uuid.New(), BillNumber: arg.BillNumber, OrderID: arg.OrderID, TableID: arg.TableID,
		Subtotal: arg.Subtotal, Tax: arg.Tax, Discount: arg.Discount, TotalAmount: arg.TotalAmount,
		Status: enum.BillStatusDraft, Version: 1, CreatedAt: m.tick(),
	}
	b.UpdatedAt = b.CreatedAt
	m.bills[b.ID] = b
	return b, nil
}

func (m *memStore) GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error) {
	if err := m.fail("GetBill"); err != nil {
		return database.Bill{}, err
	}
	b, ok := m.bills[id]
	if !ok {
		return database.Bill{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *memStore) GetBillForUpdate(ctx context.Context, id uuid.UUID) (database.Bill, error) {
	if err := m.fail("GetBillForUpdate"); err != nil {
		return database.Bill{}, err
	}
	return m.GetBill(ctx, id)
}

func (m *memStore) GetBillByOrder(ctx context.Context, orderID uuid.UUID) (database.Bill, error) {
	if err := m.fail("GetBillByOrder"); err != nil {
		return database.Bill{}, err
	}
	for _, b := range m.bills {
		if b.OrderID == orderID {
			return b, nil
		}
	}
	return database.Bill{}, pgx.ErrNoRows
}

func (m *memStore) RefreshBill(ctx context.Context, arg database.RefreshBillParams) (database.Bill, error) {
	if err := m.fail("RefreshBill"); err != nil {
		return database.Bill{}, err
	}
	b, ok := m.bills[arg.ID]
	if !ok || b.Status != enum.BillStatusDraft {
		return database.Bill{}, pgx.ErrNoRows
	}
	b.Subtotal, b.Tax, b.Discount, b.TotalAmount = arg.Subtotal, arg.Tax, arg.Discount, arg.TotalAmount
	b.Version++
	b.UpdatedAt = m.tick()
	m.bills[b.ID] = b
	return b, nil
}

func (m *memStore) SettleBill(ctx context.Context, arg database.SettleBillParams) (database.Bill, error) {
	if err := m.fail("SettleBill"); err != nil {
		return database.Bill{}, err
	}
	b, ok := m.bills[arg.ID]
	if !ok || b.Status != enum.BillStatusDraft || b.Version != arg.Version {
		return database.Bill{}, pgx.ErrNoRows
	}
	b.Status = enum.BillStatusSettled
	b.IsPaid = true
	b.PaymentMethod = arg.PaymentMethod
	b.PaidAmount = arg.PaidAmount
	b.ChangeAmount = arg.ChangeAmount
	b.CashierID = arg.CashierID
	b.PaidAt = arg.PaidAt
	b.Version++
	b.UpdatedAt = m.tick()
	m.bills[b.ID] = b
	return b, nil
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

var fixedNow = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

// testEnv wires both services to one memStore.
type testEnv struct {
	store   *memStore
	tx      *mockTx
	events  *eventRecorder
	orders  *OrderService
	billing *BillingService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	rec := &eventRecorder{}

	orders := NewOrderService(pool, func(db database.DBTX) OrderStore { return store }, rec, decimal.NewFromInt(10))
	orders.now = func() time.Time { return fixedNow }
	billing := NewBillingService(pool, func(db database.DBTX) BillingStore { return store }, rec)
	billing.now = func() time.Time { return fixedNow }

	return &testEnv{store: store, tx: tx, events: rec, orders: orders, billing: billing}
}

// placeOrder creates a dine-in order on table number with the given lines
// and fails the test on error.
func (e *testEnv) placeOrder(t *testing.T, number int32, lines ...OrderItemRequest) *OrderDetail {
	t.Helper()
	detail, err := e.orders.CreateOrder(context.Background(), CreateOrderRequest{
		TableNumber: number,
		Items:       lines,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return detail
}

func line(mi database.MenuItem, qty int32) OrderItemRequest {
	return OrderItemRequest{MenuItemID: mi.ID.String(), Quantity: qty}
}

// assertTotalsInvariant checks total == subtotal + tax - discount.
func assertTotalsInvariant(t *testing.T, o database.Order) {
	t.Helper()
	want := numericToDecimal(o.Subtotal).Add(numericToDecimal(o.Tax)).Sub(numericToDecimal(o.Discount))
	if !numericToDecimal(o.Total).Equal(want) {
		t.Errorf("total invariant: total=%s, subtotal+tax-discount=%s",
			numericToDecimal(o.Total), want)
	}
}
