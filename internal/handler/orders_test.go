package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/handler"
	"github.com/tableside/api/internal/middleware"
	"github.com/tableside/api/internal/service"
)

// --- Mock service ---

type mockOrderService struct {
	createFn            func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	addItemsFn          func(ctx context.Context, orderID uuid.UUID, items []service.OrderItemRequest) (*service.OrderDetail, error)
	updateItemStatusFn  func(ctx context.Context, req service.UpdateItemStatusRequest) (*service.ItemStatusResult, error)
	deleteItemFn        func(ctx context.Context, orderID, itemID uuid.UUID) (*service.DeleteItemResult, error)
	updateOrderStatusFn func(ctx context.Context, orderID uuid.UUID, status string) (*service.OrderDetail, error)
	cancelFn            func(ctx context.Context, orderID uuid.UUID) (*service.OrderDetail, error)
	getFn               func(ctx context.Context, orderID uuid.UUID) (*service.OrderDetail, error)
	listFn              func(ctx context.Context, filter service.ListOrdersFilter) ([]service.OrderDetail, error)
	listByTableFn       func(ctx context.Context, tableNumber int32, activeOnly bool) ([]service.OrderDetail, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error) {
	return m.createFn(ctx, req)
}

func (m *mockOrderService) AddItems(ctx context.Context, orderID uuid.UUID, items []service.OrderItemRequest) (*service.OrderDetail, error) {
	return m.addItemsFn(ctx, orderID, items)
}

func (m *mockOrderService) UpdateItemStatus(ctx context.Context, req service.UpdateItemStatusRequest) (*service.ItemStatusResult, error) {
	return m.updateItemStatusFn(ctx, req)
}

func (m *mockOrderService) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) (*service.DeleteItemResult, error) {
	return m.deleteItemFn(ctx, orderID, itemID)
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*service.OrderDetail, error) {
	return m.updateOrderStatusFn(ctx, orderID, status)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (*service.OrderDetail, error) {
	return m.cancelFn(ctx, orderID)
}

func (m *mockOrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*service.OrderDetail, error) {
	return m.getFn(ctx, orderID)
}

func (m *mockOrderService) ListOrders(ctx context.Context, filter service.ListOrdersFilter) ([]service.OrderDetail, error) {
	return m.listFn(ctx, filter)
}

func (m *mockOrderService) ListOrdersByTable(ctx context.Context, tableNumber int32, activeOnly bool) ([]service.OrderDetail, error) {
	return m.listByTableFn(ctx, tableNumber, activeOnly)
}

// setupOrderRouter mounts the public routes behind optional auth and the
// staff routes behind authentication, the way the server does.
func setupOrderRouter(svc handler.OrderServicer) *chi.Mux {
	h := handler.NewOrderHandler(svc)
	r := chi.NewRouter()
	r.Route("/orders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(testJWTSecret))
			h.RegisterPublicRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(testJWTSecret))
			h.RegisterStaffRoutes(r)
		})
	})
	return r
}

func testOrderDetail(status string, items ...database.ListOrderItemsByOrderRow) *service.OrderDetail {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	allServed := len(items) > 0
	for _, it := range items {
		if it.Status != enum.OrderItemStatusServed && it.Status != enum.OrderItemStatusCancelled {
			allServed = false
		}
	}
	return &service.OrderDetail{
		Order: database.Order{
			ID:          uuid.New(),
			OrderNumber: "ORD-20260314-0001",
			TableID:     uuid.New(),
			Status:      status,
			OrderType:   enum.OrderTypeDineIn,
			Subtotal:    testNumeric("200.00"),
			Tax:         testNumeric("10.00"),
			Discount:    testNumeric("0"),
			Total:       testNumeric("210.00"),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		TableNumber:    7,
		Items:          items,
		AllItemsServed: allServed,
	}
}

func testOrderItem(status string) database.ListOrderItemsByOrderRow {
	return database.ListOrderItemsByOrderRow{
		ID:           uuid.New(),
		MenuItemID:   uuid.New(),
		Quantity:     2,
		UnitPrice:    testNumeric("100.00"),
		LineTotal:    testNumeric("200.00"),
		Status:       status,
		MenuItemName: "Paneer Tikka",
	}
}

// --- Create ---

func TestCreateOrder_Anonymous(t *testing.T) {
	var got service.CreateOrderRequest
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error) {
			got = req
			return testOrderDetail(enum.OrderStatusPending, testOrderItem(enum.OrderItemStatusPending)), nil
		},
	}
	router := setupOrderRouter(svc)

	menuID := uuid.New().String()
	body := map[string]interface{}{
		"table_number": 7,
		"notes":        "no onions",
		"items": []map[string]interface{}{
			{"menu_item_id": menuID, "quantity": 2, "notes": "spicy"},
		},
	}
	rr := doRequest(t, router, "POST", "/orders/", body, nil)
	expectStatus(t, rr, http.StatusCreated)

	if got.TableNumber != 7 || got.Notes != "no onions" {
		t.Errorf("request: got %+v", got)
	}
	if got.WaiterID != uuid.Nil {
		t.Errorf("waiter: got %v, want nil", got.WaiterID)
	}
	if len(got.Items) != 1 || got.Items[0].MenuItemID != menuID || got.Items[0].Quantity != 2 || got.Items[0].Notes != "spicy" {
		t.Errorf("items: got %+v", got.Items)
	}

	data := decodeData(t, rr)
	if data["table_number"] != float64(7) {
		t.Errorf("table_number: got %v, want 7", data["table_number"])
	}
	if data["total"] != "210.00" {
		t.Errorf("total: got %v, want 210.00", data["total"])
	}
	items, ok := data["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("items: got %v", data["items"])
	}
}

func TestCreateOrder_WaiterFromToken(t *testing.T) {
	claims := staffClaims(enum.UserRoleWaiter)
	var got service.CreateOrderRequest
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error) {
			got = req
			return testOrderDetail(enum.OrderStatusPending), nil
		},
	}
	router := setupOrderRouter(svc)

	body := map[string]interface{}{
		"table_number": 7,
		"items":        []map[string]interface{}{{"menu_item_id": uuid.New().String(), "quantity": 1}},
	}
	rr := doRequest(t, router, "POST", "/orders/", body, claims)
	expectStatus(t, rr, http.StatusCreated)

	if got.WaiterID != claims.UserID {
		t.Errorf("waiter: got %v, want %v", got.WaiterID, claims.UserID)
	}
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]interface{}
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"bad customer id", map[string]interface{}{"table_number": 1, "customer_id": "x"}, nil, http.StatusBadRequest, "invalid customer_id"},
		{"no items", map[string]interface{}{"table_number": 1}, service.ErrEmptyItems, http.StatusBadRequest, "items are required"},
		{"unknown table", map[string]interface{}{"table_number": 99}, service.ErrTableNotFound, http.StatusNotFound, "table not found"},
		{"unavailable item", map[string]interface{}{"table_number": 1}, service.ErrMenuItemUnavailable, http.StatusBadRequest, "menu item is not available"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error) {
					return nil, tc.err
				},
			}
			router := setupOrderRouter(svc)

			rr := doRequest(t, router, "POST", "/orders/", tc.body, nil)
			expectError(t, rr, tc.wantStatus, tc.wantMsg)
		})
	}
}

// --- Add items ---

func TestAddItems(t *testing.T) {
	orderID := uuid.New()
	svc := &mockOrderService{
		addItemsFn: func(ctx context.Context, id uuid.UUID, items []service.OrderItemRequest) (*service.OrderDetail, error) {
			if id != orderID {
				t.Errorf("order id: got %v, want %v", id, orderID)
			}
			if len(items) != 2 {
				t.Errorf("items: got %d, want 2", len(items))
			}
			return testOrderDetail(enum.OrderStatusPreparing), nil
		},
	}
	router := setupOrderRouter(svc)

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.New().String(), "quantity": 1},
			{"menu_item_id": uuid.New().String(), "quantity": 3},
		},
	}
	rr := doRequest(t, router, "POST", "/orders/"+orderID.String()+"/items", body, nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestAddItems_ClosedOrder(t *testing.T) {
	svc := &mockOrderService{
		addItemsFn: func(ctx context.Context, id uuid.UUID, items []service.OrderItemRequest) (*service.OrderDetail, error) {
			return nil, service.ErrOrderClosed
		},
	}
	router := setupOrderRouter(svc)

	body := map[string]interface{}{"items": []map[string]interface{}{{"menu_item_id": uuid.New().String(), "quantity": 1}}}
	rr := doRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/items", body, nil)
	expectError(t, rr, http.StatusConflict, "order is already completed or cancelled")
}

// --- List ---

func TestListByTable(t *testing.T) {
	tests := []struct {
		query      string
		wantActive bool
	}{
		{"", true},
		{"?all=true", false},
	}

	for _, tc := range tests {
		t.Run("query"+tc.query, func(t *testing.T) {
			svc := &mockOrderService{
				listByTableFn: func(ctx context.Context, number int32, activeOnly bool) ([]service.OrderDetail, error) {
					if number != 7 {
						t.Errorf("table: got %d, want 7", number)
					}
					if activeOnly != tc.wantActive {
						t.Errorf("activeOnly: got %v, want %v", activeOnly, tc.wantActive)
					}
					return []service.OrderDetail{*testOrderDetail(enum.OrderStatusPending)}, nil
				},
			}
			router := setupOrderRouter(svc)

			rr := doRequest(t, router, "GET", "/orders/table/7"+tc.query, nil, nil)
			expectStatus(t, rr, http.StatusOK)
			if list := decodeList(t, rr); len(list) != 1 {
				t.Errorf("len: got %d, want 1", len(list))
			}
		})
	}
}

func TestListByTable_InvalidNumber(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	rr := doRequest(t, router, "GET", "/orders/table/-1", nil, nil)
	expectError(t, rr, http.StatusBadRequest, "invalid table number")
}

func TestListOrders_RequiresAuth(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	rr := doRequest(t, router, "GET", "/orders/", nil, nil)
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestListOrders_Filter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  service.ListOrdersFilter
	}{
		{"defaults", "", service.ListOrdersFilter{Limit: 50}},
		{"status and paging", "?status=ready&limit=10&offset=20", service.ListOrdersFilter{Status: "ready", Limit: 10, Offset: 20}},
		{"active", "?active=true", service.ListOrdersFilter{ActiveOnly: true, Limit: 50}},
		{"limit capped", "?limit=1000", service.ListOrdersFilter{Limit: 200}},
		{"garbage ignored", "?limit=x&offset=-5", service.ListOrdersFilter{Limit: 50}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got service.ListOrdersFilter
			svc := &mockOrderService{
				listFn: func(ctx context.Context, filter service.ListOrdersFilter) ([]service.OrderDetail, error) {
					got = filter
					return nil, nil
				},
			}
			router := setupOrderRouter(svc)

			rr := doRequest(t, router, "GET", "/orders/"+tc.query, nil, staffClaims(enum.UserRoleKitchen))
			expectStatus(t, rr, http.StatusOK)
			if got != tc.want {
				t.Errorf("filter: got %+v, want %+v", got, tc.want)
			}
		})
	}
}

// --- Get ---

func TestGetOrder_NotFound(t *testing.T) {
	svc := &mockOrderService{
		getFn: func(ctx context.Context, id uuid.UUID) (*service.OrderDetail, error) {
			return nil, service.ErrOrderNotFound
		},
	}
	router := setupOrderRouter(svc)

	rr := doRequest(t, router, "GET", "/orders/"+uuid.New().String(), nil, staffClaims(enum.UserRoleWaiter))
	expectError(t, rr, http.StatusNotFound, "order not found")
}

func TestGetOrder_InvalidID(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	rr := doRequest(t, router, "GET", "/orders/nope", nil, staffClaims(enum.UserRoleWaiter))
	expectError(t, rr, http.StatusBadRequest, "invalid order ID")
}

// --- Status ---

func TestUpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		err        error
		wantStatus int
	}{
		{"confirm", enum.OrderStatusConfirmed, nil, http.StatusOK},
		{"complete is rejected", enum.OrderStatusCompleted, service.ErrCompleteViaSettlement, http.StatusConflict},
		{"unknown status", "eaten", service.ErrInvalidStatus, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				updateOrderStatusFn: func(ctx context.Context, id uuid.UUID, status string) (*service.OrderDetail, error) {
					if tc.err != nil {
						return nil, tc.err
					}
					return testOrderDetail(status), nil
				},
			}
			router := setupOrderRouter(svc)

			rr := doRequest(t, router, "PUT", "/orders/"+uuid.New().String()+"/status", map[string]string{"status": tc.status}, staffClaims(enum.UserRoleWaiter))
			expectStatus(t, rr, tc.wantStatus)
		})
	}
}

func TestCancelOrder(t *testing.T) {
	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, id uuid.UUID) (*service.OrderDetail, error) {
			return testOrderDetail(enum.OrderStatusCancelled), nil
		},
	}
	router := setupOrderRouter(svc)

	rr := doRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/cancel", nil, staffClaims(enum.UserRoleWaiter))
	expectStatus(t, rr, http.StatusOK)
	if data := decodeData(t, rr); data["status"] != enum.OrderStatusCancelled {
		t.Errorf("status: got %v, want cancelled", data["status"])
	}
}

// --- Item status ---

func TestUpdateItemStatus_RecordsActor(t *testing.T) {
	claims := staffClaims(enum.UserRoleKitchen)
	orderID, itemID := uuid.New(), uuid.New()
	var got service.UpdateItemStatusRequest
	svc := &mockOrderService{
		updateItemStatusFn: func(ctx context.Context, req service.UpdateItemStatusRequest) (*service.ItemStatusResult, error) {
			got = req
			item := testOrderItem(req.Status)
			item.ID = req.ItemID
			return &service.ItemStatusResult{Order: testOrderDetail(enum.OrderStatusPreparing, item), Item: item}, nil
		},
	}
	router := setupOrderRouter(svc)

	path := "/orders/" + orderID.String() + "/items/" + itemID.String() + "/status"
	rr := doRequest(t, router, "PUT", path, map[string]string{"status": enum.OrderItemStatusPreparing}, claims)
	expectStatus(t, rr, http.StatusOK)

	want := service.UpdateItemStatusRequest{OrderID: orderID, ItemID: itemID, Status: enum.OrderItemStatusPreparing, ActorID: claims.UserID}
	if got != want {
		t.Errorf("request: got %+v, want %+v", got, want)
	}

	data := decodeData(t, rr)
	item, ok := data["item"].(map[string]interface{})
	if !ok {
		t.Fatalf("item: got %v", data["item"])
	}
	if item["id"] != itemID.String() || item["status"] != enum.OrderItemStatusPreparing {
		t.Errorf("item: got %v", item)
	}
	if _, ok := data["order"].(map[string]interface{}); !ok {
		t.Errorf("order: got %v", data["order"])
	}
}

func TestUpdateItemStatus_CancelLastItem(t *testing.T) {
	svc := &mockOrderService{
		updateItemStatusFn: func(ctx context.Context, req service.UpdateItemStatusRequest) (*service.ItemStatusResult, error) {
			item := testOrderItem(enum.OrderItemStatusCancelled)
			item.ID = req.ItemID
			return &service.ItemStatusResult{
				Order:          testOrderDetail(enum.OrderStatusCancelled, item),
				Item:           item,
				OrderCancelled: true,
			}, nil
		},
	}
	router := setupOrderRouter(svc)

	path := "/orders/" + uuid.New().String() + "/items/" + uuid.New().String() + "/status"
	rr := doRequest(t, router, "PUT", path, map[string]string{"status": enum.OrderItemStatusCancelled}, staffClaims(enum.UserRoleWaiter))
	expectStatus(t, rr, http.StatusOK)

	data := decodeData(t, rr)
	if data["order_cancelled"] != true {
		t.Errorf("order_cancelled: got %v, want true", data["order_cancelled"])
	}
	if order := data["order"].(map[string]interface{}); order["status"] != enum.OrderStatusCancelled {
		t.Errorf("order status: got %v, want cancelled", order["status"])
	}
}

func TestUpdateItemStatus_InvalidTransition(t *testing.T) {
	svc := &mockOrderService{
		updateItemStatusFn: func(ctx context.Context, req service.UpdateItemStatusRequest) (*service.ItemStatusResult, error) {
			return nil, service.ErrInvalidTransition
		},
	}
	router := setupOrderRouter(svc)

	path := "/orders/" + uuid.New().String() + "/items/" + uuid.New().String() + "/status"
	rr := doRequest(t, router, "PUT", path, map[string]string{"status": enum.OrderItemStatusPending}, staffClaims(enum.UserRoleKitchen))
	expectStatus(t, rr, http.StatusConflict)
}

func TestUpdateItemStatus_InvalidItemID(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	path := "/orders/" + uuid.New().String() + "/items/bad/status"
	rr := doRequest(t, router, "PUT", path, map[string]string{"status": "ready"}, staffClaims(enum.UserRoleKitchen))
	expectError(t, rr, http.StatusBadRequest, "invalid item ID")
}

// --- Delete item ---

func TestDeleteItem_LastItemCancelsOrder(t *testing.T) {
	svc := &mockOrderService{
		deleteItemFn: func(ctx context.Context, orderID, itemID uuid.UUID) (*service.DeleteItemResult, error) {
			return &service.DeleteItemResult{Order: testOrderDetail(enum.OrderStatusCancelled), OrderCancelled: true}, nil
		},
	}
	router := setupOrderRouter(svc)

	path := "/orders/" + uuid.New().String() + "/items/" + uuid.New().String()
	rr := doRequest(t, router, "DELETE", path, nil, staffClaims(enum.UserRoleWaiter))
	expectStatus(t, rr, http.StatusOK)

	data := decodeData(t, rr)
	if data["order_cancelled"] != true {
		t.Errorf("order_cancelled: got %v, want true", data["order_cancelled"])
	}
}

func TestDeleteItem_Served(t *testing.T) {
	svc := &mockOrderService{
		deleteItemFn: func(ctx context.Context, orderID, itemID uuid.UUID) (*service.DeleteItemResult, error) {
			return nil, service.ErrItemServed
		},
	}
	router := setupOrderRouter(svc)

	path := "/orders/" + uuid.New().String() + "/items/" + uuid.New().String()
	rr := doRequest(t, router, "DELETE", path, nil, staffClaims(enum.UserRoleWaiter))
	expectError(t, rr, http.StatusConflict, "served items cannot be removed")
}
