package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/api/internal/dto"
	"github.com/tableside/api/internal/middleware"
	"github.com/tableside/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	AddItems(ctx context.Context, orderID uuid.UUID, items []service.OrderItemRequest) (*service.OrderDetail, error)
	UpdateItemStatus(ctx context.Context, req service.UpdateItemStatusRequest) (*service.ItemStatusResult, error)
	DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) (*service.DeleteItemResult, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*service.OrderDetail, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, filter service.ListOrdersFilter) ([]service.OrderDetail, error)
	ListOrdersByTable(ctx context.Context, tableNumber int32, activeOnly bool) ([]service.OrderDetail, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterPublicRoutes registers the endpoints customers reach from a table
// session. Staff tokens are honoured when present.
// Expected to be mounted at /api/orders
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Post("/{orderID}/items", h.AddItems)
	r.Get("/table/{tableNumber}", h.ListByTable)
}

// RegisterStaffRoutes registers the floor and kitchen endpoints.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{orderID}", h.Get)
	r.Put("/{orderID}/status", h.UpdateStatus)
	r.Post("/{orderID}/cancel", h.Cancel)
	r.Put("/{orderID}/items/{itemID}/status", h.UpdateItemStatus)
	r.Delete("/{orderID}/items/{itemID}", h.DeleteItem)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableNumber int32              `json:"table_number"`
	OrderType   string             `json:"order_type"`
	Notes       string             `json:"notes"`
	CustomerID  string             `json:"customer_id"`
	Items       []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	Notes      string `json:"notes"`
}

type addItemsRequest struct {
	Items []orderItemRequest `json:"items"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type itemStatusResponse struct {
	Order          dto.Order     `json:"order"`
	Item           dto.OrderItem `json:"item"`
	OrderCancelled bool          `json:"order_cancelled"`
}

type deleteItemResponse struct {
	Order          dto.Order `json:"order"`
	OrderCancelled bool      `json:"order_cancelled"`
}

func toItemRequests(items []orderItemRequest) []service.OrderItemRequest {
	out := make([]service.OrderItemRequest, len(items))
	for i, item := range items {
		out[i] = service.OrderItemRequest{MenuItemID: item.MenuItemID, Quantity: item.Quantity, Notes: item.Notes}
	}
	return out
}

func orderViews(details []service.OrderDetail) []dto.Order {
	views := make([]dto.Order, len(details))
	for i := range details {
		views[i] = details[i].View()
	}
	return views
}

// --- Handlers ---

// Create handles POST /api/orders. A staff token records the waiter.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var customerID uuid.UUID
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		customerID = id
	}

	var waiterID uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		waiterID = claims.UserID
	}

	detail, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableNumber: req.TableNumber,
		OrderType:   req.OrderType,
		Notes:       req.Notes,
		CustomerID:  customerID,
		WaiterID:    waiterID,
		Items:       toItemRequests(req.Items),
	})
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}
	writeData(w, http.StatusCreated, detail.View())
}

// AddItems handles POST /api/orders/{orderID}/items.
func (h *OrderHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(r, "orderID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req addItemsRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.svc.AddItems(r.Context(), orderID, toItemRequests(req.Items))
	if err != nil {
		writeServiceError(w, "add order items", err)
		return
	}
	writeData(w, http.StatusOK, detail.View())
}

// ListByTable handles GET /api/orders/table/{tableNumber}. Only open orders
// are returned unless all=true.
func (h *OrderHandler) ListByTable(w http.ResponseWriter, r *http.Request) {
	number, ok := tableNumberParam(r, "tableNumber")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid table number")
		return
	}

	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	details, err := h.svc.ListOrdersByTable(r.Context(), number, !all)
	if err != nil {
		writeServiceError(w, "list orders by table", err)
		return
	}
	writeData(w, http.StatusOK, orderViews(details))
}

// List handles GET /api/orders?status=&active=&limit=&offset=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Parse pagination
	limit := 50
	if s := q.Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 200 {
		limit = 200
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	active, _ := strconv.ParseBool(q.Get("active"))
	details, err := h.svc.ListOrders(r.Context(), service.ListOrdersFilter{
		Status:     q.Get("status"),
		ActiveOnly: active,
		Limit:      int32(limit),
		Offset:     int32(offset),
	})
	if err != nil {
		writeServiceError(w, "list orders", err)
		return
	}
	writeData(w, http.StatusOK, orderViews(details))
}

// Get handles GET /api/orders/{orderID}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(r, "orderID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "get order", err)
		return
	}
	writeData(w, http.StatusOK, detail.View())
}

// UpdateStatus handles PUT /api/orders/{orderID}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(r, "orderID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req statusRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.svc.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeServiceError(w, "update order status", err)
		return
	}
	writeData(w, http.StatusOK, detail.View())
}

// Cancel handles POST /api/orders/{orderID}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(r, "orderID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	detail, err := h.svc.CancelOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "cancel order", err)
		return
	}
	writeData(w, http.StatusOK, detail.View())
}

// UpdateItemStatus handles PUT /api/orders/{orderID}/items/{itemID}/status.
func (h *OrderHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(r, "orderID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	itemID, ok := uuidParam(r, "itemID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	var req statusRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var actorID uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		actorID = claims.UserID
	}

	result, err := h.svc.UpdateItemStatus(r.Context(), service.UpdateItemStatusRequest{
		OrderID: orderID,
		ItemID:  itemID,
		Status:  req.Status,
		ActorID: actorID,
	})
	if err != nil {
		writeServiceError(w, "update item status", err)
		return
	}
	writeData(w, http.StatusOK, itemStatusResponse{
		Order:          result.Order.View(),
		Item:           dto.NewOrderItem(result.Item),
		OrderCancelled: result.OrderCancelled,
	})
}

// DeleteItem handles DELETE /api/orders/{orderID}/items/{itemID}.
func (h *OrderHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(r, "orderID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	itemID, ok := uuidParam(r, "itemID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	result, err := h.svc.DeleteItem(r.Context(), orderID, itemID)
	if err != nil {
		writeServiceError(w, "delete order item", err)
		return
	}
	writeData(w, http.StatusOK, deleteItemResponse{
		Order:          result.Order.View(),
		OrderCancelled: result.OrderCancelled,
	})
}
