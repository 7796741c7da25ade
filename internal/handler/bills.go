package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/dto"
	"github.com/tableside/api/internal/middleware"
	"github.com/tableside/api/internal/service"
)

// BillingServicer defines the service methods needed by bill handlers.
// Satisfied by *service.BillingService.
type BillingServicer interface {
	GenerateBill(ctx context.Context, orderID uuid.UUID) (database.Bill, error)
	SettleBill(ctx context.Context, req service.SettleBillRequest) (*service.SettleBillResult, error)
	GetBill(ctx context.Context, billID uuid.UUID) (database.Bill, error)
}

// BillHandler handles bill generation and settlement.
type BillHandler struct {
	svc BillingServicer
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(svc BillingServicer) *BillHandler {
	return &BillHandler{svc: svc}
}

// RegisterRoutes registers bill endpoints on the given Chi router.
// Expected to be mounted at /api/bills
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Post("/generate/{orderID}", h.Generate)
	r.Get("/{billID}", h.Get)
	r.Post("/{billID}/settle", h.Settle)
}

// --- Request / Response types ---

type settleBillRequest struct {
	PaymentMethod string `json:"payment_method"`
	PaidAmount    string `json:"paid_amount"`
	Version       int32  `json:"version"`
}

type settleBillResponse struct {
	Bill  dto.Bill  `json:"bill"`
	Order dto.Order `json:"order"`
	Table dto.Table `json:"table"`
}

// --- Handlers ---

// Generate handles POST /api/bills/generate/{orderID}.
func (h *BillHandler) Generate(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(r, "orderID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	bill, err := h.svc.GenerateBill(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "generate bill", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewBill(bill))
}

// Get handles GET /api/bills/{billID}.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	billID, ok := uuidParam(r, "billID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid bill ID")
		return
	}

	bill, err := h.svc.GetBill(r.Context(), billID)
	if err != nil {
		writeServiceError(w, "get bill", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewBill(bill))
}

// Settle handles POST /api/bills/{billID}/settle. version is optional; when
// sent it must match the bill the cashier is looking at.
func (h *BillHandler) Settle(w http.ResponseWriter, r *http.Request) {
	billID, ok := uuidParam(r, "billID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid bill ID")
		return
	}

	var req settleBillRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PaidAmount == "" {
		writeError(w, http.StatusBadRequest, "paid_amount is required")
		return
	}
	paid, err := decimal.NewFromString(req.PaidAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid paid_amount")
		return
	}

	var cashierID uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		cashierID = claims.UserID
	}

	result, err := h.svc.SettleBill(r.Context(), service.SettleBillRequest{
		BillID:          billID,
		PaymentMethod:   req.PaymentMethod,
		PaidAmount:      paid,
		CashierID:       cashierID,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		writeServiceError(w, "settle bill", err)
		return
	}

	writeData(w, http.StatusOK, settleBillResponse{
		Bill:  dto.NewBill(result.Bill),
		Order: result.Order.View(),
		Table: dto.NewTable(result.Table),
	})
}
