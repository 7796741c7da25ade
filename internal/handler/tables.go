package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/dto"
	"github.com/tableside/api/internal/qr"
	"github.com/tableside/api/internal/service"
)

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService; narrow interface for testability.
type TableServicer interface {
	List(ctx context.Context) ([]database.DiningTable, error)
	Get(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	VerifyTable(ctx context.Context, number int32) (database.DiningTable, error)
	Create(ctx context.Context, in service.TableInput) (database.DiningTable, error)
	Update(ctx context.Context, id uuid.UUID, in service.TableInput) (database.DiningTable, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (database.DiningTable, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TableHandler handles dining table endpoints and the QR gateway.
type TableHandler struct {
	svc         TableServicer
	frontendURL string
}

// NewTableHandler creates a new TableHandler. frontendURL is the base of
// the links encoded in table QR codes.
func NewTableHandler(svc TableServicer, frontendURL string) *TableHandler {
	return &TableHandler{svc: svc, frontendURL: frontendURL}
}

// RegisterPublicRoutes registers the endpoints a scanning customer uses.
// Expected to be mounted at /api/tables
func (h *TableHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/verify", h.Verify)
	r.Get("/{number}/qr", h.QR)
}

// RegisterStaffRoutes registers read and status endpoints for floor staff.
func (h *TableHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/status", h.UpdateStatus)
}

// RegisterAdminRoutes registers table management endpoints.
func (h *TableHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/qr/print", h.PrintQR)
}

// --- Request types ---

type verifyTableRequest struct {
	TableNumber int32 `json:"table_number"`
}

type tableRequest struct {
	Number   int32  `json:"number"`
	Capacity int32  `json:"capacity"`
	Floor    int32  `json:"floor"`
	Section  string `json:"section"`
}

func (req tableRequest) input() service.TableInput {
	return service.TableInput{Number: req.Number, Capacity: req.Capacity, Floor: req.Floor, Section: req.Section}
}

type tableStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// List returns every table ordered by number.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, "list tables", err)
		return
	}

	resp := make([]dto.Table, len(tables))
	for i, t := range tables {
		resp[i] = dto.NewTable(t)
	}
	writeData(w, http.StatusOK, resp)
}

// Get returns a single table by ID.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid table ID")
		return
	}

	table, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get table", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewTable(table))
}

// Verify handles POST /api/tables/verify, the check a customer's device runs
// after scanning a table code.
func (h *TableHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyTableRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	table, err := h.svc.VerifyTable(r.Context(), req.TableNumber)
	if err != nil {
		writeServiceError(w, "verify table", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewTable(table))
}

// Create adds a table.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	table, err := h.svc.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, "create table", err)
		return
	}
	writeData(w, http.StatusCreated, dto.NewTable(table))
}

// Update replaces the editable fields of a table.
func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid table ID")
		return
	}

	var req tableRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	table, err := h.svc.Update(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, "update table", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewTable(table))
}

// UpdateStatus handles PUT /api/tables/{id}/status.
func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid table ID")
		return
	}

	var req tableStatusRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	table, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, "update table status", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewTable(table))
}

// Delete removes a table that has never been ordered at.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid table ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, "delete table", err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "table deleted"})
}

// QR handles GET /api/tables/{number}/qr?size=&download=&url=. Success is a
// PNG; every failure is a JSON envelope.
func (h *TableHandler) QR(w http.ResponseWriter, r *http.Request) {
	number, ok := tableNumberParam(r, "number")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid table number")
		return
	}

	if _, err := h.svc.VerifyTable(r.Context(), number); err != nil {
		writeServiceError(w, "table qr", err)
		return
	}

	size, err := sizeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid size")
		return
	}

	png, err := qr.PNG(qr.TableURL(h.frontendURL, number, r.URL.Query().Get("url")), size)
	if err != nil {
		writeInternal(w, "render table qr", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	setNoCache(w)
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="table-%d-qr.png"`, number))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(png) //nolint:errcheck
}

// PrintQR handles GET /api/tables/qr/print?size=&url=, an HTML sheet with
// one code per table. url replaces the frontend base for every table.
func (h *TableHandler) PrintQR(w http.ResponseWriter, r *http.Request) {
	size, err := sizeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid size")
		return
	}

	base := h.frontendURL
	if override := r.URL.Query().Get("url"); override != "" {
		base = override
	}

	tables, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, "list tables", err)
		return
	}

	entries := make([]qr.Entry, len(tables))
	for i, t := range tables {
		entries[i] = qr.Entry{TableNumber: t.Number, Capacity: t.Capacity, URL: qr.TableURL(base, t.Number, "")}
	}

	var buf bytes.Buffer
	if err := qr.WritePrintPage(&buf, entries, size); err != nil {
		writeInternal(w, "render qr print page", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	setNoCache(w)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func sizeParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("size")
	if v == "" {
		return qr.DefaultSize, nil
	}
	return strconv.Atoi(v)
}

func setNoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
