package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/dto"
	"github.com/tableside/api/internal/storage"
)

// maxImageSize bounds menu image uploads.
const maxImageSize = 5 << 20

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
	SetMenuItemImage(ctx context.Context, arg database.SetMenuItemImageParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error)
	CountOrderItemsByMenuItem(ctx context.Context, menuItemID uuid.UUID) (int64, error)
}

// MenuHandler handles menu endpoints.
type MenuHandler struct {
	store MenuStore
	files storage.Store
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, files storage.Store) *MenuHandler {
	return &MenuHandler{store: store, files: files}
}

// RegisterPublicRoutes registers the customer menu.
// Expected to be mounted at /api/menu
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterAdminRoutes registers menu management endpoints.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/all", h.ListAll)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/availability", h.SetAvailability)
	r.Post("/{id}/image", h.UploadImage)
	r.Delete("/{id}", h.Delete)
}

// --- Request types ---

type menuItemRequest struct {
	Name            string `json:"name"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	Price           string `json:"price"`
	IsVeg           bool   `json:"is_veg"`
	IsAvailable     *bool  `json:"is_available"`
	PreparationTime int32  `json:"preparation_time"`
}

type availabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

// --- Helpers ---

var errNegativePrice = errors.New("negative price")

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// validate checks the request and returns the parsed price, or a message
// for the client.
func (req *menuItemRequest) validate() (pgtype.Numeric, string) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" {
		return pgtype.Numeric{}, "name is required"
	}
	if req.Category == "" {
		return pgtype.Numeric{}, "category is required"
	}
	if req.Price == "" {
		return pgtype.Numeric{}, "price is required"
	}
	if req.PreparationTime < 0 {
		return pgtype.Numeric{}, "preparation_time must be >= 0"
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			return pgtype.Numeric{}, "price must be >= 0"
		}
		return pgtype.Numeric{}, "invalid price"
	}
	return price, ""
}

func toMenuViews(items []database.MenuItem) []dto.MenuItem {
	resp := make([]dto.MenuItem, len(items))
	for i, m := range items {
		resp[i] = dto.NewMenuItem(m)
	}
	return resp
}

func categoryParam(r *http.Request) pgtype.Text {
	if c := r.URL.Query().Get("category"); c != "" {
		return pgtype.Text{String: c, Valid: true}
	}
	return pgtype.Text{}
}

// --- Handlers ---

// List returns available menu items, optionally filtered by ?category=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context(), database.ListMenuItemsParams{
		AvailableOnly: true,
		Category:      categoryParam(r),
	})
	if err != nil {
		writeInternal(w, "list menu", err)
		return
	}
	writeData(w, http.StatusOK, toMenuViews(items))
}

// ListAll returns every menu item including unavailable ones.
func (h *MenuHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context(), database.ListMenuItemsParams{
		Category: categoryParam(r),
	})
	if err != nil {
		writeInternal(w, "list menu", err)
		return
	}
	writeData(w, http.StatusOK, toMenuViews(items))
}

// Get returns a single menu item.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternal(w, "get menu item", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewMenuItem(item))
}

// Create adds a menu item. Items are available unless is_available=false.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:            req.Name,
		Category:        req.Category,
		Description:     optionalText(req.Description),
		Price:           price,
		IsVeg:           req.IsVeg,
		IsAvailable:     available,
		PreparationTime: req.PreparationTime,
	})
	if err != nil {
		writeInternal(w, "create menu item", err)
		return
	}
	writeData(w, http.StatusCreated, dto.NewMenuItem(item))
}

// Update replaces the editable fields of a menu item. Prices already on
// orders keep their snapshot.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	var req menuItemRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:              id,
		Name:            req.Name,
		Category:        req.Category,
		Description:     optionalText(req.Description),
		Price:           price,
		IsVeg:           req.IsVeg,
		PreparationTime: req.PreparationTime,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternal(w, "update menu item", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewMenuItem(item))
}

// SetAvailability handles PATCH /api/menu/{id}/availability.
func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	var req availabilityRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.SetMenuItemAvailability(r.Context(), database.SetMenuItemAvailabilityParams{
		ID:          id,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternal(w, "set menu availability", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewMenuItem(item))
}

// UploadImage handles POST /api/menu/{id}/image as multipart form field
// "image".
func (h *MenuHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	if _, err := h.store.GetMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternal(w, "get menu item", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<10)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "image must be a multipart upload under 5MB")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := storage.ImageExtension(contentType)
	if !ok {
		writeError(w, http.StatusBadRequest, "image must be jpeg, png, webp or gif")
		return
	}

	url, err := h.files.Save(r.Context(), storage.ObjectName("menu", ext), file, header.Size, contentType)
	if err != nil {
		writeInternal(w, "store menu image", err)
		return
	}

	item, err := h.store.SetMenuItemImage(r.Context(), database.SetMenuItemImageParams{
		ID:       id,
		ImageUrl: pgtype.Text{String: url, Valid: true},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternal(w, "set menu image", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewMenuItem(item))
}

// Delete removes a menu item that no order references. Items with order
// history must be marked unavailable instead.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	used, err := h.store.CountOrderItemsByMenuItem(r.Context(), id)
	if err != nil {
		writeInternal(w, "count menu item usage", err)
		return
	}
	if used > 0 {
		writeError(w, http.StatusConflict, "menu item has order history, mark it unavailable instead")
		return
	}

	n, err := h.store.DeleteMenuItem(r.Context(), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "menu item has order history, mark it unavailable instead")
			return
		}
		writeInternal(w, "delete menu item", err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "menu item deleted"})
}

func optionalText(s string) pgtype.Text {
	if s = strings.TrimSpace(s); s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
