package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/dto"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserStore defines the database methods needed by user handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	ListUsers(ctx context.Context) ([]database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	UpdateUser(ctx context.Context, arg database.UpdateUserParams) (database.User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// UserHandler handles staff account management.
type UserHandler struct {
	store UserStore
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// RegisterRoutes registers user CRUD endpoints on the given Chi router.
// Expected to be mounted at /api/users behind the admin role.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request types ---

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type updateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"is_active"`
}

// validateUserFields normalises and checks the shared fields. It returns a
// message for the client, or "" when valid.
func validateUserFields(name, email *string, role string) string {
	*name = strings.TrimSpace(*name)
	*email = strings.ToLower(strings.TrimSpace(*email))
	if *name == "" || *email == "" || role == "" {
		return "name, email, and role are required"
	}
	if !strings.Contains(*email, "@") {
		return "invalid email format"
	}
	if !enum.IsValidRole(role) {
		return "invalid role"
	}
	return ""
}

// --- Handlers ---

// List returns every staff account.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeInternal(w, "list users", err)
		return
	}

	resp := make([]dto.User, len(users))
	for i, u := range users {
		resp[i] = dto.NewUser(u)
	}
	writeData(w, http.StatusOK, resp)
}

// Create adds a staff account with a bcrypt-hashed password.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateUserFields(&req.Name, &req.Email, req.Role); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeInternal(w, "create user: hash password", err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: string(hashed),
		Role:           req.Role,
		Phone:          optionalText(req.Phone),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		writeInternal(w, "create user", err)
		return
	}
	writeData(w, http.StatusCreated, dto.NewUser(user))
}

// Update modifies a staff account. is_active keeps its value when omitted.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var req updateUserRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateUserFields(&req.Name, &req.Email, req.Role); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	current, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeInternal(w, "get user", err)
		return
	}

	active := current.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user, err := h.store.UpdateUser(r.Context(), database.UpdateUserParams{
		ID:       id,
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Phone:    optionalText(req.Phone),
		IsActive: active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		writeInternal(w, "update user", err)
		return
	}
	writeData(w, http.StatusOK, dto.NewUser(user))
}

// Delete deactivates a staff account. Accounts are never removed because
// orders and bills reference them.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil && claims.UserID == id {
		writeError(w, http.StatusBadRequest, "cannot deactivate your own account")
		return
	}

	if _, err := h.store.DeactivateUser(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeInternal(w, "deactivate user", err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}
