package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Every error returned by this package that is not an internal
// failure wraps exactly one of them.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Error is a concrete service error of a given kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Errors returned by the services.
var (
	ErrTableNotFound     = newError(ErrNotFound, "table not found")
	ErrMenuItemNotFound  = newError(ErrNotFound, "menu item not found")
	ErrOrderNotFound     = newError(ErrNotFound, "order not found")
	ErrOrderItemNotFound = newError(ErrNotFound, "order item not found")
	ErrBillNotFound      = newError(ErrNotFound, "bill not found")

	ErrEmptyItems           = newError(ErrValidation, "items are required")
	ErrInvalidQuantity      = newError(ErrValidation, "quantity must be at least 1")
	ErrInvalidOrderType     = newError(ErrValidation, "invalid order_type")
	ErrInvalidTableNumber   = newError(ErrValidation, "table_number must be a positive integer")
	ErrInvalidMenuItemID    = newError(ErrValidation, "invalid menu_item_id")
	ErrMenuItemUnavailable  = newError(ErrValidation, "menu item is not available")
	ErrInvalidStatus        = newError(ErrValidation, "invalid status")
	ErrInvalidPaymentMethod = newError(ErrValidation, "invalid payment_method")
	ErrInvalidPaidAmount    = newError(ErrValidation, "paid_amount must not be negative")
	ErrInsufficientPayment  = newError(ErrValidation, "paid_amount is less than the bill total")
	ErrInvalidCapacity      = newError(ErrValidation, "capacity must be a positive integer")

	ErrOrderClosed        = newError(ErrConflict, "order is already completed or cancelled")
	ErrItemServed         = newError(ErrConflict, "served items cannot be removed")
	ErrBillSettled        = newError(ErrConflict, "bill is already settled")
	ErrBillVersion        = newError(ErrConflict, "bill was changed by someone else, reload and retry")
	ErrBillStale          = newError(ErrConflict, "order changed since the bill was generated, regenerate the bill")
	ErrCancelledOrderBill = newError(ErrConflict, "cannot bill a cancelled order")
	ErrTableNumberTaken   = newError(ErrConflict, "table number already exists")
	ErrTableInUse         = newError(ErrConflict, "table has orders and cannot be deleted")

	ErrCompleteViaSettlement = newError(ErrInvalidTransition, "orders are completed by settling their bill")
)

func transitionError(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// isUniqueViolation reports a Postgres unique constraint violation, optionally
// restricted to one constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
