package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	OrderItemStatusPending   = "pending"
	OrderItemStatusPreparing = "preparing"
	OrderItemStatusReady     = "ready"
	OrderItemStatusServed    = "served"
	OrderItemStatusCancelled = "cancelled"
)

const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusReserved  = "reserved"
	TableStatusCleaning  = "cleaning"
)

const (
	BillStatusDraft   = "draft"
	BillStatusSettled = "settled"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "admin"
	UserRoleWaiter  = "waiter"
	UserRoleKitchen = "kitchen"
	UserRoleCashier = "cashier"
)

const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeTakeaway = "takeaway"
	OrderTypeDelivery = "delivery"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodUPI    = "upi"
	PaymentMethodOnline = "online"
)

// IsTerminalOrderStatus reports whether no further changes are allowed.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func IsValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusCleaning:
		return true
	}
	return false
}

func IsValidRole(s string) bool {
	switch s {
	case UserRoleAdmin, UserRoleWaiter, UserRoleKitchen, UserRoleCashier:
		return true
	}
	return false
}

func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodOnline:
		return true
	}
	return false
}
