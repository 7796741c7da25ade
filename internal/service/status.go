package service

import (
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
)

// itemTransitions lists the legal item moves. Anything absent is rejected.
var itemTransitions = map[string][]string{
	enum.OrderItemStatusPending:   {enum.OrderItemStatusPreparing, enum.OrderItemStatusCancelled},
	enum.OrderItemStatusPreparing: {enum.OrderItemStatusReady, enum.OrderItemStatusCancelled},
	enum.OrderItemStatusReady:     {enum.OrderItemStatusServed, enum.OrderItemStatusCancelled},
}

// CanTransitionItem reports whether an item may move from one status to another.
func CanTransitionItem(from, to string) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isValidItemStatus(s string) bool {
	switch s {
	case enum.OrderItemStatusPending, enum.OrderItemStatusPreparing, enum.OrderItemStatusReady,
		enum.OrderItemStatusServed, enum.OrderItemStatusCancelled:
		return true
	}
	return false
}

// orderStatusRank orders the non-terminal order statuses; -1 for anything else.
func orderStatusRank(s string) int {
	switch s {
	case enum.OrderStatusPending:
		return 0
	case enum.OrderStatusConfirmed:
		return 1
	case enum.OrderStatusPreparing:
		return 2
	case enum.OrderStatusReady:
		return 3
	case enum.OrderStatusServed:
		return 4
	}
	return -1
}

// AllItemsServed is true when every non-cancelled item is served. An order
// without active items is never "all served".
func AllItemsServed(items []database.ListOrderItemsByOrderRow) bool {
	active := 0
	for _, it := range items {
		switch it.Status {
		case enum.OrderItemStatusCancelled:
			continue
		case enum.OrderItemStatusServed:
			active++
		default:
			return false
		}
	}
	return active > 0
}

// rolledOrderStatus derives the order status implied by its items, never
// moving it backwards.
func rolledOrderStatus(current string, items []database.ListOrderItemsByOrderRow) string {
	if orderStatusRank(current) < 0 {
		return current
	}

	var active, started, readyOrServed, served int
	for _, it := range items {
		switch it.Status {
		case enum.OrderItemStatusCancelled:
			continue
		case enum.OrderItemStatusPreparing:
			started++
		case enum.OrderItemStatusReady:
			started++
			readyOrServed++
		case enum.OrderItemStatusServed:
			started++
			readyOrServed++
			served++
		}
		active++
	}

	implied := current
	switch {
	case active == 0:
		return current
	case served == active:
		implied = enum.OrderStatusServed
	case readyOrServed == active:
		implied = enum.OrderStatusReady
	case started > 0:
		implied = enum.OrderStatusPreparing
	}

	if orderStatusRank(implied) > orderStatusRank(current) {
		return implied
	}
	return current
}
