// Package events carries domain events from the order and billing services
// to their subscribers (the websocket fan-out and the broker relay).
package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tableside/api/internal/dto"
)

type Type string

const (
	OrderCreated      Type = "order.created"
	OrderUpdated      Type = "order.updated"
	OrderCancelled    Type = "order.cancelled"
	ItemStatusChanged Type = "order.item_status_changed"
	BillUpdated       Type = "bill.updated"
	BillSettled       Type = "bill.settled"
	TableUpdated      Type = "table.updated"
)

// Event is one committed domain change. TableNumber is zero when the event
// is not tied to a table.
type Event struct {
	Type        Type        `json:"type"`
	TableNumber int32       `json:"table_number,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Payload     interface{} `json:"payload"`
}

// ItemStatusPayload is the payload of ItemStatusChanged.
type ItemStatusPayload struct {
	Order dto.Order     `json:"order"`
	Item  dto.OrderItem `json:"item"`
}

// BillSettledPayload is the payload of BillSettled.
type BillSettledPayload struct {
	Bill   dto.Bill    `json:"bill"`
	Table  dto.Table   `json:"table"`
	Orders []dto.Order `json:"orders"`
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type Handler func(ctx context.Context, e Event)

// Bus delivers each published event to every subscriber synchronously, in
// subscription order. A panicking subscriber is logged and skipped.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(ctx, h, e)
	}
}

func deliver(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("event", e.Type).Errorf("event handler panic: %v", r)
		}
	}()
	h(ctx, e)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
