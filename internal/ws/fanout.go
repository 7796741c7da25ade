package ws

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/events"
)

// Broadcaster is the part of Hub the fan-out needs.
type Broadcaster interface {
	Broadcast(room, event string, data interface{})
}

// Fanout turns committed domain events into websocket frames. Subscribe the
// returned handler to the event bus.
func Fanout(b Broadcaster) events.Handler {
	kitchen := RoleRoom(enum.UserRoleKitchen)

	return func(ctx context.Context, e events.Event) {
		switch e.Type {
		case events.OrderCreated:
			b.Broadcast("", EventNewOrder, e.Payload)
			b.Broadcast(kitchen, EventNewOrder, e.Payload)

		case events.OrderUpdated:
			orderChanged(b, e, EventOrderUpdated, kitchen)

		case events.ItemStatusChanged:
			orderChanged(b, e, EventItemStatusUpdated, kitchen)

		case events.OrderCancelled:
			b.Broadcast("", EventOrderCancelled, e.Payload)

		case events.BillUpdated:
			b.Broadcast("", EventBillUpdated, e.Payload)

		case events.BillSettled:
			p, ok := e.Payload.(events.BillSettledPayload)
			if !ok {
				log.WithField("event", e.Type).Warnf("unexpected payload %T", e.Payload)
				return
			}
			b.Broadcast("", EventBillUpdated, p.Bill)
			b.Broadcast("", EventTableUpdated, p.Table)
			b.Broadcast("", EventRefreshData, map[string]interface{}{"orders": p.Orders})

		case events.TableUpdated:
			b.Broadcast("", EventTableUpdated, e.Payload)
		}
	}
}

func orderChanged(b Broadcaster, e events.Event, name, kitchen string) {
	b.Broadcast("", name, e.Payload)
	if e.TableNumber > 0 {
		b.Broadcast(TableRoom(e.TableNumber), name, e.Payload)
	}
	b.Broadcast(kitchen, name, e.Payload)
}
