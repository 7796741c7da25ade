package ws

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Server -> client event names.
const (
	EventNewOrder          = "new-order"
	EventOrderUpdated      = "order-updated"
	EventOrderCancelled    = "order-cancelled"
	EventItemStatusUpdated = "item-status-updated"
	EventBillUpdated       = "bill-updated"
	EventTableUpdated      = "table-updated"
	EventRefreshData       = "refresh-data"
	EventHeartbeat         = "heartbeat"
	EventError             = "error"
)

// Client -> server event names.
const (
	EventJoinRole  = "join-role"
	EventJoinTable = "join-table"
	EventLeaveRoom = "leave-room"
)

const broadcastBuffer = 256

// Frame is the JSON envelope of every server -> client message. Room is
// empty for frames sent to every connection.
type Frame struct {
	Event     string      `json:"event"`
	Room      string      `json:"room,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RoleRoom is the room of every connection that joined as a staff role.
func RoleRoom(role string) string { return "role:" + role }

// TableRoom is the room of the customer sessions at one table.
func TableRoom(number int32) string { return "table:" + strconv.Itoa(int(number)) }

func validRoom(room string) bool {
	switch {
	case strings.HasPrefix(room, "role:"):
		return len(room) > len("role:")
	case strings.HasPrefix(room, "table:"):
		n, err := strconv.Atoi(strings.TrimPrefix(room, "table:"))
		return err == nil && n > 0
	}
	return false
}

// Stats is a point-in-time view of the hub for diagnostics.
type Stats struct {
	Connections int            `json:"connections"`
	Rooms       map[string]int `json:"rooms"`
}

type membership struct {
	client *Client
	room   string
}

type outbound struct {
	room    string
	client  *Client
	message []byte
}

// Hub owns the connection registry. Rooms and memberships are only mutated
// from Run; everything else talks to it over channels.
type Hub struct {
	// Every registered client with the rooms it joined
	clients map[*Client]map[string]bool

	// Room name -> members
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	broadcast  chan outbound
	direct     chan outbound
	done       chan struct{}

	heartbeat time.Duration

	// Guards reads from Stats while Run mutates
	mu sync.RWMutex
}

// NewHub creates a hub that pushes a heartbeat to every connection each
// interval. A zero interval disables the heartbeat.
func NewHub(heartbeat time.Duration) *Hub {
	return &Hub{
		clients:    make(map[*Client]map[string]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		broadcast:  make(chan outbound, broadcastBuffer),
		direct:     make(chan outbound, broadcastBuffer),
		done:       make(chan struct{}),
		heartbeat:  heartbeat,
	}
}

// Run starts the hub's main loop until ctx is cancelled.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	var tick <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = make(map[string]bool)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.remove(client)
			}
			h.mu.Unlock()

		case m := <-h.join:
			h.mu.Lock()
			if joined, ok := h.clients[m.client]; ok {
				joined[m.room] = true
				if h.rooms[m.room] == nil {
					h.rooms[m.room] = make(map[*Client]bool)
				}
				h.rooms[m.room][m.client] = true
			}
			h.mu.Unlock()

		case m := <-h.leave:
			h.mu.Lock()
			if joined, ok := h.clients[m.client]; ok && joined[m.room] {
				delete(joined, m.room)
				h.leaveRoom(m.client, m.room)
			}
			h.mu.Unlock()

		case out := <-h.broadcast:
			h.mu.Lock()
			h.deliver(out)
			h.mu.Unlock()

		case out := <-h.direct:
			h.mu.Lock()
			if _, ok := h.clients[out.client]; ok {
				h.send(out.client, out.message)
			}
			h.mu.Unlock()

		case now := <-tick:
			message, err := json.Marshal(Frame{
				Event:     EventHeartbeat,
				Data:      map[string]time.Time{"timestamp": now},
				Timestamp: now,
			})
			if err != nil {
				continue
			}
			h.mu.Lock()
			h.deliver(outbound{message: message})
			h.mu.Unlock()
		}
	}
}

// deliver sends to a room, or to every client when room is empty.
// Caller must hold h.mu.
func (h *Hub) deliver(out outbound) {
	if out.room == "" {
		for client := range h.clients {
			h.send(client, out.message)
		}
		return
	}
	for client := range h.rooms[out.room] {
		h.send(client, out.message)
	}
}

// send drops a client whose buffer is full. Caller must hold h.mu.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		log.WithField("client", client.id).Warn("websocket client too slow, dropping connection")
		h.remove(client)
	}
}

// remove forgets a client and every membership it held. Caller must hold h.mu.
func (h *Hub) remove(client *Client) {
	for room := range h.clients[client] {
		h.leaveRoom(client, room)
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) leaveRoom(client *Client, room string) {
	members := h.rooms[room]
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast queues a frame for a room, or for every connection when room is
// empty. It never blocks: when the queue is full the frame is dropped.
func (h *Hub) Broadcast(room, event string, data interface{}) {
	message, err := json.Marshal(Frame{Event: event, Room: room, Data: data, Timestamp: time.Now()})
	if err != nil {
		log.WithField("event", event).Errorf("marshal websocket frame: %v", err)
		return
	}
	select {
	case h.broadcast <- outbound{room: room, message: message}:
	default:
		log.WithFields(log.Fields{"event": event, "room": room}).Warn("websocket broadcast queue full, frame dropped")
	}
}

// Register adds a client to the global audience.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client and all its room memberships.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Join adds a registered client to a room.
func (h *Hub) Join(client *Client, room string) {
	select {
	case h.join <- membership{client: client, room: room}:
	case <-h.done:
	}
}

// Leave removes a client from a room it joined.
func (h *Hub) Leave(client *Client, room string) {
	select {
	case h.leave <- membership{client: client, room: room}:
	case <-h.done:
	}
}

// sendTo queues a frame for one client.
func (h *Hub) sendTo(client *Client, event string, data interface{}) {
	message, err := json.Marshal(Frame{Event: event, Data: data, Timestamp: time.Now()})
	if err != nil {
		return
	}
	select {
	case h.direct <- outbound{client: client, message: message}:
	case <-h.done:
	default:
	}
}

// Stats reports the connection count and the size of each room.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := Stats{Connections: len(h.clients), Rooms: make(map[string]int, len(h.rooms))}
	for room, members := range h.rooms {
		s.Rooms[room] = len(members)
	}
	return s
}
