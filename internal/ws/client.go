package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tableside/api/internal/auth"
	"github.com/tableside/api/internal/enum"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (staff rooms are gated by JWT)
	},
}

// Client represents a single WebSocket connection. claims is nil for
// customer sessions.
type Client struct {
	id     uuid.UUID
	hub    *Hub
	conn   *websocket.Conn
	claims *auth.Claims
	send   chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, claims *auth.Claims) *Client {
	return &Client{
		id:     uuid.New(),
		hub:    hub,
		conn:   conn,
		claims: claims,
		send:   make(chan []byte, sendBuffer),
	}
}

// inbound is a client -> server frame.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ReadPump pumps messages from the WebSocket connection to the hub.
// The application runs ReadPump in a per-connection goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithField("client", c.id).Warnf("websocket error: %v", err)
			}
			break
		}
		c.handle(message)
	}
}

// handle applies one room request from the client.
func (c *Client) handle(message []byte) {
	var in inbound
	if err := json.Unmarshal(message, &in); err != nil {
		c.reject("malformed frame")
		return
	}

	switch in.Event {
	case EventJoinRole:
		role, ok := decodeString(in.Data)
		if !ok || !enum.IsValidRole(role) {
			c.reject("unknown role")
			return
		}
		if c.claims == nil || (c.claims.Role != role && c.claims.Role != enum.UserRoleAdmin) {
			c.reject("role access denied")
			return
		}
		c.hub.Join(c, RoleRoom(role))

	case EventJoinTable:
		number, ok := decodeTableNumber(in.Data)
		if !ok {
			c.reject("invalid table number")
			return
		}
		c.hub.Join(c, TableRoom(number))

	case EventLeaveRoom:
		room, ok := decodeString(in.Data)
		if !ok || !validRoom(room) {
			c.reject("invalid room")
			return
		}
		c.hub.Leave(c, room)

	default:
		c.reject("unknown event")
	}
}

func (c *Client) reject(reason string) {
	c.hub.sendTo(c, EventError, map[string]string{"message": reason})
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// decodeTableNumber accepts 7 or "7".
func decodeTableNumber(raw json.RawMessage) (int32, bool) {
	var n int32
	if err := json.Unmarshal(raw, &n); err != nil {
		s, ok := decodeString(raw)
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, false
		}
		n = int32(v)
	}
	return n, n > 0
}

// WritePump pumps messages from the hub to the WebSocket connection.
// The application runs WritePump in a per-connection goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS handles WebSocket requests from clients.
// Endpoint: WS /ws?token=JWT (token optional; required to join role rooms)
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	var claims *auth.Claims
	if tokenStr := r.URL.Query().Get("token"); tokenStr != "" {
		var err error
		claims, err = auth.ValidateToken(jwtSecret, tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade error: %v", err)
		return
	}

	client := newClient(hub, conn, claims)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
