package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/spinroom/spinroom/internal/events"
	"github.com/spinroom/spinroom/internal/wheel"
)

// RoomDirectory answers whether a room currently exists. Satisfied by the
// room registry.
type RoomDirectory interface {
	GetRoom(roomID string) (*wheel.Wheel, bool)
}

// Hub manages WebSocket connections grouped by room and fans room events
// out to every subscriber of that room.
type Hub struct {
	// All live connections, plus per-room pools for registered ones
	conns     map[*Connection]bool
	roomConns map[string]map[*Connection]bool
	mu        sync.RWMutex

	directory RoomDirectory
	upgrader  websocket.Upgrader
	config    ConnectionConfig

	broadcastCh chan *events.RoomEvent
}

// Connection represents a WebSocket connection to a client. A connection
// subscribes to at most one room; RoomID is empty until registration.
type Connection struct {
	ID          string
	DisplayName string
	RoomID      string
	Conn        *websocket.Conn
	Send        chan []byte
	Hub         *Hub

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins, mirroring the permissive CORS policy
			return true
		},
	}
}

var _ events.Sink = (*Hub)(nil)

// NewHub creates a hub backed by the given room directory.
func NewHub(config ConnectionConfig, directory RoomDirectory) *Hub {
	return &Hub{
		conns:     make(map[*Connection]bool),
		roomConns: make(map[string]map[*Connection]bool),
		directory: directory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan *events.RoomEvent, 1000),
	}
}

// Start processes broadcast events until the context is canceled.
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("gateway hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway hub shutting down")
			return
		case event := <-h.broadcastCh:
			h.handleBroadcast(event)
		}
	}
}

// Publish enqueues an event for fan-out. Non-blocking: when the buffer is
// full the event is dropped and logged, never propagated to the caller.
func (h *Hub) Publish(event *events.RoomEvent) {
	select {
	case h.broadcastCh <- event:
	default:
		log.Warn().
			Str("room_id", event.RoomID).
			Str("event_type", string(event.Type)).
			Msg("broadcast channel full, dropping event")
	}
}

// Upgrade upgrades an HTTP request to a WebSocket connection and starts its
// pumps. The connection is not subscribed to any room yet.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, displayName string) (*Connection, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		DisplayName: displayName,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Hub:         h,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	h.mu.Lock()
	h.conns[connection] = true
	h.mu.Unlock()

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("display_name", displayName).
		Msg("WebSocket connection established")

	return connection, nil
}

// Register subscribes a connection to a room's event group. Fails when the
// room does not exist; the connection stays open and may retry.
func (h *Hub) Register(conn *Connection, displayName, roomID string) error {
	if _, ok := h.directory.GetRoom(roomID); !ok {
		h.sendAck(conn, roomID, events.TypeRegistrationFailed,
			fmt.Sprintf("room %q does not exist", roomID))
		log.Warn().
			Str("connection_id", conn.ID).
			Str("display_name", displayName).
			Str("room_id", roomID).
			Msg("registration failed, room not found")
		return fmt.Errorf("room %q does not exist", roomID)
	}

	h.mu.Lock()
	if conn.RoomID != "" {
		h.mu.Unlock()
		h.sendAck(conn, roomID, events.TypeRegistrationFailed,
			"could not register, already in a room")
		return fmt.Errorf("connection %s already registered to room %s", conn.ID, conn.RoomID)
	}
	if displayName != "" {
		conn.DisplayName = displayName
	}
	conn.RoomID = roomID
	if h.roomConns[roomID] == nil {
		h.roomConns[roomID] = make(map[*Connection]bool)
	}
	h.roomConns[roomID][conn] = true
	total := len(h.roomConns[roomID])
	h.mu.Unlock()

	h.sendAck(conn, roomID, events.TypeRegistrationSuccess,
		fmt.Sprintf("successfully joined room %s", roomID))

	log.Info().
		Str("connection_id", conn.ID).
		Str("display_name", conn.DisplayName).
		Str("room_id", roomID).
		Int("room_connections", total).
		Msg("connection registered to room")
	return nil
}

// sendAck pushes a registration ack onto the connection's send queue.
func (h *Hub) sendAck(conn *Connection, roomID string, typ events.Type, message string) {
	event, err := events.New(roomID, typ, map[string]string{"message": message})
	if err != nil {
		log.Error().Err(err).Msg("failed to build registration ack")
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal registration ack")
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Warn().Str("connection_id", conn.ID).Msg("send buffer full, dropping ack")
	}
}

// unregister removes a connection from the hub and its room pool.
func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.conns[conn]; !exists {
		return
	}
	delete(h.conns, conn)
	close(conn.Send)

	if conn.RoomID == "" {
		return
	}
	if pool, exists := h.roomConns[conn.RoomID]; exists {
		delete(pool, conn)
		if len(pool) == 0 {
			delete(h.roomConns, conn.RoomID)
		}
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("display_name", conn.DisplayName).
		Str("room_id", conn.RoomID).
		Msg("connection unregistered")
}

// handleBroadcast fans one event out to the room's subscribers.
func (h *Hub) handleBroadcast(event *events.RoomEvent) {
	h.mu.RLock()
	pool, exists := h.roomConns[event.RoomID]
	if !exists {
		h.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(pool))
	for conn := range pool {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow or dead, drop it
			log.Warn().
				Str("connection_id", conn.ID).
				Str("room_id", event.RoomID).
				Msg("send buffer full, closing connection")
			h.unregister(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(event.Type)).
		Str("room_id", event.RoomID).
		Int("connections", len(targets)).
		Msg("event broadcast")
}

// Stats returns counts of live connections and subscribed rooms.
func (h *Hub) Stats() (totalConnections, activeRooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns), len(h.roomConns)
}

// writePump sends queued messages and pings to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Hub.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump consumes messages from the WebSocket connection. The only
// client message the hub understands is the register request.
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	}
}

// clientMessage is the join request a subscriber sends after connecting.
type clientMessage struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	RoomID string `json:"room_id"`
}

func (c *Connection) handleClientMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().
			Str("connection_id", c.ID).
			Msg("ignoring malformed client message")
		return
	}

	switch msg.Type {
	case "Register":
		// Failure already acked inside Register
		_ = c.Hub.Register(c, msg.Name, msg.RoomID)
	default:
		log.Debug().
			Str("connection_id", c.ID).
			Str("type", msg.Type).
			Msg("ignoring unknown client message")
	}
}
