package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for room subscribers.
type WebSocketHandler struct {
	hub *Hub
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleRoomSocket upgrades the connection and, when room_id is supplied as
// a query parameter, registers the subscriber immediately. Without it the
// client is expected to send a Register message over the socket.
func (h *WebSocketHandler) HandleRoomSocket(w http.ResponseWriter, r *http.Request) {
	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "anonymous"
	}
	roomID := r.URL.Query().Get("room_id")

	conn, err := h.hub.Upgrade(w, r, displayName)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	if roomID != "" {
		// Failure is acked to the client; the socket stays open
		_ = h.hub.Register(conn, displayName, roomID)
	}
}

// HandleStats returns counts of active connections and subscribed rooms.
func (h *WebSocketHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	totalConnections, activeRooms := h.hub.Stats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"total_connections": totalConnections,
		"active_rooms":      activeRooms,
	})
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/room", h.HandleRoomSocket)
	mux.HandleFunc("GET /ws/stats", h.HandleStats)
}
