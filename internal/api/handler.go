package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/spinroom/spinroom/internal/auth"
	"github.com/spinroom/spinroom/internal/room"
	"github.com/spinroom/spinroom/internal/wheel"
)

// Handler translates HTTP requests into room service operations.
type Handler struct {
	rooms  *room.Service
	issuer *auth.Issuer
}

// NewHandler creates the request layer over the room service.
func NewHandler(rooms *room.Service, issuer *auth.Issuer) *Handler {
	return &Handler{
		rooms:  rooms,
		issuer: issuer,
	}
}

// RegisterRoutes registers the room API with an HTTP mux. Room creation and
// listing are anonymous; routes naming a room require a bearer token scoped
// to it.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rooms", h.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms", h.handleListRooms)
	mux.HandleFunc("GET /api/rooms/{roomId}", h.requireRoomToken(h.handleGetRoom))
	mux.HandleFunc("DELETE /api/rooms/{roomId}", h.requireRoomToken(h.handleDeleteRoom))
	mux.HandleFunc("POST /api/rooms/{roomId}/spin", h.requireRoomToken(h.handleSpin))
	mux.HandleFunc("GET /api/rooms/{roomId}/history", h.requireRoomToken(h.handleHistory))
	mux.HandleFunc("GET /api/rooms/{roomId}/segments", h.requireRoomToken(h.handleSegments))
	mux.HandleFunc("POST /api/rooms/{roomId}/segments", h.requireRoomToken(h.handleAddSegment))
	mux.HandleFunc("POST /api/rooms/{roomId}/segments/batch", h.requireRoomToken(h.handleAddSegments))
	mux.HandleFunc("DELETE /api/rooms/{roomId}/segments/{name}", h.requireRoomToken(h.handleRemoveSegment))
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token"`
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	created := h.rooms.CreateRoom()

	token, err := h.issuer.Issue(created.RoomID())
	if err != nil {
		log.Error().Err(err).Str("room_id", created.RoomID()).Msg("failed to issue room token")
		writeError(w, http.StatusInternalServerError, "failed to issue room token")
		return
	}

	writeJSON(w, http.StatusCreated, createRoomResponse{
		RoomID: created.RoomID(),
		Token:  token,
	})
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	wheels := h.rooms.GetAllRooms()
	states := make([]wheel.State, 0, len(wheels))
	for _, wh := range wheels {
		states = append(states, wh.Snapshot())
	}
	writeJSON(w, http.StatusOK, states)
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	wh, ok := h.rooms.GetRoom(roomID)
	if !ok {
		writeRoomNotFound(w, roomID)
		return
	}
	writeJSON(w, http.StatusOK, wh.Snapshot())
}

func (h *Handler) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !h.rooms.RemoveRoom(roomID) {
		writeRoomNotFound(w, roomID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type spinResponse struct {
	RoomID string            `json:"roomId"`
	Result *wheel.SpinResult `json:"result"`
}

func (h *Handler) handleSpin(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")

	// An absent body means an unforced spin
	var future []string
	if err := decodeBody(r, &future); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.rooms.Spin(roomID, future)
	if err != nil {
		writeSpinError(w, roomID, err)
		return
	}
	writeJSON(w, http.StatusOK, spinResponse{RoomID: roomID, Result: result})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	wh, ok := h.rooms.GetRoom(roomID)
	if !ok {
		writeRoomNotFound(w, roomID)
		return
	}
	writeJSON(w, http.StatusOK, wh.History())
}

func (h *Handler) handleSegments(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	wh, ok := h.rooms.GetRoom(roomID)
	if !ok {
		writeRoomNotFound(w, roomID)
		return
	}
	writeJSON(w, http.StatusOK, wh.Segments())
}

type addSegmentRequest struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

func (req addSegmentRequest) validate() error {
	if req.Name == "" {
		return errors.New("segment name is required")
	}
	if req.Weight <= 0 {
		return errors.New("segment weight must be a positive integer")
	}
	return nil
}

func (h *Handler) handleAddSegment(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")

	var req addSegmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.rooms.AddSegment(roomID, req.Name, req.Weight)
	if err != nil {
		writeRoomNotFound(w, roomID)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (h *Handler) handleAddSegments(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")

	var reqs []addSegmentRequest
	if err := decodeBody(r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	segments := make([]wheel.Segment, 0, len(reqs))
	for _, req := range reqs {
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		segments = append(segments, wheel.Segment{Name: req.Name, Weight: req.Weight})
	}

	state, err := h.rooms.AddSegments(roomID, segments)
	if err != nil {
		writeRoomNotFound(w, roomID)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (h *Handler) handleRemoveSegment(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	name := r.PathValue("name")

	if _, err := h.rooms.RemoveSegment(roomID, name); err != nil {
		writeRoomNotFound(w, roomID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSpinError(w http.ResponseWriter, roomID string, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		writeRoomNotFound(w, roomID)
	case errors.Is(err, wheel.ErrSegmentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, wheel.ErrEmptyWheel):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("room_id", roomID).Msg("spin failed")
		writeError(w, http.StatusInternalServerError, "spin failed")
	}
}

func writeRoomNotFound(w http.ResponseWriter, roomID string) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("room %q not found", roomID))
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
