package room

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/spinroom/spinroom/internal/events"
	"github.com/spinroom/spinroom/internal/wheel"
)

// ErrRoomNotFound is returned when an operation names a room that is not
// in the registry.
var ErrRoomNotFound = errors.New("room not found")

// Service orchestrates wheel mutations through the registry and forwards
// the resulting state to every event sink. Sinks are best-effort: the
// caller gets the mutation result whether or not any subscriber hears
// about it.
type Service struct {
	registry *Registry
	sinks    []events.Sink
}

// NewService wires the registry to zero or more event sinks.
func NewService(registry *Registry, sinks ...events.Sink) *Service {
	return &Service{
		registry: registry,
		sinks:    sinks,
	}
}

// CreateRoom creates a room and returns its wheel.
func (s *Service) CreateRoom() *wheel.Wheel {
	return s.registry.CreateRoom()
}

// RemoveRoom deletes a room, reporting whether it existed.
func (s *Service) RemoveRoom(roomID string) bool {
	return s.registry.RemoveRoom(roomID)
}

// GetRoom looks up a room's wheel.
func (s *Service) GetRoom(roomID string) (*wheel.Wheel, bool) {
	return s.registry.GetRoom(roomID)
}

// GetAllRooms snapshots every live wheel.
func (s *Service) GetAllRooms() []*wheel.Wheel {
	return s.registry.GetAllRooms()
}

// Spin runs one spin on the room's wheel and broadcasts the result.
func (s *Service) Spin(roomID string, future []string) (*wheel.SpinResult, error) {
	w, ok := s.registry.GetRoom(roomID)
	if !ok {
		return nil, fmt.Errorf("room %q: %w", roomID, ErrRoomNotFound)
	}

	result, err := w.Spin(future)
	if err != nil {
		return nil, err
	}

	s.emit(roomID, events.TypeSpinResult, result)
	log.Info().
		Str("room_id", roomID).
		Str("winner", result.Current).
		Msg("spin broadcast")
	return result, nil
}

// AddSegment adds one segment and broadcasts the updated wheel state.
func (s *Service) AddSegment(roomID, name string, weight int) (*wheel.State, error) {
	w, ok := s.registry.GetRoom(roomID)
	if !ok {
		return nil, fmt.Errorf("room %q: %w", roomID, ErrRoomNotFound)
	}

	w.AddSegment(name, weight)
	state := w.Snapshot()
	s.emit(roomID, events.TypeSegmentAdded, state)
	log.Info().
		Str("room_id", roomID).
		Str("segment", name).
		Int("weight", weight).
		Msg("segment added")
	return &state, nil
}

// AddSegments adds each segment in order, broadcasting after every add.
func (s *Service) AddSegments(roomID string, segments []wheel.Segment) (*wheel.State, error) {
	w, ok := s.registry.GetRoom(roomID)
	if !ok {
		return nil, fmt.Errorf("room %q: %w", roomID, ErrRoomNotFound)
	}

	var state wheel.State
	for _, seg := range segments {
		w.AddSegment(seg.Name, seg.Weight)
		state = w.Snapshot()
		s.emit(roomID, events.TypeSegmentAdded, state)
	}
	if len(segments) == 0 {
		state = w.Snapshot()
	}
	log.Info().
		Str("room_id", roomID).
		Int("count", len(segments)).
		Msg("segments added")
	return &state, nil
}

// RemoveSegment removes all segments matching name and broadcasts the
// updated wheel state.
func (s *Service) RemoveSegment(roomID, name string) (*wheel.State, error) {
	w, ok := s.registry.GetRoom(roomID)
	if !ok {
		return nil, fmt.Errorf("room %q: %w", roomID, ErrRoomNotFound)
	}

	w.RemoveSegment(name)
	state := w.Snapshot()
	s.emit(roomID, events.TypeSegmentDeleted, state)
	log.Info().
		Str("room_id", roomID).
		Str("segment", name).
		Msg("segment deleted")
	return &state, nil
}

func (s *Service) emit(roomID string, typ events.Type, payload any) {
	event, err := events.New(roomID, typ, payload)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to build room event")
		return
	}
	for _, sink := range s.sinks {
		sink.Publish(event)
	}
}
