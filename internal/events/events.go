package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoomEvent is the envelope pushed to every subscriber of a room.
type RoomEvent struct {
	ID        string          `json:"id"`        // Event UUID
	RoomID    string          `json:"room_id"`   // Room the event belongs to
	Type      Type            `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// Type identifies the kind of room event.
type Type string

const (
	TypeSpinResult          Type = "SpinResult"
	TypeSegmentAdded        Type = "SegmentAdded"
	TypeSegmentDeleted      Type = "SegmentDeleted"
	TypeRegistrationSuccess Type = "RegistrationSuccess"
	TypeRegistrationFailed  Type = "RegistrationFailed"
)

// New builds a room event with a fresh id and the payload marshaled into
// the envelope.
func New(roomID string, typ Type, payload any) (*RoomEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return &RoomEvent{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      typ,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}

// Sink consumes room events as a best-effort side effect of a mutation.
// Implementations must not block the caller and must swallow delivery
// failures.
type Sink interface {
	Publish(event *RoomEvent)
}
