package wheel

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Segment is one selectable outcome on a wheel. Weight is its relative
// probability mass in the random draw.
type Segment struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// SpinResult is the outcome of a single spin.
type SpinResult struct {
	Current  string    `json:"current"`
	Previous string    `json:"previous,omitempty"`
	NewState []Segment `json:"newState"`
	History  []string  `json:"history"`
}

// State is a point-in-time snapshot of a wheel, safe to serialize.
type State struct {
	RoomID   string    `json:"roomId"`
	Segments []Segment `json:"segments"`
	History  []string  `json:"history"`
}

// Wheel holds the segment list, spin history and forced-result queue for
// one room. Mutating methods serialize on an internal mutex so concurrent
// spins on the same room cannot double-remove a winner.
type Wheel struct {
	mu       sync.Mutex
	roomID   string
	segments []Segment
	history  []string
	forced   []string
	rng      *rand.Rand
}

// New constructs an empty wheel bound to roomID with its own seeded source.
func New(roomID string) *Wheel {
	src := rand.NewSource(time.Now().UnixNano())
	return &Wheel{
		roomID: roomID,
		rng:    rand.New(src),
	}
}

// RoomID returns the immutable room identifier this wheel belongs to.
func (w *Wheel) RoomID() string {
	return w.roomID
}

// AddSegment appends a segment. Duplicate names are not rejected; removal
// and winning act on all segments sharing a name.
func (w *Wheel) AddSegment(name string, weight int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.segments = append(w.segments, Segment{Name: name, Weight: weight})
}

// RemoveSegment removes every segment whose name matches. Removing a name
// that is not on the wheel is a no-op.
func (w *Wheel) RemoveSegment(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(name)
}

func (w *Wheel) removeLocked(name string) {
	kept := w.segments[:0]
	for _, seg := range w.segments {
		if seg.Name != name {
			kept = append(kept, seg)
		}
	}
	w.segments = kept
}

// Spin runs one spin. Names in future are first validated against the
// current segments as a batch and enqueued onto the forced queue; any
// unknown name fails the whole call before anything mutates. The winner is
// the head of the forced queue when one is pending, otherwise a weighted
// random draw. The winner is removed from the wheel and appended to the
// history.
func (w *Wheel) Spin(future []string) (*SpinResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, name := range future {
		if !w.hasSegmentLocked(name) {
			return nil, fmt.Errorf("segment %q: %w", name, ErrSegmentNotFound)
		}
	}
	w.forced = append(w.forced, future...)

	if len(w.segments) == 0 {
		return nil, ErrEmptyWheel
	}

	var previous string
	if len(w.history) > 0 {
		previous = w.history[len(w.history)-1]
	}

	var current string
	if len(w.forced) > 0 {
		current = w.forced[0]
		w.forced = w.forced[1:]
	} else {
		current = w.drawLocked()
	}

	w.removeLocked(current)
	w.history = append(w.history, current)

	return &SpinResult{
		Current:  current,
		Previous: previous,
		NewState: cloneSegments(w.segments),
		History:  cloneHistory(w.history),
	}, nil
}

// drawLocked picks a segment name proportionally to weight: a uniform draw
// in [0, totalWeight) walks the cumulative weights. Falls back to the last
// segment so a result is always produced.
func (w *Wheel) drawLocked() string {
	total := 0
	for _, seg := range w.segments {
		total += seg.Weight
	}
	if total <= 0 {
		return w.segments[len(w.segments)-1].Name
	}
	pick := w.rng.Intn(total)
	acc := 0
	for _, seg := range w.segments {
		acc += seg.Weight
		if pick < acc {
			return seg.Name
		}
	}
	return w.segments[len(w.segments)-1].Name
}

func (w *Wheel) hasSegmentLocked(name string) bool {
	for _, seg := range w.segments {
		if seg.Name == name {
			return true
		}
	}
	return false
}

// Segments returns a copy of the current segment list.
func (w *Wheel) Segments() []Segment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneSegments(w.segments)
}

// History returns a copy of the winner history, oldest first.
func (w *Wheel) History() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneHistory(w.history)
}

// Snapshot returns the wheel state for serialization and broadcast.
func (w *Wheel) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		RoomID:   w.roomID,
		Segments: cloneSegments(w.segments),
		History:  cloneHistory(w.history),
	}
}

func cloneSegments(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}

func cloneHistory(history []string) []string {
	out := make([]string, len(history))
	copy(out, history)
	return out
}
