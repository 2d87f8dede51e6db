package wheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSegment(t *testing.T) {
	t.Run("added segments are retrievable", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("Alice", 1)
		w.AddSegment("Bob", 2)

		segments := w.Segments()
		require.Len(t, segments, 2)
		assert.Equal(t, Segment{Name: "Alice", Weight: 1}, segments[0])
		assert.Equal(t, Segment{Name: "Bob", Weight: 2}, segments[1])
	})

	t.Run("weight sum is conserved", func(t *testing.T) {
		w := New("room-1")
		weights := []int{1, 5, 2, 7, 3}
		want := 0
		for i, weight := range weights {
			w.AddSegment(string(rune('A'+i)), weight)
			want += weight
		}

		got := 0
		for _, seg := range w.Segments() {
			got += seg.Weight
		}
		assert.Equal(t, want, got)
	})

	t.Run("duplicate names are not rejected", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("Alice", 1)
		w.AddSegment("Alice", 3)
		assert.Len(t, w.Segments(), 2)
	})
}

func TestRemoveSegment(t *testing.T) {
	t.Run("removes all matching names", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("Alice", 1)
		w.AddSegment("Bob", 2)
		w.AddSegment("Alice", 3)

		w.RemoveSegment("Alice")

		segments := w.Segments()
		require.Len(t, segments, 1)
		assert.Equal(t, "Bob", segments[0].Name)
	})

	t.Run("no-op when name is absent", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("Alice", 1)
		w.RemoveSegment("Bob")
		assert.Len(t, w.Segments(), 1)
	})
}

func TestSpin(t *testing.T) {
	t.Run("empty wheel fails and history is unchanged", func(t *testing.T) {
		w := New("room-1")
		result, err := w.Spin(nil)
		require.ErrorIs(t, err, ErrEmptyWheel)
		assert.Nil(t, result)
		assert.Empty(t, w.History())
	})

	t.Run("forced name wins and is removed", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("Alice", 1)
		w.AddSegment("Bob", 2)

		result, err := w.Spin([]string{"Alice"})
		require.NoError(t, err)

		assert.Equal(t, "Alice", result.Current)
		assert.Empty(t, result.Previous)
		assert.Equal(t, []Segment{{Name: "Bob", Weight: 2}}, result.NewState)
		assert.Equal(t, []string{"Alice"}, result.History)
	})

	t.Run("unknown forced name fails with no side effects", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("Alice", 1)
		w.AddSegment("Bob", 2)

		result, err := w.Spin([]string{"Alice", "Carol"})
		require.ErrorIs(t, err, ErrSegmentNotFound)
		assert.Nil(t, result)

		// Nothing was enqueued, removed or recorded
		assert.Len(t, w.Segments(), 2)
		assert.Empty(t, w.History())

		// A later unforced spin must not consume a stale forced entry
		result, err = w.Spin([]string{"Bob"})
		require.NoError(t, err)
		assert.Equal(t, "Bob", result.Current)
	})

	t.Run("forced queue is consumed one per spin", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("Alice", 1)
		w.AddSegment("Bob", 1)
		w.AddSegment("Carol", 1)

		result, err := w.Spin([]string{"Carol", "Alice"})
		require.NoError(t, err)
		assert.Equal(t, "Carol", result.Current)

		result, err = w.Spin(nil)
		require.NoError(t, err)
		assert.Equal(t, "Alice", result.Current)
		assert.Equal(t, "Carol", result.Previous)

		result, err = w.Spin(nil)
		require.NoError(t, err)
		assert.Equal(t, "Bob", result.Current)
		assert.Equal(t, []string{"Carol", "Alice", "Bob"}, result.History)
	})

	t.Run("previous tracks the prior winner", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("Alice", 1)
		w.AddSegment("Bob", 1)

		first, err := w.Spin([]string{"Alice"})
		require.NoError(t, err)
		assert.Empty(t, first.Previous)

		second, err := w.Spin(nil)
		require.NoError(t, err)
		assert.Equal(t, "Alice", second.Previous)
		assert.Equal(t, "Bob", second.Current)
	})
}

func TestSpinDistribution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping distribution test in short mode")
	}

	t.Run("equal weights approach uniform", func(t *testing.T) {
		w := New("room-1")
		names := []string{"A", "B", "C"}
		for _, name := range names {
			w.AddSegment(name, 1)
		}

		const trials = 100_000
		counts := make(map[string]int, len(names))
		for i := 0; i < trials; i++ {
			result, err := w.Spin(nil)
			require.NoError(t, err)
			counts[result.Current]++
			w.AddSegment(result.Current, 1)
		}

		for _, name := range names {
			fraction := float64(counts[name]) / trials
			assert.InDelta(t, 1.0/3.0, fraction, 0.01, "winner %s fraction %f", name, fraction)
		}
	})

	t.Run("heavy weight dominates", func(t *testing.T) {
		w := New("room-1")
		w.AddSegment("A", 1)
		w.AddSegment("B", 99)

		const trials = 10_000
		wins := 0
		for i := 0; i < trials; i++ {
			result, err := w.Spin(nil)
			require.NoError(t, err)
			if result.Current == "B" {
				wins++
				w.AddSegment("B", 99)
			} else {
				w.AddSegment("A", 1)
			}
		}

		fraction := float64(wins) / trials
		assert.InDelta(t, 0.99, fraction, 0.01, "B won %f of spins", fraction)
	})
}

func TestSnapshot(t *testing.T) {
	w := New("room-1")
	w.AddSegment("Alice", 1)

	state := w.Snapshot()
	assert.Equal(t, "room-1", state.RoomID)
	require.Len(t, state.Segments, 1)

	// Snapshot is a copy, later mutation must not leak into it
	w.AddSegment("Bob", 2)
	assert.Len(t, state.Segments, 1)
}
