package room

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("create and get", func(t *testing.T) {
		r := NewRegistry()
		created := r.CreateRoom()
		require.NotEmpty(t, created.RoomID())

		got, ok := r.GetRoom(created.RoomID())
		require.True(t, ok)
		assert.Same(t, created, got)
	})

	t.Run("get unknown room", func(t *testing.T) {
		r := NewRegistry()
		_, ok := r.GetRoom("nope")
		assert.False(t, ok)
	})

	t.Run("remove existing room", func(t *testing.T) {
		r := NewRegistry()
		created := r.CreateRoom()

		assert.True(t, r.RemoveRoom(created.RoomID()))
		_, ok := r.GetRoom(created.RoomID())
		assert.False(t, ok)
	})

	t.Run("remove unknown room returns false", func(t *testing.T) {
		r := NewRegistry()
		assert.False(t, r.RemoveRoom("nope"))
	})

	t.Run("get all rooms snapshots every entry", func(t *testing.T) {
		r := NewRegistry()
		want := map[string]bool{}
		for i := 0; i < 5; i++ {
			want[r.CreateRoom().RoomID()] = true
		}

		all := r.GetAllRooms()
		require.Len(t, all, 5)
		for _, w := range all {
			assert.True(t, want[w.RoomID()])
		}
	})
}

func TestRegistryConcurrentCreate(t *testing.T) {
	const rooms = 1000

	r := NewRegistry()
	var wg sync.WaitGroup
	ids := make(chan string, rooms)

	for i := 0; i < rooms; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- r.CreateRoom().RoomID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, rooms)
	for id := range ids {
		assert.False(t, seen[id], "duplicate room id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, rooms)
	assert.Equal(t, rooms, r.Len())
	assert.Len(t, r.GetAllRooms(), rooms)
}
