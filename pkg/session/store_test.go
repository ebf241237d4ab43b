package session

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(zerolog.Nop())
}

func TestStore_GetOrCreate_New(t *testing.T) {
	store := newTestStore()

	sess := store.GetOrCreate("abc")

	assert.Equal(t, "abc", sess.ID)
	assert.Empty(t, sess.History)
	assert.Equal(t, sess.CreatedAt, sess.LastAccessed)
	assert.Equal(t, 1, store.Count())
}

func TestStore_GetOrCreate_Existing(t *testing.T) {
	store := newTestStore()

	first := store.GetOrCreate("abc")
	store.UpdateHistory("abc", []Message{{Role: "user", Content: "hello"}})

	second := store.GetOrCreate("abc")

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Len(t, second.History, 1)
	assert.Equal(t, 1, store.Count())
}

func TestStore_GetOrCreate_LastAccessedMonotonic(t *testing.T) {
	store := newTestStore()

	clock := time.Unix(1700000000, 0)
	store.now = func() time.Time { return clock }

	first := store.GetOrCreate("abc")

	clock = clock.Add(time.Second)
	second := store.GetOrCreate("abc")

	assert.True(t, second.LastAccessed.After(first.LastAccessed))
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestStore_UpdateHistory(t *testing.T) {
	store := newTestStore()

	store.GetOrCreate("abc")

	history := []Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}
	store.UpdateHistory("abc", history)

	got := store.GetOrCreate("abc")
	assert.Equal(t, history, got.History)
}

func TestStore_UpdateHistory_UnknownSession(t *testing.T) {
	store := newTestStore()

	store.UpdateHistory("never-seen", []Message{{Role: "user", Content: "hello"}})

	assert.Equal(t, 0, store.Count())
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := newTestStore()

	store.GetOrCreate("abc")
	store.UpdateHistory("abc", []Message{{Role: "user", Content: "hello"}})

	snap := store.GetOrCreate("abc")
	snap.History[0].Content = "mutated"
	snap.History = append(snap.History, Message{Role: "assistant", Content: "extra"})

	got := store.GetOrCreate("abc")
	require.Len(t, got.History, 1)
	assert.Equal(t, "hello", got.History[0].Content)
}

func TestStore_UpdateHistory_CopiesInput(t *testing.T) {
	store := newTestStore()

	store.GetOrCreate("abc")

	history := []Message{{Role: "user", Content: "hello"}}
	store.UpdateHistory("abc", history)
	history[0].Content = "mutated"

	got := store.GetOrCreate("abc")
	assert.Equal(t, "hello", got.History[0].Content)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := newTestStore()

	var wg sync.WaitGroup
	ids := []string{"a", "b", "c", "d"}

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := ids[n%len(ids)]
			store.GetOrCreate(id)
			store.UpdateHistory(id, []Message{{Role: "user", Content: "hello"}})
			store.Count()
		}(i)
	}

	wg.Wait()

	assert.Equal(t, len(ids), store.Count())
	for _, id := range ids {
		sess := store.GetOrCreate(id)
		assert.Len(t, sess.History, 1)
	}
}
