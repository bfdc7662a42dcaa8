package spam

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHistoryAppendReturnsPriorOnly(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryHistory(clock.Now)

	prior, err := store.Append(context.Background(), "u1", "first")
	require.NoError(t, err)
	assert.Empty(t, prior)

	clock.Advance(time.Second)
	prior, err = store.Append(context.Background(), "u1", "second")
	require.NoError(t, err)
	require.Len(t, prior, 1)
	assert.Equal(t, "first", prior[0].Content)

	entries, err := store.Read(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Content)
	assert.Equal(t, "first", entries[1].Content)
}

func TestMemoryHistoryBounded(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryHistory(clock.Now)

	for i := 0; i < 25; i++ {
		_, err := store.Append(context.Background(), "u1", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	entries, err := store.Read(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 20)
	assert.Equal(t, "msg 24", entries[0].Content)
	assert.Equal(t, "msg 5", entries[19].Content)
}

func TestMemoryHistoryExpires(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryHistory(clock.Now)

	_, err := store.Append(context.Background(), "u1", "hello")
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	entries, err := store.Read(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryHistoryWriteRefreshesExpiry(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryHistory(clock.Now)

	_, err := store.Append(context.Background(), "u1", "first")
	require.NoError(t, err)
	clock.Advance(50 * time.Second)
	_, err = store.Append(context.Background(), "u1", "second")
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	entries, err := store.Read(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMemoryHistoryIsolatesUsers(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryHistory(clock.Now)

	_, err := store.Append(context.Background(), "u1", "hello")
	require.NoError(t, err)

	entries, err := store.Read(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
