package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cindergrid/automaton/internal/aaa"
)

// TestReadyRingFIFO verifies push/pop ordering and the capacity bound.
func TestReadyRingFIFO(t *testing.T) {
	r := newReadyRing(2)

	require.NoError(t, r.Push(1))
	require.NoError(t, r.Push(2))
	assert.ErrorIs(t, r.Push(3), ErrRingFull)
	assert.Equal(t, 2, r.Len())

	head, ok := r.Peek()
	require.True(t, ok)
	assert.Equal(t, aaa.ID(1), head)

	id, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, aaa.ID(1), id)
	id, ok = r.Pop()
	require.True(t, ok)
	assert.Equal(t, aaa.ID(2), id)

	_, ok = r.Pop()
	assert.False(t, ok)
}

// TestReadyRingSnapshotRestore round-trips contents and truncates a
// restore that exceeds capacity.
func TestReadyRingSnapshotRestore(t *testing.T) {
	r := newReadyRing(3)
	require.NoError(t, r.Push(7))
	require.NoError(t, r.Push(8))

	snap := r.Snapshot()
	assert.Equal(t, []aaa.ID{7, 8}, snap)

	r.Restore([]aaa.ID{1, 2, 3, 4})
	assert.Equal(t, 3, r.Len())
	head, _ := r.Peek()
	assert.Equal(t, aaa.ID(1), head)
}

// TestDeferredRingFIFO verifies ordering and capacity of the retry
// queue.
func TestDeferredRingFIFO(t *testing.T) {
	r := newDeferredRing(2)

	require.NoError(t, r.Push(DeferredEntry{ID: 1, EarliestRetry: 5}))
	require.NoError(t, r.Push(DeferredEntry{ID: 2, EarliestRetry: 9}))
	assert.ErrorIs(t, r.Push(DeferredEntry{ID: 3}), ErrRingFull)

	e, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, aaa.ID(1), e.ID)
	assert.Equal(t, aaa.Tick(5), e.EarliestRetry)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, aaa.ID(2), snap[0].ID)
}
