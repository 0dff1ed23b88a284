package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cindergrid/automaton/internal/aaa"
)

func testSpec(owner string) CreateSpec {
	return CreateSpec{
		Owner:    owner,
		Class:    aaa.ClassUser,
		Mutable:  true,
		Schedule: aaa.Schedule{Trigger: aaa.TriggerRecurring, Cooldown: 10},
		Pipeline: aaa.Pipeline{
			{Task: aaa.Task{Kind: aaa.TaskNoop}},
		},
		Policy: aaa.AbortCycle,
	}
}

// TestCreate tests ID allocation, sovereign derivation, and slot
// assignment.
func TestCreate(t *testing.T) {
	r := New(aaa.DefaultParams())

	in, err := r.Create(testSpec("alice"), 5)
	require.NoError(t, err)

	assert.Equal(t, aaa.ID(1), in.ID)
	assert.Equal(t, aaa.Account("alice"), in.Owner)
	assert.Equal(t, aaa.SovereignAccount(1), in.Sovereign)
	assert.Equal(t, uint32(0), in.OwnerSlot)
	assert.Equal(t, aaa.Tick(5), in.LastRun)
	assert.Equal(t, aaa.StateIdle, in.RingState)

	in2, err := r.Create(testSpec("alice"), 5)
	require.NoError(t, err)
	assert.Equal(t, aaa.ID(2), in2.ID)
	assert.Equal(t, uint32(1), in2.OwnerSlot)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, r.OwnedCount("alice"))
}

// TestCreate_ValidationRejected tests that shape errors reject the
// create with no state change.
func TestCreate_ValidationRejected(t *testing.T) {
	r := New(aaa.DefaultParams())

	spec := testSpec("alice")
	spec.Pipeline = aaa.Pipeline{
		{Task: aaa.Task{Kind: aaa.TaskMint, Mint: &aaa.MintTask{Asset: "X", To: "y", Amount: 1}}},
	}

	_, err := r.Create(spec, 0)
	require.Error(t, err)
	assert.Equal(t, aaa.ErrCodePrivilegedTaskForbidden, aaa.ValidationCode(err))
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, aaa.ID(1), r.NextID(), "failed create must not consume an ID")
}

// TestCreate_OwnedLimit tests OWNED_LIMIT_EXCEEDED.
func TestCreate_OwnedLimit(t *testing.T) {
	params := aaa.DefaultParams()
	params.MaxOwnedAAAs = 2
	r := New(params)

	for i := 0; i < 2; i++ {
		_, err := r.Create(testSpec("alice"), 0)
		require.NoError(t, err)
	}

	_, err := r.Create(testSpec("alice"), 0)
	require.Error(t, err)
	assert.Equal(t, ErrCodeOwnedLimitExceeded, Code(err))

	// A different owner is unaffected.
	_, err = r.Create(testSpec("bob"), 0)
	require.NoError(t, err)
}

// TestSlotReuse tests that closing an instance frees its slot for the
// next create, while IDs stay monotonic.
func TestSlotReuse(t *testing.T) {
	r := New(aaa.DefaultParams())

	a, err := r.Create(testSpec("alice"), 0)
	require.NoError(t, err)
	b, err := r.Create(testSpec("alice"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), a.OwnerSlot)
	assert.Equal(t, uint32(1), b.OwnerSlot)

	require.NoError(t, r.RefundAndClose(context.Background(), a.ID, nopAssets{}))

	c, err := r.Create(testSpec("alice"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), c.OwnerSlot, "freed slot is reused")
	assert.Greater(t, c.ID, b.ID, "IDs are never reused")
}

// TestSlotUniqueness tests that every live instance holds a distinct
// slot below MaxOwnerSlots for its owner, up to a full slot table.
func TestSlotUniqueness(t *testing.T) {
	params := aaa.DefaultParams()
	params.MaxOwnedAAAs = params.MaxOwnerSlots
	r := New(params)

	for i := 0; i < params.MaxOwnerSlots; i++ {
		_, err := r.Create(testSpec("alice"), 0)
		require.NoError(t, err)
	}

	seen := map[uint32]bool{}
	for _, id := range r.IDs() {
		in, ok := r.Get(id)
		require.True(t, ok)
		assert.Less(t, in.OwnerSlot, uint32(params.MaxOwnerSlots))
		assert.False(t, seen[in.OwnerSlot], "slot %d assigned twice", in.OwnerSlot)
		seen[in.OwnerSlot] = true
	}

	// The owned-limit check fires before the slot scan, so a full
	// table surfaces as the ownership cap.
	_, err := r.Create(testSpec("alice"), 0)
	require.Error(t, err)
	assert.Equal(t, ErrCodeOwnedLimitExceeded, Code(err))
}

// TestOwnerNormalization tests that visually identical owners collide
// on the same slot table.
func TestOwnerNormalization(t *testing.T) {
	params := aaa.DefaultParams()
	params.MaxOwnedAAAs = 1
	r := New(params)

	_, err := r.Create(testSpec("alicé"), 0)
	require.NoError(t, err)

	// NFD spelling of the same owner.
	_, err = r.Create(testSpec("alicé"), 0)
	require.Error(t, err)
	assert.Equal(t, ErrCodeOwnedLimitExceeded, Code(err))
}

// TestRestore tests index rebuilding from persisted state.
func TestRestore(t *testing.T) {
	r := New(aaa.DefaultParams())
	_, err := r.Create(testSpec("alice"), 0)
	require.NoError(t, err)
	_, err = r.Create(testSpec("bob"), 0)
	require.NoError(t, err)

	exported := r.Export()
	next := r.NextID()

	fresh := New(aaa.DefaultParams())
	fresh.Restore(exported, next)

	assert.Equal(t, 2, fresh.Len())
	assert.Equal(t, next, fresh.NextID())
	assert.Equal(t, 1, fresh.OwnedCount("alice"))
	occ := fresh.SlotOccupancy("alice")
	assert.True(t, occ[0])
	assert.False(t, occ[1])

	// Slot table is live: the next create for alice takes slot 1.
	in, err := fresh.Create(testSpec("alice"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), in.OwnerSlot)
}
