package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/engine"
	"github.com/cindergrid/automaton/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "automaton.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestOpenFreshDatabase verifies an empty database loads as a fresh
// world.
func TestOpenFreshDatabase(t *testing.T) {
	s := openTestStore(t)

	snap, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.Tick)
	assert.False(t, snap.Breaker)
	assert.Equal(t, aaa.ID(1), snap.NextID)
	assert.Empty(t, snap.Instances)
	assert.Empty(t, snap.Balances)
	assert.Empty(t, snap.Pools)
}

// TestOpenIsIdempotent reopens the same path without error.
func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automaton.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

// TestSnapshotRoundTrip saves a populated world and reads it back
// field for field.
func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	refundTo := aaa.Account("treasury")
	policy := aaa.ContinueNextStep
	in := aaa.Instance{
		ID:        7,
		Owner:     "alice",
		Sovereign: aaa.SovereignAccount(7),
		Class:     aaa.ClassUser,
		Mutable:   true,
		Schedule:  aaa.Schedule{Trigger: aaa.TriggerRecurring, Cooldown: 12},
		Pipeline: aaa.Pipeline{
			{
				Conditions: []aaa.Condition{{
					Kind:    aaa.CondBalanceAtLeast,
					Balance: &aaa.BalanceCondition{Asset: "GOLD", Amount: 100},
				}},
				Task: aaa.Task{
					Kind:     aaa.TaskTransfer,
					Transfer: &aaa.TransferTask{Asset: "GOLD", To: "bob", Amount: 50},
				},
				OnError: &policy,
			},
		},
		Policy:              aaa.AbortCycle,
		Paused:              true,
		ManualPending:       true,
		CycleNonce:          42,
		ConsecutiveFailures: 3,
		OwnerSlot:           2,
		RefundableAssets:    []aaa.Asset{"GOLD", "SILVER"},
		RefundTo:            &refundTo,
		HasRun:              true,
		LastRun:             90,
		RentAccrued:         15,
		RingState:           aaa.StateDeferredWaiting,
	}

	want := Snapshot{
		Tick:      101,
		Breaker:   true,
		NextID:    8,
		Instances: []aaa.Instance{in},
		Rings: engine.RingSnapshot{
			ReadySystem: []aaa.ID{3, 1},
			ReadyUser:   []aaa.ID{5},
			Deferred:    []engine.DeferredEntry{{ID: 7, EarliestRetry: 104}},
		},
		Balances: []ledger.BalanceRow{
			{Account: "alice", Asset: "NATIVE", Amount: 900},
			{Account: "bob", Asset: "GOLD", Amount: 10},
		},
		Pools: []ledger.PoolRow{
			{
				AssetA: "GOLD", AssetB: "SILVER",
				ReserveA: 1_000_000, ReserveB: 2_000_000,
				TotalShares: 1_414_213,
				Shares:      map[aaa.Account]aaa.Amount{"maker": 1_414_213},
			},
		},
	}

	require.NoError(t, s.SaveSnapshot(ctx, want))

	got, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, want.Tick, got.Tick)
	assert.Equal(t, want.Breaker, got.Breaker)
	assert.Equal(t, want.NextID, got.NextID)
	assert.Equal(t, want.Rings, got.Rings)
	assert.Equal(t, want.Instances, got.Instances)
	assert.ElementsMatch(t, want.Balances, got.Balances)
	assert.Equal(t, want.Pools, got.Pools)
}

// TestSaveReplacesPreviousSnapshot verifies a second save fully
// replaces the first: no stale rows survive.
func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := Snapshot{
		Tick:   5,
		NextID: 3,
		Balances: []ledger.BalanceRow{
			{Account: "alice", Asset: "NATIVE", Amount: 100},
			{Account: "bob", Asset: "NATIVE", Amount: 200},
		},
	}
	require.NoError(t, s.SaveSnapshot(ctx, first))

	second := Snapshot{
		Tick:   6,
		NextID: 3,
		Balances: []ledger.BalanceRow{
			{Account: "carol", Asset: "GOLD", Amount: 7},
		},
	}
	require.NoError(t, s.SaveSnapshot(ctx, second))

	got, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, aaa.Tick(6), got.Tick)
	require.Len(t, got.Balances, 1)
	assert.Equal(t, aaa.Account("carol"), got.Balances[0].Account)
}
