package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/registry"
)

// TestAbortPolicyStopsPipeline verifies that a failing step under
// AbortCycle halts the cycle: later steps never run, the nonce is
// unchanged, and the instance is parked for retry after the configured
// delay.
func TestAbortPolicyStopsPipeline(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	// Step 0 fails (no GOLD); step 1 would pay bob if reached.
	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{
			transferStep("GOLD", "bob", 500),
			transferStep("NATIVE", "bob", 10),
		},
		Policy: aaa.AbortCycle,
	}, 10_000)

	report := s.RunTick(ctx)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Succeeded)

	bob, err := led.Balance(ctx, "bob", "NATIVE")
	require.NoError(t, err)
	assert.Zero(t, bob, "step after the aborting one must not run")

	assert.Zero(t, in.CycleNonce)
	assert.Equal(t, uint32(1), in.ConsecutiveFailures)
	assert.Equal(t, aaa.StateDeferredWaiting, in.RingState)

	snap := s.ExportRings()
	require.Len(t, snap.Deferred, 1)
	assert.Equal(t, in.ID, snap.Deferred[0].ID)
	assert.Equal(t, aaa.Tick(4), snap.Deferred[0].EarliestRetry)
}

// TestContinuePolicyAbsorbsFailure verifies a ContinueNextStep
// override lets the cycle complete: the failure is recorded but later
// steps run and the cycle counts as a success, resetting the failure
// streak.
func TestContinuePolicyAbsorbsFailure(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	failing := transferStep("GOLD", "bob", 500)
	failing.OnError = policyRef(aaa.ContinueNextStep)

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{
			failing,
			transferStep("NATIVE", "bob", 10),
		},
		Policy: aaa.AbortCycle,
	}, 10_000)
	in.ConsecutiveFailures = 3

	report := s.RunTick(ctx)
	assert.Equal(t, 1, report.Succeeded)
	assert.Zero(t, report.Failed)

	bob, err := led.Balance(ctx, "bob", "NATIVE")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(10), bob)

	assert.Equal(t, uint64(1), in.CycleNonce)
	assert.Zero(t, in.ConsecutiveFailures)
	assert.Equal(t, aaa.StateIdle, in.RingState)
}

// TestFalseConditionSkipsStep verifies that an unmet condition skips
// the step without engaging the error policy: the cycle completes and
// only the condition read fee is charged.
func TestFalseConditionSkipsStep(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	step := transferStep("GOLD", "bob", 500)
	step.Conditions = []aaa.Condition{{
		Kind:    aaa.CondBalanceAtLeast,
		Balance: &aaa.BalanceCondition{Asset: "GOLD", Amount: 500},
	}}

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{step},
		Policy:   aaa.AbortCycle,
	}, 10_000)

	report := s.RunTick(ctx)
	assert.Equal(t, 1, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Equal(t, uint64(1), in.CycleNonce)

	// Only the read fee: the step fee is charged for eligible steps
	// only.
	sink, err := led.Balance(ctx, "fee-sink", "NATIVE")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(1), sink)
}

// TestTickConditionGatesExecution runs a tick-gated transfer over
// several ticks: the step executes only once the threshold tick is
// reached, and each earlier cycle still completes via skip.
func TestTickConditionGatesExecution(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	step := transferStep("GOLD", "bob", 100)
	step.Conditions = []aaa.Condition{{
		Kind: aaa.CondTickReached,
		Tick: &aaa.TickCondition{At: 3},
	}}

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{step},
		Policy:   aaa.AbortCycle,
	}, 10_000)
	led.SetBalance(in.Sovereign, "GOLD", 100)

	for tick := 1; tick <= 2; tick++ {
		report := s.RunTick(ctx)
		assert.Equal(t, 1, report.Succeeded, "tick %d", tick)
		bob, _ := led.Balance(ctx, "bob", "GOLD")
		assert.Zero(t, bob, "tick %d below threshold", tick)
	}

	s.RunTick(ctx)
	bob, err := led.Balance(ctx, "bob", "GOLD")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(100), bob)
}

// TestPriceConditionAgainstPool quotes the DEX inside a condition gate
// and swaps only when the price clears the limit.
func TestPriceConditionAgainstPool(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	led.SetBalance("maker", "GOLD", 1_000_000)
	led.SetBalance("maker", "SILVER", 1_000_000)
	require.NoError(t, led.CreatePool(ctx, "maker", "GOLD", "SILVER", 1_000_000, 1_000_000))

	step := aaa.Step{
		Conditions: []aaa.Condition{{
			Kind: aaa.CondPriceAtLeast,
			Price: &aaa.PriceCondition{
				AssetIn: "GOLD", AssetOut: "SILVER",
				AmountIn: 10_000, Limit: 9_000,
			},
		}},
		Task: aaa.Task{
			Kind: aaa.TaskSwapExactIn,
			SwapExactIn: &aaa.SwapExactInTask{
				AssetIn: "GOLD", AssetOut: "SILVER",
				AmountIn: 10_000, MinAmountOut: 9_000,
			},
		},
	}

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{step},
		Policy:   aaa.AbortCycle,
	}, 100_000)
	led.SetBalance(in.Sovereign, "GOLD", 10_000)

	report := s.RunTick(ctx)
	require.Equal(t, 1, report.Succeeded)

	// Constant-product: 1e6 * 1e4 / (1e6 + 1e4) = 9900 out.
	got, err := led.Balance(ctx, in.Sovereign, "SILVER")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(9_900), got)
}

// TestFeeInsolvencyAbortsRegardlessOfPolicy verifies a sovereign that
// cannot cover the step fee aborts the cycle even under a continue
// override, charging nothing for the failed step.
func TestFeeInsolvencyAbortsRegardlessOfPolicy(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	step := noopStep()
	step.OnError = policyRef(aaa.ContinueNextStep)

	// Noop step fee is 105; fund below it.
	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{step, noopStep()},
		Policy:   aaa.ContinueNextStep,
	}, 50)

	report := s.RunTick(ctx)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Succeeded)
	assert.Equal(t, uint32(1), in.ConsecutiveFailures)
	assert.Equal(t, aaa.StateDeferredWaiting, in.RingState)

	// All-or-nothing: the uncovered fee moved nothing.
	sink, err := led.Balance(ctx, "fee-sink", "NATIVE")
	require.NoError(t, err)
	assert.Zero(t, sink)
	bal, err := led.Balance(ctx, in.Sovereign, "NATIVE")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(50), bal)
}

// TestTransferAllMovesFullBalance covers the transfer-all variant
// resolving the balance at execution time.
func TestTransferAllMovesFullBalance(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	step := aaa.Step{Task: aaa.Task{
		Kind:     aaa.TaskTransfer,
		Transfer: &aaa.TransferTask{Asset: "GOLD", To: "bob", All: true},
	}}

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{step},
		Policy:   aaa.AbortCycle,
	}, 10_000)
	led.SetBalance(in.Sovereign, "GOLD", 777)

	report := s.RunTick(ctx)
	require.Equal(t, 1, report.Succeeded)

	bob, err := led.Balance(ctx, "bob", "GOLD")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(777), bob)
	left, err := led.Balance(ctx, in.Sovereign, "GOLD")
	require.NoError(t, err)
	assert.Zero(t, left)
}

// TestSplitTransferWeightedShares distributes a balance 3:1 and leaves
// the rounding dust with the sovereign.
func TestSplitTransferWeightedShares(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	step := aaa.Step{Task: aaa.Task{
		Kind: aaa.TaskSplitTransfer,
		SplitTransfer: &aaa.SplitTransferTask{
			Asset: "GOLD",
			Parts: []aaa.SplitPart{
				{To: "bob", Weight: 3},
				{To: "carol", Weight: 1},
			},
		},
	}}

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{step},
		Policy:   aaa.AbortCycle,
	}, 10_000)
	led.SetBalance(in.Sovereign, "GOLD", 1_001)

	report := s.RunTick(ctx)
	require.Equal(t, 1, report.Succeeded)

	bob, _ := led.Balance(ctx, "bob", "GOLD")
	carol, _ := led.Balance(ctx, "carol", "GOLD")
	dust, _ := led.Balance(ctx, in.Sovereign, "GOLD")
	assert.Equal(t, aaa.Amount(750), bob)
	assert.Equal(t, aaa.Amount(250), carol)
	assert.Equal(t, aaa.Amount(1), dust)
}

// TestFailureStreakSaturates drives an instance past the failure cap
// and checks the counter saturates rather than wrapping, leaving the
// instance sweep-eligible.
func TestFailureStreakSaturates(t *testing.T) {
	ctx := context.Background()
	params := aaa.DefaultParams()
	params.MaxConsecutiveFailures = 2
	params.DeferredRetryDelay = 0
	s, reg, led := newWorld(t, params)

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: recurring(1),
		Pipeline: aaa.Pipeline{transferStep("GOLD", "bob", 500)},
		Policy:   aaa.AbortCycle,
	}, 1_000_000)

	for i := 0; i < 10; i++ {
		s.RunTick(ctx)
	}
	assert.Equal(t, uint32(3), in.ConsecutiveFailures)

	eligible, err := s.SweepEligible(ctx, in.ID)
	require.NoError(t, err)
	assert.True(t, eligible)
}
