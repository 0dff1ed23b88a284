package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/registry"
)

// TestRentAccruesAndCaps runs idle ticks and checks the accrual cap.
func TestRentAccruesAndCaps(t *testing.T) {
	ctx := context.Background()
	params := aaa.DefaultParams()
	params.MaxRentAccrual = 3
	params.RentDebitPeriod = 1_000
	s, reg, led := newWorld(t, params)

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 10_000)

	for i := 0; i < 5; i++ {
		s.RunTick(ctx)
	}
	assert.Equal(t, aaa.Amount(3), in.RentAccrued)
}

// TestRentDebitsAtPeriod checks the periodic settlement: accrued rent
// moves to the fee sink at the period boundary and the accrual
// resets by the debited amount.
func TestRentDebitsAtPeriod(t *testing.T) {
	ctx := context.Background()
	params := aaa.DefaultParams()
	params.RentDebitPeriod = 3
	s, reg, led := newWorld(t, params)

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 10_000)

	s.RunTick(ctx)
	s.RunTick(ctx)
	report := s.RunTick(ctx)

	assert.Equal(t, aaa.Amount(3), report.RentDebited)
	assert.Zero(t, in.RentAccrued)

	sink, err := led.Balance(ctx, "fee-sink", "NATIVE")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(3), sink)
	bal, err := led.Balance(ctx, in.Sovereign, "NATIVE")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(9_997), bal)
}

// TestRentPartialDebitKeepsRemainder verifies the debit takes
// min(accrued, balance): the shortfall stays accrued.
func TestRentPartialDebitKeepsRemainder(t *testing.T) {
	ctx := context.Background()
	params := aaa.DefaultParams()
	params.RentPerTick = 10
	params.RentDebitPeriod = 1
	s, reg, led := newWorld(t, params)

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 4)

	report := s.RunTick(ctx)
	assert.Equal(t, aaa.Amount(4), report.RentDebited)
	assert.Equal(t, aaa.Amount(6), in.RentAccrued)

	bal, err := led.Balance(ctx, in.Sovereign, "NATIVE")
	require.NoError(t, err)
	assert.Zero(t, bal)
}

// TestSweepEligibility covers the three reclamation rules: the
// failure cap applies to every class, the solvency rule to user
// instances only, and healthy instances are never sweepable.
func TestSweepEligibility(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	healthy := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 10_000)

	// Broke user with rent outstanding.
	insolvent := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "bella",
		Class:    aaa.ClassUser,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 0)
	insolvent.RentAccrued = 5

	// Rent settled but the balance sits below the solvency floor.
	underfloor := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "dora",
		Class:    aaa.ClassUser,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 50)

	// Broke system instance: exempt from the solvency rule.
	system := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "operator",
		Class:    aaa.ClassSystem,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 0)
	system.RentAccrued = 5

	// Past the failure cap, class irrelevant.
	failing := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "carol",
		Class:    aaa.ClassUser,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 10_000)
	failing.ConsecutiveFailures = 6

	for in, want := range map[*aaa.Instance]bool{
		healthy:    false,
		insolvent:  true,
		underfloor: true,
		system:     false,
		failing:    true,
	} {
		got, err := s.SweepEligible(ctx, in.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got, "instance %d", in.ID)
	}
}

// TestSweepRefundsAndCloses sweeps an eligible instance and checks the
// refundable holdings reach the refund target, the slot frees, and the
// record is gone.
func TestSweepRefundsAndCloses(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:        "alice",
		Class:        aaa.ClassUser,
		Schedule:     manual(1),
		Pipeline:     aaa.Pipeline{noopStep()},
		Policy:       aaa.AbortCycle,
		RefundAssets: []aaa.Asset{"GOLD"},
	}, 0)
	in.RentAccrued = 5
	led.SetBalance(in.Sovereign, "GOLD", 250)

	// Any caller may sweep.
	require.NoError(t, s.Sweep(ctx, "random-keeper", in.ID))

	gold, err := led.Balance(ctx, "alice", "GOLD")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(250), gold)

	_, ok := reg.Get(in.ID)
	assert.False(t, ok)
	assert.Zero(t, reg.OwnedCount("alice"))
}

// TestSweepRejectsHealthyInstance checks the permissionless entry
// point refuses a solvent, below-cap instance with a typed error.
func TestSweepRejectsHealthyInstance(t *testing.T) {
	ctx := context.Background()
	s, reg, led := newWorld(t, aaa.DefaultParams())

	in := mustCreate(t, reg, led, registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: manual(1),
		Pipeline: aaa.Pipeline{noopStep()},
		Policy:   aaa.AbortCycle,
	}, 10_000)

	err := s.Sweep(ctx, "random-keeper", in.ID)
	require.Error(t, err)
	assert.True(t, IsNotSweepable(err))

	_, ok := reg.Get(in.ID)
	assert.True(t, ok)
}
