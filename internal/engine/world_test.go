package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/ledger"
	"github.com/cindergrid/automaton/internal/registry"
)

// newWorld assembles a scheduler over an in-memory ledger and a fresh
// registry, with deterministic cycle tokens.
func newWorld(t *testing.T, params aaa.Params) (*Scheduler, *registry.Registry, *ledger.Ledger) {
	t.Helper()
	require.NoError(t, params.Validate())

	reg := registry.New(params)
	led := ledger.New()
	s := New(reg, led, led, WithTokens(NewFixedGenerator()))
	return s, reg, led
}

// mustCreate registers an instance at tick zero and funds its
// sovereign account with the fee asset.
func mustCreate(t *testing.T, reg *registry.Registry, led *ledger.Ledger, spec registry.CreateSpec, feeFunds aaa.Amount) *aaa.Instance {
	t.Helper()
	in, err := reg.Create(spec, 0)
	require.NoError(t, err)
	if feeFunds > 0 {
		led.SetBalance(in.Sovereign, reg.Params().FeeAsset, feeFunds)
	}
	return in
}

func recurring(cooldown aaa.Tick) aaa.Schedule {
	return aaa.Schedule{Trigger: aaa.TriggerRecurring, Cooldown: cooldown}
}

func manual(cooldown aaa.Tick) aaa.Schedule {
	return aaa.Schedule{Trigger: aaa.TriggerManual, Cooldown: cooldown}
}

func noopStep() aaa.Step {
	return aaa.Step{Task: aaa.Task{Kind: aaa.TaskNoop}}
}

func transferStep(asset aaa.Asset, to aaa.Account, amount aaa.Amount) aaa.Step {
	return aaa.Step{Task: aaa.Task{
		Kind:     aaa.TaskTransfer,
		Transfer: &aaa.TransferTask{Asset: asset, To: to, Amount: amount},
	}}
}

func policyRef(p aaa.ErrorPolicy) *aaa.ErrorPolicy {
	return &p
}
