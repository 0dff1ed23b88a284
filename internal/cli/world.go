package cli

import (
	"context"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/engine"
	"github.com/cindergrid/automaton/internal/ledger"
	"github.com/cindergrid/automaton/internal/registry"
	"github.com/cindergrid/automaton/internal/store"
)

// World is a fully assembled engine over a snapshot database: every
// command opens one, mutates it, saves, and closes.
type World struct {
	Store     *store.Store
	Registry  *registry.Registry
	Ledger    *ledger.Ledger
	Scheduler *engine.Scheduler
}

// OpenWorld opens the snapshot database and reassembles the engine
// from its last saved state. A missing database starts a fresh world.
// Engine options are forwarded to the scheduler constructor.
func OpenWorld(ctx context.Context, path string, opts ...engine.Option) (*World, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	snap, err := st.LoadSnapshot(ctx)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}

	reg := registry.New(aaa.DefaultParams())
	reg.Restore(snap.Instances, snap.NextID)

	led := ledger.New()
	led.RestoreBalances(snap.Balances)
	led.RestorePools(snap.Pools)

	engineOpts := append([]engine.Option{
		engine.WithClock(engine.NewTickClockAt(snap.Tick)),
	}, opts...)
	sched := engine.New(reg, led, led, engineOpts...)
	sched.SetCircuitBreaker(snap.Breaker)
	sched.RestoreRings(snap.Rings)

	return &World{
		Store:     st,
		Registry:  reg,
		Ledger:    led,
		Scheduler: sched,
	}, nil
}

// Save persists the current world state.
func (w *World) Save(ctx context.Context) error {
	snap := store.Snapshot{
		Tick:      w.Scheduler.Tick(),
		Breaker:   w.Scheduler.CircuitBreaker(),
		NextID:    w.Registry.NextID(),
		Instances: w.Registry.Export(),
		Rings:     w.Scheduler.ExportRings(),
		Balances:  w.Ledger.ExportBalances(),
		Pools:     w.Ledger.ExportPools(),
	}
	if err := w.Store.SaveSnapshot(ctx, snap); err != nil {
		return WrapExitError(ExitCommandError, "failed to save snapshot", err)
	}
	return nil
}

// Close closes the underlying database.
func (w *World) Close() error {
	return w.Store.Close()
}
