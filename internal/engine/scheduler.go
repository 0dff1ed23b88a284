package engine

import (
	"context"
	"log/slog"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/registry"
)

// Scheduler is the explicit tick-processing context: it owns the
// rings, the fairness credits, the breaker flag, and the clock, and it
// is the sole mutator of instance state during a tick. It is threaded
// through the tick phases rather than accessed via ambient globals so
// the engine is testable standalone.
//
// INVARIANTS:
//   - An instance is a member of at most one ring at a time
//     (tracked via Instance.RingState, moved only here).
//   - |ready lane| <= MaxReadyRingLength per class;
//     |deferred| <= MaxDeferredRingLength.
//   - No phase exceeds its per-tick cap.
type Scheduler struct {
	params *aaa.Params
	reg    *registry.Registry
	assets aaa.AssetOps
	dex    aaa.DexOps

	clock  *TickClock
	tokens CycleTokenGenerator

	readySystem *readyRing
	readyUser   *readyRing
	deferred    *deferredRing

	// Smooth weighted round-robin credit per class; persists across
	// ticks so the admitted ratio converges over long windows.
	systemCredit int64
	userCredit   int64

	breaker bool
	metrics *Metrics
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock installs a pre-positioned clock, used when resuming from
// persisted state.
func WithClock(c *TickClock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithTokens installs a cycle-token generator. Tests use
// NewFixedGenerator for deterministic traces.
func WithTokens(g CycleTokenGenerator) Option {
	return func(s *Scheduler) { s.tokens = g }
}

// WithMetrics installs a metrics set registered on a caller-owned
// prometheus registerer.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New creates a Scheduler over a registry and the host's capability
// adapters. The registry's parameter set governs all bounds.
func New(reg *registry.Registry, assets aaa.AssetOps, dex aaa.DexOps, opts ...Option) *Scheduler {
	params := reg.Params()
	s := &Scheduler{
		params:      params,
		reg:         reg,
		assets:      assets,
		dex:         dex,
		clock:       NewTickClock(),
		tokens:      UUIDv7Generator{},
		readySystem: newReadyRing(params.MaxReadyRingLength),
		readyUser:   newReadyRing(params.MaxReadyRingLength),
		deferred:    newDeferredRing(params.MaxDeferredRingLength),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// TickReport summarizes one processed tick for callers and tests.
type TickReport struct {
	Tick        aaa.Tick   `json:"tick"`
	Enqueued    int        `json:"enqueued"`
	Deferred    int        `json:"deferred"`
	Executed    int        `json:"executed"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Promoted    int        `json:"promoted"`
	RentDebited aaa.Amount `json:"rent_debited"`
}

// RunTick advances the clock and processes one tick: rent accrual,
// trigger evaluation, budgeted execution, deferred promotion.
//
// Single-writer: must not be called concurrently. The context is
// passed to adapter calls; the engine itself never blocks on it.
func (s *Scheduler) RunTick(ctx context.Context) TickReport {
	now := s.clock.Next()
	report := TickReport{Tick: now}

	report.RentDebited = s.accrueRent(ctx, now)
	s.evaluateTriggers(now, &report)
	s.runExecutionPhase(ctx, now, &report)
	s.drainDeferred(now, &report)

	s.metrics.ObserveRings(s.readySystem.Len(), s.readyUser.Len(), s.deferred.Len())

	slog.Debug("tick processed",
		"tick", now,
		"enqueued", report.Enqueued,
		"executed", report.Executed,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"promoted", report.Promoted,
	)
	return report
}

// Tick returns the last processed tick.
func (s *Scheduler) Tick() aaa.Tick {
	return s.clock.Current()
}

// SetCircuitBreaker engages or releases the global circuit breaker.
// While engaged, the trigger evaluator queues nothing and the fairness
// controller pops nothing; the deferred drainer keeps promoting.
// Privilege checking is the dispatch layer's concern.
func (s *Scheduler) SetCircuitBreaker(engaged bool) {
	if s.breaker != engaged {
		s.breaker = engaged
		slog.Warn("global circuit breaker", "engaged", engaged)
	}
}

// CircuitBreaker reports the breaker state.
func (s *Scheduler) CircuitBreaker() bool {
	return s.breaker
}

// RingLengths returns current ring occupancy (system ready, user
// ready, deferred). Operational visibility query.
func (s *Scheduler) RingLengths() (int, int, int) {
	return s.readySystem.Len(), s.readyUser.Len(), s.deferred.Len()
}

// readyFor returns the ready lane of a class.
func (s *Scheduler) readyFor(c aaa.Class) *readyRing {
	if c == aaa.ClassSystem {
		return s.readySystem
	}
	return s.readyUser
}

// RingSnapshot captures ring contents for persistence.
type RingSnapshot struct {
	ReadySystem []aaa.ID        `json:"ready_system"`
	ReadyUser   []aaa.ID        `json:"ready_user"`
	Deferred    []DeferredEntry `json:"deferred"`
}

// ExportRings returns the ring contents in FIFO order.
func (s *Scheduler) ExportRings() RingSnapshot {
	return RingSnapshot{
		ReadySystem: s.readySystem.Snapshot(),
		ReadyUser:   s.readyUser.Snapshot(),
		Deferred:    s.deferred.Snapshot(),
	}
}

// RestoreRings replaces ring contents from persisted state.
func (s *Scheduler) RestoreRings(snap RingSnapshot) {
	s.readySystem.Restore(snap.ReadySystem)
	s.readyUser.Restore(snap.ReadyUser)
	s.deferred.Restore(snap.Deferred)
}
