// Package engine implements the tick-driven automation scheduler: the
// trigger evaluator, the bounded ready/deferred admission rings, the
// fairness-weighted admission controller, the per-step pipeline
// executor, the rent and solvency manager, and the deferred retry
// drainer.
//
// ARCHITECTURE:
//
// Single writer per tick:
// The host drives the engine with discrete ticks (one per block).
// RunTick performs all mutation for a tick on the calling goroutine;
// the engine is serialized with the host's block-finalization boundary
// and holds no locks. Nothing blocks or suspends: retries are always
// expressed as future-tick re-admission.
//
// Tick phases:
//  1. Rent accrual (and periodic debit to the fee sink)
//  2. Trigger evaluation: due, unpaused instances enqueue to their
//     class's ready lane (cheap phase, cost independent of ring size)
//  3. Execution: the fairness controller pops a bounded, budgeted mix
//     of system and user instances and runs their pipelines
//  4. Deferred drain: a bounded number of cooled-down deferred entries
//     promote back to ready, FIFO
//
// Bounded cost:
// Every collection is fixed-capacity and every phase has a hard
// per-tick cap (ring bounds, per-class execution caps, the weight
// budget, the promotion cap), which keeps worst-case per-tick cost
// statically analyzable.
//
// Atomic invocations:
// A pipeline either finishes its admissible steps in one call or
// aborts wholesale. Cancellation (pause/close) is observed only at
// admission time: popped IDs that no longer resolve to an admissible
// instance are dropped lazily, never preempted mid-pipeline.
package engine
