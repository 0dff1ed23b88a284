package engine

import (
	"log/slog"

	"github.com/cindergrid/automaton/internal/aaa"
)

// evaluateTriggers is the cheap phase: it walks instances in ID order
// and enqueues every due, unpaused, idle instance. Its cost depends on
// the instance count, never on ring occupancy.
//
// Overflow policy: a due instance that does not fit its ready lane is
// pushed to the deferred ring (retryable immediately) instead of being
// dropped. If the deferred ring is also full, the instance stays Idle
// until its next natural due cycle: delayed automation, never lost
// state.
func (s *Scheduler) evaluateTriggers(now aaa.Tick, report *TickReport) {
	if s.breaker {
		return
	}
	for _, id := range s.reg.IDs() {
		in, ok := s.reg.Get(id)
		if !ok {
			continue
		}
		if in.RingState != aaa.StateIdle || in.Paused || !in.DueAt(now) {
			continue
		}
		s.admit(in, now, report)
	}
}

// admit moves a due instance into a ring. Consuming the manual-trigger
// flag happens here, at queue time: a manual trigger is spent once the
// instance is queued, whether or not the cycle later succeeds.
func (s *Scheduler) admit(in *aaa.Instance, now aaa.Tick, report *TickReport) {
	if err := s.readyFor(in.Class).Push(in.ID); err == nil {
		in.RingState = aaa.StateReadyQueued
		in.ManualPending = false
		report.Enqueued++
		s.metrics.ObserveAdmission(in.Class)
		slog.Debug("instance enqueued", "id", in.ID, "class", in.Class, "tick", now)
		return
	}

	// Ready lane full: overflow to deferred, promotable immediately.
	if err := s.deferred.Push(DeferredEntry{ID: in.ID, EarliestRetry: now}); err == nil {
		in.RingState = aaa.StateDeferredWaiting
		in.ManualPending = false
		report.Deferred++
		slog.Debug("ready lane full, instance deferred", "id", in.ID, "class", in.Class, "tick", now)
		return
	}

	// Both rings full. Explicit backpressure: the instance remains
	// Idle and will become due again on its own schedule.
	slog.Warn("admission rings full, instance stays idle", "id", in.ID, "class", in.Class, "tick", now)
}
