package engine

import (
	"log/slog"

	"github.com/cindergrid/automaton/internal/aaa"
)

// drainDeferred promotes cooled-down deferred entries back into their
// ready lanes, at most MaxDeferredRetriesPerTick per tick.
//
// The drain is strict FIFO with head-of-line blocking: if the head
// entry has not cooled down yet, or its ready lane has no room, the
// drain stops for this tick. Stale entries (instance closed, or no
// longer DeferredWaiting) are dropped lazily and do not count against
// the per-tick promotion cap. The drainer runs even while the circuit
// breaker is engaged; promotion only repositions queued work, it
// executes nothing.
func (s *Scheduler) drainDeferred(now aaa.Tick, report *TickReport) {
	promoted := 0
	for promoted < s.params.MaxDeferredRetriesPerTick {
		entry, ok := s.deferred.Peek()
		if !ok {
			return
		}

		in, exists := s.reg.Get(entry.ID)
		if !exists || in.RingState != aaa.StateDeferredWaiting {
			s.deferred.Pop()
			continue
		}
		if in.Paused {
			s.deferred.Pop()
			in.RingState = aaa.StateIdle
			slog.Debug("paused instance dropped from deferred", "id", entry.ID)
			continue
		}

		if entry.EarliestRetry > now {
			return
		}
		if err := s.readyFor(in.Class).Push(in.ID); err != nil {
			// Lane still full; the head keeps its position.
			return
		}

		s.deferred.Pop()
		in.RingState = aaa.StateReadyQueued
		promoted++
		report.Promoted++
		slog.Debug("deferred instance promoted", "id", entry.ID, "class", in.Class, "tick", now)
	}
}
