package engine

import (
	"context"
	"log/slog"

	"github.com/cindergrid/automaton/internal/aaa"
)

// runExecutionPhase drains the ready lanes for one tick: a smooth
// integer weighted round-robin between the system and user classes,
// additionally capped per class and by the remaining weight budget.
//
// Before each pop the head instance's estimated cycle weight is
// checked against the remaining budget; the phase stops once no
// admissible lane's head fits. Over a long window the admitted ratio
// between classes tracks FairnessWeightSystem : FairnessWeightUser
// because the round-robin credits persist across ticks.
func (s *Scheduler) runExecutionPhase(ctx context.Context, now aaa.Tick, report *TickReport) {
	if s.breaker {
		return
	}

	budget := s.params.EngineBudget()
	systemLeft := s.params.MaxSystemExecutionsPerTick
	userLeft := s.params.MaxUserExecutionsPerTick

	for {
		systemHead, systemOK := s.admissibleHead(s.readySystem, systemLeft, budget)
		userHead, userOK := s.admissibleHead(s.readyUser, userLeft, budget)
		if !systemOK && !userOK {
			return
		}

		class := s.pickClass(systemOK, userOK)

		var in *aaa.Instance
		var weight aaa.Weight
		if class == aaa.ClassSystem {
			in, weight = systemHead, s.params.CycleWeight(systemHead.Pipeline)
			s.readySystem.Pop()
			systemLeft--
		} else {
			in, weight = userHead, s.params.CycleWeight(userHead.Pipeline)
			s.readyUser.Pop()
			userLeft--
		}

		budget -= weight
		in.RingState = aaa.StateExecuting
		report.Executed++

		s.executeCycle(ctx, in, now, report)
	}
}

// admissibleHead resolves the lane's head to an executable instance,
// lazily dropping stale entries (closed, paused, or state-mismatched
// instances; cancellation is observed here, at admission time).
// Returns false when the lane is empty, the class cap is spent, or the
// head's cycle weight exceeds the remaining budget.
func (s *Scheduler) admissibleHead(lane *readyRing, capLeft int, budget aaa.Weight) (*aaa.Instance, bool) {
	for {
		id, ok := lane.Peek()
		if !ok {
			return nil, false
		}

		in, exists := s.reg.Get(id)
		if !exists || in.RingState != aaa.StateReadyQueued {
			// Closed while queued, or bookkeeping already moved it.
			lane.Pop()
			continue
		}
		if in.Paused {
			// Pause gates admission; the queued entry is spent.
			lane.Pop()
			in.RingState = aaa.StateIdle
			slog.Debug("paused instance dropped at admission", "id", id)
			continue
		}

		if capLeft <= 0 {
			return nil, false
		}
		if s.params.CycleWeight(in.Pipeline) > budget {
			return nil, false
		}
		return in, true
	}
}

// pickClass runs one smooth weighted round-robin selection among the
// admissible classes. Credits accumulate by configured weight and the
// winner pays back the combined weight, which converges to the
// configured ratio without starving either class.
func (s *Scheduler) pickClass(systemOK, userOK bool) aaa.Class {
	switch {
	case systemOK && !userOK:
		return aaa.ClassSystem
	case userOK && !systemOK:
		return aaa.ClassUser
	}

	s.systemCredit += int64(s.params.FairnessWeightSystem)
	s.userCredit += int64(s.params.FairnessWeightUser)
	total := int64(s.params.FairnessWeightSystem) + int64(s.params.FairnessWeightUser)

	if s.systemCredit >= s.userCredit {
		s.systemCredit -= total
		return aaa.ClassSystem
	}
	s.userCredit -= total
	return aaa.ClassUser
}
