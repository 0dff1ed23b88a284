package engine

import (
	"sync/atomic"

	"github.com/cindergrid/automaton/internal/aaa"
)

// TickClock is the engine's monotonic logical clock. One increment per
// host block; all scheduling arithmetic uses tick numbers from this
// clock, never wall-clock time.
//
// Thread-safety: atomic, though the single-writer tick discipline
// means only one goroutine advances it.
type TickClock struct {
	tick atomic.Uint64
}

// NewTickClock creates a clock starting before tick 1 (the first
// Next() returns 1).
func NewTickClock() *TickClock {
	return &TickClock{}
}

// NewTickClockAt creates a clock resuming from a persisted position.
// The next tick processed will be current+1.
func NewTickClockAt(current aaa.Tick) *TickClock {
	c := &TickClock{}
	c.tick.Store(uint64(current))
	return c
}

// Next advances the clock and returns the new tick number.
func (c *TickClock) Next() aaa.Tick {
	return aaa.Tick(c.tick.Add(1))
}

// Current returns the last processed tick without advancing.
func (c *TickClock) Current() aaa.Tick {
	return aaa.Tick(c.tick.Load())
}
