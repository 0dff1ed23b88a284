package aaa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInstanceDueAt tests the schedule arithmetic for both trigger
// kinds, including the cooldown gate on manual triggers.
func TestInstanceDueAt(t *testing.T) {
	recurring := Instance{
		Schedule: Schedule{Trigger: TriggerRecurring, Cooldown: 10},
		HasRun:   true,
		LastRun:  100,
	}
	assert.False(t, recurring.DueAt(105), "inside cooldown window")
	assert.True(t, recurring.DueAt(110), "cooldown elapsed")
	assert.True(t, recurring.DueAt(200))

	manual := Instance{
		Schedule: Schedule{Trigger: TriggerManual, Cooldown: 10},
		HasRun:   true,
		LastRun:  100,
	}
	assert.False(t, manual.DueAt(200), "manual without pending flag is never due")

	manual.ManualPending = true
	assert.False(t, manual.DueAt(105), "manual trigger still gated by cooldown")
	assert.True(t, manual.DueAt(110))

	// A pending manual trigger also fires a recurring instance.
	recurring.ManualPending = true
	assert.True(t, recurring.DueAt(110))
}

// TestInstanceDueAt_NeverRun tests that a never-run instance has no
// cooldown window: it is due immediately once its trigger allows.
func TestInstanceDueAt_NeverRun(t *testing.T) {
	fresh := Instance{
		Schedule: Schedule{Trigger: TriggerRecurring, Cooldown: 10},
		LastRun:  100, // creation tick
	}
	assert.True(t, fresh.DueAt(101), "no completed cycle, no window")

	manual := Instance{
		Schedule: Schedule{Trigger: TriggerManual, Cooldown: 10},
		LastRun:  100,
	}
	assert.False(t, manual.DueAt(101), "still needs a pending trigger")
	manual.ManualPending = true
	assert.True(t, manual.DueAt(101), "first manual trigger fires without waiting")
}

// TestStepEffectivePolicy tests override-vs-default resolution.
func TestStepEffectivePolicy(t *testing.T) {
	step := Step{Task: Task{Kind: TaskNoop}}
	assert.Equal(t, AbortCycle, step.EffectivePolicy(AbortCycle))
	assert.Equal(t, ContinueNextStep, step.EffectivePolicy(ContinueNextStep))

	override := AbortCycle
	step.OnError = &override
	assert.Equal(t, AbortCycle, step.EffectivePolicy(ContinueNextStep))
}

// TestRefundTarget tests refund-target resolution.
func TestRefundTarget(t *testing.T) {
	in := Instance{Owner: "alice"}
	assert.Equal(t, Account("alice"), in.RefundTarget())

	target := Account("cold-wallet")
	in.RefundTo = &target
	assert.Equal(t, target, in.RefundTarget())
}
