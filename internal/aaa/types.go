package aaa

// ID identifies an AAA instance. IDs are allocated by the registry from
// a monotonically increasing 64-bit counter and are never reused, even
// after the instance is closed.
type ID int64

// Account identifies a ledger account. Accounts are opaque strings to
// the engine; the host ledger decides their shape. All accounts passing
// through the public API are NFC-normalized (see NormalizeAccount).
type Account string

// Asset identifies a fungible token. Like accounts, assets are opaque
// NFC-normalized strings.
type Asset string

// Amount is a token quantity. Balances, fees, and rent are all
// unsigned; arithmetic that could underflow is guarded explicitly.
type Amount uint64

// Tick is the engine's discrete logical time unit (one host block).
// All scheduling decisions use ticks, never wall-clock time.
type Tick uint64

// Weight is an abstract execution-cost unit. The fairness controller
// budgets admissions in weight; fees are derived from weight via
// Params.FeePerWeight.
type Weight uint64

// Class partitions instances into the two fairness classes.
type Class int

const (
	// ClassUser is the unprivileged class: tighter pipeline bound,
	// privileged task kinds forbidden, solvency-swept below
	// MinUserBalance.
	ClassUser Class = iota + 1
	// ClassSystem is the privileged class created through governance or
	// chain tooling. System pipelines may use privileged task kinds.
	ClassSystem
)

// String returns the class name for logs and CLI output.
func (c Class) String() string {
	switch c {
	case ClassUser:
		return "user"
	case ClassSystem:
		return "system"
	default:
		return "unknown"
	}
}

// RingState tracks which scheduling ring (if any) an instance currently
// occupies. An instance is a member of at most one ring at a time.
type RingState int

const (
	// StateIdle: not queued; becomes due via the trigger evaluator.
	StateIdle RingState = iota + 1
	// StateReadyQueued: waiting in a ready lane for fairness admission.
	StateReadyQueued
	// StateExecuting: popped this tick, cycle in progress.
	StateExecuting
	// StateDeferredWaiting: recoverable failure, waiting for the
	// deferred drainer to promote it back to ready.
	StateDeferredWaiting
)

// String returns the state name for logs and CLI output.
func (s RingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReadyQueued:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateDeferredWaiting:
		return "deferred"
	default:
		return "unknown"
	}
}

// ErrorPolicy governs what happens when a step's task dispatch fails.
type ErrorPolicy int

const (
	// AbortCycle halts the cycle immediately: no further steps run this
	// invocation, the cycle nonce is unchanged, consecutive failures
	// increment, and the instance moves to DeferredWaiting.
	AbortCycle ErrorPolicy = iota + 1
	// ContinueNextStep records the failure and proceeds to the next
	// step. The cycle can still complete successfully.
	ContinueNextStep
)

// String returns the policy name for logs and serialized definitions.
func (p ErrorPolicy) String() string {
	switch p {
	case AbortCycle:
		return "abort"
	case ContinueNextStep:
		return "continue"
	default:
		return "unknown"
	}
}

// TriggerKind selects how an instance becomes due.
type TriggerKind int

const (
	// TriggerManual: due only when the owner sets the manual-trigger
	// flag, still gated by the cooldown window.
	TriggerManual TriggerKind = iota + 1
	// TriggerRecurring: due whenever the cooldown window has elapsed
	// since the last successful run.
	TriggerRecurring
)

// String returns the trigger name for logs and serialized definitions.
func (t TriggerKind) String() string {
	switch t {
	case TriggerManual:
		return "manual"
	case TriggerRecurring:
		return "recurring"
	default:
		return "unknown"
	}
}

// Schedule describes when an instance becomes due.
//
// Cooldown applies to both trigger kinds once a cycle has completed: a
// manual trigger set before LastRun+Cooldown does not admit the
// instance early, it stays pending until the window elapses. A
// never-run instance has no window to wait out.
type Schedule struct {
	Trigger  TriggerKind `json:"trigger"`
	Cooldown Tick        `json:"cooldown"`
}

// Step is one entry of a pipeline: an AND-combined condition gate, one
// task, and an optional error-policy override.
//
// A false condition SKIPS the step; it is not a failure. Only task
// dispatch errors (and fee insolvency) engage the error policy.
type Step struct {
	Conditions []Condition  `json:"conditions,omitempty"`
	Task       Task         `json:"task"`
	OnError    *ErrorPolicy `json:"on_error,omitempty"`
}

// EffectivePolicy resolves the step's error policy: the step override
// if present, else the instance default.
func (s *Step) EffectivePolicy(def ErrorPolicy) ErrorPolicy {
	if s.OnError != nil {
		return *s.OnError
	}
	return def
}

// Pipeline is the bounded ordered step list of an instance. Step order
// is fixed execution order.
type Pipeline []Step

// Instance is the full record of one AAA actor.
//
// Mutated by the executor (CycleNonce, ConsecutiveFailures, LastRun,
// RingState), by the rent manager (RentAccrued), and by owner mutation
// calls. Destroyed only via explicit close or permissionless sweep.
type Instance struct {
	ID        ID      `json:"id"`
	Owner     Account `json:"owner"`
	Sovereign Account `json:"sovereign"`
	Class     Class   `json:"class"`

	// Mutable gates the update_* entry points. Immutable instances keep
	// the exact pipeline and schedule they were created with.
	Mutable bool `json:"mutable"`

	Schedule Schedule    `json:"schedule"`
	Pipeline Pipeline    `json:"pipeline"`
	Policy   ErrorPolicy `json:"policy"`

	Paused        bool `json:"paused"`
	ManualPending bool `json:"manual_pending"`

	// CycleNonce counts successful cycles only.
	CycleNonce uint64 `json:"cycle_nonce"`
	// ConsecutiveFailures resets to zero on any successful cycle.
	// Exceeding Params.MaxConsecutiveFailures makes the instance
	// eligible for permissionless sweep; nothing is deleted implicitly.
	ConsecutiveFailures uint32 `json:"consecutive_failures"`

	// OwnerSlot indexes this owner's bounded slot table.
	OwnerSlot uint32 `json:"owner_slot"`

	// RefundableAssets are swept back to the refund target on close,
	// bounded by Params.MaxRefundableAssets.
	RefundableAssets []Asset `json:"refundable_assets,omitempty"`
	// RefundTo overrides the owner as the close-time refund target.
	RefundTo *Account `json:"refund_to,omitempty"`

	// HasRun is set on the first completed cycle. Until then the
	// cooldown gate does not apply and LastRun carries the creation
	// tick only as a reference point.
	HasRun      bool   `json:"has_run"`
	LastRun     Tick   `json:"last_run"`
	RentAccrued Amount `json:"rent_accrued"`

	RingState RingState `json:"ring_state"`
}

// RefundTarget returns the account refundable assets are swept to on
// close: RefundTo when set, else the owner.
func (in *Instance) RefundTarget() Account {
	if in.RefundTo != nil {
		return *in.RefundTo
	}
	return in.Owner
}

// DueAt reports whether the instance's schedule makes it due at the
// given tick. Pause, breaker, and ring-state gating are the trigger
// evaluator's concern; this is purely the schedule arithmetic.
//
// The cooldown window is measured from the last completed cycle. An
// instance that has never completed one carries no window: a freshly
// created instance can fire on the very next tick.
func (in *Instance) DueAt(now Tick) bool {
	if in.HasRun && now < in.LastRun+in.Schedule.Cooldown {
		return false
	}
	// A pending manual trigger makes any instance due once the cooldown
	// window has elapsed, regardless of trigger kind.
	if in.ManualPending {
		return true
	}
	return in.Schedule.Trigger == TriggerRecurring
}
