package aaa

import "fmt"

// Params is the complete parameter set of the automation engine. One
// Params value is fixed for the lifetime of a scheduler; all bounds are
// hard caps, never hints.
//
// Fee units are Amount of FeeAsset; admission budgeting uses Weight.
type Params struct {
	// Registry bounds.
	MaxOwnedAAAs        int `json:"max_owned_aaas"`
	MaxOwnerSlots       int `json:"max_owner_slots"`
	MaxRefundableAssets int `json:"max_refundable_assets"`

	// Pipeline shape bounds per class.
	MaxPipelineLengthUser   int `json:"max_pipeline_length_user"`
	MaxPipelineLengthSystem int `json:"max_pipeline_length_system"`
	MaxConditionsPerStep    int `json:"max_conditions_per_step"`

	// Ring bounds.
	MaxReadyRingLength        int `json:"max_ready_ring_length"`
	MaxDeferredRingLength     int `json:"max_deferred_ring_length"`
	MaxDeferredRetriesPerTick int `json:"max_deferred_retries_per_tick"`

	// Fairness admission.
	FairnessWeightSystem       uint32 `json:"fairness_weight_system"`
	FairnessWeightUser         uint32 `json:"fairness_weight_user"`
	MaxSystemExecutionsPerTick int    `json:"max_system_executions_per_tick"`
	MaxUserExecutionsPerTick   int    `json:"max_user_executions_per_tick"`
	// TickWeightBudget is the host's total per-tick compute budget;
	// the engine may spend AAABudgetPct percent of it.
	TickWeightBudget Weight `json:"tick_weight_budget"`
	AAABudgetPct     uint32 `json:"aaa_budget_pct"`

	// Failure and retry behavior.
	MaxConsecutiveFailures uint32 `json:"max_consecutive_failures"`
	// DeferredRetryDelay is the earliest-retry distance applied to
	// entries deferred by a recoverable failure.
	DeferredRetryDelay Tick `json:"deferred_retry_delay"`

	// Rent and solvency.
	RentPerTick    Amount `json:"rent_per_tick"`
	MaxRentAccrual Amount `json:"max_rent_accrual"`
	// RentDebitPeriod: accrued rent is debited to the fee sink every
	// this many ticks.
	RentDebitPeriod Tick   `json:"rent_debit_period"`
	MinUserBalance  Amount `json:"min_user_balance"`

	// Fees.
	FeeAsset         Asset   `json:"fee_asset"`
	FeeSink          Account `json:"fee_sink"`
	ConditionReadFee Amount  `json:"condition_read_fee"`
	StepBaseFee      Amount  `json:"step_base_fee"`
	FeePerWeight     Amount  `json:"fee_per_weight"`

	// StepBaseWeight is the admission-budget overhead per step,
	// independent of task kind.
	StepBaseWeight Weight `json:"step_base_weight"`
	// TaskWeights is the per-kind weight table used both for admission
	// budgeting and for weight-derived step fees.
	TaskWeights map[TaskKind]Weight `json:"task_weights"`
}

// DefaultParams returns the reference parameterization. Hosts are
// expected to tune these; tests rely on the defaults being internally
// consistent (Validate passes).
func DefaultParams() Params {
	return Params{
		MaxOwnedAAAs:        8,
		MaxOwnerSlots:       16,
		MaxRefundableAssets: 8,

		MaxPipelineLengthUser:   8,
		MaxPipelineLengthSystem: 16,
		MaxConditionsPerStep:    4,

		MaxReadyRingLength:        256,
		MaxDeferredRingLength:     256,
		MaxDeferredRetriesPerTick: 8,

		FairnessWeightSystem:       3,
		FairnessWeightUser:         1,
		MaxSystemExecutionsPerTick: 16,
		MaxUserExecutionsPerTick:   16,
		TickWeightBudget:           1_000_000,
		AAABudgetPct:               20,

		MaxConsecutiveFailures: 5,
		DeferredRetryDelay:     3,

		RentPerTick:     1,
		MaxRentAccrual:  1_000,
		RentDebitPeriod: 10,
		MinUserBalance:  100,

		FeeAsset:         "NATIVE",
		FeeSink:          "fee-sink",
		ConditionReadFee: 1,
		StepBaseFee:      5,
		FeePerWeight:     1,

		StepBaseWeight: 1_000,
		TaskWeights: map[TaskKind]Weight{
			TaskNoop:            100,
			TaskTransfer:        2_000,
			TaskSplitTransfer:   4_000,
			TaskSwapExactIn:     6_000,
			TaskSwapExactOut:    6_000,
			TaskAddLiquidity:    8_000,
			TaskRemoveLiquidity: 8_000,
			TaskBurn:            2_000,
			TaskMint:            2_000,
		},
	}
}

// Validate checks internal consistency of the parameter set.
func (p *Params) Validate() error {
	if p.MaxOwnedAAAs <= 0 || p.MaxOwnerSlots <= 0 {
		return fmt.Errorf("owner bounds must be positive")
	}
	if p.MaxOwnedAAAs > p.MaxOwnerSlots {
		return fmt.Errorf("MaxOwnedAAAs (%d) exceeds MaxOwnerSlots (%d)", p.MaxOwnedAAAs, p.MaxOwnerSlots)
	}
	if p.MaxPipelineLengthUser <= 0 || p.MaxPipelineLengthSystem <= 0 || p.MaxConditionsPerStep <= 0 {
		return fmt.Errorf("pipeline shape bounds must be positive")
	}
	if p.MaxPipelineLengthUser > p.MaxPipelineLengthSystem {
		return fmt.Errorf("user pipeline bound (%d) exceeds system bound (%d)", p.MaxPipelineLengthUser, p.MaxPipelineLengthSystem)
	}
	if p.MaxReadyRingLength <= 0 || p.MaxDeferredRingLength <= 0 || p.MaxDeferredRetriesPerTick <= 0 {
		return fmt.Errorf("ring bounds must be positive")
	}
	if p.FairnessWeightSystem == 0 || p.FairnessWeightUser == 0 {
		return fmt.Errorf("fairness weights must be non-zero")
	}
	if p.MaxSystemExecutionsPerTick <= 0 || p.MaxUserExecutionsPerTick <= 0 {
		return fmt.Errorf("per-class execution caps must be positive")
	}
	if p.AAABudgetPct == 0 || p.AAABudgetPct > 100 {
		return fmt.Errorf("AAABudgetPct must be in (0, 100], got %d", p.AAABudgetPct)
	}
	if p.TickWeightBudget == 0 {
		return fmt.Errorf("TickWeightBudget must be non-zero")
	}
	if p.FeeAsset == "" || p.FeeSink == "" {
		return fmt.Errorf("fee asset and fee sink are required")
	}
	for kind := TaskNoop; kind <= TaskMint; kind++ {
		if _, ok := p.TaskWeights[kind]; !ok {
			return fmt.Errorf("task weight table missing kind %q", kind)
		}
	}
	return nil
}

// MaxPipelineLength returns the pipeline bound for a class.
func (p *Params) MaxPipelineLength(c Class) int {
	if c == ClassSystem {
		return p.MaxPipelineLengthSystem
	}
	return p.MaxPipelineLengthUser
}

// TaskWeight returns the weight of a task kind. Unknown kinds weigh as
// the heaviest configured kind, so a table gap can only over-charge.
func (p *Params) TaskWeight(k TaskKind) Weight {
	if w, ok := p.TaskWeights[k]; ok {
		return w
	}
	var heaviest Weight
	for _, w := range p.TaskWeights {
		if w > heaviest {
			heaviest = w
		}
	}
	return heaviest
}

// StepWeight returns the admission weight of one step.
func (p *Params) StepWeight(s *Step) Weight {
	return p.StepBaseWeight + p.TaskWeight(s.Task.Kind)
}

// CycleWeight returns the worst-case admission weight of one full
// cycle of the pipeline. Used by the fairness controller to decide
// whether the head of a ready lane still fits the remaining budget.
func (p *Params) CycleWeight(pipe Pipeline) Weight {
	var total Weight
	for i := range pipe {
		total += p.StepWeight(&pipe[i])
	}
	return total
}

// StepFee returns the fee charged for executing one step: the flat base
// fee plus the weight-derived component.
func (p *Params) StepFee(k TaskKind) Amount {
	return p.StepBaseFee + Amount(p.TaskWeight(k))*p.FeePerWeight
}

// EngineBudget returns the per-tick admission weight budget: the
// configured percentage of the host's total tick budget.
func (p *Params) EngineBudget() Weight {
	return p.TickWeightBudget * Weight(p.AAABudgetPct) / 100
}
