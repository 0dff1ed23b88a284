package aaa

// Shape validation for pipelines, schedules, and refundable-asset
// lists. The same validation runs on create and on every update_* entry
// point; there is no mutation path that bypasses it.

// ValidatePipeline checks a pipeline against the shape rules for the
// given class: step count within the class bound, condition counts
// within MaxConditionsPerStep, no privileged kinds for user pipelines,
// and well-formed task/condition unions.
func ValidatePipeline(class Class, pipe Pipeline, params *Params) error {
	bound := params.MaxPipelineLength(class)
	if len(pipe) == 0 {
		return newValidationError(ErrCodePipelineTooLong, -1, "pipeline must have at least one step")
	}
	if len(pipe) > bound {
		return newValidationError(ErrCodePipelineTooLong, -1,
			"%d steps exceeds %s-class bound %d", len(pipe), class, bound)
	}
	for i := range pipe {
		step := &pipe[i]
		if len(step.Conditions) > params.MaxConditionsPerStep {
			return newValidationError(ErrCodeTooManyConditions, i,
				"%d conditions exceeds bound %d", len(step.Conditions), params.MaxConditionsPerStep)
		}
		if step.Task.Kind.Privileged() && class != ClassSystem {
			return newValidationError(ErrCodePrivilegedTaskForbidden, i,
				"task kind %q requires system class", step.Task.Kind)
		}
		if err := validateTask(&step.Task, i); err != nil {
			return err
		}
		for j := range step.Conditions {
			if err := validateCondition(&step.Conditions[j], i); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateSchedule checks the trigger kind and rejects zero-cooldown
// recurring schedules, which would make an instance due every tick and
// defeat the per-tick cost bound.
func ValidateSchedule(s Schedule) error {
	switch s.Trigger {
	case TriggerManual:
		return nil
	case TriggerRecurring:
		if s.Cooldown == 0 {
			return newValidationError(ErrCodeBadSchedule, -1, "recurring schedule requires non-zero cooldown")
		}
		return nil
	default:
		return newValidationError(ErrCodeBadSchedule, -1, "unknown trigger kind %d", s.Trigger)
	}
}

// ValidateRefundAssets checks the bounded refundable-asset list and
// NFC-normalizes its entries in place, so visually identical asset
// identifiers refund the same balance.
func ValidateRefundAssets(assets []Asset, params *Params) error {
	if len(assets) > params.MaxRefundableAssets {
		return newValidationError(ErrCodeTooManyRefundAssets, -1,
			"%d assets exceeds bound %d", len(assets), params.MaxRefundableAssets)
	}
	for i, a := range assets {
		normalized, err := NormalizeAsset(string(a))
		if err != nil {
			return err
		}
		assets[i] = normalized
	}
	return nil
}

// validateTask checks that exactly the parameter struct matching the
// Kind tag is populated and that its required fields are present.
func validateTask(t *Task, step int) error {
	populated := 0
	for _, p := range []bool{
		t.Transfer != nil, t.SplitTransfer != nil,
		t.SwapExactIn != nil, t.SwapExactOut != nil,
		t.AddLiquidity != nil, t.RemoveLiquidity != nil,
		t.Burn != nil, t.Mint != nil,
	} {
		if p {
			populated++
		}
	}

	switch t.Kind {
	case TaskNoop:
		if populated != 0 {
			return newValidationError(ErrCodeMalformedTask, step, "noop task carries parameters")
		}
		return nil

	case TaskTransfer:
		if populated != 1 || t.Transfer == nil {
			return newValidationError(ErrCodeMalformedTask, step, "transfer task requires transfer parameters only")
		}
		if t.Transfer.Asset == "" || t.Transfer.To == "" {
			return newValidationError(ErrCodeMalformedTask, step, "transfer requires asset and recipient")
		}
		if !t.Transfer.All && t.Transfer.Amount == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "transfer requires amount or all")
		}
		return nil

	case TaskSplitTransfer:
		if populated != 1 || t.SplitTransfer == nil {
			return newValidationError(ErrCodeMalformedTask, step, "split_transfer task requires split parameters only")
		}
		if t.SplitTransfer.Asset == "" || len(t.SplitTransfer.Parts) == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "split_transfer requires asset and parts")
		}
		var totalWeight uint64
		for _, part := range t.SplitTransfer.Parts {
			if part.To == "" || part.Weight == 0 {
				return newValidationError(ErrCodeMalformedTask, step, "split part requires recipient and non-zero weight")
			}
			totalWeight += uint64(part.Weight)
		}
		if totalWeight == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "split parts have zero total weight")
		}
		return nil

	case TaskSwapExactIn:
		if populated != 1 || t.SwapExactIn == nil {
			return newValidationError(ErrCodeMalformedTask, step, "swap_exact_in task requires swap parameters only")
		}
		p := t.SwapExactIn
		if p.AssetIn == "" || p.AssetOut == "" || p.AssetIn == p.AssetOut || p.AmountIn == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "swap_exact_in requires distinct assets and non-zero input")
		}
		return nil

	case TaskSwapExactOut:
		if populated != 1 || t.SwapExactOut == nil {
			return newValidationError(ErrCodeMalformedTask, step, "swap_exact_out task requires swap parameters only")
		}
		p := t.SwapExactOut
		if p.AssetIn == "" || p.AssetOut == "" || p.AssetIn == p.AssetOut || p.AmountOut == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "swap_exact_out requires distinct assets and non-zero output")
		}
		return nil

	case TaskAddLiquidity:
		if populated != 1 || t.AddLiquidity == nil {
			return newValidationError(ErrCodeMalformedTask, step, "add_liquidity task requires liquidity parameters only")
		}
		p := t.AddLiquidity
		if p.AssetA == "" || p.AssetB == "" || p.AssetA == p.AssetB || p.AmountA == 0 || p.AmountB == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "add_liquidity requires distinct assets and non-zero amounts")
		}
		return nil

	case TaskRemoveLiquidity:
		if populated != 1 || t.RemoveLiquidity == nil {
			return newValidationError(ErrCodeMalformedTask, step, "remove_liquidity task requires liquidity parameters only")
		}
		p := t.RemoveLiquidity
		if p.AssetA == "" || p.AssetB == "" || p.AssetA == p.AssetB || p.Shares == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "remove_liquidity requires distinct assets and non-zero shares")
		}
		return nil

	case TaskBurn:
		if populated != 1 || t.Burn == nil {
			return newValidationError(ErrCodeMalformedTask, step, "burn task requires burn parameters only")
		}
		if t.Burn.Asset == "" || t.Burn.Amount == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "burn requires asset and non-zero amount")
		}
		return nil

	case TaskMint:
		if populated != 1 || t.Mint == nil {
			return newValidationError(ErrCodeMalformedTask, step, "mint task requires mint parameters only")
		}
		if t.Mint.Asset == "" || t.Mint.To == "" || t.Mint.Amount == 0 {
			return newValidationError(ErrCodeMalformedTask, step, "mint requires asset, recipient, and non-zero amount")
		}
		return nil

	default:
		return newValidationError(ErrCodeMalformedTask, step, "unknown task kind %d", t.Kind)
	}
}

// validateCondition checks the condition union the same way.
func validateCondition(c *Condition, step int) error {
	populated := 0
	for _, p := range []bool{c.Balance != nil, c.Price != nil, c.Tick != nil} {
		if p {
			populated++
		}
	}

	switch c.Kind {
	case CondBalanceAtLeast, CondBalanceBelow:
		if populated != 1 || c.Balance == nil {
			return newValidationError(ErrCodeMalformedCondition, step, "%s requires balance parameters only", c.Kind)
		}
		if c.Balance.Asset == "" {
			return newValidationError(ErrCodeMalformedCondition, step, "balance condition requires asset")
		}
		return nil

	case CondPriceAtLeast, CondPriceAtMost:
		if populated != 1 || c.Price == nil {
			return newValidationError(ErrCodeMalformedCondition, step, "%s requires price parameters only", c.Kind)
		}
		p := c.Price
		if p.AssetIn == "" || p.AssetOut == "" || p.AssetIn == p.AssetOut || p.AmountIn == 0 {
			return newValidationError(ErrCodeMalformedCondition, step, "price condition requires distinct assets and non-zero probe amount")
		}
		return nil

	case CondTickReached:
		if populated != 1 || c.Tick == nil {
			return newValidationError(ErrCodeMalformedCondition, step, "tick_reached requires tick parameters only")
		}
		return nil

	default:
		return newValidationError(ErrCodeMalformedCondition, step, "unknown condition kind %d", c.Kind)
	}
}
