package engine

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/cindergrid/automaton/internal/aaa"
)

// cycleOutcome is the result of one pipeline invocation.
type cycleOutcome struct {
	// completed: the pipeline ran to its end without an AbortCycle
	// trigger. Skipped steps and ContinueNextStep failures do not
	// prevent completion.
	completed bool
	executed  int
	skipped   int
	// continued counts failures absorbed by ContinueNextStep.
	continued int
	abortErr  *CycleError
}

// executeCycle runs one admitted instance's pipeline and applies the
// outcome to its record: success re-arms the cooldown and returns the
// instance to Idle; any recoverable failure moves it to
// DeferredWaiting with an earliest-retry tick.
//
// The invocation is synchronous and atomic: no suspension
// mid-pipeline, and the state transition below happens exactly once
// per admission.
func (s *Scheduler) executeCycle(ctx context.Context, in *aaa.Instance, now aaa.Tick, report *TickReport) {
	token := s.tokens.Generate()
	out := s.runPipeline(ctx, in, token)

	if out.completed {
		in.CycleNonce++
		in.ConsecutiveFailures = 0
		in.HasRun = true
		in.LastRun = now
		in.RingState = aaa.StateIdle
		report.Succeeded++
		s.metrics.ObserveExecution(in.Class, "success")

		slog.Info("cycle completed",
			"cycle", token,
			"id", in.ID,
			"nonce", in.CycleNonce,
			"executed", out.executed,
			"skipped", out.skipped,
			"continued_failures", out.continued,
			"tick", now,
		)
		return
	}

	// Recoverable failure (dispatch or solvency): count it and park
	// the instance for retry. The failure counter saturates; eligibility
	// for sweep only needs it to exceed the cap.
	if in.ConsecutiveFailures <= s.params.MaxConsecutiveFailures {
		in.ConsecutiveFailures++
	}
	report.Failed++
	s.metrics.ObserveExecution(in.Class, "failure")

	slog.Warn("cycle failed",
		"cycle", token,
		"id", in.ID,
		"code", out.abortErr.Code,
		"step", out.abortErr.Step,
		"consecutive_failures", in.ConsecutiveFailures,
		"error", out.abortErr,
		"tick", now,
	)

	entry := DeferredEntry{ID: in.ID, EarliestRetry: now + s.params.DeferredRetryDelay}
	if err := s.deferred.Push(entry); err == nil {
		in.RingState = aaa.StateDeferredWaiting
		return
	}
	// Deferred ring full: fall back to Idle and the natural schedule.
	in.RingState = aaa.StateIdle
	slog.Warn("deferred ring full, failed instance returns to idle", "id", in.ID, "tick", now)
}

// runPipeline iterates the steps in fixed order.
//
// Per step: evaluate the AND-combined conditions (each evaluation
// charges ConditionReadFee); a false condition skips the step without
// recording a failure. An eligible step charges StepBaseFee plus the
// weight-derived fee, then dispatches. Fee insolvency aborts the cycle
// early regardless of policy; dispatch failure applies the step's
// effective error policy.
func (s *Scheduler) runPipeline(ctx context.Context, in *aaa.Instance, token string) cycleOutcome {
	var out cycleOutcome

	for i := range in.Pipeline {
		step := &in.Pipeline[i]

		pass, err := s.evalConditions(ctx, in, step, i)
		if err != nil {
			// Condition evaluation errors (e.g. a quote against a
			// missing pool) are dispatch failures of this step.
			if s.applyPolicy(in, step, i, err, token, &out) {
				return out
			}
			continue
		}
		if !pass {
			out.skipped++
			slog.Debug("step skipped", "cycle", token, "id", in.ID, "step", i)
			continue
		}

		if err := s.chargeFee(ctx, in, s.params.StepFee(step.Task.Kind), i); err != nil {
			out.abortErr = asCycleError(err, in.ID, i)
			return out
		}

		if err := s.dispatch(ctx, in, &step.Task); err != nil {
			if s.applyPolicy(in, step, i, err, token, &out) {
				return out
			}
			continue
		}
		out.executed++
	}

	out.completed = true
	return out
}

// applyPolicy handles a step failure under the step's effective error
// policy. Returns true when the cycle must abort. Solvency failures
// abort regardless of policy: without fee funds nothing further can be
// charged, so continuing would execute steps for free.
func (s *Scheduler) applyPolicy(in *aaa.Instance, step *aaa.Step, idx int, err error, token string, out *cycleOutcome) bool {
	if IsInsolvent(err) {
		out.abortErr = asCycleError(err, in.ID, idx)
		return true
	}
	if step.EffectivePolicy(in.Policy) == aaa.AbortCycle {
		out.abortErr = &CycleError{
			Code:    ErrCodeDispatchFailed,
			ID:      in.ID,
			Step:    idx,
			Message: "step failed under abort policy",
			Err:     err,
		}
		return true
	}
	out.continued++
	slog.Debug("step failed, continuing", "cycle", token, "id", in.ID, "step", idx, "error", err)
	return false
}

// evalConditions evaluates the step's AND gate. Each condition charges
// ConditionReadFee before evaluation; insolvency surfaces as a
// CycleError.
func (s *Scheduler) evalConditions(ctx context.Context, in *aaa.Instance, step *aaa.Step, idx int) (bool, error) {
	for j := range step.Conditions {
		if err := s.chargeFee(ctx, in, s.params.ConditionReadFee, idx); err != nil {
			return false, err
		}
		ok, err := s.evalCondition(ctx, in, &step.Conditions[j])
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evalCondition evaluates one condition against the adapters.
func (s *Scheduler) evalCondition(ctx context.Context, in *aaa.Instance, c *aaa.Condition) (bool, error) {
	switch c.Kind {
	case aaa.CondBalanceAtLeast:
		bal, err := s.assets.Balance(ctx, in.Sovereign, c.Balance.Asset)
		if err != nil {
			return false, err
		}
		return bal >= c.Balance.Amount, nil

	case aaa.CondBalanceBelow:
		bal, err := s.assets.Balance(ctx, in.Sovereign, c.Balance.Asset)
		if err != nil {
			return false, err
		}
		return bal < c.Balance.Amount, nil

	case aaa.CondPriceAtLeast:
		quote, err := s.dex.Quote(ctx, c.Price.AssetIn, c.Price.AssetOut, c.Price.AmountIn)
		if err != nil {
			return false, err
		}
		return quote >= c.Price.Limit, nil

	case aaa.CondPriceAtMost:
		quote, err := s.dex.Quote(ctx, c.Price.AssetIn, c.Price.AssetOut, c.Price.AmountIn)
		if err != nil {
			return false, err
		}
		return quote <= c.Price.Limit, nil

	case aaa.CondTickReached:
		return s.clock.Current() >= c.Tick.At, nil

	default:
		// Unreachable for validated pipelines.
		return false, &CycleError{Code: ErrCodeDispatchFailed, ID: in.ID, Message: "unknown condition kind"}
	}
}

// chargeFee draws a fee from the sovereign account into the fee sink.
// The charge is all-or-nothing: the balance is checked first, so a
// failed charge moves nothing.
func (s *Scheduler) chargeFee(ctx context.Context, in *aaa.Instance, fee aaa.Amount, step int) error {
	if fee == 0 {
		return nil
	}
	bal, err := s.assets.Balance(ctx, in.Sovereign, s.params.FeeAsset)
	if err != nil {
		return err
	}
	if bal < fee {
		return &CycleError{
			Code:    ErrCodeInsolvent,
			ID:      in.ID,
			Step:    step,
			Message: "sovereign balance cannot cover fee",
		}
	}
	if err := s.assets.Transfer(ctx, in.Sovereign, s.params.FeeSink, s.params.FeeAsset, fee); err != nil {
		return err
	}
	s.metrics.ObserveFee(fee)
	return nil
}

// dispatch executes one task against the capability adapters. The
// union is matched explicitly; validated pipelines never reach the
// default arm.
func (s *Scheduler) dispatch(ctx context.Context, in *aaa.Instance, task *aaa.Task) error {
	switch task.Kind {
	case aaa.TaskNoop:
		return nil

	case aaa.TaskTransfer:
		p := task.Transfer
		amount := p.Amount
		if p.All {
			bal, err := s.assets.Balance(ctx, in.Sovereign, p.Asset)
			if err != nil {
				return err
			}
			amount = bal
		}
		return s.assets.Transfer(ctx, in.Sovereign, p.To, p.Asset, amount)

	case aaa.TaskSplitTransfer:
		return s.dispatchSplit(ctx, in, task.SplitTransfer)

	case aaa.TaskSwapExactIn:
		p := task.SwapExactIn
		_, err := s.dex.SwapExactIn(ctx, in.Sovereign, p.AssetIn, p.AssetOut, p.AmountIn, p.MinAmountOut)
		return err

	case aaa.TaskSwapExactOut:
		p := task.SwapExactOut
		_, err := s.dex.SwapExactOut(ctx, in.Sovereign, p.AssetIn, p.AssetOut, p.AmountOut, p.MaxAmountIn)
		return err

	case aaa.TaskAddLiquidity:
		p := task.AddLiquidity
		_, err := s.dex.AddLiquidity(ctx, in.Sovereign, p.AssetA, p.AssetB, p.AmountA, p.AmountB)
		return err

	case aaa.TaskRemoveLiquidity:
		p := task.RemoveLiquidity
		_, _, err := s.dex.RemoveLiquidity(ctx, in.Sovereign, p.AssetA, p.AssetB, p.Shares)
		return err

	case aaa.TaskBurn:
		p := task.Burn
		return s.assets.Burn(ctx, in.Sovereign, p.Asset, p.Amount)

	case aaa.TaskMint:
		p := task.Mint
		return s.assets.Mint(ctx, p.To, p.Asset, p.Amount)

	default:
		return &CycleError{Code: ErrCodeDispatchFailed, ID: in.ID, Message: "unknown task kind"}
	}
}

// dispatchSplit distributes the sovereign balance of one asset across
// weighted recipients. Rounding dust stays in the sovereign account.
func (s *Scheduler) dispatchSplit(ctx context.Context, in *aaa.Instance, p *aaa.SplitTransferTask) error {
	bal, err := s.assets.Balance(ctx, in.Sovereign, p.Asset)
	if err != nil {
		return err
	}
	if bal == 0 {
		return nil
	}

	var totalWeight uint64
	for _, part := range p.Parts {
		totalWeight += uint64(part.Weight)
	}

	for _, part := range p.Parts {
		share := proportion(bal, uint64(part.Weight), totalWeight)
		if share == 0 {
			continue
		}
		if err := s.assets.Transfer(ctx, in.Sovereign, part.To, p.Asset, share); err != nil {
			return err
		}
	}
	return nil
}

// proportion computes amount*weight/total in 128-bit intermediate
// precision.
func proportion(amount aaa.Amount, weight, total uint64) aaa.Amount {
	if total == 0 {
		return 0
	}
	num := new(big.Int).Mul(new(big.Int).SetUint64(uint64(amount)), new(big.Int).SetUint64(weight))
	num.Quo(num, new(big.Int).SetUint64(total))
	return aaa.Amount(num.Uint64())
}

// asCycleError wraps an arbitrary error into a CycleError, preserving
// an existing one.
func asCycleError(err error, id aaa.ID, step int) *CycleError {
	if ce, ok := err.(*CycleError); ok {
		return ce
	}
	return &CycleError{
		Code:    ErrCodeDispatchFailed,
		ID:      id,
		Step:    step,
		Message: "adapter call failed",
		Err:     err,
	}
}
