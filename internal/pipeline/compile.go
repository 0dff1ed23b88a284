package pipeline

import (
	"fmt"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/registry"
)

// Compile turns a parsed definition into a registry create spec. Only
// the union reconstruction and name parsing happen here; the registry
// re-validates shape bounds and privilege at create time.
func Compile(def *Definition) (registry.CreateSpec, error) {
	class, err := parseClass(def.Class)
	if err != nil {
		return registry.CreateSpec{}, err
	}
	trigger, err := parseTrigger(def.Schedule.Trigger)
	if err != nil {
		return registry.CreateSpec{}, err
	}
	policy, err := parsePolicy(def.Policy, aaa.AbortCycle)
	if err != nil {
		return registry.CreateSpec{}, err
	}

	pipe := make(aaa.Pipeline, 0, len(def.Steps))
	for i, stepDef := range def.Steps {
		step, err := compileStep(i, &stepDef)
		if err != nil {
			return registry.CreateSpec{}, err
		}
		pipe = append(pipe, step)
	}

	assets := make([]aaa.Asset, 0, len(def.RefundAssets))
	for _, a := range def.RefundAssets {
		asset, err := compileAsset("refund_assets", a)
		if err != nil {
			return registry.CreateSpec{}, err
		}
		assets = append(assets, asset)
	}

	spec := registry.CreateSpec{
		Owner:        def.Owner,
		Class:        class,
		Mutable:      def.Mutable,
		Schedule:     aaa.Schedule{Trigger: trigger, Cooldown: aaa.Tick(def.Schedule.Cooldown)},
		Pipeline:     pipe,
		Policy:       policy,
		RefundAssets: assets,
	}
	if def.RefundTo != "" {
		target := def.RefundTo
		spec.RefundTo = &target
	}
	return spec, nil
}

func compileStep(idx int, def *StepDef) (aaa.Step, error) {
	field := fmt.Sprintf("steps[%d]", idx)

	task, err := compileTask(field+".task", &def.Task)
	if err != nil {
		return aaa.Step{}, err
	}

	conds := make([]aaa.Condition, 0, len(def.Conditions))
	for j, condDef := range def.Conditions {
		cond, err := compileCondition(fmt.Sprintf("%s.conditions[%d]", field, j), &condDef)
		if err != nil {
			return aaa.Step{}, err
		}
		conds = append(conds, cond)
	}

	step := aaa.Step{Conditions: conds, Task: task}
	if def.OnError != "" {
		policy, err := parsePolicy(def.OnError, 0)
		if err != nil {
			return aaa.Step{}, err
		}
		step.OnError = &policy
	}
	return step, nil
}

// compileAsset NFC-normalizes an asset identifier from a definition
// file, so "ÉCU" spelled with precomposed and combining characters
// names the same ledger balance.
func compileAsset(field, raw string) (aaa.Asset, error) {
	asset, err := aaa.NormalizeAsset(raw)
	if err != nil {
		return "", defErr(field, "bad asset identifier %q", raw)
	}
	return asset, nil
}

func compileTask(field string, def *TaskDef) (aaa.Task, error) {
	switch def.Kind {
	case "noop":
		return aaa.Task{Kind: aaa.TaskNoop}, nil

	case "transfer":
		if def.Asset == "" || def.To == "" {
			return aaa.Task{}, defErr(field, "transfer requires asset and to")
		}
		if def.Amount == 0 && !def.All {
			return aaa.Task{}, defErr(field, "transfer requires amount or all")
		}
		asset, err := compileAsset(field, def.Asset)
		if err != nil {
			return aaa.Task{}, err
		}
		return aaa.Task{Kind: aaa.TaskTransfer, Transfer: &aaa.TransferTask{
			Asset:  asset,
			To:     aaa.Account(def.To),
			Amount: aaa.Amount(def.Amount),
			All:    def.All,
		}}, nil

	case "split_transfer":
		if def.Asset == "" || len(def.Parts) == 0 {
			return aaa.Task{}, defErr(field, "split_transfer requires asset and parts")
		}
		asset, err := compileAsset(field, def.Asset)
		if err != nil {
			return aaa.Task{}, err
		}
		parts := make([]aaa.SplitPart, 0, len(def.Parts))
		for _, p := range def.Parts {
			if p.To == "" || p.Weight == 0 {
				return aaa.Task{}, defErr(field, "each part requires to and a non-zero weight")
			}
			parts = append(parts, aaa.SplitPart{To: aaa.Account(p.To), Weight: p.Weight})
		}
		return aaa.Task{Kind: aaa.TaskSplitTransfer, SplitTransfer: &aaa.SplitTransferTask{
			Asset: asset,
			Parts: parts,
		}}, nil

	case "swap_exact_in":
		if def.AssetIn == "" || def.AssetOut == "" || def.AmountIn == 0 {
			return aaa.Task{}, defErr(field, "swap_exact_in requires asset_in, asset_out and amount_in")
		}
		assetIn, err := compileAsset(field, def.AssetIn)
		if err != nil {
			return aaa.Task{}, err
		}
		assetOut, err := compileAsset(field, def.AssetOut)
		if err != nil {
			return aaa.Task{}, err
		}
		return aaa.Task{Kind: aaa.TaskSwapExactIn, SwapExactIn: &aaa.SwapExactInTask{
			AssetIn:      assetIn,
			AssetOut:     assetOut,
			AmountIn:     aaa.Amount(def.AmountIn),
			MinAmountOut: aaa.Amount(def.MinAmountOut),
		}}, nil

	case "swap_exact_out":
		if def.AssetIn == "" || def.AssetOut == "" || def.AmountOut == 0 {
			return aaa.Task{}, defErr(field, "swap_exact_out requires asset_in, asset_out and amount_out")
		}
		assetIn, err := compileAsset(field, def.AssetIn)
		if err != nil {
			return aaa.Task{}, err
		}
		assetOut, err := compileAsset(field, def.AssetOut)
		if err != nil {
			return aaa.Task{}, err
		}
		return aaa.Task{Kind: aaa.TaskSwapExactOut, SwapExactOut: &aaa.SwapExactOutTask{
			AssetIn:     assetIn,
			AssetOut:    assetOut,
			AmountOut:   aaa.Amount(def.AmountOut),
			MaxAmountIn: aaa.Amount(def.MaxAmountIn),
		}}, nil

	case "add_liquidity":
		if def.AssetA == "" || def.AssetB == "" || def.AmountA == 0 || def.AmountB == 0 {
			return aaa.Task{}, defErr(field, "add_liquidity requires asset_a, asset_b, amount_a and amount_b")
		}
		assetA, err := compileAsset(field, def.AssetA)
		if err != nil {
			return aaa.Task{}, err
		}
		assetB, err := compileAsset(field, def.AssetB)
		if err != nil {
			return aaa.Task{}, err
		}
		return aaa.Task{Kind: aaa.TaskAddLiquidity, AddLiquidity: &aaa.AddLiquidityTask{
			AssetA:  assetA,
			AssetB:  assetB,
			AmountA: aaa.Amount(def.AmountA),
			AmountB: aaa.Amount(def.AmountB),
		}}, nil

	case "remove_liquidity":
		if def.AssetA == "" || def.AssetB == "" || def.Shares == 0 {
			return aaa.Task{}, defErr(field, "remove_liquidity requires asset_a, asset_b and shares")
		}
		assetA, err := compileAsset(field, def.AssetA)
		if err != nil {
			return aaa.Task{}, err
		}
		assetB, err := compileAsset(field, def.AssetB)
		if err != nil {
			return aaa.Task{}, err
		}
		return aaa.Task{Kind: aaa.TaskRemoveLiquidity, RemoveLiquidity: &aaa.RemoveLiquidityTask{
			AssetA: assetA,
			AssetB: assetB,
			Shares: aaa.Amount(def.Shares),
		}}, nil

	case "burn":
		if def.Asset == "" || def.Amount == 0 {
			return aaa.Task{}, defErr(field, "burn requires asset and amount")
		}
		asset, err := compileAsset(field, def.Asset)
		if err != nil {
			return aaa.Task{}, err
		}
		return aaa.Task{Kind: aaa.TaskBurn, Burn: &aaa.BurnTask{
			Asset:  asset,
			Amount: aaa.Amount(def.Amount),
		}}, nil

	case "mint":
		if def.Asset == "" || def.To == "" || def.Amount == 0 {
			return aaa.Task{}, defErr(field, "mint requires asset, to and amount")
		}
		asset, err := compileAsset(field, def.Asset)
		if err != nil {
			return aaa.Task{}, err
		}
		return aaa.Task{Kind: aaa.TaskMint, Mint: &aaa.MintTask{
			Asset:  asset,
			To:     aaa.Account(def.To),
			Amount: aaa.Amount(def.Amount),
		}}, nil

	case "":
		return aaa.Task{}, defErr(field, "task kind is required")
	default:
		return aaa.Task{}, defErr(field, "unknown task kind %q", def.Kind)
	}
}

func compileCondition(field string, def *ConditionDef) (aaa.Condition, error) {
	switch def.Kind {
	case "balance_at_least", "balance_below":
		if def.Asset == "" {
			return aaa.Condition{}, defErr(field, "%s requires asset", def.Kind)
		}
		asset, err := compileAsset(field, def.Asset)
		if err != nil {
			return aaa.Condition{}, err
		}
		kind := aaa.CondBalanceAtLeast
		if def.Kind == "balance_below" {
			kind = aaa.CondBalanceBelow
		}
		return aaa.Condition{Kind: kind, Balance: &aaa.BalanceCondition{
			Asset:  asset,
			Amount: aaa.Amount(def.Amount),
		}}, nil

	case "price_at_least", "price_at_most":
		if def.AssetIn == "" || def.AssetOut == "" || def.AmountIn == 0 {
			return aaa.Condition{}, defErr(field, "%s requires asset_in, asset_out and amount_in", def.Kind)
		}
		assetIn, err := compileAsset(field, def.AssetIn)
		if err != nil {
			return aaa.Condition{}, err
		}
		assetOut, err := compileAsset(field, def.AssetOut)
		if err != nil {
			return aaa.Condition{}, err
		}
		kind := aaa.CondPriceAtLeast
		if def.Kind == "price_at_most" {
			kind = aaa.CondPriceAtMost
		}
		return aaa.Condition{Kind: kind, Price: &aaa.PriceCondition{
			AssetIn:  assetIn,
			AssetOut: assetOut,
			AmountIn: aaa.Amount(def.AmountIn),
			Limit:    aaa.Amount(def.Limit),
		}}, nil

	case "tick_reached":
		return aaa.Condition{Kind: aaa.CondTickReached, Tick: &aaa.TickCondition{
			At: aaa.Tick(def.At),
		}}, nil

	case "":
		return aaa.Condition{}, defErr(field, "condition kind is required")
	default:
		return aaa.Condition{}, defErr(field, "unknown condition kind %q", def.Kind)
	}
}

func parseClass(s string) (aaa.Class, error) {
	switch s {
	case "user":
		return aaa.ClassUser, nil
	case "system":
		return aaa.ClassSystem, nil
	case "":
		return 0, defErr("class", "class is required")
	default:
		return 0, defErr("class", "unknown class %q", s)
	}
}

func parseTrigger(s string) (aaa.TriggerKind, error) {
	switch s {
	case "manual":
		return aaa.TriggerManual, nil
	case "recurring":
		return aaa.TriggerRecurring, nil
	case "":
		return 0, defErr("schedule.trigger", "trigger is required")
	default:
		return 0, defErr("schedule.trigger", "unknown trigger %q", s)
	}
}

// parsePolicy resolves a policy name; the empty string maps to def
// (zero means "no override" for step policies).
func parsePolicy(s string, def aaa.ErrorPolicy) (aaa.ErrorPolicy, error) {
	switch s {
	case "abort":
		return aaa.AbortCycle, nil
	case "continue":
		return aaa.ContinueNextStep, nil
	case "":
		return def, nil
	default:
		return 0, defErr("policy", "unknown policy %q", s)
	}
}
