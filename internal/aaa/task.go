package aaa

// TaskKind enumerates the closed set of task variants a step can carry.
// The executor matches kinds explicitly; adding a kind means touching
// the validator, the weight table, and the executor dispatch together.
type TaskKind int

const (
	// TaskNoop performs nothing. Useful as a pure condition probe (the
	// conditions still evaluate and charge read fees).
	TaskNoop TaskKind = iota + 1
	// TaskTransfer moves an amount (or the full balance) of one asset
	// from the sovereign account to a recipient.
	TaskTransfer
	// TaskSplitTransfer splits the sovereign balance of one asset
	// across weighted recipients.
	TaskSplitTransfer
	// TaskSwapExactIn swaps a fixed input amount with a minimum-output
	// bound.
	TaskSwapExactIn
	// TaskSwapExactOut swaps for a fixed output amount with a
	// maximum-input bound.
	TaskSwapExactOut
	// TaskAddLiquidity deposits into a pool pair.
	TaskAddLiquidity
	// TaskRemoveLiquidity withdraws pool shares.
	TaskRemoveLiquidity
	// TaskBurn destroys an amount of an asset held by the sovereign.
	TaskBurn
	// TaskMint issues new supply. Privileged: system class only.
	TaskMint
)

// String returns the kind name used in serialized definitions.
func (k TaskKind) String() string {
	switch k {
	case TaskNoop:
		return "noop"
	case TaskTransfer:
		return "transfer"
	case TaskSplitTransfer:
		return "split_transfer"
	case TaskSwapExactIn:
		return "swap_exact_in"
	case TaskSwapExactOut:
		return "swap_exact_out"
	case TaskAddLiquidity:
		return "add_liquidity"
	case TaskRemoveLiquidity:
		return "remove_liquidity"
	case TaskBurn:
		return "burn"
	case TaskMint:
		return "mint"
	default:
		return "unknown"
	}
}

// Privileged reports whether the kind is restricted to system-class
// pipelines.
func (k TaskKind) Privileged() bool {
	return k == TaskMint
}

// Task is the closed tagged union of task variants: a Kind tag plus
// exactly one populated parameter struct. The validator enforces that
// the populated pointer matches the tag.
type Task struct {
	Kind TaskKind `json:"kind"`

	Transfer        *TransferTask        `json:"transfer,omitempty"`
	SplitTransfer   *SplitTransferTask   `json:"split_transfer,omitempty"`
	SwapExactIn     *SwapExactInTask     `json:"swap_exact_in,omitempty"`
	SwapExactOut    *SwapExactOutTask    `json:"swap_exact_out,omitempty"`
	AddLiquidity    *AddLiquidityTask    `json:"add_liquidity,omitempty"`
	RemoveLiquidity *RemoveLiquidityTask `json:"remove_liquidity,omitempty"`
	Burn            *BurnTask            `json:"burn,omitempty"`
	Mint            *MintTask            `json:"mint,omitempty"`
}

// TransferTask moves Amount of Asset to To. With All set, the full
// sovereign balance of Asset at execution time is moved and Amount is
// ignored.
type TransferTask struct {
	Asset  Asset   `json:"asset"`
	To     Account `json:"to"`
	Amount Amount  `json:"amount,omitempty"`
	All    bool    `json:"all,omitempty"`
}

// SplitPart is one weighted recipient of a split transfer.
type SplitPart struct {
	To     Account `json:"to"`
	Weight uint32  `json:"weight"`
}

// SplitTransferTask distributes the sovereign balance of Asset across
// Parts proportionally to their weights. Rounding dust stays in the
// sovereign account.
type SplitTransferTask struct {
	Asset Asset       `json:"asset"`
	Parts []SplitPart `json:"parts"`
}

// SwapExactInTask swaps AmountIn of AssetIn for at least MinAmountOut
// of AssetOut.
type SwapExactInTask struct {
	AssetIn      Asset  `json:"asset_in"`
	AssetOut     Asset  `json:"asset_out"`
	AmountIn     Amount `json:"amount_in"`
	MinAmountOut Amount `json:"min_amount_out"`
}

// SwapExactOutTask swaps at most MaxAmountIn of AssetIn for exactly
// AmountOut of AssetOut.
type SwapExactOutTask struct {
	AssetIn     Asset  `json:"asset_in"`
	AssetOut    Asset  `json:"asset_out"`
	AmountOut   Amount `json:"amount_out"`
	MaxAmountIn Amount `json:"max_amount_in"`
}

// AddLiquidityTask deposits AmountA/AmountB into the (AssetA, AssetB)
// pool.
type AddLiquidityTask struct {
	AssetA  Asset  `json:"asset_a"`
	AssetB  Asset  `json:"asset_b"`
	AmountA Amount `json:"amount_a"`
	AmountB Amount `json:"amount_b"`
}

// RemoveLiquidityTask withdraws Shares from the (AssetA, AssetB) pool.
type RemoveLiquidityTask struct {
	AssetA Asset  `json:"asset_a"`
	AssetB Asset  `json:"asset_b"`
	Shares Amount `json:"shares"`
}

// BurnTask destroys Amount of Asset held by the sovereign account.
type BurnTask struct {
	Asset  Asset  `json:"asset"`
	Amount Amount `json:"amount"`
}

// MintTask issues Amount of Asset to To. Privileged.
type MintTask struct {
	Asset  Asset   `json:"asset"`
	To     Account `json:"to"`
	Amount Amount  `json:"amount"`
}

// ConditionKind enumerates the closed set of condition variants.
type ConditionKind int

const (
	// CondBalanceAtLeast: sovereign balance of Asset >= Amount.
	CondBalanceAtLeast ConditionKind = iota + 1
	// CondBalanceBelow: sovereign balance of Asset < Amount.
	CondBalanceBelow
	// CondPriceAtLeast: DEX quote for AmountIn of AssetIn into AssetOut
	// >= Limit.
	CondPriceAtLeast
	// CondPriceAtMost: DEX quote <= Limit.
	CondPriceAtMost
	// CondTickReached: current tick >= At.
	CondTickReached
)

// String returns the kind name used in serialized definitions.
func (k ConditionKind) String() string {
	switch k {
	case CondBalanceAtLeast:
		return "balance_at_least"
	case CondBalanceBelow:
		return "balance_below"
	case CondPriceAtLeast:
		return "price_at_least"
	case CondPriceAtMost:
		return "price_at_most"
	case CondTickReached:
		return "tick_reached"
	default:
		return "unknown"
	}
}

// Condition is the closed tagged union of step gate variants. All
// conditions of a step are AND-combined; the first false condition
// skips the step.
type Condition struct {
	Kind ConditionKind `json:"kind"`

	Balance *BalanceCondition `json:"balance,omitempty"`
	Price   *PriceCondition   `json:"price,omitempty"`
	Tick    *TickCondition    `json:"tick,omitempty"`
}

// BalanceCondition parameterizes CondBalanceAtLeast / CondBalanceBelow.
type BalanceCondition struct {
	Asset  Asset  `json:"asset"`
	Amount Amount `json:"amount"`
}

// PriceCondition parameterizes CondPriceAtLeast / CondPriceAtMost.
// The quote is taken for AmountIn of AssetIn and compared to Limit.
type PriceCondition struct {
	AssetIn  Asset  `json:"asset_in"`
	AssetOut Asset  `json:"asset_out"`
	AmountIn Amount `json:"amount_in"`
	Limit    Amount `json:"limit"`
}

// TickCondition parameterizes CondTickReached.
type TickCondition struct {
	At Tick `json:"at"`
}
