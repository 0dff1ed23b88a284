package aaa

import "context"

// AssetOps is the asset-transfer capability consumed by the engine.
// Supplied by the surrounding system; the engine never assumes a
// concrete ledger. All methods are synchronous and atomic: a returned
// error means no balance changed.
type AssetOps interface {
	// Transfer moves amount of asset from one account to another.
	Transfer(ctx context.Context, from, to Account, asset Asset, amount Amount) error

	// Burn destroys amount of asset held by the account.
	Burn(ctx context.Context, from Account, asset Asset, amount Amount) error

	// Mint issues amount of asset to the account. Callers are trusted;
	// the engine only dispatches Mint for system-class pipelines.
	Mint(ctx context.Context, to Account, asset Asset, amount Amount) error

	// Balance returns the account's balance of asset. Unknown accounts
	// and assets report zero, not an error.
	Balance(ctx context.Context, account Account, asset Asset) (Amount, error)
}

// DexOps is the swap/liquidity capability consumed by the engine.
type DexOps interface {
	// SwapExactIn swaps exactly amountIn of assetIn for assetOut,
	// failing if the output would be below minOut. Returns the output
	// amount.
	SwapExactIn(ctx context.Context, who Account, assetIn, assetOut Asset, amountIn, minOut Amount) (Amount, error)

	// SwapExactOut swaps assetIn for exactly amountOut of assetOut,
	// failing if the required input exceeds maxIn. Returns the input
	// amount consumed.
	SwapExactOut(ctx context.Context, who Account, assetIn, assetOut Asset, amountOut, maxIn Amount) (Amount, error)

	// Quote returns the current output of swapping amountIn of assetIn
	// into assetOut, without executing.
	Quote(ctx context.Context, assetIn, assetOut Asset, amountIn Amount) (Amount, error)

	// AddLiquidity deposits amountA/amountB into the (assetA, assetB)
	// pool and returns the shares issued.
	AddLiquidity(ctx context.Context, who Account, assetA, assetB Asset, amountA, amountB Amount) (Amount, error)

	// RemoveLiquidity redeems shares from the (assetA, assetB) pool and
	// returns the amounts withdrawn.
	RemoveLiquidity(ctx context.Context, who Account, assetA, assetB Asset, shares Amount) (Amount, Amount, error)

	// PoolReserves returns the current reserves of the (assetA, assetB)
	// pool.
	PoolReserves(ctx context.Context, assetA, assetB Asset) (Amount, Amount, error)
}
