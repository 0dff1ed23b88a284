// Package ledger is an in-memory reference implementation of the
// aaa.AssetOps and aaa.DexOps capability interfaces: token balances
// plus constant-product liquidity pools.
//
// It backs the CLI (so the engine is operable end-to-end without a
// host chain) and the engine tests. Production deployments substitute
// their own ledger/DEX adapters; nothing in the engine depends on this
// package.
//
// All operations are atomic: an error return means no balance or
// reserve changed. The ledger is safe for concurrent use, though the
// engine's single-writer tick discipline means contention never occurs
// in practice.
package ledger
