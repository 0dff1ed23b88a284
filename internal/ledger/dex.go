package ledger

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/cindergrid/automaton/internal/aaa"
)

// pairKey is the canonical (sorted) identity of a pool.
type pairKey struct {
	a, b aaa.Asset
}

func newPairKey(x, y aaa.Asset) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// pool is a fee-less constant-product AMM pool. Reserves are keyed by
// the canonical pair order; callers pass assets in either order and
// the pool maps them back.
type pool struct {
	reserveA    aaa.Amount // reserve of pairKey.a
	reserveB    aaa.Amount // reserve of pairKey.b
	totalShares aaa.Amount
	shares      map[aaa.Account]aaa.Amount
}

// poolAccount is the escrow account holding pool reserves.
func poolAccount(key pairKey) aaa.Account {
	return aaa.Account(fmt.Sprintf("pool-%s-%s", key.a, key.b))
}

// CreatePool seeds a pool with initial reserves taken from the funder.
// Seeding helper for the CLI and tests; pool creation is not an engine
// task kind.
func (l *Ledger) CreatePool(ctx context.Context, funder aaa.Account, assetA, assetB aaa.Asset, amountA, amountB aaa.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if assetA == assetB || amountA == 0 || amountB == 0 {
		return fmt.Errorf("pool requires distinct assets and non-zero reserves")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := newPairKey(assetA, assetB)
	if _, exists := l.pools[key]; exists {
		return fmt.Errorf("pool %s/%s already exists", key.a, key.b)
	}

	ra, rb := orient(key, assetA, amountA, assetB, amountB)
	escrow := poolAccount(key)
	if err := l.move(funder, escrow, key.a, ra); err != nil {
		return err
	}
	if err := l.move(funder, escrow, key.b, rb); err != nil {
		l.balances[balanceKey{funder, key.a}] += ra
		l.balances[balanceKey{escrow, key.a}] -= ra
		return err
	}

	initial := sqrtProduct(ra, rb)
	l.pools[key] = &pool{
		reserveA:    ra,
		reserveB:    rb,
		totalShares: initial,
		shares:      map[aaa.Account]aaa.Amount{funder: initial},
	}
	return nil
}

// SwapExactIn implements aaa.DexOps.
func (l *Ledger) SwapExactIn(ctx context.Context, who aaa.Account, assetIn, assetOut aaa.Asset, amountIn, minOut aaa.Amount) (aaa.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := newPairKey(assetIn, assetOut)
	p, ok := l.pools[key]
	if !ok {
		return 0, fmt.Errorf("swap %s->%s: %w", assetIn, assetOut, ErrNoPool)
	}

	rIn, rOut := p.reservesFor(key, assetIn)
	out := quoteOut(rIn, rOut, amountIn)
	if out == 0 || out >= rOut {
		return 0, fmt.Errorf("swap %s->%s: %w", assetIn, assetOut, ErrInsufficientLiquidity)
	}
	if out < minOut {
		return 0, fmt.Errorf("swap %s->%s: output %d below min %d: %w", assetIn, assetOut, out, minOut, ErrSlippageExceeded)
	}

	escrow := poolAccount(key)
	if err := l.move(who, escrow, assetIn, amountIn); err != nil {
		return 0, err
	}
	if err := l.move(escrow, who, assetOut, out); err != nil {
		l.balances[balanceKey{who, assetIn}] += amountIn
		l.balances[balanceKey{escrow, assetIn}] -= amountIn
		return 0, err
	}

	p.apply(key, assetIn, amountIn, out)
	return out, nil
}

// SwapExactOut implements aaa.DexOps.
func (l *Ledger) SwapExactOut(ctx context.Context, who aaa.Account, assetIn, assetOut aaa.Asset, amountOut, maxIn aaa.Amount) (aaa.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := newPairKey(assetIn, assetOut)
	p, ok := l.pools[key]
	if !ok {
		return 0, fmt.Errorf("swap %s->%s: %w", assetIn, assetOut, ErrNoPool)
	}

	rIn, rOut := p.reservesFor(key, assetIn)
	if amountOut >= rOut {
		return 0, fmt.Errorf("swap %s->%s: %w", assetIn, assetOut, ErrInsufficientLiquidity)
	}
	in := quoteIn(rIn, rOut, amountOut)
	if in > maxIn {
		return 0, fmt.Errorf("swap %s->%s: input %d above max %d: %w", assetIn, assetOut, in, maxIn, ErrSlippageExceeded)
	}

	escrow := poolAccount(key)
	if err := l.move(who, escrow, assetIn, in); err != nil {
		return 0, err
	}
	if err := l.move(escrow, who, assetOut, amountOut); err != nil {
		l.balances[balanceKey{who, assetIn}] += in
		l.balances[balanceKey{escrow, assetIn}] -= in
		return 0, err
	}

	p.apply(key, assetIn, in, amountOut)
	return in, nil
}

// Quote implements aaa.DexOps.
func (l *Ledger) Quote(ctx context.Context, assetIn, assetOut aaa.Asset, amountIn aaa.Amount) (aaa.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := newPairKey(assetIn, assetOut)
	p, ok := l.pools[key]
	if !ok {
		return 0, fmt.Errorf("quote %s->%s: %w", assetIn, assetOut, ErrNoPool)
	}
	rIn, rOut := p.reservesFor(key, assetIn)
	return quoteOut(rIn, rOut, amountIn), nil
}

// AddLiquidity implements aaa.DexOps. Shares are issued proportionally
// to the smaller of the two contribution ratios; the deposit amounts
// are taken as given (no ratio adjustment).
func (l *Ledger) AddLiquidity(ctx context.Context, who aaa.Account, assetA, assetB aaa.Asset, amountA, amountB aaa.Amount) (aaa.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := newPairKey(assetA, assetB)
	p, ok := l.pools[key]
	if !ok {
		return 0, fmt.Errorf("add liquidity %s/%s: %w", assetA, assetB, ErrNoPool)
	}

	ra, rb := orient(key, assetA, amountA, assetB, amountB)
	issued := minAmount(
		mulDiv(ra, p.totalShares, p.reserveA),
		mulDiv(rb, p.totalShares, p.reserveB),
	)
	if issued == 0 {
		return 0, fmt.Errorf("add liquidity %s/%s: contribution too small: %w", assetA, assetB, ErrInsufficientLiquidity)
	}

	escrow := poolAccount(key)
	if err := l.move(who, escrow, key.a, ra); err != nil {
		return 0, err
	}
	if err := l.move(who, escrow, key.b, rb); err != nil {
		l.balances[balanceKey{who, key.a}] += ra
		l.balances[balanceKey{escrow, key.a}] -= ra
		return 0, err
	}

	p.reserveA += ra
	p.reserveB += rb
	p.totalShares += issued
	p.shares[who] += issued
	return issued, nil
}

// RemoveLiquidity implements aaa.DexOps.
func (l *Ledger) RemoveLiquidity(ctx context.Context, who aaa.Account, assetA, assetB aaa.Asset, shares aaa.Amount) (aaa.Amount, aaa.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := newPairKey(assetA, assetB)
	p, ok := l.pools[key]
	if !ok {
		return 0, 0, fmt.Errorf("remove liquidity %s/%s: %w", assetA, assetB, ErrNoPool)
	}
	if p.shares[who] < shares || shares == 0 {
		return 0, 0, fmt.Errorf("remove liquidity %s/%s: have %d shares, want %d: %w",
			assetA, assetB, p.shares[who], shares, ErrInsufficientLiquidity)
	}

	outA := mulDiv(shares, p.reserveA, p.totalShares)
	outB := mulDiv(shares, p.reserveB, p.totalShares)

	escrow := poolAccount(key)
	if err := l.move(escrow, who, key.a, outA); err != nil {
		return 0, 0, err
	}
	if err := l.move(escrow, who, key.b, outB); err != nil {
		l.balances[balanceKey{escrow, key.a}] += outA
		l.balances[balanceKey{who, key.a}] -= outA
		return 0, 0, err
	}

	p.reserveA -= outA
	p.reserveB -= outB
	p.totalShares -= shares
	if p.shares[who] == shares {
		delete(p.shares, who)
	} else {
		p.shares[who] -= shares
	}

	// Return amounts oriented to the caller's argument order.
	if key.a == assetA {
		return outA, outB, nil
	}
	return outB, outA, nil
}

// PoolReserves implements aaa.DexOps. Reserves are returned in the
// caller's argument order.
func (l *Ledger) PoolReserves(ctx context.Context, assetA, assetB aaa.Asset) (aaa.Amount, aaa.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := newPairKey(assetA, assetB)
	p, ok := l.pools[key]
	if !ok {
		return 0, 0, fmt.Errorf("reserves %s/%s: %w", assetA, assetB, ErrNoPool)
	}
	if key.a == assetA {
		return p.reserveA, p.reserveB, nil
	}
	return p.reserveB, p.reserveA, nil
}

// reservesFor returns (reserveIn, reserveOut) oriented to assetIn.
func (p *pool) reservesFor(key pairKey, assetIn aaa.Asset) (aaa.Amount, aaa.Amount) {
	if key.a == assetIn {
		return p.reserveA, p.reserveB
	}
	return p.reserveB, p.reserveA
}

// apply updates reserves after a swap of amountIn of assetIn for
// amountOut of the counter asset.
func (p *pool) apply(key pairKey, assetIn aaa.Asset, amountIn, amountOut aaa.Amount) {
	if key.a == assetIn {
		p.reserveA += amountIn
		p.reserveB -= amountOut
	} else {
		p.reserveB += amountIn
		p.reserveA -= amountOut
	}
}

// orient maps caller-order (assetA, amountA, assetB, amountB) onto the
// canonical pair order of key.
func orient(key pairKey, assetA aaa.Asset, amountA aaa.Amount, assetB aaa.Asset, amountB aaa.Amount) (aaa.Amount, aaa.Amount) {
	if key.a == assetA {
		return amountA, amountB
	}
	return amountB, amountA
}

// quoteOut computes constant-product output: rOut*in / (rIn+in).
func quoteOut(rIn, rOut, in aaa.Amount) aaa.Amount {
	if in == 0 || rIn == 0 || rOut == 0 {
		return 0
	}
	return mulDiv(rOut, in, rIn+in)
}

// quoteIn computes the input required for an exact output:
// rIn*out / (rOut-out), rounded up.
func quoteIn(rIn, rOut, out aaa.Amount) aaa.Amount {
	num := new(big.Int).Mul(big.NewInt(0).SetUint64(uint64(rIn)), big.NewInt(0).SetUint64(uint64(out)))
	den := big.NewInt(0).SetUint64(uint64(rOut - out))
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		return math.MaxUint64
	}
	return aaa.Amount(q.Uint64())
}

// minAmount returns the smaller of two amounts.
func minAmount(a, b aaa.Amount) aaa.Amount {
	if a < b {
		return a
	}
	return b
}

// mulDiv computes a*b/c in 128-bit intermediate precision.
func mulDiv(a, b, c aaa.Amount) aaa.Amount {
	if c == 0 {
		return 0
	}
	num := new(big.Int).Mul(big.NewInt(0).SetUint64(uint64(a)), big.NewInt(0).SetUint64(uint64(b)))
	num.Quo(num, big.NewInt(0).SetUint64(uint64(c)))
	if !num.IsUint64() {
		return math.MaxUint64
	}
	return aaa.Amount(num.Uint64())
}

// sqrtProduct computes floor(sqrt(a*b)) for initial share issuance.
func sqrtProduct(a, b aaa.Amount) aaa.Amount {
	num := new(big.Int).Mul(big.NewInt(0).SetUint64(uint64(a)), big.NewInt(0).SetUint64(uint64(b)))
	root := num.Sqrt(num)
	if !root.IsUint64() {
		return math.MaxUint64
	}
	return aaa.Amount(root.Uint64())
}

// PoolRow is one pool entry of a snapshot.
type PoolRow struct {
	AssetA      aaa.Asset
	AssetB      aaa.Asset
	ReserveA    aaa.Amount
	ReserveB    aaa.Amount
	TotalShares aaa.Amount
	Shares      map[aaa.Account]aaa.Amount
}

// ExportPools returns all pools for persistence, in canonical pair
// order.
func (l *Ledger) ExportPools() []PoolRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([]PoolRow, 0, len(l.pools))
	for key, p := range l.pools {
		shares := make(map[aaa.Account]aaa.Amount, len(p.shares))
		for who, s := range p.shares {
			shares[who] = s
		}
		rows = append(rows, PoolRow{
			AssetA:      key.a,
			AssetB:      key.b,
			ReserveA:    p.reserveA,
			ReserveB:    p.reserveB,
			TotalShares: p.totalShares,
			Shares:      shares,
		})
	}
	return rows
}

// RestorePools replaces all pools from a snapshot.
func (l *Ledger) RestorePools(rows []PoolRow) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pools = make(map[pairKey]*pool, len(rows))
	for _, row := range rows {
		key := newPairKey(row.AssetA, row.AssetB)
		ra, rb := orient(key, row.AssetA, row.ReserveA, row.AssetB, row.ReserveB)
		shares := make(map[aaa.Account]aaa.Amount, len(row.Shares))
		for who, s := range row.Shares {
			shares[who] = s
		}
		l.pools[key] = &pool{
			reserveA:    ra,
			reserveB:    rb,
			totalShares: row.TotalShares,
			shares:      shares,
		}
	}
}
