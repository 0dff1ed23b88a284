package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cindergrid/automaton/internal/aaa"
)

// Sentinel errors returned by ledger operations. The engine treats all
// of them as recoverable dispatch failures.
var (
	// ErrInsufficientBalance: the source account cannot cover the
	// requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOverflow: the destination balance would exceed the amount
	// range.
	ErrOverflow = errors.New("balance overflow")

	// ErrNoPool: no liquidity pool exists for the asset pair.
	ErrNoPool = errors.New("no pool for asset pair")

	// ErrSlippageExceeded: a swap bound (minOut / maxIn) was violated.
	ErrSlippageExceeded = errors.New("slippage bound exceeded")

	// ErrInsufficientLiquidity: the pool cannot satisfy the requested
	// output or share redemption.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

type balanceKey struct {
	account aaa.Account
	asset   aaa.Asset
}

// Ledger holds token balances and liquidity pools. The zero value is
// not usable; call New.
type Ledger struct {
	mu       sync.Mutex
	balances map[balanceKey]aaa.Amount
	pools    map[pairKey]*pool
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[balanceKey]aaa.Amount),
		pools:    make(map[pairKey]*pool),
	}
}

// Transfer implements aaa.AssetOps.
func (l *Ledger) Transfer(ctx context.Context, from, to aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, asset, amount)
}

// Burn implements aaa.AssetOps.
func (l *Ledger) Burn(ctx context.Context, from aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debit(from, asset, amount)
}

// Mint implements aaa.AssetOps.
func (l *Ledger) Mint(ctx context.Context, to aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credit(to, asset, amount)
}

// Balance implements aaa.AssetOps. Unknown accounts and assets report
// zero.
func (l *Ledger) Balance(ctx context.Context, account aaa.Account, asset aaa.Asset) (aaa.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey{account, asset}], nil
}

// SetBalance overwrites an account balance. Test and seeding helper,
// not part of the capability surface.
func (l *Ledger) SetBalance(account aaa.Account, asset aaa.Asset, amount aaa.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount == 0 {
		delete(l.balances, balanceKey{account, asset})
		return
	}
	l.balances[balanceKey{account, asset}] = amount
}

// move debits from and credits to under the held lock.
func (l *Ledger) move(from, to aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	if amount == 0 {
		return nil
	}
	if err := l.debit(from, asset, amount); err != nil {
		return err
	}
	if err := l.credit(to, asset, amount); err != nil {
		// Roll the debit back so the failed transfer is atomic.
		l.balances[balanceKey{from, asset}] += amount
		return err
	}
	return nil
}

func (l *Ledger) debit(from aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	key := balanceKey{from, asset}
	have := l.balances[key]
	if have < amount {
		return fmt.Errorf("debit %d %s from %s (have %d): %w", amount, asset, from, have, ErrInsufficientBalance)
	}
	if have == amount {
		delete(l.balances, key)
	} else {
		l.balances[key] = have - amount
	}
	return nil
}

func (l *Ledger) credit(to aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	key := balanceKey{to, asset}
	have := l.balances[key]
	if have+amount < have {
		return fmt.Errorf("credit %d %s to %s: %w", amount, asset, to, ErrOverflow)
	}
	l.balances[key] += amount
	return nil
}

// BalanceRow is one (account, asset, amount) entry of a snapshot.
type BalanceRow struct {
	Account aaa.Account
	Asset   aaa.Asset
	Amount  aaa.Amount
}

// ExportBalances returns all non-zero balances for persistence.
func (l *Ledger) ExportBalances() []BalanceRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([]BalanceRow, 0, len(l.balances))
	for key, amount := range l.balances {
		rows = append(rows, BalanceRow{Account: key.account, Asset: key.asset, Amount: amount})
	}
	return rows
}

// RestoreBalances replaces all balances from a snapshot.
func (l *Ledger) RestoreBalances(rows []BalanceRow) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[balanceKey]aaa.Amount, len(rows))
	for _, row := range rows {
		if row.Amount != 0 {
			l.balances[balanceKey{row.Account, row.Asset}] = row.Amount
		}
	}
}
