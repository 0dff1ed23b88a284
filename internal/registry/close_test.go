package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/ledger"
)

// nopAssets satisfies aaa.AssetOps with no balances at all. Used where
// a test only exercises registry bookkeeping.
type nopAssets struct{}

func (nopAssets) Transfer(ctx context.Context, from, to aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	return nil
}
func (nopAssets) Burn(ctx context.Context, from aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	return nil
}
func (nopAssets) Mint(ctx context.Context, to aaa.Account, asset aaa.Asset, amount aaa.Amount) error {
	return nil
}
func (nopAssets) Balance(ctx context.Context, account aaa.Account, asset aaa.Asset) (aaa.Amount, error) {
	return 0, nil
}

// TestRefundAndClose tests that closing refunds the fee asset and the
// refundable-asset list to the refund target and frees all registry
// state.
func TestRefundAndClose(t *testing.T) {
	ctx := context.Background()
	params := aaa.DefaultParams()
	r := New(params)
	l := ledger.New()

	spec := testSpec("alice")
	spec.RefundAssets = []aaa.Asset{"USDC"}
	in, err := r.Create(spec, 0)
	require.NoError(t, err)

	l.SetBalance(in.Sovereign, params.FeeAsset, 500)
	l.SetBalance(in.Sovereign, "USDC", 250)
	l.SetBalance(in.Sovereign, "UNLISTED", 99)

	require.NoError(t, r.RefundAndClose(ctx, in.ID, l))

	got, err := l.Balance(ctx, "alice", params.FeeAsset)
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(500), got)

	got, err = l.Balance(ctx, "alice", "USDC")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(250), got)

	// Assets outside the bounded refund list stay behind.
	got, err = l.Balance(ctx, in.Sovereign, "UNLISTED")
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(99), got)

	_, ok := r.Get(in.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.OwnedCount("alice"))
	assert.False(t, r.SlotOccupancy("alice")[0])
}

// TestRefundAndClose_RefundTo tests the refund-target override.
func TestRefundAndClose_RefundTo(t *testing.T) {
	ctx := context.Background()
	params := aaa.DefaultParams()
	r := New(params)
	l := ledger.New()

	target := "cold-wallet"
	spec := testSpec("alice")
	spec.RefundTo = &target
	in, err := r.Create(spec, 0)
	require.NoError(t, err)

	l.SetBalance(in.Sovereign, params.FeeAsset, 77)
	require.NoError(t, r.RefundAndClose(ctx, in.ID, l))

	got, err := l.Balance(ctx, "cold-wallet", params.FeeAsset)
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(77), got)
}

// TestCloseByOwner tests the owner gate on the owner-initiated close.
func TestCloseByOwner(t *testing.T) {
	ctx := context.Background()
	r := New(aaa.DefaultParams())
	in, err := r.Create(testSpec("alice"), 0)
	require.NoError(t, err)

	err = r.CloseByOwner(ctx, "mallory", in.ID, nopAssets{})
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotOwner, Code(err))
	_, ok := r.Get(in.ID)
	assert.True(t, ok, "rejected close must not delete")

	require.NoError(t, r.CloseByOwner(ctx, "alice", in.ID, nopAssets{}))
	_, ok = r.Get(in.ID)
	assert.False(t, ok)
}

// TestFund tests funding the sovereign account.
func TestFund(t *testing.T) {
	ctx := context.Background()
	params := aaa.DefaultParams()
	r := New(params)
	l := ledger.New()

	in, err := r.Create(testSpec("alice"), 0)
	require.NoError(t, err)

	l.SetBalance("bob", params.FeeAsset, 1000)
	// Anyone may fund, not only the owner.
	require.NoError(t, r.Fund(ctx, "bob", in.ID, 400, l))

	got, err := l.Balance(ctx, in.Sovereign, params.FeeAsset)
	require.NoError(t, err)
	assert.Equal(t, aaa.Amount(400), got)

	err = r.Fund(ctx, "bob", in.ID, 10_000, l)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	err = r.Fund(ctx, "bob", 999, 1, l)
	assert.True(t, IsNotFound(err))
}
