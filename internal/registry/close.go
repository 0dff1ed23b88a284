package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cindergrid/automaton/internal/aaa"
)

// CloseByOwner is the owner-initiated refund_and_close entry point.
func (r *Registry) CloseByOwner(ctx context.Context, owner aaa.Account, id aaa.ID, assets aaa.AssetOps) error {
	if _, err := r.ownedBy(id, owner); err != nil {
		return err
	}
	return r.RefundAndClose(ctx, id, assets)
}

// RefundAndClose transfers refundable assets (bounded scan, at most
// MaxRefundableAssets plus the fee asset) from the sovereign account
// to the refund target, frees the owner slot, and deletes the
// instance. Ring membership is removed lazily: the scheduler drops
// popped IDs that no longer resolve.
//
// Refund transfers are best-effort per asset: a failing transfer is
// logged and skipped so an exotic asset cannot wedge the close path.
// This is the single destruction path; nothing else deletes instance
// state.
func (r *Registry) RefundAndClose(ctx context.Context, id aaa.ID, assets aaa.AssetOps) error {
	in, err := r.get(id)
	if err != nil {
		return err
	}

	target := in.RefundTarget()
	r.refundAsset(ctx, in, r.params.FeeAsset, target, assets)
	for _, asset := range in.RefundableAssets {
		if asset == r.params.FeeAsset {
			continue
		}
		r.refundAsset(ctx, in, asset, target, assets)
	}

	delete(r.slots, slotKey{in.Owner, in.OwnerSlot})
	delete(r.instances, id)
	r.owned[in.Owner]--
	if r.owned[in.Owner] == 0 {
		delete(r.owned, in.Owner)
	}

	slog.Info("instance closed",
		"id", id,
		"owner", in.Owner,
		"slot", in.OwnerSlot,
		"refund_target", target,
	)
	return nil
}

// refundAsset moves the sovereign's full balance of one asset to the
// refund target.
func (r *Registry) refundAsset(ctx context.Context, in *aaa.Instance, asset aaa.Asset, target aaa.Account, assets aaa.AssetOps) {
	balance, err := assets.Balance(ctx, in.Sovereign, asset)
	if err != nil {
		slog.Warn("refund balance lookup failed", "id", in.ID, "asset", asset, "error", err)
		return
	}
	if balance == 0 {
		return
	}
	if err := assets.Transfer(ctx, in.Sovereign, target, asset, balance); err != nil {
		slog.Warn("refund transfer failed", "id", in.ID, "asset", asset, "amount", balance, "error", err)
		return
	}
	slog.Debug("refund transferred", "id", in.ID, "asset", asset, "amount", balance, "to", target)
}

// Fund moves amount of the fee asset from the funder into the
// instance's sovereign account. Anyone may fund any instance.
func (r *Registry) Fund(ctx context.Context, funder aaa.Account, id aaa.ID, amount aaa.Amount, assets aaa.AssetOps) error {
	in, err := r.get(id)
	if err != nil {
		return err
	}
	if err := assets.Transfer(ctx, funder, in.Sovereign, r.params.FeeAsset, amount); err != nil {
		return fmt.Errorf("fund instance %d: %w", id, err)
	}
	slog.Info("instance funded", "id", id, "from", funder, "amount", amount)
	return nil
}
