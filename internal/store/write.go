package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/engine"
	"github.com/cindergrid/automaton/internal/ledger"
)

// Ring names used in the ring_entries table.
const (
	ringReadySystem = "ready_system"
	ringReadyUser   = "ready_user"
	ringDeferred    = "deferred"
)

// Snapshot is the complete persisted world state between ticks.
type Snapshot struct {
	Tick    aaa.Tick
	Breaker bool
	NextID  aaa.ID

	Instances []aaa.Instance
	Rings     engine.RingSnapshot
	Balances  []ledger.BalanceRow
	Pools     []ledger.PoolRow
}

// SaveSnapshot replaces the stored snapshot in one transaction. A
// reader never observes a half-written world.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, table := range []string{"pool_shares", "pools", "balances", "ring_entries", "instances"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("save snapshot: clear %s: %w", table, err)
		}
	}

	if err := writeMeta(ctx, tx, map[string]string{
		"tick":    strconv.FormatUint(uint64(snap.Tick), 10),
		"breaker": strconv.FormatBool(snap.Breaker),
		"next_id": strconv.FormatInt(int64(snap.NextID), 10),
	}); err != nil {
		return err
	}

	for i := range snap.Instances {
		if err := writeInstance(ctx, tx, &snap.Instances[i]); err != nil {
			return err
		}
	}
	if err := writeRings(ctx, tx, snap.Rings); err != nil {
		return err
	}
	if err := writeLedger(ctx, tx, snap.Balances, snap.Pools); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	return nil
}

func writeMeta(ctx context.Context, tx *sql.Tx, values map[string]string) error {
	for key, value := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("save snapshot: meta %s: %w", key, err)
		}
	}
	return nil
}

func writeInstance(ctx context.Context, tx *sql.Tx, in *aaa.Instance) error {
	pipeJSON, err := marshalPipeline(in.Pipeline)
	if err != nil {
		return fmt.Errorf("save snapshot: instance %d: %w", in.ID, err)
	}
	assetsJSON, err := marshalAssets(in.RefundableAssets)
	if err != nil {
		return fmt.Errorf("save snapshot: instance %d: %w", in.ID, err)
	}

	var refundTo sql.NullString
	if in.RefundTo != nil {
		refundTo = sql.NullString{String: string(*in.RefundTo), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO instances
		(id, owner, sovereign, class, mutable, trigger_kind, cooldown,
		 pipeline, policy, paused, manual_pending, cycle_nonce,
		 consecutive_failures, owner_slot, refund_assets, refund_to,
		 has_run, last_run, rent_accrued, ring_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		int64(in.ID),
		string(in.Owner),
		string(in.Sovereign),
		int(in.Class),
		in.Mutable,
		int(in.Schedule.Trigger),
		int64(in.Schedule.Cooldown),
		pipeJSON,
		int(in.Policy),
		in.Paused,
		in.ManualPending,
		int64(in.CycleNonce),
		int64(in.ConsecutiveFailures),
		int64(in.OwnerSlot),
		assetsJSON,
		refundTo,
		in.HasRun,
		int64(in.LastRun),
		int64(in.RentAccrued),
		int(in.RingState),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: instance %d: %w", in.ID, err)
	}
	return nil
}

func writeRings(ctx context.Context, tx *sql.Tx, rings engine.RingSnapshot) error {
	insert := func(ring string, position int, id aaa.ID, earliest aaa.Tick) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ring_entries (ring, position, instance_id, earliest_retry)
			VALUES (?, ?, ?, ?)
		`, ring, position, int64(id), int64(earliest))
		if err != nil {
			return fmt.Errorf("save snapshot: ring %s position %d: %w", ring, position, err)
		}
		return nil
	}

	for i, id := range rings.ReadySystem {
		if err := insert(ringReadySystem, i, id, 0); err != nil {
			return err
		}
	}
	for i, id := range rings.ReadyUser {
		if err := insert(ringReadyUser, i, id, 0); err != nil {
			return err
		}
	}
	for i, e := range rings.Deferred {
		if err := insert(ringDeferred, i, e.ID, e.EarliestRetry); err != nil {
			return err
		}
	}
	return nil
}

func writeLedger(ctx context.Context, tx *sql.Tx, balances []ledger.BalanceRow, pools []ledger.PoolRow) error {
	for _, row := range balances {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO balances (account, asset, amount) VALUES (?, ?, ?)
		`, string(row.Account), string(row.Asset), int64(row.Amount))
		if err != nil {
			return fmt.Errorf("save snapshot: balance %s/%s: %w", row.Account, row.Asset, err)
		}
	}

	for _, row := range pools {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pools (asset_a, asset_b, reserve_a, reserve_b, total_shares)
			VALUES (?, ?, ?, ?, ?)
		`, string(row.AssetA), string(row.AssetB), int64(row.ReserveA), int64(row.ReserveB), int64(row.TotalShares))
		if err != nil {
			return fmt.Errorf("save snapshot: pool %s/%s: %w", row.AssetA, row.AssetB, err)
		}
		for who, shares := range row.Shares {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO pool_shares (asset_a, asset_b, account, shares)
				VALUES (?, ?, ?, ?)
			`, string(row.AssetA), string(row.AssetB), string(who), int64(shares))
			if err != nil {
				return fmt.Errorf("save snapshot: pool share %s/%s %s: %w", row.AssetA, row.AssetB, who, err)
			}
		}
	}
	return nil
}
