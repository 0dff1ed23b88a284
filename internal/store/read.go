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

// LoadSnapshot reads the stored world state. An empty database yields
// a fresh snapshot: tick zero, breaker released, next ID one.
func (s *Store) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{NextID: 1}

	meta, err := s.readMeta(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if v, ok := meta["tick"]; ok {
		tick, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("load snapshot: bad tick %q: %w", v, err)
		}
		snap.Tick = aaa.Tick(tick)
	}
	if v, ok := meta["breaker"]; ok {
		snap.Breaker = v == "true"
	}
	if v, ok := meta["next_id"]; ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("load snapshot: bad next_id %q: %w", v, err)
		}
		snap.NextID = aaa.ID(id)
	}

	if snap.Instances, err = s.readInstances(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Rings, err = s.readRings(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Balances, err = s.readBalances(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Pools, err = s.readPools(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("load snapshot: meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("load snapshot: meta: %w", err)
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

func (s *Store) readInstances(ctx context.Context) ([]aaa.Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, sovereign, class, mutable, trigger_kind, cooldown,
		       pipeline, policy, paused, manual_pending, cycle_nonce,
		       consecutive_failures, owner_slot, refund_assets, refund_to,
		       has_run, last_run, rent_accrued, ring_state
		FROM instances
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: instances: %w", err)
	}
	defer rows.Close()

	var out []aaa.Instance
	for rows.Next() {
		var (
			in         aaa.Instance
			id         int64
			class      int
			trigger    int
			cooldown   int64
			pipeJSON   string
			policy     int
			nonce      int64
			failures   int64
			slot       int64
			assetsJSON string
			refundTo   sql.NullString
			lastRun    int64
			rent       int64
			state      int
		)
		if err := rows.Scan(
			&id, &in.Owner, &in.Sovereign, &class, &in.Mutable, &trigger, &cooldown,
			&pipeJSON, &policy, &in.Paused, &in.ManualPending, &nonce,
			&failures, &slot, &assetsJSON, &refundTo,
			&in.HasRun, &lastRun, &rent, &state,
		); err != nil {
			return nil, fmt.Errorf("load snapshot: instances: %w", err)
		}

		in.ID = aaa.ID(id)
		in.Class = aaa.Class(class)
		in.Schedule = aaa.Schedule{Trigger: aaa.TriggerKind(trigger), Cooldown: aaa.Tick(cooldown)}
		in.Policy = aaa.ErrorPolicy(policy)
		in.CycleNonce = uint64(nonce)
		in.ConsecutiveFailures = uint32(failures)
		in.OwnerSlot = uint32(slot)
		in.LastRun = aaa.Tick(lastRun)
		in.RentAccrued = aaa.Amount(rent)
		in.RingState = aaa.RingState(state)

		if in.Pipeline, err = unmarshalPipeline(pipeJSON); err != nil {
			return nil, fmt.Errorf("load snapshot: instance %d: %w", id, err)
		}
		if in.RefundableAssets, err = unmarshalAssets(assetsJSON); err != nil {
			return nil, fmt.Errorf("load snapshot: instance %d: %w", id, err)
		}
		if refundTo.Valid {
			target := aaa.Account(refundTo.String)
			in.RefundTo = &target
		}

		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *Store) readRings(ctx context.Context) (engine.RingSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ring, instance_id, earliest_retry
		FROM ring_entries
		ORDER BY ring ASC, position ASC
	`)
	if err != nil {
		return engine.RingSnapshot{}, fmt.Errorf("load snapshot: rings: %w", err)
	}
	defer rows.Close()

	var snap engine.RingSnapshot
	for rows.Next() {
		var (
			ring     string
			id       int64
			earliest int64
		)
		if err := rows.Scan(&ring, &id, &earliest); err != nil {
			return engine.RingSnapshot{}, fmt.Errorf("load snapshot: rings: %w", err)
		}
		switch ring {
		case ringReadySystem:
			snap.ReadySystem = append(snap.ReadySystem, aaa.ID(id))
		case ringReadyUser:
			snap.ReadyUser = append(snap.ReadyUser, aaa.ID(id))
		case ringDeferred:
			snap.Deferred = append(snap.Deferred, engine.DeferredEntry{
				ID:            aaa.ID(id),
				EarliestRetry: aaa.Tick(earliest),
			})
		default:
			return engine.RingSnapshot{}, fmt.Errorf("load snapshot: unknown ring %q", ring)
		}
	}
	return snap, rows.Err()
}

func (s *Store) readBalances(ctx context.Context) ([]ledger.BalanceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account, asset, amount
		FROM balances
		ORDER BY account ASC, asset ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: balances: %w", err)
	}
	defer rows.Close()

	var out []ledger.BalanceRow
	for rows.Next() {
		var (
			row    ledger.BalanceRow
			amount int64
		)
		if err := rows.Scan(&row.Account, &row.Asset, &amount); err != nil {
			return nil, fmt.Errorf("load snapshot: balances: %w", err)
		}
		row.Amount = aaa.Amount(amount)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) readPools(ctx context.Context) ([]ledger.PoolRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT asset_a, asset_b, reserve_a, reserve_b, total_shares
		FROM pools
		ORDER BY asset_a ASC, asset_b ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: pools: %w", err)
	}
	defer rows.Close()

	var out []ledger.PoolRow
	for rows.Next() {
		var (
			row      ledger.PoolRow
			reserveA int64
			reserveB int64
			total    int64
		)
		if err := rows.Scan(&row.AssetA, &row.AssetB, &reserveA, &reserveB, &total); err != nil {
			return nil, fmt.Errorf("load snapshot: pools: %w", err)
		}
		row.ReserveA = aaa.Amount(reserveA)
		row.ReserveB = aaa.Amount(reserveB)
		row.TotalShares = aaa.Amount(total)
		row.Shares = make(map[aaa.Account]aaa.Amount)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := s.readPoolShares(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) readPoolShares(ctx context.Context, row *ledger.PoolRow) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account, shares
		FROM pool_shares
		WHERE asset_a = ? AND asset_b = ?
		ORDER BY account ASC
	`, string(row.AssetA), string(row.AssetB))
	if err != nil {
		return fmt.Errorf("load snapshot: pool shares %s/%s: %w", row.AssetA, row.AssetB, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			who    string
			shares int64
		)
		if err := rows.Scan(&who, &shares); err != nil {
			return fmt.Errorf("load snapshot: pool shares %s/%s: %w", row.AssetA, row.AssetB, err)
		}
		row.Shares[aaa.Account(who)] = aaa.Amount(shares)
	}
	return rows.Err()
}
