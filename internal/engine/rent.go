package engine

import (
	"context"
	"log/slog"

	"github.com/cindergrid/automaton/internal/aaa"
)

// accrueRent charges every live instance RentPerTick of book rent,
// capped at MaxRentAccrual, and every RentDebitPeriod ticks settles
// the accrued amount against the sovereign's fee-asset balance. The
// debit takes min(accrued, balance); whatever cannot be covered stays
// accrued and feeds the sweep eligibility check.
//
// Rent accrues even while the breaker is engaged or the instance is
// paused: occupancy of a registry slot is what rent prices, not
// execution.
func (s *Scheduler) accrueRent(ctx context.Context, now aaa.Tick) aaa.Amount {
	var debited aaa.Amount

	settle := s.params.RentDebitPeriod > 0 && now%s.params.RentDebitPeriod == 0

	for _, id := range s.reg.IDs() {
		in, ok := s.reg.Get(id)
		if !ok {
			continue
		}

		in.RentAccrued += s.params.RentPerTick
		if in.RentAccrued > s.params.MaxRentAccrual {
			in.RentAccrued = s.params.MaxRentAccrual
		}

		if !settle || in.RentAccrued == 0 {
			continue
		}

		bal, err := s.assets.Balance(ctx, in.Sovereign, s.params.FeeAsset)
		if err != nil {
			slog.Warn("rent balance read failed", "id", id, "error", err)
			continue
		}
		due := in.RentAccrued
		if bal < due {
			due = bal
		}
		if due == 0 {
			continue
		}
		if err := s.assets.Transfer(ctx, in.Sovereign, s.params.FeeSink, s.params.FeeAsset, due); err != nil {
			slog.Warn("rent debit failed", "id", id, "error", err)
			continue
		}
		in.RentAccrued -= due
		debited += due
		s.metrics.ObserveRent(due)
	}
	return debited
}

// SweepEligible reports whether an instance can be reclaimed by anyone:
//   - its consecutive-failure count has exceeded the cap (any class), or
//   - it is user class and cannot sustain itself: the sovereign
//     fee-asset balance is below MinUserBalance plus the rent still
//     owed.
//
// System-class instances are exempt from the solvency rule; operators
// close them explicitly.
func (s *Scheduler) SweepEligible(ctx context.Context, id aaa.ID) (bool, error) {
	in, ok := s.reg.Get(id)
	if !ok {
		return false, &SweepError{Code: ErrCodeNotSweepable, ID: id, Message: "no such instance"}
	}

	if in.ConsecutiveFailures > s.params.MaxConsecutiveFailures {
		return true, nil
	}
	if in.Class != aaa.ClassUser {
		return false, nil
	}
	bal, err := s.assets.Balance(ctx, in.Sovereign, s.params.FeeAsset)
	if err != nil {
		return false, err
	}
	return bal < s.params.MinUserBalance+in.RentAccrued, nil
}

// Sweep reclaims an eligible instance: refunds remaining sovereign
// holdings per the refund policy, frees the owner slot, and removes
// the registration. Permissionless: any caller may invoke it, the
// eligibility check is the only gate. Queued ring entries for the
// swept instance are dropped lazily at admission time.
func (s *Scheduler) Sweep(ctx context.Context, caller aaa.Account, id aaa.ID) error {
	eligible, err := s.SweepEligible(ctx, id)
	if err != nil {
		return err
	}
	if !eligible {
		return &SweepError{Code: ErrCodeNotSweepable, ID: id, Message: "instance is solvent and below the failure cap"}
	}

	if err := s.reg.RefundAndClose(ctx, id, s.assets); err != nil {
		return err
	}
	s.metrics.ObserveSweep()
	slog.Info("instance swept", "id", id, "caller", caller, "tick", s.clock.Current())
	return nil
}
