package registry

import (
	"log/slog"

	"github.com/cindergrid/automaton/internal/aaa"
)

// Owner mutation entry points. Each is a single atomic state
// transition: validation first, then one field group changes. All are
// idempotent with respect to re-application of the same value.

// Pause stops future admissions of the instance. Ring membership is
// untouched; an already-queued entry is dropped lazily when the
// fairness controller would pop it.
func (r *Registry) Pause(owner aaa.Account, id aaa.ID) error {
	in, err := r.ownedBy(id, owner)
	if err != nil {
		return err
	}
	if !in.Paused {
		in.Paused = true
		slog.Info("instance paused", "id", id, "owner", owner)
	}
	return nil
}

// Resume re-enables admissions.
func (r *Registry) Resume(owner aaa.Account, id aaa.ID) error {
	in, err := r.ownedBy(id, owner)
	if err != nil {
		return err
	}
	if in.Paused {
		in.Paused = false
		slog.Info("instance resumed", "id", id, "owner", owner)
	}
	return nil
}

// ManualTrigger sets the manual-trigger flag. The instance becomes due
// at the next trigger evaluation once its cooldown window has elapsed;
// setting the flag again before then has no further effect.
func (r *Registry) ManualTrigger(owner aaa.Account, id aaa.ID) error {
	in, err := r.ownedBy(id, owner)
	if err != nil {
		return err
	}
	if !in.ManualPending {
		in.ManualPending = true
		slog.Info("manual trigger set", "id", id, "owner", owner)
	}
	return nil
}

// mutable returns the instance if it is owned by owner and accepts
// updates.
func (r *Registry) mutable(id aaa.ID, owner aaa.Account) (*aaa.Instance, error) {
	in, err := r.ownedBy(id, owner)
	if err != nil {
		return nil, err
	}
	if !in.Mutable {
		return nil, &Error{Code: ErrCodeImmutable, ID: id, Owner: owner, Message: "instance does not accept updates"}
	}
	return in, nil
}

// UpdatePolicy replaces the instance's default error policy.
func (r *Registry) UpdatePolicy(owner aaa.Account, id aaa.ID, policy aaa.ErrorPolicy) error {
	in, err := r.mutable(id, owner)
	if err != nil {
		return err
	}
	if policy != aaa.AbortCycle && policy != aaa.ContinueNextStep {
		return &Error{Code: ErrCodeBadPolicy, ID: id, Message: "unknown error policy"}
	}
	if in.Policy != policy {
		in.Policy = policy
		slog.Info("policy updated", "id", id, "policy", policy)
	}
	return nil
}

// UpdateSchedule replaces the instance's schedule after re-running
// schedule validation.
func (r *Registry) UpdateSchedule(owner aaa.Account, id aaa.ID, schedule aaa.Schedule) error {
	in, err := r.mutable(id, owner)
	if err != nil {
		return err
	}
	if err := aaa.ValidateSchedule(schedule); err != nil {
		return err
	}
	if in.Schedule != schedule {
		in.Schedule = schedule
		slog.Info("schedule updated", "id", id, "trigger", schedule.Trigger, "cooldown", schedule.Cooldown)
	}
	return nil
}

// UpdateRefundAssets replaces the bounded refundable-asset list after
// re-running list validation.
func (r *Registry) UpdateRefundAssets(owner aaa.Account, id aaa.ID, assets []aaa.Asset) error {
	in, err := r.mutable(id, owner)
	if err != nil {
		return err
	}
	if err := aaa.ValidateRefundAssets(assets, &r.params); err != nil {
		return err
	}
	in.RefundableAssets = assets
	slog.Info("refund assets updated", "id", id, "count", len(assets))
	return nil
}
