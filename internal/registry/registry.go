package registry

import (
	"log/slog"
	"sort"

	"github.com/cindergrid/automaton/internal/aaa"
)

type slotKey struct {
	owner aaa.Account
	slot  uint32
}

// Registry holds all live instance records and the owner slot tables.
type Registry struct {
	params aaa.Params

	nextID    aaa.ID
	instances map[aaa.ID]*aaa.Instance
	slots     map[slotKey]aaa.ID
	owned     map[aaa.Account]int
}

// New creates an empty registry. IDs start at 1.
func New(params aaa.Params) *Registry {
	return &Registry{
		params:    params,
		nextID:    1,
		instances: make(map[aaa.ID]*aaa.Instance),
		slots:     make(map[slotKey]aaa.ID),
		owned:     make(map[aaa.Account]int),
	}
}

// Params returns the registry's parameter set.
func (r *Registry) Params() *aaa.Params {
	return &r.params
}

// CreateSpec carries the caller-supplied fields of a create call.
// Owner and RefundTo are raw identifiers; the registry normalizes
// them.
type CreateSpec struct {
	Owner        string
	Class        aaa.Class
	Mutable      bool
	Schedule     aaa.Schedule
	Pipeline     aaa.Pipeline
	Policy       aaa.ErrorPolicy
	RefundAssets []aaa.Asset
	RefundTo     *string
}

// Create validates the spec, allocates an ID and an owner slot, derives
// the sovereign account, and stores the new instance. The instance
// starts Idle with no completed cycle behind it, so it carries no
// cooldown window yet and may fire as soon as its trigger allows;
// LastRun records the creation tick as a reference point.
//
// Rejections (no state change): validation errors from the shape
// rules, OWNED_LIMIT_EXCEEDED, SLOTS_EXHAUSTED.
func (r *Registry) Create(spec CreateSpec, now aaa.Tick) (*aaa.Instance, error) {
	owner, err := aaa.NormalizeAccount(spec.Owner)
	if err != nil {
		return nil, err
	}

	var refundTo *aaa.Account
	if spec.RefundTo != nil {
		target, err := aaa.NormalizeAccount(*spec.RefundTo)
		if err != nil {
			return nil, err
		}
		refundTo = &target
	}

	if err := aaa.ValidateSchedule(spec.Schedule); err != nil {
		return nil, err
	}
	if err := aaa.ValidatePipeline(spec.Class, spec.Pipeline, &r.params); err != nil {
		return nil, err
	}
	if err := aaa.ValidateRefundAssets(spec.RefundAssets, &r.params); err != nil {
		return nil, err
	}

	if r.owned[owner] >= r.params.MaxOwnedAAAs {
		return nil, &Error{
			Code:    ErrCodeOwnedLimitExceeded,
			Owner:   owner,
			Message: "owner already holds the maximum number of instances",
		}
	}

	// With valid params (MaxOwnedAAAs <= MaxOwnerSlots) and one slot
	// per live instance, passing the owned-limit check guarantees a
	// free slot; SLOTS_EXHAUSTED surfaces a broken slot table, not a
	// full one.
	slot, ok := r.freeSlot(owner)
	if !ok {
		return nil, &Error{
			Code:    ErrCodeSlotsExhausted,
			Owner:   owner,
			Message: "no free owner slot",
		}
	}

	id := r.nextID
	r.nextID++

	in := &aaa.Instance{
		ID:               id,
		Owner:            owner,
		Sovereign:        aaa.SovereignAccount(id),
		Class:            spec.Class,
		Mutable:          spec.Mutable,
		Schedule:         spec.Schedule,
		Pipeline:         spec.Pipeline,
		Policy:           spec.Policy,
		OwnerSlot:        slot,
		RefundableAssets: spec.RefundAssets,
		RefundTo:         refundTo,
		LastRun:          now,
		RingState:        aaa.StateIdle,
	}

	r.instances[id] = in
	r.slots[slotKey{owner, slot}] = id
	r.owned[owner]++

	slog.Info("instance created",
		"id", id,
		"owner", owner,
		"class", in.Class,
		"slot", slot,
		"sovereign", in.Sovereign,
		"steps", len(in.Pipeline),
	)

	return in, nil
}

// freeSlot performs the bounded linear scan for the first unoccupied
// slot index of an owner.
func (r *Registry) freeSlot(owner aaa.Account) (uint32, bool) {
	for slot := uint32(0); slot < uint32(r.params.MaxOwnerSlots); slot++ {
		if _, taken := r.slots[slotKey{owner, slot}]; !taken {
			return slot, true
		}
	}
	return 0, false
}

// Get returns the instance with the given ID.
func (r *Registry) Get(id aaa.ID) (*aaa.Instance, bool) {
	in, ok := r.instances[id]
	return in, ok
}

// get is the NOT_FOUND-wrapping variant used by mutation paths.
func (r *Registry) get(id aaa.ID) (*aaa.Instance, error) {
	in, ok := r.instances[id]
	if !ok {
		return nil, &Error{Code: ErrCodeNotFound, ID: id, Message: "no such instance"}
	}
	return in, nil
}

// ownedBy returns the instance if it exists and is owned by owner.
func (r *Registry) ownedBy(id aaa.ID, owner aaa.Account) (*aaa.Instance, error) {
	in, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if in.Owner != owner {
		return nil, &Error{Code: ErrCodeNotOwner, ID: id, Owner: owner, Message: "caller does not own instance"}
	}
	return in, nil
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	return len(r.instances)
}

// IDs returns all live instance IDs in ascending order. The ID order
// is the deterministic iteration order of every per-tick phase.
func (r *Registry) IDs() []aaa.ID {
	ids := make([]aaa.ID, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SlotOccupancy returns the owner's slot table as a bitmap of length
// MaxOwnerSlots. Operational visibility query.
func (r *Registry) SlotOccupancy(owner aaa.Account) []bool {
	occ := make([]bool, r.params.MaxOwnerSlots)
	for slot := range occ {
		_, occ[slot] = r.slots[slotKey{owner, uint32(slot)}]
	}
	return occ
}

// OwnedCount returns how many instances the owner currently holds.
func (r *Registry) OwnedCount(owner aaa.Account) int {
	return r.owned[owner]
}

// NextID returns the next ID the registry will allocate. Persisted so
// IDs stay monotonic across restarts even when the newest instances
// have been closed.
func (r *Registry) NextID() aaa.ID {
	return r.nextID
}

// Restore replaces the registry contents from persisted state,
// rebuilding the slot and ownership indexes.
func (r *Registry) Restore(instances []aaa.Instance, nextID aaa.ID) {
	r.instances = make(map[aaa.ID]*aaa.Instance, len(instances))
	r.slots = make(map[slotKey]aaa.ID, len(instances))
	r.owned = make(map[aaa.Account]int)
	for i := range instances {
		in := instances[i]
		r.instances[in.ID] = &in
		r.slots[slotKey{in.Owner, in.OwnerSlot}] = in.ID
		r.owned[in.Owner]++
	}
	r.nextID = nextID
}

// Export returns all instances in ID order for persistence.
func (r *Registry) Export() []aaa.Instance {
	out := make([]aaa.Instance, 0, len(r.instances))
	for _, id := range r.IDs() {
		out = append(out, *r.instances[id])
	}
	return out
}
