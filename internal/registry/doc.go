// Package registry owns the AAA instance records and the per-owner
// bounded slot tables.
//
// The registry is the only allocator of instance IDs (monotonic, never
// reused) and the only authority on slot occupancy. Every mutating
// entry point re-runs the same shape validation as creation; there is
// no bypass path.
//
// Slot allocation is a bounded linear scan capped at
// Params.MaxOwnerSlots. A free-list would give O(1) amortized
// allocation; the scan is kept because its worst case is trivially
// benchmarkable, which matters more here than the constant factor.
//
// The registry holds no locks: the engine's single-writer-per-tick
// discipline serializes all access, and the registry is only reached
// through that writer.
package registry
