// Package store provides SQLite-backed durable storage for engine
// snapshots.
//
// A snapshot is the complete world state between ticks: the tick
// counter, the breaker flag, every instance record, the ring contents
// in FIFO order, and the ledger (balances and pools). Saves replace
// the previous snapshot atomically in one transaction; a process can
// stop after any tick and resume from the last saved snapshot with
// identical behavior.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// All reads order by primary key so a loaded snapshot round-trips
// byte-identically through save/load.
package store
