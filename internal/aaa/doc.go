// Package aaa defines the core data model for Autonomous Account
// Automation (AAA) instances: typed identifiers, instance records,
// pipelines, tasks, conditions, schedules, chain parameters, and the
// shape validator applied on every mutation path.
//
// An AAA instance is an automated actor that owns a dedicated sovereign
// account, executes a bounded pipeline of conditional tasks on a
// schedule, pays its own execution fees and rent from the sovereign
// account, and can be reclaimed by anyone once it is insolvent or
// perpetually failing.
//
// DESIGN CONSTRAINTS:
//
// Bounded everything:
// Pipelines, condition lists, refundable-asset lists, and owner slot
// tables are all fixed-capacity. Inserts past capacity are rejected,
// never silently truncated. This is what makes worst-case per-tick
// execution cost statically analyzable.
//
// Closed task union:
// Task and Condition are closed tagged unions (a Kind tag plus per-kind
// parameter structs). The executor matches kinds explicitly; there is no
// open dispatch surface.
//
// Capability interfaces:
// AssetOps and DexOps are the only way the engine touches balances and
// pools. Concrete ledger/DEX backends are supplied by the host and
// substituted with fakes in tests.
package aaa
