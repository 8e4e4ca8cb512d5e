// Package store provides SQLite-backed storage for optimization runs.
//
// The store keeps three tables:
//   - runs: one row per planner invocation over a set of chains
//   - plans: optimal plans keyed by the content hash of the chain
//   - run_plans: which plan served which named chain of a run
//
// Because plan IDs are content hashes (ir.ExprHash), the plans table is also
// a cache: a chain seen before is served without re-running the optimizer.
//
// # Critical Patterns
//
// Idempotent writes
//   - INSERT ... ON CONFLICT DO NOTHING on every table
//   - Writing the same plan twice keeps the first row
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//
// Deterministic query results
//   - All list queries use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
// Set per connection through the DSN:
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// PRAGMA user_version records the schema version. Open refuses a database
// stamped with any other version.
package store
