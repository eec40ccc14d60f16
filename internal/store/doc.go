// Package store provides the SQLite-backed journal of submitted work.
//
// The journal is append-only and holds two record kinds:
//   - Transactions: rendered transaction bodies and the peer's answer
//   - Queries: rendered queries, their arguments and the row count returned
//
// # Ordering
//
// Every record carries a logical seq shared by both tables. Reads order by
// seq ASC, id ASC COLLATE BINARY and never by wall time, so a replay
// resubmits transactions in exactly the order they were first committed.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// Record ids are random UUIDs from github.com/google/uuid.
package store
