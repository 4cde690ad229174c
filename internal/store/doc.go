// Package store keeps a history of harness runs in SQLite.
//
// Each recorded run is one row in runs plus one row per case in
// case_results and per after-all failure in suite_failures. Rows inside a
// run are ordered by seq, the position of the result in the report, so a
// run reads back in the order it executed.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait on lock contention
//   - foreign_keys=ON: cascade deletes of a run to its results
//   - one open connection: SQLite allows a single writer
package store
