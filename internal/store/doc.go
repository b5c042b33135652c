// Package store provides SQLite-backed partition storage for the sequence
// index.
//
// The keyspace is split into one SQLite file per partition key (first
// character) and one table per table key (first two characters):
//
//	<dir>/a.db
//	  "aa" (sequence TEXT PRIMARY KEY, found BOOLEAN DEFAULT FALSE)
//	  "ab" ...
//	<dir>/b.db
//	  ...
//
// # Handles
//
// Store.Open returns a Partition handle bound to one file. Handles hold a
// single connection and are meant to live for one operation: callers open,
// work and Close. Nothing is cached between handles.
//
// # Writes
//
//   - Populate is the only path that creates rows (INSERT OR IGNORE).
//   - SetFound is the only path that mutates rows; one UPDATE per table key.
//   - No write ever targets a table outside the handle's partition.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
package store
