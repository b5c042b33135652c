// Package engine implements lookups, bulk updates and not-found extraction
// over the partitioned sequence store.
//
// # Bulk updates
//
// BulkUpdate targets one partition. Its members are normalized, validated
// and grouped by table key into at most len(alphabet) buckets; every
// non-empty bucket is written with a single statement. Write cost per call
// is therefore bounded by the alphabet size, not the number of sequences.
//
// Members that fail validation are never indexed into a bucket. They are
// excluded, logged and returned as MalformedBatchMemberError values while
// the rest of the batch proceeds.
//
// Buckets are not applied atomically as a group: if a store error stops
// the loop, earlier buckets stay applied. Updates are idempotent, so the
// caller retries the whole batch.
//
// # Resource model
//
// Every operation opens the partition it needs and closes it before
// returning. The engine is not safe for concurrent writers.
package engine
