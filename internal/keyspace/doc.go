// Package keyspace describes the set of fixed-length sequences the index
// covers and derives storage keys from them.
//
// Every sequence maps to exactly one partition (its first character) and
// one table (its first two characters). Derivation is pure: nothing here
// touches a store, so the mapping can be tested on its own.
//
//	sequence  "abcde"
//	partition "a"   -> file a.db
//	table     "ab"  -> table "ab" inside a.db
//
// Partition and table keys are typed and only produced from a validated
// Keyspace, which keeps every SQL identifier built from them inside a-z.
package keyspace
