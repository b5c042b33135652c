// Package harness runs seqdb scenarios: YAML files describing a keyspace,
// setup, a flow of engine operations with expected outcomes, and
// assertions on the final store.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	keyspace:
//	  alphabet: abc
//	  length: 4
//	setup:
//	  initialize: [a, b]   # omitted: every partition; []: none
//	  found: [abca]        # marked found before the flow
//	flow:
//	  - op: mark
//	    sequences: [abca, bcab]
//	    expect: { applied: 2, rejected: 0 }
//	  - op: lookup
//	    sequence: abca
//	    expect: { state: found }
//	assertions:
//	  - type: found
//	    sequences: [abca]
//	  - type: stats
//	    partition: a
//	    total: 27
//	    found: 1
//
// # Operations
//
//   - initialize: populate partitions (all when none are listed)
//   - mark: set the found flag of sequences from any partition
//   - bulk_update: set the found flag of sequences of one partition
//   - lookup: read one sequence; state is found, not_found or absent
//   - not_found: list the unfound sequences of a table
//   - stats: count one partition, or every partition when none is given
//
// # Assertion Types
//
//   - found, not_found, absent: every listed sequence is in that state
//   - stats: total and/or found counts of a partition or of the store
//
// # Deterministic Testing
//
// Every operation appends one event to the trace with a sequential seq
// number, its input and its outcome. Error messages have the store
// directory replaced by $DIR, so traces are stable across runs and can be
// compared against golden files (see RunWithGolden).
package harness
