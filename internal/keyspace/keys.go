package keyspace

import "strconv"

// Sequence is a validated, lowercase sequence. Only Keyspace.Parse produces
// values that are guaranteed valid.
type Sequence string

// Partition returns the key of the partition holding s.
func (s Sequence) Partition() PartitionKey {
	return PartitionKey(s[:1])
}

// Table returns the key of the table holding s.
func (s Sequence) Table() TableKey {
	return TableKey(s[:2])
}

func (s Sequence) String() string { return string(s) }

// PartitionKey is the first character of a sequence. It names one physical
// store.
type PartitionKey string

func (p PartitionKey) String() string { return string(p) }

// TableKey is the first two characters of a sequence. It names one table
// inside the partition given by its first character.
type TableKey string

// Partition returns the partition that owns t.
func (t TableKey) Partition() PartitionKey {
	return PartitionKey(t[:1])
}

// Ident returns t quoted as an SQL identifier.
func (t TableKey) Ident() string {
	return strconv.Quote(string(t))
}

func (t TableKey) String() string { return string(t) }
