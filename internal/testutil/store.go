package testutil

import (
	"context"
	"testing"

	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/store"
)

// SmallAlphabet and SmallLength give a keyspace of 3 partitions, 9 tables
// and 81 sequences: large enough to exercise every bucket, small enough
// to populate in milliseconds.
const (
	SmallAlphabet = "abc"
	SmallLength   = 4
)

// SmallKeyspace returns the keyspace described by SmallAlphabet and
// SmallLength.
func SmallKeyspace(t testing.TB) keyspace.Keyspace {
	t.Helper()
	ks, err := keyspace.New(SmallAlphabet, SmallLength)
	if err != nil {
		t.Fatalf("keyspace.New() failed: %v", err)
	}
	return ks
}

// NewStore returns an empty store for ks in a per-test temp directory.
func NewStore(t testing.TB, ks keyspace.Keyspace) *store.Store {
	t.Helper()
	return store.New(t.TempDir(), ks)
}

// PopulatedStore returns a store for ks whose given partitions (all when
// none are given) are fully populated.
func PopulatedStore(t testing.TB, ks keyspace.Keyspace, partitions ...keyspace.PartitionKey) *store.Store {
	t.Helper()
	s := NewStore(t, ks)
	if len(partitions) == 0 {
		partitions = ks.Partitions()
	}

	ctx := context.Background()
	for _, p := range partitions {
		part, err := s.Open(ctx, p)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", p, err)
		}
		_, err = part.Populate(ctx, nil)
		part.Close()
		if err != nil {
			t.Fatalf("Populate(%q) failed: %v", p, err)
		}
	}
	return s
}
