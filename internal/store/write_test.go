package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/seqdb/internal/keyspace"
)

func TestSetFound_RoundTrip(t *testing.T) {
	ks := smallKeyspace(t)
	s := createTestStore(t, ks)
	part := populatedPartition(t, s, "a")
	ctx := context.Background()

	seq := mustParse(t, ks, "abcc")

	n, err := part.SetFound(ctx, "ab", []keyspace.Sequence{seq}, true)
	if err != nil {
		t.Fatalf("SetFound(true) failed: %v", err)
	}
	if n != 1 {
		t.Errorf("SetFound(true) matched %d rows, want 1", n)
	}

	found, ok, err := part.Found(ctx, seq)
	if err != nil || !ok || !found {
		t.Fatalf("Found() = (%v, %v, %v), want (true, true, nil)", found, ok, err)
	}

	if _, err := part.SetFound(ctx, "ab", []keyspace.Sequence{seq}, false); err != nil {
		t.Fatalf("SetFound(false) failed: %v", err)
	}

	found, ok, err = part.Found(ctx, seq)
	if err != nil || !ok || found {
		t.Fatalf("Found() = (%v, %v, %v), want (false, true, nil)", found, ok, err)
	}
}

func TestSetFound_LargeBatchOneStatement(t *testing.T) {
	ks := keyspace.Default()
	s := createTestStore(t, ks)
	part := openTestPartition(t, s, "q")
	ctx := context.Background()

	if _, err := part.populateTable(ctx, "qz"); err != nil {
		t.Fatalf("populateTable() failed: %v", err)
	}

	var batch []keyspace.Sequence
	for suffix := range ks.Suffixes() {
		batch = append(batch, keyspace.Sequence("qz"+suffix))
	}

	n, err := part.SetFound(ctx, "qz", batch, true)
	if err != nil {
		t.Fatalf("SetFound() failed: %v", err)
	}
	if n != ks.TableSize() {
		t.Errorf("SetFound() matched %d rows, want %d", n, ks.TableSize())
	}

	total, found, err := part.Count(ctx, "qz")
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if total != found {
		t.Errorf("Count(qz) = (%d, %d), want every row found", total, found)
	}
}

func TestSetFound_AbsentRowsAreNoOp(t *testing.T) {
	ks := smallKeyspace(t)
	s := createTestStore(t, ks)
	part := openTestPartition(t, s, "a")

	n, err := part.SetFound(context.Background(), "aa", []keyspace.Sequence{mustParse(t, ks, "aaaa")}, true)
	if err != nil {
		t.Fatalf("SetFound() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("SetFound() matched %d rows in an empty table, want 0", n)
	}
}

func TestSetFound_RejectsMismatchedMembers(t *testing.T) {
	ks := smallKeyspace(t)
	s := createTestStore(t, ks)
	part := populatedPartition(t, s, "a")
	ctx := context.Background()

	batch := []keyspace.Sequence{mustParse(t, ks, "aaab"), mustParse(t, ks, "abab")}
	_, err := part.SetFound(ctx, "aa", batch, true)
	if !errors.Is(err, keyspace.ErrInvalidKey) {
		t.Fatalf("SetFound() error = %v, want ErrInvalidKey", err)
	}

	// Nothing written when the batch is rejected
	_, found, err := part.Count(ctx, "aa")
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if found != 0 {
		t.Errorf("rejected batch wrote %d rows", found)
	}
}

func TestSetFound_RejectsForeignTable(t *testing.T) {
	ks := smallKeyspace(t)
	s := createTestStore(t, ks)
	part := openTestPartition(t, s, "a")

	_, err := part.SetFound(context.Background(), "ba", []keyspace.Sequence{mustParse(t, ks, "baaa")}, true)
	if !errors.Is(err, keyspace.ErrInvalidKey) {
		t.Errorf("SetFound() error = %v, want ErrInvalidKey", err)
	}
}

func TestSetFound_EmptyBatch(t *testing.T) {
	s := createTestStore(t, smallKeyspace(t))
	part := openTestPartition(t, s, "a")

	n, err := part.SetFound(context.Background(), "ab", nil, true)
	if err != nil || n != 0 {
		t.Errorf("SetFound(nil) = (%d, %v), want (0, nil)", n, err)
	}
}
