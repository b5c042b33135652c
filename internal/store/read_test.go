package store

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/roach88/seqdb/internal/keyspace"
)

func TestFound_AbsentBeforePopulate(t *testing.T) {
	ks := smallKeyspace(t)
	s := createTestStore(t, ks)
	part := openTestPartition(t, s, "a")

	found, ok, err := part.Found(context.Background(), mustParse(t, ks, "abca"))
	if err != nil {
		t.Fatalf("Found() failed: %v", err)
	}
	if ok || found {
		t.Errorf("Found() = (%v, %v), want (false, false) for unpopulated partition", found, ok)
	}
}

func TestFound_WrongPartition(t *testing.T) {
	ks := smallKeyspace(t)
	s := createTestStore(t, ks)
	part := openTestPartition(t, s, "a")

	_, _, err := part.Found(context.Background(), mustParse(t, ks, "baaa"))
	if !errors.Is(err, keyspace.ErrInvalidKey) {
		t.Errorf("Found() error = %v, want ErrInvalidKey", err)
	}
}

func TestUnfound_OrderedAndComplete(t *testing.T) {
	ks := smallKeyspace(t)
	s := createTestStore(t, ks)
	part := populatedPartition(t, s, "c")
	ctx := context.Background()

	marked := []keyspace.Sequence{mustParse(t, ks, "cabb"), mustParse(t, ks, "caca")}
	if _, err := part.SetFound(ctx, "ca", marked, true); err != nil {
		t.Fatalf("SetFound() failed: %v", err)
	}

	got, err := part.Unfound(ctx, "ca")
	if err != nil {
		t.Fatalf("Unfound() failed: %v", err)
	}

	want := []string{"caaa", "caab", "caac", "caba", "cabc", "cacb", "cacc"}
	if !slices.Equal(got, want) {
		t.Errorf("Unfound(ca) = %v, want %v", got, want)
	}

	again, err := part.Unfound(ctx, "ca")
	if err != nil {
		t.Fatalf("second Unfound() failed: %v", err)
	}
	if !slices.Equal(got, again) {
		t.Error("Unfound() is not stable across calls")
	}
}

func TestUnfound_EmptyTableReturnsEmptySlice(t *testing.T) {
	s := createTestStore(t, smallKeyspace(t))
	part := openTestPartition(t, s, "a")

	got, err := part.Unfound(context.Background(), "ab")
	if err != nil {
		t.Fatalf("Unfound() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Unfound() = %#v, want empty non-nil slice", got)
	}
}

func TestCount_RejectsForeignTable(t *testing.T) {
	s := createTestStore(t, smallKeyspace(t))
	part := openTestPartition(t, s, "a")

	for _, tk := range []keyspace.TableKey{"ba", "az", "a"} {
		if _, _, err := part.Count(context.Background(), tk); !errors.Is(err, keyspace.ErrInvalidKey) {
			t.Errorf("Count(%q) error = %v, want ErrInvalidKey", tk, err)
		}
	}
}
