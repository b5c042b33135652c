package keyspace

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadAlphabets(t *testing.T) {
	tests := []struct {
		name     string
		alphabet string
		length   int
	}{
		{"empty", "", 5},
		{"uppercase", "abC", 5},
		{"digit", "ab1", 5},
		{"repeated", "aba", 5},
		{"too short", "abc", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.alphabet, tt.length)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAlphabet)
		})
	}
}

func TestDefault(t *testing.T) {
	ks := Default()
	assert.Equal(t, DefaultAlphabet, ks.Alphabet())
	assert.Equal(t, 5, ks.Length())
	assert.Equal(t, int64(17576), ks.TableSize())
	assert.Equal(t, int64(26*17576), ks.PartitionSize())
	assert.Equal(t, int64(676*17576), ks.Size())
	assert.False(t, ks.IsZero())
	assert.True(t, Keyspace{}.IsZero())
}

func TestParse(t *testing.T) {
	ks := Default()

	seq, err := ks.Parse("  AABCD\n")
	require.NoError(t, err)
	assert.Equal(t, Sequence("aabcd"), seq)
	assert.Equal(t, PartitionKey("a"), seq.Partition())
	assert.Equal(t, TableKey("aa"), seq.Table())

	invalid := []string{"", "abcd", "abcdef", "aa123", "ab-de", "abcdé"}
	for _, in := range invalid {
		_, err := ks.Parse(in)
		assert.ErrorIs(t, err, ErrInvalidSequence, "input %q", in)
	}
}

func TestParse_RestrictedAlphabet(t *testing.T) {
	ks, err := New("abc", 5)
	require.NoError(t, err)

	_, err = ks.Parse("abcab")
	require.NoError(t, err)

	_, err = ks.Parse("abcad")
	assert.ErrorIs(t, err, ErrInvalidSequence)
}

func TestTableKeyPartitionAlwaysMatches(t *testing.T) {
	ks := Default()
	for _, p := range ks.Partitions() {
		tables := ks.Tables(p)
		require.Len(t, tables, 26)
		for i, tk := range tables {
			assert.Equal(t, p, tk.Partition())
			assert.Equal(t, i, ks.TableIndex(tk))
		}
	}
}

func TestPartitionAndTableValidation(t *testing.T) {
	ks, err := New("xyz", 4)
	require.NoError(t, err)

	p, err := ks.Partition("y")
	require.NoError(t, err)
	assert.Equal(t, PartitionKey("y"), p)

	for _, bad := range []string{"", "a", "xy", "Y"} {
		_, err := ks.Partition(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, "partition %q", bad)
	}

	tk, err := ks.Table("zx")
	require.NoError(t, err)
	assert.Equal(t, `"zx"`, tk.Ident())

	for _, bad := range []string{"", "z", "za", "zxy", "a1"} {
		_, err := ks.Table(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, "table %q", bad)
	}

	assert.Equal(t, -1, ks.TableIndex("za"))
	assert.Equal(t, -1, ks.TableIndex("q"))
}

func TestSuffixes_CompleteAndUnique(t *testing.T) {
	ks := Default()

	seen := make(map[string]struct{})
	for s := range ks.Suffixes() {
		require.Len(t, s, 3)
		_, dup := seen[s]
		require.False(t, dup, "duplicate suffix %q", s)
		seen[s] = struct{}{}
	}
	assert.Len(t, seen, 17576)
}

func TestSuffixes_Order(t *testing.T) {
	ks, err := New("ba", 4)
	require.NoError(t, err)

	got := slices.Collect(ks.Suffixes())
	assert.Equal(t, []string{"bb", "ba", "ab", "aa"}, got)
}

func TestSuffixes_StopsEarly(t *testing.T) {
	ks := Default()
	n := 0
	for range ks.Suffixes() {
		n++
		if n == 10 {
			break
		}
	}
	assert.Equal(t, 10, n)
}
