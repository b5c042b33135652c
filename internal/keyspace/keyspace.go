package keyspace

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// DefaultAlphabet is the ordered alphabet used when none is configured.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz"

// DefaultLength is the sequence length used when none is configured.
const DefaultLength = 5

// MinLength is the shortest sequence a keyspace accepts: two characters of
// table key plus at least one suffix character.
const MinLength = 3

var (
	// ErrInvalidSequence is returned when input does not satisfy the
	// length/alphabet contract of a keyspace.
	ErrInvalidSequence = errors.New("invalid sequence")

	// ErrInvalidKey is returned when a partition or table key is not part of
	// the keyspace.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidAlphabet is returned by New for unusable alphabets.
	ErrInvalidAlphabet = errors.New("invalid alphabet")
)

// Keyspace is the immutable description of every sequence the index holds:
// an ordered alphabet and a fixed sequence length.
//
// A Keyspace is a value. Copies are cheap and safe to share; nothing mutates
// it after New returns.
type Keyspace struct {
	alphabet string
	length   int
	// pos maps 'a'..'z' to its position in alphabet, or -1 when absent.
	pos [26]int8
}

// New validates alphabet and length and returns the keyspace they describe.
//
// The alphabet must be non-empty, contain only ASCII 'a'..'z' and contain
// no repeated characters. Restricting to lowercase ASCII keeps every table
// key a safe SQL identifier.
func New(alphabet string, length int) (Keyspace, error) {
	ks := Keyspace{alphabet: alphabet, length: length}
	for i := range ks.pos {
		ks.pos[i] = -1
	}

	if alphabet == "" {
		return Keyspace{}, fmt.Errorf("%w: empty", ErrInvalidAlphabet)
	}
	if length < MinLength {
		return Keyspace{}, fmt.Errorf("%w: length %d, want at least %d", ErrInvalidAlphabet, length, MinLength)
	}

	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		if c < 'a' || c > 'z' {
			return Keyspace{}, fmt.Errorf("%w: character %q is not in a-z", ErrInvalidAlphabet, c)
		}
		if ks.pos[c-'a'] >= 0 {
			return Keyspace{}, fmt.Errorf("%w: character %q repeated", ErrInvalidAlphabet, c)
		}
		ks.pos[c-'a'] = int8(i)
	}

	return ks, nil
}

// Default returns the 26-letter, 5-character keyspace.
func Default() Keyspace {
	ks, err := New(DefaultAlphabet, DefaultLength)
	if err != nil {
		panic(err)
	}
	return ks
}

// Alphabet returns the ordered alphabet.
func (k Keyspace) Alphabet() string { return k.alphabet }

// Length returns the sequence length.
func (k Keyspace) Length() int { return k.length }

// IsZero reports whether k is the zero value (not built by New).
func (k Keyspace) IsZero() bool { return k.alphabet == "" }

// Contains reports whether c belongs to the alphabet.
func (k Keyspace) Contains(c byte) bool {
	return k.index(c) >= 0
}

// index returns the position of c in the alphabet, or -1. Every lookup by
// character goes through here so nothing indexes by an unchecked byte.
func (k Keyspace) index(c byte) int {
	if c < 'a' || c > 'z' {
		return -1
	}
	return int(k.pos[c-'a'])
}

// Normalize trims surrounding whitespace and lowercases s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Parse normalizes s and validates it against the keyspace.
func (k Keyspace) Parse(s string) (Sequence, error) {
	n := Normalize(s)
	if len(n) != k.length {
		return "", fmt.Errorf("%w %q: length %d, want %d", ErrInvalidSequence, s, len(n), k.length)
	}
	for i := 0; i < len(n); i++ {
		if !k.Contains(n[i]) {
			return "", fmt.Errorf("%w %q: character %q at position %d is not in the alphabet", ErrInvalidSequence, s, n[i], i)
		}
	}
	return Sequence(n), nil
}

// Partition validates s as a partition key.
func (k Keyspace) Partition(s string) (PartitionKey, error) {
	if len(s) != 1 || !k.Contains(s[0]) {
		return "", fmt.Errorf("%w: partition %q", ErrInvalidKey, s)
	}
	return PartitionKey(s), nil
}

// Table validates s as a table key.
func (k Keyspace) Table(s string) (TableKey, error) {
	if len(s) != 2 || !k.Contains(s[0]) || !k.Contains(s[1]) {
		return "", fmt.Errorf("%w: table %q", ErrInvalidKey, s)
	}
	return TableKey(s), nil
}

// Partitions returns every partition key in alphabet order.
func (k Keyspace) Partitions() []PartitionKey {
	out := make([]PartitionKey, 0, len(k.alphabet))
	for i := 0; i < len(k.alphabet); i++ {
		out = append(out, PartitionKey(k.alphabet[i:i+1]))
	}
	return out
}

// Tables returns every table key under p in alphabet order.
func (k Keyspace) Tables(p PartitionKey) []TableKey {
	out := make([]TableKey, 0, len(k.alphabet))
	for i := 0; i < len(k.alphabet); i++ {
		out = append(out, TableKey(string(p)+k.alphabet[i:i+1]))
	}
	return out
}

// TableIndex returns the position of t's second character in the alphabet,
// i.e. the bucket t occupies within its partition. It returns -1 for keys
// outside the keyspace.
func (k Keyspace) TableIndex(t TableKey) int {
	if len(t) != 2 || !k.Contains(t[0]) {
		return -1
	}
	return k.index(t[1])
}

// Suffixes yields every completion of a table key: all strings of length
// Length()-2 over the alphabet, in lexicographic alphabet order.
func (k Keyspace) Suffixes() iter.Seq[string] {
	return func(yield func(string) bool) {
		n := k.length - 2
		digits := make([]int, n)
		buf := make([]byte, n)
		for {
			for i, d := range digits {
				buf[i] = k.alphabet[d]
			}
			if !yield(string(buf)) {
				return
			}

			i := n - 1
			for ; i >= 0; i-- {
				digits[i]++
				if digits[i] < len(k.alphabet) {
					break
				}
				digits[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// TableSize is the number of records in one table.
func (k Keyspace) TableSize() int64 {
	size := int64(1)
	for i := 0; i < k.length-2; i++ {
		size *= int64(len(k.alphabet))
	}
	return size
}

// PartitionSize is the number of records in one partition.
func (k Keyspace) PartitionSize() int64 {
	return k.TableSize() * int64(len(k.alphabet))
}

// Size is the number of records in the whole keyspace.
func (k Keyspace) Size() int64 {
	return k.PartitionSize() * int64(len(k.alphabet))
}
