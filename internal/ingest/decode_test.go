package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestParseLines(t *testing.T) {
	got, err := ParseLines([]byte("ABCDE\n\n  fghij  \r\n\t\nＫＬＭＮＯ\nbad!!\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"abcde", "fghij", "klmno", "bad!!"}, got)
}

func TestParseLines_Empty(t *testing.T) {
	got, err := ParseLines([]byte("\n \n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestToUTF8_PassesThroughUTF8(t *testing.T) {
	out, err := ToUTF8([]byte("\xEF\xBB\xBFabcde\n"))
	require.NoError(t, err)
	assert.Equal(t, "abcde\n", string(out))
}

func TestToUTF8_DecodesUTF16(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("abcde\nvwxyz\n")
	require.NoError(t, err)

	out, err := ToUTF8([]byte(encoded))
	require.NoError(t, err)

	seqs, err := ParseLines(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"abcde", "vwxyz"}, seqs)
}

func TestToUTF8_DecodesUTF16WithoutBOM(t *testing.T) {
	for _, tt := range []struct {
		name  string
		order unicode.Endianness
	}{
		{"little_endian", unicode.LittleEndian},
		{"big_endian", unicode.BigEndian},
	} {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := unicode.UTF16(tt.order, unicode.IgnoreBOM).NewEncoder().String("abcde\nvwxyz\n")
			require.NoError(t, err)

			out, err := ToUTF8([]byte(encoded))
			require.NoError(t, err)
			assert.NotContains(t, string(out), "\x00")

			seqs, err := ParseLines(out)
			require.NoError(t, err)
			assert.Equal(t, []string{"abcde", "vwxyz"}, seqs)
		})
	}
}

func TestToUTF8_RejectsScatteredNULs(t *testing.T) {
	_, err := ToUTF8([]byte("abcd\x00\x00efgh\n"))
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func TestReadSequences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "found.txt")
	require.NoError(t, os.WriteFile(path, []byte("AABCD\nabcde\n"), 0o644))

	seqs, err := ReadSequences(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"aabcd", "abcde"}, seqs)
}

func TestReadSequences_Missing(t *testing.T) {
	_, err := ReadSequences(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
