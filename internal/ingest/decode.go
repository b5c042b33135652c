package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/seqdb/internal/keyspace"
)

// ErrUnsupportedEncoding is returned when a file's charset cannot be
// detected or decoded.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ToUTF8 returns raw as UTF-8. Valid UTF-8 without NUL bytes passes
// through (minus a BOM); anything else is decoded from the charset chardet
// detects. Text with NUL bytes that chardet does not recognize as UTF-16
// or UTF-32 (a BOM-less UTF-16 file) is decoded as UTF-16 in the byte
// order its NULs point to.
func ToUTF8(raw []byte) ([]byte, error) {
	hasNUL := bytes.IndexByte(raw, 0) >= 0
	if !hasNUL && utf8.Valid(raw) {
		return bytes.TrimPrefix(raw, utf8BOM), nil
	}

	detector := chardet.NewTextDetector()
	result, detectErr := detector.DetectBest(raw)

	var enc encoding.Encoding
	charset := ""
	if detectErr == nil && result != nil {
		charset = result.Charset
	}
	switch {
	case hasNUL && !strings.HasPrefix(charset, "UTF-16") && !strings.HasPrefix(charset, "UTF-32"):
		enc = utf16ByNULs(raw)
		if enc == nil {
			return nil, fmt.Errorf("%w: NUL bytes in text", ErrUnsupportedEncoding)
		}
		charset = "UTF-16 (no BOM)"
	case charset == "":
		return nil, fmt.Errorf("%w: detection failed: %v", ErrUnsupportedEncoding, detectErr)
	default:
		var err error
		enc, err = ianaindex.IANA.Encoding(strings.ToUpper(charset))
		if err != nil || enc == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, charset)
		}
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnsupportedEncoding, charset, err)
	}
	return bytes.TrimPrefix(out, utf8BOM), nil
}

// utf16ByNULs picks the UTF-16 byte order of BOM-less text from where its
// NUL bytes sit: ASCII in little endian has NULs at odd offsets, in big
// endian at even ones. Returns nil when neither side clearly dominates.
func utf16ByNULs(raw []byte) encoding.Encoding {
	var even, odd int
	for i, b := range raw {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	switch {
	case odd > 0 && odd >= 4*even:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case even > 0 && even >= 4*odd:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}
	return nil
}

// ParseLines splits UTF-8 text into normalized candidate sequences: NFKC
// folded, trimmed and lowercased, blank lines dropped. Candidates are not
// validated here; the engine rejects malformed members.
func ParseLines(text []byte) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(text))
	for scanner.Scan() {
		line := keyspace.Normalize(norm.NFKC.String(scanner.Text()))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}
	return out, nil
}

// ReadSequences reads, decodes and parses the file at path.
func ReadSequences(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, err := ToUTF8(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return ParseLines(text)
}
