package report

import (
	"fmt"
	"strings"
)

// ExportStyle selects how exported chunks are rendered.
type ExportStyle string

const (
	// StylePlain renders each chunk as newline-separated sequences, with a
	// blank line between chunks.
	StylePlain ExportStyle = "plain"

	// StyleRevive wraps each chunk in a JavaScript call for pasting into
	// the verification page console:
	//
	//	await revive(`aaaaa\naaaab`);
	StyleRevive ExportStyle = "revive"
)

// ValidExportStyles lists the accepted styles.
var ValidExportStyles = []ExportStyle{StylePlain, StyleRevive}

// ParseExportStyle validates s as an ExportStyle.
func ParseExportStyle(s string) (ExportStyle, error) {
	for _, style := range ValidExportStyles {
		if string(style) == s {
			return style, nil
		}
	}
	return "", fmt.Errorf("invalid export style %q: must be one of %v", s, ValidExportStyles)
}

// Chunk splits seqs into consecutive chunks of at most size elements.
// size must be positive.
func Chunk(seqs []string, size int) [][]string {
	if size <= 0 {
		panic("report: chunk size must be positive")
	}

	chunks := make([][]string, 0, (len(seqs)+size-1)/size)
	for start := 0; start < len(seqs); start += size {
		end := min(start+size, len(seqs))
		chunks = append(chunks, seqs[start:end])
	}
	return chunks
}

// RenderExport chunks seqs and renders them in style. Chunks are separated
// by a blank line. An empty input renders as the empty string.
func RenderExport(seqs []string, size int, style ExportStyle) string {
	chunks := Chunk(seqs, size)
	blocks := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		switch style {
		case StyleRevive:
			blocks = append(blocks, fmt.Sprintf("await revive(`%s`);", strings.Join(chunk, `\n`)))
		default:
			blocks = append(blocks, strings.Join(chunk, "\n"))
		}
	}
	return strings.Join(blocks, "\n\n")
}
