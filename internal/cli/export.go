package cli

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/roach88/seqdb/internal/report"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	ChunkSize int
	Style     string
	Output    string
	Clipboard bool
}

// ExportResult describes where an export went.
type ExportResult struct {
	Table     string `json:"table"`
	Sequences int    `json:"sequences"`
	Chunks    int    `json:"chunks"`
	Style     string `json:"style"`
	Output    string `json:"output,omitempty"`
	Clipboard bool   `json:"clipboard,omitempty"`
	// Text is set when the export is written to stdout in JSON mode.
	Text string `json:"text,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export unfound sequences of a table in chunks for re-verification",
		Long: `Export every sequence of a table not yet found, split into chunks.

The plain style prints each chunk as one sequence per line with a blank line
between chunks. The revive style wraps each chunk in a JavaScript call,
ready to paste into the verification console:

  await revive(` + "`aaaaa\\naaaab`" + `);

Output goes to stdout unless --output or --clipboard is given.

Example:
  seqdb export aa --clipboard
  seqdb export qz --style plain --chunk-size 100 --output qz.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.ChunkSize, "chunk-size", 0, "sequences per chunk (default: export_chunk_size from config)")
	cmd.Flags().StringVar(&opts.Style, "style", string(report.StyleRevive), "chunk style (plain|revive)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Clipboard, "clipboard", false, "copy to the system clipboard instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, arg string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	style, err := report.ParseExportStyle(opts.Style)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidArg, "invalid style", err)
	}
	if opts.ChunkSize < 0 {
		return out.Fail(ExitCommandError, ErrCodeInvalidArg, fmt.Sprintf("chunk size must be positive, got %d", opts.ChunkSize), nil)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	size := opts.ChunkSize
	if size == 0 {
		size = s.cfg.ExportChunkSize
	}

	seqs, t, err := s.notFound(cmd, arg)
	if err != nil {
		return err
	}

	text := report.RenderExport(seqs, size, style)
	result := ExportResult{
		Table:     string(t),
		Sequences: len(seqs),
		Chunks:    len(report.Chunk(seqs, size)),
		Style:     string(style),
	}

	switch {
	case opts.Output != "":
		if err := os.WriteFile(opts.Output, []byte(text+"\n"), 0o644); err != nil {
			return s.out.Fail(ExitFailure, ErrCodeWriteFailed, "write export", err)
		}
		result.Output = opts.Output
	case opts.Clipboard:
		if err := clipboardWriteAll(text); err != nil {
			return s.out.Fail(ExitFailure, ErrCodeWriteFailed, "copy to clipboard", err)
		}
		result.Clipboard = true
	case s.out.IsJSON():
		result.Text = text
	default:
		if text == "" {
			return nil
		}
		return s.out.Success(text)
	}

	if s.out.IsJSON() {
		return s.out.Success(result)
	}
	dest := result.Output
	if result.Clipboard {
		dest = "clipboard"
	}
	return s.out.Success(numbers.Sprintf("Exported %d sequence(s) of %s in %d chunk(s) to %s",
		result.Sequences, result.Table, result.Chunks, dest))
}
