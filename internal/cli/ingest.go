package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/seqdb/internal/ingest"
	"github.com/roach88/seqdb/internal/report"
	"github.com/roach88/seqdb/internal/stats"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Split       bool
	Stats       bool
	Unfound     bool
	Progress    bool
	MetricsFile string
}

// IngestResult is the payload of an ingest run.
type IngestResult struct {
	ingest.Report
	Applied  int64         `json:"applied"`
	Rejected int           `json:"rejected"`
	Before   *stats.Global `json:"before,omitempty"`
	After    *stats.Global `json:"after,omitempty"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest [path]",
		Short: "Mark every sequence listed in a file or directory as found",
		Long: `Read newline-delimited sequences and mark them found.

path may be a file or a directory; a directory is processed file by file in
name order. It defaults to found_files_dir from the config. Input in any
detectable text encoding is accepted.

With --split the directory must hold one <p>.txt file per partition, each
listing only sequences of that partition.

Example:
  seqdb ingest found.txt
  seqdb ingest found-files/other --stats
  seqdb ingest found-files/by-letter --split`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Split, "split", false, "directory holds one <p>.txt file per partition")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "report statistics before and after ingestion")
	cmd.Flags().BoolVar(&opts.Unfound, "unfound", false, "clear the found flag instead of setting it")
	cmd.Flags().BoolVar(&opts.Progress, "progress", true, "show a progress bar on stderr")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file (overrides config)")

	return cmd
}

func runIngest(opts *IngestOptions, args []string, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	path := s.cfg.FoundFilesDir
	if len(args) == 1 {
		path = args[0]
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("path not found: %s", path), nil)
	}
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeNotFound, "stat input", err)
	}
	if opts.Split && !info.IsDir() {
		return s.out.Fail(ExitCommandError, ErrCodeInvalidArg, fmt.Sprintf("--split needs a directory: %s", path), nil)
	}

	var result IngestResult
	if opts.Stats {
		g, err := stats.New(s.store).Global(ctx)
		if err != nil {
			return s.fail("stats before ingestion", err)
		}
		result.Before = &g
		if !s.out.IsJSON() {
			if err := s.renderStats(cmd.OutOrStdout(), g); err != nil {
				return err
			}
		}
	}

	files, err := ingestTargets(s, path, info, opts.Split)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeNotFound, "list input files", err)
	}

	var bar *pb.ProgressBar
	pipeOpts := []ingest.Option{
		ingest.WithLogger(s.logger),
		ingest.WithFound(!opts.Unfound),
	}
	if opts.Progress && !s.out.IsJSON() && len(files) > 1 {
		bar = pb.New(len(files))
		bar.SetWriter(cmd.ErrOrStderr())
		bar.Start()
		pipeOpts = append(pipeOpts, ingest.WithFileDone(func(ingest.FileReport) { bar.Increment() }))
	}

	pipeline := ingest.New(s.engine, pipeOpts...)
	var ingestErr error
	switch {
	case opts.Split:
		result.Report, ingestErr = pipeline.IngestPartitionDir(ctx, path)
	default:
		result.Report, ingestErr = pipeline.IngestFiles(ctx, files)
	}
	if bar != nil {
		bar.Finish()
	}
	result.Applied = result.Report.Applied()
	result.Rejected = result.Report.Rejected()

	if opts.Stats {
		g, err := stats.New(s.store).Global(ctx)
		if err != nil {
			return s.fail("stats after ingestion", err)
		}
		result.After = &g
	}

	if err := s.writeMetrics(ctx, opts.MetricsFile); err != nil {
		return s.out.Fail(ExitFailure, ErrCodeWriteFailed, "metrics", err)
	}

	if ingestErr != nil {
		if s.out.IsJSON() {
			_ = s.out.Error(ErrCodeIngest, ingestErr.Error(), result)
		} else {
			writeIngestReport(s.out.Writer, result)
			_ = s.out.Error(ErrCodeIngest, ingestErr.Error(), nil)
		}
		return markReported(WrapExitError(ExitFailure, "ingest", ingestErr))
	}

	if s.out.IsJSON() {
		return s.out.Success(result)
	}

	writeIngestReport(s.out.Writer, result)
	if result.After != nil {
		fmt.Fprintln(s.out.Writer)
		return s.renderStats(s.out.Writer, *result.After)
	}
	return nil
}

// ingestTargets lists the files a run will touch. For split directories
// only existing partition files count.
func ingestTargets(s *session, path string, info fs.FileInfo, split bool) ([]string, error) {
	if !info.IsDir() {
		return []string{path}, nil
	}
	if !split {
		return ingest.ListFiles(path)
	}

	var files []string
	for _, p := range s.ks.Partitions() {
		f := filepath.Join(path, ingest.PartitionFileName(p))
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	return files, nil
}

func writeIngestReport(w io.Writer, r IngestResult) {
	fmt.Fprintf(w, "Run %s\n", r.RunID)
	for _, f := range r.Files {
		name := filepath.Base(f.Path)
		switch {
		case f.Error != "":
			fmt.Fprintf(w, "  %s: error: %s\n", name, f.Error)
		case f.Skipped:
			fmt.Fprintf(w, "  %s: skipped\n", name)
		default:
			numbers.Fprintf(w, "  %s: %d sequences, %d applied, %d rejected\n", name, f.Sequences, f.Applied, f.Rejected)
		}
	}
	numbers.Fprintf(w, "Ingested %d file(s): %d applied, %d rejected\n", len(r.Files), r.Applied, r.Rejected)
}

// renderStats writes g in the report text format.
func (s *session) renderStats(w io.Writer, g stats.Global) error {
	if err := report.NewStatsRenderer(w, s.colored()).Global(g); err != nil {
		return s.out.Fail(ExitFailure, ErrCodeWriteFailed, "write stats", err)
	}
	return nil
}
