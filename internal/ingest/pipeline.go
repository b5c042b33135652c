package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/roach88/seqdb/internal/engine"
	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/logging"
)

// IDGenerator generates run IDs for ingestion reports.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FileReport describes the outcome for one input file.
type FileReport struct {
	Path      string `json:"path"`
	Sequences int    `json:"sequences"`
	Applied   int64  `json:"applied"`
	Rejected  int    `json:"rejected"`
	// Skipped is set for missing or empty files.
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Report describes one ingestion run.
type Report struct {
	RunID string       `json:"run_id"`
	Files []FileReport `json:"files"`
}

// Applied returns the rows matched across all files.
func (r Report) Applied() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Applied
	}
	return n
}

// Rejected returns the malformed members across all files.
func (r Report) Rejected() int {
	var n int
	for _, f := range r.Files {
		n += f.Rejected
	}
	return n
}

// Pipeline feeds files to an engine.
type Pipeline struct {
	eng      *engine.Engine
	logger   *zap.Logger
	ids      IDGenerator
	found    bool
	fileDone func(FileReport)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logging.OrNop(l) }
}

// WithIDGenerator overrides the run ID source. Default: UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(p *Pipeline) { p.ids = g }
}

// WithFound sets the flag written for ingested sequences. Default: true.
func WithFound(found bool) Option {
	return func(p *Pipeline) { p.found = found }
}

// WithFileDone registers a callback invoked after each file.
func WithFileDone(fn func(FileReport)) Option {
	return func(p *Pipeline) { p.fileDone = fn }
}

// New creates a Pipeline over eng.
func New(eng *engine.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		eng:    eng,
		logger: zap.NewNop(),
		ids:    UUIDv7Generator{},
		found:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ListFiles returns the regular files directly inside dir, sorted by name.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// IngestFiles processes each file with sequences of any partition.
//
// Files that cannot be read or decoded are recorded in the report and
// skipped; the combined error of those files is returned alongside the
// complete report. A store failure stops the run immediately.
func (p *Pipeline) IngestFiles(ctx context.Context, files []string) (Report, error) {
	report := Report{RunID: p.ids.Generate()}
	logger := p.logger.With(zap.String("run", report.RunID))

	var fileErrs error
	for _, path := range files {
		fr, err := p.ingestFile(ctx, logger, path)
		report.Files = append(report.Files, fr)
		if p.fileDone != nil {
			p.fileDone(fr)
		}
		if err == nil {
			continue
		}
		if isFileError(err) {
			fileErrs = multierr.Append(fileErrs, err)
			continue
		}
		return report, err
	}

	logger.Info("ingestion finished",
		zap.Int("files", len(report.Files)),
		zap.Int64("applied", report.Applied()),
		zap.Int("rejected", report.Rejected()),
	)
	return report, fileErrs
}

// IngestFile processes a single file with sequences of any partition.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Report, error) {
	return p.IngestFiles(ctx, []string{path})
}

// IngestDir processes every regular file in dir.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (Report, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return Report{}, err
	}
	return p.IngestFiles(ctx, files)
}

func (p *Pipeline) ingestFile(ctx context.Context, logger *zap.Logger, path string) (FileReport, error) {
	fr := FileReport{Path: path}
	logger = logger.With(zap.String("file", filepath.Base(path)))

	seqs, err := ReadSequences(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("file not found, skipping")
		fr.Skipped = true
		return fr, nil
	}
	if err != nil {
		logger.Error("reading file failed", zap.Error(err))
		fr.Error = err.Error()
		return fr, &fileError{path: path, err: err}
	}

	fr.Sequences = len(seqs)
	if len(seqs) == 0 {
		logger.Info("no sequences found, skipping")
		fr.Skipped = true
		return fr, nil
	}

	logger.Info("processing file", zap.Int("sequences", len(seqs)))
	summary, err := p.eng.Mark(ctx, seqs, p.found)
	fr.Applied = summary.Applied()
	fr.Rejected = summary.RejectedCount()
	if err != nil {
		fr.Error = err.Error()
		return fr, err
	}
	return fr, nil
}

// IngestPartitionDir processes a directory whose files are already split
// by partition: <p>.txt holds sequences of partition p only. Partitions
// without a file are skipped. Members that belong to another partition
// are rejected, not re-routed.
func (p *Pipeline) IngestPartitionDir(ctx context.Context, dir string) (Report, error) {
	ks := p.eng.Keyspace()
	report := Report{RunID: p.ids.Generate()}
	logger := p.logger.With(zap.String("run", report.RunID), zap.String("dir", dir))

	var fileErrs error
	for _, part := range ks.Partitions() {
		path := filepath.Join(dir, PartitionFileName(part))
		fr := FileReport{Path: path}

		seqs, err := ReadSequences(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			logger.Error("reading file failed", zap.String("file", path), zap.Error(err))
			fr.Error = err.Error()
			fileErrs = multierr.Append(fileErrs, &fileError{path: path, err: err})
		case len(seqs) == 0:
			fr.Skipped = true
		default:
			fr.Sequences = len(seqs)
			res, err := p.eng.BulkUpdate(ctx, part, seqs, p.found)
			fr.Applied = res.Applied
			fr.Rejected = len(res.Rejected)
			if err != nil {
				fr.Error = err.Error()
				report.Files = append(report.Files, fr)
				return report, err
			}
		}

		report.Files = append(report.Files, fr)
		if p.fileDone != nil {
			p.fileDone(fr)
		}
	}

	logger.Info("ingestion finished",
		zap.Int("files", len(report.Files)),
		zap.Int64("applied", report.Applied()),
		zap.Int("rejected", report.Rejected()),
	)
	return report, fileErrs
}

// fileError marks a failure confined to one input file.
type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string { return e.err.Error() }
func (e *fileError) Unwrap() error { return e.err }

func isFileError(err error) bool {
	var fe *fileError
	return errors.As(err, &fe)
}

// PartitionFileName returns the split-layout file name for p.
func PartitionFileName(p keyspace.PartitionKey) string {
	return string(p) + ".txt"
}
