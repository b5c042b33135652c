package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/seqdb/internal/config"
	"github.com/roach88/seqdb/internal/engine"
	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/logging"
	"github.com/roach88/seqdb/internal/metrics"
	"github.com/roach88/seqdb/internal/stats"
	"github.com/roach88/seqdb/internal/store"
)

// numbers formats counts with thousands separators in text output.
var numbers = message.NewPrinter(language.English)

// session is everything a command needs once config is resolved.
type session struct {
	opts     *RootOptions
	cfg      config.Config
	ks       keyspace.Keyspace
	store    *store.Store
	engine   *engine.Engine
	metrics  *metrics.Collector
	logger   *zap.Logger
	out      *OutputFormatter
	closeLog func()
}

// newFormatter builds the output formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Diagnostics go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openSession loads config and wires logger, store, engine and metrics.
// The caller must Close the session.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := config.Load(config.LoadOptions{File: opts.Config, EnvFile: opts.EnvFile})
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	ks, err := cfg.Keyspace()
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "invalid keyspace", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "create logger", err)
	}

	collector := metrics.New()
	st := store.New(cfg.DataDir, ks)
	eng := engine.New(st,
		engine.WithLogger(logger),
		engine.WithRecorder(collector),
	)

	out.VerboseLog("Using data directory %s (alphabet %q, length %d)", cfg.DataDir, ks.Alphabet(), ks.Length())

	return &session{
		opts:     opts,
		cfg:      cfg,
		ks:       ks,
		store:    st,
		engine:   eng,
		metrics:  collector,
		logger:   logger,
		out:      out,
		closeLog: closeLog,
	}, nil
}

// Close flushes and closes the logger.
func (s *session) Close() {
	s.closeLog()
}

// colored reports whether text output may carry ANSI colors.
func (s *session) colored() bool {
	return !s.opts.NoColor && !color.NoColor && !s.out.IsJSON()
}

// fail maps err to an exit code: bad keys and sequences are command
// errors, everything else is an operation failure.
func (s *session) fail(message string, err error) error {
	if errors.Is(err, keyspace.ErrInvalidSequence) || errors.Is(err, keyspace.ErrInvalidKey) {
		return s.out.Fail(ExitCommandError, ErrCodeInvalidArg, message, err)
	}
	if errors.Is(err, store.ErrStoreUnavailable) {
		return s.out.Fail(ExitCommandError, ErrCodeStore, message, err)
	}
	return s.out.Fail(ExitFailure, ErrCodeStore, message, err)
}

// writeMetrics refreshes the store gauges and writes the metrics file,
// if one is configured. path overrides the configured file when set.
func (s *session) writeMetrics(ctx context.Context, path string) error {
	if path == "" {
		path = s.cfg.MetricsFile
	}
	if path == "" {
		return nil
	}

	g, err := stats.New(s.store).Global(ctx)
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}
	s.metrics.ObserveStats(g)

	if err := s.metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	s.logger.Debug("metrics written", zap.String("path", path))
	return nil
}

// parsePartitions validates partition arguments.
func parsePartitions(ks keyspace.Keyspace, args []string) ([]keyspace.PartitionKey, error) {
	out := make([]keyspace.PartitionKey, 0, len(args))
	for _, a := range args {
		p, err := ks.Partition(keyspace.Normalize(a))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
