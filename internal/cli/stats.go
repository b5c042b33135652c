package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/seqdb/internal/report"
	"github.com/roach88/seqdb/internal/stats"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	MetricsFile string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats [partition]",
		Short: "Show found/total counts per partition",
		Long: `Show how many sequences are marked found.

Without arguments every partition is listed, followed by the overall total.
With a partition key only that partition is shown.

Example:
  seqdb stats
  seqdb stats q --format json
  seqdb stats --metrics-file /var/lib/node_exporter/seqdb.prom`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "also write Prometheus metrics to this file (overrides config)")

	return cmd
}

func runStats(opts *StatsOptions, args []string, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	agg := stats.New(s.store)

	if len(args) == 1 {
		partitions, err := parsePartitions(s.ks, args)
		if err != nil {
			return s.fail("invalid partition", err)
		}

		st, err := agg.Partition(ctx, partitions[0])
		if err != nil {
			return s.fail("stats", err)
		}
		if err := s.writeMetrics(ctx, opts.MetricsFile); err != nil {
			return s.out.Fail(ExitFailure, ErrCodeWriteFailed, "metrics", err)
		}

		if s.out.IsJSON() {
			return s.out.Success(st)
		}
		if err := report.NewStatsRenderer(s.out.Writer, s.colored()).Partition(st); err != nil {
			return s.out.Fail(ExitFailure, ErrCodeWriteFailed, "write stats", err)
		}
		return nil
	}

	g, err := agg.Global(ctx)
	if err != nil {
		return s.fail("stats", err)
	}
	if err := s.writeMetrics(ctx, opts.MetricsFile); err != nil {
		return s.out.Fail(ExitFailure, ErrCodeWriteFailed, "metrics", err)
	}

	if s.out.IsJSON() {
		return s.out.Success(g)
	}
	return s.renderStats(s.out.Writer, g)
}
