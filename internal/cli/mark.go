package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/seqdb/internal/engine"
)

// MarkOptions holds flags for the mark command.
type MarkOptions struct {
	*RootOptions
	Unfound     bool
	MetricsFile string
}

// MarkResult is the payload of a mark run.
type MarkResult struct {
	Found     bool             `json:"found"`
	Requested int              `json:"requested"`
	Applied   int64            `json:"applied"`
	Rejected  []RejectedMember `json:"rejected,omitempty"`
}

// RejectedMember is an input that was excluded from an update.
type RejectedMember struct {
	Sequence string `json:"sequence"`
	Reason   string `json:"reason"`
}

// rejectedMembers flattens every rejection in summary.
func rejectedMembers(summary engine.Summary) []RejectedMember {
	var out []RejectedMember
	add := func(errs []*engine.MalformedBatchMemberError) {
		for _, e := range errs {
			out = append(out, RejectedMember{Sequence: e.Sequence, Reason: e.Err.Error()})
		}
	}
	add(summary.Rejected)
	for _, r := range summary.Results {
		add(r.Rejected)
	}
	return out
}

// NewMarkCommand creates the mark command.
func NewMarkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mark <sequence>...",
		Short: "Mark sequences as found",
		Long: `Set the found flag of the given sequences.

Sequences may belong to any partition; they are grouped by partition and
table and written with one statement per table. Malformed input is
reported and skipped; the rest of the batch is still written.

Example:
  seqdb mark hello world
  seqdb mark hello --unfound`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Unfound, "unfound", false, "clear the found flag instead of setting it")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file (overrides config)")

	return cmd
}

func runMark(opts *MarkOptions, args []string, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	found := !opts.Unfound
	summary, err := s.engine.Mark(cmd.Context(), args, found)
	if err != nil {
		return s.fail("mark", err)
	}

	result := MarkResult{
		Found:     found,
		Requested: len(args),
		Applied:   summary.Applied(),
		Rejected:  rejectedMembers(summary),
	}

	if err := s.writeMetrics(cmd.Context(), opts.MetricsFile); err != nil {
		return s.out.Fail(ExitFailure, ErrCodeWriteFailed, "metrics", err)
	}

	if s.out.IsJSON() {
		return s.out.Success(result)
	}

	for _, r := range result.Rejected {
		s.out.VerboseLog("rejected %q: %s", r.Sequence, r.Reason)
	}
	return s.out.Success(numbers.Sprintf("Marked %d of %d sequence(s) as %s (%d rejected)",
		result.Applied, result.Requested, foundLabel(found), len(result.Rejected)))
}

func foundLabel(found bool) string {
	if found {
		return "found"
	}
	return "not found"
}
