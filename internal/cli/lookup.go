package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/seqdb/internal/keyspace"
)

// LookupResult reports the state of one sequence.
type LookupResult struct {
	Sequence string `json:"sequence"`
	// Present is false when the store has no record for the sequence.
	Present bool `json:"present"`
	Found   bool `json:"found"`
}

// State returns "found", "not found" or "absent".
func (r LookupResult) State() string {
	switch {
	case !r.Present:
		return "absent"
	case r.Found:
		return "found"
	default:
		return "not found"
	}
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <sequence>...",
		Short: "Show whether sequences are marked found",
		Long: `Show the found flag of one or more sequences.

Input is case-insensitive. A sequence whose partition has not been
initialized is reported as absent, distinct from not found.

Example:
  seqdb lookup hello
  seqdb lookup Hello world --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runLookup(opts *RootOptions, args []string, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	results := make([]LookupResult, 0, len(args))
	for _, arg := range args {
		found, ok, err := s.engine.Lookup(cmd.Context(), arg)
		if err != nil {
			return s.fail(fmt.Sprintf("lookup %q", arg), err)
		}
		results = append(results, LookupResult{
			Sequence: keyspace.Normalize(arg),
			Present:  ok,
			Found:    found,
		})
	}

	if s.out.IsJSON() {
		return s.out.Success(results)
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s: %s", r.Sequence, r.State()))
	}
	return s.out.Success(strings.Join(lines, "\n"))
}
