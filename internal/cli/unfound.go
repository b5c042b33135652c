package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/seqdb/internal/keyspace"
)

// UnfoundResult lists the sequences of one table not yet found.
type UnfoundResult struct {
	Table     string   `json:"table"`
	Sequences []string `json:"sequences"`
}

// NewUnfoundCommand creates the unfound command.
func NewUnfoundCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unfound <table>",
		Short: "List sequences of a table not yet found",
		Long: `List every sequence under a two-letter table key whose found flag is
false, in sorted order, one per line.

Example:
  seqdb unfound aa
  seqdb unfound qz --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnfound(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runUnfound(opts *RootOptions, arg string, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	seqs, t, err := s.notFound(cmd, arg)
	if err != nil {
		return err
	}

	if s.out.IsJSON() {
		return s.out.Success(UnfoundResult{Table: string(t), Sequences: seqs})
	}

	s.out.VerboseLog("%d sequence(s) not found under %s", len(seqs), t)
	if len(seqs) == 0 {
		return nil
	}
	return s.out.Success(strings.Join(seqs, "\n"))
}

// notFound validates a table key argument and returns its unfound
// sequences.
func (s *session) notFound(cmd *cobra.Command, arg string) ([]string, keyspace.TableKey, error) {
	t, err := s.ks.Table(keyspace.Normalize(arg))
	if err != nil {
		return nil, "", s.fail("invalid table", err)
	}

	seqs, err := s.engine.NotFound(cmd.Context(), t.Partition(), t)
	if err != nil {
		return nil, t, s.fail(fmt.Sprintf("list unfound sequences of %s", t), err)
	}
	return seqs, t, nil
}
