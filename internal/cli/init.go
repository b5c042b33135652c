package cli

import (
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Progress bool
}

// InitResult is the payload of a successful init.
type InitResult struct {
	DataDir    string   `json:"data_dir"`
	Partitions []string `json:"partitions"`
	Inserted   int64    `json:"inserted"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init [partition...]",
		Short: "Create and populate the partition databases",
		Long: `Create the data directory and populate every record with found=false.

With no arguments every partition is populated. Re-running init is safe:
existing records, and their found flags, are left untouched.

Example:
  seqdb init
  seqdb init a b --data-dir /var/lib/seqdb`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Progress, "progress", true, "show a progress bar on stderr")

	return cmd
}

func runInit(opts *InitOptions, args []string, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	partitions, err := parsePartitions(s.ks, args)
	if err != nil {
		return s.fail("invalid partition", err)
	}
	if len(partitions) == 0 {
		partitions = s.ks.Partitions()
	}

	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeWriteFailed, "create data directory", err)
	}

	var (
		bar      *pb.ProgressBar
		progress store.ProgressFunc
	)
	if opts.Progress && !s.out.IsJSON() {
		bar = pb.New(len(partitions) * len(s.ks.Alphabet()))
		bar.SetWriter(cmd.ErrOrStderr())
		bar.Start()
		progress = func(keyspace.TableKey, int64) { bar.Increment() }
	}

	inserted, err := s.engine.Initialize(cmd.Context(), progress, partitions...)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return s.fail("initialize", err)
	}

	result := InitResult{DataDir: s.cfg.DataDir, Inserted: inserted}
	for _, p := range partitions {
		result.Partitions = append(result.Partitions, string(p))
	}

	if s.out.IsJSON() {
		return s.out.Success(result)
	}
	return s.out.Success(numbers.Sprintf("Initialized %d partition(s) in %s: %d sequences inserted",
		len(partitions), s.cfg.DataDir, inserted))
}
