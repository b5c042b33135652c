package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/logging"
	"github.com/roach88/seqdb/internal/store"
)

// Recorder receives batch activity. metrics.Collector implements it.
// MembersRejected is called with an empty partition key for members that
// map to no partition at all.
type Recorder interface {
	BatchApplied(t keyspace.TableKey, size int, matched int64, elapsed time.Duration)
	MembersRejected(p keyspace.PartitionKey, n int)
}

type nopRecorder struct{}

func (nopRecorder) BatchApplied(keyspace.TableKey, int, int64, time.Duration) {}
func (nopRecorder) MembersRejected(keyspace.PartitionKey, int)               {}

// Engine runs queries and updates against a Store.
type Engine struct {
	store    *store.Store
	ks       keyspace.Keyspace
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: no-op.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logging.OrNop(l)
	}
}

// WithRecorder sets the batch activity recorder. Default: discard.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithClock overrides the time source used for batch timings.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine over st. The keyspace is taken from the store.
func New(st *store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    st,
		ks:       st.Keyspace(),
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Keyspace returns the keyspace of the underlying store.
func (e *Engine) Keyspace() keyspace.Keyspace { return e.ks }

// Lookup returns the found flag of s.
//
// s is normalized and validated first; invalid input returns an error
// wrapping keyspace.ErrInvalidSequence. ok is false when the store has no
// record for s (partition not populated), which callers must treat
// differently from found=false.
func (e *Engine) Lookup(ctx context.Context, s string) (found, ok bool, err error) {
	seq, err := e.ks.Parse(s)
	if err != nil {
		return false, false, err
	}

	part, err := e.store.Open(ctx, seq.Partition())
	if err != nil {
		return false, false, err
	}
	defer part.Close()

	return part.Found(ctx, seq)
}

// NotFound returns every sequence under table t of partition p that is not
// marked found, ordered by sequence.
func (e *Engine) NotFound(ctx context.Context, p keyspace.PartitionKey, t keyspace.TableKey) ([]string, error) {
	if _, err := e.ks.Partition(string(p)); err != nil {
		return nil, err
	}
	if _, err := e.ks.Table(string(t)); err != nil {
		return nil, err
	}
	if t.Partition() != p {
		return nil, fmt.Errorf("%w: table %q is not in partition %q", keyspace.ErrInvalidKey, t, p)
	}

	part, err := e.store.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer part.Close()

	return part.Unfound(ctx, t)
}

// Initialize populates the given partitions, or every partition when none
// are given. It is idempotent; see store.Partition.Populate.
//
// progress may be nil. Returns the number of rows inserted.
func (e *Engine) Initialize(ctx context.Context, progress store.ProgressFunc, partitions ...keyspace.PartitionKey) (int64, error) {
	if len(partitions) == 0 {
		partitions = e.ks.Partitions()
	}

	var total int64
	for _, p := range partitions {
		start := e.now()

		n, err := e.initializePartition(ctx, p, progress)
		total += n
		if err != nil {
			return total, err
		}

		e.logger.Info("partition initialized",
			zap.String("partition", string(p)),
			zap.Int64("inserted", n),
			zap.Duration("elapsed", e.now().Sub(start)),
		)
	}
	return total, nil
}

func (e *Engine) initializePartition(ctx context.Context, p keyspace.PartitionKey, progress store.ProgressFunc) (int64, error) {
	part, err := e.store.Open(ctx, p)
	if err != nil {
		return 0, err
	}
	defer part.Close()

	n, err := part.Populate(ctx, progress)
	if err != nil {
		return n, fmt.Errorf("initialize partition %s: %w", p, err)
	}
	return n, nil
}
