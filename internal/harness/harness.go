package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/seqdb/internal/engine"
	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/stats"
	"github.com/roach88/seqdb/internal/store"
	"github.com/roach88/seqdb/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenario operations against a store in a scratch directory.
type Harness struct {
	dir    string
	ks     keyspace.Keyspace
	store  *store.Store
	engine *engine.Engine
	stats  *stats.Aggregator
	logger *zap.Logger
	seq    int64
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger passed to the engine. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Run executes a test scenario in dir, which must exist and should be
// empty, and returns the result.
//
// Execution flow:
// 1. Build the keyspace and a store over dir
// 2. Execute setup (initialize, pre-marked sequences)
// 3. Execute flow steps and check expect clauses
// 4. Evaluate assertions against the final store
//
// Failed expectations and assertions are reported in the result; the
// returned error is reserved for scenarios that cannot run at all.
func Run(ctx context.Context, scenario *Scenario, dir string, opts ...Option) (*Result, error) {
	ks, err := scenario.Keyspace.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid keyspace: %w", err)
	}

	h := newHarness(dir, ks, opts...)

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	h.executeFlow(ctx, scenario.Flow, result)

	assertionErrors := h.EvaluateAssertions(ctx, result, scenario.Assertions)
	for _, errMsg := range assertionErrors {
		result.AddError(errMsg)
	}

	return result, nil
}

func newHarness(dir string, ks keyspace.Keyspace, opts ...Option) *Harness {
	h := &Harness{
		dir:    dir,
		ks:     ks,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	// Batch timings come from a step clock so log output is reproducible.
	clock := testutil.NewStepClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond)
	h.store = store.New(dir, ks)
	h.engine = engine.New(h.store, engine.WithLogger(h.logger), engine.WithClock(clock.Now))
	h.stats = stats.New(h.store)
	return h
}

// executeSetup runs the setup section. Any failure aborts the scenario.
func (h *Harness) executeSetup(ctx context.Context, setup Setup, result *Result) error {
	partitions := setup.Initialize
	if partitions == nil {
		for _, p := range h.ks.Partitions() {
			partitions = append(partitions, string(p))
		}
	}

	if len(partitions) > 0 {
		event, err := h.execute(ctx, Step{Op: OpInitialize, Partitions: partitions})
		result.AddTrace(event)
		if err != nil {
			return err
		}
	}

	if len(setup.Found) > 0 {
		event, err := h.execute(ctx, Step{Op: OpMark, Sequences: setup.Found})
		result.AddTrace(event)
		if err != nil {
			return err
		}
	}

	return nil
}

// executeFlow runs every flow step and validates its expect clause.
// A failing step is recorded and the flow continues.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) {
	for i, step := range flow {
		event, err := h.execute(ctx, step)
		result.AddTrace(event)

		for _, msg := range checkExpect(step, event, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}

		h.logger.Debug("flow step completed",
			zap.Int("step", i),
			zap.String("op", step.Op),
			zap.Int64("seq", event.Seq),
			zap.Bool("failed", err != nil),
		)
	}
}

// execute runs one operation and returns its trace event.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	h.seq++
	event := TraceEvent{Seq: h.seq, Op: step.Op}

	var err error
	switch step.Op {
	case OpInitialize:
		event.Input, event.Outcome, err = h.initialize(ctx, step)
	case OpMark:
		event.Input, event.Outcome, err = h.mark(ctx, step)
	case OpBulkUpdate:
		event.Input, event.Outcome, err = h.bulkUpdate(ctx, step)
	case OpLookup:
		event.Input, event.Outcome, err = h.lookup(ctx, step)
	case OpNotFound:
		event.Input, event.Outcome, err = h.notFound(ctx, step)
	case OpStats:
		event.Input, event.Outcome, err = h.countStats(ctx, step)
	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		event.Outcome = nil
		event.Error = strings.ReplaceAll(err.Error(), h.dir, "$DIR")
	}
	return event, err
}

func (h *Harness) initialize(ctx context.Context, step Step) (map[string]any, map[string]any, error) {
	var partitions []keyspace.PartitionKey
	for _, s := range step.Partitions {
		p, err := h.ks.Partition(s)
		if err != nil {
			return nil, nil, err
		}
		partitions = append(partitions, p)
	}

	var input map[string]any
	if len(step.Partitions) > 0 {
		input = map[string]any{"partitions": step.Partitions}
	}

	n, err := h.engine.Initialize(ctx, nil, partitions...)
	if err != nil {
		return input, nil, err
	}
	return input, map[string]any{"inserted": n}, nil
}

func (h *Harness) mark(ctx context.Context, step Step) (map[string]any, map[string]any, error) {
	input := map[string]any{"sequences": step.Sequences, "found": step.foundFlag()}

	summary, err := h.engine.Mark(ctx, step.Sequences, step.foundFlag())
	if err != nil {
		return input, nil, err
	}
	return input, map[string]any{
		"applied":    summary.Applied(),
		"rejected":   int64(summary.RejectedCount()),
		"partitions": int64(len(summary.Results)),
	}, nil
}

func (h *Harness) bulkUpdate(ctx context.Context, step Step) (map[string]any, map[string]any, error) {
	input := map[string]any{
		"partition": step.Partition,
		"sequences": step.Sequences,
		"found":     step.foundFlag(),
	}

	res, err := h.engine.BulkUpdate(ctx, keyspace.PartitionKey(step.Partition), step.Sequences, step.foundFlag())
	if err != nil {
		return input, nil, err
	}
	return input, map[string]any{
		"applied":  res.Applied,
		"rejected": int64(len(res.Rejected)),
		"buckets":  int64(res.Buckets),
	}, nil
}

func (h *Harness) lookup(ctx context.Context, step Step) (map[string]any, map[string]any, error) {
	input := map[string]any{"sequence": step.Sequence}

	state, err := h.state(ctx, step.Sequence)
	if err != nil {
		return input, nil, err
	}
	return input, map[string]any{"state": state}, nil
}

// state maps a lookup to one of the State* constants.
func (h *Harness) state(ctx context.Context, seq string) (string, error) {
	found, ok, err := h.engine.Lookup(ctx, seq)
	switch {
	case err != nil:
		return "", err
	case !ok:
		return StateAbsent, nil
	case found:
		return StateFound, nil
	default:
		return StateNotFound, nil
	}
}

func (h *Harness) notFound(ctx context.Context, step Step) (map[string]any, map[string]any, error) {
	input := map[string]any{"table": step.Table}

	t, err := h.ks.Table(step.Table)
	if err != nil {
		return input, nil, err
	}
	seqs, err := h.engine.NotFound(ctx, t.Partition(), t)
	if err != nil {
		return input, nil, err
	}
	return input, map[string]any{"count": int64(len(seqs)), "sequences": seqs}, nil
}

func (h *Harness) countStats(ctx context.Context, step Step) (map[string]any, map[string]any, error) {
	var input map[string]any
	if step.Partition != "" {
		input = map[string]any{"partition": step.Partition}
	}

	s, err := h.scopeStats(ctx, step.Partition)
	if err != nil {
		return input, nil, err
	}
	return input, map[string]any{"total": s.Total, "found": s.Found}, nil
}

// scopeStats returns the stats of partition p, or the overall stats when p
// is empty.
func (h *Harness) scopeStats(ctx context.Context, p string) (stats.Stats, error) {
	if p == "" {
		g, err := h.stats.Global(ctx)
		return g.Overall, err
	}
	key, err := h.ks.Partition(p)
	if err != nil {
		return stats.Stats{}, err
	}
	return h.stats.Partition(ctx, key)
}

// checkExpect compares a step outcome against its expect clause.
func checkExpect(step Step, event TraceEvent, err error) []string {
	exp := step.Expect
	if exp != nil && exp.Error != "" {
		switch {
		case err == nil:
			return []string{fmt.Sprintf("expected error containing %q, got success", exp.Error)}
		case !strings.Contains(event.Error, exp.Error):
			return []string{fmt.Sprintf("expected error containing %q, got %q", exp.Error, event.Error)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %s", event.Error)}
	}
	if exp == nil {
		return nil
	}

	var msgs []string
	checkInt := func(field string, want *int64) {
		if want == nil {
			return
		}
		if got, _ := event.Outcome[field].(int64); got != *want {
			msgs = append(msgs, fmt.Sprintf("expected %s=%d, got %d", field, *want, got))
		}
	}
	checkInt("applied", exp.Applied)
	checkInt("rejected", exp.Rejected)
	checkInt("buckets", exp.Buckets)
	checkInt("inserted", exp.Inserted)
	checkInt("count", exp.Count)
	checkInt("total", exp.Total)
	checkInt("found", exp.Found)

	if exp.State != "" {
		if got, _ := event.Outcome["state"].(string); got != exp.State {
			msgs = append(msgs, fmt.Sprintf("expected state=%s, got %s", exp.State, got))
		}
	}
	if exp.Sequences != nil {
		got, _ := event.Outcome["sequences"].([]string)
		if !slices.Equal(got, exp.Sequences) {
			msgs = append(msgs, fmt.Sprintf("expected sequences=%v, got %v", exp.Sequences, got))
		}
	}
	return msgs
}
