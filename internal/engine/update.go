package engine

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/roach88/seqdb/internal/keyspace"
)

// UpdateResult describes one BulkUpdate call.
type UpdateResult struct {
	Partition keyspace.PartitionKey

	// Requested is the number of members supplied.
	Requested int

	// Applied is the number of rows matched by the update statements.
	// Members without a record (partition not populated) are not counted.
	Applied int64

	// Buckets is the number of table-key batches written, i.e. store
	// round-trips.
	Buckets int

	// Rejected lists the members excluded from the batch.
	Rejected []*MalformedBatchMemberError
}

// Err combines every rejection into one error, or returns nil.
func (r UpdateResult) Err() error {
	var err error
	for _, rej := range r.Rejected {
		err = multierr.Append(err, rej)
	}
	return err
}

// BulkUpdate sets the found flag of every sequence in seqs, which must all
// belong to partition p.
//
// Members are normalized and grouped by table key; each non-empty group is
// one store round-trip. Members that are not valid sequences, or that
// belong to another partition, are excluded and reported in the result.
// An empty batch, or one with no valid members, opens no connection.
//
// A store error stops processing and is returned along with the partial
// result; groups written before the failure stay written.
func (e *Engine) BulkUpdate(ctx context.Context, p keyspace.PartitionKey, seqs []string, found bool) (UpdateResult, error) {
	result := UpdateResult{Partition: p, Requested: len(seqs)}

	if _, err := e.ks.Partition(string(p)); err != nil {
		return result, err
	}
	if len(seqs) == 0 {
		return result, nil
	}

	buckets, rejected := e.bucket(p, seqs)
	result.Rejected = rejected
	if len(rejected) > 0 {
		for _, rej := range rejected {
			e.logger.Warn("excluding malformed batch member",
				zap.String("partition", string(p)),
				zap.String("sequence", rej.Sequence),
				zap.Error(rej.Err),
			)
		}
		e.recorder.MembersRejected(p, len(rejected))
	}

	if len(rejected) == len(seqs) {
		return result, nil
	}

	part, err := e.store.Open(ctx, p)
	if err != nil {
		return result, err
	}
	defer part.Close()

	tables := e.ks.Tables(p)
	for i, batch := range buckets {
		if len(batch) == 0 {
			continue
		}
		t := tables[i]

		e.logger.Debug("processing batch", zap.String("table", string(t)), zap.Int("sequences", len(batch)))
		start := e.now()

		n, err := part.SetFound(ctx, t, batch, found)
		if err != nil {
			return result, fmt.Errorf("bulk update %s: %w", p, err)
		}

		elapsed := e.now().Sub(start)
		result.Applied += n
		result.Buckets++
		e.recorder.BatchApplied(t, len(batch), n, elapsed)

		e.logger.Info("batch processed",
			zap.String("table", string(t)),
			zap.Int("sequences", len(batch)),
			zap.Int64("matched", n),
			zap.Duration("elapsed", elapsed),
		)
	}

	return result, nil
}

// bucket validates seqs and groups them by the bucket index of their table
// key. The index is only taken after validation has proven the table key
// lies inside the keyspace.
func (e *Engine) bucket(p keyspace.PartitionKey, seqs []string) ([][]keyspace.Sequence, []*MalformedBatchMemberError) {
	buckets := make([][]keyspace.Sequence, len(e.ks.Alphabet()))
	var rejected []*MalformedBatchMemberError

	for _, raw := range seqs {
		seq, err := e.ks.Parse(raw)
		if err != nil {
			rejected = append(rejected, &MalformedBatchMemberError{Sequence: raw, Err: err})
			continue
		}
		if seq.Partition() != p {
			rejected = append(rejected, &MalformedBatchMemberError{
				Sequence: raw,
				Err:      fmt.Errorf("%w: %q is not %q", ErrWrongPartition, seq.Partition(), p),
			})
			continue
		}

		idx := e.ks.TableIndex(seq.Table())
		if idx < 0 || idx >= len(buckets) {
			rejected = append(rejected, &MalformedBatchMemberError{
				Sequence: raw,
				Err:      fmt.Errorf("%w: table %q", keyspace.ErrInvalidKey, seq.Table()),
			})
			continue
		}
		buckets[idx] = append(buckets[idx], seq)
	}

	return buckets, rejected
}

// Summary aggregates the per-partition results of Mark.
type Summary struct {
	Results []UpdateResult

	// Rejected lists members that could not be assigned to any partition.
	Rejected []*MalformedBatchMemberError
}

// Applied returns the total rows matched across partitions.
func (s Summary) Applied() int64 {
	var n int64
	for _, r := range s.Results {
		n += r.Applied
	}
	return n
}

// RejectedCount returns the total number of excluded members.
func (s Summary) RejectedCount() int {
	n := len(s.Rejected)
	for _, r := range s.Results {
		n += len(r.Rejected)
	}
	return n
}

// Err combines every rejection into one error, or returns nil.
func (s Summary) Err() error {
	var err error
	for _, rej := range s.Rejected {
		err = multierr.Append(err, rej)
	}
	for _, r := range s.Results {
		err = multierr.Append(err, r.Err())
	}
	return err
}

// Mark sets the found flag of sequences from any partitions. Members are
// grouped by partition key and handed to BulkUpdate one partition at a
// time, in alphabet order.
func (e *Engine) Mark(ctx context.Context, seqs []string, found bool) (Summary, error) {
	groups, rejected := GroupByPartition(e.ks, seqs)

	summary := Summary{Rejected: rejected}
	if len(rejected) > 0 {
		for _, rej := range rejected {
			e.logger.Warn("excluding malformed sequence", zap.String("sequence", rej.Sequence), zap.Error(rej.Err))
		}
		e.recorder.MembersRejected("", len(rejected))
	}

	for _, p := range e.ks.Partitions() {
		members, ok := groups[p]
		if !ok {
			continue
		}

		start := e.now()
		e.logger.Info("processing partition", zap.String("partition", string(p)), zap.Int("sequences", len(members)))

		result, err := e.BulkUpdate(ctx, p, members, found)
		summary.Results = append(summary.Results, result)
		if err != nil {
			return summary, err
		}

		e.logger.Info("partition processed",
			zap.String("partition", string(p)),
			zap.Int64("matched", result.Applied),
			zap.Duration("elapsed", e.now().Sub(start)),
		)
	}

	return summary, nil
}

// GroupByPartition splits seqs by the partition key of their normalized
// form. Members whose first character is not a partition key are returned
// as rejections; full validation happens later in BulkUpdate.
func GroupByPartition(ks keyspace.Keyspace, seqs []string) (map[keyspace.PartitionKey][]string, []*MalformedBatchMemberError) {
	groups := make(map[keyspace.PartitionKey][]string)
	var rejected []*MalformedBatchMemberError

	for _, raw := range seqs {
		n := keyspace.Normalize(raw)
		if n == "" {
			rejected = append(rejected, &MalformedBatchMemberError{
				Sequence: raw,
				Err:      fmt.Errorf("%w: empty", keyspace.ErrInvalidSequence),
			})
			continue
		}

		p, err := ks.Partition(n[:1])
		if err != nil {
			rejected = append(rejected, &MalformedBatchMemberError{
				Sequence: raw,
				Err:      fmt.Errorf("%w %q: %w", keyspace.ErrInvalidSequence, raw, err),
			})
			continue
		}
		groups[p] = append(groups[p], raw)
	}

	return groups, rejected
}
