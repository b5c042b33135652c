package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/seqdb/internal/keyspace"
)

// SetFound sets the found flag of every sequence in seqs, all of which must
// belong to table t. The whole batch is one UPDATE statement: the sequences
// travel as a single JSON array parameter and are expanded by json_each, so
// batch size is not bounded by SQLite's host parameter limit.
//
// Sequences without a record are matched by nothing and silently skipped.
// Returns the number of rows the statement matched.
func (p *Partition) SetFound(ctx context.Context, t keyspace.TableKey, seqs []keyspace.Sequence, found bool) (int64, error) {
	if err := p.ownsTable(t); err != nil {
		return 0, fmt.Errorf("set found: %w", err)
	}
	if len(seqs) == 0 {
		return 0, nil
	}

	for _, seq := range seqs {
		if seq.Table() != t {
			return 0, fmt.Errorf("set found: %w: sequence %q does not belong to table %q", keyspace.ErrInvalidKey, seq, t)
		}
	}

	batch, err := json.Marshal(seqs)
	if err != nil {
		return 0, fmt.Errorf("set found: encode batch: %w", err)
	}

	result, err := p.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET found = ? WHERE sequence IN (SELECT value FROM json_each(?))`, t.Ident()),
		found,
		string(batch),
	)
	if err != nil {
		return 0, fmt.Errorf("set found %s: %w", t, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set found %s: rows affected: %w", t, err)
	}
	return n, nil
}
