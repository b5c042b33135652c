package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/seqdb/internal/keyspace"
)

// Found returns the found flag of seq. ok is false when the partition has no
// record for seq (not populated yet), which is distinct from found=false.
func (p *Partition) Found(ctx context.Context, seq keyspace.Sequence) (found, ok bool, err error) {
	t := seq.Table()
	if err := p.ownsTable(t); err != nil {
		return false, false, fmt.Errorf("read found: %w", err)
	}

	var flag sql.NullBool
	err = p.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT found FROM %s WHERE sequence = ?`, t.Ident()),
		string(seq),
	).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read found: %w", err)
	}

	return flag.Valid && flag.Bool, true, nil
}

// Unfound returns every sequence of table t with found=false, ordered by
// sequence. Returns an empty slice (not nil) when there are none.
func (p *Partition) Unfound(ctx context.Context, t keyspace.TableKey) ([]string, error) {
	if err := p.ownsTable(t); err != nil {
		return nil, fmt.Errorf("read unfound: %w", err)
	}

	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT sequence FROM %s WHERE found = 0 ORDER BY sequence COLLATE BINARY ASC`, t.Ident()),
	)
	if err != nil {
		return nil, fmt.Errorf("query unfound: %w", err)
	}
	defer rows.Close()

	sequences := []string{}
	for rows.Next() {
		var seq string
		if err := rows.Scan(&seq); err != nil {
			return nil, fmt.Errorf("scan unfound: %w", err)
		}
		sequences = append(sequences, seq)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unfound: %w", err)
	}

	return sequences, nil
}

// Count returns the number of rows in table t and how many of them are
// found. Both are scalar aggregate queries; no rows are loaded.
func (p *Partition) Count(ctx context.Context, t keyspace.TableKey) (total, found int64, err error) {
	if err := p.ownsTable(t); err != nil {
		return 0, 0, fmt.Errorf("count: %w", err)
	}

	if err := p.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, t.Ident()),
	).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count %s total: %w", t, err)
	}

	if err := p.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE found = 1`, t.Ident()),
	).Scan(&found); err != nil {
		return 0, 0, fmt.Errorf("count %s found: %w", t, err)
	}

	return total, found, nil
}
