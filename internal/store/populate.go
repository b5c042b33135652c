package store

import (
	"context"
	"fmt"

	"github.com/roach88/seqdb/internal/keyspace"
)

// ProgressFunc is called once per table after Populate finishes it, with the
// number of rows that table gained.
type ProgressFunc func(t keyspace.TableKey, inserted int64)

// Populate inserts every sequence of the partition that is not present yet,
// with found=false. Existing rows are left untouched, so re-running never
// duplicates rows or resets found=true.
//
// Each table is filled in its own transaction through one prepared
// statement. Returns the number of rows inserted across all tables.
func (p *Partition) Populate(ctx context.Context, progress ProgressFunc) (int64, error) {
	var total int64
	for _, t := range p.ks.Tables(p.key) {
		n, err := p.populateTable(ctx, t)
		if err != nil {
			return total, err
		}
		total += n
		if progress != nil {
			progress(t, n)
		}
	}
	return total, nil
}

func (p *Partition) populateTable(ctx context.Context, t keyspace.TableKey) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("populate %s: begin tx: %w", t, err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT OR IGNORE INTO %s (sequence) VALUES (?)`, t.Ident()))
	if err != nil {
		return 0, fmt.Errorf("populate %s: prepare: %w", t, err)
	}
	defer stmt.Close()

	var inserted int64
	for suffix := range p.ks.Suffixes() {
		result, err := stmt.ExecContext(ctx, string(t)+suffix)
		if err != nil {
			return 0, fmt.Errorf("populate %s: insert: %w", t, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("populate %s: rows affected: %w", t, err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("populate %s: commit: %w", t, err)
	}
	return inserted, nil
}
