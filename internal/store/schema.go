package store

import (
	"context"
	"fmt"
)

// tableSchema matches the layout written by earlier tooling so existing
// partition files open unchanged.
const tableSchema = `CREATE TABLE IF NOT EXISTS %s (
	sequence TEXT PRIMARY KEY,
	found BOOLEAN DEFAULT FALSE
)`

// EnsureSchema creates every table of the partition that does not exist yet.
// This function is idempotent.
func (p *Partition) EnsureSchema(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ensure schema: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, t := range p.ks.Tables(p.key) {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(tableSchema, t.Ident())); err != nil {
			return fmt.Errorf("ensure schema: create %s: %w", t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ensure schema: commit: %w", err)
	}
	return nil
}
