package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/seqdb/internal/keyspace"
)

// ErrStoreUnavailable is returned when a partition file cannot be opened or
// created.
var ErrStoreUnavailable = errors.New("store unavailable")

// Store locates the partition files of one index.
// It holds no open connections itself; see Open.
type Store struct {
	dir string
	ks  keyspace.Keyspace
}

// New returns a Store rooted at dir for the given keyspace.
// The directory is not created; Open fails with ErrStoreUnavailable if it
// does not exist.
func New(dir string, ks keyspace.Keyspace) *Store {
	return &Store{dir: dir, ks: ks}
}

// Dir returns the directory holding the partition files.
func (s *Store) Dir() string { return s.dir }

// Keyspace returns the keyspace the store was built for.
func (s *Store) Keyspace() keyspace.Keyspace { return s.ks }

// Path returns the file backing partition p.
func (s *Store) Path(p keyspace.PartitionKey) string {
	return filepath.Join(s.dir, string(p)+".db")
}

// Partition is an open handle on one partition file.
type Partition struct {
	key keyspace.PartitionKey
	ks  keyspace.Keyspace
	db  *sql.DB
}

// Open opens the partition file for p, creating it if absent, and ensures
// its schema. The caller must Close the returned handle.
//
// This function is idempotent - safe to call on every startup.
func (s *Store) Open(ctx context.Context, p keyspace.PartitionKey) (*Partition, error) {
	if _, err := s.ks.Partition(string(p)); err != nil {
		return nil, fmt.Errorf("open partition: %w", err)
	}

	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStoreUnavailable, s.dir)
	}

	path := s.Path(p)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, path, err)
	}

	// Verify connection works (creates the file)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect %s: %w", ErrStoreUnavailable, path, err)
	}

	// One connection per handle: SQLite has a single writer and handles are
	// short-lived.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	part := &Partition{key: p, ks: s.ks, db: db}
	if err := part.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return part, nil
}

// Key returns the partition key of the handle.
func (p *Partition) Key() keyspace.PartitionKey { return p.key }

// Close releases the handle. Calling Close more than once is harmless.
func (p *Partition) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (p *Partition) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := p.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// ownsTable returns an error unless t belongs to this partition.
func (p *Partition) ownsTable(t keyspace.TableKey) error {
	if p.ks.TableIndex(t) < 0 || t.Partition() != p.key {
		return fmt.Errorf("%w: table %q is not in partition %q", keyspace.ErrInvalidKey, t, p.key)
	}
	return nil
}
