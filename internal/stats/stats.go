// Package stats computes found/total counts per partition and overall.
//
// Counts come from two scalar COUNT(*) queries per table; no rows are ever
// loaded into memory. Everything here is read-only.
package stats

import (
	"context"

	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/store"
)

// Stats holds the counts of one partition, or of the whole store when
// Partition is empty.
type Stats struct {
	Partition keyspace.PartitionKey `json:"partition,omitempty"`
	Total     int64                 `json:"total"`
	Found     int64                 `json:"found"`
}

// Percentage returns Found as a percentage of Total, or 0 when Total is 0.
func (s Stats) Percentage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Found) / float64(s.Total) * 100
}

// Add returns the sum of s and o. The partition of s is kept.
func (s Stats) Add(o Stats) Stats {
	s.Total += o.Total
	s.Found += o.Found
	return s
}

// Global holds per-partition stats in alphabet order and their sum.
type Global struct {
	Partitions []Stats `json:"partitions"`
	Overall    Stats   `json:"overall"`
}

// Aggregator reads counts from a Store.
type Aggregator struct {
	store *store.Store
}

// New creates an Aggregator over st.
func New(st *store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// Partition sums the counts of every table in partition p.
func (a *Aggregator) Partition(ctx context.Context, p keyspace.PartitionKey) (Stats, error) {
	part, err := a.store.Open(ctx, p)
	if err != nil {
		return Stats{}, err
	}
	defer part.Close()

	st := Stats{Partition: p}
	for _, t := range a.store.Keyspace().Tables(p) {
		total, found, err := part.Count(ctx, t)
		if err != nil {
			return Stats{}, err
		}
		st.Total += total
		st.Found += found
	}
	return st, nil
}

// Global sums Partition across every partition of the keyspace.
func (a *Aggregator) Global(ctx context.Context) (Global, error) {
	var g Global
	for _, p := range a.store.Keyspace().Partitions() {
		st, err := a.Partition(ctx, p)
		if err != nil {
			return Global{}, err
		}
		g.Partitions = append(g.Partitions, st)
		g.Overall = g.Overall.Add(st)
	}
	return g, nil
}
