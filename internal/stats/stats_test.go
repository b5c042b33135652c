package stats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/seqdb/internal/engine"
	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/store"
	"github.com/roach88/seqdb/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPercentage_ZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, Stats{}.Percentage())
	assert.Equal(t, 0.0, Stats{Found: 3}.Percentage())
	assert.InDelta(t, 25.0, Stats{Total: 8, Found: 2}.Percentage(), 1e-9)
}

func TestPartition_CountsAfterUpdates(t *testing.T) {
	ks := testutil.SmallKeyspace(t)
	st := testutil.PopulatedStore(t, ks)
	ctx := context.Background()

	_, err := engine.New(st).BulkUpdate(ctx, "a", []string{"aaaa", "abab", "acac"}, true)
	require.NoError(t, err)

	s, err := New(st).Partition(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, keyspace.PartitionKey("a"), s.Partition)
	assert.Equal(t, ks.PartitionSize(), s.Total)
	assert.Equal(t, int64(3), s.Found)
	assert.InDelta(t, 3.0/27*100, s.Percentage(), 1e-9)
}

func TestPartition_Unpopulated(t *testing.T) {
	st := testutil.NewStore(t, testutil.SmallKeyspace(t))

	s, err := New(st).Partition(context.Background(), "b")
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Percentage())
}

func TestGlobal_SumsPartitions(t *testing.T) {
	ks := testutil.SmallKeyspace(t)
	st := testutil.PopulatedStore(t, ks)
	ctx := context.Background()

	_, err := engine.New(st).Mark(ctx, []string{"aaaa", "bbbb", "cccc", "ccca"}, true)
	require.NoError(t, err)

	g, err := New(st).Global(ctx)
	require.NoError(t, err)

	require.Len(t, g.Partitions, 3)
	for _, p := range g.Partitions {
		assert.Equal(t, ks.PartitionSize(), p.Total)
	}
	assert.Equal(t, ks.Size(), g.Overall.Total)
	assert.Equal(t, int64(len(g.Partitions))*g.Partitions[0].Total, g.Overall.Total)
	assert.Equal(t, int64(4), g.Overall.Found)
	assert.Equal(t, int64(2), g.Partitions[2].Found)
}

func TestGlobal_StoreUnavailable(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "missing"), testutil.SmallKeyspace(t))

	_, err := New(st).Global(context.Background())
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}

func TestPartition_ReadOnly(t *testing.T) {
	ks := testutil.SmallKeyspace(t)
	st := testutil.PopulatedStore(t, ks, "c")
	ctx := context.Background()
	agg := New(st)

	first, err := agg.Partition(ctx, "c")
	require.NoError(t, err)
	second, err := agg.Partition(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDefaultKeyspaceTotals(t *testing.T) {
	if testing.Short() {
		t.Skip("populates a full default partition")
	}

	ks := keyspace.Default()
	st := testutil.PopulatedStore(t, ks, "a")

	s, err := New(st).Partition(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(26*17576), s.Total)
	assert.Equal(t, int64(676*17576), 26*s.Total)
}
