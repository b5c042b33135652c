package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seqdb/internal/stats"
)

func TestObserveStats(t *testing.T) {
	c := New()
	c.ObserveStats(stats.Global{
		Partitions: []stats.Stats{
			{Partition: "a", Total: 27, Found: 9},
			{Partition: "b", Total: 0, Found: 0},
		},
	})

	assert.Equal(t, 27.0, testutil.ToFloat64(c.sequencesTotal.WithLabelValues("a")))
	assert.Equal(t, 9.0, testutil.ToFloat64(c.sequencesFound.WithLabelValues("a")))
	assert.InDelta(t, 1.0/3, testutil.ToFloat64(c.foundRatio.WithLabelValues("a")), 1e-9)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.foundRatio.WithLabelValues("b")))
}

func TestBatchActivity(t *testing.T) {
	c := New()
	c.BatchApplied("ab", 10, 8, 20*time.Millisecond)
	c.BatchApplied("ac", 5, 5, 10*time.Millisecond)
	c.MembersRejected("a", 3)
	c.MembersRejected("", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.batchesTotal.WithLabelValues("a")))
	assert.Equal(t, 13.0, testutil.ToFloat64(c.rowsMatched.WithLabelValues("a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.membersRejected.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.membersRejected.WithLabelValues("")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.batchDuration))
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.ObservePartition(stats.Stats{Partition: "q", Total: 100, Found: 25})

	path := filepath.Join(t.TempDir(), "seqdb.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `seqdb_sequences_found{partition="q"} 25`)

	err = testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(`
# HELP seqdb_sequences_total Number of sequence records per partition
# TYPE seqdb_sequences_total gauge
seqdb_sequences_total{partition="q"} 100
`), "seqdb_sequences_total")
	assert.NoError(t, err)
}
