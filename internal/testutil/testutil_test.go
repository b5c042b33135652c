package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepClock_AdvancesByStep(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewStepClock(start, time.Second)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start.Add(time.Second), clock.Now())
	assert.Equal(t, start.Add(2*time.Second), clock.Now())

	clock.Reset(start)
	assert.Equal(t, start, clock.Now())
}

func TestStepClock_ConcurrentAccess(t *testing.T) {
	start := time.Unix(0, 0)
	clock := NewStepClock(start, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(1000*time.Millisecond), clock.Now())
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "run-1", NewFixedIDGenerator("run-1").Generate())
	assert.Equal(t, "test-run-default", NewFixedIDGenerator("").Generate())
}

func TestPopulatedStore(t *testing.T) {
	ks := SmallKeyspace(t)
	s := PopulatedStore(t, ks, "b")

	part, err := s.Open(context.Background(), "b")
	require.NoError(t, err)
	defer part.Close()

	total, found, err := part.Count(context.Background(), "bc")
	require.NoError(t, err)
	assert.Equal(t, ks.TableSize(), total)
	assert.Zero(t, found)
}
