package idgen_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gosigo/internal/pkg/idgen"
)

func TestNext_UsesEpochMillis(t *testing.T) {
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	g := idgen.NewWithClock(func() time.Time { return at })

	assert.Equal(t, at.UnixMilli(), g.Next())
}

func TestNext_StrictlyIncreasingWithinSameMillisecond(t *testing.T) {
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	g := idgen.NewWithClock(func() time.Time { return at })

	first := g.Next()
	second := g.Next()
	third := g.Next()

	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
}

func TestNext_ClockGoingBackwards(t *testing.T) {
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	g := idgen.NewWithClock(func() time.Time { return at })

	first := g.Next()
	at = at.Add(-time.Hour)

	assert.Greater(t, g.Next(), first)
}

func TestObserve_SkipsExistingIDs(t *testing.T) {
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	g := idgen.NewWithClock(func() time.Time { return at })

	existing := at.Add(time.Hour).UnixMilli()
	g.Observe(existing)

	assert.Equal(t, existing+1, g.Next())
}

func TestNext_ConcurrentCallersGetUniqueIDs(t *testing.T) {
	g := idgen.New()

	const workers, perWorker = 8, 500
	ids := make(chan int64, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- g.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, workers*perWorker)
	for id := range ids {
		assert.False(t, seen[id], "id repetido %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
