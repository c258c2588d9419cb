package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Limit exceeded.
	assert.ErrorIs(t, c.AcquireMemory(20), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireMemory(1000))
	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
}

func TestController_Queries(t *testing.T) {
	c := NewController(Config{MaxConcurrentQueries: 2})
	ctx := context.Background()

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, c.AcquireQuery(ctx)) {
				return
			}
			defer c.ReleaseQuery()
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestController_QueryCancel(t *testing.T) {
	c := NewController(Config{MaxConcurrentQueries: 1})
	require.True(t, c.TryAcquireQuery())
	assert.False(t, c.TryAcquireQuery())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireQuery(ctx))

	c.ReleaseQuery()
	assert.True(t, c.TryAcquireQuery())
	c.ReleaseQuery()
}

func TestController_Rate(t *testing.T) {
	c := NewController(Config{MaxConcurrentQueries: 4, QueriesPerSecond: 1})
	ctx := context.Background()

	require.NoError(t, c.AcquireQuery(ctx))
	c.ReleaseQuery()

	// The bucket is empty; a short deadline must fail.
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireQuery(short))
	assert.True(t, c.TryAcquireQuery(), "slot released after rate failure")
	c.ReleaseQuery()
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireMemory(1))
	c.ReleaseMemory(1)
	require.NoError(t, c.AcquireQuery(context.Background()))
	c.ReleaseQuery()
	assert.True(t, c.TryAcquireQuery())
	assert.Equal(t, int64(0), c.MemoryUsage())
}
