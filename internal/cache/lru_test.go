package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLRU(size int, ttl time.Duration) (*LRU[int], *time.Time) {
	c := NewLRU[int](size, ttl)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpires(t *testing.T) {
	c, now := newTestLRU(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	*now = now.Add(30 * time.Second)
	c.Set("b", 3)
	*now = now.Add(31 * time.Second)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())

	*now = now.Add(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUPurgeAndDelete(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, 1, c.Size())
	c.Purge()
	assert.Zero(t, c.Size())
	c.Set("c", 3)
	assert.Equal(t, 1, c.Size())
}

func TestGetOrLoadSharesOneLoad(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrLoad(context.Background(), "overview", load)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(5))
	v, hit, err := c.GetOrLoad(context.Background(), "overview", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, v)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	_, _, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		return 0, errors.New("store down")
	})
	require.Error(t, err)
	assert.Zero(t, c.Size())
}

func TestJanitorSweep(t *testing.T) {
	c, now := newTestLRU(10, time.Second)
	c.Set("a", 1)
	*now = now.Add(2 * time.Second)

	j := NewJanitor(c)
	assert.Equal(t, 1, j.Sweep())
	j.Start(time.Hour)
	j.Stop()
	j.Stop()
}

func TestPurgeDuringLoadDropsStaleValue(t *testing.T) {
	c := NewLRU[string](1, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)
	go func() {
		v, _, err := c.GetOrLoad(context.Background(), "overview", func(context.Context) (string, error) {
			close(started)
			<-release
			return "before-write", nil
		})
		assert.NoError(t, err)
		done <- v
	}()

	<-started
	c.Purge()

	v, hit, err := c.GetOrLoad(context.Background(), "overview", func(context.Context) (string, error) {
		return "after-write", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "after-write", v)

	close(release)
	assert.Equal(t, "before-write", <-done)

	v, ok := c.Get("overview")
	require.True(t, ok)
	assert.Equal(t, "after-write", v)
}
