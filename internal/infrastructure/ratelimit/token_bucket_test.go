package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTokenBucket_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	tb := newTokenBucket(3, 2, clock.Now)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "request %d", i)
	}
	assert.False(t, tb.Allow())
	assert.Equal(t, 500*time.Millisecond, tb.RetryAfter())

	clock.Advance(500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	clock.Advance(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow())
	}
	assert.False(t, tb.Allow())
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	tb := newTokenBucket(1, 0, clock.Now)

	assert.True(t, tb.Allow())
	clock.Advance(time.Hour)
	assert.False(t, tb.Allow())
	assert.Zero(t, tb.RetryAfter())
}

func TestPool_SeparatesKeys(t *testing.T) {
	p := NewPool(1, 1)
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	p.now = clock.Now

	assert.True(t, p.Allow("app-1"))
	assert.False(t, p.Allow("app-1"))
	assert.True(t, p.Allow("app-2"))
	assert.Same(t, p.Bucket("app-1"), p.Bucket("app-1"))
	assert.Equal(t, 2, p.Size())
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool(0, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Allow("app-1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}
