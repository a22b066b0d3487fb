// Package ratelimit provides the per-app request throttling used by the sandbox.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements the token bucket algorithm. It is safe for concurrent use.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	rate       float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket holding capacity tokens and refilling at rate per second.
func NewTokenBucket(capacity, rate float64) *TokenBucket {
	return newTokenBucket(capacity, rate, time.Now)
}

func newTokenBucket(capacity, rate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		rate:       rate,
		lastRefill: now(),
		now:        now,
	}
}

// Allow consumes one token if available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// RetryAfter returns how long until one token is available.
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 || tb.rate <= 0 {
		return 0
	}
	return time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
}

// refill must be called with the lock held.
func (tb *TokenBucket) refill() {
	now := tb.now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Pool hands out one bucket per key, e.g. per app id.
type Pool struct {
	mu       sync.Mutex
	buckets  map[string]*TokenBucket
	capacity float64
	rate     float64
	now      func() time.Time
}

// NewPool creates a pool whose buckets allow burst requests at once and rps sustained.
func NewPool(rps float64, burst int) *Pool {
	if burst < 1 {
		burst = 1
	}
	return &Pool{
		buckets:  make(map[string]*TokenBucket),
		capacity: float64(burst),
		rate:     rps,
		now:      time.Now,
	}
}

// Bucket returns the bucket of key, creating it on first use.
func (p *Pool) Bucket(key string) *TokenBucket {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.buckets[key]; ok {
		return b
	}
	b := newTokenBucket(p.capacity, p.rate, p.now)
	p.buckets[key] = b
	return b
}

// Allow consumes one token from the bucket of key.
func (p *Pool) Allow(key string) bool {
	return p.Bucket(key).Allow()
}

// Size returns the number of tracked keys.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}
