// Package ratelimit provides the admission-control port for inbound messages.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is the rate limit port consulted before a turn is admitted.
type Limiter interface {
	TryConsume() bool
}

// TokenBucket is a refill-on-read token bucket. Capacity tokens are
// available at rest; RefillPerMinute tokens are restored per minute.
type TokenBucket struct {
	capacity        float64
	refillPerMinute float64
	tokens          float64
	lastRefill      time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(capacity, refillPerMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = 10
	}
	if refillPerMinute <= 0 {
		refillPerMinute = 6
	}
	b := &TokenBucket{
		capacity:        float64(capacity),
		refillPerMinute: float64(refillPerMinute),
		now:             time.Now,
	}
	b.tokens = b.capacity
	b.lastRefill = b.now()
	return b
}

// TryConsume takes one token if available.
func (b *TokenBucket) TryConsume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Available returns the current token count, for diagnostics.
func (b *TokenBucket) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return int(b.tokens)
}

func (b *TokenBucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed.Minutes() * b.refillPerMinute
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// Unlimited is a limiter that always admits. Used when rate limiting is
// disabled in config.
type Unlimited struct{}

// TryConsume always returns true.
func (Unlimited) TryConsume() bool { return true }
