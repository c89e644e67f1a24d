package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiting algorithm
type TokenBucket struct {
	mu             sync.Mutex
	tokens         float64
	maxTokens      float64
	refillRate     float64
	lastRefillTime time.Time
}

// NewTokenBucket creates a full bucket that refills at refillRate tokens
// per second up to maxTokens
func NewTokenBucket(maxTokens, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

// Allow checks whether one request may proceed
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN checks whether n requests may proceed
func (tb *TokenBucket) AllowN(n float64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.lastRefillTime = now

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}

	if tb.tokens >= n {
		tb.tokens -= n
		return true
	}

	return false
}

// KeyedLimiter maintains one token bucket per key (client IP), evicting
// buckets that have been idle for a while
type KeyedLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*keyedBucket
	maxTokens  float64
	refillRate float64
	maxIdle    time.Duration
}

type keyedBucket struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// NewKeyedLimiter creates a per-key limiter. Buckets idle longer than
// maxIdle are dropped on the next sweep.
func NewKeyedLimiter(maxTokens, refillRate float64, maxIdle time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limiters:   make(map[string]*keyedBucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		maxIdle:    maxIdle,
	}
}

// Allow checks whether a request for the given key may proceed
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()

	kb, ok := kl.limiters[key]
	if !ok {
		kb = &keyedBucket{bucket: NewTokenBucket(kl.maxTokens, kl.refillRate)}
		kl.limiters[key] = kb
	}
	kb.lastSeen = time.Now()

	kl.mu.Unlock()

	return kb.bucket.Allow()
}

// Sweep drops buckets that have been idle longer than maxIdle
func (kl *KeyedLimiter) Sweep() {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	cutoff := time.Now().Add(-kl.maxIdle)
	for key, kb := range kl.limiters {
		if kb.lastSeen.Before(cutoff) {
			delete(kl.limiters, key)
		}
	}
}

// Size returns the number of tracked keys
func (kl *KeyedLimiter) Size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	return len(kl.limiters)
}
