package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	tokens     int           // Current tokens
	maxTokens  int           // Maximum tokens in bucket
	refillRate int           // Tokens to add per refill interval
	refillTime time.Duration // Refill interval
	lastRefill time.Time
	lastSeen   time.Time
	mutex      sync.Mutex
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration, now time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: now,
		lastSeen:   now,
	}
}

// Allow consumes a token if one is available. When none is, it returns the wait
// until the next refill.
func (tb *TokenBucket) Allow(now time.Time) (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.lastSeen = now
	if refills := int(now.Sub(tb.lastRefill) / tb.refillTime); refills > 0 {
		tb.tokens += refills * tb.refillRate
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = tb.lastRefill.Add(time.Duration(refills) * tb.refillTime)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}
	return false, tb.lastRefill.Add(tb.refillTime).Sub(now)
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return now.Sub(tb.lastSeen)
}

// Store keeps one bucket per caller (IP or user id) for a single route group.
// It satisfies echo's middleware.RateLimiterStore.
type Store struct {
	perMinute int
	now       func() time.Time

	mutex   sync.RWMutex
	buckets map[string]*TokenBucket
}

// NewStore allows perMinute requests per identifier, refilled one at a time.
func NewStore(perMinute int) *Store {
	if perMinute < 1 {
		perMinute = 1
	}
	return &Store{
		perMinute: perMinute,
		now:       time.Now,
		buckets:   make(map[string]*TokenBucket),
	}
}

func (s *Store) Allow(identifier string) (bool, error) {
	now := s.now()

	s.mutex.RLock()
	bucket, exists := s.buckets[identifier]
	s.mutex.RUnlock()

	if !exists {
		s.mutex.Lock()
		if bucket, exists = s.buckets[identifier]; !exists {
			bucket = NewTokenBucket(s.perMinute, 1, time.Minute/time.Duration(s.perMinute), now)
			s.buckets[identifier] = bucket
		}
		s.mutex.Unlock()
	}

	allowed, _ := bucket.Allow(now)
	return allowed, nil
}

// Cleanup removes buckets idle for longer than maxIdle.
func (s *Store) Cleanup(maxIdle time.Duration) {
	now := s.now()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for key, bucket := range s.buckets {
		if bucket.idleSince(now) > maxIdle {
			delete(s.buckets, key)
		}
	}
}

// StartCleanupRoutine prunes idle buckets every interval until ctx is done.
func (s *Store) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
