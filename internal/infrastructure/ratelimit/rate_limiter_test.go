package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketRefills(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewTokenBucket(2, 1, 30*time.Second, start)

	ok, _ := b.Allow(start)
	assert.True(t, ok)
	ok, _ = b.Allow(start)
	assert.True(t, ok)

	ok, wait := b.Allow(start.Add(10 * time.Second))
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, wait)

	ok, _ = b.Allow(start.Add(31 * time.Second))
	assert.True(t, ok)
}

func TestStorePerIdentifier(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(2)
	s.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := s.Allow("10.0.0.1")
		assert.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := s.Allow("10.0.0.1")
	assert.False(t, ok)

	ok, _ = s.Allow("10.0.0.2")
	assert.True(t, ok, "other callers keep their own bucket")

	now = now.Add(2 * time.Hour)
	s.Cleanup(time.Hour)
	assert.Empty(t, s.buckets)
}
