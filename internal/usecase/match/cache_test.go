package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"localwire/internal/repository"
)

func TestCandidateCacheExpiry(t *testing.T) {
	current := time.Now()
	cache := NewCandidateCache(time.Hour)
	cache.now = func() time.Time { return current }

	cache.Put(10, []repository.BusinessCandidate{{ID: 1, Name: "Joe's Pizza LLC"}})

	got, ok := cache.Get(10)
	assert.True(t, ok)
	assert.Len(t, got, 1)

	current = current.Add(time.Hour + time.Minute)
	_, ok = cache.Get(10)
	assert.False(t, ok)
}

func TestCandidateCacheScopedByCommunity(t *testing.T) {
	cache := NewCandidateCache(time.Hour)
	cache.Put(10, []repository.BusinessCandidate{{ID: 1, Name: "Joe's Pizza LLC"}})

	_, ok := cache.Get(11)
	assert.False(t, ok)
}

func TestCandidateCacheInvalidate(t *testing.T) {
	cache := NewCandidateCache(time.Hour)
	cache.Put(10, []repository.BusinessCandidate{{ID: 1, Name: "Joe's Pizza LLC"}})

	cache.Invalidate(10)

	_, ok := cache.Get(10)
	assert.False(t, ok)
}

func TestCandidateCacheDefaultsTTL(t *testing.T) {
	cache := NewCandidateCache(0)
	assert.Equal(t, DefaultCandidateTTL, cache.ttl)
}
