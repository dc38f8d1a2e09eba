package match

import (
	"sync"
	"time"

	"localwire/internal/repository"
)

// CandidateCache is a community-scoped, TTL-bounded cache of business
// candidate sets. The fuzzy path scans the full candidate list of a
// community on every lookup; the cache amortizes that load because the
// registry changes far less often than content is classified.
type CandidateCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time

	entries map[int64]cacheEntry
}

type cacheEntry struct {
	candidates []repository.BusinessCandidate
	loadedAt   time.Time
}

// DefaultCandidateTTL bounds how stale a cached candidate set may be.
const DefaultCandidateTTL = time.Hour

// NewCandidateCache creates a cache with the given TTL. A non-positive TTL
// falls back to DefaultCandidateTTL.
func NewCandidateCache(ttl time.Duration) *CandidateCache {
	if ttl <= 0 {
		ttl = DefaultCandidateTTL
	}
	return &CandidateCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]cacheEntry),
	}
}

// Get returns the cached candidate set for a community, or (nil, false)
// when absent or expired.
func (c *CandidateCache) Get(communityID int64) ([]repository.BusinessCandidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[communityID]
	if !ok || c.now().Sub(entry.loadedAt) > c.ttl {
		return nil, false
	}
	return entry.candidates, true
}

// Put stores a freshly loaded candidate set for a community.
func (c *CandidateCache) Put(communityID int64, candidates []repository.BusinessCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[communityID] = cacheEntry{candidates: candidates, loadedAt: c.now()}
}

// Invalidate drops the cached set for a community.
func (c *CandidateCache) Invalidate(communityID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, communityID)
}
