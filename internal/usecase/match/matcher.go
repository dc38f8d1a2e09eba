package match

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agext/levenshtein"

	"localwire/internal/domain/entity"
	"localwire/internal/observability/metrics"
	"localwire/internal/repository"
)

// FuzzyThreshold is the similarity percentage a candidate must exceed to be
// accepted by the fuzzy path.
const FuzzyThreshold = 85.0

// ExactMatchScore is the confidence recorded for exact-name hits.
const ExactMatchScore = 100.0

// Matcher resolves extracted business names against the canonical registry.
// The exact path is a scoped point query against the durable store; the
// fuzzy path scans the community's candidate set behind a TTL cache.
type Matcher struct {
	businessRepo repository.BusinessRepository
	cache        *CandidateCache
}

// NewMatcher creates a Matcher. A nil cache gets the default TTL.
func NewMatcher(businessRepo repository.BusinessRepository, cache *CandidateCache) *Matcher {
	if cache == nil {
		cache = NewCandidateCache(DefaultCandidateTTL)
	}
	return &Matcher{businessRepo: businessRepo, cache: cache}
}

// FindMatch resolves a free-text business name within a community, returning
// the business and the confidence of the match: ExactMatchScore on the exact
// path, the similarity percentage on the fuzzy path. Returns (nil, 0, nil)
// when no candidate clears the threshold; that is not an error, downstream
// proceeds with an unresolved name.
func (m *Matcher) FindMatch(ctx context.Context, communityID int64, name string) (*entity.Business, float64, error) {
	if name == "" {
		return nil, 0, nil
	}

	// Exact path: the raw input compared case-insensitively against
	// stored names. Cheap and authoritative.
	exact, err := m.businessRepo.FindByExactName(ctx, communityID, name)
	if err != nil {
		return nil, 0, fmt.Errorf("exact business lookup: %w", err)
	}
	if exact != nil {
		metrics.RecordBusinessMatch("exact")
		return exact, ExactMatchScore, nil
	}

	candidates, err := m.candidates(ctx, communityID)
	if err != nil {
		return nil, 0, err
	}

	normalized := NormalizeName(name)
	if normalized == "" {
		metrics.RecordBusinessMatch("none")
		return nil, 0, nil
	}

	var (
		best      *repository.BusinessCandidate
		bestScore float64
	)
	for i := range candidates {
		score := Similarity(normalized, NormalizeName(candidates[i].Name))
		if score > FuzzyThreshold && score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}

	if best == nil {
		metrics.RecordBusinessMatch("none")
		return nil, 0, nil
	}

	business, err := m.businessRepo.Get(ctx, best.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("load matched business %d: %w", best.ID, err)
	}

	metrics.RecordBusinessMatch("fuzzy")
	slog.Debug("fuzzy business match",
		slog.String("input", name),
		slog.String("matched", best.Name),
		slog.Float64("score", bestScore))
	return business, bestScore, nil
}

// candidates returns the community's candidate set, loading it through the
// cache when the cached copy is absent or expired.
func (m *Matcher) candidates(ctx context.Context, communityID int64) ([]repository.BusinessCandidate, error) {
	if cached, ok := m.cache.Get(communityID); ok {
		return cached, nil
	}

	candidates, err := m.businessRepo.ListCandidates(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("list business candidates: %w", err)
	}
	m.cache.Put(communityID, candidates)
	return candidates, nil
}

// Similarity returns a character-similarity percentage between two strings
// using normalized Levenshtein distance. 100 means identical.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	return levenshtein.Similarity(a, b, nil) * 100
}
