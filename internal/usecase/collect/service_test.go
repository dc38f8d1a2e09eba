package collect

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localwire/internal/domain/entity"
	"localwire/internal/repository"
	"localwire/internal/usecase/health"
)

type stubSourceRepo struct {
	mu      sync.Mutex
	sources []*entity.Source
	updated []*entity.Source
}

func (s *stubSourceRepo) Get(_ context.Context, id int64) (*entity.Source, error) {
	for _, src := range s.sources {
		if src.ID == id {
			return src, nil
		}
	}
	return nil, errors.New("source not found")
}

func (s *stubSourceRepo) ListActive(_ context.Context) ([]*entity.Source, error) {
	return s.sources, nil
}

func (s *stubSourceRepo) UpdateHealth(_ context.Context, source *entity.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, source)
	return nil
}

type stubContentRepo struct {
	mu       sync.Mutex
	existing map[string]bool
	created  []*entity.RawContent

	createErr error
}

func (s *stubContentRepo) Create(_ context.Context, item *entity.RawContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if s.existing[item.ContentHash] {
		return entity.ErrDuplicateContent
	}
	s.created = append(s.created, item)
	return nil
}

func (s *stubContentRepo) ExistsByHash(_ context.Context, _ int64, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existing[hash], nil
}

func (s *stubContentRepo) ExistsByHashBatch(_ context.Context, _ int64, hashes []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		result[h] = s.existing[h]
	}
	return result, nil
}

func (s *stubContentRepo) ListUnclassified(_ context.Context, _ int) ([]*entity.RawContent, error) {
	return nil, nil
}

func (s *stubContentRepo) MarkClassified(_ context.Context, _ int64, _ *entity.Classification) error {
	return nil
}

func (s *stubContentRepo) MarkClassificationFailed(_ context.Context, _ int64, _ string) error {
	return nil
}

type stubCollector struct {
	items []*entity.RawContent
	err   error
}

func (s *stubCollector) Collect(_ context.Context, _ *entity.Source) ([]*entity.RawContent, error) {
	return s.items, s.err
}

type stubFactory struct {
	collectors map[int64]*stubCollector
	err        error
}

func (s *stubFactory) CollectorFor(src *entity.Source) (Collector, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.collectors[src.ID], nil
}

func activeSource(id int64) *entity.Source {
	return &entity.Source{
		ID:          id,
		CommunityID: 10,
		Name:        "Test Source",
		SourceType:  entity.SourceTypeFeed,
		Endpoint:    "https://example.com/feed",
		HealthScore: 50,
		Active:      true,
	}
}

func TestCollectAllStoresNewItems(t *testing.T) {
	sourceRepo := &stubSourceRepo{sources: []*entity.Source{activeSource(1)}}
	contentRepo := &stubContentRepo{existing: map[string]bool{}}
	factory := &stubFactory{collectors: map[int64]*stubCollector{
		1: {items: []*entity.RawContent{
			{Title: "City Council Approves Budget", URL: "https://x.com/a", Body: "body"},
			{Title: "New Bakery Opens Downtown", URL: "https://x.com/b", Body: "body"},
		}},
	}}

	svc := NewService(sourceRepo, contentRepo, factory, health.NewTracker(sourceRepo), 2)

	stats, err := svc.CollectAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Sources)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 2, stats.Stored)
	assert.Equal(t, 0, stats.Duplicates)

	require.Len(t, contentRepo.created, 2)
	first := contentRepo.created[0]
	assert.Equal(t, int64(10), first.CommunityID)
	assert.Equal(t, int64(1), first.SourceID)
	assert.Equal(t, entity.StatusCollected, first.Status)
	assert.Equal(t, ContentHash(first.Title, first.URL), first.ContentHash)
	assert.Equal(t, TitleHash(first.Title), first.TitleHash)
}

func TestCollectAllCountsDuplicates(t *testing.T) {
	dupHash := ContentHash("City Council Approves Budget", "https://x.com/a")

	sourceRepo := &stubSourceRepo{sources: []*entity.Source{activeSource(1)}}
	contentRepo := &stubContentRepo{existing: map[string]bool{dupHash: true}}
	factory := &stubFactory{collectors: map[int64]*stubCollector{
		1: {items: []*entity.RawContent{
			{Title: "City Council Approves Budget", URL: "https://x.com/a"},
			{Title: "New Bakery Opens Downtown", URL: "https://x.com/b"},
		}},
	}}

	svc := NewService(sourceRepo, contentRepo, factory, health.NewTracker(sourceRepo), 2)

	stats, err := svc.CollectAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestCollectAllTreatsConstraintViolationAsDuplicate(t *testing.T) {
	// The batch check misses the hash but Create hits the uniqueness
	// constraint, simulating a concurrent insert between check and write.
	sourceRepo := &stubSourceRepo{sources: []*entity.Source{activeSource(1)}}
	contentRepo := &stubContentRepo{
		existing:  map[string]bool{},
		createErr: entity.ErrDuplicateContent,
	}
	factory := &stubFactory{collectors: map[int64]*stubCollector{
		1: {items: []*entity.RawContent{
			{Title: "City Council Approves Budget", URL: "https://x.com/a"},
		}},
	}}

	svc := NewService(sourceRepo, contentRepo, factory, health.NewTracker(sourceRepo), 1)

	stats, err := svc.CollectAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 0, stats.Stored)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestCollectAllSkipsEmptyTitles(t *testing.T) {
	sourceRepo := &stubSourceRepo{sources: []*entity.Source{activeSource(1)}}
	contentRepo := &stubContentRepo{existing: map[string]bool{}}
	factory := &stubFactory{collectors: map[int64]*stubCollector{
		1: {items: []*entity.RawContent{
			{Title: "   ", URL: "https://x.com/empty"},
			{Title: "Real Story", URL: "https://x.com/real"},
		}},
	}}

	svc := NewService(sourceRepo, contentRepo, factory, health.NewTracker(sourceRepo), 1)

	stats, err := svc.CollectAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 0, stats.Duplicates)
}

func TestCollectAllRecordsFailureWithoutAbortingPass(t *testing.T) {
	good := activeSource(1)
	bad := activeSource(2)

	sourceRepo := &stubSourceRepo{sources: []*entity.Source{good, bad}}
	contentRepo := &stubContentRepo{existing: map[string]bool{}}
	factory := &stubFactory{collectors: map[int64]*stubCollector{
		1: {items: []*entity.RawContent{{Title: "Story", URL: "https://x.com/a"}}},
		2: {err: errors.New("fetch timeout")},
	}}

	svc := NewService(sourceRepo, contentRepo, factory, health.NewTracker(sourceRepo), 2)

	stats, err := svc.CollectAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Stored)

	assert.Equal(t, 1, bad.ConsecutiveFailures)
	assert.Equal(t, 40, bad.HealthScore)
	assert.Equal(t, 0, good.ConsecutiveFailures)
	assert.Equal(t, 55, good.HealthScore)
}

func TestCollectAllCapsImageURLs(t *testing.T) {
	images := []string{"a", "b", "c", "d", "e", "f", "g"}

	sourceRepo := &stubSourceRepo{sources: []*entity.Source{activeSource(1)}}
	contentRepo := &stubContentRepo{existing: map[string]bool{}}
	factory := &stubFactory{collectors: map[int64]*stubCollector{
		1: {items: []*entity.RawContent{
			{Title: "Gallery Story", URL: "https://x.com/g", ImageURLs: images},
		}},
	}}

	svc := NewService(sourceRepo, contentRepo, factory, health.NewTracker(sourceRepo), 1)

	_, err := svc.CollectAll(context.Background())
	require.NoError(t, err)

	require.Len(t, contentRepo.created, 1)
	assert.Len(t, contentRepo.created[0].ImageURLs, entity.MaxImageURLs)
}

var _ repository.RawContentRepository = (*stubContentRepo)(nil)
var _ repository.SourceRepository = (*stubSourceRepo)(nil)
