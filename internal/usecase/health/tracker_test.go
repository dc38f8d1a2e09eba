package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localwire/internal/domain/entity"
)

type stubSourceRepo struct {
	updated   []*entity.Source
	updateErr error
}

func (s *stubSourceRepo) Get(_ context.Context, _ int64) (*entity.Source, error) { return nil, nil }
func (s *stubSourceRepo) ListActive(_ context.Context) ([]*entity.Source, error) {
	return nil, nil
}
func (s *stubSourceRepo) UpdateHealth(_ context.Context, src *entity.Source) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, src)
	return nil
}

func activeSource() *entity.Source {
	return &entity.Source{
		ID:          7,
		CommunityID: 1,
		SourceType:  entity.SourceTypeFeed,
		Endpoint:    "https://example.com/feed.xml",
		HealthScore: 50,
		Active:      true,
	}
}

func TestTracker_RecordSuccess(t *testing.T) {
	repo := &stubSourceRepo{}
	tr := NewTracker(repo)
	src := activeSource()
	src.ConsecutiveFailures = 4
	src.LastError = "previous failure"

	require.NoError(t, tr.RecordSuccess(context.Background(), src, 3, 2))

	assert.Equal(t, 0, src.ConsecutiveFailures)
	assert.Equal(t, 55, src.HealthScore)
	assert.NotNil(t, src.LastSuccessAt)
	assert.Empty(t, src.LastError)
	assert.Len(t, repo.updated, 1)
}

func TestTracker_RecordFailure(t *testing.T) {
	repo := &stubSourceRepo{}
	tr := NewTracker(repo)
	src := activeSource()

	require.NoError(t, tr.RecordFailure(context.Background(), src, errors.New("connection refused")))

	assert.Equal(t, 1, src.ConsecutiveFailures)
	assert.Equal(t, 40, src.HealthScore)
	assert.True(t, src.Active)
	assert.Equal(t, "connection refused", src.LastError)
	assert.NotNil(t, src.LastFailureAt)
}

func TestTracker_ConsecutiveFailuresDisableSource(t *testing.T) {
	repo := &stubSourceRepo{}
	tr := NewTracker(repo)
	src := activeSource()

	for i := 1; i <= entity.DisableFailureThreshold; i++ {
		require.NoError(t, tr.RecordFailure(context.Background(), src, errors.New("timeout")))
		assert.Equal(t, i, src.ConsecutiveFailures)
		if i < entity.DisableFailureThreshold {
			assert.True(t, src.Active, "source must stay active before the threshold")
		}
	}

	assert.False(t, src.Active, "source must be disabled at the threshold")

	// Further failures do not flip it back, and a later manual success
	// path resets the counter without reactivating.
	require.NoError(t, tr.RecordFailure(context.Background(), src, errors.New("timeout")))
	assert.False(t, src.Active)

	require.NoError(t, tr.RecordSuccess(context.Background(), src, 1, 0))
	assert.Equal(t, 0, src.ConsecutiveFailures)
	assert.False(t, src.Active, "reactivation is an operator action, not success-driven")
}

func TestTracker_HealthScoreBounds(t *testing.T) {
	repo := &stubSourceRepo{}
	tr := NewTracker(repo)

	src := activeSource()
	src.HealthScore = entity.HealthScoreMax
	require.NoError(t, tr.RecordSuccess(context.Background(), src, 1, 0))
	assert.Equal(t, entity.HealthScoreMax, src.HealthScore)

	src = activeSource()
	src.HealthScore = 5
	for i := 0; i < 20; i++ {
		require.NoError(t, tr.RecordFailure(context.Background(), src, errors.New("boom")))
		assert.GreaterOrEqual(t, src.HealthScore, entity.HealthScoreMin)
		assert.LessOrEqual(t, src.HealthScore, entity.HealthScoreMax)
	}
	assert.Equal(t, entity.HealthScoreMin, src.HealthScore)
}

func TestTracker_PersistError(t *testing.T) {
	repo := &stubSourceRepo{updateErr: errors.New("db down")}
	tr := NewTracker(repo)
	src := activeSource()

	err := tr.RecordSuccess(context.Background(), src, 1, 0)
	assert.Error(t, err)
}

func TestApplyFailure_TripsOnlyOnce(t *testing.T) {
	src := activeSource()
	src.ConsecutiveFailures = entity.DisableFailureThreshold - 1

	tripped := applyFailure(src, time.Now(), errors.New("x"))
	assert.True(t, tripped)
	assert.False(t, src.Active)

	tripped = applyFailure(src, time.Now(), errors.New("x"))
	assert.False(t, tripped, "breaker reports the trip exactly once")
}
