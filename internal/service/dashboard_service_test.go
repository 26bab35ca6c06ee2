package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

type mockDashboardReviewRepo struct {
	reviews []models.ReviewWithProfessor
	calls   int
}

func (m *mockDashboardReviewRepo) ListByStudent(ctx context.Context, studentID string) ([]models.ReviewWithProfessor, error) {
	m.calls++
	return m.reviews, nil
}

type mockDashboardProfessorRepo struct {
	followed []models.FollowedProfessor
}

func (m *mockDashboardProfessorRepo) ListFollowed(ctx context.Context, userID string) ([]models.FollowedProfessor, error) {
	return m.followed, nil
}

// memoryCacheRepo round-trips values through JSON like the Redis-backed
// repository does.
type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func TestDashboardServiceMe(t *testing.T) {
	dept := "Mathematics"
	reviews := &mockDashboardReviewRepo{reviews: []models.ReviewWithProfessor{
		{Review: models.Review{ID: "r1", RatingQuality: 5, Semester: "Fall 2025"}, ProfessorDepartment: dept},
		{Review: models.Review{ID: "r2", RatingQuality: 3, Semester: "Spring 2024"}, ProfessorDepartment: dept},
		{Review: models.Review{ID: "r3", RatingQuality: 4, Semester: "Fall 2025"}, ProfessorDepartment: "Physics"},
	}}
	professors := &mockDashboardProfessorRepo{followed: []models.FollowedProfessor{{ID: "p1"}}}
	svc := NewDashboardService(reviews, professors, nil, zap.NewNop(), 0)
	svc.now = func() time.Time { return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC) }

	dashboard, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, dashboard.Stats.TotalReviews)
	assert.InDelta(t, 4.0, dashboard.Stats.AvgRatingGiven, 0.001)
	assert.Equal(t, 1, dashboard.Stats.ProfessorsFollowed)
	require.NotNil(t, dashboard.Stats.MostReviewedDepartment)
	assert.Equal(t, dept, *dashboard.Stats.MostReviewedDepartment)
	assert.True(t, dashboard.Reviews[0].Editable)
	assert.False(t, dashboard.Reviews[1].Editable)
}

func TestDashboardServiceMeCacheHitReEvaluatesWindows(t *testing.T) {
	reviews := &mockDashboardReviewRepo{reviews: []models.ReviewWithProfessor{
		{Review: models.Review{ID: "r1", RatingQuality: 4, Semester: "Fall 2025"}, ProfessorDepartment: "CS"},
	}}
	professors := &mockDashboardProfessorRepo{}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(reviews, professors, cache, zap.NewNop(), time.Minute)

	// First read happens while the window is open and warms the cache.
	svc.now = func() time.Time { return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC) }
	dashboard, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, dashboard.Reviews[0].Editable)
	assert.Equal(t, 1, reviews.calls)

	// Second read is served from cache after the window closed; the
	// editable flag must reflect the new clock, not the cached one.
	svc.now = func() time.Time { return time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC) }
	dashboard, err = svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, dashboard.Reviews[0].Editable)
	assert.Equal(t, 1, reviews.calls)
}

func TestBuildStatsEmpty(t *testing.T) {
	stats := buildStats(nil, 0)
	assert.Equal(t, 0, stats.TotalReviews)
	assert.Equal(t, float64(0), stats.AvgRatingGiven)
	assert.Nil(t, stats.MostReviewedDepartment)
}

func TestBuildStatsDepartmentTieBreak(t *testing.T) {
	reviews := []models.ReviewWithProfessor{
		{Review: models.Review{RatingQuality: 4}, ProfessorDepartment: "Physics"},
		{Review: models.Review{RatingQuality: 4}, ProfessorDepartment: "Biology"},
	}
	stats := buildStats(reviews, 0)
	require.NotNil(t, stats.MostReviewedDepartment)
	assert.Equal(t, "Biology", *stats.MostReviewedDepartment)
}
