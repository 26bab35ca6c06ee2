package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	"github.com/profsight/profsight-api/internal/semester"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

type dashboardReviewRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ReviewWithProfessor, error)
}

type dashboardProfessorRepository interface {
	ListFollowed(ctx context.Context, userID string) ([]models.FollowedProfessor, error)
}

func dashboardCacheKey(userID string) string {
	return fmt.Sprintf("dashboard:%s", userID)
}

// DashboardService assembles the per-user dashboard projection.
type DashboardService struct {
	reviews    dashboardReviewRepository
	professors dashboardProfessorRepository
	cache      *CacheService
	logger     *zap.Logger
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(reviews dashboardReviewRepository, professors dashboardProfessorRepository, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		reviews:    reviews,
		professors: professors,
		cache:      cache,
		logger:     logger,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

// Me returns the caller's dashboard. The editable flag on each review is
// always resolved against the current clock, cache hit or not, so a
// window that closed since the cache write is reported closed.
func (s *DashboardService) Me(ctx context.Context, userID string) (*models.Dashboard, error) {
	cacheKey := dashboardCacheKey(userID)
	var cached models.Dashboard
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		s.applyEditability(&cached)
		return &cached, nil
	}

	reviews, err := s.reviews.ListByStudent(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviews")
	}
	followed, err := s.professors.ListFollowed(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load followed professors")
	}

	dashboard := &models.Dashboard{
		Stats:              buildStats(reviews, len(followed)),
		Reviews:            reviews,
		FollowedProfessors: followed,
	}

	if err := s.cache.Set(ctx, cacheKey, dashboard, s.cacheTTL); err != nil {
		s.logger.Warn("cache dashboard", zap.String("user_id", userID), zap.Error(err))
	}

	s.applyEditability(dashboard)
	return dashboard, nil
}

func (s *DashboardService) applyEditability(d *models.Dashboard) {
	now := s.now()
	for i := range d.Reviews {
		d.Reviews[i].Editable = semester.Editable(d.Reviews[i].Semester, now)
	}
}

func buildStats(reviews []models.ReviewWithProfessor, followedCount int) models.DashboardStats {
	stats := models.DashboardStats{
		TotalReviews:       len(reviews),
		ProfessorsFollowed: followedCount,
	}
	if len(reviews) == 0 {
		return stats
	}

	sum := 0
	deptCounts := make(map[string]int)
	for _, r := range reviews {
		sum += r.RatingQuality
		deptCounts[r.ProfessorDepartment]++
	}
	stats.AvgRatingGiven = float64(sum) / float64(len(reviews))

	best := ""
	bestCount := 0
	for dept, count := range deptCounts {
		if count > bestCount || (count == bestCount && (best == "" || dept < best)) {
			best = dept
			bestCount = count
		}
	}
	if best != "" {
		stats.MostReviewedDepartment = &best
	}
	return stats
}
