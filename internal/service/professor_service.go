package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

type professorRepository interface {
	List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, int, error)
	FindByID(ctx context.Context, id string) (*models.Professor, error)
	Create(ctx context.Context, professor *models.Professor) error
	Update(ctx context.Context, professor *models.Professor) error
	Follow(ctx context.Context, userID, professorID string) (bool, error)
	Unfollow(ctx context.Context, userID, professorID string) (bool, error)
	IsFollowing(ctx context.Context, userID, professorID string) (bool, error)
	ListFollowed(ctx context.Context, userID string) ([]models.FollowedProfessor, error)
}

type professorReviewRepository interface {
	GradeDistribution(ctx context.Context, professorID string) ([]models.GradeBucket, error)
}

type professorAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

const professorCachePrefix = "professors"

// ProfessorService handles directory, follow and grade-distribution
// use cases.
type ProfessorService struct {
	repo      professorRepository
	reviews   professorReviewRepository
	audit     professorAuditRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewProfessorService constructs the professor service.
func NewProfessorService(repo professorRepository, reviews professorReviewRepository, audit professorAuditRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ProfessorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorService{repo: repo, reviews: reviews, audit: audit, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

type professorListPayload struct {
	Professors []models.Professor `json:"professors"`
	Total      int                `json:"total"`
}

// List returns professors matching the filter with pagination metadata.
func (s *ProfessorService) List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	filter.Page = page
	filter.PageSize = size

	cacheKey := fmt.Sprintf("%s:list:%s:%s:%d:%d", professorCachePrefix, filter.Search, filter.Department, page, size)
	var cached professorListPayload
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached.Professors, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
	}

	professors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professors")
	}

	if err := s.cache.Set(ctx, cacheKey, professorListPayload{Professors: professors, Total: total}, s.cacheTTL); err != nil {
		s.logger.Warn("cache professor list", zap.Error(err))
	}

	return professors, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single professor profile.
func (s *ProfessorService) Get(ctx context.Context, id string) (*models.Professor, error) {
	professor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	return professor, nil
}

// Create adds a professor profile to the directory. Admin only; the
// handler enforces the role.
func (s *ProfessorService) Create(ctx context.Context, req models.ProfessorCreateRequest) (*models.Professor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}
	professor := &models.Professor{
		Name:       req.Name,
		Department: req.Department,
	}
	if err := s.repo.Create(ctx, professor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create professor")
	}
	s.invalidateListCache(ctx)
	return professor, nil
}

// Update edits directory fields. Allowed for admins, or for the user
// whose approved claim binds them to this profile.
func (s *ProfessorService) Update(ctx context.Context, id string, actor *models.JWTClaims, req models.ProfessorUpdateRequest) (*models.Professor, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}

	professor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin {
		if professor.ClaimedByUserID == nil || *professor.ClaimedByUserID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the verified owner or an admin can edit this profile")
		}
	}

	if req.Name != nil {
		professor.Name = *req.Name
	}
	if req.Department != nil {
		professor.Department = *req.Department
	}
	if err := s.repo.Update(ctx, professor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update professor")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionProfessorEdit,
			Resource:   "professors",
			ResourceID: &professor.ID,
		}); err != nil {
			s.logger.Warn("failed to record professor edit audit log", zap.Error(err))
		}
	}

	s.invalidateListCache(ctx)
	return professor, nil
}

// GradeDistribution returns counts per letter grade for a professor,
// ordered best grade first.
func (s *ProfessorService) GradeDistribution(ctx context.Context, professorID string) ([]models.GradeBucket, error) {
	if _, err := s.Get(ctx, professorID); err != nil {
		return nil, err
	}
	buckets, err := s.reviews.GradeDistribution(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade distribution")
	}

	rank := make(map[models.Grade]int, len(models.GradeOrder))
	for i, g := range models.GradeOrder {
		rank[g] = i
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return rank[buckets[i].Grade] < rank[buckets[j].Grade]
	})
	return buckets, nil
}

// Follow subscribes a student to a professor. Idempotent: following an
// already-followed professor succeeds without change.
func (s *ProfessorService) Follow(ctx context.Context, actor *models.JWTClaims, professorID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Role == models.RoleProfessor {
		return appErrors.Clone(appErrors.ErrForbidden, "professor accounts cannot follow profiles")
	}
	if _, err := s.Get(ctx, professorID); err != nil {
		return err
	}
	if _, err := s.repo.Follow(ctx, actor.UserID, professorID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to follow professor")
	}
	return nil
}

// Unfollow removes a follow. Unfollowing a professor not followed
// returns NotFound.
func (s *ProfessorService) Unfollow(ctx context.Context, actor *models.JWTClaims, professorID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	removed, err := s.repo.Unfollow(ctx, actor.UserID, professorID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unfollow professor")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "professor is not followed")
	}
	return nil
}

// IsFollowing reports whether the user follows the given professor.
// Unknown professors return NotFound rather than false.
func (s *ProfessorService) IsFollowing(ctx context.Context, actor *models.JWTClaims, professorID string) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}
	if _, err := s.Get(ctx, professorID); err != nil {
		return false, err
	}
	following, err := s.repo.IsFollowing(ctx, actor.UserID, professorID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check follow state")
	}
	return following, nil
}

// Following lists the professors the user follows.
func (s *ProfessorService) Following(ctx context.Context, userID string) ([]models.FollowedProfessor, error) {
	followed, err := s.repo.ListFollowed(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list followed professors")
	}
	return followed, nil
}

func (s *ProfessorService) invalidateListCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, professorCachePrefix+":*"); err != nil {
		s.logger.Warn("invalidate professor cache", zap.Error(err))
	}
}
