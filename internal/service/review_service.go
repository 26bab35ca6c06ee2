package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	"github.com/profsight/profsight-api/internal/semester"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id string) (*models.Review, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.Review, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ReviewWithProfessor, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
	AddVote(ctx context.Context, reviewID, userID string) (bool, error)
	AddFlag(ctx context.Context, flag *models.ReviewFlag) error
}

type reviewProfessorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Professor, error)
	UpdateAggregates(ctx context.Context, professorID string) error
}

// ReviewService handles review submission, edits, votes and flags.
type ReviewService struct {
	repo       reviewRepository
	professors reviewProfessorRepository
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewReviewService constructs the review service.
func NewReviewService(repo reviewRepository, professors reviewProfessorRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		repo:       repo,
		professors: professors,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Create submits a review. One review per (professor, student, semester);
// a duplicate yields Conflict.
func (s *ReviewService) Create(ctx context.Context, actor *models.JWTClaims, req models.ReviewCreateRequest) (*models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	grade := models.Grade(req.GradeReceived)
	if !grade.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade value")
	}
	if _, err := semester.Parse(req.Semester); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must look like \"Fall 2025\"")
	}

	if _, err := s.professors.FindByID(ctx, req.ProfessorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}

	review := &models.Review{
		ProfessorID:      req.ProfessorID,
		StudentID:        actor.UserID,
		RatingQuality:    req.RatingQuality,
		RatingDifficulty: req.RatingDifficulty,
		GradeReceived:    grade,
		Comment:          req.Comment,
		CourseCode:       req.CourseCode,
		Semester:         req.Semester,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you already reviewed this professor for this semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}

	s.refreshAggregates(ctx, review.ProfessorID)
	s.metrics.RecordReviewCreated()
	s.invalidateDashboards(ctx, actor.UserID)
	return review, nil
}

// Get returns one review.
func (s *ReviewService) Get(ctx context.Context, id string) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}
	return review, nil
}

// ListByProfessor returns all reviews for a professor, newest first.
func (s *ReviewService) ListByProfessor(ctx context.Context, professorID string) ([]models.Review, error) {
	reviews, err := s.repo.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}

// ListMine returns the caller's reviews with professor info and the
// editable flag resolved against the current clock.
func (s *ReviewService) ListMine(ctx context.Context, userID string) ([]models.ReviewWithProfessor, error) {
	reviews, err := s.repo.ListByStudent(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	now := s.now()
	for i := range reviews {
		reviews[i].Editable = semester.Editable(reviews[i].Semester, now)
	}
	return reviews, nil
}

// Update edits a review. Owner only, and only while the review's
// semester edit window is open; admins bypass the window.
func (s *ReviewService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.ReviewUpdateRequest) (*models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin {
		if review.StudentID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can edit this review")
		}
		if !semester.Editable(review.Semester, s.now()) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "the edit window for this semester has closed")
		}
	}

	if req.RatingQuality != nil {
		review.RatingQuality = *req.RatingQuality
	}
	if req.RatingDifficulty != nil {
		review.RatingDifficulty = *req.RatingDifficulty
	}
	if req.GradeReceived != nil {
		grade := models.Grade(*req.GradeReceived)
		if !grade.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade value")
		}
		review.GradeReceived = grade
	}
	if req.Comment != nil {
		review.Comment = req.Comment
	}
	if req.CourseCode != nil {
		review.CourseCode = req.CourseCode
	}

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update review")
	}

	s.refreshAggregates(ctx, review.ProfessorID)
	s.invalidateDashboards(ctx, review.StudentID)
	return review, nil
}

// Delete removes a review. Owner within the edit window, or an admin at
// any time.
func (s *ReviewService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	review, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != models.RoleAdmin {
		if review.StudentID != actor.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the author can delete this review")
		}
		if !semester.Editable(review.Semester, s.now()) {
			return appErrors.Clone(appErrors.ErrForbidden, "the edit window for this semester has closed")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}

	s.refreshAggregates(ctx, review.ProfessorID)
	s.invalidateDashboards(ctx, review.StudentID)
	return nil
}

// Vote records a helpful vote. A repeat vote is acknowledged without
// change.
func (s *ReviewService) Vote(ctx context.Context, actor *models.JWTClaims, reviewID string) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}
	review, err := s.Get(ctx, reviewID)
	if err != nil {
		return false, err
	}
	if review.StudentID == actor.UserID {
		return false, appErrors.Clone(appErrors.ErrForbidden, "you cannot vote on your own review")
	}
	counted, err := s.repo.AddVote(ctx, reviewID, actor.UserID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record vote")
	}
	return counted, nil
}

// Flag reports a review for moderation. Authors cannot flag their own
// review; one flag per user, repeat yields Conflict.
func (s *ReviewService) Flag(ctx context.Context, actor *models.JWTClaims, reviewID string, req models.ReviewFlagRequest) (*models.ReviewFlag, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid flag payload")
	}

	review, err := s.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.StudentID == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot flag your own review")
	}

	flag := &models.ReviewFlag{
		ReviewID: reviewID,
		UserID:   actor.UserID,
		Reason:   req.Reason,
	}
	if err := s.repo.AddFlag(ctx, flag); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you already flagged this review")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record flag")
	}

	s.metrics.RecordFlagRaised()
	return flag, nil
}

func (s *ReviewService) refreshAggregates(ctx context.Context, professorID string) {
	if err := s.professors.UpdateAggregates(ctx, professorID); err != nil {
		s.logger.Warn("failed to refresh professor aggregates", zap.String("professor_id", professorID), zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, professorCachePrefix+":*"); err != nil {
		s.logger.Warn("invalidate professor cache", zap.Error(err))
	}
}

func (s *ReviewService) invalidateDashboards(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey(userID)); err != nil {
		s.logger.Warn("invalidate dashboard cache", zap.String("user_id", userID), zap.Error(err))
	}
}
