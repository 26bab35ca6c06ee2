package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

type claimRepository interface {
	Create(ctx context.Context, claim *models.ClaimRequest) error
	FindByID(ctx context.Context, id string) (*models.ClaimRequest, error)
	FindByUserAndStatus(ctx context.Context, userID string, status models.ClaimStatus) (*models.ClaimRequest, error)
	HasStatus(ctx context.Context, professorID string, status models.ClaimStatus) (bool, error)
	ListPending(ctx context.Context) ([]models.PendingClaim, error)
	Transition(ctx context.Context, id string, to models.ClaimStatus, resolvedBy *string, reason *string, at time.Time) error
	Approve(ctx context.Context, claimID, professorID, userID string, resolvedBy *string, competingReason string, at time.Time) (int64, error)
}

type claimProfessorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Professor, error)
}

type claimAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Reason stored on pending claims that lose to an approved competitor.
const competingClaimReason = "profile was claimed by another user"

// ClaimService implements the profile claim workflow: submission,
// status lookups, cancellation and admin resolution.
type ClaimService struct {
	repo       claimRepository
	professors claimProfessorRepository
	audit      claimAuditRepository
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewClaimService constructs the claim service.
func NewClaimService(repo claimRepository, professors claimProfessorRepository, audit claimAuditRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClaimService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{
		repo:       repo,
		professors: professors,
		audit:      audit,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit files a claim on a professor profile. Only professor-role users
// may claim, the profile must exist and neither side may already hold a
// pending or approved claim. The insert itself re-checks those
// conditions so concurrent submits serialize; the loser sees Conflict.
func (s *ClaimService) Submit(ctx context.Context, actor *models.JWTClaims, req models.ClaimSubmitRequest) (*models.ClaimRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim payload")
	}
	if actor.Role != models.RoleProfessor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only professor accounts can claim a profile")
	}

	professor, err := s.professors.FindByID(ctx, req.ProfessorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if professor.ClaimedByUserID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this profile has already been claimed")
	}

	// Pre-checks give the caller a specific message; the guarded insert
	// below remains the authority under concurrency.
	if pending, err := s.repo.FindByUserAndStatus(ctx, actor.UserID, models.ClaimPending); err == nil && pending != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you already have a pending claim")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending claims")
	}
	if approved, err := s.repo.FindByUserAndStatus(ctx, actor.UserID, models.ClaimApproved); err == nil && approved != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you already claimed a profile")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check approved claims")
	}
	if taken, err := s.repo.HasStatus(ctx, req.ProfessorID, models.ClaimPending); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check competing claims")
	} else if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "another claim on this profile is awaiting review")
	}

	claim := &models.ClaimRequest{
		UserID:      actor.UserID,
		ProfessorID: req.ProfessorID,
		Message:     req.Message,
		Status:      models.ClaimPending,
	}
	if err := s.repo.Create(ctx, claim); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a conflicting claim already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create claim")
	}
	return claim, nil
}

// MyStatus summarises the caller's claim state. When multiple requests
// exist the embedded request prefers pending, then approved, then the
// most recent rejected one.
func (s *ClaimService) MyStatus(ctx context.Context, userID string) (*models.ClaimStatusSummary, error) {
	summary := &models.ClaimStatusSummary{}

	pending, err := s.repo.FindByUserAndStatus(ctx, userID, models.ClaimPending)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claims")
	}
	if pending != nil {
		summary.HasPending = true
		summary.ClaimRequest = pending
	}

	approved, err := s.repo.FindByUserAndStatus(ctx, userID, models.ClaimApproved)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claims")
	}
	if approved != nil {
		summary.HasApproved = true
		summary.ClaimedProfessorID = &approved.ProfessorID
		if summary.ClaimRequest == nil {
			summary.ClaimRequest = approved
		}
	}

	rejected, err := s.repo.FindByUserAndStatus(ctx, userID, models.ClaimRejected)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claims")
	}
	if rejected != nil {
		summary.HasRejected = true
		if summary.ClaimRequest == nil {
			summary.ClaimRequest = rejected
		}
	}

	return summary, nil
}

// MyProfile returns the professor profile bound to the caller's
// approved claim.
func (s *ClaimService) MyProfile(ctx context.Context, userID string) (*models.Professor, error) {
	approved, err := s.repo.FindByUserAndStatus(ctx, userID, models.ClaimApproved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no claimed profile")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claims")
	}
	professor, err := s.professors.FindByID(ctx, approved.ProfessorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claimed profile no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	return professor, nil
}

// Cancel withdraws the caller's own pending claim. The row stays for
// the audit trail; only the status changes.
func (s *ClaimService) Cancel(ctx context.Context, actor *models.JWTClaims, claimID string) (*models.ClaimRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	claim, err := s.repo.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}
	if claim.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the claim owner can cancel it")
	}

	now := s.now().UTC()
	if err := s.repo.Transition(ctx, claimID, models.ClaimCancelled, &actor.UserID, nil, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "claim is no longer pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel claim")
	}

	return s.repo.FindByID(ctx, claimID)
}

// ListPending returns the admin review queue, oldest first.
func (s *ClaimService) ListPending(ctx context.Context) ([]models.PendingClaim, error) {
	claims, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending claims")
	}
	return claims, nil
}

// Approve resolves a pending claim in the requester's favor: the claim
// flips to approved, the profile binds to the requester and any other
// pending claims on the same profile are rejected, all in one
// repository transaction. A claim that is no longer pending yields
// InvalidTransition; losing the profile binding to another approval
// yields Conflict and leaves the claim pending.
func (s *ClaimService) Approve(ctx context.Context, actor *models.JWTClaims, claimID string) (*models.ClaimRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	claim, err := s.repo.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}

	now := s.now().UTC()
	rejected, err := s.repo.Approve(ctx, claimID, claim.ProfessorID, claim.UserID, &actor.UserID, competingClaimReason, now)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "claim is no longer pending")
		case errors.Is(err, appErrors.ErrConflict):
			s.logger.Error("claim approval lost the professor binding race",
				zap.String("claim_id", claimID), zap.String("professor_id", claim.ProfessorID))
			return nil, appErrors.Clone(appErrors.ErrConflict, "profile was claimed by another user")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve claim")
		}
	}
	if rejected > 0 {
		s.logger.Info("rejected competing claims",
			zap.String("professor_id", claim.ProfessorID), zap.Int64("count", rejected))
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionClaimApprove,
		Resource:   "claim_requests",
		ResourceID: &claimID,
	}); err != nil {
		s.logger.Warn("failed to record claim approval audit log", zap.Error(err))
	}

	s.metrics.RecordClaimResolved("approved")
	if err := s.cache.Invalidate(ctx, professorCachePrefix+":*"); err != nil {
		s.logger.Warn("invalidate professor cache", zap.Error(err))
	}

	return s.repo.FindByID(ctx, claimID)
}

// Reject resolves a pending claim against the requester. The profile
// binding never changes.
func (s *ClaimService) Reject(ctx context.Context, actor *models.JWTClaims, claimID string, req models.ClaimRejectRequest) (*models.ClaimRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}

	if _, err := s.repo.FindByID(ctx, claimID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}

	now := s.now().UTC()
	if err := s.repo.Transition(ctx, claimID, models.ClaimRejected, &actor.UserID, req.Reason, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "claim is no longer pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject claim")
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionClaimReject,
		Resource:   "claim_requests",
		ResourceID: &claimID,
	}); err != nil {
		s.logger.Warn("failed to record claim rejection audit log", zap.Error(err))
	}

	s.metrics.RecordClaimResolved("rejected")
	return s.repo.FindByID(ctx, claimID)
}
