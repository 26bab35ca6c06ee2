package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
	"github.com/profsight/profsight-api/pkg/export"
	"github.com/profsight/profsight-api/pkg/storage"
)

type moderationReviewRepository interface {
	FindByID(ctx context.Context, id string) (*models.Review, error)
	Delete(ctx context.Context, id string) error
	ListFlags(ctx context.Context, reviewID string) ([]models.ReviewFlag, error)
	ListFlagged(ctx context.Context) ([]models.FlaggedReview, error)
	DismissFlags(ctx context.Context, reviewID string) error
}

type moderationProfessorRepository interface {
	UpdateAggregates(ctx context.Context, professorID string) error
}

type moderationAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ExportResult describes a rendered moderation report and its signed
// download token.
type ExportResult struct {
	FileName  string    `json:"file_name"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ModerationService covers the admin review queue: listing flagged
// reviews, deleting them, dismissing flags and exporting the queue.
type ModerationService struct {
	reviews    moderationReviewRepository
	professors moderationProfessorRepository
	audit      moderationAuditRepository
	cache      *CacheService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	files      *storage.LocalStorage
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	now        func() time.Time
}

// NewModerationService constructs the moderation service.
func NewModerationService(reviews moderationReviewRepository, professors moderationProfessorRepository, audit moderationAuditRepository, cache *CacheService, files *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationService{
		reviews:    reviews,
		professors: professors,
		audit:      audit,
		cache:      cache,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		files:      files,
		signer:     signer,
		logger:     logger,
		now:        time.Now,
	}
}

// ListFlagged returns reviews with at least one flag, most flagged
// first, with the individual flags nested.
func (s *ModerationService) ListFlagged(ctx context.Context) ([]models.FlaggedReview, error) {
	flagged, err := s.reviews.ListFlagged(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list flagged reviews")
	}
	for i := range flagged {
		flags, err := s.reviews.ListFlags(ctx, flagged[i].ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review flags")
		}
		flagged[i].Flags = flags
	}
	return flagged, nil
}

// DeleteReview hard-deletes a review regardless of its edit window and
// recomputes the professor's aggregates.
func (s *ModerationService) DeleteReview(ctx context.Context, actor *models.JWTClaims, reviewID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}

	if err := s.professors.UpdateAggregates(ctx, review.ProfessorID); err != nil {
		s.logger.Warn("failed to refresh professor aggregates", zap.String("professor_id", review.ProfessorID), zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, professorCachePrefix+":*", dashboardCacheKey(review.StudentID)); err != nil {
		s.logger.Warn("invalidate caches after review delete", zap.Error(err))
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionReviewDelete,
		Resource:   "reviews",
		ResourceID: &reviewID,
	}); err != nil {
		s.logger.Warn("failed to record review deletion audit log", zap.Error(err))
	}
	return nil
}

// DismissFlags clears every flag on a review, keeping the review.
func (s *ModerationService) DismissFlags(ctx context.Context, actor *models.JWTClaims, reviewID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if _, err := s.reviews.FindByID(ctx, reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}

	if err := s.reviews.DismissFlags(ctx, reviewID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dismiss flags")
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionFlagsDismiss,
		Resource:   "reviews",
		ResourceID: &reviewID,
	}); err != nil {
		s.logger.Warn("failed to record flag dismissal audit log", zap.Error(err))
	}
	return nil
}

// Export renders the flagged queue as csv or pdf, stores the file and
// returns a signed download token.
func (s *ModerationService) Export(ctx context.Context, actor *models.JWTClaims, format string) (*ExportResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	flagged, err := s.ListFlagged(ctx)
	if err != nil {
		return nil, err
	}

	dataset := flaggedDataset(flagged)
	var payload []byte
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, "Flagged Reviews")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	jobID := uuid.NewString()
	fileName := fmt.Sprintf("flagged-reviews-%s-%s.%s", s.now().UTC().Format("20060102-150405"), jobID[:8], format)
	relPath, err := s.files.Save(fileName, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:    &actor.UserID,
		Action:    models.AuditActionReportExport,
		Resource:  "flagged_reviews",
		NewValues: []byte(fmt.Sprintf(`{"format":%q,"file":%q}`, format, fileName)),
	}); err != nil {
		s.logger.Warn("failed to record export audit log", zap.Error(err))
	}

	return &ExportResult{
		FileName:  fileName,
		Format:    format,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// OpenExport validates a signed token and opens the referenced file.
// The caller is responsible for closing the handle.
func (s *ModerationService) OpenExport(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer exists")
	}
	return file, relPath, nil
}

func flaggedDataset(flagged []models.FlaggedReview) export.Dataset {
	headers := []string{"Review ID", "Professor", "Student", "Semester", "Quality", "Difficulty", "Grade", "Flags", "Reasons"}
	rows := make([]map[string]string, 0, len(flagged))
	for _, fr := range flagged {
		reasons := make([]string, 0, len(fr.Flags))
		for _, flag := range fr.Flags {
			if flag.Reason != nil && *flag.Reason != "" {
				reasons = append(reasons, *flag.Reason)
			}
		}
		rows = append(rows, map[string]string{
			"Review ID":  fr.ID,
			"Professor":  fr.ProfessorName,
			"Student":    fr.StudentEmail,
			"Semester":   fr.Semester,
			"Quality":    fmt.Sprintf("%d", fr.RatingQuality),
			"Difficulty": fmt.Sprintf("%d", fr.RatingDifficulty),
			"Grade":      string(fr.GradeReceived),
			"Flags":      fmt.Sprintf("%d", fr.FlagCount),
			"Reasons":    strings.Join(reasons, "; "),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
