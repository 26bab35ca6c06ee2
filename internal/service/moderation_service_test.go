package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
	"github.com/profsight/profsight-api/pkg/storage"
)

type mockModerationReviewRepo struct {
	reviews   map[string]*models.Review
	flagged   []models.FlaggedReview
	flags     map[string][]models.ReviewFlag
	deleted   []string
	dismissed []string
}

func (m *mockModerationReviewRepo) FindByID(ctx context.Context, id string) (*models.Review, error) {
	review, ok := m.reviews[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return review, nil
}

func (m *mockModerationReviewRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.reviews, id)
	return nil
}

func (m *mockModerationReviewRepo) ListFlags(ctx context.Context, reviewID string) ([]models.ReviewFlag, error) {
	return m.flags[reviewID], nil
}

func (m *mockModerationReviewRepo) ListFlagged(ctx context.Context) ([]models.FlaggedReview, error) {
	return m.flagged, nil
}

func (m *mockModerationReviewRepo) DismissFlags(ctx context.Context, reviewID string) error {
	m.dismissed = append(m.dismissed, reviewID)
	return nil
}

type mockModerationProfessorRepo struct {
	aggregated []string
}

func (m *mockModerationProfessorRepo) UpdateAggregates(ctx context.Context, professorID string) error {
	m.aggregated = append(m.aggregated, professorID)
	return nil
}

type mockModerationAuditRepo struct {
	logs []*models.AuditLog
}

func (m *mockModerationAuditRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newModerationFixture(t *testing.T) (*ModerationService, *mockModerationReviewRepo, *mockModerationProfessorRepo, *mockModerationAuditRepo) {
	t.Helper()
	reviews := &mockModerationReviewRepo{reviews: make(map[string]*models.Review)}
	professors := &mockModerationProfessorRepo{}
	audit := &mockModerationAuditRepo{}
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	svc := NewModerationService(reviews, professors, audit, nil, files, signer, zap.NewNop())
	return svc, reviews, professors, audit
}

func adminActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestModerationServiceListFlaggedNestsFlags(t *testing.T) {
	svc, reviews, _, _ := newModerationFixture(t)
	reason := "spam"
	reviews.flagged = []models.FlaggedReview{
		{Review: models.Review{ID: "r1", FlagCount: 2}},
	}
	reviews.flags = map[string][]models.ReviewFlag{
		"r1": {{ID: "f1", ReviewID: "r1", Reason: &reason}, {ID: "f2", ReviewID: "r1"}},
	}

	flagged, err := svc.ListFlagged(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Len(t, flagged[0].Flags, 2)
}

func TestModerationServiceDeleteReview(t *testing.T) {
	svc, reviews, professors, audit := newModerationFixture(t)
	reviews.reviews["r1"] = &models.Review{ID: "r1", ProfessorID: "p1", StudentID: "s1"}

	err := svc.DeleteReview(context.Background(), adminActor(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, reviews.deleted)
	assert.Equal(t, []string{"p1"}, professors.aggregated)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionReviewDelete, audit.logs[0].Action)
}

func TestModerationServiceDeleteReviewNotFound(t *testing.T) {
	svc, _, _, _ := newModerationFixture(t)

	err := svc.DeleteReview(context.Background(), adminActor(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestModerationServiceDismissFlags(t *testing.T) {
	svc, reviews, _, audit := newModerationFixture(t)
	reviews.reviews["r1"] = &models.Review{ID: "r1", FlagCount: 3}

	err := svc.DismissFlags(context.Background(), adminActor(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, reviews.dismissed)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionFlagsDismiss, audit.logs[0].Action)
}

func TestModerationServiceExportCSVRoundTrip(t *testing.T) {
	svc, reviews, _, audit := newModerationFixture(t)
	reason := "offensive language"
	reviews.flagged = []models.FlaggedReview{
		{
			Review:        models.Review{ID: "r1", Semester: "Fall 2025", RatingQuality: 1, RatingDifficulty: 5, GradeReceived: models.GradeF, FlagCount: 1},
			ProfessorName: "Ada Lovelace",
			StudentEmail:  "s1@example.com",
		},
	}
	reviews.flags = map[string][]models.ReviewFlag{
		"r1": {{ID: "f1", ReviewID: "r1", Reason: &reason}},
	}

	result, err := svc.Export(context.Background(), adminActor(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Format)
	assert.True(t, strings.HasSuffix(result.FileName, ".csv"))
	assert.NotEmpty(t, result.Token)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionReportExport, audit.logs[0].Action)

	file, relPath, err := svc.OpenExport(result.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Contains(t, relPath, result.FileName)
}

func TestModerationServiceExportUnknownFormat(t *testing.T) {
	svc, _, _, _ := newModerationFixture(t)

	_, err := svc.Export(context.Background(), adminActor(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestModerationServiceOpenExportBadToken(t *testing.T) {
	svc, _, _, _ := newModerationFixture(t)

	_, _, err := svc.OpenExport("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
