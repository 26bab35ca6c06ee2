package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

type mockReviewRepo struct {
	reviews    map[string]*models.Review
	byStudent  []models.ReviewWithProfessor
	createErr  error
	flagErr    error
	voteResult bool
	deleted    []string
	updated    *models.Review
	flags      []*models.ReviewFlag
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	if m.createErr != nil {
		return m.createErr
	}
	review.ID = uuid.NewString()
	review.CreatedAt = time.Now().UTC()
	if m.reviews == nil {
		m.reviews = make(map[string]*models.Review)
	}
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) FindByID(ctx context.Context, id string) (*models.Review, error) {
	review, ok := m.reviews[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return review, nil
}

func (m *mockReviewRepo) ListByProfessor(ctx context.Context, professorID string) ([]models.Review, error) {
	var out []models.Review
	for _, review := range m.reviews {
		if review.ProfessorID == professorID {
			out = append(out, *review)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) ListByStudent(ctx context.Context, studentID string) ([]models.ReviewWithProfessor, error) {
	return m.byStudent, nil
}

func (m *mockReviewRepo) Update(ctx context.Context, review *models.Review) error {
	m.updated = review
	return nil
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepo) AddVote(ctx context.Context, reviewID, userID string) (bool, error) {
	return m.voteResult, nil
}

func (m *mockReviewRepo) AddFlag(ctx context.Context, flag *models.ReviewFlag) error {
	if m.flagErr != nil {
		return m.flagErr
	}
	flag.ID = uuid.NewString()
	m.flags = append(m.flags, flag)
	return nil
}

type mockReviewProfessorRepo struct {
	professor  *models.Professor
	aggregated []string
}

func (m *mockReviewProfessorRepo) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	if m.professor == nil || m.professor.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.professor, nil
}

func (m *mockReviewProfessorRepo) UpdateAggregates(ctx context.Context, professorID string) error {
	m.aggregated = append(m.aggregated, professorID)
	return nil
}

func newReviewFixture(professor *models.Professor) (*ReviewService, *mockReviewRepo, *mockReviewProfessorRepo) {
	repo := &mockReviewRepo{reviews: make(map[string]*models.Review)}
	professors := &mockReviewProfessorRepo{professor: professor}
	svc := NewReviewService(repo, professors, nil, nil, validator.New(), zap.NewNop())
	return svc, repo, professors
}

func studentActor(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleStudent}
}

func TestReviewServiceCreate(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, professors := newReviewFixture(&models.Professor{ID: professorID})

	review, err := svc.Create(context.Background(), studentActor("s1"), models.ReviewCreateRequest{
		ProfessorID:      professorID,
		RatingQuality:    5,
		RatingDifficulty: 3,
		GradeReceived:    "A-",
		Semester:         "Fall 2025",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", review.StudentID)
	assert.Equal(t, models.GradeAMinus, review.GradeReceived)
	assert.Len(t, repo.reviews, 1)
	assert.Equal(t, []string{professorID}, professors.aggregated)
}

func TestReviewServiceCreateUnknownGrade(t *testing.T) {
	professorID := uuid.NewString()
	svc, _, _ := newReviewFixture(&models.Professor{ID: professorID})

	_, err := svc.Create(context.Background(), studentActor("s1"), models.ReviewCreateRequest{
		ProfessorID:      professorID,
		RatingQuality:    4,
		RatingDifficulty: 2,
		GradeReceived:    "E",
		Semester:         "Fall 2025",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceCreateBadSemester(t *testing.T) {
	professorID := uuid.NewString()
	svc, _, _ := newReviewFixture(&models.Professor{ID: professorID})

	_, err := svc.Create(context.Background(), studentActor("s1"), models.ReviewCreateRequest{
		ProfessorID:      professorID,
		RatingQuality:    4,
		RatingDifficulty: 2,
		GradeReceived:    "B",
		Semester:         "Autumn-25",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceCreateDuplicateSemester(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _ := newReviewFixture(&models.Professor{ID: professorID})
	repo.createErr = sql.ErrNoRows

	_, err := svc.Create(context.Background(), studentActor("s1"), models.ReviewCreateRequest{
		ProfessorID:      professorID,
		RatingQuality:    4,
		RatingDifficulty: 2,
		GradeReceived:    "B",
		Semester:         "Fall 2025",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceUpdateInsideWindow(t *testing.T) {
	svc, repo, _ := newReviewFixture(&models.Professor{ID: "p1"})
	repo.reviews["r1"] = &models.Review{ID: "r1", ProfessorID: "p1", StudentID: "s1", RatingQuality: 3, Semester: "Fall 2025"}
	svc.now = func() time.Time { return time.Date(2025, time.October, 10, 0, 0, 0, 0, time.UTC) }

	quality := 5
	review, err := svc.Update(context.Background(), studentActor("s1"), "r1", models.ReviewUpdateRequest{RatingQuality: &quality})
	require.NoError(t, err)
	assert.Equal(t, 5, review.RatingQuality)
	assert.NotNil(t, repo.updated)
}

func TestReviewServiceUpdateWindowClosed(t *testing.T) {
	svc, repo, _ := newReviewFixture(nil)
	repo.reviews["r1"] = &models.Review{ID: "r1", ProfessorID: "p1", StudentID: "s1", Semester: "Fall 2025"}
	svc.now = func() time.Time { return time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) }

	quality := 5
	_, err := svc.Update(context.Background(), studentActor("s1"), "r1", models.ReviewUpdateRequest{RatingQuality: &quality})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceUpdateAdminBypassesWindow(t *testing.T) {
	svc, repo, professors := newReviewFixture(&models.Professor{ID: "p1"})
	repo.reviews["r1"] = &models.Review{ID: "r1", ProfessorID: "p1", StudentID: "s1", Semester: "Fall 2020"}
	svc.now = func() time.Time { return time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) }

	quality := 2
	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	review, err := svc.Update(context.Background(), admin, "r1", models.ReviewUpdateRequest{RatingQuality: &quality})
	require.NoError(t, err)
	assert.Equal(t, 2, review.RatingQuality)
	assert.Equal(t, []string{"p1"}, professors.aggregated)
}

func TestReviewServiceUpdateNotOwner(t *testing.T) {
	svc, repo, _ := newReviewFixture(nil)
	repo.reviews["r1"] = &models.Review{ID: "r1", ProfessorID: "p1", StudentID: "s1", Semester: "Fall 2099"}

	quality := 5
	_, err := svc.Update(context.Background(), studentActor("s2"), "r1", models.ReviewUpdateRequest{RatingQuality: &quality})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceDeleteWindowClosed(t *testing.T) {
	svc, repo, _ := newReviewFixture(nil)
	repo.reviews["r1"] = &models.Review{ID: "r1", ProfessorID: "p1", StudentID: "s1", Semester: "Spring 2025"}
	svc.now = func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }

	err := svc.Delete(context.Background(), studentActor("s1"), "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestReviewServiceDeleteAdminAnyTime(t *testing.T) {
	svc, repo, _ := newReviewFixture(&models.Professor{ID: "p1"})
	repo.reviews["r1"] = &models.Review{ID: "r1", ProfessorID: "p1", StudentID: "s1", Semester: "Spring 2019"}

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	err := svc.Delete(context.Background(), admin, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, repo.deleted)
}

func TestReviewServiceVoteOwnReview(t *testing.T) {
	svc, repo, _ := newReviewFixture(nil)
	repo.reviews["r1"] = &models.Review{ID: "r1", StudentID: "s1"}

	_, err := svc.Vote(context.Background(), studentActor("s1"), "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceVoteRepeatNotCounted(t *testing.T) {
	svc, repo, _ := newReviewFixture(nil)
	repo.reviews["r1"] = &models.Review{ID: "r1", StudentID: "s1"}
	repo.voteResult = false

	counted, err := svc.Vote(context.Background(), studentActor("s2"), "r1")
	require.NoError(t, err)
	assert.False(t, counted)
}

func TestReviewServiceFlagOwnReview(t *testing.T) {
	svc, repo, _ := newReviewFixture(nil)
	repo.reviews["r1"] = &models.Review{ID: "r1", StudentID: "s1"}

	_, err := svc.Flag(context.Background(), studentActor("s1"), "r1", models.ReviewFlagRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceFlagRepeatConflict(t *testing.T) {
	svc, repo, _ := newReviewFixture(nil)
	repo.reviews["r1"] = &models.Review{ID: "r1", StudentID: "s1"}
	repo.flagErr = sql.ErrNoRows

	_, err := svc.Flag(context.Background(), studentActor("s2"), "r1", models.ReviewFlagRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceListMineResolvesEditable(t *testing.T) {
	svc, repo, _ := newReviewFixture(nil)
	repo.byStudent = []models.ReviewWithProfessor{
		{Review: models.Review{ID: "r1", Semester: "Fall 2025"}},
		{Review: models.Review{ID: "r2", Semester: "Spring 2024"}},
		{Review: models.Review{ID: "r3", Semester: "not-a-semester"}},
	}
	svc.now = func() time.Time { return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC) }

	reviews, err := svc.ListMine(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, reviews[0].Editable)
	assert.False(t, reviews[1].Editable)
	assert.False(t, reviews[2].Editable)
}
