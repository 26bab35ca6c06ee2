package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profsight/profsight-api/internal/models"
)

func newReviewMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReviewRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs(sqlmock.AnyArg(), "prof-1", "student-1", 5, 3, models.GradeA, nil, nil, "Fall 2025", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rev-1"))

	review := &models.Review{
		ProfessorID:      "prof-1",
		StudentID:        "student-1",
		RatingQuality:    5,
		RatingDifficulty: 3,
		GradeReceived:    models.GradeA,
		Semester:         "Fall 2025",
	}
	err := repo.Create(context.Background(), review)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateDuplicateSemester(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs(sqlmock.AnyArg(), "prof-1", "student-1", 4, 2, models.GradeB, nil, nil, "Fall 2025", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.Create(context.Background(), &models.Review{
		ProfessorID:      "prof-1",
		StudentID:        "student-1",
		RatingQuality:    4,
		RatingDifficulty: 2,
		GradeReceived:    models.GradeB,
		Semester:         "Fall 2025",
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryAddVote(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO review_votes").
		WithArgs(sqlmock.AnyArg(), "rev-1", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reviews SET helpful_count").
		WithArgs("rev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	counted, err := repo.AddVote(context.Background(), "rev-1", "user-1")
	require.NoError(t, err)
	assert.True(t, counted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryAddVoteRepeat(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO review_votes").
		WithArgs(sqlmock.AnyArg(), "rev-1", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	counted, err := repo.AddVote(context.Background(), "rev-1", "user-1")
	require.NoError(t, err)
	assert.False(t, counted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryAddFlagRepeat(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO review_flags").
		WithArgs(sqlmock.AnyArg(), "rev-1", "user-1", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.AddFlag(context.Background(), &models.ReviewFlag{ReviewID: "rev-1", UserID: "user-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryAddFlagBumpFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO review_flags").
		WithArgs(sqlmock.AnyArg(), "rev-1", "user-1", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("flag-1"))
	mock.ExpectExec("UPDATE reviews SET flag_count").
		WithArgs("rev-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.AddFlag(context.Background(), &models.ReviewFlag{ReviewID: "rev-1", UserID: "user-1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryListFlagged(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "professor_id", "student_id", "rating_quality", "rating_difficulty", "grade_received", "comment", "course_code", "semester", "helpful_count", "flag_count", "created_at", "updated_at", "professor_name", "student_email"}).
		AddRow("rev-1", "prof-1", "student-1", 1, 5, "F", nil, nil, "Fall 2025", 0, 3, now, now, "Ada Lovelace", "student@example.edu")
	mock.ExpectQuery("SELECT r.id, r.professor_id, r.student_id").
		WillReturnRows(rows)

	flagged, err := repo.ListFlagged(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, 3, flagged[0].FlagCount)
	assert.Equal(t, "student@example.edu", flagged[0].StudentEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryDismissFlags(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM review_flags").
		WithArgs("rev-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE reviews SET flag_count = 0").
		WithArgs("rev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DismissFlags(context.Background(), "rev-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryDismissFlagsResetFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM review_flags").
		WithArgs("rev-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE reviews SET flag_count = 0").
		WithArgs("rev-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.DismissFlags(context.Background(), "rev-1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryGradeDistribution(t *testing.T) {
	db, mock, cleanup := newReviewMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	rows := sqlmock.NewRows([]string{"grade_received", "count"}).
		AddRow("A", 4).
		AddRow("W", 1)
	mock.ExpectQuery("SELECT grade_received, COUNT").
		WithArgs("prof-1").
		WillReturnRows(rows)

	buckets, err := repo.GradeDistribution(context.Background(), "prof-1")
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, models.GradeA, buckets[0].Grade)
	assert.Equal(t, 4, buckets[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
