package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/profsight/profsight-api/internal/models"
)

const reviewColumns = `id, professor_id, student_id, rating_quality, rating_difficulty, grade_received, comment, course_code, semester, helpful_count, flag_count, created_at, updated_at`

// ReviewRepository provides database access for reviews, flags and
// helpful votes.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new instance of ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review unless the student already reviewed this
// professor for the same semester. The guarded insert keeps concurrent
// submissions from producing duplicates; the loser sees sql.ErrNoRows.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	const query = `
		INSERT INTO reviews (id, professor_id, student_id, rating_quality, rating_difficulty, grade_received, comment, course_code, semester, helpful_count, flag_count, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, $10, $10
		WHERE NOT EXISTS (
			SELECT 1 FROM reviews WHERE professor_id = $2 AND student_id = $3 AND semester = $9
		)
		RETURNING id`
	var inserted string
	err := r.db.GetContext(ctx, &inserted, query,
		review.ID, review.ProfessorID, review.StudentID,
		review.RatingQuality, review.RatingDifficulty, review.GradeReceived,
		review.Comment, review.CourseCode, review.Semester, now)
	if err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// FindByID returns a review by identifier.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.Review, error) {
	query := fmt.Sprintf("SELECT %s FROM reviews WHERE id = $1 LIMIT 1", reviewColumns)
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find review by id: %w", err)
	}
	return &review, nil
}

// ListByProfessor returns all reviews for a professor, newest first.
func (r *ReviewRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.Review, error) {
	query := fmt.Sprintf("SELECT %s FROM reviews WHERE professor_id = $1 ORDER BY created_at DESC", reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, professorID); err != nil {
		return nil, fmt.Errorf("list reviews by professor: %w", err)
	}
	return reviews, nil
}

// ListByStudent returns a student's reviews joined with professor display
// fields, newest first.
func (r *ReviewRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ReviewWithProfessor, error) {
	const query = `
		SELECT r.id, r.professor_id, r.student_id, r.rating_quality, r.rating_difficulty, r.grade_received,
		       r.comment, r.course_code, r.semester, r.helpful_count, r.flag_count, r.created_at, r.updated_at,
		       p.name AS professor_name, p.department AS professor_department
		FROM reviews r
		JOIN professors p ON p.id = r.professor_id
		WHERE r.student_id = $1
		ORDER BY r.created_at DESC`
	var reviews []models.ReviewWithProfessor
	if err := r.db.SelectContext(ctx, &reviews, query, studentID); err != nil {
		return nil, fmt.Errorf("list reviews by student: %w", err)
	}
	return reviews, nil
}

// Update rewrites the mutable fields of a review.
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reviews SET rating_quality = :rating_quality, rating_difficulty = :rating_difficulty, grade_received = :grade_received, comment = :comment, course_code = :course_code, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// Delete removes a review. Flags and votes cascade at the schema level.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM reviews WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

// GradeDistribution aggregates grade counts for a professor.
func (r *ReviewRepository) GradeDistribution(ctx context.Context, professorID string) ([]models.GradeBucket, error) {
	const query = `SELECT grade_received, COUNT(*) AS count FROM reviews WHERE professor_id = $1 GROUP BY grade_received`
	var buckets []models.GradeBucket
	if err := r.db.SelectContext(ctx, &buckets, query, professorID); err != nil {
		return nil, fmt.Errorf("grade distribution: %w", err)
	}
	return buckets, nil
}

// AddVote records a helpful vote and bumps the denormalised counter in
// the same transaction, so the counter never drifts from the vote rows.
// Repeat votes by the same user are absorbed; returns true when the vote
// was new.
func (r *ReviewRepository) AddVote(ctx context.Context, reviewID, userID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin review vote: %w", err)
	}

	const insert = `INSERT INTO review_votes (id, review_id, user_id, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, review_id) DO NOTHING`
	result, err := tx.ExecContext(ctx, insert, uuid.NewString(), reviewID, userID, time.Now().UTC())
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return false, fmt.Errorf("add review vote: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return false, fmt.Errorf("add review vote rows: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return false, nil
	}

	const bump = `UPDATE reviews SET helpful_count = helpful_count + 1 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, bump, reviewID); err != nil {
		tx.Rollback() //nolint:errcheck
		return false, fmt.Errorf("bump helpful count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit review vote: %w", err)
	}
	return true, nil
}

// AddFlag records a report against a review and bumps flag_count in the
// same transaction. A second flag from the same user returns
// sql.ErrNoRows.
func (r *ReviewRepository) AddFlag(ctx context.Context, flag *models.ReviewFlag) error {
	if flag.ID == "" {
		flag.ID = uuid.NewString()
	}
	if flag.FlaggedAt.IsZero() {
		flag.FlaggedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review flag: %w", err)
	}

	const insert = `INSERT INTO review_flags (id, review_id, user_id, reason, flagged_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (user_id, review_id) DO NOTHING RETURNING id`
	var inserted string
	if err := tx.GetContext(ctx, &inserted, insert, flag.ID, flag.ReviewID, flag.UserID, flag.Reason, flag.FlaggedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("add review flag: %w", err)
	}

	const bump = `UPDATE reviews SET flag_count = flag_count + 1 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, bump, flag.ReviewID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("bump flag count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review flag: %w", err)
	}
	return nil
}

// ListFlags returns all flags on a review, oldest first.
func (r *ReviewRepository) ListFlags(ctx context.Context, reviewID string) ([]models.ReviewFlag, error) {
	const query = `SELECT id, review_id, user_id, reason, flagged_at FROM review_flags WHERE review_id = $1 ORDER BY flagged_at ASC`
	var flags []models.ReviewFlag
	if err := r.db.SelectContext(ctx, &flags, query, reviewID); err != nil {
		return nil, fmt.Errorf("list review flags: %w", err)
	}
	return flags, nil
}

// ListFlagged returns reviews with at least one flag, most flagged first,
// joined with professor and reporter display fields.
func (r *ReviewRepository) ListFlagged(ctx context.Context) ([]models.FlaggedReview, error) {
	const query = `
		SELECT r.id, r.professor_id, r.student_id, r.rating_quality, r.rating_difficulty, r.grade_received,
		       r.comment, r.course_code, r.semester, r.helpful_count, r.flag_count, r.created_at, r.updated_at,
		       p.name AS professor_name, u.email AS student_email
		FROM reviews r
		JOIN professors p ON p.id = r.professor_id
		JOIN users u ON u.id = r.student_id
		WHERE r.flag_count >= 1
		ORDER BY r.flag_count DESC, r.created_at DESC`
	var flagged []models.FlaggedReview
	if err := r.db.SelectContext(ctx, &flagged, query); err != nil {
		return nil, fmt.Errorf("list flagged reviews: %w", err)
	}
	return flagged, nil
}

// DismissFlags removes every flag on a review and zeroes flag_count in
// one transaction, so a half-applied dismissal cannot strand the review
// in the flagged listing with no flags.
func (r *ReviewRepository) DismissFlags(ctx context.Context, reviewID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dismiss flags: %w", err)
	}

	const clear = `DELETE FROM review_flags WHERE review_id = $1`
	if _, err := tx.ExecContext(ctx, clear, reviewID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear review flags: %w", err)
	}
	const reset = `UPDATE reviews SET flag_count = 0 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, reset, reviewID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("reset flag count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dismiss flags: %w", err)
	}
	return nil
}
