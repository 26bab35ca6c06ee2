package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/profsight/profsight-api/internal/models"
)

const professorColumns = `id, name, department, claimed_by_user_id, verified, claimed_at, avg_rating, avg_difficulty, total_reviews, created_at, updated_at`

// ProfessorRepository provides database access for professor profiles and
// follow relationships.
type ProfessorRepository struct {
	db *sqlx.DB
}

// NewProfessorRepository creates a new instance of ProfessorRepository.
func NewProfessorRepository(db *sqlx.DB) *ProfessorRepository {
	return &ProfessorRepository{db: db}
}

// List returns professors matching the filter with total count.
func (r *ProfessorRepository) List(ctx context.Context, filter models.ProfessorFilter) ([]models.Professor, int, error) {
	baseQuery := `FROM professors WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Department)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", professorColumns, baseQuery, pageSize, offset)

	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list professors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count professors: %w", err)
	}

	return professors, total, nil
}

// FindByID returns a professor by identifier.
func (r *ProfessorRepository) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	query := fmt.Sprintf("SELECT %s FROM professors WHERE id = $1 LIMIT 1", professorColumns)
	var professor models.Professor
	if err := r.db.GetContext(ctx, &professor, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find professor by id: %w", err)
	}
	return &professor, nil
}

// Create inserts a new professor profile.
func (r *ProfessorRepository) Create(ctx context.Context, professor *models.Professor) error {
	if professor.ID == "" {
		professor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if professor.CreatedAt.IsZero() {
		professor.CreatedAt = now
	}
	professor.UpdatedAt = now

	const query = `INSERT INTO professors (id, name, department, claimed_by_user_id, verified, claimed_at, avg_rating, avg_difficulty, total_reviews, created_at, updated_at) VALUES (:id, :name, :department, :claimed_by_user_id, :verified, :claimed_at, :avg_rating, :avg_difficulty, :total_reviews, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, professor); err != nil {
		return fmt.Errorf("create professor: %w", err)
	}
	return nil
}

// Update modifies the display fields of a professor.
func (r *ProfessorRepository) Update(ctx context.Context, professor *models.Professor) error {
	professor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE professors SET name = :name, department = :department, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, professor); err != nil {
		return fmt.Errorf("update professor: %w", err)
	}
	return nil
}

// UpdateAggregates recomputes the cached rating fields from visible reviews.
func (r *ProfessorRepository) UpdateAggregates(ctx context.Context, professorID string) error {
	const query = `
		UPDATE professors SET
			avg_rating = COALESCE((SELECT AVG(rating_quality) FROM reviews WHERE professor_id = $1), 0),
			avg_difficulty = COALESCE((SELECT AVG(rating_difficulty) FROM reviews WHERE professor_id = $1), 0),
			total_reviews = (SELECT COUNT(*) FROM reviews WHERE professor_id = $1),
			updated_at = $2
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, professorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update professor aggregates: %w", err)
	}
	return nil
}

// Follow inserts a follow relationship unless it already exists.
// Returns true when a new row was created.
func (r *ProfessorRepository) Follow(ctx context.Context, userID, professorID string) (bool, error) {
	const query = `INSERT INTO professor_follows (id, user_id, professor_id, followed_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, professor_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, professorID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("follow professor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("follow professor rows: %w", err)
	}
	return affected > 0, nil
}

// Unfollow removes a follow relationship. Returns true when a row was removed.
func (r *ProfessorRepository) Unfollow(ctx context.Context, userID, professorID string) (bool, error) {
	const query = `DELETE FROM professor_follows WHERE user_id = $1 AND professor_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, professorID)
	if err != nil {
		return false, fmt.Errorf("unfollow professor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unfollow professor rows: %w", err)
	}
	return affected > 0, nil
}

// IsFollowing reports whether the user follows the professor.
func (r *ProfessorRepository) IsFollowing(ctx context.Context, userID, professorID string) (bool, error) {
	const query = `SELECT 1 FROM professor_follows WHERE user_id = $1 AND professor_id = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, userID, professorID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check following: %w", err)
	}
	return true, nil
}

// ListFollowed returns the professors a user follows, most recent first.
func (r *ProfessorRepository) ListFollowed(ctx context.Context, userID string) ([]models.FollowedProfessor, error) {
	const query = `
		SELECT p.id, p.name, p.department, p.avg_rating, p.avg_difficulty, p.total_reviews, f.followed_at
		FROM professor_follows f
		JOIN professors p ON p.id = f.professor_id
		WHERE f.user_id = $1
		ORDER BY f.followed_at DESC`
	var followed []models.FollowedProfessor
	if err := r.db.SelectContext(ctx, &followed, query, userID); err != nil {
		return nil, fmt.Errorf("list followed professors: %w", err)
	}
	return followed, nil
}
