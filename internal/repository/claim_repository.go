package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

const claimColumns = `id, user_id, professor_id, message, status, requested_at, resolved_at, resolved_by, resolution_reason`

// ClaimRepository provides database access for professor claim requests.
// Rows are only ever status-transitioned, never deleted.
type ClaimRepository struct {
	db *sqlx.DB
}

// NewClaimRepository creates a new instance of ClaimRepository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// Create inserts a pending claim. The insert is guarded so that the
// uniqueness invariants hold under concurrent submissions: no pending or
// approved claim by the user, and no pending or approved claim on the
// target profile. A losing racer gets sql.ErrNoRows.
func (r *ClaimRepository) Create(ctx context.Context, claim *models.ClaimRequest) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	claim.Status = models.ClaimPending
	if claim.RequestedAt.IsZero() {
		claim.RequestedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO claim_requests (id, user_id, professor_id, message, status, requested_at)
		SELECT $1, $2, $3, $4, 'pending', $5
		WHERE NOT EXISTS (
			SELECT 1 FROM claim_requests WHERE user_id = $2 AND status IN ('pending', 'approved')
		)
		AND NOT EXISTS (
			SELECT 1 FROM claim_requests WHERE professor_id = $3 AND status IN ('pending', 'approved')
		)
		RETURNING id`
	var inserted string
	err := r.db.GetContext(ctx, &inserted, query,
		claim.ID, claim.UserID, claim.ProfessorID, claim.Message, claim.RequestedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("create claim request: %w", err)
	}
	return nil
}

// FindByID returns a claim request by identifier.
func (r *ClaimRepository) FindByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM claim_requests WHERE id = $1 LIMIT 1", claimColumns)
	var claim models.ClaimRequest
	if err := r.db.GetContext(ctx, &claim, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find claim by id: %w", err)
	}
	return &claim, nil
}

// FindByUserAndStatus returns the user's most recent claim in the given
// status, or sql.ErrNoRows.
func (r *ClaimRepository) FindByUserAndStatus(ctx context.Context, userID string, status models.ClaimStatus) (*models.ClaimRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM claim_requests WHERE user_id = $1 AND status = $2 ORDER BY requested_at DESC LIMIT 1", claimColumns)
	var claim models.ClaimRequest
	if err := r.db.GetContext(ctx, &claim, query, userID, status); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find claim by user and status: %w", err)
	}
	return &claim, nil
}

// HasStatus reports whether any claim exists matching professor and status.
func (r *ClaimRepository) HasStatus(ctx context.Context, professorID string, status models.ClaimStatus) (bool, error) {
	const query = `SELECT 1 FROM claim_requests WHERE professor_id = $1 AND status = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, professorID, status); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check claim status: %w", err)
	}
	return true, nil
}

// ListPending returns the admin queue of pending claims, oldest first,
// with professor and requester display fields.
func (r *ClaimRepository) ListPending(ctx context.Context) ([]models.PendingClaim, error) {
	const query = `
		SELECT c.id, c.user_id, u.email AS user_email, c.professor_id,
		       p.name AS professor_name, p.department AS professor_department,
		       c.message, c.requested_at
		FROM claim_requests c
		JOIN users u ON u.id = c.user_id
		JOIN professors p ON p.id = c.professor_id
		WHERE c.status = 'pending'
		ORDER BY c.requested_at ASC`
	var pending []models.PendingClaim
	if err := r.db.SelectContext(ctx, &pending, query); err != nil {
		return nil, fmt.Errorf("list pending claims: %w", err)
	}
	return pending, nil
}

// Transition moves a claim out of pending with a check-and-set: the
// update only applies while the row is still pending, so a double approve
// or an approve racing a cancel affects zero rows and returns
// sql.ErrNoRows.
func (r *ClaimRepository) Transition(ctx context.Context, id string, to models.ClaimStatus, resolvedBy *string, reason *string, at time.Time) error {
	const query = `UPDATE claim_requests SET status = $2, resolved_at = $3, resolved_by = $4, resolution_reason = $5 WHERE id = $1 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, id, to, at, resolvedBy, reason)
	if err != nil {
		return fmt.Errorf("transition claim: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition claim rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Approve resolves a pending claim in a single transaction: the claim
// flips to approved, the profile binds to the claimant and every other
// pending claim on the same professor is rejected. All three commit or
// roll back together, so a lost binding race never leaves an approved
// claim behind and competing claims cannot survive an approval.
//
// Returns how many competitors were rejected. A claim that is no longer
// pending yields sql.ErrNoRows; a profile already bound to someone else
// yields ErrConflict.
func (r *ClaimRepository) Approve(ctx context.Context, claimID, professorID, userID string, resolvedBy *string, competingReason string, at time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin claim approval: %w", err)
	}

	const transition = `UPDATE claim_requests SET status = 'approved', resolved_at = $2, resolved_by = $3 WHERE id = $1 AND status = 'pending'`
	result, err := tx.ExecContext(ctx, transition, claimID, at, resolvedBy)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("approve claim: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("approve claim rows: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return 0, sql.ErrNoRows
	}

	// The bind only applies while the profile is unclaimed, so two
	// admins approving different claims on the same professor serialize
	// here: the loser's transition above rolls back with the failed bind.
	const bind = `UPDATE professors SET claimed_by_user_id = $2, verified = TRUE, claimed_at = $3, updated_at = $3 WHERE id = $1 AND claimed_by_user_id IS NULL`
	result, err = tx.ExecContext(ctx, bind, professorID, userID, at)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("bind professor: %w", err)
	}
	affected, err = result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("bind professor rows: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return 0, appErrors.Clone(appErrors.ErrConflict, "professor profile already claimed")
	}

	const rejectCompeting = `UPDATE claim_requests SET status = 'rejected', resolved_at = $3, resolved_by = $4, resolution_reason = $5 WHERE professor_id = $1 AND id <> $2 AND status = 'pending'`
	result, err = tx.ExecContext(ctx, rejectCompeting, professorID, claimID, at, resolvedBy, competingReason)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("reject competing claims: %w", err)
	}
	rejected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("reject competing claims rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit claim approval: %w", err)
	}
	return rejected, nil
}
