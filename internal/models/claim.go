package models

import "time"

// ClaimStatus is the lifecycle state of a claim request. All transitions
// start from pending and are terminal; rows are never deleted so the
// moderation audit trail stays intact.
type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimApproved  ClaimStatus = "approved"
	ClaimRejected  ClaimStatus = "rejected"
	ClaimCancelled ClaimStatus = "cancelled"
)

// ClaimRequest is a professor-role user's assertion that they are the
// person behind a professor profile, subject to admin approval.
type ClaimRequest struct {
	ID               string      `db:"id" json:"id"`
	UserID           string      `db:"user_id" json:"user_id"`
	ProfessorID      string      `db:"professor_id" json:"professor_id"`
	Message          *string     `db:"message" json:"message,omitempty"`
	Status           ClaimStatus `db:"status" json:"status"`
	RequestedAt      time.Time   `db:"requested_at" json:"requested_at"`
	ResolvedAt       *time.Time  `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy       *string     `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolutionReason *string     `db:"resolution_reason" json:"resolution_reason,omitempty"`
}

// ClaimSubmitRequest is a professor-role user's request to claim a
// profile.
type ClaimSubmitRequest struct {
	ProfessorID string  `json:"professor_id" validate:"required,uuid4"`
	Message     *string `json:"message" validate:"omitempty,max=1000"`
}

// ClaimRejectRequest carries the admin's optional rejection reason.
type ClaimRejectRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// PendingClaim joins a pending request with the professor and requester
// display fields shown in the admin queue.
type PendingClaim struct {
	ID                  string    `db:"id" json:"id"`
	UserID              string    `db:"user_id" json:"user_id"`
	UserEmail           string    `db:"user_email" json:"user_email"`
	ProfessorID         string    `db:"professor_id" json:"professor_id"`
	ProfessorName       string    `db:"professor_name" json:"professor_name"`
	ProfessorDepartment string    `db:"professor_department" json:"professor_department"`
	Message             *string   `db:"message" json:"request_message,omitempty"`
	RequestedAt         time.Time `db:"requested_at" json:"requested_at"`
}

// ClaimStatusSummary answers "my claim status" for profile pages and the
// professor dashboard.
type ClaimStatusSummary struct {
	HasPending         bool          `json:"has_pending"`
	HasApproved        bool          `json:"has_approved"`
	HasRejected        bool          `json:"has_rejected"`
	ClaimedProfessorID *string       `json:"claimed_professor_id,omitempty"`
	ClaimRequest       *ClaimRequest `json:"claim_request,omitempty"`
}
