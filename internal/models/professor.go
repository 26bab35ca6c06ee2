package models

import "time"

// Professor represents a professor profile in the public directory.
// ClaimedByUserID and Verified are maintained by the claim workflow: a
// profile carries at most one approved claim at a time.
type Professor struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Department      string     `db:"department" json:"department"`
	ClaimedByUserID *string    `db:"claimed_by_user_id" json:"claimed_by_user_id,omitempty"`
	Verified        bool       `db:"verified" json:"verified"`
	ClaimedAt       *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
	AvgRating       float64    `db:"avg_rating" json:"avg_rating"`
	AvgDifficulty   float64    `db:"avg_difficulty" json:"avg_difficulty"`
	TotalReviews    int        `db:"total_reviews" json:"total_reviews"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ProfessorFilter captures filtering criteria for listing professors.
type ProfessorFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
}

// ProfessorCreateRequest is the admin payload for adding a profile to the
// directory.
type ProfessorCreateRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=120"`
	Department string `json:"department" validate:"required,min=2,max=120"`
}

// ProfessorUpdateRequest updates directory fields. Claim state is never
// writable through this payload.
type ProfessorUpdateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=120"`
	Department *string `json:"department" validate:"omitempty,min=2,max=120"`
}

// ProfessorFollow records a student following a professor.
type ProfessorFollow struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	FollowedAt  time.Time `db:"followed_at" json:"followed_at"`
}

// FollowedProfessor is a professor row joined with follow metadata.
type FollowedProfessor struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Department    string    `db:"department" json:"department"`
	AvgRating     float64   `db:"avg_rating" json:"avg_rating"`
	AvgDifficulty float64   `db:"avg_difficulty" json:"avg_difficulty"`
	TotalReviews  int       `db:"total_reviews" json:"total_reviews"`
	FollowedAt    time.Time `db:"followed_at" json:"followed_at"`
}
