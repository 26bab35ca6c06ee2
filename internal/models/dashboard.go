package models

// DashboardStats aggregates a student's reviewing activity.
type DashboardStats struct {
	TotalReviews           int     `json:"total_reviews"`
	AvgRatingGiven         float64 `json:"avg_rating_given"`
	ProfessorsFollowed     int     `json:"total_professors_followed"`
	MostReviewedDepartment *string `json:"most_reviewed_department,omitempty"`
}

// Dashboard is the complete per-user dashboard payload.
type Dashboard struct {
	Stats              DashboardStats        `json:"stats"`
	Reviews            []ReviewWithProfessor `json:"reviews"`
	FollowedProfessors []FollowedProfessor   `json:"followed_professors"`
}
