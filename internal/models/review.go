package models

import "time"

// Grade is the letter grade a student reports for a course.
type Grade string

const (
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
	GradeW      Grade = "W" // withdrawn
)

// GradeOrder lists grades best-first, used to sort distribution buckets.
var GradeOrder = []Grade{
	GradeA, GradeAMinus, GradeBPlus, GradeB, GradeBMinus,
	GradeCPlus, GradeC, GradeCMinus, GradeD, GradeF, GradeW,
}

// Valid reports whether the grade belongs to the enumerated set.
func (g Grade) Valid() bool {
	for _, known := range GradeOrder {
		if g == known {
			return true
		}
	}
	return false
}

// Review stores a student's rating of a professor for one semester.
// One review per (professor, student, semester).
type Review struct {
	ID               string    `db:"id" json:"id"`
	ProfessorID      string    `db:"professor_id" json:"professor_id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	RatingQuality    int       `db:"rating_quality" json:"rating_quality"`
	RatingDifficulty int       `db:"rating_difficulty" json:"rating_difficulty"`
	GradeReceived    Grade     `db:"grade_received" json:"grade_received"`
	Comment          *string   `db:"comment" json:"comment,omitempty"`
	CourseCode       *string   `db:"course_code" json:"course_code,omitempty"`
	Semester         string    `db:"semester" json:"semester"`
	HelpfulCount     int       `db:"helpful_count" json:"helpful_count"`
	FlagCount        int       `db:"flag_count" json:"flag_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ReviewFlag is a user report attached to a review. One flag per user per
// review; reason stays nil when the reporter gave none.
type ReviewFlag struct {
	ID        string    `db:"id" json:"id"`
	ReviewID  string    `db:"review_id" json:"review_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	FlaggedAt time.Time `db:"flagged_at" json:"flagged_at"`
}

// ReviewVote marks a review as helpful. One vote per user per review.
type ReviewVote struct {
	ID        string    `db:"id" json:"id"`
	ReviewID  string    `db:"review_id" json:"review_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReviewCreateRequest is the payload for submitting a review.
type ReviewCreateRequest struct {
	ProfessorID      string  `json:"professor_id" validate:"required,uuid4"`
	RatingQuality    int     `json:"rating_quality" validate:"required,min=1,max=5"`
	RatingDifficulty int     `json:"rating_difficulty" validate:"required,min=1,max=5"`
	GradeReceived    string  `json:"grade_received" validate:"required"`
	Comment          *string `json:"comment" validate:"omitempty,max=2000"`
	CourseCode       *string `json:"course_code" validate:"omitempty,max=20"`
	Semester         string  `json:"semester" validate:"required,max=20"`
}

// ReviewUpdateRequest edits a review the author still owns. The semester
// is fixed at creation and cannot change.
type ReviewUpdateRequest struct {
	RatingQuality    *int    `json:"rating_quality" validate:"omitempty,min=1,max=5"`
	RatingDifficulty *int    `json:"rating_difficulty" validate:"omitempty,min=1,max=5"`
	GradeReceived    *string `json:"grade_received"`
	Comment          *string `json:"comment" validate:"omitempty,max=2000"`
	CourseCode       *string `json:"course_code" validate:"omitempty,max=20"`
}

// ReviewFlagRequest reports a review for moderation.
type ReviewFlagRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// GradeBucket is one slice of a professor's grade distribution.
type GradeBucket struct {
	Grade Grade `db:"grade_received" json:"grade"`
	Count int   `db:"count" json:"count"`
}

// FlaggedReview is a review joined with reporter details for the
// moderation queue.
type FlaggedReview struct {
	Review
	ProfessorName string       `db:"professor_name" json:"professor_name"`
	StudentEmail  string       `db:"student_email" json:"student_email"`
	Flags         []ReviewFlag `json:"flags"`
}

// ReviewWithProfessor is a review joined with professor display fields,
// used by dashboards.
type ReviewWithProfessor struct {
	Review
	ProfessorName       string `db:"professor_name" json:"professor_name"`
	ProfessorDepartment string `db:"professor_department" json:"professor_department"`
	Editable            bool   `db:"-" json:"editable"`
}
