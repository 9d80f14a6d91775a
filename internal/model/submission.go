package model

import "time"

// Submission is a learner's graded attempt at an exercise. It links to the
// ExecutionResult that decided IsCorrect; the link is cleared if that result
// is ever deleted.
type Submission struct {
	ID                string    `json:"id"               db:"id"`
	UserID            string    `json:"user"             db:"user_id"`
	ExerciseID        string    `json:"exercise"         db:"exercise_id"`
	SubmittedCode     string    `json:"submitted_code"   db:"submitted_code"`
	ExecutionResultID *string   `json:"execution_result" db:"execution_result_id"`
	IsCorrect         bool      `json:"is_correct"       db:"is_correct"`
	SubmittedAt       time.Time `json:"submitted_at"     db:"submitted_at"`
}
