package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/repository"
)

var _ repository.SubmissionRepository = (*DB)(nil)

const submissionColumns = `id, user_id, exercise_id, submitted_code, execution_result_id, is_correct, submitted_at`

func (db *DB) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	sub.ID = xid.New().String()
	sub.SubmittedAt = time.Now().UTC()

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO submissions (`+submissionColumns+`)
		 VALUES (:id, :user_id, :exercise_id, :submitted_code, :execution_result_id, :is_correct, :submitted_at)`,
		sub)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("exercise", sub.ExerciseID)
		}
		return fmt.Errorf("sqlite: creating submission: %w", err)
	}
	return nil
}

// UpdateSubmission stores the grading link and verdict. Code, owner and
// exercise never change after creation.
func (db *DB) UpdateSubmission(ctx context.Context, sub *model.Submission) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE submissions
		 SET execution_result_id = ?, is_correct = ?
		 WHERE id = ?`,
		sub.ExecutionResultID, sub.IsCorrect, sub.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating submission %s: %w", sub.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("submission", sub.ID)
	}
	return nil
}

func (db *DB) DeleteSubmission(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting submission %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("submission", id)
	}
	return nil
}

func (db *DB) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := db.conn.GetContext(ctx, &sub,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("submission", id)
		}
		return nil, fmt.Errorf("sqlite: getting submission %s: %w", id, err)
	}
	return &sub, nil
}

// ListSubmissions returns one user's submissions for an exercise, newest first.
func (db *DB) ListSubmissions(ctx context.Context, userID, exerciseID string) ([]model.Submission, error) {
	subs := []model.Submission{}
	err := db.conn.SelectContext(ctx, &subs,
		`SELECT `+submissionColumns+`
		 FROM submissions
		 WHERE user_id = ? AND exercise_id = ?
		 ORDER BY submitted_at DESC, id DESC`,
		userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing submissions: %w", err)
	}
	return subs, nil
}
