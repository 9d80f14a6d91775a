package repository

import (
	"context"

	"github.com/sakif/codelab/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type ExerciseRepository interface {
	GetExercise(ctx context.Context, id string) (*model.Exercise, error)
	ListExercises(ctx context.Context, opts ListOptions) ([]model.Exercise, error)
	// UpsertExercise inserts the exercise, or replaces it when the id exists.
	// An empty ID gets a generated one.
	UpsertExercise(ctx context.Context, ex *model.Exercise) error
}

// ExecutionRepository stores execution requests and their results.
type ExecutionRepository interface {
	GetRequest(ctx context.Context, id string) (*model.ExecutionRequest, error)
	GetResultByRequest(ctx context.Context, requestID string) (*model.ExecutionResult, error)
	// CreateRequest inserts a pending request on its own. Callers that run
	// orchestration use SaveExecution instead.
	CreateRequest(ctx context.Context, req *model.ExecutionRequest) error
	// SaveExecution persists the end of one orchestration in a single
	// transaction: the request row (inserted when isNew), the result row and
	// the request's final status. Nothing is written if any step fails. A
	// second result for the same request fails with apperror.ErrConflict.
	SaveExecution(ctx context.Context, req *model.ExecutionRequest, isNew bool, res *model.ExecutionResult) error
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	UpdateSubmission(ctx context.Context, sub *model.Submission) error
	DeleteSubmission(ctx context.Context, id string) error
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, userID, exerciseID string) ([]model.Submission, error)
}
