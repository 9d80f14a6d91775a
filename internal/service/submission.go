package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/repository"
)

// SubmissionService grades a learner's code against an exercise and records
// the verdict.
type SubmissionService struct {
	submissions repository.SubmissionRepository
	exercises   repository.ExerciseRepository
	executor    Executor
	// emptySuiteCorrect decides the verdict for exercises without test cases.
	emptySuiteCorrect bool
	logger            *slog.Logger
}

func NewSubmissionService(
	submissions repository.SubmissionRepository,
	exercises repository.ExerciseRepository,
	executor Executor,
	emptySuiteCorrect bool,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissions:       submissions,
		exercises:         exercises,
		executor:          executor,
		emptySuiteCorrect: emptySuiteCorrect,
		logger:            logger,
	}
}

// Submit records a submission, runs it against the exercise and stores
// whether every test case passed. If orchestration fails the submission is
// removed again and the error is returned; the outcome, when one was
// persisted, is returned alongside it. Like Execute, it ignores
// cancellation of ctx so the submission is never left half-written.
func (s *SubmissionService) Submit(ctx context.Context, userID, exerciseID, code string) (*model.Submission, *Outcome, error) {
	ctx = context.WithoutCancel(ctx)

	exerciseID = strings.TrimSpace(exerciseID)
	if exerciseID == "" {
		return nil, nil, apperror.ValidationFailed("exercise", "exercise ID is required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, nil, apperror.ValidationFailed("submitted_code", "submitted code is required")
	}
	if len(code) > MaxCodeLength {
		return nil, nil, apperror.ValidationFailed("submitted_code",
			fmt.Sprintf("submitted code must be %d characters or less", MaxCodeLength))
	}

	exercise, err := s.exercises.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, nil, err
	}

	sub := &model.Submission{
		UserID:        userID,
		ExerciseID:    exercise.ID,
		SubmittedCode: code,
	}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, nil, fmt.Errorf("creating submission: %w", err)
	}

	logger := s.logger.With(
		slog.String("submission_id", sub.ID),
		slog.String("exercise_id", exercise.ID),
	)

	outcome, err := s.executor.Execute(ctx, ExecuteInput{
		UserID:     userID,
		ExerciseID: &exercise.ID,
		Code:       code,
		Sandbox:    exercise.Sandbox,
	})
	if err != nil {
		logger.Error("submission execution failed, removing submission",
			slog.String("error", err.Error()),
		)
		s.remove(ctx, logger, sub.ID)
		return nil, outcome, err
	}

	sub.ExecutionResultID = &outcome.Result.ID
	sub.IsCorrect = outcome.Result.TestResults.AllPassed(s.emptySuiteCorrect)

	if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
		logger.Error("failed to record verdict, removing submission",
			slog.String("error", err.Error()),
		)
		s.remove(ctx, logger, sub.ID)
		return nil, outcome, fmt.Errorf("updating submission %s: %w", sub.ID, err)
	}

	logger.Info("submission graded",
		slog.String("request_id", outcome.Request.ID),
		slog.Bool("is_correct", sub.IsCorrect),
	)

	return sub, outcome, nil
}

// remove deletes a submission whose grading did not complete.
func (s *SubmissionService) remove(ctx context.Context, logger *slog.Logger, id string) {
	if err := s.submissions.DeleteSubmission(ctx, id); err != nil {
		logger.Error("failed to remove submission", slog.String("error", err.Error()))
	}
}

// ListForExercise returns the caller's submissions for one exercise.
func (s *SubmissionService) ListForExercise(ctx context.Context, userID, exerciseID string) ([]model.Submission, error) {
	exerciseID = strings.TrimSpace(exerciseID)
	if exerciseID == "" {
		return nil, apperror.ValidationFailed("exercise", "exercise ID is required")
	}
	if _, err := s.exercises.GetExercise(ctx, exerciseID); err != nil {
		return nil, err
	}
	return s.submissions.ListSubmissions(ctx, userID, exerciseID)
}
