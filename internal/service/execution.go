package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/grading"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/repository"
	"github.com/sakif/codelab/internal/sandbox"
)

const (
	MaxCodeLength  = 100000
	MaxStdinLength = 100000
	MaxArgsLength  = 1000

	// FailedOutput is the output of the minimal result persisted when the
	// backend could not run the code at all.
	FailedOutput = "Execution failed."
)

// SandboxRunner runs a job on the backend serving kind.
// *sandbox.Dispatcher is the production implementation.
type SandboxRunner interface {
	Run(ctx context.Context, kind sandbox.Kind, job sandbox.Job) (*sandbox.Output, error)
}

// ExecuteInput describes one orchestration. ExistingRequestID, when set and
// known, reuses that request; its stored code, stdin and args win over the
// fields here.
type ExecuteInput struct {
	UserID            string
	ExistingRequestID string
	ExerciseID        *string
	Code              string
	Stdin             string
	Args              string
	Sandbox           string
}

// Outcome is what one orchestration persisted.
type Outcome struct {
	Request *model.ExecutionRequest
	Result  *model.ExecutionResult
}

// Executor is the orchestration entry point used by the submission workflow.
type Executor interface {
	Execute(ctx context.Context, in ExecuteInput) (*Outcome, error)
}

var _ Executor = (*ExecutionService)(nil)

// ExecutionService drives a request end to end: one free-run, an optional
// test phase, and exactly one persisted result.
type ExecutionService struct {
	executions repository.ExecutionRepository
	exercises  repository.ExerciseRepository
	sandbox    SandboxRunner
	grader     *grading.Runner
	logger     *slog.Logger
}

func NewExecutionService(
	executions repository.ExecutionRepository,
	exercises repository.ExerciseRepository,
	runner SandboxRunner,
	grader *grading.Runner,
	logger *slog.Logger,
) *ExecutionService {
	return &ExecutionService{
		executions: executions,
		exercises:  exercises,
		sandbox:    runner,
		grader:     grader,
		logger:     logger,
	}
}

// Execute runs the submitted code and persists the request, its result and
// its final status in one transaction.
//
// When the backend cannot run the code at all (unreachable, bad response, or
// no backend for the sandbox kind) a minimal result with FailedOutput is
// still persisted, the request is marked failed, and the outcome is returned
// together with an error wrapping apperror.ErrExecutionFailed.
//
// Cancellation of ctx is ignored: once accepted, an execution runs to
// completion and always persists its result. Backend calls stay bounded by the
// sandbox client's timeout.
func (s *ExecutionService) Execute(ctx context.Context, in ExecuteInput) (*Outcome, error) {
	ctx = context.WithoutCancel(ctx)

	req, isNew, err := s.acceptRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	var exercise *model.Exercise
	if req.ExerciseID != nil {
		exercise, err = s.exercises.GetExercise(ctx, *req.ExerciseID)
		if err != nil {
			return nil, err
		}
	}

	kind := sandbox.KindManaged
	if exercise != nil {
		kind = sandbox.NormalizeKind(exercise.Sandbox)
	}

	logger := s.logger.With(
		slog.String("request_id", req.ID),
		slog.String("sandbox", string(kind)),
	)

	job := sandbox.Job{Code: req.Code, Stdin: req.Stdin, Args: req.Args}

	start := time.Now()
	out, runErr := s.sandbox.Run(ctx, kind, job)
	elapsed := time.Since(start).Seconds()

	if runErr != nil {
		return s.fail(ctx, logger, req, isNew, kind, runErr)
	}

	result := &model.ExecutionResult{
		Output:        out.RunOutput,
		Error:         out.Error(),
		ExecutionTime: &elapsed,
	}

	if exercise != nil && len(exercise.TestCases) > 0 {
		result.TestResults = s.grader.Run(ctx, func(ctx context.Context, job sandbox.Job) (*sandbox.Output, error) {
			return s.sandbox.Run(ctx, kind, job)
		}, job, exercise.TestCases)
	}

	req.Status = classify(out, result.TestResults)

	if err := s.executions.SaveExecution(ctx, req, isNew, result); err != nil {
		logger.Error("failed to persist execution", slog.String("error", err.Error()))
		return nil, fmt.Errorf("saving execution %s: %w", req.ID, err)
	}

	logger.Info("execution finished",
		slog.String("status", req.Status),
		slog.Float64("execution_time", elapsed),
		slog.Int("test_cases", len(result.TestResults)),
		slog.Int("failed_cases", result.TestResults.Failed()),
	)

	return &Outcome{Request: req, Result: result}, nil
}

// acceptRequest resolves the existing-request fast path or builds a new,
// not yet persisted request.
func (s *ExecutionService) acceptRequest(ctx context.Context, in ExecuteInput) (*model.ExecutionRequest, bool, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, false, apperror.Unauthorized("authentication required")
	}

	if id := strings.TrimSpace(in.ExistingRequestID); id != "" {
		req, err := s.executions.GetRequest(ctx, id)
		switch {
		case err == nil:
			if req.UserID != in.UserID {
				return nil, false, apperror.Forbidden("execution request belongs to another user")
			}
			if _, err := s.executions.GetResultByRequest(ctx, id); err == nil {
				return nil, false, apperror.Conflict("execution result for request", id)
			} else if !errors.Is(err, apperror.ErrNotFound) {
				return nil, false, err
			}
			return req, false, nil
		case errors.Is(err, apperror.ErrNotFound):
			s.logger.Warn("existing execution request not found, creating a new one",
				slog.String("request_id", id),
			)
		default:
			return nil, false, err
		}
	}

	if strings.TrimSpace(in.Code) == "" {
		return nil, false, apperror.ValidationFailed("code", "code is required")
	}
	if len(in.Code) > MaxCodeLength {
		return nil, false, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if len(in.Stdin) > MaxStdinLength {
		return nil, false, apperror.ValidationFailed("stdin",
			fmt.Sprintf("stdin must be %d characters or less", MaxStdinLength))
	}
	if len(in.Args) > MaxArgsLength {
		return nil, false, apperror.ValidationFailed("args",
			fmt.Sprintf("args must be %d characters or less", MaxArgsLength))
	}

	var exerciseID *string
	if in.ExerciseID != nil && strings.TrimSpace(*in.ExerciseID) != "" {
		id := strings.TrimSpace(*in.ExerciseID)
		exerciseID = &id
	}

	req := &model.ExecutionRequest{
		ID:         xid.New().String(),
		UserID:     in.UserID,
		ExerciseID: exerciseID,
		Code:       in.Code,
		Stdin:      in.Stdin,
		Args:       in.Args,
		Sandbox:    string(sandbox.NormalizeKind(in.Sandbox)),
		Status:     model.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	return req, true, nil
}

// fail persists the minimal result for a free-run the backend could not serve.
func (s *ExecutionService) fail(
	ctx context.Context,
	logger *slog.Logger,
	req *model.ExecutionRequest,
	isNew bool,
	kind sandbox.Kind,
	runErr error,
) (*Outcome, error) {
	message := failureMessage(kind, runErr)
	logger.Error("execution backend failed",
		slog.String("error", runErr.Error()),
	)

	req.Status = model.StatusFailed
	result := &model.ExecutionResult{
		Output: FailedOutput,
		Error:  message,
	}

	if err := s.executions.SaveExecution(ctx, req, isNew, result); err != nil {
		logger.Error("failed to persist failed execution", slog.String("error", err.Error()))
		return nil, fmt.Errorf("saving failed execution %s: %w", req.ID, err)
	}

	return &Outcome{Request: req, Result: result}, apperror.ExecutionFailed(message, runErr)
}

func failureMessage(kind sandbox.Kind, err error) string {
	var invalid *sandbox.InvalidBackendError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("Invalid sandbox type specified: '%s'.", invalid.Name)
	}
	return fmt.Sprintf("Failed to execute code with the %s backend (standard execution).", kind)
}

// classify derives the final status: a compile error, a run error or any
// failing test case means failed.
func classify(out *sandbox.Output, results model.TestResults) string {
	switch {
	case out.CompileError != "":
		return model.StatusFailed
	case out.RunError != "":
		return model.StatusFailed
	case results.Failed() > 0:
		return model.StatusFailed
	default:
		return model.StatusCompleted
	}
}

// Request returns request metadata to its owner.
func (s *ExecutionService) Request(ctx context.Context, userID, requestID string) (*model.ExecutionRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, apperror.ValidationFailed("id", "execution request ID is required")
	}

	req, err := s.executions.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, apperror.Forbidden("you do not have permission to view this execution request")
	}
	return req, nil
}

// Result returns the result of a request to the request's owner.
func (s *ExecutionService) Result(ctx context.Context, userID, requestID string) (*model.ExecutionResult, error) {
	if _, err := s.Request(ctx, userID, requestID); err != nil {
		return nil, err
	}
	return s.executions.GetResultByRequest(ctx, strings.TrimSpace(requestID))
}
