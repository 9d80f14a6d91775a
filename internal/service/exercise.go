package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/repository"
	"github.com/sakif/codelab/internal/sandbox"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	MaxTitleLength   = 200
)

type ExerciseService struct {
	repo   repository.ExerciseRepository
	logger *slog.Logger
}

func NewExerciseService(repo repository.ExerciseRepository, logger *slog.Logger) *ExerciseService {
	return &ExerciseService{repo: repo, logger: logger}
}

func (s *ExerciseService) Get(ctx context.Context, id string) (*model.Exercise, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "exercise ID is required")
	}
	return s.repo.GetExercise(ctx, id)
}

func (s *ExerciseService) List(ctx context.Context, limit, offset int) ([]model.Exercise, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	exercises, err := s.repo.ListExercises(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	return exercises, nil
}

// Import upserts exercises loaded from a catalog file. Sandbox names are
// normalised so only "managed" and "custom" are ever stored.
func (s *ExerciseService) Import(ctx context.Context, exercises []model.Exercise) (int, error) {
	for i := range exercises {
		ex := &exercises[i]
		ex.Title = strings.TrimSpace(ex.Title)
		if ex.Title == "" {
			return i, apperror.ValidationFailed("title", fmt.Sprintf("exercise %d: title is required", i))
		}
		if len(ex.Title) > MaxTitleLength {
			return i, apperror.ValidationFailed("title",
				fmt.Sprintf("exercise %d: title must be %d characters or less", i, MaxTitleLength))
		}
		ex.Sandbox = string(sandbox.NormalizeKind(ex.Sandbox))

		if err := s.repo.UpsertExercise(ctx, ex); err != nil {
			return i, fmt.Errorf("importing exercise %q: %w", ex.Title, err)
		}
		s.logger.Info("exercise imported",
			slog.String("id", ex.ID),
			slog.String("title", ex.Title),
			slog.Int("test_cases", len(ex.TestCases)),
		)
	}
	return len(exercises), nil
}
