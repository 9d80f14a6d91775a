package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/logging"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/repository"
)

// mockExerciseRepo is an in-memory ExerciseRepository that records the
// options it was called with.
type mockExerciseRepo struct {
	exercises map[string]model.Exercise
	order     []string
	lastOpts  repository.ListOptions
	nextID    int
}

func newMockExerciseRepo() *mockExerciseRepo {
	return &mockExerciseRepo{exercises: make(map[string]model.Exercise)}
}

func (m *mockExerciseRepo) GetExercise(_ context.Context, id string) (*model.Exercise, error) {
	ex, ok := m.exercises[id]
	if !ok {
		return nil, apperror.NotFound("exercise", id)
	}
	return &ex, nil
}

func (m *mockExerciseRepo) ListExercises(_ context.Context, opts repository.ListOptions) ([]model.Exercise, error) {
	m.lastOpts = opts
	out := make([]model.Exercise, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.exercises[id])
	}
	return out, nil
}

func (m *mockExerciseRepo) UpsertExercise(_ context.Context, ex *model.Exercise) error {
	if ex.ID == "" {
		m.nextID++
		ex.ID = fmt.Sprintf("mock-%d", m.nextID)
	}
	if _, ok := m.exercises[ex.ID]; !ok {
		m.order = append(m.order, ex.ID)
	}
	m.exercises[ex.ID] = *ex
	return nil
}

func TestExerciseService_Get(t *testing.T) {
	repo := newMockExerciseRepo()
	svc := NewExerciseService(repo, logging.Discard())
	require.NoError(t, repo.UpsertExercise(context.Background(), &model.Exercise{ID: "sum", Title: "Sum"}))

	got, err := svc.Get(context.Background(), " sum ")
	require.NoError(t, err)
	assert.Equal(t, "Sum", got.Title)

	_, err = svc.Get(context.Background(), "")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestExerciseService_ListClampsPaging(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: DefaultListLimit, wantOffset: 0},
		{name: "too large", limit: 1000, offset: 5, wantLimit: MaxListLimit, wantOffset: 5},
		{name: "negative offset", limit: 10, offset: -3, wantLimit: 10, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockExerciseRepo()
			svc := NewExerciseService(repo, logging.Discard())

			_, err := svc.List(context.Background(), tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, repo.lastOpts.Limit)
			assert.Equal(t, tt.wantOffset, repo.lastOpts.Offset)
		})
	}
}

func TestExerciseService_Import(t *testing.T) {
	repo := newMockExerciseRepo()
	svc := NewExerciseService(repo, logging.Discard())

	n, err := svc.Import(context.Background(), []model.Exercise{
		{ID: "hello", Title: " Hello ", Sandbox: "piston"},
		{Title: "Sum", Sandbox: "Custom", TestCases: model.TestCases{{Input: "1 2", ExpectedOutput: "3"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hello, err := repo.GetExercise(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", hello.Title)
	assert.Equal(t, "managed", hello.Sandbox)

	sum, err := repo.GetExercise(context.Background(), "mock-1")
	require.NoError(t, err)
	assert.Equal(t, "custom", sum.Sandbox)
	assert.Len(t, sum.TestCases, 1)
}

func TestExerciseService_ImportStopsAtInvalid(t *testing.T) {
	repo := newMockExerciseRepo()
	svc := NewExerciseService(repo, logging.Discard())

	n, err := svc.Import(context.Background(), []model.Exercise{
		{ID: "ok", Title: "Fine"},
		{ID: "bad", Title: "   "},
	})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, 1, n)
	_, err = repo.GetExercise(context.Background(), "bad")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
