package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/repository"
)

// createTestExercise stores a sum exercise and returns it.
func createTestExercise(t *testing.T, db *DB, sandbox string, cases ...model.TestCase) *model.Exercise {
	t.Helper()
	ex := &model.Exercise{
		Title:     "Sum two numbers",
		Sandbox:   sandbox,
		TestCases: cases,
	}
	require.NoError(t, db.UpsertExercise(context.Background(), ex))
	return ex
}

func TestUpsertExercise_Insert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ex := createTestExercise(t, db, "managed",
		model.TestCase{Input: "2 3", ExpectedOutput: "5"},
		model.TestCase{Input: "10 5", ExpectedOutput: "15"},
	)
	assert.NotEmpty(t, ex.ID)
	assert.False(t, ex.CreatedAt.IsZero())

	got, err := db.GetExercise(ctx, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sum two numbers", got.Title)
	assert.Equal(t, "managed", got.Sandbox)
	assert.Equal(t, ex.TestCases, got.TestCases)
}

func TestUpsertExercise_ReplacesExisting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ex := &model.Exercise{ID: "sum", Title: "Sum", Sandbox: "managed"}
	require.NoError(t, db.UpsertExercise(ctx, ex))
	created := ex.CreatedAt

	updated := &model.Exercise{
		ID:        "sum",
		Title:     "Sum v2",
		Sandbox:   "custom",
		TestCases: model.TestCases{{Input: "1 1", ExpectedOutput: "2"}},
	}
	require.NoError(t, db.UpsertExercise(ctx, updated))

	got, err := db.GetExercise(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, "Sum v2", got.Title)
	assert.Equal(t, "custom", got.Sandbox)
	assert.Len(t, got.TestCases, 1)
	assert.True(t, got.CreatedAt.Equal(created), "created_at is kept on update")
}

func TestUpsertExercise_NoTestCases(t *testing.T) {
	db := newTestDB(t)

	ex := createTestExercise(t, db, "managed")

	got, err := db.GetExercise(context.Background(), ex.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.TestCases)
	assert.Empty(t, got.TestCases)
}

func TestGetExercise_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetExercise(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestListExercises(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.UpsertExercise(ctx, &model.Exercise{ID: id, Title: id, Sandbox: "managed"}))
	}

	tests := []struct {
		name string
		opts repository.ListOptions
		want []string
	}{
		{name: "defaults", opts: repository.ListOptions{}, want: []string{"a", "b", "c"}},
		{name: "limit", opts: repository.ListOptions{Limit: 2}, want: []string{"a", "b"}},
		{name: "offset", opts: repository.ListOptions{Limit: 2, Offset: 2}, want: []string{"c"}},
		{name: "past the end", opts: repository.ListOptions{Offset: 10}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListExercises(ctx, tt.opts)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, ex := range got {
				ids = append(ids, ex.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
