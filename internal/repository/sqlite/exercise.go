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

var _ repository.ExerciseRepository = (*DB)(nil)

const exerciseColumns = `id, title, description, sandbox, test_cases, created_at, updated_at`

func (db *DB) GetExercise(ctx context.Context, id string) (*model.Exercise, error) {
	var ex model.Exercise
	err := db.conn.GetContext(ctx, &ex,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("exercise", id)
		}
		return nil, fmt.Errorf("sqlite: getting exercise %s: %w", id, err)
	}
	return &ex, nil
}

// ListExercises returns exercises oldest first, so a seeded catalog keeps
// its file order.
func (db *DB) ListExercises(ctx context.Context, opts repository.ListOptions) ([]model.Exercise, error) {
	limit, offset := page(opts)

	exercises := make([]model.Exercise, 0, limit)
	err := db.conn.SelectContext(ctx, &exercises,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 ORDER BY created_at ASC, id ASC
		 LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing exercises: %w", err)
	}
	return exercises, nil
}

func (db *DB) UpsertExercise(ctx context.Context, ex *model.Exercise) error {
	if ex.ID == "" {
		ex.ID = xid.New().String()
	}
	if ex.TestCases == nil {
		ex.TestCases = model.TestCases{}
	}
	now := time.Now().UTC()
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = now
	}
	ex.UpdatedAt = now

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`)
		 VALUES (:id, :title, :description, :sandbox, :test_cases, :created_at, :updated_at)
		 ON CONFLICT(id) DO UPDATE SET
		     title       = excluded.title,
		     description = excluded.description,
		     sandbox     = excluded.sandbox,
		     test_cases  = excluded.test_cases,
		     updated_at  = excluded.updated_at`,
		ex)
	if err != nil {
		return fmt.Errorf("sqlite: upserting exercise %s: %w", ex.ID, err)
	}
	return nil
}

// page clamps list options to a default of 20 and a maximum of 100 rows.
func page(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
