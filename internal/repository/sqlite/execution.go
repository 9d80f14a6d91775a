package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/repository"
)

var _ repository.ExecutionRepository = (*DB)(nil)

const (
	requestColumns = `id, user_id, exercise_id, code, stdin, args, sandbox, status, created_at`
	resultColumns  = `id, request_id, output, error, execution_time, test_results, created_at`
)

func (db *DB) GetRequest(ctx context.Context, id string) (*model.ExecutionRequest, error) {
	var req model.ExecutionRequest
	err := db.conn.GetContext(ctx, &req,
		`SELECT `+requestColumns+` FROM execution_requests WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("execution request", id)
		}
		return nil, fmt.Errorf("sqlite: getting execution request %s: %w", id, err)
	}
	return &req, nil
}

func (db *DB) GetResultByRequest(ctx context.Context, requestID string) (*model.ExecutionResult, error) {
	var res model.ExecutionResult
	err := db.conn.GetContext(ctx, &res,
		`SELECT `+resultColumns+` FROM execution_results WHERE request_id = ?`, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("execution result", requestID)
		}
		return nil, fmt.Errorf("sqlite: getting execution result for %s: %w", requestID, err)
	}
	return &res, nil
}

func (db *DB) CreateRequest(ctx context.Context, req *model.ExecutionRequest) error {
	prepareRequest(req)
	if req.Status == "" {
		req.Status = model.StatusPending
	}
	return insertRequest(ctx, db.conn, req)
}

func (db *DB) SaveExecution(ctx context.Context, req *model.ExecutionRequest, isNew bool, res *model.ExecutionResult) error {
	if isNew {
		prepareRequest(req)
	}
	if res.ID == "" {
		res.ID = xid.New().String()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	res.RequestID = req.ID

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isNew {
		if err := insertRequest(ctx, tx, req); err != nil {
			return err
		}
	}

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO execution_results (`+resultColumns+`)
		 VALUES (:id, :request_id, :output, :error, :execution_time, :test_results, :created_at)`,
		res)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("execution result for request", req.ID)
		}
		if isForeignKeyViolation(err) {
			return apperror.NotFound("execution request", req.ID)
		}
		return fmt.Errorf("sqlite: inserting execution result for %s: %w", req.ID, err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE execution_requests SET status = ? WHERE id = ?`, req.Status, req.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating status of %s: %w", req.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("execution request", req.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing execution %s: %w", req.ID, err)
	}
	return nil
}

func prepareRequest(req *model.ExecutionRequest) {
	if req.ID == "" {
		req.ID = xid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
}

func insertRequest(ctx context.Context, ext sqlx.ExtContext, req *model.ExecutionRequest) error {
	_, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO execution_requests (`+requestColumns+`)
		 VALUES (:id, :user_id, :exercise_id, :code, :stdin, :args, :sandbox, :status, :created_at)`,
		req)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("execution request", req.ID)
		}
		if isForeignKeyViolation(err) {
			id := ""
			if req.ExerciseID != nil {
				id = *req.ExerciseID
			}
			return apperror.NotFound("exercise", id)
		}
		return fmt.Errorf("sqlite: inserting execution request: %w", err)
	}
	return nil
}
