package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/auth"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/service"
)

// ExecutionService is what the execution endpoints need from the service layer.
type ExecutionService interface {
	Execute(ctx context.Context, in service.ExecuteInput) (*service.Outcome, error)
	Request(ctx context.Context, userID, requestID string) (*model.ExecutionRequest, error)
	Result(ctx context.Context, userID, requestID string) (*model.ExecutionResult, error)
}

var _ ExecutionService = (*service.ExecutionService)(nil)

type ExecutionHandler struct {
	svc    ExecutionService
	logger *slog.Logger
}

func NewExecutionHandler(svc ExecutionService, logger *slog.Logger) *ExecutionHandler {
	return &ExecutionHandler{svc: svc, logger: logger}
}

type createExecutionRequest struct {
	Code              string  `json:"code"                validate:"required_without=ExistingRequestID,max=100000"`
	Exercise          *string `json:"exercise"            validate:"omitempty,max=64"`
	Sandbox           string  `json:"sandbox"             validate:"max=50"`
	Stdin             string  `json:"stdin"               validate:"max=100000"`
	Args              string  `json:"args"                validate:"max=1000"`
	ExistingRequestID string  `json:"existing_request_id" validate:"max=64"`
}

// HandleCreate runs code and answers with the persisted result: 201 on a
// normal outcome (including compile, run and test failures), 500 with the
// same body when the execution backend could not run the code.
func (h *ExecutionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	clearWriteDeadline(w)
	userID, _ := auth.UserIDFromContext(r.Context())

	var body createExecutionRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.logger.Warn("invalid execution request", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	outcome, err := h.svc.Execute(r.Context(), service.ExecuteInput{
		UserID:            userID,
		ExistingRequestID: body.ExistingRequestID,
		ExerciseID:        body.Exercise,
		Code:              body.Code,
		Stdin:             body.Stdin,
		Args:              body.Args,
		Sandbox:           body.Sandbox,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrExecutionFailed) && outcome != nil {
			writeJSON(w, http.StatusInternalServerError, outcome.Result)
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, outcome.Result)
}

func (h *ExecutionHandler) HandleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	req, err := h.svc.Request(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *ExecutionHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	res, err := h.svc.Result(r.Context(), userID, chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
