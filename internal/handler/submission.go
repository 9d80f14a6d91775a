package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codelab/internal/auth"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/service"
)

type SubmissionService interface {
	Submit(ctx context.Context, userID, exerciseID, code string) (*model.Submission, *service.Outcome, error)
	ListForExercise(ctx context.Context, userID, exerciseID string) ([]model.Submission, error)
}

var _ SubmissionService = (*service.SubmissionService)(nil)

type SubmissionHandler struct {
	svc    SubmissionService
	logger *slog.Logger
}

func NewSubmissionHandler(svc SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, logger: logger}
}

type createSubmissionRequest struct {
	SubmittedCode string `json:"submitted_code" validate:"notblank,max=100000"`
}

// HandleCreate grades the submitted code. Failing tests still give 201 with
// is_correct false; a backend failure removes the submission and gives 500.
func (h *SubmissionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	clearWriteDeadline(w)
	userID, _ := auth.UserIDFromContext(r.Context())

	var body createSubmissionRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	sub, _, err := h.svc.Submit(r.Context(), userID, chi.URLParam(r, "id"), body.SubmittedCode)
	if err != nil {
		h.logger.Warn("submission rejected", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	subs, err := h.svc.ListForExercise(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}
