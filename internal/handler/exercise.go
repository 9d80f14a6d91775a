package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codelab/internal/apperror"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/service"
)

type ExerciseService interface {
	Get(ctx context.Context, id string) (*model.Exercise, error)
	List(ctx context.Context, limit, offset int) ([]model.Exercise, error)
}

var _ ExerciseService = (*service.ExerciseService)(nil)

type ExerciseHandler struct {
	svc ExerciseService
}

func NewExerciseHandler(svc ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{svc: svc}
}

// HandleList accepts optional limit and offset query parameters.
func (h *ExerciseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	exercises, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (h *ExerciseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ex, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func intQuery(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(key, key+" must be an integer")
	}
	return n, nil
}
