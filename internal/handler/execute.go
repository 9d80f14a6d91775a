package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codelab/internal/executor"
	"github.com/sakif/codelab/internal/sandbox"
)

// RunnerHandler serves the custom sandbox protocol: POST {code, stdin},
// answer {output, errors}.
type RunnerHandler struct {
	exec   executor.Executor
	logger *slog.Logger
}

func NewRunnerHandler(exec executor.Executor, logger *slog.Logger) *RunnerHandler {
	return &RunnerHandler{exec: exec, logger: logger}
}

type runnerRequest struct {
	Code  string `json:"code"  validate:"notblank,max=100000"`
	Stdin string `json:"stdin" validate:"max=100000"`
}

func (h *RunnerHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req runnerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid execution request body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	res, err := h.exec.Execute(r.Context(), executor.Job{Code: req.Code, Stdin: req.Stdin})
	if err != nil {
		h.logger.Error("code execution failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "executor_unavailable",
			Message: "no sandbox available to run the code",
		})
		return
	}

	h.logger.Info("code executed",
		slog.Int("exit_code", res.ExitCode),
		slog.Duration("duration", res.Duration),
		slog.Bool("timed_out", res.TimedOut()),
	)

	writeJSON(w, http.StatusOK, sandbox.CustomResponse{
		Output: res.Stdout,
		Errors: res.Stderr,
	})
}
