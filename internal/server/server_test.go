package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codelab/internal/auth"
	"github.com/sakif/codelab/internal/executor"
	"github.com/sakif/codelab/internal/grading"
	"github.com/sakif/codelab/internal/logging"
	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/repository/sqlite"
	"github.com/sakif/codelab/internal/sandbox"
	"github.com/sakif/codelab/internal/service"
)

// stubExecutor answers every job with the program's stdin echoed back.
type stubExecutor struct{}

func (stubExecutor) Execute(_ context.Context, job executor.Job) (*executor.Result, error) {
	return &executor.Result{Stdout: job.Stdin}, nil
}

type apiFixture struct {
	handler http.Handler
	db      *sqlite.DB
	tokens  *auth.TokenService
}

// newAPIFixture wires the real API over in-memory sqlite. The managed
// backend is an httptest server that prints "Hello from Piston!"; the custom
// kind is served by a runner server over stubExecutor.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := logging.Discard()

	managed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"run":{"stdout":"Hello from Piston!\n","stderr":""},"compile":{"output":"","stderr":""}}`))
	}))
	t.Cleanup(managed.Close)

	runner := httptest.NewServer(NewRunner(Config{}, stubExecutor{}, logger).Handler())
	t.Cleanup(runner.Close)

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("server-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	dispatcher := sandbox.NewFromConfig(sandbox.Config{
		Managed:        sandbox.ManagedConfig{URL: managed.URL, Language: "python", Version: "3.10.0", FileName: "main.py"},
		CustomURL:      runner.URL + "/execute",
		RequestTimeout: 2 * time.Second,
	}, logger)
	executions := service.NewExecutionService(db, db, dispatcher, grading.NewRunner(2, logger), logger)

	api := NewAPI(Config{CORSOrigins: []string{"https://learn.example.com"}}, APIDeps{
		Executions:  executions,
		Submissions: service.NewSubmissionService(db, db, executions, false, logger),
		Exercises:   service.NewExerciseService(db, logger),
		Tokens:      tokens,
		Ping:        db.Ping,
	}, logger)

	return &apiFixture{handler: api.Handler(), db: db, tokens: tokens}
}

func (f *apiFixture) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := f.tokens.Generate(user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestAPI_Healthz(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestAPI_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(t, http.MethodGet, "/api/exercises", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_ExecuteAndFetch(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(t, http.MethodPost, "/api/sandbox/execution-requests", "alice", `{"code":"print(\"Hello from Piston!\")"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created model.ExecutionResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Contains(t, created.Output, "Hello from Piston!")

	rr = f.do(t, http.MethodGet, "/api/sandbox/execution-requests/"+created.RequestID, "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var req model.ExecutionRequest
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&req))
	assert.Equal(t, model.StatusCompleted, req.Status)

	rr = f.do(t, http.MethodGet, "/api/sandbox/execution-results/"+created.RequestID, "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/sandbox/execution-results/"+created.RequestID, "mallory", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/sandbox/execution-results/unknown", "alice", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_SubmitThroughCustomRunner(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	// stubExecutor echoes stdin, so an echo exercise passes for any code.
	ex := &model.Exercise{
		ID:      "echo",
		Title:   "Echo",
		Sandbox: "custom",
		TestCases: model.TestCases{
			{Input: "hello", ExpectedOutput: "hello"},
			{Input: " 42 ", ExpectedOutput: "42"},
		},
	}
	require.NoError(t, f.db.UpsertExercise(ctx, ex))

	rr := f.do(t, http.MethodPost, "/api/exercises/echo/submissions", "alice", `{"submitted_code":"print(input())"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var sub model.Submission
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sub))
	assert.True(t, sub.IsCorrect)
	require.NotNil(t, sub.ExecutionResultID)

	rr = f.do(t, http.MethodGet, "/api/exercises/echo/submissions", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var subs []model.Submission
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&subs))
	assert.Len(t, subs, 1)

	rr = f.do(t, http.MethodGet, "/api/exercises/", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var exercises []model.Exercise
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&exercises))
	require.Len(t, exercises, 1)
	assert.Equal(t, "echo", exercises[0].ID)
}

func TestAPI_CORSPreflight(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/exercises", nil)
	req.Header.Set("Origin", "https://learn.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, "https://learn.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunner_Execute(t *testing.T) {
	h := NewRunner(Config{}, stubExecutor{}, logging.Discard()).Handler()

	req := httptest.NewRequest(http.MethodPost, "/execute", bytes.NewBufferString(`{"code":"print(input())","stdin":"2 3"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var res sandbox.CustomResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "2 3", res.Output)
}

func TestHealthz_StorageDown(t *testing.T) {
	rr := httptest.NewRecorder()
	healthHandler(func() error { return errors.New("database is closed") })(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	s := NewRunner(Config{Port: port, ReadTimeout: time.Second, WriteTimeout: time.Second}, stubExecutor{}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", l.Addr().String())
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
