package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status values for an ExecutionRequest. Running exists in the schema only;
// orchestration moves a request from pending straight to completed or failed.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExecutionRequest is one attempt to run submitted code.
//
// Args is the raw comma-separated string as submitted; the sandbox client
// splits it when building a backend payload.
type ExecutionRequest struct {
	ID         string    `json:"id"         db:"id"`
	UserID     string    `json:"user"       db:"user_id"`
	ExerciseID *string   `json:"exercise"   db:"exercise_id"`
	Code       string    `json:"code"       db:"code"`
	Stdin      string    `json:"stdin"      db:"stdin"`
	Args       string    `json:"args"       db:"args"`
	Sandbox    string    `json:"sandbox"    db:"sandbox"`
	Status     string    `json:"status"     db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ExecutionResult is the persisted outcome of exactly one ExecutionRequest.
// It is written once and never updated.
type ExecutionResult struct {
	ID            string      `json:"id"             db:"id"`
	RequestID     string      `json:"request"        db:"request_id"`
	Output        string      `json:"output"         db:"output"`
	Error         string      `json:"error"          db:"error"`
	ExecutionTime *float64    `json:"execution_time" db:"execution_time"`
	TestResults   TestResults `json:"test_results"   db:"test_results"`
	CreatedAt     time.Time   `json:"created_at"     db:"created_at"`
}

// TestResult is the verdict for one test case. ActualOutput and Error are
// stored trimmed.
type TestResult struct {
	TestCase     TestCase `json:"test_case"`
	ActualOutput string   `json:"actual_output"`
	Passed       bool     `json:"passed"`
	Error        string   `json:"error"`
}

// TestResults is stored as a JSON array; a nil slice is stored as NULL,
// meaning the run had no test phase.
type TestResults []TestResult

func (tr TestResults) Value() (driver.Value, error) {
	if tr == nil {
		return nil, nil
	}
	b, err := json.Marshal(tr)
	if err != nil {
		return nil, fmt.Errorf("model: encoding test results: %w", err)
	}
	return string(b), nil
}

func (tr *TestResults) Scan(src any) error {
	return scanJSON(src, tr)
}

// AllPassed reports whether every result passed. An empty slice counts as
// passed only when emptyIsPass is set.
func (tr TestResults) AllPassed(emptyIsPass bool) bool {
	if len(tr) == 0 {
		return emptyIsPass
	}
	for _, r := range tr {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Failed counts results that did not pass.
func (tr TestResults) Failed() int {
	n := 0
	for _, r := range tr {
		if !r.Passed {
			n++
		}
	}
	return n
}
