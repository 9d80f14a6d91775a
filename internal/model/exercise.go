// Package model defines the data structures used throughout the application.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Exercise is a graded coding task. The execution pipeline only reads it:
// Sandbox picks the backend, TestCases drive auto-grading.
type Exercise struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Sandbox     string    `json:"sandbox"     db:"sandbox"`
	TestCases   TestCases `json:"test_cases"  db:"test_cases"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  db:"updated_at"`
}

// TestCase is a declared stdin/expected-stdout pair.
type TestCase struct {
	Input          string `json:"input"           yaml:"input"`
	ExpectedOutput string `json:"expected_output" yaml:"expected_output"`
}

// TestCases is stored as a JSON array in a TEXT column.
type TestCases []TestCase

func (tc TestCases) Value() (driver.Value, error) {
	if tc == nil {
		tc = TestCases{}
	}
	b, err := json.Marshal(tc)
	if err != nil {
		return nil, fmt.Errorf("model: encoding test cases: %w", err)
	}
	return string(b), nil
}

func (tc *TestCases) Scan(src any) error {
	return scanJSON(src, tc)
}

// scanJSON decodes a JSON TEXT column. NULL leaves dst at its zero value.
func scanJSON(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("model: cannot scan %T as JSON", src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("model: decoding JSON column: %w", err)
	}
	return nil
}
