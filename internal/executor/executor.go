// Package executor runs untrusted code locally. It backs the bundled custom
// sandbox service started by `codelab runner`.
package executor

import (
	"context"
	"time"
)

// Job is one program run: source code plus the stdin fed to it.
type Job struct {
	Code  string
	Stdin string
}

// Result is what the process left behind. A timed-out run reports
// ExitCode 124.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// TimedOut reports whether the run was killed by the execution timeout.
func (r *Result) TimedOut() bool {
	return r.ExitCode == ExitCodeTimeout
}

const (
	ExitCodeTimeout = 124
	TimeoutMessage  = "Execution timed out."
)

type Executor interface {
	Execute(ctx context.Context, job Job) (*Result, error)
}
