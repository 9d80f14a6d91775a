// Package grading runs an exercise's declared test cases against submitted
// code and decides pass/fail per case.
package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/codelab/internal/model"
	"github.com/sakif/codelab/internal/sandbox"
)

const (
	// InvalidSandboxOutput is recorded as actual output when no backend
	// serves the requested sandbox kind.
	InvalidSandboxOutput = "Sandbox type error"
)

// RunFunc performs one backend call. The orchestrator binds it to a
// dispatcher and a sandbox kind.
type RunFunc func(ctx context.Context, job sandbox.Job) (*sandbox.Output, error)

// Runner executes test cases with at most `concurrency` backend calls in
// flight. With concurrency 1 the cases run strictly one after another.
type Runner struct {
	concurrency int
	logger      *slog.Logger
}

func NewRunner(concurrency int, logger *slog.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{concurrency: concurrency, logger: logger}
}

// Run executes job once per test case, with the case input as stdin, and
// returns one result per case in input order. It never fails as a whole:
// backend errors are recorded on the affected case.
func (r *Runner) Run(ctx context.Context, run RunFunc, job sandbox.Job, cases []model.TestCase) model.TestResults {
	results := make(model.TestResults, len(cases))
	if len(cases) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, tc := range cases {
		g.Go(func() error {
			out, err := run(ctx, job.WithStdin(tc.Input))
			results[i] = Grade(tc, out, err)

			r.logger.Debug("test case graded",
				slog.Int("index", i),
				slog.Bool("passed", results[i].Passed),
			)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Grade turns one backend call into a verdict. A case passes iff the run
// produced no error output and the trimmed stdout equals the trimmed
// expected output exactly. Compile fields are ignored.
func Grade(tc model.TestCase, out *sandbox.Output, err error) model.TestResult {
	if err != nil {
		return failedCall(tc, err)
	}

	actual := strings.TrimSpace(out.RunOutput)
	runErr := strings.TrimSpace(out.RunError)

	return model.TestResult{
		TestCase:     tc,
		ActualOutput: actual,
		Passed:       out.RunError == "" && actual == strings.TrimSpace(tc.ExpectedOutput),
		Error:        runErr,
	}
}

func failedCall(tc model.TestCase, err error) model.TestResult {
	var invalid *sandbox.InvalidBackendError
	if errors.As(err, &invalid) {
		return model.TestResult{
			TestCase:     tc,
			ActualOutput: InvalidSandboxOutput,
			Error:        fmt.Sprintf("Invalid sandbox type: %s", invalid.Name),
		}
	}
	return model.TestResult{
		TestCase: tc,
		Error:    fmt.Sprintf("execution backend unavailable: %v", err),
	}
}
