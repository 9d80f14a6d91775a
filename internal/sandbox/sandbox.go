// Package sandbox talks to the external code-execution backends.
//
// Two backends exist: a managed multi-language service speaking the Piston
// job format, and a minimal custom service taking {code, stdin}. Both are
// reached over HTTP and normalised into an Output. Failures come back as
// typed errors so callers can tell an unreachable backend
// (*TransportError) from a sandbox kind nobody serves
// (*InvalidBackendError); a compile or runtime error inside the user's code
// is NOT an error here, it is data in Output.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind names an execution backend.
type Kind string

const (
	KindManaged Kind = "managed"
	KindCustom  Kind = "custom"
)

// NormalizeKind maps a stored sandbox name to a Kind. Only the exact name
// "custom" selects the custom backend; anything else, including "Custom",
// the legacy "piston" name and the empty string, selects the managed one.
func NormalizeKind(s string) Kind {
	if s == string(KindCustom) {
		return KindCustom
	}
	return KindManaged
}

// Job is one logical run of some code.
type Job struct {
	Code string
	// Stdin is the request's base stdin.
	Stdin string
	// Args is the raw comma-separated argument string.
	Args string
	// StdinOverride replaces Stdin when set, e.g. with a test case input.
	StdinOverride *string
}

// WithStdin returns a copy of j whose stdin is replaced by s.
func (j Job) WithStdin(s string) Job {
	j.StdinOverride = &s
	return j
}

// EffectiveStdin is the stdin actually sent to the backend.
func (j Job) EffectiveStdin() string {
	if j.StdinOverride != nil {
		return *j.StdinOverride
	}
	return j.Stdin
}

// Output is the normalised result of one backend call. Missing fields in the
// backend response are empty strings.
type Output struct {
	CompileOutput string
	CompileError  string
	RunOutput     string
	RunError      string
}

// Error returns the error text a result should show: the compile error when
// there is one, otherwise the run error.
func (o *Output) Error() string {
	if o.CompileError != "" {
		return o.CompileError
	}
	return o.RunError
}

// Backend runs a Job against one execution service.
type Backend interface {
	Kind() Kind
	Run(ctx context.Context, job Job) (*Output, error)
}

// TransportError means the backend could not be reached or did not answer
// with a usable response: dial failure, timeout, non-2xx status, or a body
// that is not the expected JSON.
type TransportError struct {
	Backend    Kind
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sandbox: %s backend at %s returned status %d", e.Backend, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("sandbox: %s backend at %s: %v", e.Backend, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InvalidBackendError means no backend is configured for the requested kind.
type InvalidBackendError struct {
	Name string
}

func (e *InvalidBackendError) Error() string {
	return fmt.Sprintf("sandbox: invalid sandbox type %q", e.Name)
}

// IsTransport reports whether err is (or wraps) a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsInvalidBackend reports whether err is (or wraps) an *InvalidBackendError.
func IsInvalidBackend(err error) bool {
	var ie *InvalidBackendError
	return errors.As(err, &ie)
}

// ParseArgs splits a comma-separated argument string, trimming whitespace
// and dropping blank tokens. The result is never nil.
func ParseArgs(s string) []string {
	args := []string{}
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			args = append(args, tok)
		}
	}
	return args
}
