package sandbox

import (
	"context"
	"log/slog"
	"net/http"
)

// ManagedConfig describes the managed (Piston-style) backend and the fixed
// limits embedded in every job. A memory limit of -1 means unlimited.
type ManagedConfig struct {
	URL                string
	Language           string
	Version            string
	FileName           string
	CompileTimeoutMS   int
	RunTimeoutMS       int
	CompileMemoryLimit int
	RunMemoryLimit     int
}

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonJob struct {
	Language           string       `json:"language"`
	Version            string       `json:"version"`
	Files              []pistonFile `json:"files"`
	Stdin              string       `json:"stdin"`
	Args               []string     `json:"args"`
	CompileTimeout     int          `json:"compile_timeout"`
	RunTimeout         int          `json:"run_timeout"`
	CompileMemoryLimit int          `json:"compile_memory_limit"`
	RunMemoryLimit     int          `json:"run_memory_limit"`
}

type pistonStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
}

// pistonResponse only names the fields we read. Stages are pointers so an
// absent "compile" (interpreted languages) decodes cleanly.
type pistonResponse struct {
	Compile *pistonStage `json:"compile"`
	Run     *pistonStage `json:"run"`
}

// ManagedBackend sends jobs to a Piston-compatible execute endpoint.
type ManagedBackend struct {
	cfg    ManagedConfig
	client *http.Client
	logger *slog.Logger
}

var _ Backend = (*ManagedBackend)(nil)

func NewManagedBackend(cfg ManagedConfig, client *http.Client, logger *slog.Logger) *ManagedBackend {
	return &ManagedBackend{cfg: cfg, client: client, logger: logger}
}

func (b *ManagedBackend) Kind() Kind { return KindManaged }

func (b *ManagedBackend) Run(ctx context.Context, job Job) (*Output, error) {
	payload := pistonJob{
		Language:           b.cfg.Language,
		Version:            b.cfg.Version,
		Files:              []pistonFile{{Name: b.cfg.FileName, Content: job.Code}},
		Stdin:              job.EffectiveStdin(),
		Args:               ParseArgs(job.Args),
		CompileTimeout:     b.cfg.CompileTimeoutMS,
		RunTimeout:         b.cfg.RunTimeoutMS,
		CompileMemoryLimit: b.cfg.CompileMemoryLimit,
		RunMemoryLimit:     b.cfg.RunMemoryLimit,
	}

	var resp pistonResponse
	if err := postJSON(ctx, b.client, KindManaged, b.cfg.URL, payload, &resp, b.logger); err != nil {
		return nil, err
	}

	out := &Output{}
	if resp.Compile != nil {
		out.CompileOutput = resp.Compile.Output
		out.CompileError = resp.Compile.Stderr
	}
	if resp.Run != nil {
		out.RunOutput = resp.Run.Stdout
		out.RunError = resp.Run.Stderr
	}
	return out, nil
}
