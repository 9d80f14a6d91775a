package sandbox

import (
	"context"
	"log/slog"
	"net/http"
)

// CustomRequest is the custom backend's wire payload. The bundled runner
// (codelab runner) decodes the same type.
type CustomRequest struct {
	Code  string `json:"code"`
	Stdin string `json:"stdin"`
}

// CustomResponse is the custom backend's wire response.
type CustomResponse struct {
	Output string `json:"output"`
	Errors string `json:"errors"`
}

// CustomBackend sends {code, stdin} to a custom sandbox service. It has no
// compile phase, so Output's compile fields are always empty.
type CustomBackend struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

var _ Backend = (*CustomBackend)(nil)

func NewCustomBackend(url string, client *http.Client, logger *slog.Logger) *CustomBackend {
	return &CustomBackend{url: url, client: client, logger: logger}
}

func (b *CustomBackend) Kind() Kind { return KindCustom }

func (b *CustomBackend) Run(ctx context.Context, job Job) (*Output, error) {
	payload := CustomRequest{
		Code:  job.Code,
		Stdin: job.EffectiveStdin(),
	}

	var resp CustomResponse
	if err := postJSON(ctx, b.client, KindCustom, b.url, payload, &resp, b.logger); err != nil {
		return nil, err
	}

	return &Output{
		RunOutput: resp.Output,
		RunError:  resp.Errors,
	}, nil
}
