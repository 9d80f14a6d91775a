package sandbox

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Dispatcher routes a Kind to its configured Backend.
type Dispatcher struct {
	backends map[Kind]Backend
}

func NewDispatcher(backends ...Backend) *Dispatcher {
	d := &Dispatcher{backends: make(map[Kind]Backend, len(backends))}
	for _, b := range backends {
		d.backends[b.Kind()] = b
	}
	return d
}

// Config is the resolved configuration for both backends. An empty CustomURL
// leaves the custom kind unserved.
type Config struct {
	Managed        ManagedConfig
	CustomURL      string
	RequestTimeout time.Duration
}

// NewFromConfig builds a Dispatcher over a shared HTTP client whose timeout
// bounds every backend call.
func NewFromConfig(cfg Config, logger *slog.Logger) *Dispatcher {
	client := &http.Client{Timeout: cfg.RequestTimeout}

	backends := []Backend{NewManagedBackend(cfg.Managed, client, logger)}
	if cfg.CustomURL != "" {
		backends = append(backends, NewCustomBackend(cfg.CustomURL, client, logger))
	}
	return NewDispatcher(backends...)
}

// Backend returns the backend serving kind, or an *InvalidBackendError.
func (d *Dispatcher) Backend(kind Kind) (Backend, error) {
	b, ok := d.backends[kind]
	if !ok {
		return nil, &InvalidBackendError{Name: string(kind)}
	}
	return b, nil
}

// Run executes job on the backend serving kind.
func (d *Dispatcher) Run(ctx context.Context, kind Kind, job Job) (*Output, error) {
	b, err := d.Backend(kind)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx, job)
}
