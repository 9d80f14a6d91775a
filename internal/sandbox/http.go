package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 8 << 20

// postJSON sends payload to url and decodes the JSON response into out.
// Every failure is reported as a *TransportError; no retries are attempted.
func postJSON(ctx context.Context, client *http.Client, kind Kind, url string, payload, out any, logger *slog.Logger) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &TransportError{Backend: kind, URL: url, Err: fmt.Errorf("encoding payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Backend: kind, URL: url, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("sending job to sandbox backend",
		slog.String("backend", string(kind)),
		slog.String("url", url),
		slog.Int("payload_bytes", len(body)),
	)

	resp, err := client.Do(req)
	if err != nil {
		return &TransportError{Backend: kind, URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Backend: kind, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("sandbox backend returned an error status",
			slog.String("backend", string(kind)),
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(string(raw), 512)),
		)
		return &TransportError{
			Backend:    kind,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Backend: kind, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
