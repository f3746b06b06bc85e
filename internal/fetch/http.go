// Package fetch retrieves raw page content for the coordinator.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pokewonder/pokewonder/internal/models"
)

// bodyLimit caps how much of a response is read; signal extraction only
// needs the rendered markup, not megabytes of inlined assets.
const bodyLimit = 4 << 20

// Result is one fetch outcome.
type Result struct {
	FinalURL string
	Status   models.TransportStatus
	Body     string
}

// HTTPFetcher fetches pages with a plain HTTP client.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher. The per-request deadline comes from the
// caller's context; timeout here is a backstop for dialing and headers.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves one URL. A transport-level failure returns an error; an
// HTTP response always yields a Result, with the status code mapped onto the
// coarse transport status (403/429/503 read as blocked).
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, bodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	return &Result{
		FinalURL: resp.Request.URL.String(),
		Status:   statusOf(resp.StatusCode),
		Body:     string(body),
	}, nil
}

func statusOf(code int) models.TransportStatus {
	switch {
	case code >= 200 && code < 300:
		return models.TransportOK
	case code == http.StatusForbidden,
		code == http.StatusTooManyRequests,
		code == http.StatusServiceUnavailable:
		return models.TransportBlocked
	default:
		return models.TransportError
	}
}
