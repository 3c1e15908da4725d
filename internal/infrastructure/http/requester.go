package httpinfra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Requester performs API requests through an authenticated client, tagging
// each one with a correlation ID.
type Requester struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewRequester creates a requester on top of the given transport. baseURL
// may be empty, in which case request URLs must be absolute.
func NewRequester(transport http.RoundTripper, baseURL, userAgent string, timeout time.Duration) *Requester {
	return &Requester{
		client:    &http.Client{Transport: transport, Timeout: timeout},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// Do sends a request and returns the raw response. The caller owns the body.
func (r *Requester) Do(ctx context.Context, method, target string, headers map[string]string, body io.Reader) (*http.Response, error) {
	fullURL, err := r.resolveURL(target)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	req.Header.Set("X-Correlation-Id", uuid.NewString())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (r *Requester) resolveURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if u.IsAbs() {
		return target, nil
	}
	if r.baseURL == "" {
		return "", fmt.Errorf("relative URL %q without a configured base URL", target)
	}
	base, err := url.Parse(r.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", r.baseURL, err)
	}
	return base.ResolveReference(u).String(), nil
}
