package services

import (
	"context"
	"net/http"
	"time"

	"tokengate.dev/cli/internal/core/domain"
	"tokengate.dev/cli/internal/core/ports"
)

// InterceptorConfig configures the bearer interceptor
type InterceptorConfig struct {
	QueueSize int             // Maximum waiters, leader included, per refresh (default: 1)
	Rejected  func(int) bool  // Response statuses that invalidate the credential (default: any non-2xx)
	Now       func() time.Time // Clock, overridable in tests
}

// DefaultInterceptorConfig returns sensible defaults
func DefaultInterceptorConfig() *InterceptorConfig {
	return &InterceptorConfig{
		QueueSize: 1,
		Rejected:  RejectNon2xx,
		Now:       time.Now,
	}
}

// RejectNon2xx treats every non-2xx response as a credential rejection.
func RejectNon2xx(status int) bool {
	return status < 200 || status > 299
}

// RejectUnauthorizedOnly treats only 401 responses as credential rejections.
func RejectUnauthorizedOnly(status int) bool {
	return status == http.StatusUnauthorized
}

// BearerInterceptor attaches the current bearer credential to outbound
// requests and coordinates credential refresh across concurrent requests.
// It never retries more than once per call and never logs. Transport errors
// surface to the caller unchanged; provider errors are wrapped with %w so
// errors.Is still matches them.
type BearerInterceptor struct {
	coord    *refreshCoordinator
	rejected func(int) bool
	now      func() time.Time
}

// NewBearerInterceptor creates an interceptor backed by the given provider.
func NewBearerInterceptor(provider ports.CredentialProvider, config *InterceptorConfig) *BearerInterceptor {
	if config == nil {
		config = DefaultInterceptorConfig()
	}
	queueSize := config.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}
	rejected := config.Rejected
	if rejected == nil {
		rejected = RejectNon2xx
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &BearerInterceptor{
		coord:    newRefreshCoordinator(provider, queueSize),
		rejected: rejected,
		now:      now,
	}
}

// Intercept decorates the request with the current credential, forwards it
// through the chain, and on a rejected response obtains a fresh credential
// and re-forwards exactly once. The retried response is returned whatever
// its status.
func (b *BearerInterceptor) Intercept(ctx context.Context, req *http.Request, chain ports.Chain) (*http.Response, error) {
	if err := b.coord.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	cred, gen := b.coord.Snapshot()
	if cred != nil && !cred.Valid(b.now()) {
		var err error
		cred, gen, err = b.coord.Refresh(ctx, gen)
		if err != nil {
			return nil, err
		}
	}

	resp, err := chain.Proceed(ctx, decorate(ctx, req, cred))
	if err != nil {
		return nil, err
	}
	if !b.rejected(resp.StatusCode) {
		return resp, nil
	}

	fresh, _, err := b.coord.Refresh(ctx, gen)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		resp.Body.Close()
	}
	return chain.Proceed(ctx, decorate(ctx, req, fresh))
}

// Credential returns the current credential and generation without
// triggering a load or refresh.
func (b *BearerInterceptor) Credential() (*domain.Credential, domain.Generation) {
	return b.coord.Snapshot()
}

// ForceRefresh obtains a fresh credential regardless of expiry.
func (b *BearerInterceptor) ForceRefresh(ctx context.Context) (*domain.Credential, error) {
	if err := b.coord.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	_, gen := b.coord.Snapshot()
	cred, _, err := b.coord.Refresh(ctx, gen)
	return cred, err
}

// decorate clones the request and sets the Authorization header. The clone
// keeps every other header untouched; a retry replaces the stale
// Authorization value on a fresh clone of the original request. Each clone
// gets its own body reader so the retry does not resend a consumed stream.
func decorate(ctx context.Context, req *http.Request, cred *domain.Credential) *http.Request {
	out := req.Clone(ctx)
	if req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			out.Body = body
		}
	}
	if cred != nil {
		out.Header.Set("Authorization", cred.HeaderValue())
	}
	return out
}
