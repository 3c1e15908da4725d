package httpinfra

import (
	"context"
	"net/http"

	"tokengate.dev/cli/internal/application/services"
	"tokengate.dev/cli/internal/core/ports"
)

// RoundTripperWithAuth makes any http.Client speak the bearer protocol: the
// wrapped base transport becomes the interceptor's next stage, so requests
// gain an Authorization header and the refresh-and-retry-once behavior.
type RoundTripperWithAuth struct {
	base        http.RoundTripper
	interceptor *services.BearerInterceptor
}

// NewRoundTripperWithAuth wraps base (http.DefaultTransport when nil).
func NewRoundTripperWithAuth(interceptor *services.BearerInterceptor, base http.RoundTripper) *RoundTripperWithAuth {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RoundTripperWithAuth{base: base, interceptor: interceptor}
}

func (t *RoundTripperWithAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	chain := ports.ChainFunc(func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return t.base.RoundTrip(r)
	})
	return t.interceptor.Intercept(req.Context(), req, chain)
}

var _ http.RoundTripper = (*RoundTripperWithAuth)(nil)
