package httpinfra

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate.dev/cli/internal/application/services"
	"tokengate.dev/cli/internal/core/domain"
)

// rotatingProvider starts with a stale token and refreshes to a good one.
type rotatingProvider struct {
	mu       sync.Mutex
	refreshes int
}

func (p *rotatingProvider) LoadInitial(ctx context.Context) (*domain.Credential, error) {
	cred := domain.NewCredential("stale", time.Now().Add(time.Hour))
	return &cred, nil
}

func (p *rotatingProvider) Refresh(ctx context.Context, previous string) (domain.Credential, error) {
	p.mu.Lock()
	p.refreshes++
	p.mu.Unlock()
	return domain.NewCredential("good", time.Now().Add(time.Hour)), nil
}

func TestRoundTripperWithAuth_RefreshesOnUnauthorized(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		seen = append(seen, authz)
		if authz != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	provider := &rotatingProvider{}
	interceptor := services.NewBearerInterceptor(provider, nil)
	client := &http.Client{Transport: NewRoundTripperWithAuth(interceptor, nil)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, []string{"Bearer stale", "Bearer good"}, seen, "the retry replaces the stale Authorization header")

	provider.mu.Lock()
	assert.Equal(t, 1, provider.refreshes)
	provider.mu.Unlock()
}

func TestRoundTripperWithAuth_NoRetryOnSuccess(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	interceptor := services.NewBearerInterceptor(&rotatingProvider{}, nil)
	client := &http.Client{Transport: NewRoundTripperWithAuth(interceptor, nil)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1, requests)
}

func TestRequester_AttachesCorrelationHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	requester := NewRequester(http.DefaultTransport, server.URL, "tokengate/test", 5*time.Second)

	resp, err := requester.Do(context.Background(), http.MethodGet, "/v1/ping", map[string]string{"X-Extra": "1"}, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "tokengate/test", got.Get("User-Agent"))
	assert.Equal(t, "1", got.Get("X-Extra"))
	_, err = uuid.Parse(got.Get("X-Correlation-Id"))
	assert.NoError(t, err, "correlation ID should be a valid UUID")
}

func TestRequester_RelativeURLWithoutBaseFails(t *testing.T) {
	requester := NewRequester(http.DefaultTransport, "", "", time.Second)

	_, err := requester.Do(context.Background(), http.MethodGet, "/v1/ping", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a configured base URL")
}
