package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-retryablehttp"

	"tokengate.dev/cli/internal/core/domain"
	"tokengate.dev/cli/internal/core/ports"
)

// defaultLifetime is assumed when the token endpoint reports no expiry and
// the token carries no exp claim.
const defaultLifetime = time.Hour

// ClientCredentialsConfig configures the OAuth2 client credentials provider
type ClientCredentialsConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
}

// ClientCredentialsProvider obtains bearer credentials from an OAuth2 token
// endpoint using the client_credentials grant. The initial credential comes
// from the store when one is present; refreshes always go to the endpoint
// and persist the result.
type ClientCredentialsProvider struct {
	config     ClientCredentialsConfig
	store      ports.CredentialStore
	httpClient *retryablehttp.Client
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
	Scope       string `json:"scope,omitempty"`
}

// NewClientCredentialsProvider creates a provider. The store may be nil, in
// which case every run starts without a credential.
func NewClientCredentialsProvider(config ClientCredentialsConfig, store ports.CredentialStore) *ClientCredentialsProvider {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 15 * time.Second
	client.Logger = nil

	return &ClientCredentialsProvider{
		config:     config,
		store:      store,
		httpClient: client,
	}
}

// LoadInitial returns the persisted credential, or nil when none exists.
func (p *ClientCredentialsProvider) LoadInitial(ctx context.Context) (*domain.Credential, error) {
	if p.store == nil {
		return nil, nil
	}
	cred, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load stored credential: %w", err)
	}
	return cred, nil
}

// Refresh fetches a new token from the endpoint. The client_credentials
// grant re-authenticates from scratch, so the superseded value is not sent.
func (p *ClientCredentialsProvider) Refresh(ctx context.Context, previous string) (domain.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.config.ClientID)
	form.Set("client_secret", p.config.ClientSecret)
	if p.config.Scope != "" {
		form.Set("scope", p.config.Scope)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Credential{}, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return domain.Credential{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return domain.Credential{}, fmt.Errorf("empty access token in response")
	}

	cred := domain.NewCredential(tokenResp.AccessToken, expiryOf(tokenResp, time.Now()))

	if p.store != nil {
		// Persistence is best effort; a failed save only costs the next run
		// an extra refresh.
		_ = p.store.Save(cred)
	}

	return cred, nil
}

// expiryOf resolves the credential expiry: the endpoint's expires_in wins,
// then the token's own exp claim, then the default lifetime.
func expiryOf(resp tokenResponse, now time.Time) time.Time {
	if resp.ExpiresIn > 0 {
		return now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	if exp, ok := jwtExpiry(resp.AccessToken); ok {
		return exp
	}
	return now.Add(defaultLifetime)
}

// jwtExpiry extracts the exp claim without verifying the signature. The
// expiry only schedules refreshes; trust in the token stays with the server.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

var _ ports.CredentialProvider = (*ClientCredentialsProvider)(nil)
