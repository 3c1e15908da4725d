package auth

import (
	"context"
	"fmt"
	"time"

	"tokengate.dev/cli/internal/core/domain"
	"tokengate.dev/cli/internal/core/ports"
)

// StaticProvider serves a fixed token that never rotates. Useful for
// personal access tokens and for wiring tests.
type StaticProvider struct {
	token    string
	lifetime time.Duration
}

// NewStaticProvider creates a provider around a fixed token value.
func NewStaticProvider(token string, lifetime time.Duration) *StaticProvider {
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	return &StaticProvider{token: token, lifetime: lifetime}
}

// LoadInitial returns the fixed token, or none when no token is configured.
func (p *StaticProvider) LoadInitial(ctx context.Context) (*domain.Credential, error) {
	if p.token == "" {
		return nil, nil
	}
	cred := domain.NewCredential(p.token, time.Now().Add(p.lifetime))
	return &cred, nil
}

// Refresh re-issues the same token with a fresh expiry. A server that keeps
// rejecting it will surface that rejection to the caller unchanged.
func (p *StaticProvider) Refresh(ctx context.Context, previous string) (domain.Credential, error) {
	if p.token == "" {
		return domain.Credential{}, fmt.Errorf("no token configured")
	}
	return domain.NewCredential(p.token, time.Now().Add(p.lifetime)), nil
}

var _ ports.CredentialProvider = (*StaticProvider)(nil)
