package ports

import (
	"context"
	"net/http"

	"tokengate.dev/cli/internal/core/domain"
)

// CredentialProvider loads the initial bearer credential and produces
// refreshed ones. Neither operation is assumed idempotent; callers must
// invoke each at most once per credential generation.
type CredentialProvider interface {
	// LoadInitial returns the starting credential, or nil when none exists
	// yet. It is called lazily, on the first request.
	LoadInitial(ctx context.Context) (*domain.Credential, error)

	// Refresh exchanges the superseded credential value for a new one.
	// previous is empty when no credential was ever set.
	Refresh(ctx context.Context, previous string) (domain.Credential, error)
}

// Chain forwards a decorated request to the next stage of the pipeline and
// returns its response.
type Chain interface {
	Proceed(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ChainFunc adapts a function to the Chain interface.
type ChainFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f ChainFunc) Proceed(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// CredentialStore persists a single credential between runs.
type CredentialStore interface {
	// Load returns the stored credential, or nil when the store is empty.
	Load() (*domain.Credential, error)

	// Save replaces the stored credential.
	Save(cred domain.Credential) error

	// Clear removes the stored credential.
	Clear() error
}
