package cli

import (
	"context"
	"fmt"
	"time"

	"tokengate.dev/cli/internal/application/services"
	"tokengate.dev/cli/internal/core/ports"
	authinfra "tokengate.dev/cli/internal/infrastructure/auth"
	configinfra "tokengate.dev/cli/internal/infrastructure/config"
	httpinfra "tokengate.dev/cli/internal/infrastructure/http"
)

// CLIContainer holds the wired dependencies shared by all commands
type CLIContainer struct {
	Config      configinfra.Config
	Store       ports.CredentialStore // nil when running with a fixed token
	Interceptor *services.BearerInterceptor
	Requester   *httpinfra.Requester
}

// NewCLIContainer loads configuration and wires the client stack:
// config -> store -> provider -> interceptor -> transport -> requester.
func NewCLIContainer(configPath string) (*CLIContainer, error) {
	cfg, err := configinfra.Load(configPath)
	if err != nil {
		return nil, err
	}

	var (
		provider ports.CredentialProvider
		store    ports.CredentialStore
	)
	if cfg.TokenURL != "" {
		fileStore, err := authinfra.NewFileCredentialStore(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		store = fileStore
		provider = authinfra.NewClientCredentialsProvider(authinfra.ClientCredentialsConfig{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scope:        cfg.Scope,
		}, fileStore)
	} else {
		provider = authinfra.NewStaticProvider(cfg.Token, 0)
	}

	interceptorConfig := services.DefaultInterceptorConfig()
	interceptorConfig.QueueSize = cfg.QueueSize
	if cfg.UnauthorizedOnly {
		interceptorConfig.Rejected = services.RejectUnauthorizedOnly
	}
	interceptor := services.NewBearerInterceptor(provider, interceptorConfig)

	transport := httpinfra.NewRoundTripperWithAuth(interceptor, nil)
	requester := httpinfra.NewRequester(
		transport,
		cfg.BaseURL,
		"tokengate/"+Version,
		time.Duration(cfg.TimeoutSeconds)*time.Second,
	)

	return &CLIContainer{
		Config:      cfg,
		Store:       store,
		Interceptor: interceptor,
		Requester:   requester,
	}, nil
}

// contextWithTimeout derives a request context from the configured timeout.
func contextWithTimeout(c *CLIContainer) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(c.Config.TimeoutSeconds)*time.Second)
}
