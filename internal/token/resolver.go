// Package token resolves the bearer credential attached to forwarded requests.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"inventory-gateway-go/internal/config"
	"inventory-gateway-go/internal/model"
)

// resolveTimeout bounds the nested token-endpoint call so a hung endpoint
// cannot hold inbound requests open.
const resolveTimeout = 5 * time.Second

// tokenResponse is the JSON shape returned by the session-token endpoint.
type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Resolver obtains a bearer token from the configured source: a static key,
// or a session-token endpoint. Resolution happens at most once per inbound
// request and is never cached.
type Resolver struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	return &Resolver{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: resolveTimeout},
		logger:     logger.With("component", "token_resolver"),
	}
}

// Resolve attempts to obtain a bearer token. Failure is not an error: the
// credential comes back absent, the request proceeds unauthenticated, and the
// backend's own authorization check is the final authority.
func (r *Resolver) Resolve(ctx context.Context) model.Credential {
	if r.cfg.Auth.StaticToken != "" {
		return model.Credential{Token: r.cfg.Auth.StaticToken, Present: true}
	}

	if r.cfg.Auth.TokenURL == "" {
		return model.Credential{}
	}

	tok, err := r.fetchToken(ctx)
	if err != nil {
		r.logger.Warn("token resolution failed; forwarding unauthenticated",
			"token_url", r.cfg.Auth.TokenURL,
			"err", err,
		)
		return model.Credential{}
	}

	return model.Credential{Token: tok, Present: true}
}

// fetchToken calls the session-token endpoint and extracts the token string.
func (r *Resolver) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.Auth.TokenURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}

	tok := tr.Token
	if tok == "" {
		tok = tr.AccessToken
	}
	if tok == "" {
		return "", fmt.Errorf("token endpoint response contains no token")
	}

	return tok, nil
}
