// Package service implements the core gateway forwarding logic.
package service

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"inventory-gateway-go/internal/client"
	"inventory-gateway-go/internal/config"
	"inventory-gateway-go/internal/model"
	"inventory-gateway-go/internal/token"
)

// apiPrefix is the fixed backend mount point every forwarded path lands under.
const apiPrefix = "/api/v1/"

// forwardableRequestHeaders are the only inbound headers forwarded to the
// backend. Everything else (host, connection, x-forwarded-*) is dropped so
// hop-specific state never leaks into the backend call.
var forwardableRequestHeaders = []string{
	"Authorization",
	"Accept",
	"Accept-Language",
	"Cache-Control",
	"User-Agent",
}

// forwardableResponseHeaders are the only backend response headers relayed to
// the caller. CORS headers the backend emits itself pass through as well.
var forwardableResponseHeaders = map[string]bool{
	"Content-Type":  true,
	"Cache-Control": true,
	"Etag":          true,
	"Last-Modified": true,
}

// bodilessMethods never carry a forwarded body, whatever the inbound request contained.
var bodilessMethods = map[string]bool{
	http.MethodGet:  true,
	http.MethodHead: true,
}

// ForwardError wraps a failed forward attempt with the URL it targeted, so
// the handler can report where the gateway was trying to go.
type ForwardError struct {
	TargetURL string
	Err       error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("forward to %s: %v", e.TargetURL, e.Err)
}

func (e *ForwardError) Unwrap() error {
	return e.Err
}

// GatewayService forwards inbound requests to the inventory backend.
type GatewayService struct {
	client  *client.BackendClient
	tokens  *token.Resolver
	cfg     *config.Config
	logger  *slog.Logger
	baseURL string
}

// NewGatewayService creates a GatewayService.
func NewGatewayService(c *client.BackendClient, t *token.Resolver, cfg *config.Config, logger *slog.Logger) (*GatewayService, error) {
	if _, err := url.Parse(cfg.Backend.BaseURL); err != nil {
		return nil, fmt.Errorf("parse backend base_url: %w", err)
	}

	return &GatewayService{
		client:  c,
		tokens:  t,
		cfg:     cfg,
		logger:  logger.With("component", "gateway_service"),
		baseURL: strings.TrimSuffix(cfg.Backend.BaseURL, "/"),
	}, nil
}

// Forward sends a ProxyRequest to the inventory backend and returns the
// completed response. It issues exactly one forward attempt; a backend
// response of any status code is a success, and only the inability to
// complete the exchange returns a *ForwardError.
func (s *GatewayService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	targetURL := s.buildBackendURL(pr.SubPath, pr.RawQuery)
	header := s.filterRequestHeaders(pr.Header)

	if s.cfg.Auth.Enabled {
		if cred := s.tokens.Resolve(pr.Ctx); cred.Present {
			header.Set("Authorization", "Bearer "+cred.Token)
		}
	}

	body := s.extractBody(pr.Method, pr.Body)

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"target_url", targetURL,
		"body", body.Present,
	)

	resp, err := s.client.Do(pr.Ctx, pr.Method, targetURL, header, body)
	if err != nil {
		return nil, &ForwardError{TargetURL: targetURL, Err: err}
	}

	resp.Header = s.filterResponseHeaders(resp.Header)
	return resp, nil
}

// buildBackendURL concatenates the backend origin, the fixed API prefix, the
// wildcard sub-path, and the original query string. Both path and query are
// used verbatim: no normalization, no re-encoding.
func (s *GatewayService) buildBackendURL(subPath, rawQuery string) string {
	u := s.baseURL + apiPrefix + subPath
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// extractBody reads the inbound body for methods that carry one. A failed
// read degrades to a bodiless forward rather than aborting the request.
func (s *GatewayService) extractBody(method string, rc io.ReadCloser) model.Body {
	if bodilessMethods[method] || rc == nil {
		return model.Body{}
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		s.logger.Warn("reading request body failed; forwarding without body",
			"method", method,
			"err", err,
		)
		return model.Body{}
	}
	if len(data) == 0 {
		return model.Body{}
	}

	return model.Body{Data: data, Present: true}
}

func (s *GatewayService) filterRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for _, key := range forwardableRequestHeaders {
		if vals := src.Values(key); len(vals) > 0 {
			dst[http.CanonicalHeaderKey(key)] = vals
		}
	}
	return dst
}

func (s *GatewayService) filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		canonical := http.CanonicalHeaderKey(key)
		if forwardableResponseHeaders[canonical] || strings.HasPrefix(canonical, "Access-Control-") {
			dst[key] = vals
		}
	}
	return dst
}
