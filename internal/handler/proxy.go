package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"inventory-gateway-go/internal/model"
	"inventory-gateway-go/internal/service"
)

// envelopeError is the fixed error string in the 502 envelope.
const envelopeError = "Failed to reach inventory backend"

// ProxyHandler forwards API requests to the inventory backend.
type ProxyHandler struct {
	service *service.GatewayService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.GatewayService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle forwards the request to the inventory backend and relays the
// response verbatim. A failed forward attempt becomes a 502 with the
// gateway's error envelope; everything the backend itself produced,
// including 4xx/5xx bodies, passes through untouched.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		SubPath:  strings.TrimPrefix(req.URL.EscapedPath(), "/"),
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
		Body:     req.Body,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.badGateway(c, err)
	}

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)
	if _, err := c.Response().Write(resp.Body); err != nil {
		h.logger.Error("writing response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

// badGateway emits the fixed-shape error envelope with HTTP 502.
func (h *ProxyHandler) badGateway(c echo.Context, err error) error {
	h.logger.Error("forward attempt failed",
		"err", err,
		"path", c.Request().URL.Path,
	)

	targetURL := ""
	var fe *service.ForwardError
	if errors.As(err, &fe) {
		targetURL = fe.TargetURL
	}

	return c.JSON(http.StatusBadGateway, model.ErrorEnvelope{
		Error:     envelopeError,
		Details:   failureDetails(err),
		TargetURL: targetURL,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// failureDetails classifies the forward failure for the envelope's details field.
func failureDetails(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "backend request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "client disconnected before the backend responded"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "backend host could not be resolved"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "backend connection failed"
	}

	return "backend request failed"
}
