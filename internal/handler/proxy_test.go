package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"inventory-gateway-go/internal/client"
	"inventory-gateway-go/internal/config"
	"inventory-gateway-go/internal/service"
	"inventory-gateway-go/internal/token"
)

func newTestHandler(t *testing.T, cfg *config.Config) *ProxyHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bc := client.NewBackendClient(cfg, logger, nil)
	tr := token.NewResolver(cfg, logger)
	svc, err := service.NewGatewayService(bc, tr, cfg, logger)
	if err != nil {
		t.Fatalf("NewGatewayService: %v", err)
	}
	return NewProxyHandler(svc, logger)
}

func backendConfig(backendURL string) *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{
			BaseURL:         backendURL,
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
	}
}

func TestProxyHandler_Handle_RelaysSuccess(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/assets" {
			t.Errorf("backend path = %q, want %q", r.URL.Path, "/api/v1/assets")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Set-Cookie", "session=xyz")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))
	defer backend.Close()

	h := newTestHandler(t, backendConfig(backend.URL))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/assets?search=dell", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got, want := rec.Body.String(), `[{"id":1}]`; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
	if sc := rec.Header().Get("Set-Cookie"); sc != "" {
		t.Errorf("Set-Cookie = %q, want dropped", sc)
	}
}

func TestProxyHandler_Handle_RelaysBackendErrorVerbatim(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"not found"}`))
	}))
	defer backend.Close()

	h := newTestHandler(t, backendConfig(backend.URL))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/assets/999", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got, want := rec.Body.String(), `{"detail":"not found"}`; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestProxyHandler_Handle_UnreachableBackendReturnsEnvelope(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	backend.Close() // connection refused from here on

	h := newTestHandler(t, backendConfig(backend.URL))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/assets", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var env struct {
		Error     string `json:"error"`
		Details   string `json:"details"`
		TargetURL string `json:"target_url"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	if env.Error == "" {
		t.Error("envelope.error is empty")
	}
	if env.Details == "" {
		t.Error("envelope.details is empty")
	}
	if want := backend.URL + "/api/v1/assets"; env.TargetURL != want {
		t.Errorf("envelope.target_url = %q, want %q", env.TargetURL, want)
	}
	if _, err := time.Parse(time.RFC3339, env.Timestamp); err != nil {
		t.Errorf("envelope.timestamp %q is not RFC 3339: %v", env.Timestamp, err)
	}
}

func TestProxyHandler_Handle_PatchBodyRoundTrips(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("backend method = %q, want PATCH", r.Method)
		}
		if r.URL.Path != "/api/v1/assets/42" {
			t.Errorf("backend path = %q, want %q", r.URL.Path, "/api/v1/assets/42")
		}
		body, _ := io.ReadAll(r.Body)
		if got, want := string(body), `{"status":"retired"}`; got != want {
			t.Errorf("backend body = %q, want %q", got, want)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"status":"retired"}`))
	}))
	defer backend.Close()

	cfg := backendConfig(backend.URL)
	cfg.Auth = config.AuthConfig{Enabled: true, StaticToken: "abc123"}
	h := newTestHandler(t, cfg)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/assets/42", strings.NewReader(`{"status":"retired"}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got, want := rec.Body.String(), `{"id":42,"status":"retired"}`; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}
