package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/domain"
)

func TestMetricsRecorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.TokenRejected(auth.ReasonExpired)
	m.TokenRejected(auth.ReasonExpired)
	m.TokenRejected(auth.ReasonInvalidSignature)
	if got := testutil.ToFloat64(m.tokenRejects.WithLabelValues("expired")); got != 2 {
		t.Errorf("expired rejections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.tokenRejects.WithLabelValues("invalid_signature")); got != 1 {
		t.Errorf("invalid_signature rejections = %v, want 1", got)
	}

	m.PolicyDecided(auth.Decision{Policy: auth.RequireAuthority(domain.AuthorityConfig), Allowed: false})
	if got := testutil.ToFloat64(m.decisions.WithLabelValues("authority:CONFIG", "denied")); got != 1 {
		t.Errorf("denied decisions = %v, want 1", got)
	}

	m.RecordRequest("/auth/login", http.MethodPost, http.StatusOK, 10*time.Millisecond)
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/auth/login", http.MethodPost, "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}

	m.RecordError("/auth/login", http.MethodPost, "UNAUTHORIZED")
	m.RecordLogin("failure")
	if got := testutil.ToFloat64(m.errors.WithLabelValues("/auth/login", http.MethodPost, "UNAUTHORIZED")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.logins.WithLabelValues("failure")); got != 1 {
		t.Errorf("logins = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", http.MethodGet, 200, time.Millisecond)
	m.RecordError("/", http.MethodGet, "X")
	m.RecordLogin("success")
	m.TokenRejected(auth.ReasonMalformed)
	m.PolicyDecided(auth.Decision{})
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(nil)
	m.TokenRejected(auth.ReasonMalformed)

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `auth_token_rejections_total{reason="malformed"} 1`) {
		t.Fatalf("metrics output missing rejection counter:\n%s", body)
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewMetrics(nil)

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), m))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.Header.Get(RequestIDHeader) != "req-123" {
		t.Errorf("request id not echoed: %q", resp.Header.Get(RequestIDHeader))
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-123" || fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("unexpected fields %v", fields)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/ping", http.MethodGet, "418")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestRequestLoggerAssignsID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), nil))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "bogus"} {
		logger, err := NewLogger(config.LoggerConfig{Level: level})
		if err != nil {
			t.Fatalf("NewLogger(%q) error = %v", level, err)
		}
		_ = logger.Sync()
	}
}
