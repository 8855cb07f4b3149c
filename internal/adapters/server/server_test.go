package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hylla/csrpulse/internal/adapters/server/common"
	"github.com/hylla/csrpulse/internal/adapters/storage/sqlite"
	"github.com/hylla/csrpulse/internal/app"
)

// newTestService wires the common adapter over an empty in-memory store.
func newTestService(t *testing.T) common.ReportingService {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	clock := func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	svc := app.NewService(app.RepositoriesFromStore(repo), uuid.NewString, clock, app.ServiceConfig{})
	return common.NewAppServiceAdapter(svc, clock)
}

// TestNewHandlerRoutesHealthAPIAndMCP verifies the composed mux mounts every surface.
func TestNewHandlerRoutesHealthAPIAndMCP(t *testing.T) {
	var logs bytes.Buffer
	handler, cfg, err := NewHandler(Config{}, Dependencies{
		Service: newTestService(t),
		Logger:  log.NewWithOptions(&logs, log.Options{Formatter: log.LogfmtFormatter}),
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress || cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/periods/resolve?period=Q2-2024", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resolved struct {
		Success bool                    `json:"success"`
		Data    common.PeriodResolution `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resolved); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !resolved.Success || resolved.Data.Previous != "Q1-2024" {
		t.Fatalf("unexpected resolution %#v", resolved)
	}

	rec = httptest.NewRecorder()
	body := `{"title":"Laporan Feb","type":"monthly","period":"Feb-2024"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(body))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing report status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mcpReq := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	mcpReq.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rec, mcpReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("mcp ping status = %d body = %s", rec.Code, rec.Body.String())
	}

	if !strings.Contains(logs.String(), "path=/api/v1/reports") || !strings.Contains(logs.String(), "status=201") {
		t.Fatalf("request log missing create entry: %s", logs.String())
	}
}

// TestNewHandlerValidation verifies dependency and endpoint validation.
func TestNewHandlerValidation(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("NewHandler() error = nil, want missing service error")
	}
	if _, _, err := NewHandler(Config{APIEndpoint: "/x", MCPEndpoint: "x/"}, Dependencies{Service: newTestService(t)}); err == nil {
		t.Fatal("NewHandler() error = nil, want endpoint collision error")
	}
	if _, _, err := NewHandler(Config{RequestTimeout: -time.Second}, Dependencies{Service: newTestService(t)}); err == nil {
		t.Fatal("NewHandler() error = nil, want negative timeout error")
	}
}

// slowService blocks metrics calls until the request context ends.
type slowService struct {
	common.ReportingService
}

func (slowService) Metrics(ctx context.Context, _ common.MetricsRequest) (common.MetricsResult, error) {
	<-ctx.Done()
	return common.MetricsResult{}, ctx.Err()
}

// TestNewHandlerAppliesRequestTimeout verifies REST handlers are bounded by the configured timeout.
func TestNewHandlerAppliesRequestTimeout(t *testing.T) {
	handler, _, err := NewHandler(Config{RequestTimeout: 20 * time.Millisecond}, Dependencies{Service: slowService{newTestService(t)}})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/metrics?period=Q1-2024", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rec.Body.String(), `"timeout"`) {
		t.Fatalf("body = %q, want timeout error", rec.Body.String())
	}
}

// TestNormalizeEndpoint verifies endpoint path canonicalization.
func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":          "/api/v1",
		"/":         "/api/v1",
		"api/v2/":   "/api/v2",
		" /custom ": "/custom",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/api/v1"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRunStopsOnContextCancel verifies graceful shutdown when the context ends.
func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Service: newTestService(t)})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
