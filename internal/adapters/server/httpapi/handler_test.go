package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hylla/csrpulse/internal/adapters/server/common"
	"github.com/hylla/csrpulse/internal/app"
	"github.com/hylla/csrpulse/internal/domain"
)

// stubReportingService records requests and returns configured fixtures.
type stubReportingService struct {
	err error

	report  domain.Report
	reports []domain.Report
	export  app.ReportExport

	lastPeriod  string
	lastMetrics common.MetricsRequest
	lastCompare common.CompareRequest
	lastTrend   common.TrendRequest
	lastList    common.ListReportsRequest
	lastCreate  common.CreateReportRequest
	lastUpdate  common.UpdateReportRequest
	lastExport  common.ExportRequest
	lastID      string
}

func (s *stubReportingService) ResolvePeriod(_ context.Context, token string) (common.PeriodResolution, error) {
	s.lastPeriod = token
	if s.err != nil {
		return common.PeriodResolution{}, s.err
	}
	rng := domain.ResolvePeriod(token, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	return common.PeriodResolution{PeriodRange: rng, Previous: domain.PreviousPeriod(rng.Token)}, nil
}

func (s *stubReportingService) Metrics(_ context.Context, in common.MetricsRequest) (common.MetricsResult, error) {
	s.lastMetrics = in
	if s.err != nil {
		return common.MetricsResult{}, s.err
	}
	return common.MetricsResult{Metrics: domain.ReportMetrics{TotalBudget: 1000}}, nil
}

func (s *stubReportingService) Compare(_ context.Context, in common.CompareRequest) (app.PeriodComparison, error) {
	s.lastCompare = in
	if s.err != nil {
		return app.PeriodComparison{}, s.err
	}
	return app.PeriodComparison{Comparison: app.ComparisonDeltas{BudgetChange: 100}}, nil
}

func (s *stubReportingService) Trend(_ context.Context, in common.TrendRequest) (common.TrendResult, error) {
	s.lastTrend = in
	if s.err != nil {
		return common.TrendResult{}, s.err
	}
	return common.TrendResult{Metric: in.Metric, Series: []app.TrendPoint{{Period: "Januari 2024", Value: 5}}}, nil
}

func (s *stubReportingService) Analytics(_ context.Context, _ common.AnalyticsRequest) (app.Analytics, error) {
	if s.err != nil {
		return app.Analytics{}, s.err
	}
	return app.Analytics{}, nil
}

func (s *stubReportingService) ListReports(_ context.Context, in common.ListReportsRequest) ([]domain.Report, error) {
	s.lastList = in
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Report(nil), s.reports...), nil
}

func (s *stubReportingService) CreateReport(_ context.Context, in common.CreateReportRequest) (domain.Report, error) {
	s.lastCreate = in
	if s.err != nil {
		return domain.Report{}, s.err
	}
	return s.report, nil
}

func (s *stubReportingService) GetReport(_ context.Context, id string) (app.ReportView, error) {
	s.lastID = id
	if s.err != nil {
		return app.ReportView{}, s.err
	}
	return app.ReportView{Report: s.report}, nil
}

func (s *stubReportingService) UpdateReport(_ context.Context, in common.UpdateReportRequest) (domain.Report, error) {
	s.lastUpdate = in
	if s.err != nil {
		return domain.Report{}, s.err
	}
	return s.report, nil
}

func (s *stubReportingService) DeleteReport(_ context.Context, id string) error {
	s.lastID = id
	return s.err
}

func (s *stubReportingService) ReportMetricsHistory(_ context.Context, id string) ([]domain.MetricsSnapshot, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return []domain.MetricsSnapshot{{ID: "m2", ReportID: id, ReportVersion: 2}, {ID: "m1", ReportID: id, ReportVersion: 1}}, nil
}

func (s *stubReportingService) ExportReport(_ context.Context, in common.ExportRequest) (app.ReportExport, error) {
	s.lastExport = in
	if s.err != nil {
		return app.ReportExport{}, s.err
	}
	return s.export, nil
}

// envelope mirrors SuccessEnvelope with a typed payload.
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// serve runs one request through a handler.
func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeRecorder[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return out
}

// TestHandlerAnalyticsRoutes verifies query mapping for the analytics endpoints.
func TestHandlerAnalyticsRoutes(t *testing.T) {
	svc := &stubReportingService{}
	h := NewHandler(svc)

	rec := serve(t, h, http.MethodGet, "/analytics/metrics?period=Q1-2024&programId=p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decodeRecorder[envelope[common.MetricsResult]](t, rec)
	if !got.Success || got.Data.Metrics.TotalBudget != 1000 {
		t.Fatalf("unexpected metrics envelope %#v", got)
	}
	if svc.lastMetrics.Period != "Q1-2024" || svc.lastMetrics.ProgramID != "p1" {
		t.Fatalf("unexpected metrics request %#v", svc.lastMetrics)
	}

	rec = serve(t, h, http.MethodGet, "/analytics/compare?period1=Q1-2024&period2=Q4-2023&departmentId=d1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("compare status = %d", rec.Code)
	}
	if svc.lastCompare.Period1 != "Q1-2024" || svc.lastCompare.Period2 != "Q4-2023" || svc.lastCompare.DepartmentID != "d1" {
		t.Fatalf("unexpected compare request %#v", svc.lastCompare)
	}

	rec = serve(t, h, http.MethodGet, "/analytics/trends?metric=budget&groupBy=quarter&startDate=2024-01-01&endDate=2024-12-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("trend status = %d", rec.Code)
	}
	if svc.lastTrend.GroupBy != "quarter" || svc.lastTrend.StartDate != "2024-01-01" || svc.lastTrend.EndDate != "2024-12-31" {
		t.Fatalf("unexpected trend request %#v", svc.lastTrend)
	}

	rec = serve(t, h, http.MethodGet, "/analytics?period=2024", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics status = %d", rec.Code)
	}

	rec = serve(t, h, http.MethodGet, "/periods/resolve?period=Jan-2024", "")
	res := decodeRecorder[envelope[common.PeriodResolution]](t, rec)
	if res.Data.Token != "Jan-2024" || res.Data.Previous != "Dec-2023" {
		t.Fatalf("unexpected resolution %#v", res.Data)
	}
}

// TestHandlerReportCRUD verifies report create, read, patch, delete, and history routes.
func TestHandlerReportCRUD(t *testing.T) {
	svc := &stubReportingService{
		report:  domain.Report{ID: "r1", Title: "Laporan", Version: 1},
		reports: []domain.Report{{ID: "r1"}},
	}
	h := NewHandler(svc)

	rec := serve(t, h, http.MethodPost, "/reports", `{"title":"Laporan","type":"monthly","period":"Jan-2024","tags":["a"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if svc.lastCreate.Title != "Laporan" || len(svc.lastCreate.Tags) != 1 {
		t.Fatalf("unexpected create request %#v", svc.lastCreate)
	}

	rec = serve(t, h, http.MethodGet, "/reports?status=draft&type=monthly", "")
	list := decodeRecorder[envelope[[]domain.Report]](t, rec)
	if len(list.Data) != 1 || svc.lastList.Status != "draft" || svc.lastList.Type != "monthly" {
		t.Fatalf("unexpected list %#v / %#v", list, svc.lastList)
	}

	rec = serve(t, h, http.MethodGet, "/reports/r1", "")
	view := decodeRecorder[envelope[app.ReportView]](t, rec)
	if view.Data.Report.ID != "r1" || svc.lastID != "r1" {
		t.Fatalf("unexpected view %#v", view)
	}

	rec = serve(t, h, http.MethodPatch, "/reports/r1", `{"status":"review","regenerateContent":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d", rec.Code)
	}
	if svc.lastUpdate.ID != "r1" || svc.lastUpdate.Status == nil || *svc.lastUpdate.Status != "review" || !svc.lastUpdate.RegenerateContent {
		t.Fatalf("unexpected update request %#v", svc.lastUpdate)
	}

	rec = serve(t, h, http.MethodGet, "/reports/r1/metrics", "")
	history := decodeRecorder[envelope[[]domain.MetricsSnapshot]](t, rec)
	if len(history.Data) != 2 || history.Data[0].ReportVersion != 2 {
		t.Fatalf("unexpected history %#v", history.Data)
	}

	rec = serve(t, h, http.MethodDelete, "/reports/r1", "")
	if rec.Code != http.StatusOK || svc.lastID != "r1" {
		t.Fatalf("delete status = %d id = %q", rec.Code, svc.lastID)
	}
}

// TestHandlerExportWritesRawBody verifies downloads bypass the JSON envelope.
func TestHandlerExportWritesRawBody(t *testing.T) {
	svc := &stubReportingService{
		export: app.ReportExport{
			Format:      app.ExportFormatCSV,
			Filename:    "laporan-jan-2024.csv",
			ContentType: "text/csv; charset=utf-8",
			Body:        []byte("field,value\nid,r1\n"),
		},
	}
	rec := serve(t, NewHandler(svc), http.MethodGet, "/reports/r1/export?format=csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("content-type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="laporan-jan-2024.csv"` {
		t.Fatalf("content-disposition = %q", got)
	}
	if rec.Body.String() != "field,value\nid,r1\n" {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if svc.lastExport.ID != "r1" || svc.lastExport.Format != "csv" {
		t.Fatalf("unexpected export request %#v", svc.lastExport)
	}
}

// TestHandlerErrorMapping verifies structured status mapping for service errors.
func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid request",
			err:        errors.Join(common.ErrInvalidRequest, errors.New("bad input")),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "not found",
			err:        errors.Join(common.ErrNotFound, errors.New("missing")),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "conflict",
			err:        errors.Join(common.ErrConflict, errors.New("stale version")),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
		{
			name:       "internal error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, NewHandler(&stubReportingService{err: tc.err}), http.MethodGet, "/reports/r1", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			got := decodeRecorder[ErrorEnvelope](t, rec)
			if got.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", got.Error.Code, tc.wantCode)
			}
		})
	}
}

// TestHandlerRoutingFailures verifies unknown routes, bad methods, and malformed bodies.
func TestHandlerRoutingFailures(t *testing.T) {
	h := NewHandler(&stubReportingService{})

	rec := serve(t, h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route status = %d", rec.Code)
	}
	rec = serve(t, h, http.MethodGet, "/reports/r1/pdf", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown sub-route status = %d", rec.Code)
	}

	rec = serve(t, h, http.MethodPut, "/reports", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT /reports status = %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Fatalf("Allow = %q", got)
	}
	rec = serve(t, h, http.MethodPost, "/analytics/metrics", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST metrics status = %d", rec.Code)
	}

	rec = serve(t, h, http.MethodPost, "/reports", `{"title":"x","unknown":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", rec.Code)
	}
	rec = serve(t, h, http.MethodPost, "/reports", `{"title":"x"}{"title":"y"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("trailing content status = %d", rec.Code)
	}

	rec = serve(t, NewHandler(nil), http.MethodGet, "/reports", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil service status = %d", rec.Code)
	}
}
