// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hylla/csrpulse/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	service common.ReportingService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// SuccessEnvelope wraps one successful payload.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// NewHandler constructs one HTTP API adapter over the reporting service.
func NewHandler(service common.ReportingService) *Handler {
	return &Handler{service: service}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeErrorFrom(w, common.ErrUnavailable)
		return
	}
	path := normalizePath(r.URL.Path)
	switch path {
	case "analytics":
		getOnly(w, r, h.handleAnalytics)
		return
	case "analytics/metrics":
		getOnly(w, r, h.handleMetrics)
		return
	case "analytics/compare":
		getOnly(w, r, h.handleCompare)
		return
	case "analytics/trends":
		getOnly(w, r, h.handleTrend)
		return
	case "periods/resolve":
		getOnly(w, r, h.handleResolvePeriod)
		return
	case "reports":
		switch r.Method {
		case http.MethodGet:
			h.handleListReports(w, r)
		case http.MethodPost:
			h.handleCreateReport(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}

	id, sub, ok := resolveReportPath(path)
	if !ok {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
		return
	}
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.handleGetReport(w, r, id)
		case http.MethodPatch:
			h.handleUpdateReport(w, r, id)
		case http.MethodDelete:
			h.handleDeleteReport(w, r, id)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case "metrics":
		getOnly(w, r, func(w http.ResponseWriter, r *http.Request) { h.handleMetricsHistory(w, r, id) })
	case "export":
		getOnly(w, r, func(w http.ResponseWriter, r *http.Request) { h.handleExport(w, r, id) })
	}
}

// handleAnalytics serves GET `/analytics`.
func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.Analytics(r.Context(), common.AnalyticsRequest{
		Period:       q.Get("period"),
		Compare:      q.Get("compare"),
		ScopeRequest: scopeFromQuery(q),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// handleMetrics serves GET `/analytics/metrics`.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.Metrics(r.Context(), common.MetricsRequest{
		Period:       q.Get("period"),
		ScopeRequest: scopeFromQuery(q),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// handleCompare serves GET `/analytics/compare`.
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.Compare(r.Context(), common.CompareRequest{
		Period1:      strings.TrimSpace(q.Get("period1")),
		Period2:      strings.TrimSpace(q.Get("period2")),
		ScopeRequest: scopeFromQuery(q),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// handleTrend serves GET `/analytics/trends`.
func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.Trend(r.Context(), common.TrendRequest{
		Metric:       strings.TrimSpace(q.Get("metric")),
		GroupBy:      strings.TrimSpace(q.Get("groupBy")),
		StartDate:    strings.TrimSpace(q.Get("startDate")),
		EndDate:      strings.TrimSpace(q.Get("endDate")),
		Period:       q.Get("period"),
		ScopeRequest: scopeFromQuery(q),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// handleResolvePeriod serves GET `/periods/resolve`.
func (h *Handler) handleResolvePeriod(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ResolvePeriod(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// handleListReports serves GET `/reports`.
func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := h.service.ListReports(r.Context(), common.ListReportsRequest{
		Status:       strings.TrimSpace(q.Get("status")),
		Type:         strings.TrimSpace(q.Get("type")),
		ScopeRequest: scopeFromQuery(q),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, reports)
}

// handleCreateReport serves POST `/reports`.
func (h *Handler) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req common.CreateReportRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	report, err := h.service.CreateReport(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusCreated, report)
}

// handleGetReport serves GET `/reports/{id}`.
func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request, id string) {
	view, err := h.service.GetReport(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

// handleUpdateReport serves PATCH `/reports/{id}`.
func (h *Handler) handleUpdateReport(w http.ResponseWriter, r *http.Request, id string) {
	var req common.UpdateReportRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.ID = id
	report, err := h.service.UpdateReport(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

// handleDeleteReport serves DELETE `/reports/{id}`.
func (h *Handler) handleDeleteReport(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteReport(r.Context(), id); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

// handleMetricsHistory serves GET `/reports/{id}/metrics`.
func (h *Handler) handleMetricsHistory(w http.ResponseWriter, r *http.Request, id string) {
	snaps, err := h.service.ReportMetricsHistory(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeData(w, http.StatusOK, snaps)
}

// handleExport serves GET `/reports/{id}/export` as a raw download.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	out, err := h.service.ExportReport(r.Context(), common.ExportRequest{
		ID:     id,
		Format: strings.TrimSpace(r.URL.Query().Get("format")),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

// getOnly rejects every method except GET before delegating.
func getOnly(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	next(w, r)
}

func scopeFromQuery(q url.Values) common.ScopeRequest {
	return common.ScopeRequest{
		ProgramID:    strings.TrimSpace(q.Get("programId")),
		DepartmentID: strings.TrimSpace(q.Get("departmentId")),
	}
}

// resolveReportPath parses `reports/{id}` and `reports/{id}/{metrics|export}`.
func resolveReportPath(path string) (string, string, bool) {
	rest, ok := strings.CutPrefix(path, "reports/")
	if !ok {
		return "", "", false
	}
	id, sub, _ := strings.Cut(rest, "/")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", false
	}
	switch sub {
	case "", "metrics", "export":
		return id, sub, true
	default:
		return "", "", false
	}
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrConflict):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "conflict",
			Message: err.Error(),
			Hint:    "Reload the report and retry the regeneration.",
		})
	case errors.Is(err, common.ErrUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "timeout",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeData writes one success envelope.
func writeData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, SuccessEnvelope{Success: true, Data: data})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
