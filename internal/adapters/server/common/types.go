// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/hylla/csrpulse/internal/app"
	"github.com/hylla/csrpulse/internal/domain"
)

// ErrInvalidRequest reports malformed or semantically invalid transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports a lost optimistic-concurrency race.
var ErrConflict = errors.New("conflict")

// ErrUnavailable reports a surface with no backing service.
var ErrUnavailable = errors.New("service unavailable")

// ScopeRequest narrows computations to one program or one department.
type ScopeRequest struct {
	ProgramID    string `json:"programId,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
}

// Domain converts the request into a normalized domain scope.
func (s ScopeRequest) Domain() domain.Scope {
	return domain.Scope{ProgramID: s.ProgramID, DepartmentID: s.DepartmentID}.Normalize()
}

// PeriodResolution is one resolved period token plus its predecessor.
type PeriodResolution struct {
	domain.PeriodRange
	Previous string `json:"previousPeriod"`
}

// MetricsRequest asks for the metrics bundle of one period.
type MetricsRequest struct {
	Period string `json:"period"`
	ScopeRequest
}

// MetricsResult pairs a resolved period with its metrics.
type MetricsResult struct {
	Period  domain.PeriodRange   `json:"period"`
	Metrics domain.ReportMetrics `json:"metrics"`
}

// CompareRequest asks for a comparison between two period tokens.
type CompareRequest struct {
	Period1 string `json:"period1" validate:"required"`
	Period2 string `json:"period2" validate:"required"`
	ScopeRequest
}

// TrendRequest asks for a bucketed metric series. Explicit dates override the period's bounds.
type TrendRequest struct {
	Metric    string `json:"metric" validate:"required,trend_metric"`
	GroupBy   string `json:"groupBy" validate:"omitempty,trend_grouping"`
	StartDate string `json:"startDate" validate:"omitempty,report_date"`
	EndDate   string `json:"endDate" validate:"omitempty,report_date"`
	Period    string `json:"period"`
	ScopeRequest
}

// TrendResult is one generated series with the bounds it covers.
type TrendResult struct {
	Metric    string           `json:"metric"`
	GroupBy   string           `json:"groupBy"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Series    []app.TrendPoint `json:"series"`
}

// AnalyticsRequest asks for the dashboard payload.
type AnalyticsRequest struct {
	Period  string `json:"period"`
	Compare string `json:"compare"`
	ScopeRequest
}

// ListReportsRequest filters report listings.
type ListReportsRequest struct {
	Status string `json:"status" validate:"omitempty,report_status"`
	Type   string `json:"type" validate:"omitempty,report_type"`
	ScopeRequest
}

// CreateReportRequest is the create payload.
type CreateReportRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=2000"`
	Type         string   `json:"type" validate:"required,report_type"`
	Period       string   `json:"period" validate:"required"`
	StartDate    string   `json:"startDate" validate:"omitempty,report_date"`
	EndDate      string   `json:"endDate" validate:"omitempty,report_date"`
	ProgramID    string   `json:"programId"`
	DepartmentID string   `json:"departmentId"`
	Template     string   `json:"template"`
	Tags         []string `json:"tags" validate:"max=20,dive,max=50"`
}

// UpdateReportRequest is the metadata patch payload. Absent fields stay unchanged.
type UpdateReportRequest struct {
	ID                string    `json:"-" validate:"required"`
	Title             *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description       *string   `json:"description" validate:"omitempty,max=2000"`
	Status            *string   `json:"status" validate:"omitempty,report_status"`
	Period            *string   `json:"period" validate:"omitempty,min=1"`
	StartDate         *string   `json:"startDate" validate:"omitempty,report_date"`
	EndDate           *string   `json:"endDate" validate:"omitempty,report_date"`
	Template          *string   `json:"template"`
	Tags              *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	RegenerateContent bool      `json:"regenerateContent"`
}

// ExportRequest asks for one rendered report export.
type ExportRequest struct {
	ID     string `json:"id" validate:"required"`
	Format string `json:"format" validate:"omitempty,export_format"`
}

// ReportingService is the transport-facing surface shared by the REST and MCP adapters.
type ReportingService interface {
	ResolvePeriod(context.Context, string) (PeriodResolution, error)
	Metrics(context.Context, MetricsRequest) (MetricsResult, error)
	Compare(context.Context, CompareRequest) (app.PeriodComparison, error)
	Trend(context.Context, TrendRequest) (TrendResult, error)
	Analytics(context.Context, AnalyticsRequest) (app.Analytics, error)
	ListReports(context.Context, ListReportsRequest) ([]domain.Report, error)
	CreateReport(context.Context, CreateReportRequest) (domain.Report, error)
	GetReport(context.Context, string) (app.ReportView, error)
	UpdateReport(context.Context, UpdateReportRequest) (domain.Report, error)
	DeleteReport(context.Context, string) error
	ReportMetricsHistory(context.Context, string) ([]domain.MetricsSnapshot, error)
	ExportReport(context.Context, ExportRequest) (app.ReportExport, error)
}
