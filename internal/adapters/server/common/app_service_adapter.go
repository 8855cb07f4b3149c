package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/csrpulse/internal/app"
	"github.com/hylla/csrpulse/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service reporting APIs.
type AppServiceAdapter struct {
	service *app.Service
	now     func() time.Time
}

var _ ReportingService = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
// now resolves relative period tokens and defaults to time.Now.
func NewAppServiceAdapter(service *app.Service, now func() time.Time) *AppServiceAdapter {
	if now == nil {
		now = time.Now
	}
	return &AppServiceAdapter{service: service, now: now}
}

// ResolvePeriod resolves one period token against the adapter clock.
func (a *AppServiceAdapter) ResolvePeriod(_ context.Context, token string) (PeriodResolution, error) {
	rng := domain.ResolvePeriod(token, a.now())
	return PeriodResolution{PeriodRange: rng, Previous: domain.PreviousPeriod(rng.Token)}, nil
}

// Metrics computes the metrics bundle for one resolved period.
func (a *AppServiceAdapter) Metrics(ctx context.Context, in MetricsRequest) (MetricsResult, error) {
	if err := a.ready(); err != nil {
		return MetricsResult{}, err
	}
	rng := domain.ResolvePeriod(in.Period, a.now())
	metrics, err := a.service.CalculateMetrics(ctx, in.Domain(), rng.Window())
	if err != nil {
		return MetricsResult{}, mapAppError("calculate metrics", err)
	}
	return MetricsResult{Period: rng, Metrics: metrics}, nil
}

// Compare compares two periods.
func (a *AppServiceAdapter) Compare(ctx context.Context, in CompareRequest) (app.PeriodComparison, error) {
	if err := a.ready(); err != nil {
		return app.PeriodComparison{}, err
	}
	if err := ValidateRequest(in); err != nil {
		return app.PeriodComparison{}, err
	}
	out, err := a.service.ComparePeriods(ctx, in.Period1, in.Period2, in.Domain())
	if err != nil {
		return app.PeriodComparison{}, mapAppError("compare periods", err)
	}
	return out, nil
}

// Trend generates a bucketed series. Missing bounds fall back to the resolved period.
func (a *AppServiceAdapter) Trend(ctx context.Context, in TrendRequest) (TrendResult, error) {
	if err := a.ready(); err != nil {
		return TrendResult{}, err
	}
	if err := ValidateRequest(in); err != nil {
		return TrendResult{}, err
	}
	rng := domain.ResolvePeriod(in.Period, a.now())
	start, end := rng.Start, rng.End
	if in.StartDate != "" {
		start, _ = domain.ParseDate(in.StartDate)
	}
	if in.EndDate != "" {
		end, _ = domain.ParseDate(in.EndDate)
	}
	metric, _ := app.ParseTrendMetric(in.Metric)
	groupBy, _ := app.ParseTrendGrouping(in.GroupBy)

	series, err := a.service.TrendSeries(ctx, app.TrendRequest{
		Metric:  metric,
		GroupBy: groupBy,
		Start:   start,
		End:     end,
		Scope:   in.Domain(),
	})
	if err != nil {
		return TrendResult{}, mapAppError("trend series", err)
	}
	return TrendResult{
		Metric:    string(metric),
		GroupBy:   string(groupBy),
		StartDate: start.Format(time.DateOnly),
		EndDate:   end.Format(time.DateOnly),
		Series:    series,
	}, nil
}

// Analytics builds the dashboard payload.
func (a *AppServiceAdapter) Analytics(ctx context.Context, in AnalyticsRequest) (app.Analytics, error) {
	if err := a.ready(); err != nil {
		return app.Analytics{}, err
	}
	out, err := a.service.Analytics(ctx, app.AnalyticsRequest{
		Period:  strings.TrimSpace(in.Period),
		Scope:   in.Domain(),
		Compare: strings.TrimSpace(in.Compare),
	})
	if err != nil {
		return app.Analytics{}, mapAppError("analytics", err)
	}
	return out, nil
}

// ListReports lists reports newest first.
func (a *AppServiceAdapter) ListReports(ctx context.Context, in ListReportsRequest) ([]domain.Report, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if err := ValidateRequest(in); err != nil {
		return nil, err
	}
	filter := app.ReportFilter{Scope: in.Domain()}
	if in.Status != "" {
		filter.Status = domain.NormalizeReportStatus(domain.ReportStatus(in.Status))
	}
	if in.Type != "" {
		filter.Type = domain.NormalizeReportType(domain.ReportType(in.Type))
	}
	reports, err := a.service.ListReports(ctx, filter)
	if err != nil {
		return nil, mapAppError("list reports", err)
	}
	return reports, nil
}

// CreateReport validates and creates one report.
func (a *AppServiceAdapter) CreateReport(ctx context.Context, in CreateReportRequest) (domain.Report, error) {
	if err := a.ready(); err != nil {
		return domain.Report{}, err
	}
	if err := ValidateRequest(in); err != nil {
		return domain.Report{}, err
	}
	report, err := a.service.CreateReport(ctx, app.CreateReportInput{
		Title:       in.Title,
		Description: in.Description,
		Type:        domain.ReportType(in.Type),
		Period:      in.Period,
		StartDate:   optionalDate(in.StartDate),
		EndDate:     optionalDate(in.EndDate),
		Scope:       ScopeRequest{ProgramID: in.ProgramID, DepartmentID: in.DepartmentID}.Domain(),
		Template:    in.Template,
		Tags:        in.Tags,
	})
	if err != nil {
		return domain.Report{}, mapAppError("create report", err)
	}
	return report, nil
}

// GetReport returns one report with its current snapshot and counts the view.
func (a *AppServiceAdapter) GetReport(ctx context.Context, id string) (app.ReportView, error) {
	if err := a.ready(); err != nil {
		return app.ReportView{}, err
	}
	if strings.TrimSpace(id) == "" {
		return app.ReportView{}, fmt.Errorf("%w: report id is required", ErrInvalidRequest)
	}
	view, err := a.service.GetReport(ctx, id)
	if err != nil {
		return app.ReportView{}, mapAppError("get report", err)
	}
	return view, nil
}

// UpdateReport applies one metadata patch and optional regeneration.
func (a *AppServiceAdapter) UpdateReport(ctx context.Context, in UpdateReportRequest) (domain.Report, error) {
	if err := a.ready(); err != nil {
		return domain.Report{}, err
	}
	in.ID = strings.TrimSpace(in.ID)
	if err := ValidateRequest(in); err != nil {
		return domain.Report{}, err
	}
	patch := app.UpdateReportInput{
		Title:             in.Title,
		Description:       in.Description,
		Period:            in.Period,
		Template:          in.Template,
		Tags:              in.Tags,
		RegenerateContent: in.RegenerateContent,
	}
	if in.Status != nil {
		status := domain.ReportStatus(*in.Status)
		patch.Status = &status
	}
	if in.StartDate != nil {
		patch.StartDate = optionalDate(*in.StartDate)
	}
	if in.EndDate != nil {
		patch.EndDate = optionalDate(*in.EndDate)
	}
	report, err := a.service.UpdateReport(ctx, in.ID, patch)
	if err != nil {
		return domain.Report{}, mapAppError("update report", err)
	}
	return report, nil
}

// DeleteReport removes one report and its snapshots.
func (a *AppServiceAdapter) DeleteReport(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: report id is required", ErrInvalidRequest)
	}
	return mapAppError("delete report", a.service.DeleteReport(ctx, id))
}

// ReportMetricsHistory lists every snapshot of one report, newest first.
func (a *AppServiceAdapter) ReportMetricsHistory(ctx context.Context, id string) ([]domain.MetricsSnapshot, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	snaps, err := a.service.ReportMetricsHistory(ctx, id)
	if err != nil {
		return nil, mapAppError("report metrics history", err)
	}
	return snaps, nil
}

// ExportReport renders one report export.
func (a *AppServiceAdapter) ExportReport(ctx context.Context, in ExportRequest) (app.ReportExport, error) {
	if err := a.ready(); err != nil {
		return app.ReportExport{}, err
	}
	if err := ValidateRequest(in); err != nil {
		return app.ReportExport{}, err
	}
	format, _ := app.ParseExportFormat(in.Format)
	out, err := a.service.ExportReport(ctx, in.ID, format)
	if err != nil {
		return app.ReportExport{}, mapAppError("export report", err)
	}
	return out, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

// optionalDate parses a pre-validated date; empty input yields nil.
func optionalDate(raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}

// mapAppError maps app/domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrConflict):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case app.IsValidationError(err):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
