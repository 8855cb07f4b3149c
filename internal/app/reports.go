package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/csrpulse/internal/domain"
)

// CreateReportInput holds input values for create report operations.
type CreateReportInput struct {
	Title       string
	Description string
	Type        domain.ReportType
	Period      string
	StartDate   *time.Time
	EndDate     *time.Time
	Scope       domain.Scope
	Template    string
	Tags        []string
}

// UpdateReportInput holds a metadata patch. Nil fields are left unchanged.
// Period and date changes are only accepted together with RegenerateContent.
type UpdateReportInput struct {
	Title             *string
	Description       *string
	Status            *domain.ReportStatus
	Period            *string
	StartDate         *time.Time
	EndDate           *time.Time
	Template          *string
	Tags              *[]string
	RegenerateContent bool
}

// ReportView is a report with its current metrics snapshot.
type ReportView struct {
	Report         domain.Report           `json:"report"`
	CurrentMetrics *domain.MetricsSnapshot `json:"currentMetrics,omitempty"`
}

// CreateReport generates content and metrics, then stores the report with its first snapshot.
func (s *Service) CreateReport(ctx context.Context, in CreateReportInput) (domain.Report, error) {
	if strings.TrimSpace(in.Period) == "" {
		return domain.Report{}, fmt.Errorf("%w: period is required", ErrInvalidInput)
	}
	rng, err := reportRange(in.Period, in.StartDate, in.EndDate, s.now())
	if err != nil {
		return domain.Report{}, err
	}
	reportType := domain.NormalizeReportType(in.Type)
	if reportType == "" {
		return domain.Report{}, domain.ErrInvalidReportType
	}

	content, err := s.GenerateReportContent(ctx, ContentRequest{Type: reportType, Scope: in.Scope, Range: rng})
	if err != nil {
		return domain.Report{}, err
	}

	now := s.now()
	report, err := domain.NewReport(domain.ReportInput{
		ID:          s.idGen(),
		Title:       in.Title,
		Description: in.Description,
		Type:        reportType,
		Range:       rng,
		Scope:       in.Scope,
		Template:    in.Template,
		Tags:        in.Tags,
	}, content, content.Summary.Metrics, now)
	if err != nil {
		return domain.Report{}, err
	}
	snapshot, err := domain.NewMetricsSnapshot(s.snapshotIDGen(), report.ID, report.Version, report.Metrics, now)
	if err != nil {
		return domain.Report{}, err
	}
	if err := s.repos.Reports.CreateReport(ctx, report, snapshot); err != nil {
		return domain.Report{}, fmt.Errorf("create report: %w", err)
	}
	s.logger.Info("report created", "id", report.ID, "type", report.Type, "period", report.Period)
	return report, nil
}

// GetReport returns a report with its current snapshot and counts the view.
func (s *Service) GetReport(ctx context.Context, id string) (ReportView, error) {
	id = strings.TrimSpace(id)
	if err := s.repos.Reports.IncrementViewCount(ctx, id); err != nil {
		return ReportView{}, err
	}
	return s.reportView(ctx, id)
}

// PeekReport returns a report with its current snapshot without counting a view.
func (s *Service) PeekReport(ctx context.Context, id string) (ReportView, error) {
	return s.reportView(ctx, strings.TrimSpace(id))
}

func (s *Service) reportView(ctx context.Context, id string) (ReportView, error) {
	report, err := s.repos.Reports.GetReport(ctx, id)
	if err != nil {
		return ReportView{}, err
	}
	snapshots, err := s.repos.Reports.ListMetricsSnapshots(ctx, id)
	if err != nil {
		return ReportView{}, err
	}
	view := ReportView{Report: report}
	if len(snapshots) > 0 {
		current := snapshots[0]
		view.CurrentMetrics = &current
	}
	return view, nil
}

// UpdateReport applies a metadata patch and, when requested, regenerates content and metrics.
// Regeneration bumps the version by one and appends exactly one snapshot in the same transaction.
func (s *Service) UpdateReport(ctx context.Context, id string, in UpdateReportInput) (domain.Report, error) {
	report, err := s.repos.Reports.GetReport(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Report{}, err
	}
	now := s.now()

	if in.Title != nil {
		if err := report.Rename(*in.Title, now); err != nil {
			return domain.Report{}, err
		}
	}
	if in.Description != nil {
		report.Description = strings.TrimSpace(*in.Description)
	}
	if in.Template != nil {
		report.Template = strings.TrimSpace(*in.Template)
	}
	if in.Tags != nil {
		report.Tags = domain.NormalizeTags(*in.Tags)
	}
	if in.Status != nil {
		if err := report.SetStatus(*in.Status, now); err != nil {
			return domain.Report{}, err
		}
	}
	metadataChanged := in.Title != nil || in.Description != nil || in.Template != nil || in.Tags != nil || in.Status != nil
	periodChanged := in.Period != nil || in.StartDate != nil || in.EndDate != nil
	if periodChanged && !in.RegenerateContent {
		return domain.Report{}, fmt.Errorf("%w: changing the period requires regenerateContent", ErrInvalidInput)
	}
	report.UpdatedAt = now

	if !in.RegenerateContent {
		if err := s.repos.Reports.UpdateReport(ctx, report); err != nil {
			return domain.Report{}, fmt.Errorf("update report: %w", err)
		}
		return report, nil
	}

	if periodChanged {
		token := report.Period
		if in.Period != nil {
			token = *in.Period
		}
		start, end := in.StartDate, in.EndDate
		if in.Period == nil {
			start, end = keepDate(start, report.StartDate), keepDate(end, report.EndDate)
		}
		rng, err := reportRange(token, start, end, now)
		if err != nil {
			return domain.Report{}, err
		}
		if err := report.Reschedule(rng, now); err != nil {
			return domain.Report{}, err
		}
	}

	content, err := s.GenerateReportContent(ctx, ContentRequest{Type: report.Type, Scope: report.Scope(), Range: report.Range()})
	if err != nil {
		return domain.Report{}, err
	}
	expected := report.Version
	report.Regenerate(content, content.Summary.Metrics, now)
	snapshot, err := domain.NewMetricsSnapshot(s.snapshotIDGen(), report.ID, report.Version, report.Metrics, now)
	if err != nil {
		return domain.Report{}, err
	}
	if err := s.repos.Reports.RegenerateReport(ctx, report, expected, snapshot); err != nil {
		return domain.Report{}, fmt.Errorf("regenerate report: %w", err)
	}
	if metadataChanged {
		if err := s.repos.Reports.UpdateReport(ctx, report); err != nil {
			return domain.Report{}, fmt.Errorf("update report: %w", err)
		}
	}
	s.logger.Info("report regenerated", "id", report.ID, "version", report.Version)
	return report, nil
}

// RegenerateReport is UpdateReport with only RegenerateContent set.
func (s *Service) RegenerateReport(ctx context.Context, id string) (domain.Report, error) {
	return s.UpdateReport(ctx, id, UpdateReportInput{RegenerateContent: true})
}

// DeleteReport removes a report and its snapshots.
func (s *Service) DeleteReport(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repos.Reports.DeleteReport(ctx, id); err != nil {
		return err
	}
	s.logger.Info("report deleted", "id", id)
	return nil
}

// ListReports lists reports newest first.
func (s *Service) ListReports(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	if filter.Status != "" && domain.NormalizeReportStatus(filter.Status) == "" {
		return nil, domain.ErrInvalidReportStatus
	}
	if filter.Type != "" && domain.NormalizeReportType(filter.Type) == "" {
		return nil, domain.ErrInvalidReportType
	}
	filter.Status = domain.NormalizeReportStatus(filter.Status)
	filter.Type = domain.NormalizeReportType(filter.Type)
	filter.Scope = filter.Scope.Normalize()
	return s.repos.Reports.ListReports(ctx, filter)
}

// ReportMetricsHistory returns every snapshot of a report, newest first.
func (s *Service) ReportMetricsHistory(ctx context.Context, id string) ([]domain.MetricsSnapshot, error) {
	id = strings.TrimSpace(id)
	if _, err := s.repos.Reports.GetReport(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Reports.ListMetricsSnapshots(ctx, id)
}

// reportRange resolves token and applies explicit date overrides.
func reportRange(token string, start, end *time.Time, now time.Time) (domain.PeriodRange, error) {
	rng := domain.ResolvePeriod(token, now)
	if start != nil {
		rng.Start = start.UTC()
	}
	if end != nil {
		rng.End = end.UTC()
	}
	if rng.End.Before(rng.Start) {
		return domain.PeriodRange{}, fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidRange, rng.End.Format(dateLayout), rng.Start.Format(dateLayout))
	}
	return rng, nil
}

func keepDate(patch *time.Time, current time.Time) *time.Time {
	if patch != nil {
		return patch
	}
	return &current
}

// IsValidationError reports whether err is a caller mistake rather than a runtime failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrInvalidName) ||
		errors.Is(err, domain.ErrInvalidTitle) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidReportType) ||
		errors.Is(err, domain.ErrInvalidReportStatus) ||
		errors.Is(err, domain.ErrInvalidPeriod) ||
		errors.Is(err, domain.ErrInvalidDateRange) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrInvalidProgress) ||
		errors.Is(err, domain.ErrInvalidReference)
}
