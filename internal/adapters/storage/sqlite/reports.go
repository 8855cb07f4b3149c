package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hylla/csrpulse/internal/app"
	"github.com/hylla/csrpulse/internal/domain"
)

const reportColumns = `id, title, description, type, status, period, period_label, start_date, end_date, program_id, department_id,
	template, tags_json, content_json, metrics_json, version, view_count, download_count,
	created_at, updated_at, submitted_at, reviewed_at, approved_at, published_at`

const metricColumns = `total_budget, budget_used, budget_remaining, budget_percentage,
	total_programs, active_programs, completed_programs, program_completion_rate,
	total_activities, completed_activities, ongoing_activities, activity_completion_rate,
	total_stakeholders, total_beneficiaries, average_satisfaction,
	social_impact, environmental_impact, economic_impact, overall_impact`

// CreateReport inserts a report together with its first metrics snapshot.
func (r *Repository) CreateReport(ctx context.Context, report domain.Report, snapshot domain.MetricsSnapshot) error {
	tags, content, metrics, err := encodeReportJSON(report)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reports(`+reportColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, report.ID, report.Title, report.Description, string(report.Type), string(report.Status),
			report.Period, report.PeriodLabel, ts(report.StartDate), ts(report.EndDate), report.ProgramID, report.DepartmentID,
			report.Template, tags, content, metrics, report.Version, report.ViewCount, report.DownloadCount,
			ts(report.CreatedAt), ts(report.UpdatedAt),
			nullableTS(report.SubmittedAt), nullableTS(report.ReviewedAt), nullableTS(report.ApprovedAt), nullableTS(report.PublishedAt))
		if err != nil {
			return fmt.Errorf("insert report %q: %w", report.ID, err)
		}
		return insertSnapshot(ctx, tx, snapshot)
	})
}

// UpdateReport persists metadata and workflow fields only.
func (r *Repository) UpdateReport(ctx context.Context, report domain.Report) error {
	tags, err := json.Marshal(tagsOrEmpty(report.Tags))
	if err != nil {
		return fmt.Errorf("encode report tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE reports
		SET title = ?, description = ?, status = ?, template = ?, tags_json = ?, updated_at = ?,
			submitted_at = ?, reviewed_at = ?, approved_at = ?, published_at = ?
		WHERE id = ?
	`, report.Title, report.Description, string(report.Status), report.Template, string(tags), ts(report.UpdatedAt),
		nullableTS(report.SubmittedAt), nullableTS(report.ReviewedAt), nullableTS(report.ApprovedAt), nullableTS(report.PublishedAt),
		report.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// RegenerateReport swaps in new content and metrics when the stored version
// still equals expectedVersion, and records the snapshot in the same transaction.
// Title, status, tags and workflow stamps are left as stored.
func (r *Repository) RegenerateReport(ctx context.Context, report domain.Report, expectedVersion int, snapshot domain.MetricsSnapshot) error {
	_, content, metrics, err := encodeReportJSON(report)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE reports
			SET period = ?, period_label = ?, start_date = ?, end_date = ?,
				content_json = ?, metrics_json = ?, version = ?, updated_at = ?
			WHERE id = ? AND version = ?
		`, report.Period, report.PeriodLabel, ts(report.StartDate), ts(report.EndDate),
			content, metrics, report.Version, ts(report.UpdatedAt),
			report.ID, expectedVersion)
		if err != nil {
			return err
		}
		if err := translateNoRows(res); err != nil {
			if !errors.Is(err, app.ErrNotFound) {
				return err
			}
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM reports WHERE id = ?`, report.ID).Scan(&exists); err != nil {
				return err
			}
			if exists == 0 {
				return app.ErrNotFound
			}
			return fmt.Errorf("report %q is no longer at version %d: %w", report.ID, expectedVersion, app.ErrConflict)
		}
		return insertSnapshot(ctx, tx, snapshot)
	})
}

// GetReport returns report.
func (r *Repository) GetReport(ctx context.Context, id string) (domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	return scanReport(row)
}

// ListReports lists reports newest first.
func (r *Repository) ListReports(ctx context.Context, filter app.ReportFilter) ([]domain.Report, error) {
	var w where
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		w.add("type = ?", string(filter.Type))
	}
	if scope := filter.Scope.Normalize(); scope.ProgramID != "" {
		w.add("program_id = ?", scope.ProgramID)
	}
	if scope := filter.Scope.Normalize(); scope.DepartmentID != "" {
		w.add("department_id = ?", scope.DepartmentID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

// DeleteReport removes a report and every snapshot that references it.
func (r *Repository) DeleteReport(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM report_metrics WHERE report_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return translateNoRows(res)
	})
}

// ListMetricsSnapshots returns snapshots for reportID, newest first.
func (r *Repository) ListMetricsSnapshots(ctx context.Context, reportID string) ([]domain.MetricsSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, report_id, report_version, `+metricColumns+`, created_at
		FROM report_metrics
		WHERE report_id = ?
		ORDER BY created_at DESC, id DESC
	`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.MetricsSnapshot{}
	for rows.Next() {
		var (
			snap       domain.MetricsSnapshot
			createdRaw string
		)
		dest := append([]any{&snap.ID, &snap.ReportID, &snap.ReportVersion}, metricDest(&snap.Metrics)...)
		dest = append(dest, &createdRaw)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		snap.CreatedAt = parseTS(createdRaw)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// IncrementViewCount bumps the view counter in place.
func (r *Repository) IncrementViewCount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// IncrementDownloadCount bumps the download counter in place.
func (r *Repository) IncrementDownloadCount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET download_count = download_count + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// insertSnapshot writes one immutable report_metrics row.
func insertSnapshot(ctx context.Context, exec execerContext, snap domain.MetricsSnapshot) error {
	args := append([]any{snap.ID, snap.ReportID, snap.ReportVersion}, metricArgs(snap.Metrics)...)
	args = append(args, ts(snap.CreatedAt))
	_, err := exec.ExecContext(ctx, `
		INSERT INTO report_metrics(id, report_id, report_version, `+metricColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return fmt.Errorf("insert metrics snapshot for %q: %w", snap.ReportID, err)
	}
	return nil
}

// metricArgs lists m in metricColumns order.
func metricArgs(m domain.ReportMetrics) []any {
	return []any{
		m.TotalBudget, m.BudgetUsed, m.BudgetRemaining, m.BudgetPercentage,
		m.TotalPrograms, m.ActivePrograms, m.CompletedPrograms, m.ProgramCompletionRate,
		m.TotalActivities, m.CompletedActivities, m.OngoingActivities, m.ActivityCompletionRate,
		m.TotalStakeholders, m.TotalBeneficiaries, m.AverageSatisfaction,
		m.SocialImpact, m.EnvironmentalImpact, m.EconomicImpact, m.OverallImpact,
	}
}

// metricDest lists pointers into m in metricColumns order.
func metricDest(m *domain.ReportMetrics) []any {
	return []any{
		&m.TotalBudget, &m.BudgetUsed, &m.BudgetRemaining, &m.BudgetPercentage,
		&m.TotalPrograms, &m.ActivePrograms, &m.CompletedPrograms, &m.ProgramCompletionRate,
		&m.TotalActivities, &m.CompletedActivities, &m.OngoingActivities, &m.ActivityCompletionRate,
		&m.TotalStakeholders, &m.TotalBeneficiaries, &m.AverageSatisfaction,
		&m.SocialImpact, &m.EnvironmentalImpact, &m.EconomicImpact, &m.OverallImpact,
	}
}

func encodeReportJSON(report domain.Report) (tags, content, metrics string, err error) {
	tagsJSON, err := json.Marshal(tagsOrEmpty(report.Tags))
	if err != nil {
		return "", "", "", fmt.Errorf("encode report tags: %w", err)
	}
	contentJSON, err := json.Marshal(report.Content)
	if err != nil {
		return "", "", "", fmt.Errorf("encode report content: %w", err)
	}
	metricsJSON, err := json.Marshal(report.Metrics)
	if err != nil {
		return "", "", "", fmt.Errorf("encode report metrics: %w", err)
	}
	return string(tagsJSON), string(contentJSON), string(metricsJSON), nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// scanReport handles scan report.
func scanReport(s scanner) (domain.Report, error) {
	var (
		report       domain.Report
		reportType   string
		status       string
		startRaw     string
		endRaw       string
		tagsRaw      string
		contentRaw   string
		metricsRaw   string
		createdRaw   string
		updatedRaw   string
		submittedRaw sql.NullString
		reviewedRaw  sql.NullString
		approvedRaw  sql.NullString
		publishedRaw sql.NullString
	)
	if err := s.Scan(
		&report.ID,
		&report.Title,
		&report.Description,
		&reportType,
		&status,
		&report.Period,
		&report.PeriodLabel,
		&startRaw,
		&endRaw,
		&report.ProgramID,
		&report.DepartmentID,
		&report.Template,
		&tagsRaw,
		&contentRaw,
		&metricsRaw,
		&report.Version,
		&report.ViewCount,
		&report.DownloadCount,
		&createdRaw,
		&updatedRaw,
		&submittedRaw,
		&reviewedRaw,
		&approvedRaw,
		&publishedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Report{}, app.ErrNotFound
		}
		return domain.Report{}, err
	}
	report.Type = domain.ReportType(reportType)
	report.Status = domain.ReportStatus(status)
	report.StartDate = parseTS(startRaw)
	report.EndDate = parseTS(endRaw)
	report.CreatedAt = parseTS(createdRaw)
	report.UpdatedAt = parseTS(updatedRaw)
	report.SubmittedAt = parseNullTS(submittedRaw)
	report.ReviewedAt = parseNullTS(reviewedRaw)
	report.ApprovedAt = parseNullTS(approvedRaw)
	report.PublishedAt = parseNullTS(publishedRaw)
	if err := json.Unmarshal([]byte(tagsRaw), &report.Tags); err != nil {
		return domain.Report{}, fmt.Errorf("decode tags_json: %w", err)
	}
	if err := json.Unmarshal([]byte(contentRaw), &report.Content); err != nil {
		return domain.Report{}, fmt.Errorf("decode content_json: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsRaw), &report.Metrics); err != nil {
		return domain.Report{}, fmt.Errorf("decode metrics_json: %w", err)
	}
	return report, nil
}
