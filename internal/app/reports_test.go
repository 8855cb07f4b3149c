package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hylla/csrpulse/internal/domain"
)

func createTestReport(t *testing.T, svc *Service, in CreateReportInput) domain.Report {
	t.Helper()
	if in.Title == "" {
		in.Title = "Laporan Triwulan"
	}
	if in.Type == "" {
		in.Type = domain.ReportTypeQuarterly
	}
	if in.Period == "" {
		in.Period = "Q1-2024"
	}
	r, err := svc.CreateReport(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	return r
}

func TestCreateReportStoresFirstSnapshot(t *testing.T) {
	repo := newFakeRepo()
	seedFixture(t, repo)
	svc := newTestService(repo, testNow)

	r := createTestReport(t, svc, CreateReportInput{Tags: []string{"Q1"}})
	if r.Version != 1 || r.Status != domain.ReportStatusDraft {
		t.Fatalf("unexpected report %#v", r)
	}
	if r.PeriodLabel != "Q1-2024" || !r.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period %q %s", r.PeriodLabel, r.StartDate)
	}
	if r.Metrics.TotalPrograms != 3 || r.Content.Summary.Metrics != r.Metrics {
		t.Fatalf("expected generated metrics in report, got %#v", r.Metrics)
	}
	if len(repo.snapshots) != 1 || repo.snapshots[0].ReportVersion != 1 || repo.snapshots[0].Metrics != r.Metrics {
		t.Fatalf("expected one version-1 snapshot, got %#v", repo.snapshots)
	}
}

func TestCreateReportValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), testNow)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   CreateReportInput
		want error
	}{
		{"missing period", CreateReportInput{Title: "x", Type: domain.ReportTypeCustom}, ErrInvalidInput},
		{"missing title", CreateReportInput{Type: domain.ReportTypeCustom, Period: "2024"}, domain.ErrInvalidTitle},
		{"bad type", CreateReportInput{Title: "x", Type: "weekly", Period: "2024"}, domain.ErrInvalidReportType},
		{"inverted dates", CreateReportInput{Title: "x", Type: domain.ReportTypeCustom, Period: "2024", StartDate: &start, EndDate: &end}, ErrInvalidRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateReport(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("CreateReport() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateReportExplicitDatesOverridePeriod(t *testing.T) {
	repo := newFakeRepo()
	seedFixture(t, repo)
	svc := newTestService(repo, testNow)
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	r := createTestReport(t, svc, CreateReportInput{Type: domain.ReportTypeCustom, StartDate: &start, EndDate: &end})
	if !r.StartDate.Equal(start) || !r.EndDate.Equal(end) {
		t.Fatalf("expected explicit dates, got %s..%s", r.StartDate, r.EndDate)
	}
	if r.Metrics.TotalActivities != 2 {
		t.Fatalf("expected february activities only, got %d", r.Metrics.TotalActivities)
	}
}

func TestRegenerateTwiceYieldsVersionThree(t *testing.T) {
	repo := newFakeRepo()
	seedFixture(t, repo)
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	r := createTestReport(t, svc, CreateReportInput{})
	first := repo.snapshots[0]

	for range 2 {
		if _, err := svc.UpdateReport(ctx, r.ID, UpdateReportInput{RegenerateContent: true}); err != nil {
			t.Fatalf("UpdateReport(regenerate) error = %v", err)
		}
	}
	stored, err := repo.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if stored.Version != 3 {
		t.Fatalf("expected version 3, got %d", stored.Version)
	}
	history, err := svc.ReportMetricsHistory(ctx, r.ID)
	if err != nil {
		t.Fatalf("ReportMetricsHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(history))
	}
	if history[0].ReportVersion != 3 || history[2].ReportVersion != 1 {
		t.Fatalf("expected newest first, got versions %d..%d", history[0].ReportVersion, history[2].ReportVersion)
	}
	if history[2] != first {
		t.Fatalf("original snapshot changed: %#v vs %#v", history[2], first)
	}

	view, err := svc.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if view.CurrentMetrics == nil || view.CurrentMetrics.ReportVersion != 3 {
		t.Fatalf("expected current snapshot at version 3, got %#v", view.CurrentMetrics)
	}
}

func TestRegenerateFailureLeavesReportUntouched(t *testing.T) {
	repo := newFakeRepo()
	seedFixture(t, repo)
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	r := createTestReport(t, svc, CreateReportInput{})

	repo.regenerateErr = errors.New("disk full")
	if _, err := svc.RegenerateReport(ctx, r.ID); !errors.Is(err, repo.regenerateErr) {
		t.Fatalf("expected regenerate failure, got %v", err)
	}
	stored, _ := repo.GetReport(ctx, r.ID)
	if stored.Version != 1 || len(repo.snapshots) != 1 {
		t.Fatalf("expected no partial regeneration, version=%d snapshots=%d", stored.Version, len(repo.snapshots))
	}
}

func TestUpdateReportMetadataAndWorkflow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	r := createTestReport(t, svc, CreateReportInput{})

	title := "Laporan Final"
	review := domain.ReportStatusReview
	updated, err := svc.UpdateReport(ctx, r.ID, UpdateReportInput{Title: &title, Status: &review})
	if err != nil {
		t.Fatalf("UpdateReport() error = %v", err)
	}
	if updated.Title != title || updated.Version != 1 || updated.SubmittedAt == nil {
		t.Fatalf("unexpected metadata update %#v", updated)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("metadata update must not add snapshots, got %d", len(repo.snapshots))
	}

	period := "Q2-2024"
	if _, err := svc.UpdateReport(ctx, r.ID, UpdateReportInput{Period: &period}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected period change without regeneration to fail, got %v", err)
	}
	moved, err := svc.UpdateReport(ctx, r.ID, UpdateReportInput{Period: &period, RegenerateContent: true})
	if err != nil {
		t.Fatalf("UpdateReport(period) error = %v", err)
	}
	if moved.Period != "Q2-2024" || moved.Version != 2 || moved.SubmittedAt == nil {
		t.Fatalf("unexpected rescheduled report %#v", moved)
	}
}

func TestUpdateReportRegenerateWithMetadataPatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	r := createTestReport(t, svc, CreateReportInput{})

	title := "Laporan Revisi"
	tags := []string{"revisi"}
	if _, err := svc.UpdateReport(ctx, r.ID, UpdateReportInput{Title: &title, Tags: &tags, RegenerateContent: true}); err != nil {
		t.Fatalf("UpdateReport() error = %v", err)
	}
	stored := repo.reports[r.ID]
	if stored.Title != title || len(stored.Tags) != 1 || stored.Tags[0] != "revisi" {
		t.Fatalf("expected metadata persisted with regeneration, got %#v", stored)
	}
	if stored.Version != 2 || len(repo.snapshots) != 2 {
		t.Fatalf("expected v2 with two snapshots, got v%d and %d", stored.Version, len(repo.snapshots))
	}
}

func TestGetReportCountsViews(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	r := createTestReport(t, svc, CreateReportInput{})

	for range 2 {
		if _, err := svc.GetReport(ctx, r.ID); err != nil {
			t.Fatalf("GetReport() error = %v", err)
		}
	}
	view, err := svc.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if view.Report.ViewCount != 3 {
		t.Fatalf("expected 3 views, got %d", view.Report.ViewCount)
	}
	if _, err := svc.GetReport(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReportCascadesSnapshots(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	r := createTestReport(t, svc, CreateReportInput{})
	if _, err := svc.RegenerateReport(ctx, r.ID); err != nil {
		t.Fatalf("RegenerateReport() error = %v", err)
	}
	if err := svc.DeleteReport(ctx, r.ID); err != nil {
		t.Fatalf("DeleteReport() error = %v", err)
	}
	if len(repo.snapshots) != 0 {
		t.Fatalf("expected snapshots removed, got %d", len(repo.snapshots))
	}
	if err := svc.DeleteReport(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListReportsFilters(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	createTestReport(t, svc, CreateReportInput{Type: domain.ReportTypeAnnual, Period: "2024"})
	createTestReport(t, svc, CreateReportInput{Type: domain.ReportTypeQuarterly})

	got, err := svc.ListReports(ctx, ReportFilter{Type: "Annual"})
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(got) != 1 || got[0].Type != domain.ReportTypeAnnual {
		t.Fatalf("unexpected filtered reports %#v", got)
	}
	if _, err := svc.ListReports(ctx, ReportFilter{Status: "lost"}); !errors.Is(err, domain.ErrInvalidReportStatus) {
		t.Fatalf("expected ErrInvalidReportStatus, got %v", err)
	}
}
