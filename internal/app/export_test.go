package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

type fakeArchiver struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeArchiver) Archive(_ context.Context, key, _ string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return f.err
}

func TestExportReportFormats(t *testing.T) {
	repo := newFakeRepo()
	seedFixture(t, repo)
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	r := createTestReport(t, svc, CreateReportInput{Title: "Laporan Q1 2024"})

	jsonOut, err := svc.ExportReport(ctx, r.ID, ExportFormatJSON)
	if err != nil {
		t.Fatalf("ExportReport(json) error = %v", err)
	}
	var view ReportView
	if err := json.Unmarshal(jsonOut.Body, &view); err != nil {
		t.Fatalf("json export is not valid json: %v", err)
	}
	if view.Report.ID != r.ID || view.CurrentMetrics == nil || jsonOut.Filename != "laporan-q1-2024-v1.json" {
		t.Fatalf("unexpected json export %#v (%s)", view, jsonOut.Filename)
	}

	csvOut, err := svc.ExportReport(ctx, r.ID, ExportFormatCSV)
	if err != nil {
		t.Fatalf("ExportReport(csv) error = %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(csvOut.Body)).ReadAll()
	if err != nil {
		t.Fatalf("csv export is not valid csv: %v", err)
	}
	values := map[string]string{}
	for _, rec := range records[1:] {
		values[rec[0]] = rec[1]
	}
	if values["title"] != "Laporan Q1 2024" || values["metrics.budgetPercentage"] != "50" || values["metrics.totalPrograms"] != "3" {
		t.Fatalf("unexpected csv values %#v", values)
	}

	xlsxOut, err := svc.ExportReport(ctx, r.ID, "xlsx")
	if err != nil {
		t.Fatalf("ExportReport(excel) error = %v", err)
	}
	book, err := excelize.OpenReader(bytes.NewReader(xlsxOut.Body))
	if err != nil {
		t.Fatalf("excel export is not a workbook: %v", err)
	}
	defer func() {
		_ = book.Close()
	}()
	if sheets := book.GetSheetList(); len(sheets) != 5 || sheets[0] != sheetSummary {
		t.Fatalf("unexpected sheets %#v", sheets)
	}
	rows, err := book.GetRows(sheetPrograms)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 programs, got %d rows", len(rows))
	}

	yamlOut, err := svc.ExportReport(ctx, r.ID, ExportFormatYAML)
	if err != nil {
		t.Fatalf("ExportReport(yaml) error = %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(yamlOut.Body, &doc); err != nil {
		t.Fatalf("yaml export is not valid yaml: %v", err)
	}
	report, ok := doc["report"].(map[string]any)
	if !ok || report["periodLabel"] != "Q1-2024" {
		t.Fatalf("unexpected yaml document %#v", doc["report"])
	}
	if !strings.Contains(string(yamlOut.Body), "totalBudget: 1500000") {
		t.Fatalf("expected integral numbers in yaml export:\n%s", yamlOut.Body)
	}

	stored, _ := repo.GetReport(ctx, r.ID)
	if stored.DownloadCount != 4 || stored.ViewCount != 0 {
		t.Fatalf("expected 4 downloads and no views, got %d/%d", stored.DownloadCount, stored.ViewCount)
	}
}

func TestExportReportErrors(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, testNow)
	ctx := context.Background()
	r := createTestReport(t, svc, CreateReportInput{})

	if _, err := svc.ExportReport(ctx, r.ID, "pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := svc.ExportReport(ctx, "missing", ExportFormatJSON); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	stored, _ := repo.GetReport(ctx, r.ID)
	if stored.DownloadCount != 0 {
		t.Fatalf("failed exports must not count downloads, got %d", stored.DownloadCount)
	}
}

func TestExportReportArchives(t *testing.T) {
	repo := newFakeRepo()
	archiver := &fakeArchiver{err: errors.New("bucket missing")}
	svc := NewService(RepositoriesFromStore(repo), seqIDs("r-"), func() time.Time { return testNow }, ServiceConfig{
		SnapshotIDs:   seqIDs("s-"),
		Archiver:      archiver,
		ArchivePrefix: "exports",
	})
	r := createTestReport(t, svc, CreateReportInput{Title: "Arsip"})

	if _, err := svc.ExportReport(context.Background(), r.ID, ExportFormatCSV); err != nil {
		t.Fatalf("archive failures must not fail the export, got %v", err)
	}
	if len(archiver.keys) != 1 || archiver.keys[0] != "exports/"+r.ID+"/20240410T120000Z-arsip-v1.csv" {
		t.Fatalf("unexpected archive keys %#v", archiver.keys)
	}
}
