package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/csrpulse/internal/domain"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// ExportFormat selects an export projection.
type ExportFormat string

// ExportFormatJSON and related constants enumerate export projections.
const (
	ExportFormatJSON  ExportFormat = "json"
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatYAML  ExportFormat = "yaml"
)

// ParseExportFormat canonicalizes a format name, defaulting to json.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return ExportFormatJSON, nil
	case ExportFormatJSON, ExportFormatCSV, ExportFormatExcel, ExportFormatYAML:
		return f, nil
	case "xlsx":
		return ExportFormatExcel, nil
	case "yml":
		return ExportFormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ReportExport is a rendered export ready to be written to a client.
type ReportExport struct {
	Format      ExportFormat
	Filename    string
	ContentType string
	Body        []byte
}

// IsText reports whether Body is printable text.
func (e ReportExport) IsText() bool {
	return e.Format != ExportFormatExcel
}

// ExportReport renders a report in the requested format and counts the download.
func (s *Service) ExportReport(ctx context.Context, id string, format ExportFormat) (ReportExport, error) {
	format, err := ParseExportFormat(string(format))
	if err != nil {
		return ReportExport{}, err
	}
	view, err := s.PeekReport(ctx, id)
	if err != nil {
		return ReportExport{}, err
	}

	out := ReportExport{Format: format, Filename: exportFilename(view.Report, format)}
	switch format {
	case ExportFormatCSV:
		out.ContentType = "text/csv"
		out.Body, err = renderCSV(view.Report)
	case ExportFormatExcel:
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		out.Body, err = renderExcel(view.Report)
	case ExportFormatYAML:
		out.ContentType = "application/yaml"
		out.Body, err = renderYAML(view)
	default:
		out.ContentType = "application/json"
		out.Body, err = json.MarshalIndent(view, "", "  ")
	}
	if err != nil {
		return ReportExport{}, fmt.Errorf("render %s export: %w", format, err)
	}

	if err := s.repos.Reports.IncrementDownloadCount(ctx, view.Report.ID); err != nil {
		return ReportExport{}, err
	}
	if s.archiver != nil {
		key := path.Join(s.archivePrefix, view.Report.ID, s.now().Format("20060102T150405Z")+"-"+out.Filename)
		if err := s.archiver.Archive(ctx, key, out.ContentType, out.Body); err != nil {
			s.logger.Warn("export archive failed", "id", view.Report.ID, "key", key, "err", err)
		} else {
			s.logger.Debug("export archived", "id", view.Report.ID, "key", key)
		}
	}
	s.logger.Info("report exported", "id", view.Report.ID, "format", format, "bytes", len(out.Body))
	return out, nil
}

func exportFilename(r domain.Report, format ExportFormat) string {
	ext := string(format)
	if format == ExportFormatExcel {
		ext = "xlsx"
	}
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, r.Title)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "report"
	}
	return fmt.Sprintf("%s-v%d.%s", slug, r.Version, ext)
}

// exportField is one flat key/value pair of a report projection.
type exportField struct {
	Key   string
	Value string
}

// flattenReport projects report metadata and metrics into ordered key/value pairs.
func flattenReport(r domain.Report) []exportField {
	fields := []exportField{
		{"id", r.ID},
		{"title", r.Title},
		{"description", r.Description},
		{"type", string(r.Type)},
		{"status", string(r.Status)},
		{"period", r.Period},
		{"periodLabel", r.PeriodLabel},
		{"startDate", r.StartDate.Format(dateLayout)},
		{"endDate", r.EndDate.Format(dateLayout)},
		{"programId", r.ProgramID},
		{"departmentId", r.DepartmentID},
		{"template", r.Template},
		{"tags", strings.Join(r.Tags, ";")},
		{"version", strconv.Itoa(r.Version)},
		{"viewCount", strconv.Itoa(r.ViewCount)},
		{"downloadCount", strconv.Itoa(r.DownloadCount)},
		{"createdAt", r.CreatedAt.Format(time.RFC3339)},
		{"updatedAt", r.UpdatedAt.Format(time.RFC3339)},
		{"submittedAt", formatOptionalTime(r.SubmittedAt)},
		{"reviewedAt", formatOptionalTime(r.ReviewedAt)},
		{"approvedAt", formatOptionalTime(r.ApprovedAt)},
		{"publishedAt", formatOptionalTime(r.PublishedAt)},
	}
	for _, f := range metricFields(r.Metrics) {
		fields = append(fields, exportField{Key: "metrics." + f.Key, Value: f.Value})
	}
	return fields
}

func metricFields(m domain.ReportMetrics) []exportField {
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []exportField{
		{"totalBudget", num(m.TotalBudget)},
		{"budgetUsed", num(m.BudgetUsed)},
		{"budgetRemaining", num(m.BudgetRemaining)},
		{"budgetPercentage", num(m.BudgetPercentage)},
		{"totalPrograms", strconv.Itoa(m.TotalPrograms)},
		{"activePrograms", strconv.Itoa(m.ActivePrograms)},
		{"completedPrograms", strconv.Itoa(m.CompletedPrograms)},
		{"programCompletionRate", num(m.ProgramCompletionRate)},
		{"totalActivities", strconv.Itoa(m.TotalActivities)},
		{"completedActivities", strconv.Itoa(m.CompletedActivities)},
		{"ongoingActivities", strconv.Itoa(m.OngoingActivities)},
		{"activityCompletionRate", num(m.ActivityCompletionRate)},
		{"totalStakeholders", strconv.Itoa(m.TotalStakeholders)},
		{"totalBeneficiaries", strconv.Itoa(m.TotalBeneficiaries)},
		{"averageSatisfaction", num(m.AverageSatisfaction)},
		{"socialImpact", num(m.SocialImpact)},
		{"environmentalImpact", num(m.EnvironmentalImpact)},
		{"economicImpact", num(m.EconomicImpact)},
		{"overallImpact", num(m.OverallImpact)},
	}
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func renderCSV(r domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"field", "value"}); err != nil {
		return nil, err
	}
	for _, f := range flattenReport(r) {
		if err := w.Write([]string{f.Key, f.Value}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderYAML emits the same camelCase document as the json export.
func renderYAML(view ReportView) ([]byte, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(yamlNumbers(doc))
}

// yamlNumbers turns json.Number leaves into int64 or float64 so yaml emits plain scalars
// instead of quoted strings or exponent notation for whole amounts.
func yamlNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = yamlNumbers(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = yamlNumbers(child)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// Sheet names used by the excel export.
const (
	sheetSummary      = "Ringkasan"
	sheetPrograms     = "Program"
	sheetActivities   = "Kegiatan"
	sheetBudgets      = "Anggaran"
	sheetStakeholders = "Pemangku Kepentingan"
)

func renderExcel(r domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	summary := [][]any{{"Field", "Value"}}
	for _, field := range flattenReport(r) {
		summary = append(summary, []any{field.Key, field.Value})
	}
	if err := writeSheet(f, sheetSummary, summary); err != nil {
		return nil, err
	}

	programs := [][]any{{"ID", "Nama", "Departemen", "Kategori", "Status", "Mulai", "Selesai"}}
	for _, p := range r.Content.Programs.List {
		programs = append(programs, []any{p.ID, p.Name, p.Department, p.Category, string(p.Status), formatOptionalDate(p.StartDate), formatOptionalDate(p.EndDate)})
	}
	activities := [][]any{{"ID", "Nama", "Program", "Jenis", "Status", "Peserta", "Mulai", "Selesai"}}
	for _, a := range r.Content.Activities.List {
		activities = append(activities, []any{a.ID, a.Name, a.Program, a.Type, string(a.Status), a.Participants, formatOptionalDate(a.StartDate), formatOptionalDate(a.EndDate)})
	}
	budgets := [][]any{{"ID", "Deskripsi", "Rencana", "Realisasi", "Persentase", "Kategori"}}
	for _, b := range r.Content.Budgets.List {
		budgets = append(budgets, []any{b.ID, b.Description, b.Planned, b.Realized, b.Percentage, b.Category})
	}
	stakeholders := [][]any{{"ID", "Nama", "Kategori", "Jenis", "Kepentingan", "Pengaruh"}}
	for _, sh := range r.Content.Stakeholders.List {
		stakeholders = append(stakeholders, []any{sh.ID, sh.Name, sh.Category, sh.Type, sh.Importance, sh.Influence})
	}
	for _, sheet := range []struct {
		name string
		rows [][]any
	}{
		{sheetPrograms, programs},
		{sheetActivities, activities},
		{sheetBudgets, budgets},
		{sheetStakeholders, stakeholders},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet.name, sheet.rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
