package domain

import (
	"slices"
	"strings"
	"time"
)

// ReportType classifies a report.
type ReportType string

// ReportTypeMonthly and related constants enumerate report types.
const (
	ReportTypeMonthly     ReportType = "monthly"
	ReportTypeQuarterly   ReportType = "quarterly"
	ReportTypeAnnual      ReportType = "annual"
	ReportTypeProgram     ReportType = "program"
	ReportTypeFinancial   ReportType = "financial"
	ReportTypeImpact      ReportType = "impact"
	ReportTypeStakeholder ReportType = "stakeholder"
	ReportTypeCustom      ReportType = "custom"
)

// ReportTypes lists every accepted report type.
func ReportTypes() []ReportType {
	return []ReportType{
		ReportTypeMonthly,
		ReportTypeQuarterly,
		ReportTypeAnnual,
		ReportTypeProgram,
		ReportTypeFinancial,
		ReportTypeImpact,
		ReportTypeStakeholder,
		ReportTypeCustom,
	}
}

// NormalizeReportType canonicalizes a report type, returning "" when unknown.
func NormalizeReportType(raw ReportType) ReportType {
	t := ReportType(strings.ToLower(strings.TrimSpace(string(raw))))
	if slices.Contains(ReportTypes(), t) {
		return t
	}
	return ""
}

// ReportStatus is the publication workflow state of a report.
type ReportStatus string

// ReportStatusDraft and related constants enumerate workflow states.
const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusReview    ReportStatus = "review"
	ReportStatusApproved  ReportStatus = "approved"
	ReportStatusPublished ReportStatus = "published"
)

// NormalizeReportStatus canonicalizes a workflow state, returning "" when unknown.
func NormalizeReportStatus(raw ReportStatus) ReportStatus {
	s := ReportStatus(strings.ToLower(strings.TrimSpace(string(raw))))
	switch s {
	case ReportStatusDraft, ReportStatusReview, ReportStatusApproved, ReportStatusPublished:
		return s
	default:
		return ""
	}
}

// Report is a generated, versioned report document.
type Report struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Type          ReportType    `json:"type"`
	Status        ReportStatus  `json:"status"`
	Period        string        `json:"period"`
	PeriodLabel   string        `json:"periodLabel"`
	StartDate     time.Time     `json:"startDate"`
	EndDate       time.Time     `json:"endDate"`
	ProgramID     string        `json:"programId,omitempty"`
	DepartmentID  string        `json:"departmentId,omitempty"`
	Template      string        `json:"template,omitempty"`
	Tags          []string      `json:"tags"`
	Content       ReportContent `json:"content"`
	Metrics       ReportMetrics `json:"metrics"`
	Version       int           `json:"version"`
	ViewCount     int           `json:"viewCount"`
	DownloadCount int           `json:"downloadCount"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	SubmittedAt   *time.Time    `json:"submittedAt,omitempty"`
	ReviewedAt    *time.Time    `json:"reviewedAt,omitempty"`
	ApprovedAt    *time.Time    `json:"approvedAt,omitempty"`
	PublishedAt   *time.Time    `json:"publishedAt,omitempty"`
}

// ReportInput holds constructor values for NewReport.
type ReportInput struct {
	ID          string
	Title       string
	Description string
	Type        ReportType
	Range       PeriodRange
	Scope       Scope
	Template    string
	Tags        []string
}

// NewReport constructs a draft report at version 1 holding the given content and metrics.
func NewReport(in ReportInput, content ReportContent, metrics ReportMetrics, now time.Time) (Report, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ID == "" {
		return Report{}, ErrInvalidID
	}
	if in.Title == "" {
		return Report{}, ErrInvalidTitle
	}
	reportType := NormalizeReportType(in.Type)
	if reportType == "" {
		return Report{}, ErrInvalidReportType
	}
	if strings.TrimSpace(in.Range.Token) == "" {
		return Report{}, ErrInvalidPeriod
	}
	if in.Range.End.Before(in.Range.Start) {
		return Report{}, ErrInvalidDateRange
	}
	scope := in.Scope.Normalize()
	return Report{
		ID:           in.ID,
		Title:        in.Title,
		Description:  strings.TrimSpace(in.Description),
		Type:         reportType,
		Status:       ReportStatusDraft,
		Period:       in.Range.Token,
		PeriodLabel:  in.Range.Label,
		StartDate:    in.Range.Start.UTC(),
		EndDate:      in.Range.End.UTC(),
		ProgramID:    scope.ProgramID,
		DepartmentID: scope.DepartmentID,
		Template:     strings.TrimSpace(in.Template),
		Tags:         NormalizeTags(in.Tags),
		Content:      content,
		Metrics:      metrics,
		Version:      1,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}

// Scope returns the report's program/department restriction.
func (r Report) Scope() Scope {
	return Scope{ProgramID: r.ProgramID, DepartmentID: r.DepartmentID}
}

// Range returns the report's resolved period.
func (r Report) Range() PeriodRange {
	return PeriodRange{Token: r.Period, Label: r.PeriodLabel, Start: r.StartDate, End: r.EndDate}
}

// Rename updates the report title.
func (r *Report) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	r.Title = title
	r.UpdatedAt = now.UTC()
	return nil
}

// SetStatus moves the report through its workflow. Each workflow timestamp is set on
// the first entry into its state only.
func (r *Report) SetStatus(status ReportStatus, now time.Time) error {
	status = NormalizeReportStatus(status)
	if status == "" {
		return ErrInvalidReportStatus
	}
	ts := now.UTC()
	switch status {
	case ReportStatusReview:
		if r.SubmittedAt == nil {
			r.SubmittedAt = &ts
		}
	case ReportStatusApproved:
		if r.ApprovedAt == nil {
			r.ApprovedAt = &ts
		}
		if r.ReviewedAt == nil {
			r.ReviewedAt = &ts
		}
	case ReportStatusPublished:
		if r.PublishedAt == nil {
			r.PublishedAt = &ts
		}
	}
	r.Status = status
	r.UpdatedAt = ts
	return nil
}

// Reschedule points the report at a different period.
func (r *Report) Reschedule(rng PeriodRange, now time.Time) error {
	if strings.TrimSpace(rng.Token) == "" {
		return ErrInvalidPeriod
	}
	if rng.End.Before(rng.Start) {
		return ErrInvalidDateRange
	}
	r.Period = rng.Token
	r.PeriodLabel = rng.Label
	r.StartDate = rng.Start.UTC()
	r.EndDate = rng.End.UTC()
	r.UpdatedAt = now.UTC()
	return nil
}

// Regenerate replaces content and metrics and advances the version by one.
func (r *Report) Regenerate(content ReportContent, metrics ReportMetrics, now time.Time) {
	r.Content = content
	r.Metrics = metrics
	r.Version++
	r.UpdatedAt = now.UTC()
}

// NormalizeTags trims, lower-cases and de-duplicates tags.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
