package app

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hylla/csrpulse/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DatasetVersion defines a package constant value.
const DatasetVersion = "csrpulse.dataset.v1"

// Dataset is a portable document of every operational record.
type Dataset struct {
	Version               string               `json:"version" yaml:"version"`
	ExportedAt            time.Time            `json:"exportedAt" yaml:"exportedAt"`
	Departments           []DatasetDepartment  `json:"departments" yaml:"departments"`
	Categories            []DatasetCategory    `json:"categories" yaml:"categories"`
	StakeholderCategories []DatasetCategory    `json:"stakeholderCategories" yaml:"stakeholderCategories"`
	Programs              []DatasetProgram     `json:"programs" yaml:"programs"`
	Projects              []DatasetProject     `json:"projects" yaml:"projects"`
	Activities            []DatasetActivity    `json:"activities" yaml:"activities"`
	Budgets               []DatasetBudget      `json:"budgets" yaml:"budgets"`
	Stakeholders          []DatasetStakeholder `json:"stakeholders" yaml:"stakeholders"`
}

// DatasetDepartment represents dataset department data used by this package.
type DatasetDepartment struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Code      string `json:"code,omitempty" yaml:"code,omitempty"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// DatasetCategory represents one program or stakeholder category.
type DatasetCategory struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// DatasetProgram represents dataset program data used by this package.
type DatasetProgram struct {
	ID                  string               `json:"id" yaml:"id"`
	Name                string               `json:"name" yaml:"name"`
	Description         string               `json:"description,omitempty" yaml:"description,omitempty"`
	Status              domain.ProgramStatus `json:"status,omitempty" yaml:"status,omitempty"`
	DepartmentID        string               `json:"departmentId" yaml:"departmentId"`
	CategoryID          string               `json:"categoryId,omitempty" yaml:"categoryId,omitempty"`
	TargetBeneficiaries int                  `json:"targetBeneficiaries,omitempty" yaml:"targetBeneficiaries,omitempty"`
	StartDate           string               `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate             string               `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	StakeholderIDs      []string             `json:"stakeholderIds,omitempty" yaml:"stakeholderIds,omitempty"`
	CreatedAt           string               `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// DatasetProject represents dataset sub-program data used by this package.
type DatasetProject struct {
	ID         string               `json:"id" yaml:"id"`
	ProgramID  string               `json:"programId" yaml:"programId"`
	Name       string               `json:"name" yaml:"name"`
	Status     domain.ProgramStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Progress   float64              `json:"progress,omitempty" yaml:"progress,omitempty"`
	Budget     decimal.Decimal      `json:"budget" yaml:"budget"`
	ActualCost decimal.Decimal      `json:"actualCost" yaml:"actualCost"`
	StartDate  string               `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate    string               `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	CreatedAt  string               `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// DatasetActivity represents dataset activity data used by this package.
type DatasetActivity struct {
	ID           string                `json:"id" yaml:"id"`
	ProjectID    string                `json:"projectId" yaml:"projectId"`
	Name         string                `json:"name" yaml:"name"`
	Type         string                `json:"type,omitempty" yaml:"type,omitempty"`
	Status       domain.ActivityStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Participants int                   `json:"participants,omitempty" yaml:"participants,omitempty"`
	Progress     float64               `json:"progress,omitempty" yaml:"progress,omitempty"`
	Budget       decimal.Decimal       `json:"budget" yaml:"budget"`
	ActualCost   decimal.Decimal       `json:"actualCost" yaml:"actualCost"`
	Location     string                `json:"location,omitempty" yaml:"location,omitempty"`
	StartDate    string                `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate      string                `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	CreatedAt    string                `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// DatasetBudget represents dataset budget data used by this package.
type DatasetBudget struct {
	ID           string              `json:"id" yaml:"id"`
	DepartmentID string              `json:"departmentId" yaml:"departmentId"`
	ProgramID    string              `json:"programId,omitempty" yaml:"programId,omitempty"`
	ProjectID    string              `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	Description  string              `json:"description,omitempty" yaml:"description,omitempty"`
	Category     string              `json:"category,omitempty" yaml:"category,omitempty"`
	Amount       decimal.Decimal     `json:"amount" yaml:"amount"`
	SpentAmount  decimal.Decimal     `json:"spentAmount" yaml:"spentAmount"`
	Status       domain.BudgetStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Period       string              `json:"period,omitempty" yaml:"period,omitempty"`
	Currency     string              `json:"currency,omitempty" yaml:"currency,omitempty"`
	CreatedAt    string              `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// DatasetStakeholder represents dataset stakeholder data used by this package.
type DatasetStakeholder struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type,omitempty" yaml:"type,omitempty"`
	CategoryID   string   `json:"categoryId,omitempty" yaml:"categoryId,omitempty"`
	Importance   string   `json:"importance,omitempty" yaml:"importance,omitempty"`
	Influence    string   `json:"influence,omitempty" yaml:"influence,omitempty"`
	Relationship string   `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	ProgramIDs   []string `json:"programIds,omitempty" yaml:"programIds,omitempty"`
	ActivityIDs  []string `json:"activityIds,omitempty" yaml:"activityIds,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// DatasetFormat selects the dataset encoding.
type DatasetFormat string

// DatasetFormatJSON and related constants enumerate dataset encodings.
const (
	DatasetFormatJSON DatasetFormat = "json"
	DatasetFormatYAML DatasetFormat = "yaml"
)

// DatasetFormatFromPath picks an encoding by file extension, defaulting to json.
func DatasetFormatFromPath(path string) DatasetFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DatasetFormatYAML
	default:
		return DatasetFormatJSON
	}
}

// DecodeDataset reads one dataset document.
func DecodeDataset(r io.Reader, format DatasetFormat) (Dataset, error) {
	var ds Dataset
	switch format {
	case DatasetFormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&ds); err != nil {
			return Dataset{}, fmt.Errorf("%w: decode yaml dataset: %v", ErrInvalidInput, err)
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil {
			return Dataset{}, fmt.Errorf("%w: decode json dataset: %v", ErrInvalidInput, err)
		}
	}
	return ds, nil
}

// EncodeDataset writes one dataset document.
func EncodeDataset(w io.Writer, ds Dataset, format DatasetFormat) error {
	if format == DatasetFormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

// Validate checks the version and every cross-record reference.
func (ds *Dataset) Validate() error {
	if ds.Version != DatasetVersion {
		return fmt.Errorf("%w: unsupported dataset version %q", ErrInvalidInput, ds.Version)
	}
	ids := func(n int, id func(int) string) map[string]struct{} {
		out := make(map[string]struct{}, n)
		for i := range n {
			out[strings.TrimSpace(id(i))] = struct{}{}
		}
		return out
	}
	departments := ids(len(ds.Departments), func(i int) string { return ds.Departments[i].ID })
	categories := ids(len(ds.Categories), func(i int) string { return ds.Categories[i].ID })
	stakeholderCategories := ids(len(ds.StakeholderCategories), func(i int) string { return ds.StakeholderCategories[i].ID })
	programs := ids(len(ds.Programs), func(i int) string { return ds.Programs[i].ID })
	projects := ids(len(ds.Projects), func(i int) string { return ds.Projects[i].ID })
	activities := ids(len(ds.Activities), func(i int) string { return ds.Activities[i].ID })

	var errs []error
	ref := func(kind, id, field, target string, set map[string]struct{}, optional bool) {
		target = strings.TrimSpace(target)
		if target == "" && optional {
			return
		}
		if _, ok := set[target]; !ok {
			errs = append(errs, fmt.Errorf("%s %q references unknown %s %q", kind, id, field, target))
		}
	}
	for _, p := range ds.Programs {
		ref("program", p.ID, "department", p.DepartmentID, departments, false)
		ref("program", p.ID, "category", p.CategoryID, categories, true)
	}
	for _, p := range ds.Projects {
		ref("project", p.ID, "program", p.ProgramID, programs, false)
	}
	for _, a := range ds.Activities {
		ref("activity", a.ID, "project", a.ProjectID, projects, false)
	}
	for _, b := range ds.Budgets {
		ref("budget", b.ID, "department", b.DepartmentID, departments, false)
		ref("budget", b.ID, "program", b.ProgramID, programs, true)
		ref("budget", b.ID, "project", b.ProjectID, projects, true)
	}
	for _, sh := range ds.Stakeholders {
		ref("stakeholder", sh.ID, "category", sh.CategoryID, stakeholderCategories, true)
		for _, id := range sh.ProgramIDs {
			ref("stakeholder", sh.ID, "program", id, programs, false)
		}
		for _, id := range sh.ActivityIDs {
			ref("stakeholder", sh.ID, "activity", id, activities, false)
		}
	}
	for _, p := range ds.Programs {
		for _, id := range p.StakeholderIDs {
			found := slices.ContainsFunc(ds.Stakeholders, func(sh DatasetStakeholder) bool { return sh.ID == id })
			if !found {
				errs = append(errs, fmt.Errorf("program %q references unknown stakeholder %q", p.ID, id))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// ImportDataset validates ds and upserts every record in dependency order.
func (s *Service) ImportDataset(ctx context.Context, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	now := s.now()
	refs := s.repos.References

	for _, d := range ds.Departments {
		dept, err := domain.NewDepartment(d.ID, d.Name, d.Code, datasetTime(d.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("department %q: %w", d.ID, err)
		}
		if err := refs.UpsertDepartment(ctx, dept); err != nil {
			return err
		}
	}
	for _, c := range ds.Categories {
		cat, err := domain.NewCategory(c.ID, c.Name, datasetTime(c.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("category %q: %w", c.ID, err)
		}
		if err := refs.UpsertCategory(ctx, cat); err != nil {
			return err
		}
	}
	for _, c := range ds.StakeholderCategories {
		cat, err := domain.NewStakeholderCategory(c.ID, c.Name, datasetTime(c.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("stakeholder category %q: %w", c.ID, err)
		}
		if err := refs.UpsertStakeholderCategory(ctx, cat); err != nil {
			return err
		}
	}
	// Stakeholders go in before programs so program links resolve.
	for _, in := range ds.Stakeholders {
		sh, err := domain.NewStakeholder(domain.StakeholderInput{
			ID:           in.ID,
			Name:         in.Name,
			Type:         in.Type,
			CategoryID:   in.CategoryID,
			Importance:   in.Importance,
			Influence:    in.Influence,
			Relationship: in.Relationship,
		}, datasetTime(in.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("stakeholder %q: %w", in.ID, err)
		}
		if err := s.repos.Stakeholders.UpsertStakeholder(ctx, sh); err != nil {
			return err
		}
	}
	for _, in := range ds.Programs {
		start, end, err := datasetDates(in.StartDate, in.EndDate)
		if err != nil {
			return fmt.Errorf("program %q: %w", in.ID, err)
		}
		p, err := domain.NewProgram(domain.ProgramInput{
			ID:                  in.ID,
			Name:                in.Name,
			Description:         in.Description,
			Status:              in.Status,
			DepartmentID:        in.DepartmentID,
			CategoryID:          in.CategoryID,
			TargetBeneficiaries: in.TargetBeneficiaries,
			StartDate:           start,
			EndDate:             end,
			StakeholderIDs:      programStakeholders(in, ds.Stakeholders),
		}, datasetTime(in.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("program %q: %w", in.ID, err)
		}
		if err := s.repos.Programs.UpsertProgram(ctx, p); err != nil {
			return err
		}
	}
	for _, in := range ds.Projects {
		start, end, err := datasetDates(in.StartDate, in.EndDate)
		if err != nil {
			return fmt.Errorf("project %q: %w", in.ID, err)
		}
		p, err := domain.NewProject(domain.ProjectInput{
			ID:         in.ID,
			ProgramID:  in.ProgramID,
			Name:       in.Name,
			Status:     in.Status,
			Progress:   in.Progress,
			Budget:     in.Budget,
			ActualCost: in.ActualCost,
			StartDate:  start,
			EndDate:    end,
		}, datasetTime(in.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("project %q: %w", in.ID, err)
		}
		if err := s.repos.Programs.UpsertProject(ctx, p); err != nil {
			return err
		}
	}
	for _, in := range ds.Activities {
		start, end, err := datasetDates(in.StartDate, in.EndDate)
		if err != nil {
			return fmt.Errorf("activity %q: %w", in.ID, err)
		}
		a, err := domain.NewActivity(domain.ActivityInput{
			ID:           in.ID,
			ProjectID:    in.ProjectID,
			Name:         in.Name,
			Type:         in.Type,
			Status:       in.Status,
			Participants: in.Participants,
			Progress:     in.Progress,
			Budget:       in.Budget,
			ActualCost:   in.ActualCost,
			Location:     in.Location,
			StartDate:    start,
			EndDate:      end,
		}, datasetTime(in.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("activity %q: %w", in.ID, err)
		}
		if err := s.repos.Activities.UpsertActivity(ctx, a); err != nil {
			return err
		}
	}
	for _, in := range ds.Budgets {
		b, err := domain.NewBudget(domain.BudgetInput{
			ID:           in.ID,
			DepartmentID: in.DepartmentID,
			ProgramID:    in.ProgramID,
			ProjectID:    in.ProjectID,
			Description:  in.Description,
			Category:     in.Category,
			Amount:       in.Amount,
			SpentAmount:  in.SpentAmount,
			Status:       in.Status,
			Period:       in.Period,
			Currency:     in.Currency,
		}, datasetTime(in.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("budget %q: %w", in.ID, err)
		}
		if err := s.repos.Budgets.UpsertBudget(ctx, b); err != nil {
			return err
		}
	}
	// Activity links need the activities in place, so stakeholders are written again with them.
	for _, in := range ds.Stakeholders {
		if len(in.ActivityIDs) == 0 && len(in.ProgramIDs) == 0 {
			continue
		}
		sh, err := domain.NewStakeholder(domain.StakeholderInput{
			ID:           in.ID,
			Name:         in.Name,
			Type:         in.Type,
			CategoryID:   in.CategoryID,
			Importance:   in.Importance,
			Influence:    in.Influence,
			Relationship: in.Relationship,
			ProgramIDs:   stakeholderPrograms(in, ds.Programs),
			ActivityIDs:  in.ActivityIDs,
		}, datasetTime(in.CreatedAt, now))
		if err != nil {
			return fmt.Errorf("stakeholder %q: %w", in.ID, err)
		}
		if err := s.repos.Stakeholders.UpsertStakeholder(ctx, sh); err != nil {
			return err
		}
	}
	s.logger.Info("dataset imported",
		"programs", len(ds.Programs),
		"activities", len(ds.Activities),
		"budgets", len(ds.Budgets),
		"stakeholders", len(ds.Stakeholders),
	)
	return nil
}

// ExportDataset reads every record back into a dataset document.
func (s *Service) ExportDataset(ctx context.Context) (Dataset, error) {
	set, err := s.loadRecords(ctx, domain.RecordFilter{})
	if err != nil {
		return Dataset{}, err
	}
	departments, err := s.repos.References.ListDepartments(ctx)
	if err != nil {
		return Dataset{}, err
	}
	categories, err := s.repos.References.ListCategories(ctx)
	if err != nil {
		return Dataset{}, err
	}
	stakeholderCategories, err := s.repos.References.ListStakeholderCategories(ctx)
	if err != nil {
		return Dataset{}, err
	}
	projects, err := s.repos.Programs.ListProjects(ctx)
	if err != nil {
		return Dataset{}, err
	}

	ds := Dataset{Version: DatasetVersion, ExportedAt: s.now()}
	for _, d := range departments {
		ds.Departments = append(ds.Departments, DatasetDepartment{ID: d.ID, Name: d.Name, Code: d.Code, CreatedAt: formatDatasetTime(d.CreatedAt)})
	}
	for _, c := range categories {
		ds.Categories = append(ds.Categories, DatasetCategory{ID: c.ID, Name: c.Name, CreatedAt: formatDatasetTime(c.CreatedAt)})
	}
	for _, c := range stakeholderCategories {
		ds.StakeholderCategories = append(ds.StakeholderCategories, DatasetCategory{ID: c.ID, Name: c.Name, CreatedAt: formatDatasetTime(c.CreatedAt)})
	}
	for _, p := range set.programs {
		ds.Programs = append(ds.Programs, DatasetProgram{
			ID:                  p.ID,
			Name:                p.Name,
			Description:         p.Description,
			Status:              p.Status,
			DepartmentID:        p.DepartmentID,
			CategoryID:          p.CategoryID,
			TargetBeneficiaries: p.TargetBeneficiaries,
			StartDate:           formatOptionalDate(p.StartDate),
			EndDate:             formatOptionalDate(p.EndDate),
			StakeholderIDs:      p.StakeholderIDs,
			CreatedAt:           formatDatasetTime(p.CreatedAt),
		})
	}
	for _, p := range projects {
		ds.Projects = append(ds.Projects, DatasetProject{
			ID:         p.ID,
			ProgramID:  p.ProgramID,
			Name:       p.Name,
			Status:     p.Status,
			Progress:   p.Progress,
			Budget:     p.Budget,
			ActualCost: p.ActualCost,
			StartDate:  formatOptionalDate(p.StartDate),
			EndDate:    formatOptionalDate(p.EndDate),
			CreatedAt:  formatDatasetTime(p.CreatedAt),
		})
	}
	for _, a := range set.activities {
		ds.Activities = append(ds.Activities, DatasetActivity{
			ID:           a.ID,
			ProjectID:    a.ProjectID,
			Name:         a.Name,
			Type:         a.Type,
			Status:       a.Status,
			Participants: a.Participants,
			Progress:     a.Progress,
			Budget:       a.Budget,
			ActualCost:   a.ActualCost,
			Location:     a.Location,
			StartDate:    formatOptionalDate(a.StartDate),
			EndDate:      formatOptionalDate(a.EndDate),
			CreatedAt:    formatDatasetTime(a.CreatedAt),
		})
	}
	for _, b := range set.budgets {
		ds.Budgets = append(ds.Budgets, DatasetBudget{
			ID:           b.ID,
			DepartmentID: b.DepartmentID,
			ProgramID:    b.ProgramID,
			ProjectID:    b.ProjectID,
			Description:  b.Description,
			Category:     b.Category,
			Amount:       b.Amount,
			SpentAmount:  b.SpentAmount,
			Status:       b.Status,
			Period:       b.Period,
			Currency:     b.Currency,
			CreatedAt:    formatDatasetTime(b.CreatedAt),
		})
	}
	for _, sh := range set.stakeholders {
		ds.Stakeholders = append(ds.Stakeholders, DatasetStakeholder{
			ID:           sh.ID,
			Name:         sh.Name,
			Type:         sh.Type,
			CategoryID:   sh.CategoryID,
			Importance:   sh.Importance,
			Influence:    sh.Influence,
			Relationship: sh.Relationship,
			ProgramIDs:   sh.ProgramIDs,
			ActivityIDs:  sh.ActivityIDs,
			CreatedAt:    formatDatasetTime(sh.CreatedAt),
		})
	}
	ds.sort()
	return ds, nil
}

func (ds *Dataset) sort() {
	slices.SortFunc(ds.Departments, func(a, b DatasetDepartment) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.Categories, func(a, b DatasetCategory) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.StakeholderCategories, func(a, b DatasetCategory) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.Programs, func(a, b DatasetProgram) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.Projects, func(a, b DatasetProject) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.Activities, func(a, b DatasetActivity) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.Budgets, func(a, b DatasetBudget) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.Stakeholders, func(a, b DatasetStakeholder) int { return cmp.Compare(a.ID, b.ID) })
}

// programStakeholders merges links declared on either side of the program/stakeholder relation.
func programStakeholders(p DatasetProgram, stakeholders []DatasetStakeholder) []string {
	out := slices.Clone(p.StakeholderIDs)
	for _, sh := range stakeholders {
		if slices.Contains(sh.ProgramIDs, p.ID) {
			out = append(out, sh.ID)
		}
	}
	return out
}

func stakeholderPrograms(sh DatasetStakeholder, programs []DatasetProgram) []string {
	out := slices.Clone(sh.ProgramIDs)
	for _, p := range programs {
		if slices.Contains(p.StakeholderIDs, sh.ID) {
			out = append(out, p.ID)
		}
	}
	return out
}

func datasetDates(rawStart, rawEnd string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if strings.TrimSpace(rawStart) != "" {
		t, err := domain.ParseDate(rawStart)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if strings.TrimSpace(rawEnd) != "" {
		t, err := domain.ParseDate(rawEnd)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	return start, end, nil
}

// datasetTime parses an optional creation time, falling back to now.
func datasetTime(raw string, now time.Time) time.Time {
	if strings.TrimSpace(raw) == "" {
		return now
	}
	if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw)); err == nil {
		return t.UTC()
	}
	if t, err := domain.ParseDate(raw); err == nil {
		return t
	}
	return now
}

func formatDatasetTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
