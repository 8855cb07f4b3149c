package app

import (
	"context"

	"github.com/hylla/csrpulse/internal/domain"
)

// ProgramRepository reads and writes programs and their sub-programs.
type ProgramRepository interface {
	UpsertProgram(context.Context, domain.Program) error
	ListPrograms(context.Context, domain.RecordFilter) ([]domain.Program, error)
	UpsertProject(context.Context, domain.Project) error
	ListProjects(context.Context) ([]domain.Project, error)
}

// ActivityRepository reads and writes activities.
type ActivityRepository interface {
	UpsertActivity(context.Context, domain.Activity) error
	ListActivities(context.Context, domain.RecordFilter) ([]domain.Activity, error)
}

// BudgetRepository reads and writes budget lines.
type BudgetRepository interface {
	UpsertBudget(context.Context, domain.Budget) error
	ListBudgets(context.Context, domain.RecordFilter) ([]domain.Budget, error)
}

// StakeholderRepository reads and writes stakeholders and their program/activity links.
type StakeholderRepository interface {
	UpsertStakeholder(context.Context, domain.Stakeholder) error
	ListStakeholders(context.Context, domain.RecordFilter) ([]domain.Stakeholder, error)
}

// ReferenceRepository reads and writes lookup tables.
type ReferenceRepository interface {
	UpsertDepartment(context.Context, domain.Department) error
	ListDepartments(context.Context) ([]domain.Department, error)
	UpsertCategory(context.Context, domain.Category) error
	ListCategories(context.Context) ([]domain.Category, error)
	UpsertStakeholderCategory(context.Context, domain.StakeholderCategory) error
	ListStakeholderCategories(context.Context) ([]domain.StakeholderCategory, error)
}

// ReportFilter narrows report listings. Empty fields match everything.
type ReportFilter struct {
	Status domain.ReportStatus
	Type   domain.ReportType
	Scope  domain.Scope
}

// ReportRepository persists reports and their metrics snapshots.
// CreateReport and RegenerateReport must write the report row and the snapshot atomically.
type ReportRepository interface {
	CreateReport(context.Context, domain.Report, domain.MetricsSnapshot) error
	// UpdateReport persists metadata only; version, content and metrics are left untouched.
	UpdateReport(context.Context, domain.Report) error
	// RegenerateReport replaces period, content and metrics when the stored version still
	// equals expectedVersion, returning ErrConflict otherwise. Metadata is not written.
	RegenerateReport(ctx context.Context, report domain.Report, expectedVersion int, snapshot domain.MetricsSnapshot) error
	GetReport(context.Context, string) (domain.Report, error)
	ListReports(context.Context, ReportFilter) ([]domain.Report, error)
	DeleteReport(context.Context, string) error
	// ListMetricsSnapshots returns snapshots newest first.
	ListMetricsSnapshots(context.Context, string) ([]domain.MetricsSnapshot, error)
	IncrementViewCount(context.Context, string) error
	IncrementDownloadCount(context.Context, string) error
}

// Store is implemented by adapters that back every port at once.
type Store interface {
	ProgramRepository
	ActivityRepository
	BudgetRepository
	StakeholderRepository
	ReferenceRepository
	ReportRepository
}

// Repositories bundles the ports the service depends on.
type Repositories struct {
	Programs     ProgramRepository
	Activities   ActivityRepository
	Budgets      BudgetRepository
	Stakeholders StakeholderRepository
	References   ReferenceRepository
	Reports      ReportRepository
}

// RepositoriesFromStore wires every port to one store.
func RepositoriesFromStore(store Store) Repositories {
	return Repositories{
		Programs:     store,
		Activities:   store,
		Budgets:      store,
		Stakeholders: store,
		References:   store,
		Reports:      store,
	}
}

// ExportArchiver stores rendered report exports outside the database.
type ExportArchiver interface {
	Archive(ctx context.Context, key, contentType string, body []byte) error
}
