package app

import (
	"cmp"
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/hylla/csrpulse/internal/domain"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	mu                    sync.Mutex
	departments           map[string]domain.Department
	categories            map[string]domain.Category
	stakeholderCategories map[string]domain.StakeholderCategory
	programs              map[string]domain.Program
	projects              map[string]domain.Project
	activities            map[string]domain.Activity
	budgets               map[string]domain.Budget
	stakeholders          map[string]domain.Stakeholder
	reports               map[string]domain.Report
	snapshots             []domain.MetricsSnapshot

	listErr       error
	regenerateErr error
	listCalls     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		departments:           map[string]domain.Department{},
		categories:            map[string]domain.Category{},
		stakeholderCategories: map[string]domain.StakeholderCategory{},
		programs:              map[string]domain.Program{},
		projects:              map[string]domain.Project{},
		activities:            map[string]domain.Activity{},
		budgets:               map[string]domain.Budget{},
		stakeholders:          map[string]domain.Stakeholder{},
		reports:               map[string]domain.Report{},
	}
}

func (f *fakeRepo) UpsertDepartment(_ context.Context, d domain.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.departments[d.ID] = d
	return nil
}

func (f *fakeRepo) ListDepartments(context.Context) ([]domain.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedValues(f.departments, func(d domain.Department) string { return d.ID }), nil
}

func (f *fakeRepo) UpsertCategory(_ context.Context, c domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[c.ID] = c
	return nil
}

func (f *fakeRepo) ListCategories(context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedValues(f.categories, func(c domain.Category) string { return c.ID }), nil
}

func (f *fakeRepo) UpsertStakeholderCategory(_ context.Context, c domain.StakeholderCategory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stakeholderCategories[c.ID] = c
	return nil
}

func (f *fakeRepo) ListStakeholderCategories(context.Context) ([]domain.StakeholderCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedValues(f.stakeholderCategories, func(c domain.StakeholderCategory) string { return c.ID }), nil
}

func (f *fakeRepo) UpsertProgram(_ context.Context, p domain.Program) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.programs[p.ID] = p
	return nil
}

func (f *fakeRepo) ListPrograms(_ context.Context, filter domain.RecordFilter) ([]domain.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []domain.Program{}
	for _, p := range f.programs {
		if !filter.Window.Contains(p.CreatedAt) || !f.programInScope(p.ID, filter.Scope) {
			continue
		}
		p.DepartmentName = f.departments[p.DepartmentID].Name
		p.CategoryName = f.categories[p.CategoryID].Name
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) UpsertProject(_ context.Context, p domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = p
	return nil
}

func (f *fakeRepo) ListProjects(context.Context) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedValues(f.projects, func(p domain.Project) string { return p.ID }), nil
}

func (f *fakeRepo) UpsertActivity(_ context.Context, a domain.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities[a.ID] = a
	return nil
}

func (f *fakeRepo) ListActivities(_ context.Context, filter domain.RecordFilter) ([]domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Activity{}
	for _, a := range f.activities {
		project := f.projects[a.ProjectID]
		if !filter.Window.Contains(a.CreatedAt) || !f.programInScope(project.ProgramID, filter.Scope) {
			continue
		}
		a.ProjectName = project.Name
		a.ProgramID = project.ProgramID
		a.ProgramName = f.programs[project.ProgramID].Name
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) UpsertBudget(_ context.Context, b domain.Budget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.budgets[b.ID] = b
	return nil
}

func (f *fakeRepo) ListBudgets(_ context.Context, filter domain.RecordFilter) ([]domain.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Budget{}
	for _, b := range f.budgets {
		if b.ProgramID == "" && b.ProjectID != "" {
			b.ProgramID = f.projects[b.ProjectID].ProgramID
		}
		if !filter.Window.Contains(b.CreatedAt) {
			continue
		}
		switch {
		case filter.Scope.IsProgram() && b.ProgramID != filter.Scope.ProgramID:
			continue
		case filter.Scope.IsDepartment() && b.DepartmentID != filter.Scope.DepartmentID:
			continue
		}
		b.DepartmentName = f.departments[b.DepartmentID].Name
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeRepo) UpsertStakeholder(_ context.Context, s domain.Stakeholder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stakeholders[s.ID] = s
	return nil
}

func (f *fakeRepo) ListStakeholders(_ context.Context, filter domain.RecordFilter) ([]domain.Stakeholder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Stakeholder{}
	for _, s := range f.stakeholders {
		if filter.Scope.IsProgram() || filter.Scope.IsDepartment() {
			linked := slices.ContainsFunc(s.ProgramIDs, func(id string) bool { return f.programInScope(id, filter.Scope) })
			if !linked {
				continue
			}
		}
		s.CategoryName = f.stakeholderCategories[s.CategoryID].Name
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) programInScope(programID string, scope domain.Scope) bool {
	switch {
	case scope.IsProgram():
		return programID == scope.ProgramID
	case scope.IsDepartment():
		return f.programs[programID].DepartmentID == scope.DepartmentID
	default:
		return true
	}
}

func (f *fakeRepo) CreateReport(_ context.Context, r domain.Report, snap domain.MetricsSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[r.ID] = r
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func (f *fakeRepo) UpdateReport(_ context.Context, r domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.reports[r.ID]
	if !ok {
		return ErrNotFound
	}
	r.Version, r.Content, r.Metrics = stored.Version, stored.Content, stored.Metrics
	r.ViewCount, r.DownloadCount = stored.ViewCount, stored.DownloadCount
	f.reports[r.ID] = r
	return nil
}

func (f *fakeRepo) RegenerateReport(_ context.Context, r domain.Report, expected int, snap domain.MetricsSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.regenerateErr != nil {
		return f.regenerateErr
	}
	stored, ok := f.reports[r.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expected {
		return ErrConflict
	}
	stored.Period, stored.PeriodLabel, stored.StartDate, stored.EndDate = r.Period, r.PeriodLabel, r.StartDate, r.EndDate
	stored.Content, stored.Metrics, stored.Version, stored.UpdatedAt = r.Content, r.Metrics, r.Version, r.UpdatedAt
	f.reports[r.ID] = stored
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func (f *fakeRepo) GetReport(_ context.Context, id string) (domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return domain.Report{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) ListReports(_ context.Context, filter ReportFilter) ([]domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Report{}
	for _, r := range f.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.Report) int { return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID)) })
	return out, nil
}

func (f *fakeRepo) DeleteReport(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[id]; !ok {
		return ErrNotFound
	}
	delete(f.reports, id)
	f.snapshots = slices.DeleteFunc(f.snapshots, func(s domain.MetricsSnapshot) bool { return s.ReportID == id })
	return nil
}

func (f *fakeRepo) ListMetricsSnapshots(_ context.Context, reportID string) ([]domain.MetricsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.MetricsSnapshot{}
	for _, s := range f.snapshots {
		if s.ReportID == reportID {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b domain.MetricsSnapshot) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return out, nil
}

func (f *fakeRepo) IncrementViewCount(_ context.Context, id string) error {
	return f.bump(id, func(r *domain.Report) { r.ViewCount++ })
}

func (f *fakeRepo) IncrementDownloadCount(_ context.Context, id string) error {
	return f.bump(id, func(r *domain.Report) { r.DownloadCount++ })
}

func (f *fakeRepo) bump(id string, fn func(*domain.Report)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return ErrNotFound
	}
	fn(&r)
	f.reports[id] = r
	return nil
}

func sortedValues[T any](m map[string]T, key func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(key(a), key(b)) })
	return out
}

// seqIDs returns deterministic ids with the given prefix.
func seqIDs(prefix string) IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + string(rune('a'+n-1))
	}
}

func newTestService(repo *fakeRepo, now time.Time) *Service {
	return NewService(RepositoriesFromStore(repo), seqIDs("r-"), func() time.Time { return now }, ServiceConfig{SnapshotIDs: seqIDs("s-")})
}

var testNow = time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

// seedFixture writes two departments, three programs, projects, activities, budgets and stakeholders.
func seedFixture(t *testing.T, repo *fakeRepo) {
	t.Helper()
	mustNoErr := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed error = %v", err)
		}
	}
	ctx := context.Background()
	d1, err := domain.NewDepartment("d1", "Community", "COM", at(2023, 1, 1))
	mustNoErr(err)
	d2, err := domain.NewDepartment("d2", "Environment", "ENV", at(2023, 1, 1))
	mustNoErr(err)
	mustNoErr(repo.UpsertDepartment(ctx, d1))
	mustNoErr(repo.UpsertDepartment(ctx, d2))
	c1, err := domain.NewCategory("c1", "Pendidikan", at(2023, 1, 1))
	mustNoErr(err)
	mustNoErr(repo.UpsertCategory(ctx, c1))
	sc1, err := domain.NewStakeholderCategory("sc1", "Pemerintah", at(2023, 1, 1))
	mustNoErr(err)
	mustNoErr(repo.UpsertStakeholderCategory(ctx, sc1))

	programs := []domain.ProgramInput{
		{ID: "p1", Name: "Beasiswa", Status: domain.ProgramStatusActive, DepartmentID: "d1", CategoryID: "c1"},
		{ID: "p2", Name: "Sekolah Hijau", Status: domain.ProgramStatusCompleted, DepartmentID: "d1"},
		{ID: "p3", Name: "Mangrove", Status: domain.ProgramStatusActive, DepartmentID: "d2"},
	}
	for i, in := range programs {
		p, err := domain.NewProgram(in, at(2024, 1, 5+i))
		mustNoErr(err)
		mustNoErr(repo.UpsertProgram(ctx, p))
	}
	for _, in := range []domain.ProjectInput{
		{ID: "pr1", ProgramID: "p1", Name: "Beasiswa SMA"},
		{ID: "pr3", ProgramID: "p3", Name: "Penanaman"},
	} {
		p, err := domain.NewProject(in, at(2024, 1, 6))
		mustNoErr(err)
		mustNoErr(repo.UpsertProject(ctx, p))
	}
	start1, start2, start3 := at(2024, 1, 20), at(2024, 2, 10), at(2024, 3, 1)
	for _, a := range []struct {
		in      domain.ActivityInput
		created time.Time
	}{
		{domain.ActivityInput{ID: "a1", ProjectID: "pr1", Name: "Seleksi", Status: domain.ActivityStatusCompleted, Participants: 120, StartDate: &start1}, at(2024, 1, 15)},
		{domain.ActivityInput{ID: "a2", ProjectID: "pr1", Name: "Penyaluran", Status: domain.ActivityStatusOngoing, Participants: 80, StartDate: &start2}, at(2024, 2, 1)},
		{domain.ActivityInput{ID: "a3", ProjectID: "pr3", Name: "Tanam 1000", Status: domain.ActivityStatusPlanned, Participants: 300, StartDate: &start3}, at(2024, 2, 20)},
	} {
		act, err := domain.NewActivity(a.in, a.created)
		mustNoErr(err)
		mustNoErr(repo.UpsertActivity(ctx, act))
	}
	for _, b := range []struct {
		in      domain.BudgetInput
		created time.Time
	}{
		{domain.BudgetInput{ID: "b1", DepartmentID: "d1", ProgramID: "p1", Description: "Dana beasiswa", Amount: decimal.NewFromInt(1_000_000), SpentAmount: decimal.NewFromInt(250_000)}, at(2024, 1, 10)},
		{domain.BudgetInput{ID: "b2", DepartmentID: "d2", ProjectID: "pr3", Description: "Bibit", Amount: decimal.NewFromInt(500_000), SpentAmount: decimal.NewFromInt(500_000)}, at(2024, 2, 10)},
	} {
		bud, err := domain.NewBudget(b.in, b.created)
		mustNoErr(err)
		mustNoErr(repo.UpsertBudget(ctx, bud))
	}
	for _, s := range []domain.StakeholderInput{
		{ID: "s1", Name: "Dinas Pendidikan", CategoryID: "sc1", ProgramIDs: []string{"p1"}},
		{ID: "s2", Name: "Warga Pesisir", ProgramIDs: []string{"p3"}},
	} {
		sh, err := domain.NewStakeholder(s, at(2024, 1, 7))
		mustNoErr(err)
		mustNoErr(repo.UpsertStakeholder(ctx, sh))
	}
}

func TestCalculateMetricsEmptyIsAllZero(t *testing.T) {
	svc := newTestService(newFakeRepo(), testNow)
	got, err := svc.CalculateMetrics(context.Background(), domain.Scope{}, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("CalculateMetrics() error = %v", err)
	}
	want := domain.ReportMetrics{AverageSatisfaction: domain.AverageSatisfactionPlaceholder}
	if got != want {
		t.Fatalf("expected all-zero metrics, got %#v", got)
	}
}

func TestCalculateMetricsSingleBudget(t *testing.T) {
	repo := newFakeRepo()
	b, _ := domain.NewBudget(domain.BudgetInput{ID: "b1", DepartmentID: "d1", Amount: decimal.NewFromInt(1_000_000), SpentAmount: decimal.NewFromInt(250_000)}, testNow)
	repo.budgets[b.ID] = b
	svc := newTestService(repo, testNow)

	got, err := svc.CalculateMetrics(context.Background(), domain.Scope{}, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("CalculateMetrics() error = %v", err)
	}
	if got.BudgetUsed != 250000 || got.BudgetRemaining != 750000 || got.BudgetPercentage != 25 {
		t.Fatalf("unexpected financial metrics %#v", got)
	}
	if got.EconomicImpact != 25 {
		t.Fatalf("expected economic impact 25, got %v", got.EconomicImpact)
	}
}

func TestCalculateMetricsActiveProgramsWithoutBeneficiaries(t *testing.T) {
	repo := newFakeRepo()
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		p, _ := domain.NewProgram(domain.ProgramInput{ID: id, Name: id, DepartmentID: "d1", Status: domain.ProgramStatusActive}, testNow)
		repo.programs[p.ID] = p
	}
	svc := newTestService(repo, testNow)
	got, err := svc.CalculateMetrics(context.Background(), domain.Scope{}, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("CalculateMetrics() error = %v", err)
	}
	if got.EnvironmentalImpact != 16 || got.SocialImpact != 0 || got.EconomicImpact != 0 {
		t.Fatalf("unexpected impact scores %#v", got)
	}
	if math.Abs(got.OverallImpact-16.0/3) > 1e-9 {
		t.Fatalf("unexpected overall impact %v", got.OverallImpact)
	}
}

func TestCalculateMetricsZeroBudgetWithSpend(t *testing.T) {
	repo := newFakeRepo()
	b, _ := domain.NewBudget(domain.BudgetInput{ID: "b1", DepartmentID: "d1", SpentAmount: decimal.NewFromInt(10)}, testNow)
	repo.budgets[b.ID] = b
	svc := newTestService(repo, testNow)
	got, err := svc.CalculateMetrics(context.Background(), domain.Scope{}, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("CalculateMetrics() error = %v", err)
	}
	if got.BudgetPercentage != 0 || got.BudgetRemaining != 0 {
		t.Fatalf("expected guarded budget ratios, got %#v", got)
	}
}

func TestCalculateMetricsImpactClamped(t *testing.T) {
	repo := newFakeRepo()
	pr, _ := domain.NewProject(domain.ProjectInput{ID: "pr", ProgramID: "p", Name: "x"}, testNow)
	repo.projects[pr.ID] = pr
	a, _ := domain.NewActivity(domain.ActivityInput{ID: "a", ProjectID: "pr", Name: "x", Participants: 10_000}, testNow)
	repo.activities[a.ID] = a
	for i := range 25 {
		id := string(rune('a' + i))
		p, _ := domain.NewProgram(domain.ProgramInput{ID: id, Name: id, DepartmentID: "d", Status: domain.ProgramStatusActive}, testNow)
		repo.programs[id] = p
	}
	b, _ := domain.NewBudget(domain.BudgetInput{ID: "b", DepartmentID: "d", Amount: decimal.NewFromInt(100), SpentAmount: decimal.NewFromInt(300)}, testNow)
	repo.budgets[b.ID] = b

	got, err := newTestService(repo, testNow).CalculateMetrics(context.Background(), domain.Scope{}, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("CalculateMetrics() error = %v", err)
	}
	if got.BudgetPercentage != 300 {
		t.Fatalf("expected raw budget percentage 300, got %v", got.BudgetPercentage)
	}
	for name, v := range map[string]float64{
		"social":        got.SocialImpact,
		"environmental": got.EnvironmentalImpact,
		"economic":      got.EconomicImpact,
		"overall":       got.OverallImpact,
	} {
		if v != 100 {
			t.Fatalf("%s impact = %v, want 100", name, v)
		}
	}
}

func TestCalculateMetricsScopes(t *testing.T) {
	repo := newFakeRepo()
	seedFixture(t, repo)
	svc := newTestService(repo, testNow)
	ctx := context.Background()

	all, err := svc.CalculateMetrics(ctx, domain.Scope{}, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("CalculateMetrics(all) error = %v", err)
	}
	if all.TotalPrograms != 3 || all.ActivePrograms != 2 || all.CompletedPrograms != 1 {
		t.Fatalf("unexpected program counts %#v", all)
	}
	if all.TotalActivities != 3 || all.CompletedActivities != 1 || all.OngoingActivities != 1 || all.TotalBeneficiaries != 500 {
		t.Fatalf("unexpected activity counts %#v", all)
	}
	if all.TotalBudget != 1_500_000 || all.BudgetUsed != 750_000 || all.BudgetPercentage != 50 {
		t.Fatalf("unexpected budget totals %#v", all)
	}

	program, err := svc.CalculateMetrics(ctx, domain.Scope{ProgramID: "p3", DepartmentID: "d1"}, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("CalculateMetrics(program) error = %v", err)
	}
	if program.TotalPrograms != 1 || program.TotalActivities != 1 || program.TotalBudget != 500_000 || program.TotalStakeholders != 1 {
		t.Fatalf("program scope must win over department scope, got %#v", program)
	}

	dept, err := svc.CalculateMetrics(ctx, domain.Scope{DepartmentID: "d1"}, domain.TimeWindow{})
	if err != nil {
		t.Fatalf("CalculateMetrics(department) error = %v", err)
	}
	if dept.TotalPrograms != 2 || dept.TotalActivities != 2 || dept.TotalBudget != 1_000_000 || dept.TotalStakeholders != 1 {
		t.Fatalf("unexpected department metrics %#v", dept)
	}

	january, err := svc.CalculateMetrics(ctx, domain.Scope{}, domain.ResolvePeriod("Jan-2024", testNow).Window())
	if err != nil {
		t.Fatalf("CalculateMetrics(january) error = %v", err)
	}
	if january.TotalActivities != 1 || january.TotalBudget != 1_000_000 {
		t.Fatalf("unexpected january metrics %#v", january)
	}

	later, err := svc.CalculateMetrics(ctx, domain.Scope{}, domain.ResolvePeriod("Q2-2024", testNow).Window())
	if err != nil {
		t.Fatalf("CalculateMetrics(q2) error = %v", err)
	}
	if later.TotalStakeholders != 2 || all.TotalStakeholders != 2 {
		t.Fatalf("stakeholders registered earlier must still count, got %d and %d", later.TotalStakeholders, all.TotalStakeholders)
	}
}

func TestCalculateMetricsFailFast(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("db down")
	_, err := newTestService(repo, testNow).CalculateMetrics(context.Background(), domain.Scope{}, domain.TimeWindow{})
	if err == nil || !errors.Is(err, repo.listErr) {
		t.Fatalf("expected read failure to abort, got %v", err)
	}
}

func TestCalculateMetricsRejectsInvertedWindow(t *testing.T) {
	svc := newTestService(newFakeRepo(), testNow)
	_, err := svc.CalculateMetrics(context.Background(), domain.Scope{}, domain.NewTimeWindow(at(2024, 2, 1), at(2024, 1, 1)))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		current, previous, want float64
	}{
		{10, 0, 100},
		{0, 0, 0},
		{-5, 0, 0},
		{150, 100, 50},
		{50, 100, -50},
		{0, 40, -100},
	}
	for _, tc := range cases {
		got := PercentChange(tc.current, tc.previous)
		if got != tc.want || math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("PercentChange(%v, %v) = %v, want %v", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestComparePeriods(t *testing.T) {
	repo := newFakeRepo()
	seedFixture(t, repo)
	svc := newTestService(repo, testNow)

	got, err := svc.ComparePeriods(context.Background(), "Feb-2024", "Jan-2024", domain.Scope{})
	if err != nil {
		t.Fatalf("ComparePeriods() error = %v", err)
	}
	if got.Period1.Period != "Feb-2024" || got.Period2.StartDate != "2024-01-01" || got.Period2.EndDate != "2024-01-31" {
		t.Fatalf("unexpected period descriptors %#v / %#v", got.Period1, got.Period2)
	}
	// January: budget used 250000, 1 activity. February: 500000 used, 2 activities, 0 programs.
	if got.Comparison.BudgetChange != 100 {
		t.Fatalf("expected budget change 100, got %v", got.Comparison.BudgetChange)
	}
	if got.Comparison.ActivitiesChange != 100 {
		t.Fatalf("expected activities change 100, got %v", got.Comparison.ActivitiesChange)
	}
	if got.Comparison.ProgramsChange != -100 {
		t.Fatalf("expected programs change -100, got %v", got.Comparison.ProgramsChange)
	}
}
