package app

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hylla/csrpulse/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// NoDataLabel names the single placeholder row that replaces an empty dashboard collection.
// Clients match on this exact string, so it must not change.
const NoDataLabel = "No Data"

// TopProgramsLimit caps the topPrograms collection.
const TopProgramsLimit = 5

// AnalyticsRequest selects the dashboard period, scope and optional comparison period.
type AnalyticsRequest struct {
	Period  string
	Scope   domain.Scope
	Compare string
}

// Analytics is the dashboard payload.
type Analytics struct {
	Overview              AnalyticsOverview  `json:"overview"`
	BudgetTrend           []BudgetTrendRow   `json:"budgetTrend"`
	ProgramDistribution   []DistributionRow  `json:"programDistribution"`
	ActivityStatus        []StatusRow        `json:"activityStatus"`
	DepartmentPerformance []DepartmentRow    `json:"departmentPerformance"`
	MonthlyImpact         []MonthlyImpactRow `json:"monthlyImpact"`
	TopPrograms           []TopProgramRow    `json:"topPrograms"`
	Comparison            *PeriodComparison  `json:"comparison,omitempty"`
}

// AnalyticsOverview carries current totals and growth against the previous period.
type AnalyticsOverview struct {
	Period         domain.PeriodRange   `json:"period"`
	PreviousPeriod domain.PeriodRange   `json:"previousPeriod"`
	Metrics        domain.ReportMetrics `json:"metrics"`
	Growth         OverviewGrowth       `json:"growth"`
}

// OverviewGrowth holds PercentChange values against the previous period.
type OverviewGrowth struct {
	Budget        float64 `json:"budget"`
	Programs      float64 `json:"programs"`
	Activities    float64 `json:"activities"`
	Beneficiaries float64 `json:"beneficiaries"`
}

// BudgetTrendRow is planned vs realized budget for one month.
type BudgetTrendRow struct {
	Name     string  `json:"name"`
	Planned  float64 `json:"planned"`
	Realized float64 `json:"realized"`
}

// DistributionRow counts programs per category.
type DistributionRow struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Budget float64 `json:"budget"`
}

// StatusRow counts activities per status.
type StatusRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DepartmentRow summarizes one department.
type DepartmentRow struct {
	Name       string  `json:"name"`
	Programs   int     `json:"programs"`
	Budget     float64 `json:"budget"`
	Spent      float64 `json:"spent"`
	Percentage float64 `json:"percentage"`
}

// MonthlyImpactRow aggregates activities by start month.
type MonthlyImpactRow struct {
	Name          string `json:"name"`
	Activities    int    `json:"activities"`
	Beneficiaries int    `json:"beneficiaries"`
}

// TopProgramRow ranks programs by realized budget.
type TopProgramRow struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Budget     float64 `json:"budget"`
	Spent      float64 `json:"spent"`
	Percentage float64 `json:"percentage"`
}

// Analytics builds the dashboard for one period.
func (s *Service) Analytics(ctx context.Context, req AnalyticsRequest) (Analytics, error) {
	now := s.now()
	current := domain.ResolvePeriod(req.Period, now)
	previous := previousRange(current, now)

	var (
		set        recordSet
		prevMetric domain.ReportMetrics
		comparison *PeriodComparison
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		set, err = s.loadRecords(gctx, domain.RecordFilter{Scope: req.Scope, Window: current.Window()})
		return err
	})
	g.Go(func() error {
		var err error
		prevMetric, err = s.CalculateMetrics(gctx, req.Scope, previous.Window())
		if err != nil {
			return fmt.Errorf("previous period metrics: %w", err)
		}
		return nil
	})
	if strings.TrimSpace(req.Compare) != "" {
		g.Go(func() error {
			result, err := s.ComparePeriods(gctx, current.Token, req.Compare, req.Scope)
			if err != nil {
				return err
			}
			comparison = &result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Analytics{}, err
	}

	metrics := computeMetrics(set)
	out := Analytics{
		Overview: AnalyticsOverview{
			Period:         current,
			PreviousPeriod: previous,
			Metrics:        metrics,
			Growth: OverviewGrowth{
				Budget:        PercentChange(metrics.BudgetUsed, prevMetric.BudgetUsed),
				Programs:      PercentChange(float64(metrics.TotalPrograms), float64(prevMetric.TotalPrograms)),
				Activities:    PercentChange(float64(metrics.TotalActivities), float64(prevMetric.TotalActivities)),
				Beneficiaries: PercentChange(float64(metrics.TotalBeneficiaries), float64(prevMetric.TotalBeneficiaries)),
			},
		},
		BudgetTrend:           orPlaceholder(budgetTrend(current, set.budgets), BudgetTrendRow{Name: NoDataLabel}),
		ProgramDistribution:   orPlaceholder(programDistribution(set), DistributionRow{Name: NoDataLabel}),
		ActivityStatus:        orPlaceholder(activityStatus(set.activities), StatusRow{Name: NoDataLabel}),
		DepartmentPerformance: orPlaceholder(departmentPerformance(set), DepartmentRow{Name: NoDataLabel}),
		MonthlyImpact:         orPlaceholder(monthlyImpact(set.activities), MonthlyImpactRow{Name: NoDataLabel}),
		TopPrograms:           orPlaceholder(topPrograms(set), TopProgramRow{Name: NoDataLabel}),
		Comparison:            comparison,
	}
	return out, nil
}

// previousRange resolves the range before rng. The current-month fallback has no token to
// step back from, so it steps back one calendar month instead.
func previousRange(rng domain.PeriodRange, now time.Time) domain.PeriodRange {
	if rng.Kind != domain.PeriodKindCurrent {
		return domain.ResolvePeriod(domain.PreviousPeriod(rng.Token), now)
	}
	start := rng.Start.AddDate(0, -1, 0)
	return domain.PeriodRange{
		Token: fmt.Sprintf("%s-%d", domain.MonthLabel(start)[:3], start.Year()),
		Label: domain.MonthLabel(start),
		Kind:  domain.PeriodKindMonth,
		Start: start,
		End:   rng.Start.AddDate(0, 0, -1),
	}
}

func orPlaceholder[T any](rows []T, placeholder T) []T {
	if len(rows) == 0 {
		return []T{placeholder}
	}
	return rows
}

// budgetTrend buckets budgets by creation month across every month of rng.
func budgetTrend(rng domain.PeriodRange, budgets []domain.Budget) []BudgetTrendRow {
	if len(budgets) == 0 {
		return nil
	}
	type totals struct{ planned, realized decimal.Decimal }
	byMonth := map[string]totals{}
	for _, b := range budgets {
		key := domain.MonthLabel(b.CreatedAt)
		t := byMonth[key]
		t.planned = t.planned.Add(b.Amount)
		t.realized = t.realized.Add(b.SpentAmount)
		byMonth[key] = t
	}
	rows := make([]BudgetTrendRow, 0, 12)
	for month := rng.Start; !month.After(rng.End); month = month.AddDate(0, 1, 0) {
		t := byMonth[domain.MonthLabel(month)]
		rows = append(rows, BudgetTrendRow{
			Name:     domain.MonthLabel(month),
			Planned:  t.planned.InexactFloat64(),
			Realized: t.realized.InexactFloat64(),
		})
	}
	return rows
}

// programBudgets sums budget lines per program id.
func programBudgets(budgets []domain.Budget) map[string][2]decimal.Decimal {
	out := map[string][2]decimal.Decimal{}
	for _, b := range budgets {
		if b.ProgramID == "" {
			continue
		}
		sums := out[b.ProgramID]
		sums[0] = sums[0].Add(b.Amount)
		sums[1] = sums[1].Add(b.SpentAmount)
		out[b.ProgramID] = sums
	}
	return out
}

func programDistribution(set recordSet) []DistributionRow {
	budgets := programBudgets(set.budgets)
	byCategory := map[string]*DistributionRow{}
	planned := map[string]decimal.Decimal{}
	for _, p := range set.programs {
		name := categoryLabel(p.CategoryName)
		row, ok := byCategory[name]
		if !ok {
			row = &DistributionRow{Name: name}
			byCategory[name] = row
		}
		row.Count++
		planned[name] = planned[name].Add(budgets[p.ID][0])
	}
	rows := make([]DistributionRow, 0, len(byCategory))
	for name, row := range byCategory {
		row.Budget = planned[name].InexactFloat64()
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b DistributionRow) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Name, b.Name))
	})
	return rows
}

func activityStatus(activities []domain.Activity) []StatusRow {
	counts := map[domain.ActivityStatus]int{}
	for _, a := range activities {
		counts[a.Status]++
	}
	rows := make([]StatusRow, 0, len(counts))
	for _, status := range domain.ActivityStatuses() {
		if counts[status] == 0 {
			continue
		}
		rows = append(rows, StatusRow{Name: string(status), Count: counts[status]})
	}
	return rows
}

func departmentPerformance(set recordSet) []DepartmentRow {
	type acc struct {
		name          string
		programs      int
		planned, used decimal.Decimal
	}
	byDept := map[string]*acc{}
	get := func(id, name string) *acc {
		a, ok := byDept[id]
		if !ok {
			a = &acc{name: id}
			byDept[id] = a
		}
		if name != "" {
			a.name = name
		}
		return a
	}
	for _, p := range set.programs {
		get(p.DepartmentID, p.DepartmentName).programs++
	}
	for _, b := range set.budgets {
		a := get(b.DepartmentID, b.DepartmentName)
		a.planned = a.planned.Add(b.Amount)
		a.used = a.used.Add(b.SpentAmount)
	}
	rows := make([]DepartmentRow, 0, len(byDept))
	for _, a := range byDept {
		rows = append(rows, DepartmentRow{
			Name:       categoryLabel(a.name),
			Programs:   a.programs,
			Budget:     a.planned.InexactFloat64(),
			Spent:      a.used.InexactFloat64(),
			Percentage: decimalPercent(a.used, a.planned),
		})
	}
	slices.SortFunc(rows, func(a, b DepartmentRow) int { return cmp.Compare(a.Name, b.Name) })
	return rows
}

func monthlyImpact(activities []domain.Activity) []MonthlyImpactRow {
	type acc struct {
		month time.Time
		row   MonthlyImpactRow
	}
	byMonth := map[time.Time]*acc{}
	for _, a := range activities {
		at := a.CreatedAt
		if a.StartDate != nil {
			at = *a.StartDate
		}
		month := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
		entry, ok := byMonth[month]
		if !ok {
			entry = &acc{month: month, row: MonthlyImpactRow{Name: domain.MonthLabel(month)}}
			byMonth[month] = entry
		}
		entry.row.Activities++
		entry.row.Beneficiaries += max(a.Participants, 0)
	}
	entries := make([]*acc, 0, len(byMonth))
	for _, e := range byMonth {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *acc) int { return a.month.Compare(b.month) })
	rows := make([]MonthlyImpactRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.row)
	}
	return rows
}

func topPrograms(set recordSet) []TopProgramRow {
	budgets := programBudgets(set.budgets)
	rows := make([]TopProgramRow, 0, len(set.programs))
	for _, p := range set.programs {
		sums := budgets[p.ID]
		rows = append(rows, TopProgramRow{
			ID:         p.ID,
			Name:       p.Name,
			Budget:     sums[0].InexactFloat64(),
			Spent:      sums[1].InexactFloat64(),
			Percentage: decimalPercent(sums[1], sums[0]),
		})
	}
	slices.SortFunc(rows, func(a, b TopProgramRow) int {
		return cmp.Or(cmp.Compare(b.Spent, a.Spent), cmp.Compare(a.ID, b.ID))
	})
	return rows[:min(len(rows), TopProgramsLimit)]
}
