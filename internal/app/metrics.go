package app

import (
	"context"

	"github.com/hylla/csrpulse/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateMetrics reduces the records selected by scope and window into a ReportMetrics value.
// Empty record sets yield all-zero metrics; only read failures and inverted windows are errors.
func (s *Service) CalculateMetrics(ctx context.Context, scope domain.Scope, window domain.TimeWindow) (domain.ReportMetrics, error) {
	set, err := s.loadRecords(ctx, domain.RecordFilter{Scope: scope, Window: window})
	if err != nil {
		return domain.ReportMetrics{}, err
	}
	return computeMetrics(set), nil
}

// computeMetrics is the pure reduction behind CalculateMetrics.
func computeMetrics(set recordSet) domain.ReportMetrics {
	var m domain.ReportMetrics

	planned, spent := sumBudgets(set.budgets)
	m.TotalBudget = planned.InexactFloat64()
	m.BudgetUsed = spent.InexactFloat64()
	m.BudgetRemaining = decimal.Max(planned.Sub(spent), decimal.Zero).InexactFloat64()
	m.BudgetPercentage = decimalPercent(spent, planned)

	m.TotalPrograms = len(set.programs)
	for _, p := range set.programs {
		switch p.Status {
		case domain.ProgramStatusActive:
			m.ActivePrograms++
		case domain.ProgramStatusCompleted:
			m.CompletedPrograms++
		}
	}
	m.ProgramCompletionRate = percentOf(float64(m.CompletedPrograms), float64(m.TotalPrograms))

	m.TotalActivities = len(set.activities)
	for _, a := range set.activities {
		switch a.Status {
		case domain.ActivityStatusCompleted:
			m.CompletedActivities++
		case domain.ActivityStatusOngoing:
			m.OngoingActivities++
		}
		m.TotalBeneficiaries += max(a.Participants, 0)
	}
	m.ActivityCompletionRate = percentOf(float64(m.CompletedActivities), float64(m.TotalActivities))

	m.TotalStakeholders = len(set.stakeholders)
	m.AverageSatisfaction = domain.AverageSatisfactionPlaceholder

	m.SocialImpact = clampScore(float64(m.TotalBeneficiaries) / 100 * 20)
	m.EnvironmentalImpact = clampScore(float64(m.ActivePrograms) / 5 * 20)
	m.EconomicImpact = clampScore(m.BudgetPercentage)
	m.OverallImpact = clampScore((m.SocialImpact + m.EnvironmentalImpact + m.EconomicImpact) / 3)
	return m
}

func sumBudgets(budgets []domain.Budget) (decimal.Decimal, decimal.Decimal) {
	planned, spent := decimal.Zero, decimal.Zero
	for _, b := range budgets {
		planned = planned.Add(b.Amount)
		spent = spent.Add(b.SpentAmount)
	}
	return planned, spent
}

// decimalPercent returns part/whole*100, or 0 when whole is not positive.
func decimalPercent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).InexactFloat64()
}

// percentOf returns part/whole*100, or 0 when whole is not positive.
func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

func clampScore(v float64) float64 {
	return min(max(v, 0), 100)
}
