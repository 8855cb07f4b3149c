package app

import (
	"context"
	"fmt"

	"github.com/hylla/csrpulse/internal/domain"
	"golang.org/x/sync/errgroup"
)

// PeriodMetrics is one side of a comparison.
type PeriodMetrics struct {
	Period    string               `json:"period"`
	Label     string               `json:"label"`
	StartDate string               `json:"startDate"`
	EndDate   string               `json:"endDate"`
	Metrics   domain.ReportMetrics `json:"metrics"`
}

// ComparisonDeltas holds PercentChange results of period1 against period2.
type ComparisonDeltas struct {
	BudgetChange        float64 `json:"budgetChange"`
	ProgramsChange      float64 `json:"programsChange"`
	ActivitiesChange    float64 `json:"activitiesChange"`
	BeneficiariesChange float64 `json:"beneficiariesChange"`
	ImpactChange        float64 `json:"impactChange"`
}

// PeriodComparison is the result of ComparePeriods.
type PeriodComparison struct {
	Period1    PeriodMetrics    `json:"period1"`
	Period2    PeriodMetrics    `json:"period2"`
	Comparison ComparisonDeltas `json:"comparison"`
}

// PercentChange returns the growth of current over previous in percent.
// A zero baseline yields 100 when current is positive and 0 otherwise.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// ComparePeriods computes metrics for both periods and the deltas of periodA relative to periodB.
func (s *Service) ComparePeriods(ctx context.Context, periodA, periodB string, scope domain.Scope) (PeriodComparison, error) {
	now := s.now()
	ranges := [2]domain.PeriodRange{domain.ResolvePeriod(periodA, now), domain.ResolvePeriod(periodB, now)}
	var metrics [2]domain.ReportMetrics

	g, gctx := errgroup.WithContext(ctx)
	for i, rng := range ranges {
		g.Go(func() error {
			m, err := s.CalculateMetrics(gctx, scope, rng.Window())
			if err != nil {
				return fmt.Errorf("metrics for %q: %w", rng.Token, err)
			}
			metrics[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PeriodComparison{}, err
	}

	return PeriodComparison{
		Period1:    periodMetrics(ranges[0], metrics[0]),
		Period2:    periodMetrics(ranges[1], metrics[1]),
		Comparison: compareMetrics(metrics[0], metrics[1]),
	}, nil
}

func compareMetrics(current, previous domain.ReportMetrics) ComparisonDeltas {
	return ComparisonDeltas{
		BudgetChange:        PercentChange(current.BudgetUsed, previous.BudgetUsed),
		ProgramsChange:      PercentChange(float64(current.TotalPrograms), float64(previous.TotalPrograms)),
		ActivitiesChange:    PercentChange(float64(current.TotalActivities), float64(previous.TotalActivities)),
		BeneficiariesChange: PercentChange(float64(current.TotalBeneficiaries), float64(previous.TotalBeneficiaries)),
		ImpactChange:        PercentChange(current.OverallImpact, previous.OverallImpact),
	}
}

func periodMetrics(rng domain.PeriodRange, m domain.ReportMetrics) PeriodMetrics {
	return PeriodMetrics{
		Period:    rng.Token,
		Label:     rng.Label,
		StartDate: rng.Start.Format(dateLayout),
		EndDate:   rng.End.Format(dateLayout),
		Metrics:   m,
	}
}
