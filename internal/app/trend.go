package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/csrpulse/internal/domain"
	"golang.org/x/sync/errgroup"
)

const dateLayout = time.DateOnly

// MaxTrendBuckets bounds the number of points one series may contain.
const MaxTrendBuckets = 50

// TrendMetric selects the metric a series reports.
type TrendMetric string

// TrendMetricBudget and related constants enumerate series metrics.
const (
	TrendMetricBudget        TrendMetric = "budget"
	TrendMetricActivities    TrendMetric = "activities"
	TrendMetricBeneficiaries TrendMetric = "beneficiaries"
)

// TrendGrouping selects bucket size.
type TrendGrouping string

// TrendGroupMonth and related constants enumerate bucket sizes.
const (
	TrendGroupMonth   TrendGrouping = "month"
	TrendGroupQuarter TrendGrouping = "quarter"
	TrendGroupYear    TrendGrouping = "year"
)

// TrendRequest describes one series. Start and End are inclusive instants.
type TrendRequest struct {
	Metric  TrendMetric
	GroupBy TrendGrouping
	Start   time.Time
	End     time.Time
	Scope   domain.Scope
}

// TrendPoint is one bucket. EndDate is exclusive and equals the next point's StartDate.
type TrendPoint struct {
	Period    string    `json:"period"`
	Value     float64   `json:"value"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ParseTrendMetric canonicalizes a metric name.
func ParseTrendMetric(raw string) (TrendMetric, error) {
	switch m := TrendMetric(strings.ToLower(strings.TrimSpace(raw))); m {
	case TrendMetricBudget, TrendMetricActivities, TrendMetricBeneficiaries:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown trend metric %q", ErrInvalidInput, raw)
	}
}

// ParseTrendGrouping canonicalizes a bucket size, defaulting to month.
func ParseTrendGrouping(raw string) (TrendGrouping, error) {
	switch g := TrendGrouping(strings.ToLower(strings.TrimSpace(raw))); g {
	case "":
		return TrendGroupMonth, nil
	case TrendGroupMonth, TrendGroupQuarter, TrendGroupYear:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown trend grouping %q", ErrInvalidInput, raw)
	}
}

// TrendSeries buckets [Start, End] and computes the requested metric per bucket.
// Bucket boundaries are laid out first; metric calls then run concurrently and land by index,
// so points are always chronological and contiguous.
func (s *Service) TrendSeries(ctx context.Context, req TrendRequest) ([]TrendPoint, error) {
	metric, err := ParseTrendMetric(string(req.Metric))
	if err != nil {
		return nil, err
	}
	groupBy, err := ParseTrendGrouping(string(req.GroupBy))
	if err != nil {
		return nil, err
	}
	if req.End.Before(req.Start) {
		return nil, fmt.Errorf("%w: end %s precedes start %s", ErrInvalidRange, req.End.Format(dateLayout), req.Start.Format(dateLayout))
	}

	points := trendBuckets(groupBy, req.Start.UTC(), req.End.UTC())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.trendConcurrency)
	for i := range points {
		g.Go(func() error {
			m, err := s.CalculateMetrics(gctx, req.Scope, domain.NewTimeWindow(points[i].StartDate, points[i].EndDate))
			if err != nil {
				return fmt.Errorf("trend bucket %s: %w", points[i].Period, err)
			}
			points[i].Value = selectTrendValue(metric, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// trendBuckets walks from start until a bucket begins after end or the bucket cap is hit.
// Boundary k is start plus k steps, clamped to the last day of short months.
func trendBuckets(groupBy TrendGrouping, start, end time.Time) []TrendPoint {
	step := bucketMonths(groupBy)
	points := make([]TrendPoint, 0, 12)
	for current, k := start, 1; !current.After(end) && len(points) < MaxTrendBuckets; k++ {
		next := addMonthsClamped(start, k*step)
		points = append(points, TrendPoint{Period: bucketLabel(groupBy, current), StartDate: current, EndDate: next})
		current = next
	}
	return points
}

func bucketMonths(groupBy TrendGrouping) int {
	switch groupBy {
	case TrendGroupQuarter:
		return 3
	case TrendGroupYear:
		return 12
	default:
		return 1
	}
}

func bucketLabel(groupBy TrendGrouping, current time.Time) string {
	switch groupBy {
	case TrendGroupQuarter:
		return fmt.Sprintf("Q%d %d", domain.QuarterOf(current), current.Year())
	case TrendGroupYear:
		return strconv.Itoa(current.Year())
	default:
		return domain.MonthLabel(current)
	}
}

// addMonthsClamped adds n months to t without overflowing into the following month.
func addMonthsClamped(t time.Time, n int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	return firstOfTarget.AddDate(0, 0, min(t.Day(), lastDay)-1)
}

func selectTrendValue(metric TrendMetric, m domain.ReportMetrics) float64 {
	switch metric {
	case TrendMetricActivities:
		return float64(m.TotalActivities)
	case TrendMetricBeneficiaries:
		return float64(m.TotalBeneficiaries)
	default:
		return m.BudgetUsed
	}
}
