package domain

import (
	"strings"
	"time"
)

// AverageSatisfactionPlaceholder is reported as averageSatisfaction until a feedback
// source exists. Consumers compare against this exact value, so keep it stable.
const AverageSatisfactionPlaceholder = 85.0

// ReportMetrics is the standardized bundle of financial, programmatic and impact figures.
// Every field is finite and non-negative; percentages and impact scores are bounded by 100
// except BudgetPercentage, which reads as a completion ratio and may exceed it on overspend.
type ReportMetrics struct {
	TotalBudget      float64 `json:"totalBudget"`
	BudgetUsed       float64 `json:"budgetUsed"`
	BudgetRemaining  float64 `json:"budgetRemaining"`
	BudgetPercentage float64 `json:"budgetPercentage"`

	TotalPrograms         int     `json:"totalPrograms"`
	ActivePrograms        int     `json:"activePrograms"`
	CompletedPrograms     int     `json:"completedPrograms"`
	ProgramCompletionRate float64 `json:"programCompletionRate"`

	TotalActivities        int     `json:"totalActivities"`
	CompletedActivities    int     `json:"completedActivities"`
	OngoingActivities      int     `json:"ongoingActivities"`
	ActivityCompletionRate float64 `json:"activityCompletionRate"`

	TotalStakeholders   int     `json:"totalStakeholders"`
	TotalBeneficiaries  int     `json:"totalBeneficiaries"`
	AverageSatisfaction float64 `json:"averageSatisfaction"`

	SocialImpact        float64 `json:"socialImpact"`
	EnvironmentalImpact float64 `json:"environmentalImpact"`
	EconomicImpact      float64 `json:"economicImpact"`
	OverallImpact       float64 `json:"overallImpact"`
}

// MetricsSnapshot is an immutable ReportMetrics row tied to one report version.
type MetricsSnapshot struct {
	ID            string        `json:"id"`
	ReportID      string        `json:"reportId"`
	ReportVersion int           `json:"reportVersion"`
	Metrics       ReportMetrics `json:"metrics"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// NewMetricsSnapshot constructs a snapshot for one report version.
func NewMetricsSnapshot(id, reportID string, version int, metrics ReportMetrics, now time.Time) (MetricsSnapshot, error) {
	id = strings.TrimSpace(id)
	reportID = strings.TrimSpace(reportID)
	if id == "" || reportID == "" {
		return MetricsSnapshot{}, ErrInvalidID
	}
	if version < 1 {
		return MetricsSnapshot{}, ErrInvalidReference
	}
	return MetricsSnapshot{
		ID:            id,
		ReportID:      reportID,
		ReportVersion: version,
		Metrics:       metrics,
		CreatedAt:     now.UTC(),
	}, nil
}
