package domain

import "time"

// OtherCategoryLabel buckets records whose category has no name.
const OtherCategoryLabel = "Lainnya"

// ReportContent is the structured body of a report.
type ReportContent struct {
	Summary      SummarySection     `json:"summary"`
	Programs     ProgramsSection    `json:"programs"`
	Activities   ActivitiesSection  `json:"activities"`
	Budgets      BudgetsSection     `json:"budgets"`
	Stakeholders StakeholderSection `json:"stakeholders"`
	Impact       ImpactSection      `json:"impact"`
}

// SummarySection carries the narrative overview and the full metrics bundle.
type SummarySection struct {
	Overview   string        `json:"overview"`
	Highlights []string      `json:"highlights"`
	Metrics    ReportMetrics `json:"metrics"`
}

// ProgramsSection lists every program in scope.
type ProgramsSection struct {
	Total int              `json:"total"`
	List  []ProgramSummary `json:"list"`
}

// ProgramSummary is one program row in report content.
type ProgramSummary struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Department string        `json:"department"`
	Category   string        `json:"category"`
	Status     ProgramStatus `json:"status"`
	StartDate  *time.Time    `json:"startDate"`
	EndDate    *time.Time    `json:"endDate"`
}

// ActivitiesSection lists the most recent activities in scope.
type ActivitiesSection struct {
	Total     int               `json:"total"`
	Completed int               `json:"completed"`
	Ongoing   int               `json:"ongoing"`
	List      []ActivitySummary `json:"list"`
}

// ActivitySummary is one activity row in report content.
type ActivitySummary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Program      string         `json:"program"`
	Type         string         `json:"type"`
	Status       ActivityStatus `json:"status"`
	Participants int            `json:"participants"`
	StartDate    *time.Time     `json:"startDate"`
	EndDate      *time.Time     `json:"endDate"`
}

// BudgetsSection mirrors the financial metrics and lists recent budget lines.
type BudgetsSection struct {
	TotalBudget      float64         `json:"totalBudget"`
	BudgetUsed       float64         `json:"budgetUsed"`
	BudgetRemaining  float64         `json:"budgetRemaining"`
	BudgetPercentage float64         `json:"budgetPercentage"`
	List             []BudgetSummary `json:"list"`
}

// BudgetSummary is one budget row in report content.
type BudgetSummary struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Planned     float64 `json:"planned"`
	Realized    float64 `json:"realized"`
	Percentage  float64 `json:"percentage"`
	Category    string  `json:"category"`
}

// StakeholderSection breaks stakeholders down by category.
type StakeholderSection struct {
	Total      int                  `json:"total"`
	ByCategory map[string]int       `json:"byCategory"`
	List       []StakeholderSummary `json:"list"`
}

// StakeholderSummary is one stakeholder row in report content.
type StakeholderSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Type       string `json:"type"`
	Importance string `json:"importance"`
	Influence  string `json:"influence"`
}

// ImpactSection duplicates the impact figures for renderers.
type ImpactSection struct {
	SocialImpact        float64 `json:"socialImpact"`
	EnvironmentalImpact float64 `json:"environmentalImpact"`
	EconomicImpact      float64 `json:"economicImpact"`
	OverallImpact       float64 `json:"overallImpact"`
	TotalBeneficiaries  int     `json:"totalBeneficiaries"`
	AverageSatisfaction float64 `json:"averageSatisfaction"`
}
