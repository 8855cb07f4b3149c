package app

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hylla/csrpulse/internal/domain"
)

// ContentListLimit caps the activity, budget and stakeholder lists in report content.
const ContentListLimit = 50

// ContentRequest selects what GenerateReportContent summarizes.
type ContentRequest struct {
	Type  domain.ReportType
	Scope domain.Scope
	Range domain.PeriodRange
}

// GenerateReportContent assembles the six report sections from one read of the records.
// For fixed records the output is identical on every call.
func (s *Service) GenerateReportContent(ctx context.Context, req ContentRequest) (domain.ReportContent, error) {
	set, err := s.loadRecords(ctx, domain.RecordFilter{Scope: req.Scope, Window: req.Range.Window()})
	if err != nil {
		return domain.ReportContent{}, err
	}
	return buildContent(req, set), nil
}

func buildContent(req ContentRequest, set recordSet) domain.ReportContent {
	metrics := computeMetrics(set)
	return domain.ReportContent{
		Summary: domain.SummarySection{
			Overview:   overviewText(req, metrics),
			Highlights: highlights(metrics),
			Metrics:    metrics,
		},
		Programs:     programsSection(set.programs),
		Activities:   activitiesSection(set.activities, metrics),
		Budgets:      budgetsSection(set.budgets, metrics),
		Stakeholders: stakeholderSection(set.stakeholders),
		Impact: domain.ImpactSection{
			SocialImpact:        metrics.SocialImpact,
			EnvironmentalImpact: metrics.EnvironmentalImpact,
			EconomicImpact:      metrics.EconomicImpact,
			OverallImpact:       metrics.OverallImpact,
			TotalBeneficiaries:  metrics.TotalBeneficiaries,
			AverageSatisfaction: metrics.AverageSatisfaction,
		},
	}
}

func overviewText(req ContentRequest, m domain.ReportMetrics) string {
	label := req.Range.Label
	if label == "" {
		label = req.Range.Token
	}
	return fmt.Sprintf(
		"Laporan %s periode %s mencakup %d program, %d kegiatan, dan total anggaran Rp %s dengan realisasi %s%%.",
		req.Type, label, m.TotalPrograms, m.TotalActivities, formatRupiah(m.TotalBudget), formatPercent(m.BudgetPercentage),
	)
}

func highlights(m domain.ReportMetrics) []string {
	return []string{
		fmt.Sprintf("%d program aktif dan %d program selesai", m.ActivePrograms, m.CompletedPrograms),
		fmt.Sprintf("%s kegiatan selesai dari %s kegiatan", formatCount(m.CompletedActivities), formatCount(m.TotalActivities)),
		fmt.Sprintf("%s penerima manfaat menjangkau %s pemangku kepentingan", formatCount(m.TotalBeneficiaries), formatCount(m.TotalStakeholders)),
		fmt.Sprintf("Realisasi anggaran Rp %s dari Rp %s", formatRupiah(m.BudgetUsed), formatRupiah(m.TotalBudget)),
		fmt.Sprintf("Skor dampak keseluruhan %s", formatPercent(m.OverallImpact)),
	}
}

func programsSection(programs []domain.Program) domain.ProgramsSection {
	sorted := slices.Clone(programs)
	slices.SortFunc(sorted, func(a, b domain.Program) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	list := make([]domain.ProgramSummary, 0, len(sorted))
	for _, p := range sorted {
		list = append(list, domain.ProgramSummary{
			ID:         p.ID,
			Name:       p.Name,
			Department: p.DepartmentName,
			Category:   p.CategoryName,
			Status:     p.Status,
			StartDate:  p.StartDate,
			EndDate:    p.EndDate,
		})
	}
	return domain.ProgramsSection{Total: len(programs), List: list}
}

func activitiesSection(activities []domain.Activity, m domain.ReportMetrics) domain.ActivitiesSection {
	sorted := slices.Clone(activities)
	slices.SortFunc(sorted, func(a, b domain.Activity) int {
		return cmp.Or(compareDesc(a.StartDate, b.StartDate), cmp.Compare(a.ID, b.ID))
	})
	sorted = sorted[:min(len(sorted), ContentListLimit)]
	list := make([]domain.ActivitySummary, 0, len(sorted))
	for _, a := range sorted {
		list = append(list, domain.ActivitySummary{
			ID:           a.ID,
			Name:         a.Name,
			Program:      a.ProgramName,
			Type:         a.Type,
			Status:       a.Status,
			Participants: max(a.Participants, 0),
			StartDate:    a.StartDate,
			EndDate:      a.EndDate,
		})
	}
	return domain.ActivitiesSection{
		Total:     m.TotalActivities,
		Completed: m.CompletedActivities,
		Ongoing:   m.OngoingActivities,
		List:      list,
	}
}

func budgetsSection(budgets []domain.Budget, m domain.ReportMetrics) domain.BudgetsSection {
	sorted := slices.Clone(budgets)
	slices.SortFunc(sorted, func(a, b domain.Budget) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	sorted = sorted[:min(len(sorted), ContentListLimit)]
	list := make([]domain.BudgetSummary, 0, len(sorted))
	for _, b := range sorted {
		list = append(list, domain.BudgetSummary{
			ID:          b.ID,
			Description: b.Description,
			Planned:     b.Amount.InexactFloat64(),
			Realized:    b.SpentAmount.InexactFloat64(),
			Percentage:  decimalPercent(b.SpentAmount, b.Amount),
			Category:    b.Category,
		})
	}
	return domain.BudgetsSection{
		TotalBudget:      m.TotalBudget,
		BudgetUsed:       m.BudgetUsed,
		BudgetRemaining:  m.BudgetRemaining,
		BudgetPercentage: m.BudgetPercentage,
		List:             list,
	}
}

func stakeholderSection(stakeholders []domain.Stakeholder) domain.StakeholderSection {
	sorted := slices.Clone(stakeholders)
	slices.SortFunc(sorted, func(a, b domain.Stakeholder) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	sorted = sorted[:min(len(sorted), ContentListLimit)]
	list := make([]domain.StakeholderSummary, 0, len(sorted))
	for _, sh := range sorted {
		list = append(list, domain.StakeholderSummary{
			ID:         sh.ID,
			Name:       sh.Name,
			Category:   categoryLabel(sh.CategoryName),
			Type:       sh.Type,
			Importance: sh.Importance,
			Influence:  sh.Influence,
		})
	}
	return domain.StakeholderSection{
		Total:      len(stakeholders),
		ByCategory: countStakeholdersByCategory(stakeholders),
		List:       list,
	}
}

// countStakeholdersByCategory folds stakeholders into a fresh category-name count map.
func countStakeholdersByCategory(stakeholders []domain.Stakeholder) map[string]int {
	counts := make(map[string]int, len(stakeholders))
	for _, sh := range stakeholders {
		counts[categoryLabel(sh.CategoryName)]++
	}
	return counts
}

func categoryLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return domain.OtherCategoryLabel
	}
	return name
}

// compareDesc orders optional timestamps newest first with nil values last.
func compareDesc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return b.Compare(*a)
	}
}

// formatRupiah renders a whole-rupiah amount with id-ID thousands separators.
func formatRupiah(v float64) string {
	return strings.ReplaceAll(humanize.Comma(int64(math.Round(v))), ",", ".")
}

func formatCount(n int) string {
	return strings.ReplaceAll(humanize.Comma(int64(n)), ",", ".")
}

// formatPercent renders one decimal place with a comma separator.
func formatPercent(v float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.1f", v), ".", ",")
}
