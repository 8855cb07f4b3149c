package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/hylla/csrpulse/internal/domain"
)

// markdownWrapWidth is the glamour word-wrap column for rendered reports.
const markdownWrapWidth = 100

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTable prints a bordered table.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

func count(v int) string {
	return humanize.Comma(int64(v))
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// metricsRows flattens a metrics bundle into label/value rows.
func metricsRows(m domain.ReportMetrics) [][]string {
	return [][]string{
		{"Total budget", money(m.TotalBudget)},
		{"Budget used", money(m.BudgetUsed)},
		{"Budget remaining", money(m.BudgetRemaining)},
		{"Budget used %", pct(m.BudgetPercentage)},
		{"Programs", count(m.TotalPrograms)},
		{"Active programs", count(m.ActivePrograms)},
		{"Completed programs", count(m.CompletedPrograms)},
		{"Program completion", pct(m.ProgramCompletionRate)},
		{"Activities", count(m.TotalActivities)},
		{"Completed activities", count(m.CompletedActivities)},
		{"Ongoing activities", count(m.OngoingActivities)},
		{"Activity completion", pct(m.ActivityCompletionRate)},
		{"Stakeholders", count(m.TotalStakeholders)},
		{"Beneficiaries", count(m.TotalBeneficiaries)},
		{"Average satisfaction", pct(m.AverageSatisfaction)},
		{"Social impact", pct(m.SocialImpact)},
		{"Environmental impact", pct(m.EnvironmentalImpact)},
		{"Economic impact", pct(m.EconomicImpact)},
		{"Overall impact", pct(m.OverallImpact)},
	}
}

// reportRows renders one summary row per report.
func reportRows(reports []domain.Report, now time.Time) [][]string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.ID,
			r.Title,
			string(r.Type),
			string(r.Status),
			r.PeriodLabel,
			strconv.Itoa(r.Version),
			humanize.RelTime(r.UpdatedAt, now, "ago", "from now"),
		})
	}
	return rows
}

// reportMarkdown renders a report as a markdown document.
func reportMarkdown(r domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "**%s** report, %s (%s to %s). Status: **%s**, version %d.\n\n",
		r.Type, r.PeriodLabel, day(r.StartDate), day(r.EndDate), r.Status, r.Version)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Description)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n\n", strings.Join(r.Tags, ", "))
	}

	c := r.Content
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", c.Summary.Overview)
	for _, h := range c.Summary.Highlights {
		fmt.Fprintf(&b, "- %s\n", h)
	}
	b.WriteString("\n| Metric | Value |\n|---|---|\n")
	for _, row := range metricsRows(r.Metrics) {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
	}

	fmt.Fprintf(&b, "\n## Programs (%d)\n\n", c.Programs.Total)
	if len(c.Programs.List) > 0 {
		b.WriteString("| Program | Department | Category | Status |\n|---|---|---|---|\n")
		for _, p := range c.Programs.List {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", mdCell(p.Name), mdCell(p.Department), mdCell(p.Category), p.Status)
		}
	}

	fmt.Fprintf(&b, "\n## Activities (%d)\n\n", c.Activities.Total)
	fmt.Fprintf(&b, "Completed %s, ongoing %s.\n\n", count(c.Activities.Completed), count(c.Activities.Ongoing))
	for _, a := range c.Activities.List {
		fmt.Fprintf(&b, "- %s (%s, %s participants)\n", a.Name, a.Status, count(a.Participants))
	}

	b.WriteString("\n## Budgets\n\n")
	fmt.Fprintf(&b, "Allocated %s, used %s, remaining %s (%s).\n\n",
		money(c.Budgets.TotalBudget), money(c.Budgets.BudgetUsed), money(c.Budgets.BudgetRemaining), pct(c.Budgets.BudgetPercentage))
	if len(c.Budgets.List) > 0 {
		b.WriteString("| Budget | Category | Planned | Realized |\n|---|---|---|---|\n")
		for _, line := range c.Budgets.List {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", mdCell(line.Description), mdCell(line.Category), money(line.Planned), money(line.Realized))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Stakeholders (%d)\n\n", c.Stakeholders.Total)
	for _, sh := range c.Stakeholders.List {
		fmt.Fprintf(&b, "- %s (%s)\n", sh.Name, sh.Category)
	}

	b.WriteString("\n## Impact\n\n")
	fmt.Fprintf(&b, "Social %s, environmental %s, economic %s, overall %s. Beneficiaries: %s.\n",
		pct(c.Impact.SocialImpact), pct(c.Impact.EnvironmentalImpact), pct(c.Impact.EconomicImpact),
		pct(c.Impact.OverallImpact), count(c.Impact.TotalBeneficiaries))
	return b.String()
}

// renderMarkdown styles markdown for the terminal, falling back to the raw text.
func renderMarkdown(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(markdownWrapWidth),
	)
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
