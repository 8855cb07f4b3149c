package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultPeriodLabel labels the current-month fallback range.
const DefaultPeriodLabel = "Bulan Ini"

// PeriodKind identifies which token grammar produced a range.
type PeriodKind string

// PeriodKindQuarter and related constants enumerate period grammars.
const (
	PeriodKindQuarter PeriodKind = "quarter"
	PeriodKindYear    PeriodKind = "year"
	PeriodKindMonth   PeriodKind = "month"
	PeriodKindCurrent PeriodKind = "current"
)

var monthAbbreviations = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var (
	quarterTokenPattern = regexp.MustCompile(`^Q([1-4])-(\d{4})$`)
	yearTokenPattern    = regexp.MustCompile(`^(\d{4})$`)
	monthTokenPattern   = regexp.MustCompile(`^([A-Z][a-z]{2})-(\d{4})$`)
)

// PeriodRange is a resolved reporting interval. End is the last calendar day of the range.
type PeriodRange struct {
	Token string     `json:"period"`
	Label string     `json:"label"`
	Kind  PeriodKind `json:"kind"`
	Start time.Time  `json:"startDate"`
	End   time.Time  `json:"endDate"`
}

// Window returns the half-open instant window covering every day of the range.
func (p PeriodRange) Window() TimeWindow {
	return NewTimeWindow(p.Start, p.End.AddDate(0, 0, 1))
}

// ResolvePeriod parses a period token into a date range.
// Unrecognized tokens resolve to the calendar month containing now.
func ResolvePeriod(token string, now time.Time) PeriodRange {
	token = strings.TrimSpace(token)
	if quarter, year, ok := parseQuarterToken(token); ok {
		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return PeriodRange{
			Token: formatQuarterToken(quarter, year),
			Label: formatQuarterToken(quarter, year),
			Kind:  PeriodKindQuarter,
			Start: start,
			End:   start.AddDate(0, 3, -1),
		}
	}
	if year, ok := parseYearToken(token); ok {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return PeriodRange{
			Token: strconv.Itoa(year),
			Label: fmt.Sprintf("Tahun %d", year),
			Kind:  PeriodKindYear,
			Start: start,
			End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		}
	}
	if month, year, ok := parseMonthToken(token); ok {
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return PeriodRange{
			Token: formatMonthToken(month, year),
			Label: MonthLabel(start),
			Kind:  PeriodKindMonth,
			Start: start,
			End:   start.AddDate(0, 1, -1),
		}
	}

	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return PeriodRange{
		Token: token,
		Label: DefaultPeriodLabel,
		Kind:  PeriodKindCurrent,
		Start: start,
		End:   start.AddDate(0, 1, -1),
	}
}

// PreviousPeriod returns the token for the interval immediately before token.
// Unrecognized tokens are returned unchanged.
func PreviousPeriod(token string) string {
	trimmed := strings.TrimSpace(token)
	if quarter, year, ok := parseQuarterToken(trimmed); ok {
		if quarter == 1 {
			return formatQuarterToken(4, year-1)
		}
		return formatQuarterToken(quarter-1, year)
	}
	if year, ok := parseYearToken(trimmed); ok {
		return strconv.Itoa(year - 1)
	}
	if month, year, ok := parseMonthToken(trimmed); ok {
		if month == time.January {
			return formatMonthToken(time.December, year-1)
		}
		return formatMonthToken(month-1, year)
	}
	return token
}

// MonthLabel renders a "Jan 2024" style label.
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthAbbreviations[t.Month()-1], t.Year())
}

// QuarterOf returns the 1-indexed calendar quarter of t.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// ParseDate accepts YYYY-MM-DD or RFC3339 timestamps.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDateRange
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, ErrInvalidDateRange)
	}
	return t.UTC(), nil
}

func parseQuarterToken(token string) (int, int, bool) {
	m := quarterTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, false
	}
	quarter, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	return quarter, year, true
}

func parseYearToken(token string) (int, bool) {
	m := yearTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	year, _ := strconv.Atoi(m[1])
	return year, true
}

func parseMonthToken(token string) (time.Month, int, bool) {
	m := monthTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, false
	}
	for i, abbr := range monthAbbreviations {
		if abbr == m[1] {
			year, _ := strconv.Atoi(m[2])
			return time.Month(i + 1), year, true
		}
	}
	return 0, 0, false
}

func formatQuarterToken(quarter, year int) string {
	return fmt.Sprintf("Q%d-%d", quarter, year)
}

func formatMonthToken(month time.Month, year int) string {
	return fmt.Sprintf("%s-%d", monthAbbreviations[month-1], year)
}
