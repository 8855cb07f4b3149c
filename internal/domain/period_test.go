package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolvePeriodGrammar(t *testing.T) {
	now := time.Date(2025, time.June, 14, 9, 30, 0, 0, time.UTC)
	cases := []struct {
		name  string
		token string
		want  PeriodRange
	}{
		{
			name:  "quarter",
			token: "Q1-2024",
			want:  PeriodRange{Token: "Q1-2024", Label: "Q1-2024", Kind: PeriodKindQuarter, Start: day(2024, 1, 1), End: day(2024, 3, 31)},
		},
		{
			name:  "lower case quarter falls back",
			token: "q4-2023",
			want:  PeriodRange{Token: "q4-2023", Label: DefaultPeriodLabel, Kind: PeriodKindCurrent, Start: day(2025, 6, 1), End: day(2025, 6, 30)},
		},
		{
			name:  "year",
			token: "2024",
			want:  PeriodRange{Token: "2024", Label: "Tahun 2024", Kind: PeriodKindYear, Start: day(2024, 1, 1), End: day(2024, 12, 31)},
		},
		{
			name:  "leap february",
			token: "Feb-2024",
			want:  PeriodRange{Token: "Feb-2024", Label: "Feb 2024", Kind: PeriodKindMonth, Start: day(2024, 2, 1), End: day(2024, 2, 29)},
		},
		{
			name:  "empty falls back to current month",
			token: "",
			want:  PeriodRange{Token: "", Label: DefaultPeriodLabel, Kind: PeriodKindCurrent, Start: day(2025, 6, 1), End: day(2025, 6, 30)},
		},
		{
			name:  "upper case month falls back",
			token: "JAN-2024",
			want:  PeriodRange{Token: "JAN-2024", Label: DefaultPeriodLabel, Kind: PeriodKindCurrent, Start: day(2025, 6, 1), End: day(2025, 6, 30)},
		},
		{
			name:  "unknown month abbreviation",
			token: "Foo-2024",
			want:  PeriodRange{Token: "Foo-2024", Label: DefaultPeriodLabel, Kind: PeriodKindCurrent, Start: day(2025, 6, 1), End: day(2025, 6, 30)},
		},
		{
			name:  "quarter out of range",
			token: "Q5-2024",
			want:  PeriodRange{Token: "Q5-2024", Label: DefaultPeriodLabel, Kind: PeriodKindCurrent, Start: day(2025, 6, 1), End: day(2025, 6, 30)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePeriod(tc.token, now)
			if got.Token != tc.want.Token || got.Label != tc.want.Label || got.Kind != tc.want.Kind {
				t.Fatalf("ResolvePeriod(%q) = %#v, want %#v", tc.token, got, tc.want)
			}
			if !got.Start.Equal(tc.want.Start) || !got.End.Equal(tc.want.End) {
				t.Fatalf("ResolvePeriod(%q) range = %s..%s, want %s..%s", tc.token, got.Start, got.End, tc.want.Start, tc.want.End)
			}
		})
	}
}

func TestResolvePeriodQuartersSpanThreeMonths(t *testing.T) {
	for year := 1999; year <= 2031; year++ {
		for q := 1; q <= 4; q++ {
			token := formatQuarterToken(q, year)
			got := ResolvePeriod(token, time.Time{})
			if got.Start.Day() != 1 || int(got.Start.Month()) != (q-1)*3+1 {
				t.Fatalf("%s start = %s", token, got.Start)
			}
			next := got.End.AddDate(0, 0, 1)
			if next.Day() != 1 || !next.Equal(got.Start.AddDate(0, 3, 0)) {
				t.Fatalf("%s end = %s, want last day of third month", token, got.End)
			}
			if got.End.Before(got.Start) {
				t.Fatalf("%s inverted range", token)
			}
		}
	}
}

func TestPeriodRangeWindowCoversLastDay(t *testing.T) {
	rng := ResolvePeriod("Jan-2024", time.Time{})
	w := rng.Window()
	if !w.Contains(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatal("expected window to contain the last instant of the month")
	}
	if w.Contains(day(2024, 2, 1)) {
		t.Fatal("expected window to exclude the next month")
	}
	if !w.Contains(day(2024, 1, 1)) {
		t.Fatal("expected window to include the first instant")
	}
}

func TestPreviousPeriod(t *testing.T) {
	cases := map[string]string{
		"Q1-2024":  "Q4-2023",
		"Q3-2024":  "Q2-2024",
		"2024":     "2023",
		"Jan-2024": "Dec-2023",
		"Mar-2024": "Feb-2024",
		"mar-2024": "mar-2024",
		"q1-2024":  "q1-2024",
		"garbage":  "garbage",
		"":         "",
	}
	for in, want := range cases {
		if got := PreviousPeriod(in); got != want {
			t.Fatalf("PreviousPeriod(%q) = %q, want %q", in, got, want)
		}
	}
	if got := PreviousPeriod(PreviousPeriod("Q1-2024")); got != "Q3-2023" {
		t.Fatalf("chained PreviousPeriod = %q, want Q3-2023", got)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if !got.Equal(day(2024, 3, 5)) {
		t.Fatalf("unexpected date %s", got)
	}
	if _, err := ParseDate("2024-03-05T10:00:00+07:00"); err != nil {
		t.Fatalf("ParseDate(rfc3339) error = %v", err)
	}
	if _, err := ParseDate("05/03/2024"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}

func TestMonthAndQuarterHelpers(t *testing.T) {
	if got := MonthLabel(day(2024, 11, 3)); got != "Nov 2024" {
		t.Fatalf("MonthLabel() = %q", got)
	}
	if got := QuarterOf(day(2024, 7, 1)); got != 3 {
		t.Fatalf("QuarterOf() = %d", got)
	}
}
