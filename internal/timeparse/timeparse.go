// internal/timeparse/timeparse.go

// Package timeparse converts the closed vocabulary of time phrases
// ("this month", "last week", "April 2024", "April-2024") into the
// fact table's month-label format. The label format is a hard
// contract: every emitted label is "FullMonthName-YYYY" (e.g.
// "April-2024"); anything else matches zero rows downstream.
package timeparse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Range is an inclusive month-label range. Start and End may be equal.
type Range struct {
	StartLabel string
	EndLabel   string
}

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	labelRe     = regexp.MustCompile(`(?i)\b([a-z]+)-(\d{4})\b`)
	monthYearRe = regexp.MustCompile(`(?i)\b([a-z]+)\s+(\d{4})\b`)
	monthOnlyRe = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

// Label renders the month label for a point in time.
func Label(t time.Time) string {
	return fmt.Sprintf("%s-%d", t.Month().String(), t.Year())
}

// Normalize scans text for a time expression and returns its month
// range relative to ref. Unrecognized text yields nil: no time filter,
// not an error. Canonical "Month-YYYY" input round-trips unchanged.
func Normalize(text string, ref time.Time) *Range {
	lower := strings.ToLower(text)

	// Canonical label form first so normalization is idempotent.
	if m := labelRe.FindStringSubmatch(lower); m != nil {
		if month, ok := monthsByName[m[1]]; ok {
			label := fmt.Sprintf("%s-%s", month.String(), m[2])
			return &Range{StartLabel: label, EndLabel: label}
		}
	}

	if r := relativeRange(lower, ref); r != nil {
		return r
	}

	// Explicit "Month Year".
	if m := monthYearRe.FindStringSubmatch(lower); m != nil {
		if month, ok := monthsByName[m[1]]; ok {
			label := fmt.Sprintf("%s-%s", month.String(), m[2])
			return &Range{StartLabel: label, EndLabel: label}
		}
	}

	// Bare month name: inject the reference year.
	if m := monthOnlyRe.FindStringSubmatch(lower); m != nil {
		month := monthsByName[m[1]]
		label := fmt.Sprintf("%s-%d", month.String(), ref.Year())
		return &Range{StartLabel: label, EndLabel: label}
	}

	return nil
}

// relativeRange handles the fixed relative vocabulary. Day- and
// week-granular phrases collapse to the label(s) of the containing
// month(s), since the schema keys time by month label.
func relativeRange(lower string, ref time.Time) *Range {
	switch {
	case strings.Contains(lower, "today"):
		return sameMonth(ref)
	case strings.Contains(lower, "yesterday"):
		return sameMonth(ref.AddDate(0, 0, -1))
	case strings.Contains(lower, "this week"):
		start := startOfWeek(ref)
		return span(start, start.AddDate(0, 0, 6))
	case strings.Contains(lower, "last week"):
		start := startOfWeek(ref).AddDate(0, 0, -7)
		return span(start, start.AddDate(0, 0, 6))
	case strings.Contains(lower, "this month"):
		return sameMonth(ref)
	case strings.Contains(lower, "last month"):
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return sameMonth(first.AddDate(0, -1, 0))
	case strings.Contains(lower, "this year"):
		return span(
			time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location()),
			time.Date(ref.Year(), time.December, 1, 0, 0, 0, 0, ref.Location()),
		)
	}
	return nil
}

func sameMonth(t time.Time) *Range {
	label := Label(t)
	return &Range{StartLabel: label, EndLabel: label}
}

func span(start, end time.Time) *Range {
	return &Range{StartLabel: Label(start), EndLabel: Label(end)}
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// Labels expands an inclusive range into the ordered list of month
// labels it covers. Malformed labels or an end before the start yield
// an error; ranges are capped at 36 months to bound IN clauses.
func Labels(r Range) ([]string, error) {
	start, err := parseLabel(r.StartLabel)
	if err != nil {
		return nil, err
	}
	end, err := parseLabel(r.EndLabel)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("time range ends (%s) before it starts (%s)", r.EndLabel, r.StartLabel)
	}

	var out []string
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		out = append(out, Label(cur))
		if len(out) > 36 {
			return nil, fmt.Errorf("time range %s..%s spans too many months", r.StartLabel, r.EndLabel)
		}
	}
	return out, nil
}

func parseLabel(label string) (time.Time, error) {
	m := labelRe.FindStringSubmatch(strings.ToLower(label))
	if m == nil {
		return time.Time{}, fmt.Errorf("malformed month label %q", label)
	}
	month, ok := monthsByName[m[1]]
	if !ok {
		return time.Time{}, fmt.Errorf("malformed month label %q", label)
	}
	var year int
	fmt.Sscanf(m[2], "%d", &year)
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
}
