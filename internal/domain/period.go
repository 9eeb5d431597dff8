package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// PeriodKind is the length of a summary window.
type PeriodKind string

const (
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
)

// WeekStart is the first day of every week window.
const WeekStart = time.Monday

// ParsePeriodKind accepts "week"/"weekly" and "month"/"monthly" in any case.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "weekly":
		return PeriodWeek, nil
	case "month", "monthly":
		return PeriodMonth, nil
	}
	return "", NewValidationError("period", fmt.Sprintf("unknown period %q, use week or month", s))
}

// Title returns the capitalized period name, e.g. "Week".
func (k PeriodKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Adjective returns "Weekly" or "Monthly".
func (k PeriodKind) Adjective() string {
	switch k {
	case PeriodWeek:
		return "Weekly"
	case PeriodMonth:
		return "Monthly"
	}
	return k.Title()
}

// PeriodWindow is a closed range of calendar days.
type PeriodWindow struct {
	Kind  PeriodKind `json:"kind"`
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// Contains reports whether d falls inside the window, both ends inclusive.
func (w PeriodWindow) Contains(d civil.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w PeriodWindow) String() string {
	return fmt.Sprintf("%s %s..%s", w.Kind, w.Start, w.End)
}

// WeekWindow returns the Monday–Sunday week containing d.
func WeekWindow(d civil.Date) PeriodWindow {
	offset := (int(d.In(time.UTC).Weekday()) - int(WeekStart) + 7) % 7
	start := d.AddDays(-offset)
	return PeriodWindow{Kind: PeriodWeek, Start: start, End: start.AddDays(6)}
}

// MonthWindow returns the calendar month containing d.
func MonthWindow(d civil.Date) PeriodWindow {
	start := civil.Date{Year: d.Year, Month: d.Month, Day: 1}
	end := civil.DateOf(time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC))
	return PeriodWindow{Kind: PeriodMonth, Start: start, End: end}
}

// WindowFor returns the window of the given kind containing the calendar day of
// ref in loc.
func WindowFor(kind PeriodKind, ref time.Time, loc *time.Location) (PeriodWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	d := civil.DateOf(ref.In(loc))
	switch kind {
	case PeriodWeek:
		return WeekWindow(d), nil
	case PeriodMonth:
		return MonthWindow(d), nil
	}
	return PeriodWindow{}, NewValidationError("period", fmt.Sprintf("unknown period %q", kind))
}

// PreviousWindow returns the most recently completed window of the given kind
// before ref: the window that ends the day before ref's window starts.
func PreviousWindow(kind PeriodKind, ref time.Time, loc *time.Location) (PeriodWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	cur, err := WindowFor(kind, ref, loc)
	if err != nil {
		return PeriodWindow{}, err
	}
	return WindowFor(kind, cur.Start.AddDays(-1).In(loc), loc)
}

// IsValidWeekRange reports whether start..end is a full Monday–Sunday week that
// ended before today.
func IsValidWeekRange(start, end, today civil.Date) bool {
	if !start.IsValid() || !end.IsValid() {
		return false
	}
	return start.In(time.UTC).Weekday() == time.Monday &&
		end.In(time.UTC).Weekday() == time.Sunday &&
		end.DaysSince(start) == 6 &&
		end.Before(today)
}
