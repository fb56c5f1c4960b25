package report

import (
	"fmt"
	"strings"
	"time"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/store"
)

const DateLayout = "2006-01-02"

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
	PeriodCustom  = "custom"

	prevSuffix = "-prev"
)

// Query is the raw window selection of a report request: either a named
// period around Date, or StartDate with an optional EndDate.
type Query struct {
	Period    string
	Date      string
	StartDate string
	EndDate   string
}

func ParseDate(value string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must use YYYY-MM-DD", store.ErrInvalidInput)
	}
	return parsed, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Window resolves a named period around pivot. The -prev variants step the
// pivot back one unit of the same period before computing boundaries.
func Window(period string, pivot time.Time, loc *time.Location) (domain.ReportWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	name := strings.ToLower(strings.TrimSpace(period))
	base, prev := strings.CutSuffix(name, prevSuffix)
	day := startOfDay(pivot.In(loc))

	var start, end time.Time
	switch base {
	case PeriodDaily:
		if prev {
			day = day.AddDate(0, 0, -1)
		}
		start = day
		end = start.AddDate(0, 0, 1)
	case PeriodWeekly:
		if prev {
			day = day.AddDate(0, 0, -7)
		}
		offset := (int(day.Weekday()) + 6) % 7
		start = day.AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		if prev {
			start = start.AddDate(0, -1, 0)
		}
		end = start.AddDate(0, 1, 0)
	case PeriodYearly:
		start = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, loc)
		if prev {
			start = start.AddDate(-1, 0, 0)
		}
		end = start.AddDate(1, 0, 0)
	default:
		return domain.ReportWindow{}, fmt.Errorf("%w: unknown period %q", store.ErrInvalidInput, period)
	}
	return domain.ReportWindow{Period: name, Start: start, End: end}, nil
}

// ExplicitWindow covers whole days from start through end inclusive. A zero
// end selects the start day only.
func ExplicitWindow(start time.Time, end time.Time) (domain.ReportWindow, error) {
	from := startOfDay(start)
	last := from
	if !end.IsZero() {
		last = startOfDay(end.In(start.Location()))
	}
	if last.Before(from) {
		return domain.ReportWindow{}, fmt.Errorf("%w: endDate is before startDate", store.ErrInvalidInput)
	}
	return domain.ReportWindow{Period: PeriodCustom, Start: from, End: last.AddDate(0, 0, 1)}, nil
}

// Resolve turns a query into a window. A named period wins over explicit
// dates; with neither, today is reported.
func Resolve(q Query, now time.Time, loc *time.Location) (domain.ReportWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(q.Period) != "" {
		pivot := now.In(loc)
		if strings.TrimSpace(q.Date) != "" {
			parsed, err := ParseDate(q.Date, loc)
			if err != nil {
				return domain.ReportWindow{}, err
			}
			pivot = parsed
		}
		return Window(q.Period, pivot, loc)
	}

	if strings.TrimSpace(q.StartDate) == "" {
		if strings.TrimSpace(q.EndDate) != "" {
			return domain.ReportWindow{}, fmt.Errorf("%w: endDate requires startDate", store.ErrInvalidInput)
		}
		return Window(PeriodDaily, now, loc)
	}
	start, err := ParseDate(q.StartDate, loc)
	if err != nil {
		return domain.ReportWindow{}, err
	}
	var end time.Time
	if strings.TrimSpace(q.EndDate) != "" {
		end, err = ParseDate(q.EndDate, loc)
		if err != nil {
			return domain.ReportWindow{}, err
		}
	}
	return ExplicitWindow(start, end)
}

// RoundingTo100 is what must be added to amount to reach the next multiple
// of 100; zero when amount already is one.
func RoundingTo100(amount int64) int64 {
	rem := ((amount % 100) + 100) % 100
	return (100 - rem) % 100
}
