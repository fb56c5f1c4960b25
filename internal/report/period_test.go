package report

import (
	"errors"
	"testing"
	"time"

	"kafe/backend/internal/store"
)

var wib = time.FixedZone("WIB", 7*3600)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := ParseDate(value, wib)
	if err != nil {
		t.Fatalf("parse %s: %v", value, err)
	}
	return parsed
}

func TestWindowBoundaries(t *testing.T) {
	cases := []struct {
		period string
		pivot  string
		start  string
		end    string
	}{
		{"daily", "2024-03-15", "2024-03-15", "2024-03-16"},
		{"daily-prev", "2024-03-01", "2024-02-29", "2024-03-01"},
		{"weekly", "2024-03-15", "2024-03-11", "2024-03-18"},
		{"weekly", "2024-03-17", "2024-03-11", "2024-03-18"},
		{"weekly", "2024-03-11", "2024-03-11", "2024-03-18"},
		{"weekly-prev", "2024-03-15", "2024-03-04", "2024-03-11"},
		{"monthly", "2024-03-15", "2024-03-01", "2024-04-01"},
		{"monthly-prev", "2024-03-15", "2024-02-01", "2024-03-01"},
		{"monthly-prev", "2024-03-31", "2024-02-01", "2024-03-01"},
		{"yearly", "2024-03-15", "2024-01-01", "2025-01-01"},
		{"yearly-prev", "2024-02-29", "2023-01-01", "2024-01-01"},
	}

	for _, tc := range cases {
		window, err := Window(tc.period, day(t, tc.pivot), wib)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.period, tc.pivot, err)
		}
		if !window.Start.Equal(day(t, tc.start)) || !window.End.Equal(day(t, tc.end)) {
			t.Fatalf("%s %s: expected [%s, %s), got [%s, %s)", tc.period, tc.pivot, tc.start, tc.end,
				window.Start.Format(DateLayout), window.End.Format(DateLayout))
		}
	}
}

func TestWindowRejectsUnknownPeriod(t *testing.T) {
	if _, err := Window("fortnightly", day(t, "2024-03-15"), wib); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExplicitWindowIsEndInclusive(t *testing.T) {
	window, err := ExplicitWindow(day(t, "2024-03-01"), day(t, "2024-03-03"))
	if err != nil {
		t.Fatalf("explicit window: %v", err)
	}
	if !window.Start.Equal(day(t, "2024-03-01")) || !window.End.Equal(day(t, "2024-03-04")) {
		t.Fatalf("unexpected window %+v", window)
	}

	single, err := ExplicitWindow(day(t, "2024-03-01"), time.Time{})
	if err != nil {
		t.Fatalf("single day window: %v", err)
	}
	if !single.End.Equal(day(t, "2024-03-02")) {
		t.Fatalf("expected single day window, got %+v", single)
	}

	if _, err := ExplicitWindow(day(t, "2024-03-03"), day(t, "2024-03-01")); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for reversed range, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	now := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC) // 03:00 on the 16th in WIB

	window, err := Resolve(Query{Period: "weekly", Date: "2024-03-15"}, now, wib)
	if err != nil {
		t.Fatalf("resolve period: %v", err)
	}
	if !window.Start.Equal(day(t, "2024-03-11")) {
		t.Fatalf("unexpected weekly start %s", window.Start)
	}

	today, err := Resolve(Query{}, now, wib)
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if !today.Start.Equal(day(t, "2024-03-16")) {
		t.Fatalf("expected local today 2024-03-16, got %s", today.Start)
	}

	explicit, err := Resolve(Query{StartDate: "2024-03-01", EndDate: "2024-03-31"}, now, wib)
	if err != nil {
		t.Fatalf("resolve explicit: %v", err)
	}
	if !explicit.End.Equal(day(t, "2024-04-01")) {
		t.Fatalf("unexpected explicit end %s", explicit.End)
	}

	bad := []Query{
		{Period: "daily", Date: "15/03/2024"},
		{StartDate: "2024-13-01"},
		{EndDate: "2024-03-01"},
		{Period: "hourly"},
	}
	for _, q := range bad {
		if _, err := Resolve(q, now, wib); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", q, err)
		}
	}
}

func TestRoundingTo100(t *testing.T) {
	cases := map[int64]int64{
		12345: 55,
		12300: 0,
		0:     0,
		1:     99,
		99:    1,
		-45:   45,
	}
	for amount, want := range cases {
		if got := RoundingTo100(amount); got != want {
			t.Fatalf("rounding %d: expected %d, got %d", amount, want, got)
		}
	}
}
