package progress

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestComputeAtReferenceDate(t *testing.T) {
	snap := Compute(date(2025, 10, 20), date(2025, 10, 20))

	if snap.DayDelta != 0 || snap.Week != 0 || snap.Day != 0 {
		t.Fatalf("expected zero progress, got %+v", snap)
	}
	if snap.Trimester != TrimesterNone {
		t.Fatalf("expected sentinel trimester, got %q", snap.Trimester)
	}
	if snap.Month != 0 {
		t.Fatalf("expected month 0, got %d", snap.Month)
	}
	if snap.Today != "2025-10-20" {
		t.Fatalf("expected today key 2025-10-20, got %q", snap.Today)
	}
}

func TestComputeSixWeeksIn(t *testing.T) {
	snap := Compute(date(2025, 10, 20), date(2025, 12, 1))

	if snap.DayDelta != 42 {
		t.Fatalf("expected dayDelta 42, got %d", snap.DayDelta)
	}
	if snap.Week != 6 || snap.Day != 0 {
		t.Fatalf("expected week 6 day 0, got week %d day %d", snap.Week, snap.Day)
	}
	if snap.Trimester != TrimesterFirst {
		t.Fatalf("expected first trimester, got %q", snap.Trimester)
	}
	if snap.Month != 2 {
		t.Fatalf("expected month 2, got %d", snap.Month)
	}
	if snap.WeekStart != "2025-12-01" || snap.WeekEnd != "2025-12-07" {
		t.Fatalf("expected week range 2025-12-01..2025-12-07, got %s..%s", snap.WeekStart, snap.WeekEnd)
	}
}

func TestComputeBeforeReference(t *testing.T) {
	snap := Compute(date(2025, 10, 20), date(2025, 10, 15))

	if snap.DayDelta != -5 {
		t.Fatalf("expected dayDelta -5, got %d", snap.DayDelta)
	}
	if snap.Week != 0 || snap.Day != 0 {
		t.Fatalf("expected week/day 0 before reference, got %+v", snap)
	}
	if snap.Trimester != TrimesterNone {
		t.Fatalf("expected sentinel trimester, got %q", snap.Trimester)
	}
}

func TestComputeTrimesterBoundaries(t *testing.T) {
	ref := date(2025, 10, 20)
	cases := []struct {
		weeks int
		want  string
	}{
		{0, TrimesterNone},
		{1, TrimesterFirst},
		{12, TrimesterFirst},
		{13, TrimesterSecond},
		{27, TrimesterSecond},
		{28, TrimesterThird},
		{40, TrimesterThird},
	}
	for _, tc := range cases {
		now := ref.AddDate(0, 0, tc.weeks*7)
		snap := Compute(ref, now)
		if snap.Week != tc.weeks {
			t.Fatalf("week %d: got week %d", tc.weeks, snap.Week)
		}
		if snap.Trimester != tc.want {
			t.Fatalf("week %d: expected trimester %q, got %q", tc.weeks, tc.want, snap.Trimester)
		}
	}
}

func TestComputePregnancyMonthCeils(t *testing.T) {
	ref := date(2025, 10, 20)
	cases := map[int]int{1: 1, 4: 1, 5: 2, 8: 2, 9: 3, 40: 10}
	for weeks, want := range cases {
		snap := Compute(ref, ref.AddDate(0, 0, weeks*7))
		if snap.Month != want {
			t.Fatalf("week %d: expected month %d, got %d", weeks, want, snap.Month)
		}
	}
}

func TestWeekScheduleExpandsWeeklyBoundaries(t *testing.T) {
	marks, err := WeekSchedule(date(2025, 10, 20), 4)
	if err != nil {
		t.Fatalf("week schedule: %v", err)
	}
	if len(marks) != 4 {
		t.Fatalf("expected 4 marks, got %d", len(marks))
	}

	want := []string{"2025-10-20", "2025-10-27", "2025-11-03", "2025-11-10"}
	for i, mark := range marks {
		if mark.Week != i {
			t.Fatalf("mark %d: expected week %d, got %d", i, i, mark.Week)
		}
		if mark.Start != want[i] {
			t.Fatalf("mark %d: expected start %s, got %s", i, want[i], mark.Start)
		}
	}
}
