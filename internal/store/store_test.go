package store

import (
	"errors"
	"testing"
	"time"

	"mamacal/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestAddRejectsMissingDateOrTitle(t *testing.T) {
	s := New()

	if _, err := s.Add(model.Record{"date": "", "title": "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty date, got %v", err)
	}
	if _, err := s.Add(model.Record{"date": "2026-01-01", "title": ""}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty title, got %v", err)
	}
	if _, err := s.Add(model.Record{"date": "not a date", "title": "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unparseable date, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected rejected adds to leave the store empty, got %d events", s.Len())
	}

	ev, err := s.Add(model.Record{"date": "2026-01-01", "title": "Checkup"})
	if err != nil {
		t.Fatalf("add valid event: %v", err)
	}
	if ev.Date != "2026-01-01" || ev.Title != "Checkup" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestAddKeepsListSortedByDate(t *testing.T) {
	s := New()
	for _, d := range []string{"2026-01-03", "2026-01-01", "2026-01-02"} {
		if _, err := s.Add(model.Record{"date": d, "title": "visit"}); err != nil {
			t.Fatalf("add %s: %v", d, err)
		}
	}

	got := s.Snapshot()
	want := []string{"2026-01-01", "2026-01-02", "2026-01-03"}
	for i, w := range want {
		if got[i].Date != w {
			t.Fatalf("expected %v at index %d, got %v", w, i, got[i].Date)
		}
	}
}

func TestAddAllowsDuplicateDateAndTitle(t *testing.T) {
	s := New()
	raw := model.Record{"date": "2026-05-01", "title": "Appointment"}
	if _, err := s.Add(raw); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := s.Add(raw); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 events (no dedup), got %d", s.Len())
	}
}

func TestByDateGroupsAndPreservesInsertionOrder(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Event{
		{Date: "2026-04-01", Title: "morning"},
		{Date: "2026-04-02", Title: "other day"},
		{Date: "2026-04-01", Title: "afternoon"},
	})

	byDate := s.ByDate()
	if len(byDate) != 2 {
		t.Fatalf("expected 2 date keys, got %d", len(byDate))
	}
	day := byDate["2026-04-01"]
	if len(day) != 2 || day[0].Title != "morning" || day[1].Title != "afternoon" {
		t.Fatalf("expected insertion order within a date, got %+v", day)
	}
}

func TestUpcomingCapsSortsAndBounds(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Event{
		{Date: "2026-06-09", Title: "g"},
		{Date: "2026-06-01", Title: "past"},
		{Date: "2026-06-05", Title: "c"},
		{Date: "2026-06-03", Title: "a"},
		{Date: "2026-06-07", Title: "e"},
		{Date: "2026-06-04", Title: "b"},
		{Date: "2026-06-06", Title: "d"},
		{Date: "2026-06-08", Title: "f"},
	})

	now := date(2026, 6, 3)
	got := s.Upcoming(now, UpcomingLimit)
	if len(got) != UpcomingLimit {
		t.Fatalf("expected %d events, got %d", UpcomingLimit, len(got))
	}
	prev := ""
	for _, ev := range got {
		if ev.Date < now.Format(model.DateLayout) {
			t.Fatalf("event %s precedes today", ev.Date)
		}
		if ev.Date < prev {
			t.Fatalf("events not ascending: %s after %s", ev.Date, prev)
		}
		prev = ev.Date
	}
	if got[0].Date != "2026-06-03" {
		t.Fatalf("expected window to start today, got %s", got[0].Date)
	}

	top := s.Top(now)
	if len(top) != TopLimit {
		t.Fatalf("expected %d top events, got %d", TopLimit, len(top))
	}
	for i := range top {
		if top[i] != got[i] {
			t.Fatalf("top window should be a prefix of upcoming")
		}
	}
}

func TestFilterTypeIsCaseInsensitiveAndCapped(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Event{
		{Date: "2026-07-03", Type: "ULTRASOUND 3", Title: "third"},
		{Date: "2026-07-01", Type: "Ultrasound 1", Title: "first"},
		{Date: "2026-07-02", Type: "blood test", Title: "labs"},
		{Date: "2026-07-01", Type: "ultrasound 2", Title: "second"},
	})

	got := s.FilterType("ultrasound", 2)
	if len(got) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(got))
	}
	if got[0].Date != "2026-07-01" || got[1].Date != "2026-07-01" {
		t.Fatalf("expected earliest ultrasounds first, got %+v", got)
	}
}

func TestReplaceAllCopiesInput(t *testing.T) {
	src := []model.Event{{Date: "2026-01-01", Title: "a"}}
	s := New()
	s.ReplaceAll(src)
	src[0].Title = "mutated"

	if got := s.Snapshot(); got[0].Title != "a" {
		t.Fatalf("store must not alias caller slice, got %q", got[0].Title)
	}
}
