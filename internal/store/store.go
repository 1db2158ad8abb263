package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mamacal/internal/event"
	"mamacal/internal/model"
)

// ErrValidation marks a rejected Add. Callers match it with errors.Is
// to distinguish bad input from everything else.
var ErrValidation = errors.New("invalid event")

// Upcoming window sizes used by the calendar views.
const (
	UpcomingLimit = 5
	TopLimit      = 3
)

// Store holds the session's authoritative event list in memory. There
// is one logical writer, but web handlers read concurrently, so reads
// take an RLock. The remote sync client only ever sees snapshots.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
}

func New() *Store {
	return &Store{}
}

// ReplaceAll sets the canonical list. Used after a source load. The
// slice is copied; source order is preserved (views sort on demand).
func (s *Store) ReplaceAll(events []model.Event) {
	cp := make([]model.Event, len(events))
	copy(cp, events)

	s.mu.Lock()
	s.events = cp
	s.mu.Unlock()
}

// Add normalizes raw and inserts it, keeping the list sorted ascending
// by date. Missing date or title fails with ErrValidation and leaves
// the store untouched. Duplicate date+title pairs are allowed: a day
// can have several appointments, and repeated adds are not upserts.
func (s *Store) Add(raw model.Record) (model.Event, error) {
	ev := event.Normalize(raw)
	if ev.Date == "" {
		return model.Event{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if ev.Title == "" {
		return model.Event{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	s.mu.Lock()
	s.events = append(s.events, ev)
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Date < s.events[j].Date
	})
	s.mu.Unlock()

	return ev, nil
}

// Snapshot returns a copy of the current list for serialization.
func (s *Store) Snapshot() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]model.Event, len(s.events))
	copy(cp, s.events)
	return cp
}

// Len returns the number of events held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// ByDate groups events by date key, preserving list order within each
// date.
func (s *Store) ByDate() map[string][]model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]model.Event)
	for _, ev := range s.events {
		out[ev.Date] = append(out[ev.Date], ev)
	}
	return out
}

// Upcoming returns up to limit events dated today or later, ascending
// by date. "Today" is now in the server's local zone.
func (s *Store) Upcoming(now time.Time, limit int) []model.Event {
	today := now.Format(model.DateLayout)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, limit)
	for _, ev := range s.sortedLocked() {
		if ev.Date < today {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Top returns the first TopLimit entries of the upcoming window.
func (s *Store) Top(now time.Time) []model.Event {
	return s.Upcoming(now, TopLimit)
}

// FilterType returns up to limit events whose type contains substr,
// case-insensitively, ascending by date. Used to surface
// ultrasound-specific events on the dashboard.
func (s *Store) FilterType(substr string, limit int) []model.Event {
	needle := strings.ToLower(substr)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, limit)
	for _, ev := range s.sortedLocked() {
		if !strings.Contains(strings.ToLower(ev.Type), needle) {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out
}

// sortedLocked returns a date-ascending copy. Caller holds at least
// an RLock. The canonical list itself is only guaranteed sorted after
// Add, not after ReplaceAll, so views sort their own copy.
func (s *Store) sortedLocked() []model.Event {
	cp := make([]model.Event, len(s.events))
	copy(cp, s.events)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].Date < cp[j].Date
	})
	return cp
}
