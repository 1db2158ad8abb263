package progress

import (
	"math"
	"time"

	"mamacal/internal/model"
)

// Trimester labels. TrimesterNone is the sentinel used before the
// reference date and during week 0.
const (
	TrimesterNone   = "not started"
	TrimesterFirst  = "first"
	TrimesterSecond = "second"
	TrimesterThird  = "third"
)

// Snapshot is the derived gestational state for one instant. It is
// recomputed from the reference date and "now" on every request and
// never persisted.
type Snapshot struct {
	// DayDelta is whole calendar days since the reference date.
	// Negative when now precedes it.
	DayDelta int `json:"dayDelta"`
	// Week is the gestational week number (DayDelta / 7, floored at 0).
	Week int `json:"week"`
	// Day is the day within the gestational week (0–6).
	Day int `json:"day"`
	// Trimester is one of the Trimester* labels.
	Trimester string `json:"trimester"`
	// Month is the pregnancy month (ceil(Week/4)), 0 before week 1.
	Month int `json:"month"`
	// WeekStart/WeekEnd bound the current gestational week, for
	// highlighting the active week on the calendar.
	WeekStart string `json:"weekStart"`
	WeekEnd   string `json:"weekEnd"`
	// Today is the date key for "now", used by callers as a cache key.
	Today string `json:"today"`
}

// Compute derives a Snapshot from the reference date and now. Pure:
// same inputs, same output, no clock access.
func Compute(reference, now time.Time) Snapshot {
	ref := midnight(reference)
	cur := midnight(now)

	// Count calendar days, not 24h periods, so DST days still count
	// as one day.
	delta := int(math.Round(cur.Sub(ref).Hours() / 24))

	snap := Snapshot{
		DayDelta: delta,
		Today:    cur.Format(model.DateLayout),
	}

	if delta >= 0 {
		snap.Week = delta / 7
		snap.Day = delta % 7
	}

	switch {
	case snap.Week <= 0 || delta < 0:
		snap.Trimester = TrimesterNone
	case snap.Week <= 12:
		snap.Trimester = TrimesterFirst
	case snap.Week <= 27:
		snap.Trimester = TrimesterSecond
	default:
		snap.Trimester = TrimesterThird
	}

	if snap.Week > 0 {
		snap.Month = (snap.Week + 3) / 4
	}

	weekStart := ref.AddDate(0, 0, snap.Week*7)
	snap.WeekStart = weekStart.Format(model.DateLayout)
	snap.WeekEnd = weekStart.AddDate(0, 0, 6).Format(model.DateLayout)

	return snap
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
