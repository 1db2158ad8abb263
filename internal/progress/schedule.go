package progress

import (
	"time"

	"github.com/teambition/rrule-go"

	"mamacal/internal/model"
)

// DefaultScheduleWeeks covers a full-term pregnancy with some slack.
const DefaultScheduleWeeks = 42

// WeekMark labels the first day of one gestational week on the
// calendar.
type WeekMark struct {
	Week  int    `json:"week"`
	Start string `json:"start"`
}

// WeekSchedule expands the weekly gestational boundaries from the
// reference date as a weekly recurrence, one mark per week starting at
// week 0. The calendar feed uses these to label and highlight week
// starts.
func WeekSchedule(reference time.Time, weeks int) ([]WeekMark, error) {
	if weeks <= 0 {
		weeks = DefaultScheduleWeeks
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   weeks,
		Dtstart: midnight(reference),
	})
	if err != nil {
		return nil, err
	}

	marks := make([]WeekMark, 0, weeks)
	for i, t := range rule.All() {
		marks = append(marks, WeekMark{
			Week:  i,
			Start: t.Format(model.DateLayout),
		})
	}
	return marks, nil
}
