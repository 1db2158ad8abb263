package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"mamacal/internal/model"
)

// ICS renders the event list as an iCalendar document with one all-day
// VEVENT per event, so the milestone list can be subscribed from a
// phone calendar. Events whose date fails to parse are skipped; the
// store guarantees canonical dates, so that only guards hand-built
// input.
func ICS(events []model.Event, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//mamacal//milestone calendar//EN")
	cal.SetXWRCalName("Pregnancy milestones")

	for i, ev := range events {
		day, err := time.Parse(model.DateLayout, ev.Date)
		if err != nil {
			continue
		}

		ve := cal.AddEvent(fmt.Sprintf("%s-%d@mamacal", ev.Date, i))
		ve.SetDtStampTime(now)
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ve.SetSummary(summary(ev))
		if ev.Notes != "" {
			ve.SetDescription(ev.Notes)
		}
	}

	return cal.Serialize()
}

func summary(ev model.Event) string {
	switch {
	case ev.Title != "" && ev.Type != "":
		return ev.Type + ": " + ev.Title
	case ev.Title != "":
		return ev.Title
	case ev.Type != "":
		return ev.Type
	default:
		return "Milestone"
	}
}
