package event

import (
	"strings"
	"time"

	"mamacal/internal/model"
)

// dateLayouts are the accepted source date forms, tried in order. The
// canonical layout comes first so normalization of an already-canonical
// event is a no-op.
var dateLayouts = []string{
	model.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01-02-06", // excelize's default rendering of date-typed cells
}

// Normalize coerces a raw record into a canonical Event. Field names
// match case-insensitively, values are trimmed, and a date that fails
// every known layout becomes the empty string. Normalize never fails;
// a garbage row yields an event the caller must filter out via
// Usable(). One bad spreadsheet row must not abort a whole load.
func Normalize(raw model.Record) model.Event {
	return model.Event{
		Date:  NormalizeDate(field(raw, "date")),
		Type:  field(raw, "type"),
		Title: field(raw, "title"),
		Notes: field(raw, "notes"),
	}
}

// NormalizeDate canonicalizes a source date string to "YYYY-MM-DD",
// or "" if no layout matches.
func NormalizeDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(model.DateLayout)
		}
	}
	return ""
}

// field returns the trimmed value for the first key matching name
// case-insensitively, or "".
func field(raw model.Record, name string) string {
	if v, ok := raw[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range raw {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
