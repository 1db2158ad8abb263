package model

// DateLayout is the canonical event date form. Lexicographic order on
// this layout equals chronological order, which the store relies on.
const DateLayout = "2006-01-02"

// Event is the canonical milestone record. Every event held by the
// store has a non-empty Date in DateLayout form; the remaining fields
// may be empty.
type Event struct {
	// Date is the event day as "YYYY-MM-DD".
	Date string `json:"date"`
	// Type is a free-text classification, e.g. "Ultrasound 1".
	Type string `json:"type"`
	// Title is a free-text label. Required for user-added events.
	Title string `json:"title"`
	// Notes is free-text.
	Notes string `json:"notes"`
}

// Usable reports whether the event survived date normalization and may
// enter the store. Events with an unparseable source date carry an
// empty Date and are dropped by loaders.
func (e Event) Usable() bool {
	return e.Date != ""
}

// Record is a raw event row before normalization. Field-name casing is
// not significant; values are whatever the source produced.
type Record map[string]string
