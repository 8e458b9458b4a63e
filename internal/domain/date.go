package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// NewDate returns midnight UTC of the given calendar day.
// All dates stored or compared by the ledger use this normalised form.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateDay drops the time-of-day component of t, keeping its calendar day
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string into a normalised date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must use YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t, nil
}

// FormatDate renders a date in the wire format
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
