package utils

import (
	"time"
)

// DayKeyLayout is the calendar-day key format used for hit de-duplication.
const DayKeyLayout = "2006-01-02"

// DayKey formats a time as its exchange-local calendar day.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// PrettyDate formats a time for human-facing notification messages.
func PrettyDate(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
