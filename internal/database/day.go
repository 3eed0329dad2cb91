package database

import "time"

// DayLayout is the format of channel_stats days.
const DayLayout = "2006-01-02"

// TimeLayout is the format of stored timestamps.
const TimeLayout = time.RFC3339

// Day formats t as a UTC calendar day.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// GetToday returns today's date as YYYY-MM-DD.
func GetToday() string {
	return Day(time.Now())
}

// FormatTime formats t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatDayDisplay formats a stored day for human-readable display,
// e.g. "Feb 06, 2026". Unparsable input is returned unchanged.
func FormatDayDisplay(day string) string {
	d, err := time.Parse(DayLayout, day)
	if err != nil {
		return day
	}
	return d.Format("Jan 02, 2006")
}
