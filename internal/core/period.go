package core

import "time"

// DateLayout is the dd/mm/yyyy layout used in replies.
const DateLayout = "02/01/2006"

// Period is an inclusive time range.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// WeekOf returns the ISO week (Monday 00:00 to Sunday 23:59:59.999999999)
// containing t, in t's location.
func WeekOf(t time.Time) Period {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return Period{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Nanosecond)}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return Period{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// Weekdays lists day labels Monday first, matching WeekdayIndex.
var Weekdays = []string{"Seg", "Ter", "Qua", "Qui", "Sex", "Sáb", "Dom"}

// WeekdayIndex maps t to 0 (Monday) .. 6 (Sunday).
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
