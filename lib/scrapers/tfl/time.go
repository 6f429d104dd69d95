package tfl

import "time"

// NextArrival returns the next instant at the given clock time on the next
// working day after now, in loc. Weekend days are skipped one at a time
// until a weekday is reached.
func NextArrival(now time.Time, hour, minute int, loc *time.Location) time.Time {
	day := now.In(loc).AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}
