package age

import "time"

// Since returns how long ago then was, and false when then is unset.
func Since(then time.Time, now time.Time) (time.Duration, bool) {
	if then.IsZero() {
		return 0, false
	}
	return max(now.Sub(then), 0), true
}

// DaysUntil returns the number of calendar days from now to due, in now's
// location. It is negative for past days.
func DaysUntil(due time.Time, now time.Time) int {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dy, dm, dd := due.In(loc).Date()
	day := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}
