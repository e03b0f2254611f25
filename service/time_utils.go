package service

import (
	"time"

	"guildcogs/models"
)

// SameDay reports whether a and b fall on the same calendar date in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// MonthStart returns midnight of the first day of now's month in loc
func MonthStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// PeriodStart returns the earliest timestamp counted by a scoreboard period.
// The zero time means no lower bound.
func PeriodStart(period models.ScoreboardPeriod, now time.Time, loc *time.Location) time.Time {
	if period == models.PeriodThisMonth {
		return MonthStart(now, loc)
	}
	return time.Time{}
}
