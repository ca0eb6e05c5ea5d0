// Package refresh converts a feed's refresh policy into its next check time.
package refresh

import (
	"time"

	"feedmailer/internal/model"
)

// Next returns the first instant at which a feed with the given policy
// becomes eligible for another check. For wall-clock policies the result is
// strictly after now: a slot already passed today rolls to the next day or
// week. A nil policy falls back to model.DefaultRefresh.
func Next(now time.Time, policy model.Refresh) time.Time {
	if policy == nil {
		policy = model.DefaultRefresh
	}

	switch p := policy.(type) {
	case model.Every:
		return now.Add(time.Duration(p.Hours * float64(time.Hour)))

	case model.At:
		next := time.Date(now.Year(), now.Month(), now.Day(), p.Hour, p.Minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next

	case model.AtWeekly:
		days := (int(p.Day) - int(now.Weekday()) + 7) % 7
		day := now.AddDate(0, 0, days)
		next := time.Date(day.Year(), day.Month(), day.Day(), p.Hour, p.Minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next
	}

	return Next(now, model.DefaultRefresh)
}
