// Package utc builds time.Time values pinned to the UTC location.
package utc

import "time"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Date returns midnight of the given day in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return DateTime(year, month, day, 0, 0, 0, 0)
}

// DateTime returns the given instant in UTC. Out-of-range values are
// normalized the same way time.Date does.
func DateTime(year int, month time.Month, day, hour, min, sec, nsec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, nsec, time.UTC)
}

// In converts t to UTC. The zero time stays zero.
func In(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
