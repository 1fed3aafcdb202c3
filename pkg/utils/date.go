package utils

import (
	"strconv"
	"time"
)

const DayMillis int64 = 24 * 60 * 60 * 1000

// Midnight truncates t to 00:00:00.000 of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MidnightKey is the date key used across the service: epoch milliseconds
// of t's local midnight.
func MidnightKey(t time.Time) int64 {
	return Midnight(t).UnixMilli()
}

// KeyToTime converts a date key back to a time in loc.
func KeyToTime(key int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(key).In(loc)
}

// NormalizeKey truncates an arbitrary epoch-millisecond timestamp to the
// midnight key of its day in loc.
func NormalizeKey(unixMillis int64, loc *time.Location) int64 {
	return MidnightKey(KeyToTime(unixMillis, loc))
}

// KeyString is the canonical string form of a date key, used as PRNG seed.
func KeyString(key int64) string {
	return strconv.FormatInt(key, 10)
}

// ParseDay parses a YYYY-MM-DD day in loc and returns its midnight key.
func ParseDay(day string, loc *time.Location) (int64, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return 0, err
	}
	return MidnightKey(t), nil
}

// FormatDay renders a date key as YYYY-MM-DD in loc.
func FormatDay(key int64, loc *time.Location) string {
	return KeyToTime(key, loc).Format("2006-01-02")
}
