// Package timeutil provides timezone utilities for the Seoul timezone
// (UTC+9). PuppyTalk's user base is in Korea, so the daily notification
// limit and all calendar-day logic are anchored to Korean local days.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// SeoulTZ is the Seoul timezone (UTC+9, no DST).
// South Korea has not observed DST since 1988, so this is constant year-round.
var SeoulTZ = time.FixedZone("Asia/Seoul", 9*60*60)

// Now returns the current time in Seoul timezone.
func Now() time.Time {
	return time.Now().In(SeoulTZ)
}

// ToSeoul converts a time to Seoul timezone.
func ToSeoul(t time.Time) time.Time {
	return t.In(SeoulTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Seoul timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SeoulTZ)
}

// DateTime creates a time in Seoul timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, SeoulTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Seoul timezone.
func StartOfDay(t time.Time) time.Time {
	seoul := ToSeoul(t)
	return time.Date(seoul.Year(), seoul.Month(), seoul.Day(), 0, 0, 0, 0, SeoulTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Seoul timezone.
func EndOfDay(t time.Time) time.Time {
	seoul := ToSeoul(t)
	return time.Date(seoul.Year(), seoul.Month(), seoul.Day(), 23, 59, 59, 999999999, SeoulTZ)
}

// IsSameDay checks if two times are on the same day in Seoul timezone.
func IsSameDay(t1, t2 time.Time) bool {
	s1, s2 := ToSeoul(t1), ToSeoul(t2)
	return s1.Year() == s2.Year() && s1.YearDay() == s2.YearDay()
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	s1 := StartOfDay(t1)
	s2 := StartOfDay(t2)
	days := int(s2.Sub(s1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
)

// FormatSeoul formats a time in Seoul timezone with the given layout.
func FormatSeoul(t time.Time, layout string) string {
	return ToSeoul(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Seoul timezone.
func FormatDateStr(t time.Time) string {
	return FormatSeoul(t, FormatDate)
}

// ParseSeoul parses a time string in Seoul timezone.
func ParseSeoul(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, SeoulTZ)
}

// Quiet-hours helpers for notification dispatch.

// IsSafeNotificationTime checks if it's appropriate to push notifications
// to users (9:00-22:00 Seoul time).
func IsSafeNotificationTime(t time.Time) bool {
	hour := ToSeoul(t).Hour()
	return hour >= 9 && hour < 22
}

// NextSafeNotificationTime returns the next time when notifications are
// appropriate.
func NextSafeNotificationTime(t time.Time) time.Time {
	seoul := ToSeoul(t)
	hour := seoul.Hour()

	if hour < 9 {
		return DateTime(seoul.Year(), int(seoul.Month()), seoul.Day(), 9, 0, 0)
	}
	if hour >= 22 {
		tomorrow := seoul.AddDate(0, 0, 1)
		return DateTime(tomorrow.Year(), int(tomorrow.Month()), tomorrow.Day(), 9, 0, 0)
	}

	return seoul
}
