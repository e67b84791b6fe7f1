package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	// 2026-03-15 23:30 UTC is 2026-03-16 08:30 in Seoul.
	utc := time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC)

	start := StartOfDay(utc)

	assert.Equal(t, DateTime(2026, 3, 16, 0, 0, 0), start)
	assert.Equal(t, SeoulTZ, start.Location())
}

func TestEndOfDay(t *testing.T) {
	end := EndOfDay(DateTime(2026, 3, 16, 8, 30, 0))

	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 999999999, end.Nanosecond())
	assert.True(t, IsSameDay(end, DateTime(2026, 3, 16, 0, 0, 0)))
}

func TestIsSameDay_AcrossMidnightBoundary(t *testing.T) {
	// 15:00 UTC and 16:00 UTC straddle midnight in Seoul (00:00 and 01:00
	// the next day) even though they share a UTC date.
	before := time.Date(2026, 3, 15, 14, 59, 0, 0, time.UTC)
	after := time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC)

	assert.False(t, IsSameDay(before, after))
	assert.True(t, IsSameDay(after, time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)))
}

func TestDaysBetween(t *testing.T) {
	d1 := DateTime(2026, 3, 15, 23, 59, 0)
	d2 := DateTime(2026, 3, 16, 0, 1, 0)

	// Two minutes apart, but on different Seoul calendar days.
	assert.Equal(t, 1, DaysBetween(d1, d2))
	assert.Equal(t, 1, DaysBetween(d2, d1))
	assert.Equal(t, 0, DaysBetween(d1, d1))
	assert.Equal(t, 31, DaysBetween(Date(2026, 3, 1), Date(2026, 4, 1)))
}

func TestIsSafeNotificationTime(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want bool
	}{
		{"early morning", DateTime(2026, 3, 16, 6, 0, 0), false},
		{"just before window", DateTime(2026, 3, 16, 8, 59, 59), false},
		{"window opens", DateTime(2026, 3, 16, 9, 0, 0), true},
		{"midday", DateTime(2026, 3, 16, 14, 30, 0), true},
		{"last safe hour", DateTime(2026, 3, 16, 21, 59, 59), true},
		{"window closes", DateTime(2026, 3, 16, 22, 0, 0), false},
		{"midnight", DateTime(2026, 3, 16, 0, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeNotificationTime(tt.time))
		})
	}
}

func TestIsSafeNotificationTime_EvaluatesInSeoul(t *testing.T) {
	// 23:00 UTC is 08:00 in Seoul - still quiet hours locally.
	assert.False(t, IsSafeNotificationTime(time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)))
	// 01:00 UTC is 10:00 in Seoul.
	assert.True(t, IsSafeNotificationTime(time.Date(2026, 3, 16, 1, 0, 0, 0, time.UTC)))
}

func TestNextSafeNotificationTime(t *testing.T) {
	// Before the window: same day at 09:00.
	next := NextSafeNotificationTime(DateTime(2026, 3, 16, 6, 30, 0))
	assert.Equal(t, DateTime(2026, 3, 16, 9, 0, 0), next)

	// After the window: next day at 09:00.
	next = NextSafeNotificationTime(DateTime(2026, 3, 16, 23, 15, 0))
	assert.Equal(t, DateTime(2026, 3, 17, 9, 0, 0), next)

	// Inside the window: unchanged.
	inside := DateTime(2026, 3, 16, 14, 0, 0)
	assert.True(t, NextSafeNotificationTime(inside).Equal(inside))
}

func TestFormatDateStr(t *testing.T) {
	// 2026-03-15 20:00 UTC is already 2026-03-16 in Seoul.
	utc := time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-16", FormatDateStr(utc))
	assert.Equal(t, "2026-03-16 05:00", FormatSeoul(utc, FormatDateTime))
}

func TestParseSeoul(t *testing.T) {
	parsed, err := ParseSeoul(FormatDateTimeSeconds, "2026-03-16 09:30:00")
	require.NoError(t, err)

	assert.Equal(t, DateTime(2026, 3, 16, 9, 30, 0), parsed)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 30, 0, 0, time.UTC), parsed.UTC())

	_, err = ParseSeoul(FormatDate, "not-a-date")
	assert.Error(t, err)
}
