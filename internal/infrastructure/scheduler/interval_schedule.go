package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires a job at a fixed cadence, measured from the end of
// the previous slot. The dispatch and detection jobs run on this schedule.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a schedule firing every interval. A
// non-positive interval falls back to one minute so a misconfigured job
// cannot spin the scheduler loop.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IntervalSchedule{Interval: interval}
}

// Next returns the slot following t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule in cron-like notation for job listings.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}
