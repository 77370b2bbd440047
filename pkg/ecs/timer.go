package ecs

import "time"

// Timer measures frame time on the monotonic clock.
type Timer struct {
	last time.Time
	now  func() time.Time
}

// NewTimer returns a timer started now.
func NewTimer() *Timer {
	return newTimerWithClock(time.Now)
}

func newTimerWithClock(now func() time.Time) *Timer {
	return &Timer{last: now(), now: now}
}

// Elapsed returns the time since the previous call to Elapsed, or since the timer was created for
// the first call.
func (t *Timer) Elapsed() time.Duration {
	now := t.now()
	elapsed := now.Sub(t.last)
	t.last = now
	return elapsed
}
