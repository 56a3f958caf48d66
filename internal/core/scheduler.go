package core

// scheduler.go abstracts delayed callbacks so the lifecycle can run against
// the wall clock in production and a manual clock in tests.

import "time"

// Timer is a pending callback created by a Scheduler.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

// Scheduler arms one-shot callbacks and reports the current time.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// SystemScheduler runs callbacks on the runtime timer, each in its own goroutine.
type SystemScheduler struct{}

// AfterFunc wraps time.AfterFunc.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Now returns the wall clock time.
func (SystemScheduler) Now() time.Time {
	return time.Now()
}
