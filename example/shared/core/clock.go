package core

import (
	"time"
)

// Clock is the time source handed to command handlers. Tests inject a fixed one.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time {
		return t
	}
}
