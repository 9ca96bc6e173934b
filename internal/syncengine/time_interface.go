package syncengine

import "time"

// TimeProvider provides the current time for run statistics.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using real time functions.
type RealTimeProvider struct{}

// Now returns the current time.
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}
