package profiler

import "time"

// Clock is the monotonic time source for a session. Injecting it keeps
// timing deterministic under test.
type Clock interface {
	// Now reports the time elapsed since an arbitrary fixed origin. The
	// reading must be monotonic for the duration of one session.
	Now() time.Duration
}

// WallClock measures monotonic wall time from the moment it was created.
type WallClock struct {
	origin time.Time
}

// NewWallClock returns a wall clock anchored at the current instant.
func NewWallClock() *WallClock {
	return &WallClock{origin: time.Now()}
}

// Now reports the time elapsed since the clock was created.
func (c *WallClock) Now() time.Duration {
	return time.Since(c.origin)
}
