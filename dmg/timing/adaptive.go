package timing

import (
	"log/slog"
	"time"
)

const (
	// spinThreshold is the remaining wait below which the limiter stops
	// sleeping and spins.
	spinThreshold = 2 * time.Millisecond
	// maxLag is how far behind schedule the limiter may fall before it
	// gives up catching up.
	maxLag = 5 * time.Millisecond
)

// AdaptiveLimiter keeps an absolute schedule of frame deadlines, sleeping for
// most of the wait and spinning for the last stretch.
type AdaptiveLimiter struct {
	frameTime time.Duration
	deadline  time.Time
	frames    int64

	now   func() time.Time
	sleep func(time.Duration)
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	a := &AdaptiveLimiter{
		frameTime: FrameDuration(),
		now:       time.Now,
		sleep:     time.Sleep,
	}
	a.Reset()
	return a
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := a.now()
	remaining := a.deadline.Sub(now)

	switch {
	case remaining > spinThreshold:
		a.sleep(remaining - time.Millisecond)
		a.spin()
	case remaining > 0:
		a.spin()
	case remaining < -maxLag:
		slog.Debug("Frame limiter behind schedule", "lag_ms", (-remaining).Milliseconds(), "frame", a.frames)
		a.deadline = now
	}

	a.deadline = a.deadline.Add(a.frameTime)
	a.frames++
}

func (a *AdaptiveLimiter) spin() {
	for a.now().Before(a.deadline) {
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.deadline = a.now()
	a.frames = 0
}
