package timing

import (
	"fmt"
	"time"

	"github.com/valerio/dmgcore/dmg/video"
)

// Limiter paces the host loop to the console's frame rate.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// CPUFrequency is the DMG master clock in Hz.
const CPUFrequency = 4194304

// TargetFPS is the exact DMG frame rate, about 59.73.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(video.FrameCycles)
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

// New returns the limiter registered under name: "none", "ticker" or
// "adaptive".
func New(name string) (Limiter, error) {
	switch name {
	case "none", "":
		return NewNoOpLimiter(), nil
	case "ticker":
		return NewTickerLimiter(), nil
	case "adaptive":
		return NewAdaptiveLimiter(), nil
	}
	return nil, fmt.Errorf("unknown limiter %q", name)
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}
