package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameDuration(t *testing.T) {
	assert.InDelta(t, 59.7275, TargetFPS(), 0.001)
	assert.InDelta(t, float64(16742706*time.Nanosecond), float64(FrameDuration()), float64(time.Microsecond))
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name string
		want Limiter
	}{
		{"", noOpLimiter{}},
		{"none", noOpLimiter{}},
	}
	for _, tC := range testCases {
		l, err := New(tC.name)
		require.NoError(t, err)
		assert.Equal(t, tC.want, l)
	}

	l, err := New("ticker")
	require.NoError(t, err)
	assert.IsType(t, &TickerLimiter{}, l)
	l.(*TickerLimiter).Stop()

	l, err = New("adaptive")
	require.NoError(t, err)
	assert.IsType(t, &AdaptiveLimiter{}, l)

	_, err = New("vsync")
	assert.Error(t, err)
}

// fakeClock advances only when the limiter sleeps or spins.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	stride time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.stride)
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func newTestAdaptive(clock *fakeClock) *AdaptiveLimiter {
	a := &AdaptiveLimiter{frameTime: 10 * time.Millisecond, now: clock.Now, sleep: clock.Sleep}
	a.Reset()
	return a
}

func TestAdaptiveLimiter(t *testing.T) {
	t.Run("first frame does not wait", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(0, 0)}
		a := newTestAdaptive(clock)

		a.WaitForNextFrame()
		assert.Empty(t, clock.slept)
		assert.Equal(t, time.Unix(0, 0).Add(10*time.Millisecond), a.deadline)
	})

	t.Run("sleeps until the next deadline", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(0, 0), stride: 100 * time.Microsecond}
		a := newTestAdaptive(clock)
		a.WaitForNextFrame()

		a.WaitForNextFrame()
		require.Len(t, clock.slept, 1)
		assert.Less(t, clock.slept[0], 10*time.Millisecond)
		assert.False(t, clock.now.Before(time.Unix(0, 0).Add(10*time.Millisecond)))
	})

	t.Run("drops the schedule when far behind", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(0, 0)}
		a := newTestAdaptive(clock)
		a.WaitForNextFrame()

		clock.now = clock.now.Add(time.Second)
		a.WaitForNextFrame()
		assert.Empty(t, clock.slept)
		assert.Equal(t, clock.now.Add(10*time.Millisecond), a.deadline)
		assert.Equal(t, int64(2), a.frames)
	})
}
