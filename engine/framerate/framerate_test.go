package framerate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances a virtual time on every read and records sleeps by
// advancing with them.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	onRead time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *fakeClock, options ...LimiterBuilderOption) *engineLimiter {
	l := NewLimiter(options...).(*engineLimiter)
	l.now = clock.Now
	l.sleep = clock.Sleep
	l.lastLoop = clock.Now()
	return l
}

func TestWaitSleepsToTarget(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := newTestLimiter(clock, WithLimit(100)) // 10ms per frame

	clock.Advance(4 * time.Millisecond) // frame work took 4ms
	l.Wait()

	assert.Equal(t, []time.Duration{6 * time.Millisecond}, clock.slept)
	assert.Equal(t, 10*time.Millisecond, l.Delta())
	assert.InDelta(t, 100.0, l.FPS(), 0.01)
}

func TestWaitDoesNotSleepWhenBehind(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := newTestLimiter(clock, WithLimit(100))

	clock.Advance(25 * time.Millisecond) // frame work overran the 10ms slice
	l.Wait()

	assert.Empty(t, clock.slept)
	assert.Equal(t, 25*time.Millisecond, l.Delta())
}

func TestWaitUncapped(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := newTestLimiter(clock)

	clock.Advance(2 * time.Millisecond)
	l.Wait()

	assert.Empty(t, clock.slept)
	assert.Equal(t, 2*time.Millisecond, l.Delta())
	assert.InDelta(t, 500.0, l.FPS(), 0.01)
}

func TestFPSBeforeFirstFrame(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := newTestLimiter(clock)

	assert.Equal(t, 0.0, l.FPS())
}

func TestSetLimit(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l := newTestLimiter(clock)
	l.SetLimit(50) // 20ms per frame

	clock.Advance(5 * time.Millisecond)
	l.Wait()

	assert.Equal(t, []time.Duration{15 * time.Millisecond}, clock.slept)
	assert.Equal(t, 20*time.Millisecond, l.Delta())
}
