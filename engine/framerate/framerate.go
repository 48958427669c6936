// Package framerate paces the main loop to an optional frames-per-second cap
// and tracks the duration of each iteration.
package framerate

import (
	"time"
)

// Limiter tracks frame timing and optionally sleeps each frame to hold the
// loop at a target rate.
type Limiter interface {
	// Wait marks the end of the current frame. If a limit is set, it sleeps
	// for the remainder of the frame's time slice. The measured frame
	// duration (including any sleep) becomes the new delta.
	Wait()

	// Delta returns the duration of the last completed frame.
	//
	// Returns:
	//   - time.Duration: last frame duration
	Delta() time.Duration

	// FPS returns the effective frame rate of the last completed frame.
	//
	// Returns:
	//   - float64: frames per second, or 0 before the first frame completes
	FPS() float64

	// SetLimit changes the frame rate cap.
	//
	// Parameters:
	//   - fps: target frames per second, or 0 to uncap
	SetLimit(fps float64)
}

// engineLimiter is the implementation of the Limiter interface.
type engineLimiter struct {
	// lastLoop is the instant the previous frame ended.
	lastLoop time.Time

	// delta is the duration of the last completed frame.
	delta time.Duration

	// limit is the target frames per second; 0 means uncapped.
	limit float64

	// now and sleep are indirections over the clock for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

var _ Limiter = &engineLimiter{}

// NewLimiter creates a Limiter with the specified options.
//
// Parameters:
//   - options: functional options to configure the limiter
//
// Returns:
//   - Limiter: the configured limiter
func NewLimiter(options ...LimiterBuilderOption) Limiter {
	l := &engineLimiter{
		now:   time.Now,
		sleep: time.Sleep,
	}
	l.lastLoop = l.now()
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *engineLimiter) Wait() {
	elapsed := l.now().Sub(l.lastLoop)
	if l.limit > 0 {
		target := time.Duration(float64(time.Second) / l.limit)
		if elapsed < target {
			l.sleep(target - elapsed)
		}
	}
	now := l.now()
	l.delta = now.Sub(l.lastLoop)
	l.lastLoop = now
}

func (l *engineLimiter) Delta() time.Duration {
	return l.delta
}

func (l *engineLimiter) FPS() float64 {
	if l.delta <= 0 {
		return 0
	}
	return float64(time.Second) / float64(l.delta)
}

func (l *engineLimiter) SetLimit(fps float64) {
	l.limit = fps
}
