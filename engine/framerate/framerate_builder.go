package framerate

// LimiterBuilderOption is a functional option for configuring an engineLimiter.
// Use the With* functions to create options.
type LimiterBuilderOption func(l *engineLimiter)

// WithLimit sets the initial frame rate cap.
//
// Parameters:
//   - fps: target frames per second, or 0 to leave the loop uncapped
//
// Returns:
//   - LimiterBuilderOption: option function to apply
func WithLimit(fps float64) LimiterBuilderOption {
	return func(l *engineLimiter) {
		l.limit = fps
	}
}
