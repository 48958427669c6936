package device

// contextConfig holds construction options for a Context.
type contextConfig struct {
	forceFallbackAdapter bool
}

// ContextBuilderOption is a functional option for configuring a Context.
// Use the With* functions to create options.
type ContextBuilderOption func(c *contextConfig)

// WithForceFallbackAdapter forces selection of the software fallback adapter,
// mainly useful for headless or CI environments.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithForceFallbackAdapter(force bool) ContextBuilderOption {
	return func(c *contextConfig) {
		c.forceFallbackAdapter = force
	}
}
