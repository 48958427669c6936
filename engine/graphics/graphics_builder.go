package graphics

import (
	"github.com/Meziu/magma/engine/graphics/device"
	"github.com/Meziu/magma/engine/profiler"
)

// graphicsConfig holds construction options for a Graphics instance.
type graphicsConfig struct {
	deviceOptions []device.ContextBuilderOption
	prof          *profiler.Profiler
	backend       Backend
}

// GraphicsBuilderOption is a functional option for configuring a Graphics
// instance. Use the With* functions to create options.
type GraphicsBuilderOption func(c *graphicsConfig)

// WithForceFallbackAdapter forces the software fallback adapter, mainly
// useful for headless or CI environments.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - GraphicsBuilderOption: option function to apply
func WithForceFallbackAdapter(force bool) GraphicsBuilderOption {
	return func(c *graphicsConfig) {
		c.deviceOptions = append(c.deviceOptions, device.WithForceFallbackAdapter(force))
	}
}

// WithProfiler attaches a profiler that receives per-frame timing and
// skipped-frame counts.
//
// Parameters:
//   - prof: the profiler to attach
//
// Returns:
//   - GraphicsBuilderOption: option function to apply
func WithProfiler(prof *profiler.Profiler) GraphicsBuilderOption {
	return func(c *graphicsConfig) {
		c.prof = prof
	}
}

// WithBackend substitutes the GPU backend, bypassing device creation.
// Intended for tests and headless tooling.
//
// Parameters:
//   - backend: the backend to use
//
// Returns:
//   - GraphicsBuilderOption: option function to apply
func WithBackend(backend Backend) GraphicsBuilderOption {
	return func(c *graphicsConfig) {
		c.backend = backend
	}
}
