package engine

import (
	"github.com/Meziu/magma/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets a custom configured window for the engine to use rather
// than allowing the engine to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowOptions forwards options to the window the engine creates.
// Ignored when WithWindow is also given.
//
// Parameters:
//   - options: window options to apply at creation
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithProfiling enables performance profiling output to the log.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithAudio enables the audio mixer.
//
// Parameters:
//   - enabled: if true, initializes audio playback at engine creation
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAudio(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.audioEnabled = enabled
	}
}

// WithFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameLimit = fps
	}
}

// WithForceFallbackAdapter forces the software fallback GPU adapter, mainly
// useful for headless or CI environments.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithForceFallbackAdapter(force bool) EngineBuilderOption {
	return func(e *engine) {
		e.forceFallback = force
	}
}
