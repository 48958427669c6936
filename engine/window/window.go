package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Events is the per-tick summary of window-system activity: a quit request
// and whether the framebuffer was resized since the previous poll. Callers
// query the current dimensions themselves when Resized is set.
type Events struct {
	// Quit is true when the user requested the window to close.
	Quit bool

	// Resized is true when the framebuffer size changed since the last poll.
	Resized bool
}

// Window provides platform windowing reduced to what the renderer consumes:
// event polling, current pixel dimensions, and a WebGPU surface descriptor.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// PollEvents processes pending window-system events without blocking and
	// reports the quit and resize state accumulated since the previous call.
	// The resize flag is cleared by reading it.
	//
	// Returns:
	//   - Events: the quit/resize summary for this tick
	PollEvents() Events

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, platform state, and the latched resize flag.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// resized is set by the framebuffer-size callback and consumed by PollEvents.
	resized bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:  "Magma",
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) PollEvents() Events {
	quit := !platformProcessMessages(w)
	ev := Events{
		Quit:    quit,
		Resized: w.resized,
	}
	w.resized = false
	return ev
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
