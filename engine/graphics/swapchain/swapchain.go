// Package swapchain manages the presentable image chain: its size, image
// count, per-image framebuffer records, and the viewport covering the full
// image extent. The chain rebuilds itself lazily whenever the window resizes
// or the GPU reports it stale.
package swapchain

import (
	"errors"
	"fmt"
	"log"

	"github.com/Meziu/magma/engine/graphics/device"
)

// ErrUnsupportedDimensions reports that the surface cannot be configured at
// the requested size. It is a transient condition: the caller skips the frame
// and retries on a later validate.
var ErrUnsupportedDimensions = errors.New("surface does not support the requested dimensions")

// ErrFrameSkipped reports that the current frame must be skipped with no GPU
// submission; the chain stays pending and is retried next frame.
var ErrFrameSkipped = errors.New("frame skipped")

// Configurer applies a surface configuration to the GPU. Implemented by the
// renderer backend; faked in tests.
type Configurer interface {
	// ConfigureSurface (re)configures the presentation surface.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	//   - imageCount: number of presentable images to request
	//
	// Returns:
	//   - error: ErrUnsupportedDimensions if the size cannot be used, any
	//     other error is fatal
	ConfigureSurface(width, height, imageCount uint32) error
}

// Viewport is the render pass viewport covering the full image extent.
type Viewport struct {
	X, Y, Width, Height float32
}

// Framebuffer is the bookkeeping record for one presentable image's render
// target.
type Framebuffer struct {
	// Index is the image's position in the chain.
	Index uint32

	// Width and Height are the image extent in pixels.
	Width, Height uint32
}

// Manager owns the presentable image chain state machine: Valid until a
// resize or staleness report marks it PendingRecreate, then rebuilt in place
// on the next Validate call.
type Manager interface {
	// Resize records a new target size and marks the chain for recreation.
	//
	// Parameters:
	//   - width: new surface width in pixels
	//   - height: new surface height in pixels
	Resize(width, height uint32)

	// MarkStale marks the chain for recreation without changing the target
	// size, used when the GPU reports the chain out-of-date or suboptimal.
	MarkStale()

	// Validate rebuilds the chain if it is pending recreation. A rebuild
	// against unsupported dimensions is a soft failure: Validate returns
	// ErrFrameSkipped, the pending state is kept, and a later call retries.
	//
	// Returns:
	//   - error: nil if the chain is valid, ErrFrameSkipped on a transient
	//     rebuild failure, any other error is fatal
	Validate() error

	// Valid reports whether the chain is usable without a rebuild.
	//
	// Returns:
	//   - bool: true when no recreation is pending
	Valid() bool

	// ImageCount returns the number of presentable images in the chain.
	//
	// Returns:
	//   - uint32: the image count
	ImageCount() uint32

	// Viewport returns the viewport covering the full current image extent.
	//
	// Returns:
	//   - Viewport: the current viewport
	Viewport() Viewport

	// Framebuffers returns one record per presentable image.
	//
	// Returns:
	//   - []Framebuffer: the per-image records
	Framebuffers() []Framebuffer
}

// swapchainManagerImpl is the implementation of the Manager interface.
type swapchainManagerImpl struct {
	configurer Configurer
	caps       device.Caps

	width  uint32
	height uint32

	imageCount   uint32
	viewport     Viewport
	framebuffers []Framebuffer

	pendingRecreate bool
}

var _ Manager = &swapchainManagerImpl{}

// NewManager creates a Manager for the given surface capabilities. The chain
// starts in the pending state; the first Validate call builds it against the
// initial size.
//
// Parameters:
//   - configurer: the backend that applies surface configurations
//   - caps: the device's image count bounds
//   - width: initial surface width in pixels
//   - height: initial surface height in pixels
//
// Returns:
//   - Manager: the swapchain manager
func NewManager(configurer Configurer, caps device.Caps, width, height uint32) Manager {
	return &swapchainManagerImpl{
		configurer:      configurer,
		caps:            caps,
		width:           width,
		height:          height,
		pendingRecreate: true,
	}
}

// computeImageCount bounds the chain length to the device capabilities: at
// least double buffering, clamped to the reported maximum when one exists.
func computeImageCount(caps device.Caps) uint32 {
	count := max(2, caps.MinImageCount)
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func (m *swapchainManagerImpl) Resize(width, height uint32) {
	m.width = width
	m.height = height
	m.pendingRecreate = true
}

func (m *swapchainManagerImpl) MarkStale() {
	m.pendingRecreate = true
}

func (m *swapchainManagerImpl) Validate() error {
	if !m.pendingRecreate {
		return nil
	}

	// A minimized window reports zero extent; treat it like an unsupported
	// size and retry once it is restored.
	if m.width == 0 || m.height == 0 {
		return ErrFrameSkipped
	}

	count := computeImageCount(m.caps)
	if err := m.configurer.ConfigureSurface(m.width, m.height, count); err != nil {
		if errors.Is(err, ErrUnsupportedDimensions) {
			log.Printf("[Swapchain] Skipping frame: %v", err)
			return ErrFrameSkipped
		}
		return fmt.Errorf("swapchain recreation failed: %w", err)
	}

	m.imageCount = count
	m.viewport = Viewport{
		Width:  float32(m.width),
		Height: float32(m.height),
	}
	m.framebuffers = make([]Framebuffer, count)
	for i := range m.framebuffers {
		m.framebuffers[i] = Framebuffer{
			Index:  uint32(i),
			Width:  m.width,
			Height: m.height,
		}
	}
	m.pendingRecreate = false
	return nil
}

func (m *swapchainManagerImpl) Valid() bool {
	return !m.pendingRecreate
}

func (m *swapchainManagerImpl) ImageCount() uint32 {
	return m.imageCount
}

func (m *swapchainManagerImpl) Viewport() Viewport {
	return m.viewport
}

func (m *swapchainManagerImpl) Framebuffers() []Framebuffer {
	return m.framebuffers
}
