// Package device owns the GPU connection: the WebGPU instance, adapter
// selection, logical device, and submission queue. Created once at engine
// startup; every failure here is unrecoverable.
package device

import (
	"fmt"
	"log"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Caps describes the surface capabilities that bound swapchain construction.
type Caps struct {
	// MinImageCount is the fewest presentable images the surface supports.
	MinImageCount uint32

	// MaxImageCount is the most presentable images the surface supports;
	// 0 means no upper bound.
	MaxImageCount uint32
}

// Context owns the GPU instance, adapter, device, and queue.
type Context interface {
	// Device returns the logical GPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the device's submission queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// Adapter returns the selected physical adapter.
	//
	// Returns:
	//   - *wgpu.Adapter: the adapter
	Adapter() *wgpu.Adapter

	// Surface returns the presentation surface the device was selected against.
	//
	// Returns:
	//   - *wgpu.Surface: the surface
	Surface() *wgpu.Surface

	// Caps returns the surface capabilities that bound swapchain construction.
	//
	// Returns:
	//   - Caps: the capability bounds
	Caps() Caps

	// Release frees the GPU connection. The Context must not be used afterwards.
	Release()
}

// deviceContextImpl is the implementation of the Context interface.
type deviceContextImpl struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface
}

var _ Context = &deviceContextImpl{}

// NewContext creates a GPU connection capable of presenting to the given
// surface. Adapter selection prefers discrete over integrated over software
// devices via the high-performance power preference; there is no fallback
// device on failure.
//
// Parameters:
//   - surfaceDescriptor: the platform surface to present to
//   - options: functional options to configure the context
//
// Returns:
//   - Context: the initialized GPU connection
//   - error: error if no instance, adapter, or device could be created
func NewContext(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...ContextBuilderOption) (Context, error) {
	runtime.LockOSThread()

	cfg := &contextConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	c := &deviceContextImpl{
		instance: wgpu.CreateInstance(nil),
	}
	c.surface = c.instance.CreateSurface(surfaceDescriptor)

	adapter, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("device init: no suitable adapter: %w", err)
	}
	c.adapter = adapter
	logAdapter(adapter)

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("device init: failed to create device: %w", err)
	}
	c.device = device
	c.queue = device.GetQueue()

	return c, nil
}

// logAdapter logs the selected adapter's identity so device-selection problems
// are diagnosable from the log alone.
func logAdapter(adapter *wgpu.Adapter) {
	info := adapter.GetInfo()
	log.Printf("[Device] Adapter: %s (%s)", info.Name, adapterTypeString(info.AdapterType))
}

// adapterTypeString converts the adapter type to a readable label.
func adapterTypeString(t wgpu.AdapterType) string {
	switch t {
	case wgpu.AdapterTypeDiscreteGPU:
		return "DiscreteGPU"
	case wgpu.AdapterTypeIntegratedGPU:
		return "IntegratedGPU"
	case wgpu.AdapterTypeCPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// AdapterPreference ranks adapter types for selection diagnostics: discrete
// first, then integrated, then software. Lower is better.
//
// Parameters:
//   - t: the adapter type to rank
//
// Returns:
//   - int: the preference rank, lower preferred
func AdapterPreference(t wgpu.AdapterType) int {
	switch t {
	case wgpu.AdapterTypeDiscreteGPU:
		return 0
	case wgpu.AdapterTypeIntegratedGPU:
		return 1
	case wgpu.AdapterTypeCPU:
		return 3
	default:
		return 2
	}
}

func (c *deviceContextImpl) Device() *wgpu.Device {
	return c.device
}

func (c *deviceContextImpl) Queue() *wgpu.Queue {
	return c.queue
}

func (c *deviceContextImpl) Adapter() *wgpu.Adapter {
	return c.adapter
}

func (c *deviceContextImpl) Surface() *wgpu.Surface {
	return c.surface
}

func (c *deviceContextImpl) Caps() Caps {
	// wgpu-native sizes the image chain itself and does not report count
	// bounds through surface capabilities; these are the bounds it applies
	// for the FIFO and Mailbox present modes.
	return Caps{
		MinImageCount: 2,
		MaxImageCount: 3,
	}
}

func (c *deviceContextImpl) Release() {
	if c.device != nil {
		c.device.Release()
		c.device = nil
		c.queue = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}
