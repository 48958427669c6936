// Package graphics is the renderer: it owns the GPU connection, the
// presentable image chain, the named pipeline registry, the drawable entity
// registry, and the per-frame scheduling that turns entity state into
// presented pixels. The application drives it through a single Update call
// per outer-loop iteration.
package graphics

import (
	"fmt"

	"github.com/Meziu/magma/common"
	"github.com/Meziu/magma/engine/graphics/device"
	"github.com/Meziu/magma/engine/graphics/draw"
	"github.com/Meziu/magma/engine/graphics/pipeline"
	"github.com/Meziu/magma/engine/graphics/shaders"
	"github.com/Meziu/magma/engine/graphics/swapchain"
	"github.com/Meziu/magma/engine/profiler"
	"github.com/Meziu/magma/engine/window"
)

// Graphics is the renderer's public surface: entity factories, camera state,
// and the once-per-tick Update entry point.
type Graphics interface {
	// NewSprite creates a textured quad entity from an image file.
	//
	// Parameters:
	//   - texturePath: path to the image file to decode and upload
	//   - zIndex: draw-order key, lower drawn first
	//
	// Returns:
	//   - draw.Handle: a live handle to the sprite
	//   - error: error if the texture cannot be decoded or uploaded
	NewSprite(texturePath string, zIndex uint8) (draw.Handle, error)

	// NewRectangle creates a solid-color quad entity.
	//
	// Parameters:
	//   - scale: the rectangle size in world units
	//   - color: the fill color
	//   - position: the world position
	//   - zIndex: draw-order key, lower drawn first
	//
	// Returns:
	//   - draw.Handle: a live handle to the rectangle
	//   - error: error if GPU resource allocation fails
	NewRectangle(scale common.Vec2, color common.Color, position common.Vec2, zIndex uint8) (draw.Handle, error)

	// CameraPosition returns the camera's world position.
	//
	// Returns:
	//   - common.Vec2: the camera position
	CameraPosition() common.Vec2

	// SetCameraPosition moves the camera.
	//
	// Parameters:
	//   - p: the new camera position
	SetCameraPosition(p common.Vec2)

	// CameraScale returns the camera's anisotropic scale. A negative
	// component inverts that axis.
	//
	// Returns:
	//   - common.Vec2: the camera scale
	CameraScale() common.Vec2

	// SetCameraScale sets the camera's anisotropic scale.
	//
	// Parameters:
	//   - s: the new camera scale
	SetCameraScale(s common.Vec2)

	// WindowSize returns the window pixel dimensions as of the last Update.
	//
	// Returns:
	//   - uint32: width in pixels
	//   - uint32: height in pixels
	WindowSize() (uint32, uint32)

	// Update runs one frame: reclamation, uniform flushes, swapchain
	// validation, and the acquire/record/submit/present sequence. Called
	// exactly once per outer-loop iteration, always from the same thread.
	//
	// Parameters:
	//   - resized: true when the window reported a resize since last Update
	//
	// Returns:
	//   - error: error on an unrecoverable device condition
	Update(resized bool) error

	// Release destroys every entity and frees all GPU resources.
	Release()
}

// graphicsImpl is the implementation of the Graphics interface.
type graphicsImpl struct {
	win     window.Window
	ctx     device.Context
	backend Backend

	chain     swapchain.Manager
	pipelines pipeline.Registry
	registry  draw.Registry
	scheduler *frameScheduler

	global GlobalUniform
	prof   *profiler.Profiler
}

var _ Graphics = &graphicsImpl{}

// NewGraphics creates the renderer against the given window: GPU connection,
// surface configuration, built-in pipeline compilation, and an empty entity
// registry. Every failure here is a startup error.
//
// Parameters:
//   - win: the window to present to
//   - options: functional options to configure the renderer
//
// Returns:
//   - Graphics: the initialized renderer
//   - error: error if device init, surface configuration, or pipeline
//     compilation fails
func NewGraphics(win window.Window, options ...GraphicsBuilderOption) (Graphics, error) {
	cfg := &graphicsConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	g := &graphicsImpl{
		win:  win,
		prof: cfg.prof,
		global: GlobalUniform{
			CameraScale: [4]float32{1, 1, 0, 0},
		},
	}

	backend := cfg.backend
	if backend == nil {
		ctx, err := device.NewContext(win.SurfaceDescriptor(), cfg.deviceOptions...)
		if err != nil {
			return nil, err
		}
		backend, err = newWGPUBackend(ctx)
		if err != nil {
			ctx.Release()
			return nil, err
		}
		g.ctx = ctx
	}
	g.backend = backend

	g.chain = swapchain.NewManager(backend, g.caps(), uint32(win.Width()), uint32(win.Height()))
	if err := g.chain.Validate(); err != nil {
		g.Release()
		return nil, fmt.Errorf("initial swapchain build failed: %w", err)
	}

	g.pipelines = pipeline.NewRegistry(backend)
	builtins := []struct {
		name   string
		source string
	}{
		{shaders.SpriteName, shaders.SpriteSource},
		{shaders.PrimitiveName, shaders.PrimitiveSource},
	}
	for _, b := range builtins {
		if err := g.pipelines.Register(b.name, b.source, b.source); err != nil {
			g.Release()
			return nil, err
		}
	}
	g.pipelines.Seal()

	g.registry = draw.NewRegistry(backend)
	g.scheduler = newFrameScheduler(backend, g.chain, g.pipelines, g.registry)

	return g, nil
}

// caps returns the image-count bounds for swapchain construction.
func (g *graphicsImpl) caps() device.Caps {
	if g.ctx != nil {
		return g.ctx.Caps()
	}
	return device.Caps{MinImageCount: 2, MaxImageCount: 3}
}

func (g *graphicsImpl) NewSprite(texturePath string, zIndex uint8) (draw.Handle, error) {
	staging, err := common.DecodeTexture(texturePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sprite texture: %w", err)
	}

	return g.registry.Create(draw.EntitySpec{
		PipelineName: shaders.SpriteName,
		Texture:      staging,
		Uniform: draw.EntityUniform{
			Color:           [4]float32{1, 1, 1, 1},
			Scale:           [4]float32{1, 1, 0, 0},
			ImageDimensions: [4]uint32{staging.Width, staging.Height, 0, 0},
		},
		ZIndex: zIndex,
	})
}

func (g *graphicsImpl) NewRectangle(scale common.Vec2, color common.Color, position common.Vec2, zIndex uint8) (draw.Handle, error) {
	return g.registry.Create(draw.EntitySpec{
		PipelineName: shaders.PrimitiveName,
		Uniform: draw.EntityUniform{
			Color:           [4]float32{color.R, color.G, color.B, color.A},
			GlobalPosition:  [4]float32{position.X, position.Y, 0, 0},
			Scale:           [4]float32{scale.X, scale.Y, 0, 0},
			ImageDimensions: [4]uint32{1, 1, 0, 0},
		},
		ZIndex: zIndex,
	})
}

func (g *graphicsImpl) CameraPosition() common.Vec2 {
	return common.Vec2{X: g.global.CameraPosition[0], Y: g.global.CameraPosition[1]}
}

func (g *graphicsImpl) SetCameraPosition(p common.Vec2) {
	g.global.CameraPosition[0] = p.X
	g.global.CameraPosition[1] = p.Y
}

func (g *graphicsImpl) CameraScale() common.Vec2 {
	return common.Vec2{X: g.global.CameraScale[0], Y: g.global.CameraScale[1]}
}

func (g *graphicsImpl) SetCameraScale(s common.Vec2) {
	g.global.CameraScale[0] = s.X
	g.global.CameraScale[1] = s.Y
}

func (g *graphicsImpl) WindowSize() (uint32, uint32) {
	return g.global.WindowSize[0], g.global.WindowSize[1]
}

func (g *graphicsImpl) Update(resized bool) error {
	width := uint32(g.win.Width())
	height := uint32(g.win.Height())
	g.global.WindowSize[0] = width
	g.global.WindowSize[1] = height

	err := g.scheduler.RunFrame(FrameContext{
		Resized: resized,
		Width:   width,
		Height:  height,
		Global:  g.global,
	})

	if g.prof != nil {
		for range g.scheduler.Skipped() {
			g.prof.RecordSkip()
		}
		g.prof.Tick()
	}
	return err
}

func (g *graphicsImpl) Release() {
	if g.registry != nil {
		g.registry.Release()
		g.registry = nil
	}
	if g.backend != nil {
		g.backend.Release()
		g.backend = nil
	}
	if g.ctx != nil {
		g.ctx.Release()
		g.ctx = nil
	}
}
