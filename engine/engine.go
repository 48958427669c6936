package engine

import (
	"fmt"
	"time"

	"github.com/Meziu/magma/engine/audio"
	"github.com/Meziu/magma/engine/framerate"
	"github.com/Meziu/magma/engine/graphics"
	"github.com/Meziu/magma/engine/profiler"
	"github.com/Meziu/magma/engine/window"
)

// engine implements the Engine interface.
// Owns the window, renderer, audio mixer, and frame limiter, and drives them
// from one cooperative loop.
type engine struct {
	window  window.Window
	gfx     graphics.Graphics
	mixer   audio.Mixer
	limiter framerate.Limiter

	profilingEnabled bool
	forceFallback    bool
	audioEnabled     bool
	frameLimit       float64
	windowOptions    []window.WindowBuilderOption

	tickCallback func(deltaTime float32)
	running      bool
}

// Engine is the main entry point: it composes the window, the renderer, the
// audio mixer, and frame pacing behind a single blocking Run loop. Everything
// runs on the one calling thread; at most one frame of GPU work is in flight
// at a time.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Graphics returns the renderer for entity creation and camera control.
	//
	// Returns:
	//   - graphics.Graphics: the renderer
	Graphics() graphics.Graphics

	// Audio returns the audio mixer, or nil when audio was not enabled.
	//
	// Returns:
	//   - audio.Mixer: the mixer instance
	Audio() audio.Mixer

	// SetTickCallback registers the function called once per loop iteration,
	// before the frame is rendered. Use it for game logic and entity
	// mutation; handles may be created, mutated, and released freely here.
	//
	// Parameters:
	//   - callback: function receiving the previous frame's duration in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameLimit changes the frame rate cap.
	//
	// Parameters:
	//   - fps: target frames per second, or 0 to uncap
	SetFrameLimit(fps float64)

	// Run blocks driving the main loop until the window requests quit, Quit
	// is called, or the renderer reports an unrecoverable error.
	//
	// Returns:
	//   - error: error if the renderer failed fatally
	Run() error

	// Quit stops the main loop after the current iteration. Safe to call
	// from the tick callback.
	Quit()

	// Close releases the renderer, audio, and window resources.
	Close()
}

var _ Engine = &engine{}

// NewEngine creates an Engine with the provided options, initializing the
// window, GPU renderer, and optionally the audio mixer.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if window, renderer, or audio initialization fails
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{}
	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		win, err := window.NewWindow(e.windowOptions...)
		if err != nil {
			return nil, err
		}
		e.window = win
	}

	gfxOptions := []graphics.GraphicsBuilderOption{
		graphics.WithForceFallbackAdapter(e.forceFallback),
	}
	if e.profilingEnabled {
		gfxOptions = append(gfxOptions, graphics.WithProfiler(profiler.NewProfiler(time.Second)))
	}
	gfx, err := graphics.NewGraphics(e.window, gfxOptions...)
	if err != nil {
		e.window.Close()
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}
	e.gfx = gfx

	if e.audioEnabled {
		mixer, err := audio.NewMixer()
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to initialize audio: %w", err)
		}
		e.mixer = mixer
	}

	e.limiter = framerate.NewLimiter(framerate.WithLimit(e.frameLimit))

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Graphics() graphics.Graphics {
	return e.gfx
}

func (e *engine) Audio() audio.Mixer {
	return e.mixer
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetFrameLimit(fps float64) {
	e.limiter.SetLimit(fps)
}

func (e *engine) Run() error {
	e.running = true
	for e.running {
		ev := e.window.PollEvents()
		if ev.Quit {
			break
		}

		if e.tickCallback != nil {
			e.tickCallback(float32(e.limiter.Delta().Seconds()))
		}

		if err := e.gfx.Update(ev.Resized); err != nil {
			e.running = false
			return fmt.Errorf("render loop stopped: %w", err)
		}

		e.limiter.Wait()
	}
	e.running = false
	return nil
}

func (e *engine) Quit() {
	e.running = false
}

func (e *engine) Close() {
	if e.mixer != nil {
		e.mixer.Close()
		e.mixer = nil
	}
	if e.gfx != nil {
		e.gfx.Release()
		e.gfx = nil
	}
	if e.window != nil {
		e.window.Close()
		e.window = nil
	}
}
