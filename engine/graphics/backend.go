package graphics

import (
	"errors"
	"time"

	"github.com/Meziu/magma/engine/graphics/draw"
	"github.com/Meziu/magma/engine/graphics/pipeline"
	"github.com/Meziu/magma/engine/graphics/swapchain"
)

// ErrOutOfDate reports that the presentable image chain no longer matches the
// surface. The frame is skipped, the chain is marked for recreation, and the
// next update retries.
var ErrOutOfDate = errors.New("presentable image chain is out of date")

// Completion is a GPU-to-CPU signal that previously submitted work has
// finished executing.
type Completion interface {
	// Wait blocks until the work completes or the timeout elapses.
	//
	// Parameters:
	//   - timeout: the longest Wait may block
	//
	// Returns:
	//   - error: error if the timeout elapsed before completion
	Wait(timeout time.Duration) error
}

// satisfiedCompletion is an already-signaled Completion, used as the initial
// retained signal and as the reset value after a failed submission.
type satisfiedCompletion struct{}

var _ Completion = satisfiedCompletion{}

func (satisfiedCompletion) Wait(time.Duration) error {
	return nil
}

// Backend is the single GPU-facing surface of the renderer: it compiles
// pipelines, configures the presentation surface, allocates entity resources,
// and records/submits frames. Exactly one implementation talks to WebGPU;
// tests substitute fakes.
type Backend interface {
	pipeline.Compiler
	swapchain.Configurer
	draw.ResourceFactory

	// WriteGlobalUniform uploads the shared per-frame uniform block.
	//
	// Parameters:
	//   - data: the marshaled uniform bytes
	WriteGlobalUniform(data []byte)

	// BeginFrame acquires the next presentable image and opens the frame's
	// single render pass with the given viewport.
	//
	// Returns:
	//   - error: ErrOutOfDate if the chain is stale, any other error is fatal
	BeginFrame(viewport swapchain.Viewport) error

	// Draw records one indexed draw call for an entity within the open pass.
	//
	// Parameters:
	//   - pipelineHandle: the backend pipeline object from the registry
	//   - resources: the entity's resource handle from CreateResources
	Draw(pipelineHandle any, resources any)

	// EndFrame closes the render pass, submits the commands, and presents
	// the image.
	//
	// Returns:
	//   - Completion: the submission's completion signal
	//   - error: ErrOutOfDate if presentation found the chain stale, any
	//     other error drops the frame
	EndFrame() (Completion, error)

	// Cleanup retires completed prior-frame bookkeeping. Called once at the
	// end of each fully submitted frame.
	Cleanup()

	// Release frees all backend-owned GPU resources.
	Release()
}
