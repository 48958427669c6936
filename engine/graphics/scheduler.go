package graphics

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Meziu/magma/engine/graphics/draw"
	"github.com/Meziu/magma/engine/graphics/pipeline"
	"github.com/Meziu/magma/engine/graphics/swapchain"
)

// completionTimeout bounds the wait on the previous frame's GPU work. A
// breach means the device hung and is treated as unrecoverable.
const completionTimeout = 10 * time.Second

// FrameContext carries the per-frame inputs into the scheduler, making the
// camera and window dependencies explicit instead of ambient state.
type FrameContext struct {
	// Resized is true when the window reported a resize since the last frame.
	Resized bool

	// Width and Height are the window's current pixel dimensions.
	Width, Height uint32

	// Global is the engine-wide uniform state for this frame.
	Global GlobalUniform
}

// frameScheduler runs the per-frame algorithm: reclamation, uniform flushes,
// swapchain validation, acquire, record, submit, present, and the bounded
// wait on the previous frame's completion.
type frameScheduler struct {
	backend   Backend
	chain     swapchain.Manager
	pipelines pipeline.Registry
	registry  draw.Registry

	// previousFrame is the retained completion signal of the last submitted
	// frame. At most one frame's GPU work is ever unretired.
	previousFrame Completion

	// skipped counts frames abandoned on a soft-skip path since the last
	// Skipped call.
	skipped int
}

// newFrameScheduler creates a scheduler whose retained completion signal
// starts already satisfied.
func newFrameScheduler(backend Backend, chain swapchain.Manager, pipelines pipeline.Registry, registry draw.Registry) *frameScheduler {
	return &frameScheduler{
		backend:       backend,
		chain:         chain,
		pipelines:     pipelines,
		registry:      registry,
		previousFrame: satisfiedCompletion{},
	}
}

// RunFrame executes one frame. Soft-skip conditions (unsupported resize
// dimensions, stale image chain) return nil after abandoning the frame with
// no GPU submission; submission errors other than staleness drop the frame
// and keep the engine running. Everything else is fatal.
//
// Parameters:
//   - frame: the per-frame inputs
//
// Returns:
//   - error: error on an unrecoverable device condition
func (s *frameScheduler) RunFrame(frame FrameContext) error {
	// Dead entities are freed first: the previous RunFrame blocked on the
	// prior submission, so nothing in flight can still reference them.
	s.registry.Reclaim()

	s.backend.WriteGlobalUniform(frame.Global.Marshal())
	s.registry.FlushAll()

	if frame.Resized {
		s.chain.Resize(frame.Width, frame.Height)
	}

	if err := s.chain.Validate(); err != nil {
		if errors.Is(err, swapchain.ErrFrameSkipped) {
			s.skipped++
			return nil
		}
		return err
	}

	if err := s.backend.BeginFrame(s.chain.Viewport()); err != nil {
		if errors.Is(err, ErrOutOfDate) {
			s.chain.MarkStale()
			s.skipped++
			return nil
		}
		return fmt.Errorf("failed to acquire presentable image: %w", err)
	}

	for _, item := range s.registry.Visible() {
		p := s.pipelines.Get(item.PipelineName)
		s.backend.Draw(p.Pipeline(), item.Resources)
	}

	completion, err := s.backend.EndFrame()
	if err != nil {
		// The retained signal is reset to satisfied either way so the next
		// frame does not wait on work that never ran.
		s.previousFrame = satisfiedCompletion{}
		if errors.Is(err, ErrOutOfDate) {
			s.chain.MarkStale()
			s.skipped++
			return nil
		}
		log.Printf("[Scheduler] Frame dropped: %v", err)
		s.skipped++
		return nil
	}

	s.previousFrame = completion
	if err := completion.Wait(completionTimeout); err != nil {
		return fmt.Errorf("GPU completion wait failed: %w", err)
	}

	s.backend.Cleanup()
	return nil
}

// Skipped returns the number of frames abandoned since the last call and
// resets the counter.
//
// Returns:
//   - int: the skipped frame count
func (s *frameScheduler) Skipped() int {
	n := s.skipped
	s.skipped = 0
	return n
}
