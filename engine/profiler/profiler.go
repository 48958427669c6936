package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks frame rate, skipped frames, and memory statistics for
// performance monitoring. Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	skipCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - updateInterval: how often stats are logged; values <= 0 default to 1 second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(updateInterval time.Duration) *Profiler {
	if updateInterval <= 0 {
		updateInterval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: updateInterval,
	}
}

// RecordSkip notes a frame that was skipped instead of presented, such as
// when the swapchain is being rebuilt after a resize.
func (p *Profiler) RecordSkip() {
	p.skipCount++
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, skipped frames, heap usage, allocation rate,
// GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	// Calculate allocation rate (MB/sec)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// Calculate GC pause stats (last pause and max recent pause)
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		// Find max pause since last tick
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	log.Printf("[Profiler] FPS: %.2f | Skipped: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		fps, p.skipCount, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.frameCount = 0
	p.skipCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
