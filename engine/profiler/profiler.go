package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
)

// Stats is one interval's worth of frame and memory statistics.
type Stats struct {
	FPS                 float64
	SubmissionsPerFrame float64
	HeapMB              float64
	AllocRateMB         float64
	SysMB               float64
	GCCount             uint32
	LastPauseUs         uint64
	MaxPauseUs          uint64
}

// Profiler tracks frame rate, queue submissions and memory statistics for performance
// monitoring. Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	frameCount     int
	submissions    int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
	quiet          bool
	now            func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// CountSubmission records one queue submission in the current frame.
func (p *Profiler) CountSubmission() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submissions++
}

// WrapQueue returns a queue that counts every accepted submission before forwarding it.
//
// Parameters:
//   - queue: the queue to forward to
//
// Returns:
//   - gpu.Queue: the counting queue
func (p *Profiler) WrapQueue(queue gpu.Queue) gpu.Queue {
	return &countingQueue{Queue: queue, p: p}
}

// SetQuiet toggles logging. Statistics are still computed while quiet.
//
// Parameters:
//   - quiet: true to stop logging
func (p *Profiler) SetQuiet(quiet bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quiet = quiet
}

// Last returns the statistics computed at the most recent logging tick.
func (p *Profiler) Last() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, submissions per frame, heap usage, allocation rate,
// GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := Stats{
		FPS:                 float64(p.frameCount) / elapsed.Seconds(),
		SubmissionsPerFrame: float64(p.submissions) / float64(p.frameCount),
		HeapMB:              float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:               float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:         float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:             p.memStats.NumGC,
	}

	// PauseNs is a circular buffer of the last 256 GC pauses.
	if gcCount := p.memStats.NumGC; gcCount > 0 {
		stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			stats.MaxPauseUs = max(stats.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	if !p.quiet {
		log.Printf("[Profiler] FPS: %.2f | Submits/frame: %.1f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			stats.FPS, stats.SubmissionsPerFrame, stats.HeapMB, stats.AllocRateMB, stats.GCCount, stats.LastPauseUs, stats.MaxPauseUs, stats.SysMB)
	}

	p.last = stats
	p.frameCount = 0
	p.submissions = 0
	p.lastTime = currentTime
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

type countingQueue struct {
	gpu.Queue
	p *Profiler
}

func (q *countingQueue) Submit(cb gpu.CommandBuffer, waits gpu.SemaphoreWaits, signal *gpu.Semaphore) error {
	if err := q.Queue.Submit(cb, waits, signal); err != nil {
		return err
	}
	q.p.CountSubmission()
	return nil
}
