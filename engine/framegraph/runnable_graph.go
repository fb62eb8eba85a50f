package framegraph

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
)

// RunnableGraph is the compiled, device-bound form of a FrameGraph. It owns the
// command buffer holding the recorded passes, the semaphore it signals on every run
// and the graph-owned resources.
type RunnableGraph struct {
	graph     *FrameGraph
	device    gpu.Device
	semaphore *gpu.Semaphore

	cb          gpu.CommandBuffer
	enabledSet  []bool
	recordCount int
	destroyed   bool
}

func (r *RunnableGraph) Graph() *FrameGraph        { return r.graph }
func (r *RunnableGraph) Semaphore() *gpu.Semaphore { return r.semaphore }

// RecordCount returns how many times the command buffer was (re)recorded.
func (r *RunnableGraph) RecordCount() int { return r.recordCount }

// EnabledPasses returns the names of the passes included in the current recording.
func (r *RunnableGraph) EnabledPasses() []string {
	var names []string
	for i, on := range r.enabledSet {
		if on {
			names = append(names, r.graph.passes[i].name)
		}
	}
	return names
}

// Record evaluates every pass's enabled predicate and records the enabled passes in
// declaration order. When a recording exists and the enabled set is unchanged this is
// a no-op.
//
// Returns:
//   - error: error if the command buffer could not be created or finished
func (r *RunnableGraph) Record() error {
	r.checkAlive()
	enabled := make([]bool, len(r.graph.passes))
	for i, p := range r.graph.passes {
		enabled[i] = p.Enabled()
	}
	if r.cb != nil && slices.Equal(enabled, r.enabledSet) {
		return nil
	}
	if r.cb != nil {
		r.cb.Release()
		r.cb = nil
	}

	cb, err := r.device.NewCommandBuffer(r.graph.name)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", r.graph.name, err)
	}
	for i, p := range r.graph.passes {
		if !enabled[i] {
			continue
		}
		cb.BeginPass(p.name)
		if p.record != nil {
			p.record(cb)
		}
		cb.EndPass()
	}
	if err := cb.Finish(); err != nil {
		cb.Release()
		return fmt.Errorf("failed to record %s: %w", r.graph.name, err)
	}
	r.cb = cb
	r.enabledSet = enabled
	r.recordCount++
	return nil
}

// Run records if needed and submits the graph once. The submission waits on waits and
// signals the graph's semaphore. When no pass is enabled nothing is submitted and
// waits is returned unchanged.
//
// Parameters:
//   - waits: the waits produced by the previous submission in the chain
//   - queue: the queue to submit to
//
// Returns:
//   - gpu.SemaphoreWaits: the waits the next consumer must use
//   - error: error if recording or submission fails
func (r *RunnableGraph) Run(waits gpu.SemaphoreWaits, queue gpu.Queue) (gpu.SemaphoreWaits, error) {
	if err := r.Record(); err != nil {
		return waits, err
	}
	if !slices.Contains(r.enabledSet, true) {
		return waits, nil
	}
	if err := queue.Submit(r.cb, waits, r.semaphore); err != nil {
		return waits, fmt.Errorf("failed to submit %s: %w", r.graph.name, err)
	}
	return gpu.SemaphoreWaits{r.semaphore.Wait(r.graph.waitStage)}, nil
}

// Destroy releases the command buffer and every graph-owned resource. The runnable
// graph cannot be used afterwards; a fresh FrameGraph must be built and compiled.
func (r *RunnableGraph) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	if r.cb != nil {
		r.cb.Release()
		r.cb = nil
	}
	for _, t := range r.graph.textures {
		t.Destroy()
	}
	for _, b := range r.graph.buffers {
		b.Destroy()
	}
}

// Destroyed reports whether Destroy was called.
func (r *RunnableGraph) Destroyed() bool { return r.destroyed }

func (r *RunnableGraph) checkAlive() {
	if r.destroyed {
		panic(fmt.Sprintf("framegraph: runnable graph %q used after Destroy", r.graph.name))
	}
}
