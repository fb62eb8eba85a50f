package scene

import (
	"github.com/Carmen-Shannon/oxy-gi/engine/camera"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
)

// CpuUpdater carries the per-frame state handed to CPU-side updates of the render
// technique and its subsystems.
type CpuUpdater struct {
	Frame     uint64
	DeltaTime float32
	Scene     Scene
	Camera    camera.Camera

	// Light and Index are set while a shadow map updates one of its slots.
	Light light.Light
	Index int
}

// ForSlot returns a copy of u targeting one shadow map slot.
func (u *CpuUpdater) ForSlot(l light.Light, index int) *CpuUpdater {
	c := *u
	c.Light = l
	c.Index = index
	return &c
}

// GpuUpdater carries the per-frame state handed to GPU-side updates: the queue used
// for uniform uploads.
type GpuUpdater struct {
	Frame uint64
	Queue gpu.Queue
}

// WriteBuffer uploads data at offset 0 of b. Uncreated buffers are skipped.
//
// Parameters:
//   - b: the destination buffer
//   - data: the bytes to upload
//
// Returns:
//   - error: error if the upload fails
func (u *GpuUpdater) WriteBuffer(b *gpu.Buffer, data []byte) error {
	if b == nil || !b.Created() {
		return nil
	}
	return u.Queue.WriteBuffer(b, 0, data)
}
