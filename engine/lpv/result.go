package lpv

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// LightVolumePassResult holds the accumulated radiance volumes (R, G and B spherical
// harmonics per cascade) written by every engine of one cascade layout, together with
// the grids they share and the grid config UBO describing them.
//
// Engines expand the region during their CPU update; UpdateGrids then derives the grids
// once per frame so that every engine writing the result uses the same grids.
type LightVolumePassResult struct {
	mu sync.Mutex

	name     string
	dims     uint32
	channels [][3]*gpu.Texture
	config   *gpu.Buffer

	region common.AABB
	grids  []Grid
}

// NewLightVolumePassResult declares an uncreated result.
//
// Parameters:
//   - name: the texture name prefix
//   - cascades: the number of cascades in [1, MaxCascadesCount]
//   - dims: the cells per grid axis
//
// Returns:
//   - *LightVolumePassResult: the new result
func NewLightVolumePassResult(name string, cascades int, dims uint32) *LightVolumePassResult {
	checkCascade(cascades-1, MaxCascadesCount)
	r := &LightVolumePassResult{
		name:     name,
		dims:     dims,
		channels: make([][3]*gpu.Texture, cascades),
		config: gpu.NewBuffer(name+"-grid-config", gpu.BufferDesc{
			Size:  112,
			Usage: gpu.BufferUsageUniform | gpu.BufferUsageTransferDst,
		}),
		region: common.EmptyAABB(),
	}
	for c := range r.channels {
		r.channels[c] = newVolume(fmt.Sprintf("%s-%d", name, c), dims, gpu.UsageStorage|gpu.UsageSampled|gpu.UsageTransferDst)
	}
	return r
}

// newVolume declares the R, G and B textures of one radiance volume.
func newVolume(name string, dims uint32, usage gpu.TextureUsage) [3]*gpu.Texture {
	var v [3]*gpu.Texture
	for i, channel := range []string{"r", "g", "b"} {
		v[i] = gpu.NewTexture(name+"-"+channel, gpu.TextureDesc{
			Format:    gpu.FormatRGBA16Float,
			Dimension: gpu.Dimension3D,
			Width:     dims,
			Height:    dims,
			Depth:     dims,
			Usage:     usage,
		})
	}
	return v
}

func (r *LightVolumePassResult) Name() string       { return r.name }
func (r *LightVolumePassResult) Cascades() int      { return len(r.channels) }
func (r *LightVolumePassResult) Dimensions() uint32 { return r.dims }
func (r *LightVolumePassResult) Config() *gpu.Buffer {
	return r.config
}

// Channels returns the R, G and B textures of cascade.
func (r *LightVolumePassResult) Channels(cascade int) [3]*gpu.Texture {
	checkCascade(cascade, len(r.channels))
	return r.channels[cascade]
}

// Textures returns every texture, cascade-major.
func (r *LightVolumePassResult) Textures() []*gpu.Texture {
	out := make([]*gpu.Texture, 0, 3*len(r.channels))
	for _, v := range r.channels {
		out = append(out, v[:]...)
	}
	return out
}

// Created reports whether every texture and the config UBO are GPU-created.
func (r *LightVolumePassResult) Created() bool {
	if !r.config.Created() {
		return false
	}
	for _, t := range r.Textures() {
		if !t.Created() {
			return false
		}
	}
	return true
}

// Create allocates the textures and the config UBO. Already created resources are kept.
//
// Parameters:
//   - device: the device to allocate on
//
// Returns:
//   - error: error if an allocation fails
func (r *LightVolumePassResult) Create(device gpu.Device) error {
	for _, t := range r.Textures() {
		if err := t.Create(device); err != nil {
			r.Destroy()
			return err
		}
	}
	if err := r.config.Create(device); err != nil {
		r.Destroy()
		return err
	}
	return nil
}

// Destroy frees every GPU resource.
func (r *LightVolumePassResult) Destroy() {
	for _, t := range r.Textures() {
		t.Destroy()
	}
	r.config.Destroy()
}

// ResetRegion empties the region accumulated by the engines.
func (r *LightVolumePassResult) ResetRegion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.region = common.EmptyAABB()
}

// ExpandRegion grows the region to include box. Safe for concurrent engine updates.
func (r *LightVolumePassResult) ExpandRegion(box common.AABB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.region = r.region.Union(box)
}

// Region returns the accumulated region.
func (r *LightVolumePassResult) Region() common.AABB {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.region
}

// UpdateGrids recomputes the grids from the accumulated region clipped to the scene
// bounds. When the clipped region is empty the unclipped one is used.
//
// Parameters:
//   - sceneBounds: the scene bounds, may be empty
//   - eye: the camera position
//   - dir: the normalized camera direction
//
// Returns:
//   - []Grid: the new grids, finest first
func (r *LightVolumePassResult) UpdateGrids(sceneBounds common.AABB, eye, dir mgl32.Vec3) []Grid {
	r.mu.Lock()
	defer r.mu.Unlock()
	region := r.region
	switch {
	case region.IsEmpty():
		region = sceneBounds
	case !sceneBounds.IsEmpty():
		if clipped := region.Intersection(sceneBounds); !clipped.IsEmpty() {
			region = clipped
		}
	}
	r.grids = ComputeGrids(region, eye, dir, r.dims, len(r.channels))
	return append([]Grid(nil), r.grids...)
}

// Grids returns the grids computed by the last UpdateGrids.
func (r *LightVolumePassResult) Grids() []Grid {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Grid(nil), r.grids...)
}

// GPUConfig returns the uniform contents describing the current grids.
func (r *LightVolumePassResult) GPUConfig() GPUGridConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg := GPUGridConfig{CascadeCount: uint32(len(r.channels)), Steps: MaxPropagationSteps}
	for i, g := range r.grids {
		cfg.Grids[i] = g.ToGPU()
	}
	return cfg
}

// UpdateGPU uploads the grid config UBO.
//
// Parameters:
//   - u: the per-frame GPU state
//
// Returns:
//   - error: error if the upload fails
func (r *LightVolumePassResult) UpdateGPU(u *scene.GpuUpdater) error {
	cfg := r.GPUConfig()
	return u.WriteBuffer(r.config, cfg.Marshal())
}

// Bindings returns the config UBO at base followed by R, G and B of every cascade.
//
// Parameters:
//   - base: the binding of the config UBO
//
// Returns:
//   - []gpu.Binding: the bindings in consumer order
func (r *LightVolumePassResult) Bindings(base uint32) []gpu.Binding {
	bindings := []gpu.Binding{gpu.BufferBinding(base, r.config)}
	index := base + 1
	for _, t := range r.Textures() {
		bindings = append(bindings, gpu.TextureBinding(index, t))
		index++
	}
	return bindings
}
