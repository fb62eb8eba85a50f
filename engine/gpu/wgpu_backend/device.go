// Package wgpu_backend implements gpu.Device on top of WebGPU.
//
// WebGPU exposes a single in-order queue, so semaphore waits are not forwarded to the
// API: a submission whose waits were all signalled by earlier submissions is already
// ordered after them. Waits are still validated so that a broken chain surfaces as an
// error instead of silently reordering work.
package wgpu_backend

import (
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// ClearVolumeProgram is the compute program used to clear volume textures, which cannot
// be bound as render attachments.
const ClearVolumeProgram = "clear_volume"

// device is the implementation of the gpu.Device interface.
type device struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	programs map[string]Program
	verbose  bool
}

// Device is a gpu.Device backed by a WebGPU device.
type Device interface {
	gpu.Device

	// Native returns the underlying WebGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the WebGPU device
	Native() *wgpu.Device

	// RegisterProgram caches a compiled program under its name. Programs are produced
	// outside this package (shader generation is an external collaborator).
	//
	// Parameters:
	//   - p: the program to cache
	RegisterProgram(p Program)

	// Program returns the cached program for name, if any.
	//
	// Parameters:
	//   - name: the program name
	//
	// Returns:
	//   - Program: the cached program
	//   - bool: true if found
	Program(name string) (Program, bool)

	// Release frees the device, adapter and instance.
	Release()
}

// Program is a compiled pipeline artifact. Exactly one of Compute or Render is set.
type Program struct {
	Name    string
	Compute *wgpu.ComputePipeline
	Render  *wgpu.RenderPipeline
}

var _ Device = &device{}

// NewDevice requests an adapter and device. surfaceDescriptor may be nil for headless use.
//
// Parameters:
//   - surfaceDescriptor: the platform surface the adapter must be compatible with, or nil
//   - opts: functional options
//
// Returns:
//   - Device: the new device
//   - *wgpu.Surface: the created surface, or nil when surfaceDescriptor is nil
//   - error: error if no adapter or device is available
func NewDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, opts ...DeviceBuilderOption) (Device, *wgpu.Surface, error) {
	runtime.LockOSThread()

	cfg := deviceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &device{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
		programs: make(map[string]Program),
		verbose:  cfg.verbose,
	}

	var surface *wgpu.Surface
	if surfaceDescriptor != nil {
		surface = d.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    surface,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Frame Graph Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	return d, surface, nil
}

func (d *device) Native() *wgpu.Device {
	return d.device
}

func (d *device) RegisterProgram(p Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.programs[p.Name] = p
}

func (d *device) Program(name string) (Program, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[name]
	return p, ok
}

func (d *device) Release() {
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// nativeTexture holds the WebGPU texture and its default view.
type nativeTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	desc    gpu.TextureDesc
	layers  map[int]*wgpu.TextureView
}

func (n *nativeTexture) Release() {
	for _, v := range n.layers {
		v.Release()
	}
	n.layers = nil
	if n.view != nil {
		n.view.Release()
	}
	if n.texture != nil {
		n.texture.Release()
	}
}

// layerView returns a single-layer 2D view, creating it on first use.
func (n *nativeTexture) layerView(layer int) (*wgpu.TextureView, error) {
	if layer < 0 {
		return n.view, nil
	}
	if v, ok := n.layers[layer]; ok {
		return v, nil
	}
	v, err := n.texture.CreateView(&wgpu.TextureViewDescriptor{
		Format:          textureFormat(n.desc.Format),
		Dimension:       wgpu.TextureViewDimension2D,
		BaseMipLevel:    0,
		MipLevelCount:   n.desc.MipLevels,
		BaseArrayLayer:  uint32(layer),
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, err
	}
	n.layers[layer] = v
	return v, nil
}

type nativeBuffer struct {
	buffer *wgpu.Buffer
}

func (n *nativeBuffer) Release() {
	if n.buffer != nil {
		n.buffer.Release()
	}
}

func (d *device) CreateTexture(t *gpu.Texture) (gpu.NativeTexture, error) {
	desc := t.Desc()
	dimension := wgpu.TextureDimension2D
	depth := desc.Layers
	if desc.Dimension == gpu.Dimension3D {
		dimension = wgpu.TextureDimension3D
		depth = desc.Depth
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: t.Name(),
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: depth,
		},
		MipLevelCount: desc.MipLevels,
		SampleCount:   1,
		Dimension:     dimension,
		Format:        textureFormat(desc.Format),
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	if d.verbose {
		log.Printf("[WGPU] created texture %s (%dx%dx%d %s)", t.Name(), desc.Width, desc.Height, depth, desc.Format)
	}
	return &nativeTexture{texture: tex, view: view, desc: desc, layers: make(map[int]*wgpu.TextureView)}, nil
}

func (d *device) CreateBuffer(b *gpu.Buffer) (gpu.NativeBuffer, error) {
	desc := b.Desc()
	var usage wgpu.BufferUsage
	if desc.Usage&gpu.BufferUsageUniform != 0 {
		usage |= wgpu.BufferUsageUniform
	}
	if desc.Usage&gpu.BufferUsageStorage != 0 {
		usage |= wgpu.BufferUsageStorage
	}
	usage |= wgpu.BufferUsageCopyDst

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.Name(),
		Size:  desc.Size,
		Usage: usage,
	})
	if err != nil {
		return nil, err
	}
	return &nativeBuffer{buffer: buf}, nil
}

func (d *device) NewCommandBuffer(label string) (gpu.CommandBuffer, error) {
	return &commandBuffer{d: d, label: label}, nil
}

func (d *device) NewSemaphore(label string) *gpu.Semaphore {
	return gpu.NewSemaphore(label)
}

func (d *device) Queue() gpu.Queue {
	return d
}

// Submit replays the recorded commands onto a fresh encoder and submits it.
// WebGPU command buffers are single-use, so the gpu.CommandBuffer keeps the recording
// and encodes it again for every submission.
func (d *device) Submit(cb gpu.CommandBuffer, waits gpu.SemaphoreWaits, signal *gpu.Semaphore) error {
	if err := waits.Validate(); err != nil {
		return err
	}
	rec, ok := cb.(*commandBuffer)
	if !ok {
		return fmt.Errorf("wgpu: foreign command buffer %T", cb)
	}
	if !rec.finished {
		return fmt.Errorf("wgpu: command buffer %s submitted before Finish", rec.label)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: rec.label})
	if err != nil {
		return fmt.Errorf("failed to create command encoder for %s: %w", rec.label, err)
	}
	for _, op := range rec.ops {
		if err := op(encoder); err != nil {
			encoder.Release()
			return fmt.Errorf("failed to encode %s: %w", rec.label, err)
		}
	}
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return fmt.Errorf("failed to finish %s: %w", rec.label, err)
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	if signal != nil {
		signal.Signal()
	}
	return nil
}

func (d *device) WriteBuffer(b *gpu.Buffer, offset uint64, data []byte) error {
	native, ok := b.Native().(*nativeBuffer)
	if !ok || native == nil {
		return fmt.Errorf("%w: %s", gpu.ErrBufferNotCreated, b.Name())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue.WriteBuffer(native.buffer, offset, data)
	return nil
}

func textureFormat(f gpu.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gpu.FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case gpu.FormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float
	case gpu.FormatRG16Float:
		return wgpu.TextureFormatRG16Float
	case gpu.FormatR16Float:
		return wgpu.TextureFormatR16Float
	case gpu.FormatR32Float:
		return wgpu.TextureFormatR32Float
	case gpu.FormatR32Uint:
		return wgpu.TextureFormatR32Uint
	case gpu.FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	}
	return wgpu.TextureFormatRGBA8Unorm
}

func textureUsage(u gpu.TextureUsage) wgpu.TextureUsage {
	var usage wgpu.TextureUsage
	if u.Has(gpu.UsageSampled) {
		usage |= wgpu.TextureUsageTextureBinding
	}
	if u.Has(gpu.UsageStorage) {
		usage |= wgpu.TextureUsageStorageBinding
	}
	if u.Has(gpu.UsageColorAttachment) || u.Has(gpu.UsageDepthAttachment) {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	if u.Has(gpu.UsageTransferSrc) {
		usage |= wgpu.TextureUsageCopySrc
	}
	if u.Has(gpu.UsageTransferDst) {
		usage |= wgpu.TextureUsageCopyDst
	}
	return usage
}
