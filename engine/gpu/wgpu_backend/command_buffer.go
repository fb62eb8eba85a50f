package wgpu_backend

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// encodeOp replays one recorded command onto an encoder.
type encodeOp func(enc *wgpu.CommandEncoder) error

// commandBuffer keeps recorded commands as replayable encode operations.
// Bind groups are built on the first encode and reused by every later replay.
type commandBuffer struct {
	d        *device
	label    string
	ops      []encodeOp
	groups   []*cachedBindGroup
	pass     string
	finished bool
}

// cachedBindGroup holds the group-0 bind group of one recorded command.
type cachedBindGroup struct {
	layout *wgpu.BindGroupLayout
	group  *wgpu.BindGroup
	built  bool
}

// get returns the cached bind group, calling build only when nothing was built yet.
func (b *cachedBindGroup) get(build func() (*wgpu.BindGroupLayout, *wgpu.BindGroup, error)) (*wgpu.BindGroup, error) {
	if b.built {
		return b.group, nil
	}
	layout, group, err := build()
	if err != nil {
		if layout != nil {
			layout.Release()
		}
		return nil, err
	}
	b.layout, b.group, b.built = layout, group, true
	return group, nil
}

func (b *cachedBindGroup) release() {
	if b.group != nil {
		b.group.Release()
	}
	if b.layout != nil {
		b.layout.Release()
	}
	b.layout, b.group, b.built = nil, nil, false
}

// newBindGroupSlot registers a cache slot for the command being recorded.
func (c *commandBuffer) newBindGroupSlot() *cachedBindGroup {
	slot := &cachedBindGroup{}
	c.groups = append(c.groups, slot)
	return slot
}

var _ gpu.CommandBuffer = &commandBuffer{}

func (c *commandBuffer) Label() string { return c.label }

func (c *commandBuffer) BeginPass(name string) {
	c.pass = name
}

func (c *commandBuffer) EndPass() {
	c.pass = ""
}

func (c *commandBuffer) ClearTexture(t *gpu.Texture, value [4]float32) {
	pass := c.pass
	slot := c.newBindGroupSlot()
	c.ops = append(c.ops, func(enc *wgpu.CommandEncoder) error {
		native, err := nativeOf(t)
		if err != nil {
			return err
		}
		desc := t.Desc()
		switch {
		case desc.Dimension == gpu.Dimension3D:
			return c.encodeDispatch(enc, slot, pass, ClearVolumeProgram, volumeGroups(desc), []gpu.Binding{gpu.TextureBinding(0, t)})
		case desc.Format == gpu.FormatDepth32Float:
			for layer := 0; layer < int(desc.Layers); layer++ {
				view, err := native.layerView(layerOrAll(desc, layer))
				if err != nil {
					return err
				}
				rp := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
					DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
						View:            view,
						DepthLoadOp:     wgpu.LoadOpClear,
						DepthStoreOp:    wgpu.StoreOpStore,
						DepthClearValue: value[0],
					},
				})
				rp.End()
			}
		default:
			for layer := 0; layer < int(desc.Layers); layer++ {
				view, err := native.layerView(layerOrAll(desc, layer))
				if err != nil {
					return err
				}
				rp := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
					ColorAttachments: []wgpu.RenderPassColorAttachment{
						{
							View:    view,
							LoadOp:  wgpu.LoadOpClear,
							StoreOp: wgpu.StoreOpStore,
							ClearValue: wgpu.Color{
								R: float64(value[0]),
								G: float64(value[1]),
								B: float64(value[2]),
								A: float64(value[3]),
							},
						},
					},
				})
				rp.End()
			}
		}
		return nil
	})
}

func (c *commandBuffer) Dispatch(program string, groups [3]uint32, bindings []gpu.Binding) {
	pass := c.pass
	slot := c.newBindGroupSlot()
	c.ops = append(c.ops, func(enc *wgpu.CommandEncoder) error {
		return c.encodeDispatch(enc, slot, pass, program, groups, bindings)
	})
}

func (c *commandBuffer) Draw(program string, vertexCount, instanceCount uint32, targets []gpu.Attachment, bindings []gpu.Binding) {
	pass := c.pass
	slot := c.newBindGroupSlot()
	c.ops = append(c.ops, func(enc *wgpu.CommandEncoder) error {
		desc := &wgpu.RenderPassDescriptor{Label: pass}
		for _, target := range targets {
			native, err := nativeOf(target.Texture)
			if err != nil {
				return err
			}
			view, err := native.layerView(target.Layer)
			if err != nil {
				return err
			}
			loadOp := wgpu.LoadOpLoad
			if target.Clear {
				loadOp = wgpu.LoadOpClear
			}
			if target.Texture.Desc().Format == gpu.FormatDepth32Float {
				desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
					View:            view,
					DepthLoadOp:     loadOp,
					DepthStoreOp:    wgpu.StoreOpStore,
					DepthClearValue: target.ClearValue[0],
				}
				continue
			}
			desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
				View:    view,
				LoadOp:  loadOp,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(target.ClearValue[0]),
					G: float64(target.ClearValue[1]),
					B: float64(target.ClearValue[2]),
					A: float64(target.ClearValue[3]),
				},
			})
		}

		if vertexCount == 0 {
			rp := enc.BeginRenderPass(desc)
			rp.End()
			return nil
		}

		p, ok := c.d.Program(program)
		if !ok || p.Render == nil {
			c.logMissing(pass, program)
			return nil
		}
		bindGroup, err := slot.get(func() (*wgpu.BindGroupLayout, *wgpu.BindGroup, error) {
			return c.bindGroup(p.Render.GetBindGroupLayout, pass, bindings)
		})
		if err != nil {
			return err
		}
		rp := enc.BeginRenderPass(desc)
		rp.SetPipeline(p.Render)
		if bindGroup != nil {
			rp.SetBindGroup(0, bindGroup, nil)
		}
		rp.Draw(vertexCount, instanceCount, 0, 0)
		rp.End()
		return nil
	})
}

func (c *commandBuffer) CopyTexture(src, dst *gpu.Texture) {
	c.ops = append(c.ops, func(enc *wgpu.CommandEncoder) error {
		s, err := nativeOf(src)
		if err != nil {
			return err
		}
		d, err := nativeOf(dst)
		if err != nil {
			return err
		}
		desc := src.Desc()
		depth := desc.Layers
		if desc.Dimension == gpu.Dimension3D {
			depth = desc.Depth
		}
		enc.CopyTextureToTexture(
			&wgpu.ImageCopyTexture{Texture: s.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.ImageCopyTexture{Texture: d.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: depth},
		)
		return nil
	})
}

func (c *commandBuffer) Finish() error {
	c.finished = true
	return nil
}

// Release drops the recording and the bind groups built for it.
func (c *commandBuffer) Release() {
	for _, slot := range c.groups {
		slot.release()
	}
	c.groups = nil
	c.ops = nil
}

func (c *commandBuffer) encodeDispatch(enc *wgpu.CommandEncoder, slot *cachedBindGroup, pass, program string, groups [3]uint32, bindings []gpu.Binding) error {
	p, ok := c.d.Program(program)
	if !ok || p.Compute == nil {
		c.logMissing(pass, program)
		return nil
	}
	bindGroup, err := slot.get(func() (*wgpu.BindGroupLayout, *wgpu.BindGroup, error) {
		return c.bindGroup(p.Compute.GetBindGroupLayout, pass, bindings)
	})
	if err != nil {
		return err
	}
	cp := enc.BeginComputePass(nil)
	cp.SetPipeline(p.Compute)
	if bindGroup != nil {
		cp.SetBindGroup(0, bindGroup, nil)
	}
	cp.DispatchWorkgroups(groups[0], groups[1], groups[2])
	cp.End()
	return nil
}

// bindGroup builds the group-0 bind group for one command. The returned layout is owned
// by the caller and must be released with the group.
func (c *commandBuffer) bindGroup(layoutOf func(uint32) *wgpu.BindGroupLayout, pass string, bindings []gpu.Binding) (*wgpu.BindGroupLayout, *wgpu.BindGroup, error) {
	if len(bindings) == 0 {
		return nil, nil, nil
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(bindings))
	for _, b := range bindings {
		switch {
		case b.Texture != nil:
			native, err := nativeOf(b.Texture)
			if err != nil {
				return nil, nil, err
			}
			view, err := native.layerView(b.Layer)
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: b.Index, TextureView: view})
		case b.Buffer != nil:
			native, ok := b.Buffer.Native().(*nativeBuffer)
			if !ok || native == nil {
				return nil, nil, fmt.Errorf("%w: %s", gpu.ErrBufferNotCreated, b.Buffer.Name())
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: b.Index,
				Buffer:  native.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			})
		}
	}
	layout := layoutOf(0)
	group, err := c.d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   pass + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return layout, nil, err
	}
	return layout, group, nil
}

func (c *commandBuffer) logMissing(pass, program string) {
	if c.d.verbose {
		log.Printf("[WGPU] %s: program %q not registered, command skipped", pass, program)
	}
}

func nativeOf(t *gpu.Texture) (*nativeTexture, error) {
	native, ok := t.Native().(*nativeTexture)
	if !ok || native == nil {
		return nil, fmt.Errorf("%w: %s", gpu.ErrTextureNotCreated, t.Name())
	}
	return native, nil
}

// layerOrAll returns -1 (the default view) for single-layer textures.
func layerOrAll(desc gpu.TextureDesc, layer int) int {
	if desc.Layers <= 1 {
		return -1
	}
	return layer
}

// volumeGroups returns the workgroup count covering a volume with 4x4x4 groups.
func volumeGroups(desc gpu.TextureDesc) [3]uint32 {
	return [3]uint32{(desc.Width + 3) / 4, (desc.Height + 3) / 4, (desc.Depth + 3) / 4}
}
