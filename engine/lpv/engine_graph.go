package lpv

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gi/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/google/uuid"
)

// PropagationStep is one propagation pass of the plan: the volume it reads and the
// volume it writes, as R, G and B texture IDs.
type PropagationStep struct {
	Pass        string
	Cascade     int
	Step        int
	Source      [3]uuid.UUID
	Destination [3]uuid.UUID
}

// volume is the R, G and B textures of one propagation buffer.
type volume [3]*gpu.Texture

func (v volume) ids() [3]uuid.UUID {
	return [3]uuid.UUID{v[0].ID(), v[1].ID(), v[2].ID()}
}

func (v volume) views(access framegraph.AccessMode) []framegraph.View {
	return []framegraph.View{
		framegraph.TextureView(v[0], access),
		framegraph.TextureView(v[1], access),
		framegraph.TextureView(v[2], access),
	}
}

func (v volume) bindings(base uint32) []gpu.Binding {
	return []gpu.Binding{
		gpu.TextureBinding(base, v[0]),
		gpu.TextureBinding(base+1, v[1]),
		gpu.TextureBinding(base+2, v[2]),
	}
}

// engineVolumes are the textures an engine owns across rebuilds. They are imported by
// every graph the engine compiles and freed only by Cleanup.
type engineVolumes struct {
	propagate   [][2]volume
	occlusion   []*gpu.Texture
	downsampled []*gpu.Texture
}

// textures returns every owned texture.
func (v *engineVolumes) textures() []*gpu.Texture {
	var out []*gpu.Texture
	for _, buffers := range v.propagate {
		for _, b := range buffers {
			out = append(out, b[:]...)
		}
	}
	out = append(out, v.occlusion...)
	return append(out, v.downsampled...)
}

func (v *engineVolumes) create(device gpu.Device) error {
	for _, t := range v.textures() {
		if err := t.Create(device); err != nil {
			return err
		}
	}
	return nil
}

func (v *engineVolumes) destroy() {
	for _, t := range v.textures() {
		t.Destroy()
	}
}

// declareVolumes declares the propagation, occlusion and downsampled RSM textures.
func (e *engineImpl) declareVolumes() engineVolumes {
	cascades := e.cascades()
	res := engineVolumes{propagate: make([][2]volume, cascades)}

	volumeUsage := gpu.UsageStorage | gpu.UsageSampled | gpu.UsageTransferDst
	for c := 0; c < cascades; c++ {
		for i := range res.propagate[c] {
			res.propagate[c][i] = e.declareVolume(fmt.Sprintf("propagate-%d-%d", c, i), volumeUsage)
		}
		if e.geometry {
			res.occlusion = append(res.occlusion, gpu.NewTexture(fmt.Sprintf("%s/occlusion-%d", e.name(), c), gpu.TextureDesc{
				Format:    gpu.FormatRGBA16Float,
				Dimension: gpu.Dimension3D,
				Width:     e.dims,
				Height:    e.dims,
				Depth:     e.dims,
				Usage:     volumeUsage,
			}))
		}
	}

	size := e.downsampledSize()
	layers := e.shadow.Flux.Desc().Layers
	for _, name := range []string{"normal", "position", "flux"} {
		res.downsampled = append(res.downsampled, gpu.NewTexture(e.name()+"/downsampled-"+name, gpu.TextureDesc{
			Format: gpu.FormatRGBA16Float,
			Width:  size,
			Height: size,
			Layers: layers,
			Usage:  gpu.UsageStorage | gpu.UsageSampled,
		}))
	}
	return res
}

// buildGraph declares, in order: clear, downsample, per registered light (geometry
// injection when enabled, then light injection) for every cascade, then the
// propagation grid in step-major order.
//
// Injection writes propagate[c][0]. Step k of cascade c reads propagate[c][k%2] and
// writes propagate[c][(k+1)%2]. Layered steps also read the coarser cascade's buffer
// of the same parity, so pass (k,c) depends on (k-1,c), (k-1,c+1) and on (k-1,c-1),
// the last reader of the buffer it overwrites. No edge joins passes of one step.
//
// The volumes are the engine's own and only the injection UBOs are graph-owned, so a
// rebuild never reallocates them. Clear and downsample run only while a light is
// registered.
func (e *engineImpl) buildGraph() *framegraph.FrameGraph {
	g := framegraph.NewFrameGraph(e.name(), framegraph.WithLogger(e.logger), framegraph.WithWaitStage(gpu.StageComputeShader))
	cascades := e.cascades()
	res := &e.volumes

	clearPass := e.createClearPass(g, res)
	clearPass.SetEnabled(e.hasLights)
	last := e.createDownsamplePass(g, res)
	last.SetEnabled(e.hasLights)
	last.AddDependency(clearPass)

	e.injection = 0
	for i, l := range e.order {
		st := e.lights[l]
		st.ubos = make([]*gpu.Buffer, cascades)
		for c := 0; c < cascades; c++ {
			st.ubos[c] = g.CreateBuffer(fmt.Sprintf("injection-%d-%d", i, c), gpu.BufferDesc{
				Size:  64,
				Usage: gpu.BufferUsageUniform | gpu.BufferUsageTransferDst,
			})
			if e.geometry {
				p := e.createGeometryInjectionPass(g, res, i, c, st.ubos[c])
				p.AddDependency(last)
				last = p
				e.injection++
			}
			p := e.createLightInjectionPass(g, res, i, c, st.ubos[c])
			p.AddDependency(last)
			last = p
			e.injection++
		}
	}

	e.plan = make([][]PropagationStep, cascades)
	steps := make([][]*framegraph.FramePass, MaxPropagationSteps)
	for k := 0; k < MaxPropagationSteps; k++ {
		steps[k] = make([]*framegraph.FramePass, cascades)
		for c := 0; c < cascades; c++ {
			p := e.createPropagationPass(g, res, k, c)
			if k == 0 {
				p.AddDependency(last)
			} else {
				p.AddDependency(steps[k-1][c])
				if c+1 < cascades {
					p.AddDependency(steps[k-1][c+1])
				}
				if c > 0 {
					p.AddDependency(steps[k-1][c-1])
				}
			}
			steps[k][c] = p
			e.plan[c] = append(e.plan[c], PropagationStep{
				Pass:        p.Name(),
				Cascade:     c,
				Step:        k,
				Source:      res.propagate[c][k%2].ids(),
				Destination: res.propagate[c][(k+1)%2].ids(),
			})
		}
	}

	e.occlusion = res.occlusion
	return g
}

func (e *engineImpl) declareVolume(name string, usage gpu.TextureUsage) volume {
	var v volume
	for i, channel := range []string{"r", "g", "b"} {
		v[i] = gpu.NewTexture(e.name()+"/"+name+"-"+channel, gpu.TextureDesc{
			Format:    gpu.FormatRGBA16Float,
			Dimension: gpu.Dimension3D,
			Width:     e.dims,
			Height:    e.dims,
			Depth:     e.dims,
			Usage:     usage,
		})
	}
	return v
}

func (e *engineImpl) createClearPass(g *framegraph.FrameGraph, res *engineVolumes) *framegraph.FramePass {
	var targets []*gpu.Texture
	for _, buffers := range res.propagate {
		for _, v := range buffers {
			targets = append(targets, v[:]...)
		}
	}
	targets = append(targets, res.occlusion...)

	views := make([]framegraph.View, 0, len(targets))
	for _, t := range targets {
		views = append(views, framegraph.TextureView(t, framegraph.AccessTransferDst))
	}
	return g.CreatePass("clear", func(rec gpu.Recorder) {
		for _, t := range targets {
			rec.ClearTexture(t, [4]float32{})
		}
	}, views...)
}

func (e *engineImpl) createDownsamplePass(g *framegraph.FrameGraph, res *engineVolumes) *framegraph.FramePass {
	var views []framegraph.View
	var bindings []gpu.Binding
	for i, t := range e.shadow.Textures() {
		views = append(views, framegraph.Sampled(t))
		bindings = append(bindings, gpu.TextureBinding(uint32(i), t))
	}
	for i, t := range res.downsampled {
		views = append(views, framegraph.Output(t))
		bindings = append(bindings, gpu.TextureBinding(uint32(4+i), t))
	}
	desc := res.downsampled[0].Desc()
	groups := [3]uint32{(desc.Width + 7) / 8, (desc.Height + 7) / 8, desc.Layers}
	return g.CreatePass("downsample", func(rec gpu.Recorder) {
		rec.Dispatch(ProgramDownsample, groups, bindings)
	}, views...)
}

func (e *engineImpl) injectionInputs(res *engineVolumes, ubo *gpu.Buffer) ([]framegraph.View, []gpu.Binding) {
	views := []framegraph.View{
		framegraph.BufferView(ubo, framegraph.AccessUniform),
		framegraph.BufferView(e.result.Config(), framegraph.AccessUniform),
	}
	bindings := []gpu.Binding{
		gpu.BufferBinding(0, ubo),
		gpu.BufferBinding(1, e.result.Config()),
	}
	for i, t := range res.downsampled {
		views = append(views, framegraph.Sampled(t))
		bindings = append(bindings, gpu.TextureBinding(uint32(2+i), t))
	}
	return views, bindings
}

func (e *engineImpl) injectionGroups(res *engineVolumes) [3]uint32 {
	desc := res.downsampled[0].Desc()
	return [3]uint32{(desc.Width + 7) / 8, (desc.Height + 7) / 8, e.faces}
}

func (e *engineImpl) createGeometryInjectionPass(g *framegraph.FrameGraph, res *engineVolumes, light, cascade int, ubo *gpu.Buffer) *framegraph.FramePass {
	views, bindings := e.injectionInputs(res, ubo)
	occlusion := res.occlusion[cascade]
	views = append(views, framegraph.Storage(occlusion))
	bindings = append(bindings, gpu.TextureBinding(5, occlusion))
	groups := e.injectionGroups(res)
	return g.CreatePass(fmt.Sprintf("geometry-injection-%d-%d", light, cascade), func(rec gpu.Recorder) {
		rec.Dispatch(ProgramGeometryInjection, groups, bindings)
	}, views...)
}

func (e *engineImpl) createLightInjectionPass(g *framegraph.FrameGraph, res *engineVolumes, light, cascade int, ubo *gpu.Buffer) *framegraph.FramePass {
	views, bindings := e.injectionInputs(res, ubo)
	target := res.propagate[cascade][0]
	views = append(views, target.views(framegraph.AccessStorage)...)
	bindings = append(bindings, target.bindings(5)...)
	groups := e.injectionGroups(res)
	return g.CreatePass(fmt.Sprintf("light-injection-%d-%d", light, cascade), func(rec gpu.Recorder) {
		rec.Dispatch(ProgramLightInjection, groups, bindings)
	}, views...)
}

func (e *engineImpl) createPropagationPass(g *framegraph.FrameGraph, res *engineVolumes, step, cascade int) *framegraph.FramePass {
	src := res.propagate[cascade][step%2]
	dst := res.propagate[cascade][(step+1)%2]
	accum := volume(e.result.Channels(cascade))

	views := []framegraph.View{framegraph.BufferView(e.result.Config(), framegraph.AccessUniform)}
	views = append(views, src.views(framegraph.AccessSampled)...)
	views = append(views, dst.views(framegraph.AccessStorage)...)
	views = append(views, accum.views(framegraph.AccessStorage)...)

	bindings := []gpu.Binding{gpu.BufferBinding(0, e.result.Config())}
	bindings = append(bindings, src.bindings(1)...)
	bindings = append(bindings, dst.bindings(4)...)
	bindings = append(bindings, accum.bindings(7)...)

	program := ProgramPropagation
	if e.layered {
		program = ProgramLayeredPropagation
		if cascade+1 < len(res.propagate) {
			coarser := res.propagate[cascade+1][step%2]
			views = append(views, coarser.views(framegraph.AccessSampled)...)
			bindings = append(bindings, coarser.bindings(10)...)
		}
	}
	if e.geometry && step > 0 {
		views = append(views, framegraph.Sampled(res.occlusion[cascade]))
		bindings = append(bindings, gpu.TextureBinding(13, res.occlusion[cascade]))
	}

	groups := [3]uint32{(e.dims + 3) / 4, (e.dims + 3) / 4, (e.dims + 3) / 4}
	p := g.CreatePass(fmt.Sprintf("propagation-%d-%d", step, cascade), func(rec gpu.Recorder) {
		rec.Dispatch(program, groups, bindings)
	}, views...)
	p.SetEnabled(e.hasLights)
	return p
}
