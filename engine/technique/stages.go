package technique

import (
	"math/bits"

	"github.com/Carmen-Shannon/oxy-gi/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/lpv"
)

// Program names of the built-in stages.
const (
	ProgramVertexTransform       = "vertex_transform"
	ProgramDepthPrepass          = "depth_prepass"
	ProgramVisibility            = "visibility"
	ProgramBackground            = "background"
	ProgramGBuffer               = "gbuffer"
	ProgramVisibilityResolve     = "visibility_resolve"
	ProgramForwardOpaque         = "forward_opaque"
	ProgramSSAO                  = "ssao"
	ProgramLighting              = "lighting"
	ProgramIndirectLpv           = "indirect_lpv"
	ProgramIndirectLlpv          = "indirect_llpv"
	ProgramIndirectVct           = "indirect_vct"
	ProgramWboitAccumulate       = "wboit_accumulate"
	ProgramWboitResolve          = "wboit_resolve"
	ProgramForwardTransparent    = "forward_transparent"
	ProgramEnvironmentCapture    = "environment_capture"
	ProgramEnvironmentIrradiance = "environment_irradiance"
	ProgramVoxelize              = "vct_voxelize"
	ProgramVoxelMipmap           = "vct_mipmap"
)

// Binding points of the technique-wide resources. They start above the GI result
// bindings (lpv.LpvGridConfigBinding, lpv.LlpvGridConfigBinding and their volumes).
const (
	CameraBinding uint32 = 16 + iota
	LightsBinding
	CountersBinding
	TransformsBinding
	DepthBinding
	NormalBinding
	AlbedoBinding
	MaterialBinding
	VisibilityBinding
	OcclusionBinding
	ColorBinding
	EnvironmentBinding
	VoxelBinding
	AccumBinding
	RevealageBinding
	// ShadowBindingBase + light type binds that type's shadow depth array.
	ShadowBindingBase
)

const (
	transformBufferSize = 1 << 16
	environmentSize     = 128
	irradianceSize      = 32
	fullScreenVertices  = 3
)

var (
	clearBlack = [4]float32{}
	clearFar   = [4]float32{1, 0, 0, 0}
	clearWhite = [4]float32{1, 1, 1, 1}
)

// SceneRecorder records the scene geometry work of the built-in stages.
type SceneRecorder interface {
	// Transform records the vertex transform compute work.
	//
	// Parameters:
	//   - rec: the recorder of the vertex-transform pass
	//   - program: the compute program
	//   - bindings: camera and transform buffer bindings
	Transform(rec gpu.Recorder, program string, bindings []gpu.Binding)

	// Draw records the geometry draws of one pass. Targets carry the pass clears;
	// the first draw should keep them.
	//
	// Parameters:
	//   - rec: the recorder of the pass
	//   - program: the graphics program
	//   - targets: the pass attachments
	//   - bindings: the pass bindings
	Draw(rec gpu.Recorder, program string, targets []gpu.Attachment, bindings []gpu.Binding)
}

// clearOnlyRecorder draws no geometry. Geometry passes still apply their clears.
type clearOnlyRecorder struct{}

func (clearOnlyRecorder) Transform(gpu.Recorder, string, []gpu.Binding) {}

func (clearOnlyRecorder) Draw(rec gpu.Recorder, program string, targets []gpu.Attachment, bindings []gpu.Binding) {
	rec.Draw(program, 0, 0, targets, bindings)
}

// stageTargets are the main graph's own textures.
type stageTargets struct {
	depth      *gpu.Texture
	visibility *gpu.Texture
	albedo     *gpu.Texture
	normal     *gpu.Texture
	material   *gpu.Texture
	occlusion  *gpu.Texture
	color      *gpu.Texture
	accum      *gpu.Texture
	revealage  *gpu.Texture
}

func (r *renderTechnique) createTargets(g *framegraph.FrameGraph) stageTargets {
	cfg := r.config
	target := func(name string, format gpu.TextureFormat, usage gpu.TextureUsage) *gpu.Texture {
		return g.CreateTexture(name, gpu.TextureDesc{
			Format: format,
			Width:  cfg.Width,
			Height: cfg.Height,
			Usage:  usage | gpu.UsageSampled,
		})
	}
	t := stageTargets{
		depth: target("depth", gpu.FormatDepth32Float, gpu.UsageDepthAttachment),
		color: target("color", gpu.FormatRGBA16Float, gpu.UsageColorAttachment|gpu.UsageStorage),
	}
	if cfg.VisibilityBuffer {
		t.visibility = target("visibility", gpu.FormatR32Uint, gpu.UsageColorAttachment)
	}
	if r.gbuffer() {
		t.albedo = target("gbuffer-albedo", gpu.FormatRGBA8Unorm, gpu.UsageColorAttachment)
		t.normal = target("gbuffer-normal", gpu.FormatRGBA16Float, gpu.UsageColorAttachment)
		t.material = target("gbuffer-material", gpu.FormatRGBA8Unorm, gpu.UsageColorAttachment)
	}
	if cfg.SSAO {
		t.occlusion = target("ssao", gpu.FormatR16Float, gpu.UsageColorAttachment)
	}
	if cfg.WeightedBlendOIT {
		t.accum = target("wboit-accum", gpu.FormatRGBA16Float, gpu.UsageColorAttachment)
		t.revealage = target("wboit-revealage", gpu.FormatR16Float, gpu.UsageColorAttachment)
	}
	return t
}

// gbuffer reports whether opaque geometry is resolved through a G-buffer.
func (r *renderTechnique) gbuffer() bool {
	return r.config.Deferred || r.config.VisibilityBuffer
}

// buildMainGraph declares the main graph: vertex transform, prepass, background,
// opaque and transparent stages with the custom pass insertion points between them.
func (r *renderTechnique) buildMainGraph() *framegraph.FrameGraph {
	g := framegraph.NewFrameGraph("technique", framegraph.WithLogger(r.logger))
	r.targets = r.createTargets(g)

	frontier := r.createVertexTransform(g)
	frontier = r.registry.CreatePasses(g, framegraph.BeforeDepth, frontier)
	frontier = r.createPrepass(g, frontier)
	frontier = r.registry.CreatePasses(g, framegraph.BeforeBackground, frontier)
	frontier = r.createBackground(g, frontier)
	frontier = r.registry.CreatePasses(g, framegraph.BeforeOpaque, frontier)
	frontier = r.createOpaque(g, frontier)
	frontier = r.registry.CreatePasses(g, framegraph.BeforeTransparent, frontier)
	frontier = r.createTransparent(g, frontier)
	r.registry.CreatePasses(g, framegraph.BeforePostEffects, frontier)
	return g
}

// chain creates a pass depending on the whole frontier and returns the frontier it forms.
func chain(g *framegraph.FrameGraph, frontier framegraph.Frontier, name string, record framegraph.RecordFunc, views ...framegraph.View) (*framegraph.FramePass, framegraph.Frontier) {
	p := g.CreatePass(name, record, views...)
	frontier.DependOn(p)
	return p, framegraph.NewFrontier(p)
}

func (r *renderTechnique) createVertexTransform(g *framegraph.FrameGraph) framegraph.Frontier {
	bindings := []gpu.Binding{
		gpu.BufferBinding(CameraBinding, r.cameraUBO),
		gpu.BufferBinding(TransformsBinding, r.transforms),
	}
	_, frontier := chain(g, framegraph.Frontier{}, "vertex-transform", func(rec gpu.Recorder) {
		r.sceneRecorder.Transform(rec, ProgramVertexTransform, bindings)
	}, framegraph.Uniform(r.cameraUBO), framegraph.BufferView(r.transforms, framegraph.AccessStorage))
	return frontier
}

func (r *renderTechnique) createPrepass(g *framegraph.FrameGraph, frontier framegraph.Frontier) framegraph.Frontier {
	t := r.targets
	bindings := []gpu.Binding{
		gpu.BufferBinding(CameraBinding, r.cameraUBO),
		gpu.BufferBinding(TransformsBinding, r.transforms),
	}
	depth := gpu.Attachment{Texture: t.depth, Layer: -1, Clear: true, ClearValue: clearFar}
	views := []framegraph.View{
		framegraph.Uniform(r.cameraUBO),
		framegraph.BufferView(r.transforms, framegraph.AccessStorage),
		framegraph.Output(t.depth),
	}

	if r.config.VisibilityBuffer {
		targets := []gpu.Attachment{gpu.ClearedLayer(t.visibility, -1, clearBlack), depth}
		_, frontier = chain(g, frontier, "visibility", func(rec gpu.Recorder) {
			r.sceneRecorder.Draw(rec, ProgramVisibility, targets, bindings)
		}, append(views, framegraph.Output(t.visibility))...)
		return frontier
	}
	_, frontier = chain(g, frontier, "depth-prepass", func(rec gpu.Recorder) {
		r.sceneRecorder.Draw(rec, ProgramDepthPrepass, []gpu.Attachment{depth}, bindings)
	}, views...)
	return frontier
}

func (r *renderTechnique) createBackground(g *framegraph.FrameGraph, frontier framegraph.Frontier) framegraph.Frontier {
	t := r.targets
	bindings := []gpu.Binding{
		gpu.BufferBinding(CameraBinding, r.cameraUBO),
		gpu.TextureBinding(DepthBinding, t.depth),
	}
	views := []framegraph.View{
		framegraph.Uniform(r.cameraUBO),
		framegraph.Sampled(t.depth),
		framegraph.Output(t.color),
	}
	if r.environmentCube != nil {
		bindings = append(bindings, gpu.TextureBinding(EnvironmentBinding, r.environmentCube))
		views = append(views, framegraph.Sampled(r.environmentCube))
	}
	targets := []gpu.Attachment{gpu.ClearedLayer(t.color, -1, clearBlack)}
	_, frontier = chain(g, frontier, "background", func(rec gpu.Recorder) {
		rec.Draw(ProgramBackground, fullScreenVertices, 1, targets, bindings)
	}, views...)
	return frontier
}

// shadowInputs returns the bindings and views of every shadow depth array.
func (r *renderTechnique) shadowInputs() ([]gpu.Binding, []framegraph.View) {
	var bindings []gpu.Binding
	var views []framegraph.View
	for _, lt := range light.LightTypes {
		sm := r.shadowMaps[lt]
		if sm == nil {
			continue
		}
		depth := sm.ShadowPassResult().Depth
		bindings = append(bindings, gpu.TextureBinding(ShadowBindingBase+uint32(lt), depth))
		views = append(views, framegraph.Sampled(depth))
	}
	return bindings, views
}

// sceneInputs returns the camera, light and counter buffer bindings and views.
func (r *renderTechnique) sceneInputs() ([]gpu.Binding, []framegraph.View) {
	return []gpu.Binding{
			gpu.BufferBinding(CameraBinding, r.cameraUBO),
			gpu.BufferBinding(LightsBinding, r.lights),
			gpu.BufferBinding(CountersBinding, r.counters),
		}, []framegraph.View{
			framegraph.Uniform(r.cameraUBO),
			framegraph.Uniform(r.lights),
			framegraph.Uniform(r.counters),
		}
}

// surfaceInputs returns the bindings and views of the depth and, when present,
// G-buffer normal targets.
func (r *renderTechnique) surfaceInputs() ([]gpu.Binding, []framegraph.View) {
	t := r.targets
	bindings := []gpu.Binding{gpu.TextureBinding(DepthBinding, t.depth)}
	views := []framegraph.View{framegraph.Sampled(t.depth)}
	if t.normal != nil {
		bindings = append(bindings, gpu.TextureBinding(NormalBinding, t.normal))
		views = append(views, framegraph.Sampled(t.normal))
	}
	return bindings, views
}

func (r *renderTechnique) createOpaque(g *framegraph.FrameGraph, frontier framegraph.Frontier) framegraph.Frontier {
	t := r.targets
	sceneBindings, sceneViews := r.sceneInputs()
	shadowBindings, shadowViews := r.shadowInputs()

	switch {
	case r.config.VisibilityBuffer:
		targets := r.gbufferTargets()
		bindings := []gpu.Binding{
			gpu.BufferBinding(CameraBinding, r.cameraUBO),
			gpu.BufferBinding(TransformsBinding, r.transforms),
			gpu.TextureBinding(VisibilityBinding, t.visibility),
			gpu.TextureBinding(DepthBinding, t.depth),
		}
		_, frontier = chain(g, frontier, "visibility-resolve", func(rec gpu.Recorder) {
			rec.Draw(ProgramVisibilityResolve, fullScreenVertices, 1, targets, bindings)
		},
			framegraph.Uniform(r.cameraUBO),
			framegraph.BufferView(r.transforms, framegraph.AccessStorage),
			framegraph.Sampled(t.visibility),
			framegraph.Sampled(t.depth),
			framegraph.Output(t.albedo),
			framegraph.Output(t.normal),
			framegraph.Output(t.material),
		)
	case r.config.Deferred:
		targets := append(r.gbufferTargets(), gpu.Target(t.depth))
		bindings := []gpu.Binding{
			gpu.BufferBinding(CameraBinding, r.cameraUBO),
			gpu.BufferBinding(TransformsBinding, r.transforms),
		}
		_, frontier = chain(g, frontier, "gbuffer", func(rec gpu.Recorder) {
			r.sceneRecorder.Draw(rec, ProgramGBuffer, targets, bindings)
		},
			framegraph.Uniform(r.cameraUBO),
			framegraph.BufferView(r.transforms, framegraph.AccessStorage),
			framegraph.Output(t.depth),
			framegraph.Output(t.albedo),
			framegraph.Output(t.normal),
			framegraph.Output(t.material),
		)
	default:
		targets := []gpu.Attachment{gpu.Target(t.color), gpu.Target(t.depth)}
		bindings := append(append([]gpu.Binding{gpu.BufferBinding(TransformsBinding, r.transforms)}, sceneBindings...), shadowBindings...)
		views := append(append([]framegraph.View{
			framegraph.BufferView(r.transforms, framegraph.AccessStorage),
			framegraph.Output(t.color),
			framegraph.Output(t.depth),
		}, sceneViews...), shadowViews...)
		_, frontier = chain(g, frontier, "forward-opaque", func(rec gpu.Recorder) {
			r.sceneRecorder.Draw(rec, ProgramForwardOpaque, targets, bindings)
		}, views...)
	}

	if r.config.SSAO {
		surfaceBindings, surfaceViews := r.surfaceInputs()
		bindings := append([]gpu.Binding{gpu.BufferBinding(CameraBinding, r.cameraUBO)}, surfaceBindings...)
		targets := []gpu.Attachment{gpu.ClearedLayer(t.occlusion, -1, clearWhite)}
		_, frontier = chain(g, frontier, "ssao", func(rec gpu.Recorder) {
			rec.Draw(ProgramSSAO, fullScreenVertices, 1, targets, bindings)
		}, append([]framegraph.View{framegraph.Uniform(r.cameraUBO), framegraph.Output(t.occlusion)}, surfaceViews...)...)
	}

	if r.gbuffer() {
		bindings := append(append([]gpu.Binding{
			gpu.TextureBinding(DepthBinding, t.depth),
			gpu.TextureBinding(AlbedoBinding, t.albedo),
			gpu.TextureBinding(NormalBinding, t.normal),
			gpu.TextureBinding(MaterialBinding, t.material),
		}, sceneBindings...), shadowBindings...)
		views := append(append([]framegraph.View{
			framegraph.Sampled(t.depth),
			framegraph.Sampled(t.albedo),
			framegraph.Sampled(t.normal),
			framegraph.Sampled(t.material),
			framegraph.Output(t.color),
		}, sceneViews...), shadowViews...)
		if t.occlusion != nil {
			bindings = append(bindings, gpu.TextureBinding(OcclusionBinding, t.occlusion))
			views = append(views, framegraph.Sampled(t.occlusion))
		}
		targets := []gpu.Attachment{gpu.Target(t.color)}
		_, frontier = chain(g, frontier, "lighting", func(rec gpu.Recorder) {
			rec.Draw(ProgramLighting, fullScreenVertices, 1, targets, bindings)
		}, views...)
	}

	frontier = r.createIndirect(g, frontier, "indirect-lpv", ProgramIndirectLpv, r.lpvResult, lpv.LpvGridConfigBinding)
	frontier = r.createIndirect(g, frontier, "indirect-llpv", ProgramIndirectLlpv, r.llpvResult, lpv.LlpvGridConfigBinding)

	if r.voxels != nil {
		surfaceBindings, surfaceViews := r.surfaceInputs()
		bindings := append([]gpu.Binding{
			gpu.BufferBinding(CameraBinding, r.cameraUBO),
			gpu.TextureBinding(VoxelBinding, r.voxels),
		}, surfaceBindings...)
		targets := []gpu.Attachment{gpu.Target(t.color)}
		_, frontier = chain(g, frontier, "indirect-vct", func(rec gpu.Recorder) {
			rec.Draw(ProgramIndirectVct, fullScreenVertices, 1, targets, bindings)
		}, append([]framegraph.View{
			framegraph.Uniform(r.cameraUBO),
			framegraph.Sampled(r.voxels),
			framegraph.Output(t.color),
		}, surfaceViews...)...)
	}
	return frontier
}

func (r *renderTechnique) gbufferTargets() []gpu.Attachment {
	t := r.targets
	return []gpu.Attachment{
		gpu.ClearedLayer(t.albedo, -1, clearBlack),
		gpu.ClearedLayer(t.normal, -1, clearBlack),
		gpu.ClearedLayer(t.material, -1, clearBlack),
	}
}

// createIndirect declares a pass compositing one GI volume into the colour target.
// The volume is only sampled; the pass is disabled until the volume exists on the GPU.
func (r *renderTechnique) createIndirect(g *framegraph.FrameGraph, frontier framegraph.Frontier, name, program string, result *lpv.LightVolumePassResult, base uint32) framegraph.Frontier {
	if result == nil {
		return frontier
	}
	t := r.targets
	surfaceBindings, surfaceViews := r.surfaceInputs()
	bindings := append(append(result.Bindings(base), gpu.BufferBinding(CameraBinding, r.cameraUBO)), surfaceBindings...)
	views := []framegraph.View{
		framegraph.Uniform(result.Config()),
		framegraph.Uniform(r.cameraUBO),
		framegraph.Output(t.color),
	}
	for _, tex := range result.Textures() {
		views = append(views, framegraph.Sampled(tex))
	}
	views = append(views, surfaceViews...)
	targets := []gpu.Attachment{gpu.Target(t.color)}

	p, next := chain(g, frontier, name, func(rec gpu.Recorder) {
		rec.Draw(program, fullScreenVertices, 1, targets, bindings)
	}, views...)
	p.SetEnabled(result.Created)
	return next
}

func (r *renderTechnique) createTransparent(g *framegraph.FrameGraph, frontier framegraph.Frontier) framegraph.Frontier {
	t := r.targets
	sceneBindings, sceneViews := r.sceneInputs()
	shadowBindings, shadowViews := r.shadowInputs()
	bindings := append(append([]gpu.Binding{
		gpu.BufferBinding(TransformsBinding, r.transforms),
		gpu.TextureBinding(DepthBinding, t.depth),
	}, sceneBindings...), shadowBindings...)
	views := append(append([]framegraph.View{
		framegraph.BufferView(r.transforms, framegraph.AccessStorage),
		framegraph.Sampled(t.depth),
	}, sceneViews...), shadowViews...)

	if !r.config.WeightedBlendOIT {
		targets := []gpu.Attachment{gpu.Target(t.color)}
		_, frontier = chain(g, frontier, "forward-transparent", func(rec gpu.Recorder) {
			r.sceneRecorder.Draw(rec, ProgramForwardTransparent, targets, bindings)
		}, append(views, framegraph.Output(t.color))...)
		return frontier
	}

	accumTargets := []gpu.Attachment{
		gpu.ClearedLayer(t.accum, -1, clearBlack),
		gpu.ClearedLayer(t.revealage, -1, clearWhite),
	}
	_, frontier = chain(g, frontier, "wboit-accumulate", func(rec gpu.Recorder) {
		r.sceneRecorder.Draw(rec, ProgramWboitAccumulate, accumTargets, bindings)
	}, append(views, framegraph.Output(t.accum), framegraph.Output(t.revealage))...)

	resolveBindings := []gpu.Binding{
		gpu.TextureBinding(AccumBinding, t.accum),
		gpu.TextureBinding(RevealageBinding, t.revealage),
	}
	resolveTargets := []gpu.Attachment{gpu.Target(t.color)}
	_, frontier = chain(g, frontier, "wboit-resolve", func(rec gpu.Recorder) {
		rec.Draw(ProgramWboitResolve, fullScreenVertices, 1, resolveTargets, resolveBindings)
	}, framegraph.Sampled(t.accum), framegraph.Sampled(t.revealage), framegraph.Output(t.color))
	return frontier
}

// buildEnvironment declares the environment capture graph. Its passes are enabled
// while the capture is marked dirty.
func (r *renderTechnique) buildEnvironment() *framegraph.FrameGraph {
	g := framegraph.NewFrameGraph("environment", framegraph.WithLogger(r.logger))
	r.environmentCube = g.CreateTexture("environment", gpu.TextureDesc{
		Format: gpu.FormatRGBA16Float,
		Width:  environmentSize,
		Height: environmentSize,
		Layers: 6,
		Usage:  gpu.UsageColorAttachment | gpu.UsageSampled,
	})
	irradiance := g.CreateTexture("irradiance", gpu.TextureDesc{
		Format: gpu.FormatRGBA16Float,
		Width:  irradianceSize,
		Height: irradianceSize,
		Layers: 6,
		Usage:  gpu.UsageStorage | gpu.UsageSampled,
	})
	cube := r.environmentCube
	bindings := []gpu.Binding{gpu.BufferBinding(CameraBinding, r.cameraUBO)}

	capture := g.CreatePass("environment-capture", func(rec gpu.Recorder) {
		for face := 0; face < 6; face++ {
			rec.Draw(ProgramEnvironmentCapture, fullScreenVertices, 1, []gpu.Attachment{gpu.ClearedLayer(cube, face, clearBlack)}, bindings)
		}
	}, framegraph.Uniform(r.cameraUBO), framegraph.Output(cube)).SetEnabled(r.environmentDirty.Load)

	convolve := g.CreatePass("environment-irradiance", func(rec gpu.Recorder) {
		rec.Dispatch(ProgramEnvironmentIrradiance, [3]uint32{irradianceSize / 8, irradianceSize / 8, 6}, []gpu.Binding{
			gpu.TextureBinding(0, cube),
			gpu.TextureBinding(1, irradiance),
		})
	}, framegraph.Sampled(cube), framegraph.Storage(irradiance)).SetEnabled(r.environmentDirty.Load)
	convolve.AddDependency(capture)
	return g
}

// buildVoxelConeTracing declares the voxelisation graph run before the main graph.
func (r *renderTechnique) buildVoxelConeTracing() *framegraph.FrameGraph {
	g := framegraph.NewFrameGraph("vct", framegraph.WithLogger(r.logger), framegraph.WithWaitStage(gpu.StageComputeShader))
	size := r.config.VoxelGridSize
	r.voxels = g.CreateTexture("voxels", gpu.TextureDesc{
		Format:    gpu.FormatRGBA16Float,
		Dimension: gpu.Dimension3D,
		Width:     size,
		Height:    size,
		Depth:     size,
		MipLevels: uint32(bits.Len32(size)),
		Usage:     gpu.UsageStorage | gpu.UsageSampled | gpu.UsageTransferDst,
	})
	voxels := r.voxels
	groups := [3]uint32{max(size/4, 1), max(size/4, 1), max(size/4, 1)}

	clearPass := g.CreatePass("voxel-clear", func(rec gpu.Recorder) {
		rec.ClearTexture(voxels, clearBlack)
	}, framegraph.TextureView(voxels, framegraph.AccessTransferDst))

	voxelize := g.CreatePass("voxelize", func(rec gpu.Recorder) {
		rec.Dispatch(ProgramVoxelize, groups, []gpu.Binding{
			gpu.TextureBinding(VoxelBinding, voxels),
			gpu.BufferBinding(CameraBinding, r.cameraUBO),
			gpu.BufferBinding(LightsBinding, r.lights),
			gpu.BufferBinding(TransformsBinding, r.transforms),
		})
	},
		framegraph.Storage(voxels),
		framegraph.Uniform(r.cameraUBO),
		framegraph.Uniform(r.lights),
		framegraph.BufferView(r.transforms, framegraph.AccessStorage),
	)
	voxelize.AddDependency(clearPass)

	mipmap := g.CreatePass("voxel-mipmap", func(rec gpu.Recorder) {
		rec.Dispatch(ProgramVoxelMipmap, groups, []gpu.Binding{gpu.TextureBinding(VoxelBinding, voxels)})
	}, framegraph.Storage(voxels))
	mipmap.AddDependency(voxelize)
	return g
}
