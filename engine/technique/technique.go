// Package technique orchestrates one frame: shadow maps, light selection, the LPV
// engines, optional environment capture and voxel cone tracing, and the main graph
// of opaque and transparent stages. Subsystems are chained through semaphore wait
// arrays, each Render consuming the waits the previous one returned.
package technique

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/camera"
	"github.com/Carmen-Shannon/oxy-gi/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/lpv"
	"github.com/Carmen-Shannon/oxy-gi/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/Carmen-Shannon/oxy-gi/engine/shadow"
)

// RenderTechnique owns every graph that produces a frame and drives them in order.
// CPU updates, GPU updates and submissions are expected from a single thread.
type RenderTechnique interface {
	// RegisterRenderPass adds a custom pass set at an insertion point of the main graph.
	// Registrations must happen before Initialise.
	//
	// Parameters:
	//   - info: the registration
	RegisterRenderPass(info framegraph.RenderPassRegisterInfo)

	// Initialise creates the shadow maps, the technique buffers and every graph, and
	// compiles them.
	//
	// Returns:
	//   - error: error if a resource or graph could not be created
	Initialise() error

	// Initialised reports whether Initialise succeeded and Cleanup was not called since.
	Initialised() bool

	// UpdateCPU refreshes camera state, reselects shadow casters per light type,
	// registers them with their GI engines and updates the engines and volume grids.
	// It is skipped while no scene or camera is set.
	//
	// Parameters:
	//   - u: the frame's CPU updater
	UpdateCPU(u *scene.CpuUpdater)

	// UpdateGPU uploads shadow, LPV, camera, light and counter data.
	//
	// Parameters:
	//   - u: the frame's GPU updater
	//
	// Returns:
	//   - error: error if an upload fails
	UpdateGPU(u *scene.GpuUpdater) error

	// PreRender initialises pending LPV engines, then submits shadow maps, the LPV clear,
	// the LPV engines, environment capture and voxel cone tracing, chaining the waits.
	//
	// Parameters:
	//   - waits: the waits the first submission must honour
	//   - queue: the submission queue
	//
	// Returns:
	//   - gpu.SemaphoreWaits: the waits the main graph must honour
	//   - error: error if initialisation or a submission fails
	PreRender(waits gpu.SemaphoreWaits, queue gpu.Queue) (gpu.SemaphoreWaits, error)

	// Render submits the main graph.
	//
	// Parameters:
	//   - waits: the waits returned by PreRender
	//   - queue: the submission queue
	//
	// Returns:
	//   - gpu.SemaphoreWaits: the waits of the main graph's output
	//   - error: error if the submission fails
	Render(waits gpu.SemaphoreWaits, queue gpu.Queue) (gpu.SemaphoreWaits, error)

	// Cleanup destroys every graph, engine, volume, shadow map and buffer.
	Cleanup()

	// Config returns the technique configuration.
	Config() Config

	// Scene returns the scene being rendered, or nil.
	Scene() scene.Scene

	// SetScene replaces the scene being rendered.
	SetScene(s scene.Scene)

	// Camera returns the camera, or nil.
	Camera() camera.Camera

	// SetCamera replaces the camera.
	SetCamera(c camera.Camera)

	// ShadowMap returns the shadow map of t, or nil when its capacity is zero.
	ShadowMap(t light.LightType) shadow.ShadowMap

	// ActiveShadowMap returns the casters selected for t by the last CPU update.
	ActiveShadowMap(t light.LightType) ActiveShadowMap

	// Engine returns the LPV engine for (t, gi), or nil if none was created yet.
	Engine(t light.LightType, gi light.GIType) lpv.Engine

	// Engines returns every created LPV engine in render order.
	Engines() []lpv.Engine

	// LpvResult returns the shared single-cascade volume.
	LpvResult() *lpv.LightVolumePassResult

	// LlpvResult returns the shared layered volume, or nil when layered LPV is unsupported.
	LlpvResult() *lpv.LightVolumePassResult

	// Graph returns the compiled main graph, or nil before Initialise.
	Graph() *framegraph.RunnableGraph

	// ColorTarget returns the main graph's HDR colour target, or nil before Initialise.
	ColorTarget() *gpu.Texture

	// DepthTarget returns the main graph's depth target, or nil before Initialise.
	DepthTarget() *gpu.Texture

	// InvalidateEnvironment schedules an environment capture on the next PreRender.
	InvalidateEnvironment()

	// Counters returns the counters computed by the last CPU update.
	Counters() GPUTechniqueCounters

	// Profiler returns the frame profiler ticked by Render.
	Profiler() *profiler.Profiler
}

type renderTechnique struct {
	mu sync.Mutex

	device        gpu.Device
	scene         scene.Scene
	camera        camera.Camera
	config        Config
	logger        common.Logger
	registry      *framegraph.PassRegistry
	sceneRecorder SceneRecorder
	profiler      *profiler.Profiler
	pool          worker.DynamicWorkerPool

	shadowMaps [light.LightTypeCount]shadow.ShadowMap
	activeMu   sync.Mutex
	active     [light.LightTypeCount]ActiveShadowMap

	enginesMu  sync.Mutex
	engines    map[engineKey]lpv.Engine
	dispatch   giDispatch
	lpvResult  *lpv.LightVolumePassResult
	llpvResult *lpv.LightVolumePassResult

	cameraUBO  *gpu.Buffer
	lights     *gpu.Buffer
	counters   *gpu.Buffer
	transforms *gpu.Buffer

	targets          stageTargets
	environmentCube  *gpu.Texture
	environmentDirty atomic.Bool
	voxels           *gpu.Texture

	main        *framegraph.RunnableGraph
	lpvClear    *framegraph.RunnableGraph
	environment *framegraph.RunnableGraph
	vct         *framegraph.RunnableGraph

	frame       uint64
	lightData   []byte
	counterData GPUTechniqueCounters
	initialised bool
}

var _ RenderTechnique = &renderTechnique{}

// NewRenderTechnique creates an uninitialised technique.
//
// Parameters:
//   - device: the device every resource is created on
//   - s: the scene to render, may be nil until SetScene
//   - cam: the camera, may be nil until SetCamera
//   - options: functional options
//
// Returns:
//   - RenderTechnique: the new technique
func NewRenderTechnique(device gpu.Device, s scene.Scene, cam camera.Camera, options ...RenderTechniqueBuilderOption) RenderTechnique {
	if device == nil {
		panic("technique: NewRenderTechnique requires a device")
	}
	r := &renderTechnique{
		device:        device,
		scene:         s,
		camera:        cam,
		config:        DefaultConfig(),
		logger:        common.NewNopLogger(),
		registry:      framegraph.NewPassRegistry(),
		sceneRecorder: clearOnlyRecorder{},
		engines:       make(map[engineKey]lpv.Engine),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.profiler == nil {
		r.profiler = profiler.NewProfiler(profiler.WithQuiet())
	}

	for _, t := range light.LightTypes {
		count := r.config.ShadowCount(t)
		if count == 0 {
			continue
		}
		r.shadowMaps[t] = shadow.NewShadowMap(t,
			shadow.WithCount(count),
			shadow.WithResolution(r.config.ShadowMaps.Resolution),
			shadow.WithLogger(r.logger),
		)
		r.active[t] = ActiveShadowMap{ShadowMap: r.shadowMaps[t]}
	}
	r.lpvResult = lpv.NewLightVolumePassResult("lpv", 1, r.config.LpvGridSize)
	if r.config.LayeredLpvSupported {
		r.llpvResult = lpv.NewLightVolumePassResult("llpv", lpv.MaxCascadesCount, r.config.LpvGridSize)
	}
	r.dispatch = r.buildDispatch()

	r.cameraUBO = gpu.NewBuffer("camera", gpu.BufferDesc{
		Size:  uint64((&camera.GPUCameraUniform{}).Size()),
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageTransferDst,
	})
	r.lights = gpu.NewBuffer("lights", gpu.BufferDesc{
		Size:  uint64((&light.GPULightHeader{}).Size() + light.MaxGPULights*(&light.GPULight{}).Size()),
		Usage: gpu.BufferUsageStorage | gpu.BufferUsageTransferDst,
	})
	r.counters = gpu.NewBuffer("counters", gpu.BufferDesc{
		Size:  uint64((&GPUTechniqueCounters{}).Size()),
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageTransferDst,
	})
	r.transforms = gpu.NewBuffer("transforms", gpu.BufferDesc{
		Size:  transformBufferSize,
		Usage: gpu.BufferUsageStorage,
	})
	return r
}

func (r *renderTechnique) RegisterRenderPass(info framegraph.RenderPassRegisterInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialised {
		panic(fmt.Sprintf("technique: render pass %q registered after Initialise", info.Name))
	}
	r.registry.Register(info)
}

func (r *renderTechnique) Initialise() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialised {
		return nil
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	for _, t := range light.LightTypes {
		if sm := r.shadowMaps[t]; sm != nil {
			if err := sm.Initialise(r.device); err != nil {
				r.cleanupLocked()
				return fmt.Errorf("failed to initialise technique: %w", err)
			}
		}
	}
	for _, b := range []*gpu.Buffer{r.cameraUBO, r.lights, r.counters, r.transforms} {
		if err := b.Create(r.device); err != nil {
			r.cleanupLocked()
			return fmt.Errorf("failed to initialise technique: %w", err)
		}
	}

	r.environmentDirty.Store(true)
	graphs := []struct {
		target **framegraph.RunnableGraph
		build  func() *framegraph.FrameGraph
		enable bool
	}{
		{&r.lpvClear, r.buildLpvClear, true},
		{&r.environment, r.buildEnvironment, r.config.EnvironmentMap},
		{&r.vct, r.buildVoxelConeTracing, r.config.VoxelConeTracing},
		{&r.main, r.buildMainGraph, true},
	}
	for _, gr := range graphs {
		if !gr.enable {
			continue
		}
		runnable, err := gr.build().Compile(r.device)
		if err != nil {
			r.cleanupLocked()
			return fmt.Errorf("failed to initialise technique: %w", err)
		}
		*gr.target = runnable
	}

	r.pool = worker.NewDynamicWorkerPool(r.config.Workers, 256, 1*time.Second)
	r.initialised = true
	r.logger.Infof("[Technique] initialised %dx%d: deferred=%v visibility=%v ssao=%v wboit=%v vct=%v layered-lpv=%v, %d main passes",
		r.config.Width, r.config.Height, r.config.Deferred, r.config.VisibilityBuffer, r.config.SSAO,
		r.config.WeightedBlendOIT, r.config.VoxelConeTracing, r.config.LayeredLpvSupported, len(r.main.Graph().Passes()))
	return nil
}

func (r *renderTechnique) Initialised() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialised
}

func (r *renderTechnique) UpdateCPU(u *scene.CpuUpdater) {
	r.mu.Lock()
	s, cam := r.scene, r.camera
	r.mu.Unlock()
	if s == nil || cam == nil {
		return
	}

	cu := *u
	cu.Scene, cu.Camera = s, cam
	r.frame = cu.Frame
	cam.Update()

	for _, sm := range r.shadowMaps {
		if sm != nil {
			sm.BeginFrame()
		}
	}
	for _, e := range r.Engines() {
		e.BeginFrame()
	}
	results := r.results()
	for _, res := range results {
		res.ResetRegion()
	}

	for _, t := range light.LightTypes {
		r.prepareLights(t, &cu)
	}

	r.updateEngines(r.Engines(), &cu)
	for _, res := range results {
		res.UpdateGrids(s.Bounds(), cam.Position(), cam.Direction())
	}

	all := s.Lights().All()
	ambient := s.AmbientColor()
	r.lightData = light.MarshalLightBuffer(all, [3]float32(ambient))
	r.counterData = r.computeCounters(all)
}

// updateEngines runs every engine's CPU update, fanned out over the worker pool.
// Engines only touch their own state and the mutex-guarded shared volume region.
func (r *renderTechnique) updateEngines(engines []lpv.Engine, u *scene.CpuUpdater) {
	if r.pool == nil || len(engines) < 2 {
		for _, e := range engines {
			e.UpdateCPU(u)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(engines))
	for i, e := range engines {
		r.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				e.UpdateCPU(u)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (r *renderTechnique) computeCounters(all []light.Light) GPUTechniqueCounters {
	c := GPUTechniqueCounters{
		Frame:  uint32(r.frame),
		Width:  r.config.Width,
		Height: r.config.Height,
	}
	for _, l := range all {
		if l.Enabled() {
			c.LightCount++
		}
	}
	c.LightCount = min(c.LightCount, light.MaxGPULights)

	r.activeMu.Lock()
	for t := range r.active {
		c.ShadowCasters[t] = uint32(len(r.active[t].Casters))
	}
	r.activeMu.Unlock()

	if r.lpvResult.Created() {
		c.GIFlags |= GIFlagLpv
	}
	if r.llpvResult != nil && r.llpvResult.Created() {
		c.GIFlags |= GIFlagLayeredLpv
	}
	if r.config.VoxelConeTracing {
		c.GIFlags |= GIFlagVoxelConeTracing
	}
	if r.config.SSAO {
		c.GIFlags |= GIFlagSSAO
	}
	return c
}

func (r *renderTechnique) UpdateGPU(u *scene.GpuUpdater) error {
	for _, sm := range r.shadowMaps {
		if sm == nil {
			continue
		}
		if err := sm.UpdateGPU(u); err != nil {
			return err
		}
	}
	for _, e := range r.Engines() {
		if err := e.UpdateGPU(u); err != nil {
			return err
		}
	}
	for _, res := range r.results() {
		if err := res.UpdateGPU(u); err != nil {
			return fmt.Errorf("failed to upload %s grid config: %w", res.Name(), err)
		}
	}

	if cam := r.Camera(); cam != nil {
		uniform := camera.NewGPUCameraUniform(cam)
		if err := u.WriteBuffer(r.cameraUBO, uniform.Marshal()); err != nil {
			return fmt.Errorf("failed to upload camera: %w", err)
		}
	}
	if r.lightData != nil {
		if err := u.WriteBuffer(r.lights, r.lightData); err != nil {
			return fmt.Errorf("failed to upload lights: %w", err)
		}
	}
	if err := u.WriteBuffer(r.counters, r.counterData.Marshal()); err != nil {
		return fmt.Errorf("failed to upload technique counters: %w", err)
	}
	return nil
}

func (r *renderTechnique) PreRender(waits gpu.SemaphoreWaits, queue gpu.Queue) (gpu.SemaphoreWaits, error) {
	r.checkInitialised("PreRender")
	if err := r.doInitialiseLpv(); err != nil {
		return waits, err
	}
	queue = r.profiler.WrapQueue(queue)

	var err error
	for _, sm := range r.shadowMaps {
		if sm == nil {
			continue
		}
		for _, slot := range sm.ActiveSlots() {
			if waits, err = sm.Render(waits, queue, slot); err != nil {
				return waits, fmt.Errorf("failed to render %s shadow slot %d: %w", sm.LightType(), slot, err)
			}
		}
	}

	if waits, err = r.renderLpv(waits, queue); err != nil {
		return waits, err
	}

	if r.environment != nil {
		if waits, err = r.environment.Run(waits, queue); err != nil {
			return waits, err
		}
		r.environmentDirty.Store(false)
	}
	if r.vct != nil {
		if waits, err = r.vct.Run(waits, queue); err != nil {
			return waits, err
		}
	}
	return waits, nil
}

func (r *renderTechnique) Render(waits gpu.SemaphoreWaits, queue gpu.Queue) (gpu.SemaphoreWaits, error) {
	r.checkInitialised("Render")
	out, err := r.main.Run(waits, r.profiler.WrapQueue(queue))
	r.profiler.Tick()
	return out, err
}

func (r *renderTechnique) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanupLocked()
}

func (r *renderTechnique) cleanupLocked() {
	for _, g := range []**framegraph.RunnableGraph{&r.main, &r.lpvClear, &r.environment, &r.vct} {
		if *g != nil {
			(*g).Destroy()
			*g = nil
		}
	}
	for _, e := range r.Engines() {
		e.Cleanup()
	}
	for _, res := range r.results() {
		res.Destroy()
	}
	for _, sm := range r.shadowMaps {
		if sm != nil {
			sm.Cleanup()
		}
	}
	for _, b := range []*gpu.Buffer{r.cameraUBO, r.lights, r.counters, r.transforms} {
		b.Destroy()
	}
	if r.pool != nil {
		r.pool.Stop()
		r.pool = nil
	}
	r.targets = stageTargets{}
	r.environmentCube = nil
	r.voxels = nil
	if r.initialised {
		r.logger.Infof("[Technique] cleaned up")
	}
	r.initialised = false
}

func (r *renderTechnique) checkInitialised(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialised {
		panic(fmt.Sprintf("technique: %s before Initialise", op))
	}
}

// results returns the shared volumes that exist.
func (r *renderTechnique) results() []*lpv.LightVolumePassResult {
	if r.llpvResult == nil {
		return []*lpv.LightVolumePassResult{r.lpvResult}
	}
	return []*lpv.LightVolumePassResult{r.lpvResult, r.llpvResult}
}

func (r *renderTechnique) Config() Config {
	return r.config
}

func (r *renderTechnique) Scene() scene.Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scene
}

func (r *renderTechnique) SetScene(s scene.Scene) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scene = s
}

func (r *renderTechnique) Camera() camera.Camera {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.camera
}

func (r *renderTechnique) SetCamera(c camera.Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.camera = c
}

func (r *renderTechnique) ShadowMap(t light.LightType) shadow.ShadowMap {
	return r.shadowMaps[t]
}

func (r *renderTechnique) ActiveShadowMap(t light.LightType) ActiveShadowMap {
	r.activeMu.Lock()
	defer r.activeMu.Unlock()
	a := r.active[t]
	a.Casters = append([]ShadowCaster(nil), a.Casters...)
	return a
}

func (r *renderTechnique) LpvResult() *lpv.LightVolumePassResult {
	return r.lpvResult
}

func (r *renderTechnique) LlpvResult() *lpv.LightVolumePassResult {
	return r.llpvResult
}

func (r *renderTechnique) Graph() *framegraph.RunnableGraph {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.main
}

// ColorTarget does not lock: custom pass factories call it while Initialise runs.
func (r *renderTechnique) ColorTarget() *gpu.Texture {
	return r.targets.color
}

// DepthTarget does not lock: custom pass factories call it while Initialise runs.
func (r *renderTechnique) DepthTarget() *gpu.Texture {
	return r.targets.depth
}

func (r *renderTechnique) InvalidateEnvironment() {
	r.environmentDirty.Store(true)
}

func (r *renderTechnique) Counters() GPUTechniqueCounters {
	return r.counterData
}

func (r *renderTechnique) Profiler() *profiler.Profiler {
	return r.profiler
}
