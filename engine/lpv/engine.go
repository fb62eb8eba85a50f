package lpv

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/Carmen-Shannon/oxy-gi/engine/shadow"
)

// Engine injects and propagates the lights of one type into a radiance volume.
type Engine interface {
	// LightType returns the light type served.
	//
	// Returns:
	//   - light.LightType: the light type
	LightType() light.LightType

	// GIType returns the GI variant implemented by the engine.
	//
	// Returns:
	//   - light.GIType: one of the four volume GI types
	GIType() light.GIType

	// RegisterLight adds l to this frame's contribution. Registering a light twice in
	// the same frame is a no-op.
	//
	// Parameters:
	//   - l: the light to register
	RegisterLight(l light.Light)

	// BeginFrame clears the registered-this-frame marks.
	BeginFrame()

	// UpdateCPU prunes lights not registered since BeginFrame, expands the result's
	// region with the influence of the remaining lights and recomputes their injection
	// configs.
	//
	// Parameters:
	//   - u: the per-frame CPU state
	UpdateCPU(u *scene.CpuUpdater)

	// UpdateGPU uploads the injection configs. Engines that are not ready skip it.
	//
	// Parameters:
	//   - u: the per-frame GPU state
	//
	// Returns:
	//   - error: error if an upload fails
	UpdateGPU(u *scene.GpuUpdater) error

	// Initialise builds and compiles the engine graph for the registered lights.
	// Calling Initialise on a ready engine is a no-op.
	//
	// Parameters:
	//   - device: the device to compile on
	//
	// Returns:
	//   - error: error if compilation or the initial upload fails
	Initialise(device gpu.Device) error

	// Rebuild recompiles the graph of a ready engine for the current registered lights.
	// The engine's volumes are kept; only the passes and injection UBOs are redeclared.
	//
	// Parameters:
	//   - device: the device to compile on
	//
	// Returns:
	//   - error: error if compilation or the initial upload fails
	Rebuild(device gpu.Device) error

	// Cleanup destroys the compiled graph and the engine's volumes, and returns to
	// StateUninitialised.
	Cleanup()

	// Render submits the engine graph. Rendering an engine that is not ready panics.
	//
	// Parameters:
	//   - waits: the waits produced by the previous submission
	//   - queue: the queue to submit to
	//
	// Returns:
	//   - gpu.SemaphoreWaits: the waits the next consumer must use
	//   - error: error if recording or submission fails
	Render(waits gpu.SemaphoreWaits, queue gpu.Queue) (gpu.SemaphoreWaits, error)

	// State returns the lifecycle state.
	State() State

	// NeedsInitialise reports whether a ready engine's graph no longer matches the
	// registered lights and must be rebuilt.
	NeedsInitialise() bool

	// RegisteredLights returns the registered lights in registration order.
	RegisteredLights() []light.Light

	// Registered reports whether l is registered.
	Registered(l light.Light) bool

	// InjectionPassCount returns the number of injection passes of the compiled graph.
	InjectionPassCount() int

	// PropagationPlan returns, per cascade and step, the volumes each propagation pass
	// reads and writes. It is empty before Initialise.
	PropagationPlan() [][]PropagationStep

	// Graph returns the compiled graph, or nil when not ready.
	Graph() *framegraph.RunnableGraph

	// Result returns the shared result the engine accumulates into.
	Result() *LightVolumePassResult

	// Occlusion returns the geometry volumes per cascade, or nil for plain variants.
	Occlusion() []*gpu.Texture
}

// engineImpl is the implementation of the Engine interface for both the single and
// the layered variants.
type engineImpl struct {
	mu sync.Mutex

	lightType light.LightType
	geometry  bool
	layered   bool
	dims      uint32
	shadow    *shadow.ShadowPassResult
	faces     uint32
	result    *LightVolumePassResult
	logger    common.Logger

	state  State
	lights map[light.Light]*lightLpv
	order  []light.Light
	built  []light.Light

	volumes   engineVolumes
	runnable  *framegraph.RunnableGraph
	occlusion []*gpu.Texture
	plan      [][]PropagationStep
	injection int
}

var _ Engine = &engineImpl{}

// NewLightPropagationVolumes creates a single-cascade engine.
//
// Parameters:
//   - lightType: the light type served
//   - geometry: true to inject and sample geometry occlusion
//   - shadowResult: the RSM texture set of the light type's shadow map
//   - result: the single-cascade result to accumulate into
//   - options: functional options
//
// Returns:
//   - Engine: the uninitialised engine
func NewLightPropagationVolumes(lightType light.LightType, geometry bool, shadowResult *shadow.ShadowPassResult, result *LightVolumePassResult, options ...EngineBuilderOption) Engine {
	if result.Cascades() != 1 {
		panic(fmt.Sprintf("lpv: single-cascade engine needs a 1-cascade result, got %d", result.Cascades()))
	}
	return newEngine(lightType, geometry, false, shadowResult, result, options...)
}

// NewLayeredLightPropagationVolumes creates a layered engine over MaxCascadesCount grids.
//
// Parameters:
//   - lightType: the light type served
//   - geometry: true to inject and sample geometry occlusion
//   - shadowResult: the RSM texture set of the light type's shadow map
//   - result: the layered result to accumulate into
//   - options: functional options
//
// Returns:
//   - Engine: the uninitialised engine
func NewLayeredLightPropagationVolumes(lightType light.LightType, geometry bool, shadowResult *shadow.ShadowPassResult, result *LightVolumePassResult, options ...EngineBuilderOption) Engine {
	if result.Cascades() != MaxCascadesCount {
		panic(fmt.Sprintf("lpv: layered engine needs a %d-cascade result, got %d", MaxCascadesCount, result.Cascades()))
	}
	return newEngine(lightType, geometry, true, shadowResult, result, options...)
}

func newEngine(lightType light.LightType, geometry, layered bool, shadowResult *shadow.ShadowPassResult, result *LightVolumePassResult, options ...EngineBuilderOption) *engineImpl {
	e := &engineImpl{
		lightType: lightType,
		geometry:  geometry,
		layered:   layered,
		dims:      result.Dimensions(),
		shadow:    shadowResult,
		faces:     light.ShadowFaces(lightType),
		result:    result,
		logger:    common.NewNopLogger(),
		lights:    make(map[light.Light]*lightLpv),
	}
	for _, opt := range options {
		opt(e)
	}
	e.volumes = e.declareVolumes()
	return e
}

func (e *engineImpl) LightType() light.LightType {
	return e.lightType
}

func (e *engineImpl) GIType() light.GIType {
	switch {
	case e.layered && e.geometry:
		return light.GILayeredLightPropagationVolumesGeometry
	case e.layered:
		return light.GILayeredLightPropagationVolumes
	case e.geometry:
		return light.GILightPropagationVolumesGeometry
	}
	return light.GILightPropagationVolumes
}

func (e *engineImpl) Result() *LightVolumePassResult {
	return e.result
}

func (e *engineImpl) cascades() int {
	return e.result.Cascades()
}

func (e *engineImpl) name() string {
	prefix := "lpv"
	if e.layered {
		prefix = "llpv"
	}
	if e.geometry {
		prefix += "-geometry"
	}
	return fmt.Sprintf("%s-%s", prefix, e.lightType)
}

func (e *engineImpl) RegisterLight(l light.Light) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.lights[l]; ok {
		st.registered = true
		return
	}
	e.lights[l] = newLightLpv(l, e.cascades())
	e.order = append(e.order, l)
}

func (e *engineImpl) BeginFrame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, st := range e.lights {
		st.registered = false
	}
}

func (e *engineImpl) UpdateCPU(u *scene.CpuUpdater) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.order[:0]
	for _, l := range e.order {
		if e.lights[l].registered {
			kept = append(kept, l)
			continue
		}
		delete(e.lights, l)
		e.logger.Debugf("%s: pruned %s", e.name(), l)
	}
	clear(e.order[len(kept):])
	e.order = kept

	sceneBounds := common.EmptyAABB()
	if u.Scene != nil {
		sceneBounds = u.Scene.Bounds()
	}
	rsmSize := e.downsampledSize()
	for _, l := range e.order {
		if l.Type() == light.LightTypeDirectional {
			e.result.ExpandRegion(sceneBounds)
		} else {
			e.result.ExpandRegion(l.WorldBoundingBox())
		}
		e.lights[l].update(e.faces, rsmSize, e.geometry)
	}
}

func (e *engineImpl) UpdateGPU(u *scene.GpuUpdater) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return nil
	}
	return e.uploadLocked(u)
}

func (e *engineImpl) uploadLocked(u *scene.GpuUpdater) error {
	for _, l := range e.built {
		st, ok := e.lights[l]
		if !ok {
			continue
		}
		if err := st.upload(u); err != nil {
			return fmt.Errorf("failed to upload %s injection config: %w", e.name(), err)
		}
	}
	return nil
}

func (e *engineImpl) Initialise(device gpu.Device) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateReady {
		return nil
	}
	return e.initialiseLocked(device)
}

func (e *engineImpl) Rebuild(device gpu.Device) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyGraphLocked()
	return e.initialiseLocked(device)
}

func (e *engineImpl) initialiseLocked(device gpu.Device) error {
	e.state = StateInitialising
	if err := e.volumes.create(device); err != nil {
		e.destroyGraphLocked()
		return fmt.Errorf("failed to initialise %s: %w", e.name(), err)
	}

	graph := e.buildGraph()
	runnable, err := graph.Compile(device)
	if err != nil {
		e.destroyGraphLocked()
		return fmt.Errorf("failed to initialise %s: %w", e.name(), err)
	}
	e.runnable = runnable
	e.built = append([]light.Light(nil), e.order...)
	e.state = StateReady

	if err := e.uploadLocked(&scene.GpuUpdater{Queue: device.Queue()}); err != nil {
		return err
	}
	e.logger.Debugf("initialised %s: %d lights, %d injection passes, %d passes", e.name(), len(e.built), e.injection, len(graph.Passes()))
	return nil
}

func (e *engineImpl) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyGraphLocked()
	e.volumes.destroy()
}

func (e *engineImpl) destroyGraphLocked() {
	if e.runnable != nil {
		e.runnable.Destroy()
		e.runnable = nil
	}
	for _, st := range e.lights {
		st.reset()
	}
	e.built = nil
	e.occlusion = nil
	e.plan = nil
	e.injection = 0
	e.state = StateUninitialised
}

func (e *engineImpl) Render(waits gpu.SemaphoreWaits, queue gpu.Queue) (gpu.SemaphoreWaits, error) {
	e.mu.Lock()
	if e.state != StateReady {
		e.mu.Unlock()
		panic(fmt.Sprintf("lpv: Render on %s engine in state %s", e.name(), e.state))
	}
	runnable := e.runnable
	e.mu.Unlock()
	return runnable.Run(waits, queue)
}

func (e *engineImpl) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *engineImpl) NeedsInitialise() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateReady && !slices.Equal(e.order, e.built)
}

func (e *engineImpl) RegisteredLights() []light.Light {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]light.Light(nil), e.order...)
}

func (e *engineImpl) Registered(l light.Light) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.lights[l]
	return ok
}

func (e *engineImpl) InjectionPassCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.injection
}

func (e *engineImpl) PropagationPlan() [][]PropagationStep {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]PropagationStep, len(e.plan))
	for c := range e.plan {
		out[c] = append([]PropagationStep(nil), e.plan[c]...)
	}
	return out
}

func (e *engineImpl) Graph() *framegraph.RunnableGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runnable
}

func (e *engineImpl) Occlusion() []*gpu.Texture {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*gpu.Texture(nil), e.occlusion...)
}

func (e *engineImpl) hasLights() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order) > 0
}

// downsampledSize returns the width of the downsampled RSM layers.
func (e *engineImpl) downsampledSize() uint32 {
	return max(e.shadow.Flux.Desc().Width/4, 1)
}
