// Package shadow renders reflective shadow maps for one light type. Each shadow map
// owns a fixed number of slots; every slot is rendered by its own compiled frame
// graph into a dedicated range of layers of the shared ShadowPassResult textures.
package shadow

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ProgramRSM is the graphics program drawing shadow casters into the RSM targets.
const ProgramRSM = "rsm"

// ShadowDataBinding is the binding index of the per-slot GPUShadowData array.
const ShadowDataBinding = 0

// farDepth clears the depth layer of a slot.
var farDepth = [4]float32{1, 0, 0, 0}

// CasterFunc records the shadow casters of one face of one slot. targets are the
// already-cleared RSM layers of that face; data holds the slot's GPUShadowData array.
type CasterFunc func(rec gpu.Recorder, targets []gpu.Attachment, data *gpu.Buffer, slot, face int)

// ShadowMap renders the reflective shadow maps of every shadow-producing light of one type.
type ShadowMap interface {
	// LightType returns the light type served by this shadow map.
	//
	// Returns:
	//   - light.LightType: the light type
	LightType() light.LightType

	// Count returns the slot capacity.
	//
	// Returns:
	//   - uint32: the maximum number of lights rendered per frame
	Count() uint32

	// Faces returns the number of layers each slot occupies.
	//
	// Returns:
	//   - uint32: 6 for point lights, 1 otherwise
	Faces() uint32

	// BeginFrame forgets the slots assigned during the previous CPU update.
	BeginFrame()

	// UpdateCPU assigns u.Light to slot u.Index and computes its light-space matrices.
	// The slot index must be in [0, Count()).
	//
	// Parameters:
	//   - u: the per-frame CPU state with Light and Index set
	UpdateCPU(u *scene.CpuUpdater)

	// UpdateGPU uploads the shadow data of every active slot.
	//
	// Parameters:
	//   - u: the per-frame GPU state
	//
	// Returns:
	//   - error: error if an upload fails
	UpdateGPU(u *scene.GpuUpdater) error

	// Render submits the graph of one slot. Inactive slots return waits unchanged.
	//
	// Parameters:
	//   - waits: the waits produced by the previous submission
	//   - queue: the queue to submit to
	//   - slot: the slot to render
	//
	// Returns:
	//   - gpu.SemaphoreWaits: the waits the next consumer must use
	//   - error: error if recording or submission fails
	Render(waits gpu.SemaphoreWaits, queue gpu.Queue, slot int) (gpu.SemaphoreWaits, error)

	// ShadowPassResult returns the RSM texture set. It exists before Initialise and is
	// GPU-created by it.
	//
	// Returns:
	//   - *ShadowPassResult: the texture set
	ShadowPassResult() *ShadowPassResult

	// Initialise creates the result textures and compiles one graph per slot. Calling
	// Initialise on an initialised shadow map is a no-op.
	//
	// Parameters:
	//   - device: the device to create resources on
	//
	// Returns:
	//   - error: error if a resource or graph could not be created
	Initialise(device gpu.Device) error

	// Initialised reports whether Initialise completed.
	Initialised() bool

	// Cleanup destroys every slot graph and the result textures.
	Cleanup()

	// ActiveSlots returns the slots assigned since the last BeginFrame, ascending.
	//
	// Returns:
	//   - []int: the active slot indices
	ActiveSlots() []int

	// SlotLight returns the light assigned to slot, or nil.
	SlotLight(slot int) light.Light
}

// slotState is the per-slot light assignment and compiled graph.
type slotState struct {
	light light.Light
	data  []light.GPUShadowData
	graph *framegraph.RunnableGraph
	ubo   *gpu.Buffer
}

// shadowMapImpl is the implementation of the ShadowMap interface.
type shadowMapImpl struct {
	mu sync.Mutex

	lightType  light.LightType
	count      uint32
	faces      uint32
	resolution uint32
	halfExtent float32
	caster     CasterFunc
	logger     common.Logger

	result      *ShadowPassResult
	slots       []*slotState
	active      []int
	initialised bool
}

var _ ShadowMap = &shadowMapImpl{}

// NewShadowMap creates an uninitialised shadow map for one light type.
//
// Parameters:
//   - lightType: the light type served
//   - options: functional options
//
// Returns:
//   - ShadowMap: the new shadow map
func NewShadowMap(lightType light.LightType, options ...ShadowMapBuilderOption) ShadowMap {
	s := &shadowMapImpl{
		lightType:  lightType,
		count:      light.DefaultShadowCount(lightType),
		faces:      light.ShadowFaces(lightType),
		resolution: light.ShadowMapResolution,
		halfExtent: light.DefaultShadowHalfExtent,
		logger:     common.NewNopLogger(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.slots = make([]*slotState, s.count)
	for i := range s.slots {
		s.slots[i] = &slotState{data: make([]light.GPUShadowData, s.faces)}
	}
	s.result = newShadowPassResult(lightType, s.count*s.faces, s.resolution)
	return s
}

func (s *shadowMapImpl) LightType() light.LightType {
	return s.lightType
}

func (s *shadowMapImpl) Count() uint32 {
	return s.count
}

func (s *shadowMapImpl) Faces() uint32 {
	return s.faces
}

func (s *shadowMapImpl) ShadowPassResult() *ShadowPassResult {
	return s.result
}

func (s *shadowMapImpl) BeginFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.active {
		s.slots[slot].light = nil
	}
	s.active = s.active[:0]
}

func (s *shadowMapImpl) UpdateCPU(u *scene.CpuUpdater) {
	if u.Index < 0 || u.Index >= int(s.count) {
		panic(fmt.Sprintf("shadow: slot %d out of range for %s shadow map with %d slots", u.Index, s.lightType, s.count))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.slots[u.Index]
	st.light = u.Light
	if !slices.Contains(s.active, u.Index) {
		s.active = append(s.active, u.Index)
		slices.Sort(s.active)
	}
	if u.Light == nil {
		return
	}

	center := mgl32.Vec3{}
	switch {
	case u.Camera != nil:
		center = u.Camera.Position()
	case u.Scene != nil && !u.Scene.Bounds().IsEmpty():
		center = u.Scene.Bounds().Center()
	}

	far := max(u.Light.Range(), light.DefaultShadowNear*2)
	for face := range st.data {
		d := &st.data[face]
		switch s.lightType {
		case light.LightTypeDirectional:
			d.ComputeDirectionalLightVP(u.Light.Direction(), center, s.halfExtent, light.DefaultShadowNear, light.DefaultShadowFar)
			d.ComputeNormalBias(s.halfExtent, light.DefaultShadowNormalBiasScale, int(s.resolution))
		case light.LightTypeSpot:
			d.ComputeSpotLightVP(u.Light.Position(), u.Light.Direction(), u.Light.OuterCone(), light.DefaultShadowNear, far)
			d.ComputeNormalBias(far*0.5, light.DefaultShadowNormalBiasScale, int(s.resolution))
		case light.LightTypePoint:
			d.ComputePointLightFaceVP(u.Light.Position(), face, light.DefaultShadowNear, far)
			d.ComputeNormalBias(far*0.5, light.DefaultShadowNormalBiasScale, int(s.resolution))
		}
		d.TexelSize = [2]float32{1 / float32(s.resolution), 1 / float32(s.resolution)}
		d.Bias = light.DefaultShadowBias
	}
}

func (s *shadowMapImpl) UpdateGPU(u *scene.GpuUpdater) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.active {
		st := s.slots[slot]
		if st.light == nil || st.ubo == nil {
			continue
		}
		buf := make([]byte, 0, len(st.data)*80)
		for i := range st.data {
			buf = append(buf, st.data[i].Marshal()...)
		}
		if err := u.WriteBuffer(st.ubo, buf); err != nil {
			return fmt.Errorf("failed to upload %s shadow slot %d: %w", s.lightType, slot, err)
		}
	}
	return nil
}

func (s *shadowMapImpl) Render(waits gpu.SemaphoreWaits, queue gpu.Queue, slot int) (gpu.SemaphoreWaits, error) {
	s.mu.Lock()
	if !s.initialised {
		s.mu.Unlock()
		panic(fmt.Sprintf("shadow: Render on uninitialised %s shadow map", s.lightType))
	}
	if slot < 0 || slot >= len(s.slots) || s.slots[slot].light == nil {
		s.mu.Unlock()
		return waits, nil
	}
	graph := s.slots[slot].graph
	s.mu.Unlock()
	return graph.Run(waits, queue)
}

func (s *shadowMapImpl) Initialise(device gpu.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialised {
		return nil
	}
	if err := s.result.create(device); err != nil {
		return err
	}
	for i, st := range s.slots {
		graph, ubo := s.buildSlotGraph(i)
		runnable, err := graph.Compile(device)
		if err != nil {
			s.cleanupLocked()
			return fmt.Errorf("failed to initialise %s shadow map: %w", s.lightType, err)
		}
		st.graph = runnable
		st.ubo = ubo
	}
	s.initialised = true
	s.logger.Debugf("initialised %s shadow map: %d slots x %d faces at %dpx", s.lightType, s.count, s.faces, s.resolution)
	return nil
}

// buildSlotGraph declares one pass per face. Every face writes the same array
// textures, so each face depends on the previous one.
func (s *shadowMapImpl) buildSlotGraph(slot int) (*framegraph.FrameGraph, *gpu.Buffer) {
	g := framegraph.NewFrameGraph(fmt.Sprintf("shadow-%s-%d", s.lightType, slot), framegraph.WithLogger(s.logger))
	ubo := g.CreateBuffer("data", gpu.BufferDesc{
		Size:  uint64(s.faces) * 80,
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageTransferDst,
	})

	var prev *framegraph.FramePass
	for face := 0; face < int(s.faces); face++ {
		layer := s.result.Layer(slot, face, s.faces)
		views := []framegraph.View{framegraph.BufferView(ubo, framegraph.AccessUniform)}
		for _, t := range s.result.Textures() {
			views = append(views, framegraph.Output(t))
		}
		p := g.CreatePass(fmt.Sprintf("face-%d", face), s.recordFace(slot, face, layer, ubo), views...)
		p.AddDependency(prev)
		prev = p
	}
	return g, ubo
}

func (s *shadowMapImpl) recordFace(slot, face, layer int, ubo *gpu.Buffer) framegraph.RecordFunc {
	return func(rec gpu.Recorder) {
		clears := []gpu.Attachment{
			gpu.ClearedLayer(s.result.Depth, layer, farDepth),
			gpu.ClearedLayer(s.result.Normal, layer, [4]float32{}),
			gpu.ClearedLayer(s.result.Position, layer, [4]float32{}),
			gpu.ClearedLayer(s.result.Flux, layer, [4]float32{}),
		}
		rec.Draw(ProgramRSM, 0, 0, clears, nil)
		if s.caster == nil {
			return
		}
		targets := make([]gpu.Attachment, len(clears))
		for i, c := range clears {
			targets[i] = gpu.Attachment{Texture: c.Texture, Layer: c.Layer}
		}
		s.caster(rec, targets, ubo, slot, face)
	}
}

func (s *shadowMapImpl) Initialised() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialised
}

func (s *shadowMapImpl) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
}

func (s *shadowMapImpl) cleanupLocked() {
	for _, st := range s.slots {
		if st.graph != nil {
			st.graph.Destroy()
			st.graph = nil
		}
		st.ubo = nil
		st.light = nil
	}
	s.active = s.active[:0]
	s.result.destroy()
	s.initialised = false
}

func (s *shadowMapImpl) ActiveSlots() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.active...)
}

func (s *shadowMapImpl) SlotLight(slot int) light.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot < 0 || slot >= len(s.slots) {
		return nil
	}
	return s.slots[slot].light
}
