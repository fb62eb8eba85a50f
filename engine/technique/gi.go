package technique

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gi/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/lpv"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
)

// engineVariants is the fixed order LPV engines are updated and rendered in.
var engineVariants = []light.GIType{
	light.GILightPropagationVolumes,
	light.GILightPropagationVolumesGeometry,
	light.GILayeredLightPropagationVolumes,
	light.GILayeredLightPropagationVolumesGeometry,
}

// lightRegistrar is the part of a GI engine light selection talks to.
type lightRegistrar interface {
	RegisterLight(l light.Light)
}

type noopRegistrar struct{}

func (noopRegistrar) RegisterLight(light.Light) {}

type engineKey struct {
	lightType light.LightType
	gi        light.GIType
}

// giDispatch maps a GI type to the registrar serving a light type.
type giDispatch map[light.GIType]func(t light.LightType) lightRegistrar

func (r *renderTechnique) buildDispatch() giDispatch {
	d := giDispatch{
		light.GINone: func(light.LightType) lightRegistrar { return noopRegistrar{} },
	}
	for _, gi := range engineVariants {
		resolved := gi
		if gi.Layered() && !r.config.LayeredLpvSupported {
			resolved = gi.Single()
		}
		d[gi] = func(t light.LightType) lightRegistrar {
			return r.engine(t, resolved)
		}
	}
	return d
}

// registrar returns the registrar a light of type t with GI type gi is handed to.
// Unknown GI types register nowhere.
func (r *renderTechnique) registrar(t light.LightType, gi light.GIType) lightRegistrar {
	if fn, ok := r.dispatch[gi]; ok {
		return fn(t)
	}
	return noopRegistrar{}
}

// engine returns the engine for (t, gi), constructing it on first use. The engine
// is initialised by the next doInitialiseLpv.
func (r *renderTechnique) engine(t light.LightType, gi light.GIType) lpv.Engine {
	key := engineKey{lightType: t, gi: gi}
	r.enginesMu.Lock()
	defer r.enginesMu.Unlock()
	if e, ok := r.engines[key]; ok {
		return e
	}

	sm := r.shadowMaps[t]
	if sm == nil {
		panic(fmt.Sprintf("technique: %s engine requested for %s lights without a shadow map", gi, t))
	}
	var e lpv.Engine
	if gi.Layered() {
		e = lpv.NewLayeredLightPropagationVolumes(t, gi.Geometry(), sm.ShadowPassResult(), r.llpvResult, lpv.WithLogger(r.logger))
	} else {
		e = lpv.NewLightPropagationVolumes(t, gi.Geometry(), sm.ShadowPassResult(), r.lpvResult, lpv.WithLogger(r.logger))
	}
	r.engines[key] = e
	r.logger.Debugf("[Technique] created %s engine for %s lights", gi, t)
	return e
}

// Engine returns the engine for (t, gi) without creating it.
func (r *renderTechnique) Engine(t light.LightType, gi light.GIType) lpv.Engine {
	r.enginesMu.Lock()
	defer r.enginesMu.Unlock()
	return r.engines[engineKey{lightType: t, gi: gi}]
}

// Engines returns the existing engines in variant order, then light type order.
func (r *renderTechnique) Engines() []lpv.Engine {
	r.enginesMu.Lock()
	defer r.enginesMu.Unlock()
	var out []lpv.Engine
	for _, gi := range engineVariants {
		for _, t := range light.LightTypes {
			if e, ok := r.engines[engineKey{lightType: t, gi: gi}]; ok {
				out = append(out, e)
			}
		}
	}
	return out
}

// doInitialiseLpv brings every engine created since the last frame to Ready and
// rebuilds engines whose registered lights changed. Shared results are created on
// the GPU the first time an engine needs them.
func (r *renderTechnique) doInitialiseLpv() error {
	for _, e := range r.Engines() {
		result := e.Result()
		if !result.Created() {
			if err := result.Create(r.device); err != nil {
				return fmt.Errorf("failed to create %s volume: %w", result.Name(), err)
			}
			if err := result.UpdateGPU(&scene.GpuUpdater{Frame: r.frame, Queue: r.device.Queue()}); err != nil {
				return fmt.Errorf("failed to upload %s grid config: %w", result.Name(), err)
			}
			r.logger.Debugf("[Technique] created %s volume (%d cascades)", result.Name(), result.Cascades())
		}

		switch {
		case e.State() == lpv.StateUninitialised:
			if err := e.Initialise(r.device); err != nil {
				return fmt.Errorf("failed to initialise %s engine for %s lights: %w", e.GIType(), e.LightType(), err)
			}
		case e.NeedsInitialise():
			r.logger.Debugf("[Technique] rebuilding %s engine for %s lights", e.GIType(), e.LightType())
			if err := e.Rebuild(r.device); err != nil {
				return fmt.Errorf("failed to rebuild %s engine for %s lights: %w", e.GIType(), e.LightType(), err)
			}
		}
	}
	return nil
}

// buildLpvClear declares the graph clearing the shared volumes before the engines
// accumulate into them. Each pass runs only once its volume exists on the GPU.
func (r *renderTechnique) buildLpvClear() *framegraph.FrameGraph {
	g := framegraph.NewFrameGraph("lpv-clear", framegraph.WithLogger(r.logger), framegraph.WithWaitStage(gpu.StageComputeShader))
	for _, result := range []*lpv.LightVolumePassResult{r.lpvResult, r.llpvResult} {
		if result == nil {
			continue
		}
		textures := result.Textures()
		views := make([]framegraph.View, len(textures))
		for i, t := range textures {
			views[i] = framegraph.TextureView(t, framegraph.AccessTransferDst)
		}
		g.CreatePass("clear-"+result.Name(), func(rec gpu.Recorder) {
			for _, t := range textures {
				rec.ClearTexture(t, [4]float32{})
			}
		}, views...).SetEnabled(result.Created)
	}
	return g
}

// renderLpv runs the clear graph, then every Ready engine in variant order. Engines
// without registered lights submit nothing.
func (r *renderTechnique) renderLpv(waits gpu.SemaphoreWaits, queue gpu.Queue) (gpu.SemaphoreWaits, error) {
	var err error
	if r.lpvClear != nil {
		if waits, err = r.lpvClear.Run(waits, queue); err != nil {
			return waits, err
		}
	}
	for _, e := range r.Engines() {
		if e.State() != lpv.StateReady {
			continue
		}
		if waits, err = e.Render(waits, queue); err != nil {
			return waits, fmt.Errorf("failed to render %s engine for %s lights: %w", e.GIType(), e.LightType(), err)
		}
	}
	return waits, nil
}
