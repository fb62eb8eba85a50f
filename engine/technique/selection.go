package technique

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-gi/engine/camera"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/Carmen-Shannon/oxy-gi/engine/shadow"
)

// ShadowCaster is a light holding a shadow map slot this frame.
type ShadowCaster struct {
	Light light.Light
	Slot  int
}

// ActiveShadowMap is the shadow map of one light type together with the lights
// that were given its slots this frame, nearest first. It is rebuilt on every CPU
// update.
type ActiveShadowMap struct {
	ShadowMap shadow.ShadowMap
	Casters   []ShadowCaster
}

// Lights returns the casters' lights in slot order.
func (a ActiveShadowMap) Lights() []light.Light {
	out := make([]light.Light, len(a.Casters))
	for i, c := range a.Casters {
		out[i] = c.Light
	}
	return out
}

// selectShadowCasters keeps the enabled shadow producers of type t that are
// directional or intersect the camera frustum, ordered by squared camera distance.
// Equal distances keep cache order. The list is truncated to capacity.
//
// Parameters:
//   - lights: the cache's lights of type t, in insertion order
//   - t: the light type
//   - cam: the camera providing position and frustum
//   - capacity: the number of shadow map slots
//
// Returns:
//   - []light.Light: the selected lights, slot order
//   - int: the number of candidates before truncation
func selectShadowCasters(lights []light.Light, t light.LightType, cam camera.Camera, capacity int) ([]light.Light, int) {
	type candidate struct {
		light light.Light
		dist  float32
	}
	eye := cam.Position()
	candidates := make([]candidate, 0, len(lights))
	for _, l := range lights {
		if !l.Enabled() || !l.ShadowProducer() {
			continue
		}
		if t != light.LightTypeDirectional && !cam.IsVisible(l.WorldBoundingBox()) {
			continue
		}
		d := l.Position().Sub(eye)
		candidates = append(candidates, candidate{light: l, dist: d.Dot(d)})
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})

	n := min(len(candidates), max(capacity, 0))
	selected := make([]light.Light, n)
	for i := range selected {
		selected[i] = candidates[i].light
	}
	return selected, len(candidates)
}

// prepareLights rebuilds the active shadow map of type t: every light of the type
// loses its slot, the nearest visible producers get dense slots from 0, their shadow
// map slot is updated and they are registered with the GI engine their type asks for.
func (r *renderTechnique) prepareLights(t light.LightType, u *scene.CpuUpdater) {
	sm := r.shadowMaps[t]
	active := ActiveShadowMap{ShadowMap: sm}

	r.scene.Lights().WithLights(t, func(lights []light.Light) {
		for _, l := range lights {
			l.SetShadowMapIndex(light.NoShadowMap)
		}
		if sm == nil {
			return
		}

		selected, candidates := selectShadowCasters(lights, t, u.Camera, int(sm.Count()))
		if dropped := candidates - len(selected); dropped > 0 {
			r.logger.Debugf("[Technique] %s shadow budget %d reached, %d lights without shadow map", t, sm.Count(), dropped)
		}
		for slot, l := range selected {
			l.SetShadowMapIndex(slot)
			active.Casters = append(active.Casters, ShadowCaster{Light: l, Slot: slot})
			sm.UpdateCPU(u.ForSlot(l, slot))
			r.registrar(t, l.GIType()).RegisterLight(l)
		}
	})

	r.activeMu.Lock()
	r.active[t] = active
	r.activeMu.Unlock()
}
