package lpv

import (
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
)

// lightLpv is the per-light state of an engine: injection configs per cascade and,
// once the graph is built, the UBOs its injection passes read them from.
type lightLpv struct {
	light      light.Light
	registered bool
	configs    []GPULightInjection
	ubos       []*gpu.Buffer
}

func newLightLpv(l light.Light, cascades int) *lightLpv {
	return &lightLpv{
		light:      l,
		registered: true,
		configs:    make([]GPULightInjection, cascades),
	}
}

// update recomputes the injection configs from the light's current state.
func (s *lightLpv) update(faces, rsmSize uint32, geometry bool) {
	l := s.light
	color := l.Color().Mul(l.Intensity())
	shadowIndex := int32(-1)
	if slot := l.ShadowMapIndex(); slot != light.NoShadowMap {
		shadowIndex = int32(slot) * int32(faces)
	}
	var geo uint32
	if geometry {
		geo = 1
	}
	for c := range s.configs {
		s.configs[c] = GPULightInjection{
			Color:       color,
			LightType:   uint32(l.Type()),
			Position:    l.Position(),
			Range:       l.Range(),
			Direction:   l.Direction(),
			ShadowIndex: shadowIndex,
			Faces:       faces,
			Cascade:     uint32(c),
			RSMSize:     rsmSize,
			Geometry:    geo,
		}
	}
}

func (s *lightLpv) upload(u *scene.GpuUpdater) error {
	for c, ubo := range s.ubos {
		if err := u.WriteBuffer(ubo, s.configs[c].Marshal()); err != nil {
			return err
		}
	}
	return nil
}

func (s *lightLpv) reset() {
	s.ubos = nil
}
