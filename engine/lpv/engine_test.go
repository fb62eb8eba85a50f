package lpv

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/engine/camera"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/Carmen-Shannon/oxy-gi/engine/shadow"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpotEngine(layered, geometry bool) Engine {
	rsm := shadow.NewShadowMap(light.LightTypeSpot, shadow.WithCount(2), shadow.WithResolution(64)).ShadowPassResult()
	if layered {
		return NewLayeredLightPropagationVolumes(light.LightTypeSpot, geometry, rsm, NewLightVolumePassResult("llpv", MaxCascadesCount, 8))
	}
	return NewLightPropagationVolumes(light.LightTypeSpot, geometry, rsm, NewLightVolumePassResult("lpv", 1, 8))
}

func newSpot(x float32) light.Light {
	return light.NewLight(light.LightTypeSpot,
		light.WithPosition(mgl32.Vec3{x, 4, 0}),
		light.WithDirection(mgl32.Vec3{0, -1, 0}),
		light.WithShadowProducer(true),
		light.WithGIType(light.GILightPropagationVolumes),
	)
}

func dependencyNames(t *testing.T, e Engine, pass string) []string {
	p, ok := e.Graph().Graph().Pass(pass)
	require.True(t, ok, pass)
	var names []string
	for _, d := range p.Dependencies() {
		names = append(names, d.Name())
	}
	return names
}

func TestEngineGIType(t *testing.T) {
	assert.Equal(t, light.GILightPropagationVolumes, newSpotEngine(false, false).GIType())
	assert.Equal(t, light.GILightPropagationVolumesGeometry, newSpotEngine(false, true).GIType())
	assert.Equal(t, light.GILayeredLightPropagationVolumes, newSpotEngine(true, false).GIType())
	assert.Equal(t, light.GILayeredLightPropagationVolumesGeometry, newSpotEngine(true, true).GIType())
}

func TestEngineResultCascadeMismatchPanics(t *testing.T) {
	rsm := shadow.NewShadowMap(light.LightTypeSpot).ShadowPassResult()
	assert.Panics(t, func() {
		NewLightPropagationVolumes(light.LightTypeSpot, false, rsm, NewLightVolumePassResult("x", MaxCascadesCount, 8))
	})
	assert.Panics(t, func() {
		NewLayeredLightPropagationVolumes(light.LightTypeSpot, false, rsm, NewLightVolumePassResult("x", 1, 8))
	})
}

func TestEngineRegisterLightIdempotent(t *testing.T) {
	tests := []struct {
		layered, geometry bool
		injection         int
	}{
		{false, false, 1},
		{false, true, 2},
		{true, false, MaxCascadesCount},
		{true, true, 2 * MaxCascadesCount},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("layered=%v geometry=%v", tt.layered, tt.geometry), func(t *testing.T) {
			dev := gputest.NewDevice()
			e := newSpotEngine(tt.layered, tt.geometry)
			l := newSpot(0)

			e.BeginFrame()
			e.RegisterLight(l)
			e.RegisterLight(l)
			assert.Equal(t, []light.Light{l}, e.RegisteredLights())

			require.NoError(t, e.Initialise(dev))
			assert.Equal(t, StateReady, e.State())
			assert.Equal(t, tt.injection, e.InjectionPassCount())
			assert.False(t, e.NeedsInitialise())
		})
	}
}

func TestEnginePingPong(t *testing.T) {
	for _, layered := range []bool{false, true} {
		dev := gputest.NewDevice()
		e := newSpotEngine(layered, false)
		e.RegisterLight(newSpot(0))
		require.NoError(t, e.Initialise(dev))

		plan := e.PropagationPlan()
		require.Len(t, plan, e.Result().Cascades())
		for c, steps := range plan {
			require.Len(t, steps, MaxPropagationSteps)
			for k := 1; k < MaxPropagationSteps; k++ {
				assert.Equal(t, steps[k-1].Destination, steps[k].Source, "cascade %d step %d", c, k)
				assert.NotEqual(t, steps[k].Source, steps[k].Destination)
			}
		}
	}
}

func TestLayeredPropagationEdges(t *testing.T) {
	dev := gputest.NewDevice()
	e := newSpotEngine(true, true)
	e.RegisterLight(newSpot(0))
	require.NoError(t, e.Initialise(dev))

	assert.ElementsMatch(t, []string{"light-injection-0-2"}, dependencyNames(t, e, "propagation-0-0"))
	assert.ElementsMatch(t, []string{"propagation-0-0", "propagation-0-1"}, dependencyNames(t, e, "propagation-1-0"))
	assert.ElementsMatch(t, []string{"propagation-0-1", "propagation-0-2", "propagation-0-0"}, dependencyNames(t, e, "propagation-1-1"))
	assert.ElementsMatch(t, []string{"propagation-0-2", "propagation-0-1"}, dependencyNames(t, e, "propagation-1-2"))

	passes := e.Graph().Graph().Passes()
	for _, p := range passes {
		for _, d := range p.Dependencies() {
			var ks, kd, cs, cd int
			if _, err := fmt.Sscanf(p.Name(), "propagation-%d-%d", &ks, &cs); err != nil {
				continue
			}
			if _, err := fmt.Sscanf(d.Name(), "propagation-%d-%d", &kd, &cd); err != nil {
				continue
			}
			assert.Equal(t, ks-1, kd, "%s depends on %s", p.Name(), d.Name())
		}
	}
}

func TestEngineConstructionOrder(t *testing.T) {
	dev := gputest.NewDevice()
	e := newSpotEngine(false, true)
	e.RegisterLight(newSpot(0))
	e.RegisterLight(newSpot(1))
	require.NoError(t, e.Initialise(dev))

	var names []string
	for _, p := range e.Graph().Graph().Passes() {
		names = append(names, p.Name())
	}
	expected := []string{
		"clear", "downsample",
		"geometry-injection-0-0", "light-injection-0-0",
		"geometry-injection-1-0", "light-injection-1-0",
	}
	for k := 0; k < MaxPropagationSteps; k++ {
		expected = append(expected, fmt.Sprintf("propagation-%d-0", k))
	}
	assert.Equal(t, expected, names)
	assert.Len(t, e.Occlusion(), 1)
}

func TestEnginePruneRebuild(t *testing.T) {
	dev := gputest.NewDevice()
	e := newSpotEngine(false, false)
	a, b := newSpot(0), newSpot(5)
	u := &scene.CpuUpdater{Scene: scene.NewScene("test"), Camera: camera.NewCamera()}

	e.BeginFrame()
	e.RegisterLight(a)
	e.RegisterLight(b)
	e.UpdateCPU(u)
	require.NoError(t, e.Initialise(dev))
	assert.Equal(t, 2, e.InjectionPassCount())

	e.BeginFrame()
	e.RegisterLight(b)
	e.UpdateCPU(u)
	assert.Equal(t, []light.Light{b}, e.RegisteredLights())
	assert.False(t, e.Registered(a))
	assert.True(t, e.NeedsInitialise())

	require.NoError(t, e.Rebuild(dev))
	assert.Equal(t, StateReady, e.State())
	assert.Equal(t, 1, e.InjectionPassCount())
	assert.False(t, e.NeedsInitialise())
}

func TestEngineRebuildKeepsVolumes(t *testing.T) {
	dev := gputest.NewDevice()
	e := newSpotEngine(false, true)
	e.RegisterLight(newSpot(0))
	require.NoError(t, e.Initialise(dev))

	plan := e.PropagationPlan()
	occlusion := e.Occlusion()
	live := len(dev.LiveTextures())
	assert.Equal(t, 2*3+1+3, live)

	e.RegisterLight(newSpot(3))
	require.True(t, e.NeedsInitialise())
	require.NoError(t, e.Rebuild(dev))

	assert.Equal(t, 4, e.InjectionPassCount())
	assert.Equal(t, plan, e.PropagationPlan())
	assert.Equal(t, occlusion, e.Occlusion())
	assert.Empty(t, dev.Destroyed())
	assert.Len(t, dev.LiveTextures(), live)

	e.Cleanup()
	assert.Equal(t, StateUninitialised, e.State())
	assert.Empty(t, dev.LiveTextures())
	assert.Len(t, dev.Destroyed(), live)

	require.NoError(t, e.Initialise(dev))
	assert.Len(t, dev.LiveTextures(), live)
	assert.Equal(t, plan, e.PropagationPlan())
}

func TestEngineWithoutLightsSubmitsNothing(t *testing.T) {
	dev := gputest.NewDevice()
	e := newSpotEngine(false, false)
	require.NoError(t, e.Initialise(dev))

	waits, err := e.Render(nil, dev.Queue())
	require.NoError(t, err)
	assert.Empty(t, waits)
	assert.Empty(t, dev.Submissions())
	assert.Empty(t, e.Graph().EnabledPasses())

	e.RegisterLight(newSpot(0))
	require.NoError(t, e.Rebuild(dev))
	waits, err = e.Render(nil, dev.Queue())
	require.NoError(t, err)
	require.Len(t, waits, 1)
	subs := dev.Submissions()
	require.Len(t, subs, 1)
	assert.Len(t, subs[0].Passes, 3+MaxPropagationSteps)

	e.BeginFrame()
	e.UpdateCPU(&scene.CpuUpdater{Scene: scene.NewScene("test")})
	require.Empty(t, e.RegisteredLights())
	require.NoError(t, e.Rebuild(dev))
	dev.ResetSubmissions()
	out, err := e.Render(waits, dev.Queue())
	require.NoError(t, err)
	assert.Equal(t, waits, out)
	assert.Empty(t, dev.Submissions())
}

func TestEngineRenderBeforeInitialisePanics(t *testing.T) {
	dev := gputest.NewDevice()
	e := newSpotEngine(true, false)
	assert.Panics(t, func() {
		_, _ = e.Render(nil, dev.Queue())
	})
}

func TestEngineUpdateUploadsInjectionConfig(t *testing.T) {
	dev := gputest.NewDevice()
	e := newSpotEngine(false, false).(*engineImpl)
	l := newSpot(2)
	l.SetShadowMapIndex(1)
	e.RegisterLight(l)
	e.UpdateCPU(&scene.CpuUpdater{Scene: scene.NewScene("test")})
	require.NoError(t, e.Initialise(dev))

	st := e.lights[l]
	require.Len(t, st.ubos, 1)
	assert.Equal(t, st.configs[0].Marshal(), dev.BufferContents(st.ubos[0]))
	assert.Equal(t, int32(1), st.configs[0].ShadowIndex)
	assert.Equal(t, uint32(16), st.configs[0].RSMSize)
	assert.False(t, e.Result().Region().IsEmpty())

	l.SetIntensity(4)
	e.BeginFrame()
	e.RegisterLight(l)
	e.UpdateCPU(&scene.CpuUpdater{})
	require.NoError(t, e.UpdateGPU(&scene.GpuUpdater{Queue: dev.Queue()}))
	assert.Equal(t, st.configs[0].Marshal(), dev.BufferContents(st.ubos[0]))
	assert.InDelta(t, 4.0, st.configs[0].Color[0], 1e-5)
}
