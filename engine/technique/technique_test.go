package technique

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/engine/camera"
	"github.com/Carmen-Shannon/oxy-gi/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/lpv"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCamera() camera.Camera {
	return camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 0, 0}),
		camera.WithTarget(mgl32.Vec3{0, 0, -1}),
	)
}

func newTestTechnique(t *testing.T, s scene.Scene, opts ...RenderTechniqueBuilderOption) (RenderTechnique, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice()
	opts = append([]RenderTechniqueBuilderOption{WithSize(64, 64), WithWorkers(2)}, opts...)
	r := NewRenderTechnique(dev, s, newTestCamera(), opts...)
	require.NoError(t, r.Initialise())
	t.Cleanup(r.Cleanup)
	return r, dev
}

func runFrame(t *testing.T, r RenderTechnique, dev *gputest.Device, frame uint64) {
	t.Helper()
	r.UpdateCPU(&scene.CpuUpdater{Frame: frame, DeltaTime: 1.0 / 60})
	require.NoError(t, r.UpdateGPU(&scene.GpuUpdater{Frame: frame, Queue: dev.Queue()}))
	waits, err := r.PreRender(nil, dev.Queue())
	require.NoError(t, err)
	_, err = r.Render(waits, dev.Queue())
	require.NoError(t, err)
}

func spotAt(z float32, gi light.GIType) light.Light {
	return light.NewLight(light.LightTypeSpot,
		light.WithPosition(mgl32.Vec3{0, 0, z}),
		light.WithDirection(mgl32.Vec3{0, 0, -1}),
		light.WithShadowProducer(true),
		light.WithGIType(gi),
	)
}

func mainPassNames(r RenderTechnique) []string {
	var names []string
	for _, p := range r.Graph().Graph().Passes() {
		names = append(names, p.Name())
	}
	return names
}

func TestNoShadowProducers(t *testing.T) {
	s := scene.NewScene("empty", scene.WithLights(
		light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, -5}), light.WithGIType(light.GILightPropagationVolumes)),
		light.NewLight(light.LightTypeDirectional),
	))
	r, dev := newTestTechnique(t, s)

	runFrame(t, r, dev, 1)

	for _, lt := range light.LightTypes {
		assert.Empty(t, r.ActiveShadowMap(lt).Casters, lt.String())
	}
	assert.Empty(t, r.Engines())
	assert.False(t, r.LpvResult().Created())
	assert.Equal(t, []string{"technique"}, dev.SubmissionLabels())
	for _, l := range s.Lights().All() {
		assert.Equal(t, light.NoShadowMap, l.ShadowMapIndex())
	}
}

func TestDirectionalBudgetKeepsNearest(t *testing.T) {
	nearest := light.NewLight(light.LightTypeDirectional,
		light.WithPosition(mgl32.Vec3{0, 0, -1}),
		light.WithShadowProducer(true),
		light.WithGIType(light.GILightPropagationVolumes),
	)
	var others []light.Light
	for _, z := range []float32{-8, -3, -5} {
		others = append(others, light.NewLight(light.LightTypeDirectional,
			light.WithPosition(mgl32.Vec3{0, 0, z}),
			light.WithShadowProducer(true),
			light.WithGIType(light.GILightPropagationVolumes),
		))
	}
	s := scene.NewScene("budget", scene.WithLights(others[0], others[1], nearest, others[2]))
	r, dev := newTestTechnique(t, s, WithShadowConfig(ShadowConfig{Directional: 1, Point: 8, Spot: 10, Resolution: 64}))

	runFrame(t, r, dev, 1)

	active := r.ActiveShadowMap(light.LightTypeDirectional)
	require.Len(t, active.Casters, 1)
	assert.Same(t, nearest, active.Casters[0].Light)
	assert.Equal(t, 0, active.Casters[0].Slot)
	assert.Equal(t, 0, nearest.ShadowMapIndex())

	e := r.Engine(light.LightTypeDirectional, light.GILightPropagationVolumes)
	require.NotNil(t, e)
	assert.Equal(t, []light.Light{nearest}, e.RegisteredLights())
	for _, l := range others {
		assert.Equal(t, light.NoShadowMap, l.ShadowMapIndex())
		assert.False(t, e.Registered(l))
	}
	assert.Equal(t, [3]uint32{1, 0, 0}, r.Counters().ShadowCasters)
}

func TestSlotsAreDenseAndOrderedByDistance(t *testing.T) {
	var lights []light.Light
	for _, z := range []float32{-9, -2, -12, -4, -7, -3, -11, -5, -6, -10, -8, -13} {
		lights = append(lights, light.NewLight(light.LightTypePoint,
			light.WithPosition(mgl32.Vec3{0, 0, z}),
			light.WithRange(1),
			light.WithShadowProducer(true),
		))
	}
	s := scene.NewScene("points", scene.WithLights(lights...))
	r, dev := newTestTechnique(t, s)

	runFrame(t, r, dev, 1)

	active := r.ActiveShadowMap(light.LightTypePoint)
	require.Len(t, active.Casters, int(r.ShadowMap(light.LightTypePoint).Count()))
	prev := float32(-1)
	for i, c := range active.Casters {
		assert.Equal(t, i, c.Slot)
		assert.Equal(t, i, c.Light.ShadowMapIndex())
		d := c.Light.Position().Len()
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
	assert.Equal(t, float32(2), active.Casters[0].Light.Position().Len())

	selected := 0
	for _, l := range lights {
		if l.ShadowMapIndex() != light.NoShadowMap {
			selected++
		}
	}
	assert.Equal(t, len(active.Casters), selected)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, active.ShadowMap.ActiveSlots())
}

func TestSelectionSkipsInvisibleAndDisabled(t *testing.T) {
	behind := spotAt(20, light.GINone)
	disabled := spotAt(-4, light.GINone)
	disabled.SetEnabled(false)
	visible := spotAt(-6, light.GINone)
	s := scene.NewScene("visibility", scene.WithLights(behind, disabled, visible))
	r, dev := newTestTechnique(t, s)

	runFrame(t, r, dev, 1)

	assert.Equal(t, []light.Light{visible}, r.ActiveShadowMap(light.LightTypeSpot).Lights())
	assert.Equal(t, light.NoShadowMap, behind.ShadowMapIndex())
	assert.Equal(t, light.NoShadowMap, disabled.ShadowMapIndex())
}

func TestEqualDistancesKeepInsertionOrder(t *testing.T) {
	left := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{-2, 0, -6}), light.WithRange(1), light.WithShadowProducer(true))
	right := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{2, 0, -6}), light.WithRange(1), light.WithShadowProducer(true))
	s := scene.NewScene("tie", scene.WithLights(right, left))
	r, dev := newTestTechnique(t, s)

	for frame := uint64(1); frame <= 3; frame++ {
		runFrame(t, r, dev, frame)
		assert.Equal(t, []light.Light{right, left}, r.ActiveShadowMap(light.LightTypePoint).Lights())
	}
}

func TestGINoneIsNeverRegistered(t *testing.T) {
	l := spotAt(-5, light.GINone)
	s := scene.NewScene("none", scene.WithLights(l))
	r, dev := newTestTechnique(t, s)

	runFrame(t, r, dev, 1)

	assert.Equal(t, 0, l.ShadowMapIndex())
	assert.Empty(t, r.Engines())
	assert.Equal(t, []string{"shadow-spot-0", "technique"}, dev.SubmissionLabels())
}

func TestGITypeSwitchMovesLightBetweenEngines(t *testing.T) {
	l := spotAt(-5, light.GILightPropagationVolumes)
	s := scene.NewScene("switch", scene.WithLights(l))
	r, dev := newTestTechnique(t, s)

	runFrame(t, r, dev, 1)
	plain := r.Engine(light.LightTypeSpot, light.GILightPropagationVolumes)
	require.NotNil(t, plain)
	assert.True(t, plain.Registered(l))
	assert.Nil(t, r.Engine(light.LightTypeSpot, light.GILayeredLightPropagationVolumes))

	l.SetGIType(light.GILayeredLightPropagationVolumes)
	dev.ResetSubmissions()
	runFrame(t, r, dev, 2)
	assert.Equal(t, []string{"shadow-spot-0", "lpv-clear", "llpv-spot", "technique"}, dev.SubmissionLabels())

	layered := r.Engine(light.LightTypeSpot, light.GILayeredLightPropagationVolumes)
	require.NotNil(t, layered)
	assert.True(t, layered.Registered(l))
	assert.False(t, plain.Registered(l))
	assert.Equal(t, lpv.StateReady, layered.State())
	assert.True(t, r.LlpvResult().Created())
	assert.Equal(t, []lpv.Engine{plain, layered}, r.Engines())
}

func TestLayeredFallsBackWhenUnsupported(t *testing.T) {
	l := spotAt(-5, light.GILayeredLightPropagationVolumesGeometry)
	s := scene.NewScene("fallback", scene.WithLights(l))
	r, dev := newTestTechnique(t, s, WithLayeredLpvSupported(false))

	runFrame(t, r, dev, 1)

	assert.Nil(t, r.LlpvResult())
	e := r.Engine(light.LightTypeSpot, light.GILightPropagationVolumesGeometry)
	require.NotNil(t, e)
	assert.True(t, e.Registered(l))
	assert.Len(t, r.Engines(), 1)
	assert.NotContains(t, mainPassNames(r), "indirect-llpv")
}

func TestPreRenderChainsSubmissions(t *testing.T) {
	s := scene.NewScene("chain", scene.WithLights(spotAt(-5, light.GILightPropagationVolumes)))
	r, dev := newTestTechnique(t, s, WithEnvironmentMap(true), WithVoxelConeTracing(true))

	runFrame(t, r, dev, 1)

	assert.Equal(t, []string{"shadow-spot-0", "lpv-clear", "lpv-spot", "environment", "vct", "technique"}, dev.SubmissionLabels())
	subs := dev.Submissions()
	assert.Empty(t, subs[0].Waits)
	for i := 1; i < len(subs); i++ {
		assert.Equal(t, []gputest.Wait{{Label: subs[i-1].Signal, Value: subs[i-1].SignalValue}}, subs[i].Waits, subs[i].Label)
	}
	assert.Contains(t, subs[len(subs)-1].Passes, "indirect-lpv")
	assert.Contains(t, subs[len(subs)-1].Passes, "indirect-vct")
}

func TestEnvironmentCapturedWhenDirty(t *testing.T) {
	r, dev := newTestTechnique(t, scene.NewScene("env"), WithEnvironmentMap(true))

	runFrame(t, r, dev, 1)
	assert.Equal(t, []string{"environment", "technique"}, dev.SubmissionLabels())

	dev.ResetSubmissions()
	runFrame(t, r, dev, 2)
	assert.Equal(t, []string{"technique"}, dev.SubmissionLabels())

	dev.ResetSubmissions()
	r.InvalidateEnvironment()
	runFrame(t, r, dev, 3)
	assert.Equal(t, []string{"environment", "technique"}, dev.SubmissionLabels())
}

func TestIndirectPassesWaitForVolumes(t *testing.T) {
	l := spotAt(-5, light.GINone)
	s := scene.NewScene("indirect", scene.WithLights(l))
	r, dev := newTestTechnique(t, s)

	runFrame(t, r, dev, 1)
	assert.NotContains(t, r.Graph().EnabledPasses(), "indirect-lpv")
	assert.Zero(t, r.Counters().GIFlags&GIFlagLpv)

	l.SetGIType(light.GILightPropagationVolumes)
	runFrame(t, r, dev, 2)
	assert.Contains(t, r.Graph().EnabledPasses(), "indirect-lpv")
	assert.NotContains(t, r.Graph().EnabledPasses(), "indirect-llpv")

	runFrame(t, r, dev, 3)
	assert.NotZero(t, r.Counters().GIFlags&GIFlagLpv)
}

func TestMainGraphStages(t *testing.T) {
	tests := []struct {
		name string
		opts []RenderTechniqueBuilderOption
		want []string
	}{
		{
			name: "deferred",
			want: []string{"vertex-transform", "depth-prepass", "background", "gbuffer", "ssao", "lighting",
				"indirect-lpv", "indirect-llpv", "wboit-accumulate", "wboit-resolve"},
		},
		{
			name: "forward",
			opts: []RenderTechniqueBuilderOption{WithDeferred(false), WithSSAO(false), WithWeightedBlendOIT(false), WithLayeredLpvSupported(false)},
			want: []string{"vertex-transform", "depth-prepass", "background", "forward-opaque", "indirect-lpv", "forward-transparent"},
		},
		{
			name: "visibility buffer",
			opts: []RenderTechniqueBuilderOption{WithVisibilityBuffer(true)},
			want: []string{"vertex-transform", "visibility", "background", "visibility-resolve", "ssao", "lighting",
				"indirect-lpv", "indirect-llpv", "wboit-accumulate", "wboit-resolve"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestTechnique(t, scene.NewScene(tt.name), tt.opts...)
			assert.Equal(t, tt.want, mainPassNames(r))
		})
	}
}

func TestRenderPassInsertion(t *testing.T) {
	baseline, _ := newTestTechnique(t, scene.NewScene("baseline"))

	identity, _ := newTestTechnique(t, scene.NewScene("identity"), WithRenderPass(framegraph.RenderPassRegisterInfo{
		Name:   "nothing",
		Event:  framegraph.BeforeOpaque,
		Create: func(*framegraph.FrameGraph, framegraph.Frontier) []*framegraph.FramePass { return nil },
	}))
	assert.Equal(t, mainPassNames(baseline), mainPassNames(identity))

	dev := gputest.NewDevice()
	r := NewRenderTechnique(dev, scene.NewScene("custom"), newTestCamera(), WithSize(64, 64))
	r.RegisterRenderPass(framegraph.RenderPassRegisterInfo{
		Name:  "outline",
		Event: framegraph.BeforeOpaque,
		Create: func(g *framegraph.FrameGraph, previous framegraph.Frontier) []*framegraph.FramePass {
			p := g.CreatePass("outline", nil)
			previous.DependOn(p)
			return []*framegraph.FramePass{p}
		},
	})
	require.NoError(t, r.Initialise())
	defer r.Cleanup()

	names := mainPassNames(r)
	assert.Equal(t, []string{"background", "outline", "gbuffer"}, names[2:5])
	outline, ok := r.Graph().Graph().Pass("outline")
	require.True(t, ok)
	gbuffer, _ := r.Graph().Graph().Pass("gbuffer")
	assert.True(t, gbuffer.DependsOn(outline))

	assert.Panics(t, func() {
		r.RegisterRenderPass(framegraph.RenderPassRegisterInfo{Name: "late", Event: framegraph.BeforeDepth})
	})
}

func TestUseBeforeInitialisePanics(t *testing.T) {
	dev := gputest.NewDevice()
	r := NewRenderTechnique(dev, nil, nil)
	assert.False(t, r.Initialised())
	assert.Panics(t, func() { _, _ = r.PreRender(nil, dev.Queue()) })
	assert.Panics(t, func() { _, _ = r.Render(nil, dev.Queue()) })
	assert.Panics(t, func() { NewRenderTechnique(nil, nil, nil) })
}

func TestUpdateCPUWithoutSceneIsSkipped(t *testing.T) {
	r, dev := newTestTechnique(t, nil)
	runFrame(t, r, dev, 1)
	assert.Empty(t, r.Engines())
	assert.Equal(t, GPUTechniqueCounters{}, r.Counters())
}

func TestZeroCapacityDisablesShadowType(t *testing.T) {
	l := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, -5}), light.WithShadowProducer(true),
		light.WithGIType(light.GILightPropagationVolumes))
	s := scene.NewScene("disabled", scene.WithLights(l))
	r, dev := newTestTechnique(t, s, WithShadowConfig(ShadowConfig{Directional: 1, Point: 0, Spot: 2, Resolution: 64}))

	runFrame(t, r, dev, 1)

	assert.Nil(t, r.ShadowMap(light.LightTypePoint))
	assert.Nil(t, r.ActiveShadowMap(light.LightTypePoint).ShadowMap)
	assert.Equal(t, light.NoShadowMap, l.ShadowMapIndex())
	assert.Empty(t, r.Engines())
}

func TestCountersAndLightUpload(t *testing.T) {
	s := scene.NewScene("counters", scene.WithLights(
		spotAt(-5, light.GINone),
		spotAt(-7, light.GINone),
		light.NewLight(light.LightTypeDirectional, light.WithEnabled(false)),
	))
	r, dev := newTestTechnique(t, s, WithSize(320, 200))

	runFrame(t, r, dev, 4)

	c := r.Counters()
	assert.Equal(t, uint32(4), c.Frame)
	assert.Equal(t, uint32(2), c.LightCount)
	assert.Equal(t, [3]uint32{0, 0, 2}, c.ShadowCasters)
	assert.Equal(t, uint32(320), c.Width)
	assert.Equal(t, uint32(200), c.Height)
	assert.Equal(t, GIFlagSSAO, c.GIFlags)
}

func TestCleanupReleasesEverything(t *testing.T) {
	dev := gputest.NewDevice()
	s := scene.NewScene("cleanup", scene.WithLights(spotAt(-5, light.GILayeredLightPropagationVolumes)))
	r := NewRenderTechnique(dev, s, newTestCamera(), WithSize(64, 64), WithVoxelConeTracing(true), WithEnvironmentMap(true))
	require.NoError(t, r.Initialise())
	runFrame(t, r, dev, 1)

	r.Cleanup()

	assert.False(t, r.Initialised())
	assert.Nil(t, r.Graph())
	assert.False(t, r.LlpvResult().Created())
	assert.Empty(t, dev.LiveTextures())
	for _, e := range r.Engines() {
		assert.Equal(t, lpv.StateUninitialised, e.State())
	}
}
