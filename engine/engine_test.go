package engine

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gi/engine/camera"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/Carmen-Shannon/oxy-gi/engine/technique"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadlessEngine(t *testing.T, s scene.Scene, options ...EngineBuilderOption) (Engine, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice()
	cam := camera.NewCamera(camera.WithPosition(mgl32.Vec3{0, 0, 0}), camera.WithTarget(mgl32.Vec3{0, 0, -1}))
	tech := technique.NewRenderTechnique(dev, s, cam, technique.WithSize(64, 64), technique.WithWorkers(2))
	require.NoError(t, tech.Initialise())
	t.Cleanup(tech.Cleanup)
	return NewEngine(append([]EngineBuilderOption{WithTechnique(tech, dev.Queue())}, options...)...), dev
}

func TestFrameWithoutTechnique(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.Frame(0.016), ErrNoTechnique)
	assert.Nil(t, e.Scene())
	assert.Zero(t, e.FrameCount())
}

func TestFrameChainsAcrossFrames(t *testing.T) {
	spot := light.NewLight(light.LightTypeSpot,
		light.WithPosition(mgl32.Vec3{0, 0, -5}),
		light.WithDirection(mgl32.Vec3{0, 0, -1}),
		light.WithShadowProducer(true),
		light.WithGIType(light.GILightPropagationVolumes),
	)
	e, dev := newHeadlessEngine(t, scene.NewScene("frames", scene.WithLights(spot)))

	require.NoError(t, e.Frame(0.016))
	first := dev.Submissions()
	require.NotEmpty(t, first)
	assert.Equal(t, "technique", first[len(first)-1].Label)
	assert.Empty(t, first[0].Waits)

	dev.ResetSubmissions()
	require.NoError(t, e.Frame(0.016))
	second := dev.Submissions()
	require.NotEmpty(t, second)
	last := first[len(first)-1]
	assert.Equal(t, []gputest.Wait{{Label: last.Signal, Value: last.SignalValue}}, second[0].Waits)
	assert.Equal(t, uint64(2), e.FrameCount())
	assert.Equal(t, uint32(2), e.Technique().Counters().Frame)
}

func TestTickRunsCallbackBeforeNextFrame(t *testing.T) {
	spot := light.NewLight(light.LightTypeSpot,
		light.WithPosition(mgl32.Vec3{0, 0, -5}),
		light.WithShadowProducer(true),
	)
	e, _ := newHeadlessEngine(t, scene.NewScene("tick", scene.WithLights(spot)))

	var total float32
	e.SetTickCallback(func(dt float32) {
		total += dt
		spot.SetGIType(light.GILightPropagationVolumes)
	})
	e.Tick(0.5)
	require.NoError(t, e.Frame(0.016))

	assert.Equal(t, float32(0.5), total)
	eng := e.Technique().Engine(light.LightTypeSpot, light.GILightPropagationVolumes)
	require.NotNil(t, eng)
	assert.True(t, eng.Registered(spot))
}

func TestSetScene(t *testing.T) {
	e, _ := newHeadlessEngine(t, nil)
	assert.Nil(t, e.Scene())
	s := scene.NewScene("replacement")
	e.SetScene(s)
	assert.Same(t, s, e.Scene())
}

func TestHeadlessRunUntilQuit(t *testing.T) {
	e, _ := newHeadlessEngine(t, scene.NewScene("run"), WithTickRate(240), WithRenderFrameLimit(500))

	ticks := make(chan struct{}, 1)
	e.SetTickCallback(func(float32) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	require.Eventually(t, func() bool { return e.FrameCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("tick callback never ran")
	}
	e.Quit()
	e.Quit()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestProfilerToggle(t *testing.T) {
	e, _ := newHeadlessEngine(t, scene.NewScene("profiler"), WithProfiling(true))
	e.DisableProfiler()
	e.EnableProfiler()
	require.NoError(t, e.Frame(0.016))
	assert.NotNil(t, e.Technique().Profiler())
}
