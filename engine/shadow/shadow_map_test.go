package shadow

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/engine/camera"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShadowMapDefaults(t *testing.T) {
	point := NewShadowMap(light.LightTypePoint)
	assert.Equal(t, uint32(8), point.Count())
	assert.Equal(t, uint32(6), point.Faces())
	assert.Equal(t, uint32(48), point.ShadowPassResult().Depth.Desc().Layers)

	spot := NewShadowMap(light.LightTypeSpot, WithCount(3), WithResolution(128))
	assert.Equal(t, uint32(3), spot.Count())
	assert.Equal(t, uint32(3), spot.ShadowPassResult().Flux.Desc().Layers)
	assert.Equal(t, uint32(128), spot.ShadowPassResult().Flux.Desc().Width)
}

func TestShadowMapInitialiseAndCleanup(t *testing.T) {
	dev := gputest.NewDevice()
	sm := NewShadowMap(light.LightTypeSpot, WithCount(2))

	require.NoError(t, sm.Initialise(dev))
	require.NoError(t, sm.Initialise(dev))
	assert.True(t, sm.Initialised())
	assert.True(t, sm.ShadowPassResult().Created())

	sm.Cleanup()
	assert.False(t, sm.Initialised())
	assert.False(t, sm.ShadowPassResult().Created())
	assert.Empty(t, dev.LiveTextures())
}

func TestShadowMapRenderOnlyActiveSlots(t *testing.T) {
	dev := gputest.NewDevice()
	var layers []int
	sm := NewShadowMap(light.LightTypePoint, WithCount(3), WithCaster(func(rec gpu.Recorder, targets []gpu.Attachment, data *gpu.Buffer, slot, face int) {
		layers = append(layers, targets[0].Layer)
		assert.False(t, targets[0].Clear)
		rec.Draw(ProgramRSM, 36, 1, targets, []gpu.Binding{gpu.BufferBinding(ShadowDataBinding, data)})
	}))
	require.NoError(t, sm.Initialise(dev))

	cam := camera.NewCamera()
	u := &scene.CpuUpdater{Camera: cam}
	lamp := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{1, 2, 3}), light.WithRange(10))
	sm.BeginFrame()
	sm.UpdateCPU(u.ForSlot(lamp, 1))
	assert.Equal(t, []int{1}, sm.ActiveSlots())
	assert.Equal(t, lamp, sm.SlotLight(1))

	waits, err := sm.Render(nil, dev.Queue(), 0)
	require.NoError(t, err)
	assert.Nil(t, waits)
	assert.Empty(t, dev.Submissions())

	waits, err = sm.Render(nil, dev.Queue(), 1)
	require.NoError(t, err)
	require.Len(t, waits, 1)

	subs := dev.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "shadow-point-1", subs[0].Label)
	assert.Equal(t, []string{"face-0", "face-1", "face-2", "face-3", "face-4", "face-5"}, subs[0].Passes)
	assert.Equal(t, []int{6, 7, 8, 9, 10, 11}, layers)

	sm.BeginFrame()
	assert.Empty(t, sm.ActiveSlots())
	assert.Nil(t, sm.SlotLight(1))
}

func TestShadowMapUpdateGPU(t *testing.T) {
	dev := gputest.NewDevice()
	sm := NewShadowMap(light.LightTypeDirectional).(*shadowMapImpl)
	require.NoError(t, sm.Initialise(dev))

	sun := light.NewLight(light.LightTypeDirectional, light.WithDirection(mgl32.Vec3{0, -1, 0}))
	u := &scene.CpuUpdater{Camera: camera.NewCamera()}
	sm.UpdateCPU(u.ForSlot(sun, 0))
	require.NoError(t, sm.UpdateGPU(&scene.GpuUpdater{Queue: dev.Queue()}))

	data := sm.slots[0].data[0]
	assert.Equal(t, data.Marshal(), dev.BufferContents(sm.slots[0].ubo))
	assert.InDelta(t, 1.0/512.0, data.TexelSize[0], 1e-9)
	assert.Equal(t, light.DefaultShadowBias, data.Bias)
}

func TestShadowMapSlotOutOfRangePanics(t *testing.T) {
	sm := NewShadowMap(light.LightTypeDirectional)
	u := &scene.CpuUpdater{}
	assert.Panics(t, func() {
		sm.UpdateCPU(u.ForSlot(light.NewLight(light.LightTypeDirectional), 1))
	})
}

func TestShadowMapRenderUninitialisedPanics(t *testing.T) {
	dev := gputest.NewDevice()
	sm := NewShadowMap(light.LightTypeSpot)
	assert.Panics(t, func() {
		_, _ = sm.Render(nil, dev.Queue(), 0)
	})
}
