package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneBounds(t *testing.T) {
	s := NewScene("test")
	assert.True(t, s.Bounds().IsEmpty())

	s.ExpandBounds(common.NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}))
	s.ExpandBounds(common.NewAABB(mgl32.Vec3{-2, 0, 0}, mgl32.Vec3{0, 3, 0}))
	assert.Equal(t, common.NewAABB(mgl32.Vec3{-2, 0, 0}, mgl32.Vec3{1, 3, 1}), s.Bounds())
}

func TestSceneLights(t *testing.T) {
	sun := light.NewLight(light.LightTypeDirectional)
	s := NewScene("test", WithLights(sun))
	lamp := light.NewLight(light.LightTypePoint)
	s.AddLight(lamp)

	assert.Equal(t, 2, s.Lights().Len())
	assert.True(t, s.RemoveLight(sun))
	assert.Equal(t, []light.Light{lamp}, s.Lights().All())
}

func TestCpuUpdaterForSlot(t *testing.T) {
	u := &CpuUpdater{Frame: 3}
	l := light.NewLight(light.LightTypeSpot)
	slot := u.ForSlot(l, 2)
	assert.Equal(t, uint64(3), slot.Frame)
	assert.Equal(t, 2, slot.Index)
	assert.Nil(t, u.Light)
}

func TestGpuUpdaterSkipsUncreatedBuffers(t *testing.T) {
	dev := gputest.NewDevice()
	u := &GpuUpdater{Queue: dev.Queue()}
	b := gpu.NewBuffer("ubo", gpu.BufferDesc{Size: 4, Usage: gpu.BufferUsageUniform})

	require.NoError(t, u.WriteBuffer(b, []byte{1, 2, 3, 4}))
	require.NoError(t, b.Create(dev))
	require.NoError(t, u.WriteBuffer(b, []byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, dev.BufferContents(b))
}
