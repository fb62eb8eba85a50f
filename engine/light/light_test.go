package light

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(mgl32.Vec3{5, 0, 0}), WithRange(2))
	assert.Equal(t, NoShadowMap, l.ShadowMapIndex())
	assert.Equal(t, GINone, l.GIType())
	assert.False(t, l.ShadowProducer())

	world := l.WorldBoundingBox()
	assert.InDelta(t, 3, world.Min.X(), 1e-5)
	assert.InDelta(t, 7, world.Max.X(), 1e-5)

	l.SetRange(4)
	assert.InDelta(t, 9, l.WorldBoundingBox().Max.X(), 1e-5)
}

func TestGITypeVariants(t *testing.T) {
	assert.True(t, GILayeredLightPropagationVolumesGeometry.Layered())
	assert.True(t, GILayeredLightPropagationVolumesGeometry.Geometry())
	assert.Equal(t, GILightPropagationVolumesGeometry, GILayeredLightPropagationVolumesGeometry.Single())
	assert.Equal(t, GILightPropagationVolumes, GILayeredLightPropagationVolumes.Single())
	assert.Equal(t, GINone, GINone.Single())
	assert.False(t, GILightPropagationVolumes.Layered())

	for _, g := range GITypes {
		parsed, err := ParseGIType(g.String())
		require.NoError(t, err)
		assert.Equal(t, g, parsed)
	}
	_, err := ParseGIType("vct")
	assert.Error(t, err)
}

func TestCacheKeepsInsertionOrder(t *testing.T) {
	c := NewCache()
	a := NewLight(LightTypeSpot)
	b := NewLight(LightTypeSpot)
	d := NewLight(LightTypeDirectional)
	c.Add(a)
	c.Add(b)
	c.Add(a)
	c.Add(d)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []Light{a, b}, c.Lights(LightTypeSpot))
	assert.Equal(t, []Light{d, a, b}, c.All())

	assert.True(t, c.Remove(a))
	assert.False(t, c.Remove(a))

	var seen []Light
	c.WithLights(LightTypeSpot, func(lights []Light) {
		seen = append(seen, lights...)
	})
	assert.Equal(t, []Light{b}, seen)
}

func TestShadowCapacities(t *testing.T) {
	assert.Equal(t, uint32(1), DefaultShadowCount(LightTypeDirectional))
	assert.Equal(t, uint32(8), DefaultShadowCount(LightTypePoint))
	assert.Equal(t, uint32(10), DefaultShadowCount(LightTypeSpot))
	assert.Equal(t, uint32(6), ShadowFaces(LightTypePoint))
	assert.Equal(t, uint32(1), ShadowFaces(LightTypeSpot))
}

func TestMarshalLightBufferSkipsDisabled(t *testing.T) {
	on := NewLight(LightTypePoint, WithGIType(GILightPropagationVolumes))
	on.SetShadowMapIndex(2)
	off := NewLight(LightTypePoint, WithEnabled(false))

	buf := MarshalLightBuffer([]Light{on, off}, [3]float32{0.1, 0.1, 0.1})
	require.Len(t, buf, 16+64)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[12:16]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[16+56:16+60]))
	assert.Equal(t, uint32(GILightPropagationVolumes), binary.LittleEndian.Uint32(buf[16+60:16+64]))
}

func TestShadowDataProjectsIntoUnitDepth(t *testing.T) {
	var s GPUShadowData
	s.ComputeSpotLightVP(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0}, 0.8, 0.1, 20)
	vp := mgl32.Mat4(s.LightVP)
	clip := vp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	depth := clip.Z() / clip.W()
	assert.Greater(t, depth, float32(0))
	assert.Less(t, depth, float32(1))

	s.ComputePointLightFaceVP(mgl32.Vec3{}, 0, 0.1, 10)
	vp = mgl32.Mat4(s.LightVP)
	clip = vp.Mul4x1(mgl32.Vec4{5, 0, 0, 1})
	assert.Greater(t, clip.W(), float32(0))
}
