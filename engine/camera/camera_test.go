package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraDirection(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{0, 0, 10}), WithTarget(mgl32.Vec3{0, 0, 0}))
	assert.InDelta(t, -1, c.Direction().Z(), 1e-6)

	c.SetTarget(c.Position())
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, c.Direction())
}

func TestCameraVisibility(t *testing.T) {
	c := NewCamera(
		WithPosition(mgl32.Vec3{0, 0, 10}),
		WithTarget(mgl32.Vec3{0, 0, 0}),
		WithFar(50),
	)

	inFront := common.NewAABB(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	behind := common.NewAABB(mgl32.Vec3{-1, -1, 20}, mgl32.Vec3{1, 1, 22})
	beyondFar := common.NewAABB(mgl32.Vec3{-1, -1, -100}, mgl32.Vec3{1, 1, -90})

	assert.True(t, c.IsVisible(inFront))
	assert.False(t, c.IsVisible(behind))
	assert.False(t, c.IsVisible(beyondFar))
	assert.False(t, c.IsVisible(common.EmptyAABB()))
}

func TestCameraFollowsController(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithAngles(0, 0))
	c := NewCamera(WithController(ctrl))
	require.Equal(t, ctrl, c.Controller())
	assert.InDelta(t, 10, c.Position().Z(), 1e-4)

	ctrl.Zoom(4)
	assert.InDelta(t, 10, c.Position().Z(), 1e-4)
	c.Update()
	assert.InDelta(t, 6, c.Position().Z(), 1e-4)
}

func TestOrbitControllerClamps(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(5), WithRadiusBounds(2, 8))
	ctrl.Zoom(100)
	assert.Equal(t, float32(2), ctrl.Radius())
	ctrl.Zoom(-100)
	assert.Equal(t, float32(8), ctrl.Radius())

	ctrl.Orbit(0, 10)
	pos := ctrl.Position()
	assert.Less(t, pos.Y(), float32(8))
	assert.Greater(t, pos.Y(), float32(7.9))
}

func TestGPUCameraUniformMarshal(t *testing.T) {
	c := NewCamera()
	u := NewGPUCameraUniform(c)
	buf := u.Marshal()
	assert.Len(t, buf, 96)
	assert.Equal(t, u.Size(), len(buf))
}
