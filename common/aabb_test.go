package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestAABBUnionWithEmpty(t *testing.T) {
	box := NewAABB(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{-1, -2, -3})
	assert.Equal(t, mgl32.Vec3{-1, -2, -3}, box.Min)
	assert.Equal(t, box, EmptyAABB().Union(box))
	assert.Equal(t, box, box.Union(EmptyAABB()))
	assert.True(t, EmptyAABB().IsEmpty())
	assert.Equal(t, float32(0), EmptyAABB().MaxExtent())
	assert.Equal(t, float32(6), box.MaxExtent())
}

func TestAABBTransform(t *testing.T) {
	box := NewAABB(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})

	moved := box.Transform(mgl32.Translate3D(10, 0, 0))
	assert.InDelta(t, 9, moved.Min.X(), 1e-5)
	assert.InDelta(t, 11, moved.Max.X(), 1e-5)

	rotated := box.Transform(mgl32.HomogRotate3DY(mgl32.DegToRad(45)))
	assert.InDelta(t, 1.41421, rotated.Max.X(), 1e-4)
	assert.True(t, rotated.Contains(mgl32.Vec3{0, 0, 0}))
}

func TestAABBIntersection(t *testing.T) {
	a := NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})
	b := NewAABB(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{3, 3, 3})
	c := NewAABB(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{6, 6, 6})

	assert.Equal(t, NewAABB(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 2, 2}), a.Intersection(b))
	assert.True(t, a.Intersection(c).IsEmpty())
}

func TestSnapToGrid(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{2, -4, 0}, SnapToGrid(mgl32.Vec3{3.5, -2.1, 1.9}, 2))
	assert.Equal(t, mgl32.Vec3{3.5, 1, 1}, SnapToGrid(mgl32.Vec3{3.5, 1, 1}, 0))
}

func TestFrustumIntersectsAABB(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := ExtractFrustum(proj.Mul4(view))

	assert.True(t, f.IntersectsAABB(NewAABB(mgl32.Vec3{-1, -1, -11}, mgl32.Vec3{1, 1, -9})))
	assert.False(t, f.IntersectsAABB(NewAABB(mgl32.Vec3{-1, -1, 5}, mgl32.Vec3{1, 1, 6})))
	assert.False(t, f.IntersectsAABB(NewAABB(mgl32.Vec3{50, -1, -11}, mgl32.Vec3{52, 1, -9})))
	assert.True(t, f.IntersectsAABB(NewAABB(mgl32.Vec3{-1, -1, -99}, mgl32.Vec3{1, 1, -150})))

	n := f.Planes[FrustumNear].Normal
	assert.InDelta(t, 1, n.Len(), 1e-5)
}

func TestClampAndCoalesce(t *testing.T) {
	assert.Equal(t, 3, Clamp(5, 0, 3))
	assert.Equal(t, 0, Clamp(-1, 0, 3))
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, uint32(0), Coalesce[uint32]())
}
