package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the signed distance of p to the plane. Positive values
// lie in the half-space the normal points into.
func (p Plane) SignedDistance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix using the OpenGL
// clip-space convention produced by mgl32.Perspective.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined view-projection matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	var f Frustum
	row := func(i int) mgl32.Vec4 { return viewProj.Row(i) }

	planes := [6]mgl32.Vec4{
		row(3).Add(row(0)), // left
		row(3).Sub(row(0)), // right
		row(3).Add(row(1)), // bottom
		row(3).Sub(row(1)), // top
		row(3).Add(row(2)), // near
		row(3).Sub(row(2)), // far
	}

	for i, p := range planes {
		f.Planes[i] = Plane{
			Normal:   mgl32.Vec3{p[0], p[1], p[2]},
			Distance: p[3],
		}
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := p.Normal.Len()
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
}

// IntersectsAABB reports whether the box is at least partially inside the frustum.
// For each plane the box corner furthest along the plane normal (the positive vertex)
// is tested; if that corner is behind any plane the whole box is outside.
//
// Parameters:
//   - box: the world-space box to test
//
// Returns:
//   - bool: true if the box is visible
func (f *Frustum) IntersectsAABB(box AABB) bool {
	for i := range f.Planes {
		plane := f.Planes[i]
		var p mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane.Normal[axis] > 0 {
				p[axis] = box.Max[axis]
			} else {
				p[axis] = box.Min[axis]
			}
		}
		if plane.SignedDistance(p) < 0 {
			return false
		}
	}
	return true
}
