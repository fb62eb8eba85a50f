package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in world or local space.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns an inverted box that acts as the identity for Union.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// NewAABB builds a box from two corners given in any order.
func NewAABB(a, b mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])},
		Max: mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])},
	}
}

// IsEmpty reports whether the box encloses no volume at all.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Dimensions returns the box size along each axis.
func (b AABB) Dimensions() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// MaxExtent returns the largest side length of the box, or 0 for an empty box.
func (b AABB) MaxExtent() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Dimensions()
	return max(d[0], d[1], d[2])
}

// Union returns the smallest box enclosing both boxes.
func (b AABB) Union(o AABB) AABB {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return AABB{
		Min: mgl32.Vec3{min(b.Min[0], o.Min[0]), min(b.Min[1], o.Min[1]), min(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{max(b.Max[0], o.Max[0]), max(b.Max[1], o.Max[1]), max(b.Max[2], o.Max[2])},
	}
}

// Intersection returns the overlap of both boxes, which may be empty.
func (b AABB) Intersection(o AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{max(b.Min[0], o.Min[0]), max(b.Min[1], o.Min[1]), max(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{min(b.Max[0], o.Max[0]), min(b.Max[1], o.Max[1]), min(b.Max[2], o.Max[2])},
	}
}

// Contains reports whether p lies inside or on the boundary of the box.
func (b AABB) Contains(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Transform returns the world-space box enclosing the eight corners of b
// transformed by m.
//
// Parameters:
//   - m: the local-to-world transform
//
// Returns:
//   - AABB: the enclosing box in the destination space
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		p := mgl32.TransformCoordinate(corner, m)
		out = out.Union(AABB{Min: p, Max: p})
	}
	return out
}

// SnapToGrid rounds every component of v down to a multiple of cell.
// A non-positive cell size returns v unchanged.
func SnapToGrid(v mgl32.Vec3, cell float32) mgl32.Vec3 {
	if cell <= 0 {
		return v
	}
	for i := range v {
		v[i] = float32(math.Floor(float64(v[i]/cell))) * cell
	}
	return v
}
