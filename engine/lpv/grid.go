package lpv

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Grid describes the voxel grid of one cascade.
type Grid struct {
	Min        mgl32.Vec3
	CellSize   float32
	Dimensions [3]uint32
	Cascade    int
}

// Extent returns the world-space size of the grid.
func (g Grid) Extent() mgl32.Vec3 {
	return mgl32.Vec3{
		g.CellSize * float32(g.Dimensions[0]),
		g.CellSize * float32(g.Dimensions[1]),
		g.CellSize * float32(g.Dimensions[2]),
	}
}

// Bounds returns the world-space box covered by the grid.
func (g Grid) Bounds() common.AABB {
	return common.AABB{Min: g.Min, Max: g.Min.Add(g.Extent())}
}

// Center returns the world-space center of the grid.
func (g Grid) Center() mgl32.Vec3 {
	return g.Bounds().Center()
}

// ToGPU converts the grid into its uniform representation.
func (g Grid) ToGPU() GPUGrid {
	return GPUGrid{
		Min:        g.Min,
		CellSize:   g.CellSize,
		Dimensions: g.Dimensions,
		Cascade:    uint32(g.Cascade),
	}
}

func checkCascade(cascade, count int) {
	if cascade < 0 || cascade >= count {
		panic(fmt.Sprintf("lpv: cascade %d out of range [0, %d)", cascade, count))
	}
}

// ComputeGrids derives the grids of every cascade covering region.
//
// The coarsest cascade is centered on region and covers its largest side. Each finer
// cascade halves the cell size and is centered ahead of the camera, a quarter of its
// extent along dir from eye. Every grid origin is snapped to its own cell size so
// that the volume does not swim as the camera moves. An empty region falls back to a
// DefaultGridExtent box around eye.
//
// Parameters:
//   - region: the world-space region to cover
//   - eye: the camera position
//   - dir: the normalized camera direction
//   - dims: the cells per axis
//   - cascades: the number of cascades in [1, MaxCascadesCount]
//
// Returns:
//   - []Grid: one grid per cascade, finest first
func ComputeGrids(region common.AABB, eye, dir mgl32.Vec3, dims uint32, cascades int) []Grid {
	checkCascade(cascades-1, MaxCascadesCount)
	dims = max(dims, 1)
	if region.IsEmpty() {
		half := DefaultGridExtent / 2
		region = common.AABB{
			Min: eye.Sub(mgl32.Vec3{half, half, half}),
			Max: eye.Add(mgl32.Vec3{half, half, half}),
		}
	}

	coarsest := region.MaxExtent() / float32(dims)
	base := max(coarsest/float32(uint32(1)<<(cascades-1)), MinCellSize)

	grids := make([]Grid, cascades)
	for c := range grids {
		cell := base * float32(uint32(1)<<c)
		extent := cell * float32(dims)
		center := region.Center()
		if c < cascades-1 {
			center = eye.Add(dir.Mul(extent * 0.25))
		}
		half := extent / 2
		grids[c] = Grid{
			Min:        common.SnapToGrid(center.Sub(mgl32.Vec3{half, half, half}), cell),
			CellSize:   cell,
			Dimensions: [3]uint32{dims, dims, dims},
			Cascade:    c,
		}
	}
	return grids
}
