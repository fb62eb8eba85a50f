package lpv

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGridsCascadeOrdering(t *testing.T) {
	region := common.NewAABB(mgl32.Vec3{-64, -8, -64}, mgl32.Vec3{64, 8, 64})
	grids := ComputeGrids(region, mgl32.Vec3{0, 2, 0}, mgl32.Vec3{0, 0, -1}, 32, MaxCascadesCount)
	require.Len(t, grids, MaxCascadesCount)

	for i := 0; i+1 < len(grids); i++ {
		assert.LessOrEqual(t, grids[i].CellSize, grids[i+1].CellSize)
		assert.InDelta(t, grids[i].CellSize*2, grids[i+1].CellSize, 1e-5)
		assert.Equal(t, i, grids[i].Cascade)
	}
	assert.InDelta(t, 4.0, grids[MaxCascadesCount-1].CellSize, 1e-5)
	assert.Equal(t, [3]uint32{32, 32, 32}, grids[0].Dimensions)
}

func TestComputeGridsSnapsOrigin(t *testing.T) {
	region := common.NewAABB(mgl32.Vec3{0.3, 0.3, 0.3}, mgl32.Vec3{32.3, 32.3, 32.3})
	grid := ComputeGrids(region, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 32, 1)[0]
	assert.InDelta(t, 1.0, grid.CellSize, 1e-5)
	for i := 0; i < 3; i++ {
		_, frac := math.Modf(float64(grid.Min[i] / grid.CellSize))
		assert.InDelta(t, 0, frac, 1e-5)
	}
	assert.True(t, grid.Bounds().Contains(region.Center()))
}

func TestComputeGridsEmptyRegionFallsBackToCamera(t *testing.T) {
	eye := mgl32.Vec3{100, 0, 100}
	grid := ComputeGrids(common.EmptyAABB(), eye, mgl32.Vec3{0, 0, -1}, 32, 1)[0]
	assert.InDelta(t, DefaultGridExtent/32, grid.CellSize, 1e-5)
	assert.True(t, grid.Bounds().Contains(eye))
}

func TestComputeGridsMinimumCellSize(t *testing.T) {
	tiny := common.NewAABB(mgl32.Vec3{}, mgl32.Vec3{0.01, 0.01, 0.01})
	grids := ComputeGrids(tiny, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 32, 2)
	assert.Equal(t, MinCellSize, grids[0].CellSize)
}

func TestComputeGridsCascadeOutOfRangePanics(t *testing.T) {
	assert.Panics(t, func() {
		ComputeGrids(common.EmptyAABB(), mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 32, MaxCascadesCount+1)
	})
	assert.Panics(t, func() {
		NewLightVolumePassResult("bad", 0, 32)
	})
}

func TestResultUpdateGridsClipsToScene(t *testing.T) {
	r := NewLightVolumePassResult("lpv", 1, 32)
	r.ExpandRegion(common.NewAABB(mgl32.Vec3{-100, -100, -100}, mgl32.Vec3{100, 100, 100}))
	scene := common.NewAABB(mgl32.Vec3{-16, -16, -16}, mgl32.Vec3{16, 16, 16})

	grids := r.UpdateGrids(scene, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	assert.InDelta(t, 1.0, grids[0].CellSize, 1e-5)
	assert.Equal(t, grids, r.Grids())

	r.ResetRegion()
	assert.True(t, r.Region().IsEmpty())
	grids = r.UpdateGrids(scene, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	assert.InDelta(t, 1.0, grids[0].CellSize, 1e-5)
}

func TestGridConfigMarshal(t *testing.T) {
	r := NewLightVolumePassResult("llpv", MaxCascadesCount, 16)
	r.UpdateGrids(common.NewAABB(mgl32.Vec3{-8, -8, -8}, mgl32.Vec3{8, 8, 8}), mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})

	cfg := r.GPUConfig()
	buf := cfg.Marshal()
	require.Len(t, buf, cfg.Size())
	assert.Equal(t, uint32(MaxCascadesCount), binary.LittleEndian.Uint32(buf[96:100]))
	assert.Equal(t, uint32(MaxPropagationSteps), binary.LittleEndian.Uint32(buf[100:104]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[2*32+28:2*32+32]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(buf[16:20]))
}

func TestResultBindings(t *testing.T) {
	r := NewLightVolumePassResult("llpv", MaxCascadesCount, 16)
	bindings := r.Bindings(LlpvGridConfigBinding)
	require.Len(t, bindings, 1+3*MaxCascadesCount)
	assert.Equal(t, r.Config(), bindings[0].Buffer)
	assert.Equal(t, LlpvGridConfigBinding, bindings[0].Index)
	assert.Equal(t, r.Channels(1)[0], bindings[4].Texture)
	assert.Equal(t, uint32(8), bindings[4].Index)
}
