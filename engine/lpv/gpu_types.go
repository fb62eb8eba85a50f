package lpv

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUGrid is the GPU-aligned representation of one cascade grid.
// Size: 32 bytes (std140 / WGSL aligned).
type GPUGrid struct {
	Min        mgl32.Vec3 // offset  0: world-space grid origin
	CellSize   float32    // offset 12: cell size in world units
	Dimensions [3]uint32  // offset 16: cells per axis
	Cascade    uint32     // offset 28: cascade index
}

// Size returns the size of the GPUGrid struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUGrid) Size() int {
	return 32
}

// Marshal serializes the grid into a 32-byte buffer.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUGrid) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Min[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Min[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Min[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.CellSize))
	binary.LittleEndian.PutUint32(buf[16:20], g.Dimensions[0])
	binary.LittleEndian.PutUint32(buf[20:24], g.Dimensions[1])
	binary.LittleEndian.PutUint32(buf[24:28], g.Dimensions[2])
	binary.LittleEndian.PutUint32(buf[28:32], g.Cascade)
	return buf
}

// GPUGridConfig is the grid config UBO bound by propagation and indirect lighting.
// Size: 112 bytes.
//
// Layout:
//
//	GPUGrid grids[3]       (96 bytes, offset 0)
//	u32     cascade_count  ( 4 bytes, offset 96)
//	u32     steps          ( 4 bytes, offset 100)
//	vec2    _pad           ( 8 bytes, offset 104)
type GPUGridConfig struct {
	Grids        [MaxCascadesCount]GPUGrid
	CascadeCount uint32
	Steps        uint32
}

// Size returns the size of the GPUGridConfig struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (c *GPUGridConfig) Size() int {
	return 112
}

// Marshal serializes the config into a 112-byte buffer.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload
func (c *GPUGridConfig) Marshal() []byte {
	buf := make([]byte, 112)
	for i := range c.Grids {
		copy(buf[i*32:(i+1)*32], c.Grids[i].Marshal())
	}
	binary.LittleEndian.PutUint32(buf[96:100], c.CascadeCount)
	binary.LittleEndian.PutUint32(buf[100:104], c.Steps)
	return buf
}

// GPULightInjection is the per-light, per-cascade injection UBO.
// Size: 64 bytes (std140 / WGSL aligned).
type GPULightInjection struct {
	Color       [3]float32 // offset  0: color pre-multiplied by intensity
	LightType   uint32     // offset 12
	Position    [3]float32 // offset 16
	Range       float32    // offset 28
	Direction   [3]float32 // offset 32
	ShadowIndex int32      // offset 44: first RSM layer of the light's slot, -1 when none
	Faces       uint32     // offset 48: RSM layers per slot
	Cascade     uint32     // offset 52
	RSMSize     uint32     // offset 56: downsampled RSM width in texels
	Geometry    uint32     // offset 60: 1 when geometry occlusion is injected
}

// Size returns the size of the GPULightInjection struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULightInjection) Size() int {
	return 64
}

// Marshal serializes the injection config into a 64-byte buffer.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULightInjection) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Range))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[44:48], uint32(g.ShadowIndex))
	binary.LittleEndian.PutUint32(buf[48:52], g.Faces)
	binary.LittleEndian.PutUint32(buf[52:56], g.Cascade)
	binary.LittleEndian.PutUint32(buf[56:60], g.RSMSize)
	binary.LittleEndian.PutUint32(buf[60:64], g.Geometry)
	return buf
}
