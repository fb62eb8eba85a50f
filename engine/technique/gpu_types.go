package technique

import (
	"encoding/binary"
	"unsafe"
)

// GI flag bits of GPUTechniqueCounters.GIFlags.
const (
	GIFlagLpv uint32 = 1 << iota
	GIFlagLayeredLpv
	GIFlagVoxelConeTracing
	GIFlagSSAO
)

// GPUTechniqueCounters is the GPU-aligned per-frame counter block read by the
// lighting passes.
// Size: 32 bytes (std140 aligned).
type GPUTechniqueCounters struct {
	Frame         uint32    // offset  0: frame index (wraps)
	LightCount    uint32    // offset  4: lights in the light buffer
	ShadowCasters [3]uint32 // offset  8: active shadow slots per light type
	GIFlags       uint32    // offset 20: GIFlag* bits
	Width         uint32    // offset 24: render width in pixels
	Height        uint32    // offset 28: render height in pixels
}

// Size returns the size of the GPUTechniqueCounters struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (c *GPUTechniqueCounters) Size() int {
	return int(unsafe.Sizeof(*c))
}

// Marshal serializes the counters into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (c *GPUTechniqueCounters) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], c.Frame)
	binary.LittleEndian.PutUint32(buf[4:8], c.LightCount)
	for i, n := range c.ShadowCasters {
		binary.LittleEndian.PutUint32(buf[8+i*4:12+i*4], n)
	}
	binary.LittleEndian.PutUint32(buf[20:24], c.GIFlags)
	binary.LittleEndian.PutUint32(buf[24:28], c.Width)
	binary.LittleEndian.PutUint32(buf[28:32], c.Height)
	return buf
}
