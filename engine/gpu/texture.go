package gpu

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/google/uuid"
)

// TextureFormat is the texel format of a texture.
type TextureFormat int

const (
	FormatRGBA8Unorm TextureFormat = iota
	FormatRGBA16Float
	FormatRGBA32Float
	FormatRG16Float
	FormatR16Float
	FormatR32Float
	FormatR32Uint
	FormatDepth32Float
)

// String returns the format name used in debug output.
func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "rgba8unorm"
	case FormatRGBA16Float:
		return "rgba16float"
	case FormatRGBA32Float:
		return "rgba32float"
	case FormatRG16Float:
		return "rg16float"
	case FormatR16Float:
		return "r16float"
	case FormatR32Float:
		return "r32float"
	case FormatR32Uint:
		return "r32uint"
	case FormatDepth32Float:
		return "depth32float"
	}
	return fmt.Sprintf("TextureFormat(%d)", int(f))
}

// TextureDimension distinguishes 2D (possibly layered) textures from volume textures.
type TextureDimension int

const (
	Dimension2D TextureDimension = iota
	Dimension3D
)

// TextureUsage is a bit set of the ways a texture may be accessed.
type TextureUsage uint32

const (
	UsageSampled TextureUsage = 1 << iota
	UsageStorage
	UsageColorAttachment
	UsageDepthAttachment
	UsageTransferSrc
	UsageTransferDst
)

// Has reports whether every bit of flag is set.
func (u TextureUsage) Has(flag TextureUsage) bool {
	return u&flag == flag
}

// TextureDesc describes the GPU resource behind a Texture.
type TextureDesc struct {
	Format    TextureFormat
	Dimension TextureDimension
	Width     uint32
	Height    uint32
	// Depth is the number of slices of a volume texture.
	Depth uint32
	// Layers is the number of array layers of a 2D texture.
	Layers    uint32
	MipLevels uint32
	Usage     TextureUsage
}

// NativeTexture is the backend resource behind a created Texture.
type NativeTexture interface {
	Release()
}

// Texture is an opaque GPU image handle. Its identity and description exist before the
// GPU resource does; Create allocates the resource on a device and Destroy frees it.
// The lifecycle is independent of any frame graph that references the texture.
type Texture struct {
	mu     sync.Mutex
	id     uuid.UUID
	name   string
	desc   TextureDesc
	native NativeTexture
}

// NewTexture creates an uncreated texture handle. Zero Width, Height, Depth, Layers and
// MipLevels default to 1.
//
// Parameters:
//   - name: a debug name for the texture
//   - desc: the resource description
//
// Returns:
//   - *Texture: the new handle
func NewTexture(name string, desc TextureDesc) *Texture {
	desc.Width = common.Coalesce(desc.Width, 1)
	desc.Height = common.Coalesce(desc.Height, 1)
	desc.Depth = common.Coalesce(desc.Depth, 1)
	desc.Layers = common.Coalesce(desc.Layers, 1)
	desc.MipLevels = common.Coalesce(desc.MipLevels, 1)
	return &Texture{
		id:   uuid.New(),
		name: name,
		desc: desc,
	}
}

func (t *Texture) ID() uuid.UUID     { return t.id }
func (t *Texture) Name() string      { return t.name }
func (t *Texture) Desc() TextureDesc { return t.desc }

// Created reports whether the GPU resource currently exists.
func (t *Texture) Created() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.native != nil
}

// Native returns the backend resource, or nil if the texture is not created.
func (t *Texture) Native() NativeTexture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.native
}

// Create allocates the GPU resource on device. Calling Create on a created texture is a no-op.
//
// Parameters:
//   - device: the device to allocate on
//
// Returns:
//   - error: error if allocation fails
func (t *Texture) Create(device Device) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.native != nil {
		return nil
	}
	native, err := device.CreateTexture(t)
	if err != nil {
		return fmt.Errorf("failed to create texture %s: %w", t.name, err)
	}
	t.native = native
	return nil
}

// Destroy releases the GPU resource. The handle stays valid and may be created again.
func (t *Texture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.native == nil {
		return
	}
	t.native.Release()
	t.native = nil
}

// String implements fmt.Stringer.
func (t *Texture) String() string {
	return t.name
}
