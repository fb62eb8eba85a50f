package framegraph

import (
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/google/uuid"
)

// AccessMode declares how a pass touches a resource view.
type AccessMode int

const (
	// AccessSampled reads a texture through a sampler.
	AccessSampled AccessMode = iota
	// AccessOutput writes a texture as a render target.
	AccessOutput
	// AccessTransferSrc reads a texture as a copy source.
	AccessTransferSrc
	// AccessTransferDst writes a texture as a copy or clear destination.
	AccessTransferDst
	// AccessStorage reads and writes a resource as storage.
	AccessStorage
	// AccessUniform reads a buffer as uniform data.
	AccessUniform
)

func (a AccessMode) String() string {
	switch a {
	case AccessSampled:
		return "sampled"
	case AccessOutput:
		return "output"
	case AccessTransferSrc:
		return "transfer-src"
	case AccessTransferDst:
		return "transfer-dst"
	case AccessStorage:
		return "storage"
	case AccessUniform:
		return "uniform"
	}
	return "unknown"
}

// Reads reports whether the access observes the previous contents of the resource.
func (a AccessMode) Reads() bool {
	return a == AccessSampled || a == AccessTransferSrc || a == AccessStorage || a == AccessUniform
}

// Writes reports whether the access modifies the resource.
func (a AccessMode) Writes() bool {
	return a == AccessOutput || a == AccessTransferDst || a == AccessStorage
}

// View is one declared resource access of a frame pass. Exactly one of Texture or
// Buffer is set.
type View struct {
	Texture *gpu.Texture
	Buffer  *gpu.Buffer
	Access  AccessMode
}

// TextureView declares an access to t.
func TextureView(t *gpu.Texture, access AccessMode) View {
	return View{Texture: t, Access: access}
}

// BufferView declares an access to b.
func BufferView(b *gpu.Buffer, access AccessMode) View {
	return View{Buffer: b, Access: access}
}

// Sampled is shorthand for TextureView(t, AccessSampled).
func Sampled(t *gpu.Texture) View { return TextureView(t, AccessSampled) }

// Output is shorthand for TextureView(t, AccessOutput).
func Output(t *gpu.Texture) View { return TextureView(t, AccessOutput) }

// Storage is shorthand for TextureView(t, AccessStorage).
func Storage(t *gpu.Texture) View { return TextureView(t, AccessStorage) }

// Uniform is shorthand for BufferView(b, AccessUniform).
func Uniform(b *gpu.Buffer) View { return BufferView(b, AccessUniform) }

// resource returns the identity of the viewed resource.
func (v View) resource() uuid.UUID {
	if v.Texture != nil {
		return v.Texture.ID()
	}
	if v.Buffer != nil {
		return v.Buffer.ID()
	}
	return uuid.Nil
}

func (v View) resourceName() string {
	if v.Texture != nil {
		return v.Texture.Name()
	}
	if v.Buffer != nil {
		return v.Buffer.Name()
	}
	return "<nil>"
}
