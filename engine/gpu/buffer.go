package gpu

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// BufferUsage is a bit set of the ways a buffer may be accessed.
type BufferUsage uint32

const (
	BufferUsageUniform BufferUsage = 1 << iota
	BufferUsageStorage
	BufferUsageTransferDst
)

// BufferDesc describes the GPU resource behind a Buffer.
type BufferDesc struct {
	Size  uint64
	Usage BufferUsage
}

// NativeBuffer is the backend resource behind a created Buffer.
type NativeBuffer interface {
	Release()
}

// Buffer is an opaque GPU buffer handle with the same lifecycle rules as Texture.
type Buffer struct {
	mu     sync.Mutex
	id     uuid.UUID
	name   string
	desc   BufferDesc
	native NativeBuffer
}

// NewBuffer creates an uncreated buffer handle.
//
// Parameters:
//   - name: a debug name for the buffer
//   - desc: the resource description
//
// Returns:
//   - *Buffer: the new handle
func NewBuffer(name string, desc BufferDesc) *Buffer {
	return &Buffer{
		id:   uuid.New(),
		name: name,
		desc: desc,
	}
}

func (b *Buffer) ID() uuid.UUID    { return b.id }
func (b *Buffer) Name() string     { return b.name }
func (b *Buffer) Desc() BufferDesc { return b.desc }

// Created reports whether the GPU resource currently exists.
func (b *Buffer) Created() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.native != nil
}

// Native returns the backend resource, or nil if the buffer is not created.
func (b *Buffer) Native() NativeBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.native
}

// Create allocates the GPU resource on device. Calling Create on a created buffer is a no-op.
func (b *Buffer) Create(device Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.native != nil {
		return nil
	}
	native, err := device.CreateBuffer(b)
	if err != nil {
		return fmt.Errorf("failed to create buffer %s: %w", b.name, err)
	}
	b.native = native
	return nil
}

// Destroy releases the GPU resource.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.native == nil {
		return
	}
	b.native.Release()
	b.native = nil
}

// String implements fmt.Stringer.
func (b *Buffer) String() string {
	return b.name
}
