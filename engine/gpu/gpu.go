// Package gpu defines the device-facing side of the frame orchestration layer:
// resource handles with a lifecycle independent of any frame graph, command buffers,
// queues and the semaphore wait-arrays used to chain independently compiled graphs.
//
// The package does not bind a graphics API. Backends (see wgpu_backend and gputest)
// implement Device, Queue and CommandBuffer.
package gpu

import "errors"

var (
	// ErrSemaphoreNotSignalled is returned by a queue when a submission waits on a
	// semaphore value that no earlier submission has signalled.
	ErrSemaphoreNotSignalled = errors.New("gpu: wait on semaphore that was never signalled")

	// ErrTextureNotCreated is returned when a command references a texture whose GPU
	// resource has not been created yet.
	ErrTextureNotCreated = errors.New("gpu: texture not created")

	// ErrBufferNotCreated is returned when a write targets a buffer whose GPU resource
	// has not been created yet.
	ErrBufferNotCreated = errors.New("gpu: buffer not created")
)

// Device creates GPU resources and command buffers and exposes the submission queue.
type Device interface {
	// CreateTexture allocates the native resource backing t.
	//
	// Parameters:
	//   - t: the texture handle describing the resource
	//
	// Returns:
	//   - NativeTexture: the backend resource
	//   - error: error if allocation fails
	CreateTexture(t *Texture) (NativeTexture, error)

	// CreateBuffer allocates the native resource backing b.
	//
	// Parameters:
	//   - b: the buffer handle describing the resource
	//
	// Returns:
	//   - NativeBuffer: the backend resource
	//   - error: error if allocation fails
	CreateBuffer(b *Buffer) (NativeBuffer, error)

	// NewCommandBuffer opens a command buffer ready for recording.
	//
	// Parameters:
	//   - label: a debug label for the command buffer
	//
	// Returns:
	//   - CommandBuffer: the recording command buffer
	//   - error: error if the command buffer could not be created
	NewCommandBuffer(label string) (CommandBuffer, error)

	// NewSemaphore creates an unsignalled semaphore.
	//
	// Parameters:
	//   - label: a debug label for the semaphore
	//
	// Returns:
	//   - *Semaphore: the new semaphore
	NewSemaphore(label string) *Semaphore

	// Queue returns the device's submission queue.
	Queue() Queue
}

// Queue submits recorded work to the GPU.
type Queue interface {
	// Submit executes cb once every wait in waits is satisfied and signals signal
	// when done. signal may be nil.
	//
	// Parameters:
	//   - cb: a finished command buffer
	//   - waits: semaphores the submission must wait on
	//   - signal: the semaphore to signal on completion, or nil
	//
	// Returns:
	//   - error: error if the submission is rejected
	Submit(cb CommandBuffer, waits SemaphoreWaits, signal *Semaphore) error

	// WriteBuffer uploads data into b at offset.
	//
	// Parameters:
	//   - b: the destination buffer (must be created)
	//   - offset: byte offset into the buffer
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: error if the buffer was not created
	WriteBuffer(b *Buffer, offset uint64, data []byte) error
}

// Binding attaches a texture or buffer to a program binding point for one command.
type Binding struct {
	Index   uint32
	Texture *Texture
	Buffer  *Buffer
	// Layer selects a single array layer of Texture; -1 binds all layers.
	Layer int
}

// TextureBinding binds every layer of t at index.
func TextureBinding(index uint32, t *Texture) Binding {
	return Binding{Index: index, Texture: t, Layer: -1}
}

// LayerBinding binds a single array layer of t at index.
func LayerBinding(index uint32, t *Texture, layer int) Binding {
	return Binding{Index: index, Texture: t, Layer: layer}
}

// BufferBinding binds b at index.
func BufferBinding(index uint32, b *Buffer) Binding {
	return Binding{Index: index, Buffer: b, Layer: -1}
}

// Attachment is one render target of a draw.
type Attachment struct {
	Texture *Texture
	// Layer selects a single array layer of Texture; -1 uses the default view.
	Layer int
	// Clear replaces the previous contents with ClearValue before drawing.
	Clear      bool
	ClearValue [4]float32
}

// Target attaches every layer of t, keeping its contents.
func Target(t *Texture) Attachment {
	return Attachment{Texture: t, Layer: -1}
}

// ClearedLayer attaches one layer of t, cleared to value before drawing.
func ClearedLayer(t *Texture, layer int, value [4]float32) Attachment {
	return Attachment{Texture: t, Layer: layer, Clear: true, ClearValue: value}
}

// Recorder is the command-recording surface handed to frame pass callbacks.
type Recorder interface {
	// BeginPass opens a labelled pass scope. Every command until EndPass belongs to it.
	BeginPass(name string)

	// EndPass closes the scope opened by BeginPass.
	EndPass()

	// ClearTexture fills every layer of t with value.
	ClearTexture(t *Texture, value [4]float32)

	// Dispatch runs the compute program named program.
	Dispatch(program string, groups [3]uint32, bindings []Binding)

	// Draw runs the graphics program named program, writing into targets. A draw with
	// zero vertices only applies the attachment clears.
	Draw(program string, vertexCount, instanceCount uint32, targets []Attachment, bindings []Binding)

	// CopyTexture copies the full contents of src into dst.
	CopyTexture(src, dst *Texture)
}

// CommandBuffer is a Recorder whose contents can be finished and submitted.
type CommandBuffer interface {
	Recorder

	// Label returns the debug label given at creation.
	Label() string

	// Finish closes recording. The buffer can be submitted any number of times afterwards.
	//
	// Returns:
	//   - error: error if recording failed
	Finish() error

	// Release frees the backend resources of the command buffer.
	Release()
}
