// Package gputest provides a recording gpu.Device for tests and headless runs.
// Nothing is executed; every resource creation, command and submission is logged
// so that ordering and synchronisation properties can be asserted.
package gputest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/google/uuid"
)

// CommandKind identifies a recorded command.
type CommandKind int

const (
	CmdBeginPass CommandKind = iota
	CmdEndPass
	CmdClear
	CmdDispatch
	CmdDraw
	CmdCopy
)

// Command is one recorded command.
type Command struct {
	Kind     CommandKind
	Pass     string
	Program  string
	Textures []uuid.UUID
	Bindings []gpu.Binding
	// Targets holds the attachments of a draw.
	Targets []gpu.Attachment
}

// Wait is a recorded semaphore wait.
type Wait struct {
	Label string
	Value uint64
}

// Submission is one recorded queue submission.
type Submission struct {
	Index       int
	Label       string
	Passes      []string
	Waits       []Wait
	Signal      string
	SignalValue uint64
}

// Device implements gpu.Device and gpu.Queue by recording calls.
type Device struct {
	mu sync.Mutex

	created     map[uuid.UUID]string
	destroyed   []string
	buffers     map[uuid.UUID][]byte
	submissions []Submission

	// FailTextures makes CreateTexture fail for the named textures.
	FailTextures map[string]bool
}

var (
	_ gpu.Device = &Device{}
	_ gpu.Queue  = &Device{}
)

// NewDevice creates an empty recording device.
func NewDevice() *Device {
	return &Device{
		created: make(map[uuid.UUID]string),
		buffers: make(map[uuid.UUID][]byte),
	}
}

type nativeTexture struct {
	d    *Device
	id   uuid.UUID
	name string
}

func (n *nativeTexture) Release() {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	delete(n.d.created, n.id)
	n.d.destroyed = append(n.d.destroyed, n.name)
}

type nativeBuffer struct {
	d  *Device
	id uuid.UUID
}

func (n *nativeBuffer) Release() {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	delete(n.d.buffers, n.id)
}

func (d *Device) CreateTexture(t *gpu.Texture) (gpu.NativeTexture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailTextures[t.Name()] {
		return nil, fmt.Errorf("gputest: forced failure for %s", t.Name())
	}
	d.created[t.ID()] = t.Name()
	return &nativeTexture{d: d, id: t.ID(), name: t.Name()}, nil
}

func (d *Device) CreateBuffer(b *gpu.Buffer) (gpu.NativeBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffers[b.ID()] = make([]byte, b.Desc().Size)
	return &nativeBuffer{d: d, id: b.ID()}, nil
}

func (d *Device) NewCommandBuffer(label string) (gpu.CommandBuffer, error) {
	return &CommandBuffer{label: label}, nil
}

func (d *Device) NewSemaphore(label string) *gpu.Semaphore {
	return gpu.NewSemaphore(label)
}

func (d *Device) Queue() gpu.Queue {
	return d
}

func (d *Device) Submit(cb gpu.CommandBuffer, waits gpu.SemaphoreWaits, signal *gpu.Semaphore) error {
	if err := waits.Validate(); err != nil {
		return err
	}
	rec, ok := cb.(*CommandBuffer)
	if !ok {
		return fmt.Errorf("gputest: foreign command buffer %T", cb)
	}
	if !rec.finished {
		return fmt.Errorf("gputest: command buffer %s submitted before Finish", rec.label)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	sub := Submission{
		Index:  len(d.submissions),
		Label:  rec.label,
		Passes: rec.Passes(),
	}
	for _, w := range waits {
		if w.Semaphore == nil {
			continue
		}
		sub.Waits = append(sub.Waits, Wait{Label: w.Semaphore.Label(), Value: w.Value})
	}
	if signal != nil {
		sub.Signal = signal.Label()
		sub.SignalValue = signal.Signal()
	}
	d.submissions = append(d.submissions, sub)
	return nil
}

func (d *Device) WriteBuffer(b *gpu.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[b.ID()]
	if !ok {
		return fmt.Errorf("%w: %s", gpu.ErrBufferNotCreated, b.Name())
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("gputest: write of %d bytes at %d overflows %s (%d bytes)", len(data), offset, b.Name(), len(buf))
	}
	copy(buf[offset:], data)
	return nil
}

// Submissions returns a copy of every recorded submission in order.
func (d *Device) Submissions() []Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Submission(nil), d.submissions...)
}

// SubmissionLabels returns the labels of every recorded submission in order.
func (d *Device) SubmissionLabels() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	labels := make([]string, len(d.submissions))
	for i, s := range d.submissions {
		labels[i] = s.Label
	}
	return labels
}

// ResetSubmissions forgets recorded submissions.
func (d *Device) ResetSubmissions() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submissions = nil
}

// LiveTextures returns the names of textures currently created on the device.
func (d *Device) LiveTextures() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.created))
	for _, n := range d.created {
		names = append(names, n)
	}
	return names
}

// Destroyed returns the names of released textures in release order.
func (d *Device) Destroyed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.destroyed...)
}

// BufferContents returns a copy of the bytes last written into b.
func (d *Device) BufferContents(b *gpu.Buffer) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.buffers[b.ID()]...)
}

// CommandBuffer records commands into memory.
type CommandBuffer struct {
	label    string
	commands []Command
	finished bool
	current  string
}

var _ gpu.CommandBuffer = &CommandBuffer{}

func (c *CommandBuffer) Label() string { return c.label }

func (c *CommandBuffer) BeginPass(name string) {
	c.current = name
	c.commands = append(c.commands, Command{Kind: CmdBeginPass, Pass: name})
}

func (c *CommandBuffer) EndPass() {
	c.commands = append(c.commands, Command{Kind: CmdEndPass, Pass: c.current})
	c.current = ""
}

func (c *CommandBuffer) ClearTexture(t *gpu.Texture, value [4]float32) {
	c.commands = append(c.commands, Command{Kind: CmdClear, Pass: c.current, Textures: []uuid.UUID{t.ID()}})
}

func (c *CommandBuffer) Dispatch(program string, groups [3]uint32, bindings []gpu.Binding) {
	c.commands = append(c.commands, Command{Kind: CmdDispatch, Pass: c.current, Program: program, Bindings: bindings})
}

func (c *CommandBuffer) Draw(program string, vertexCount, instanceCount uint32, targets []gpu.Attachment, bindings []gpu.Binding) {
	ids := make([]uuid.UUID, len(targets))
	for i, t := range targets {
		ids[i] = t.Texture.ID()
	}
	c.commands = append(c.commands, Command{
		Kind:     CmdDraw,
		Pass:     c.current,
		Program:  program,
		Textures: ids,
		Bindings: bindings,
		Targets:  append([]gpu.Attachment(nil), targets...),
	})
}

func (c *CommandBuffer) CopyTexture(src, dst *gpu.Texture) {
	c.commands = append(c.commands, Command{Kind: CmdCopy, Pass: c.current, Textures: []uuid.UUID{src.ID(), dst.ID()}})
}

func (c *CommandBuffer) Finish() error {
	c.finished = true
	return nil
}

func (c *CommandBuffer) Release() {
	c.commands = nil
}

// Commands returns the recorded commands.
func (c *CommandBuffer) Commands() []Command {
	return c.commands
}

// Passes returns the names of the passes recorded, in order.
func (c *CommandBuffer) Passes() []string {
	var names []string
	for _, cmd := range c.commands {
		if cmd.Kind == CmdBeginPass {
			names = append(names, cmd.Pass)
		}
	}
	return names
}
