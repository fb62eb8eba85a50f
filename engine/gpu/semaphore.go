package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// PipelineStage names the point in a consumer's execution at which a wait must be satisfied.
type PipelineStage int

const (
	StageTopOfPipe PipelineStage = iota
	StageVertexShader
	StageFragmentShader
	StageComputeShader
	StageColorOutput
	StageTransfer
)

// Semaphore is a monotonically increasing GPU synchronisation point. Each submission
// that signals it bumps its value by one; waits name the value they need.
type Semaphore struct {
	id    uuid.UUID
	label string
	value atomic.Uint64
}

// NewSemaphore creates an unsignalled semaphore (value 0). Backends usually wrap this
// in Device.NewSemaphore.
func NewSemaphore(label string) *Semaphore {
	return &Semaphore{id: uuid.New(), label: label}
}

func (s *Semaphore) ID() uuid.UUID { return s.id }
func (s *Semaphore) Label() string { return s.label }

// Value returns the last signalled value.
func (s *Semaphore) Value() uint64 {
	return s.value.Load()
}

// Signal bumps the semaphore and returns the new value. Queues call it when a
// submission that signals s has been accepted.
func (s *Semaphore) Signal() uint64 {
	return s.value.Add(1)
}

// Wait returns a wait on the current value of s.
func (s *Semaphore) Wait(stage PipelineStage) SemaphoreWait {
	return SemaphoreWait{Semaphore: s, Value: s.Value(), Stage: stage}
}

// String implements fmt.Stringer.
func (s *Semaphore) String() string {
	return fmt.Sprintf("%s@%d", s.label, s.Value())
}

// SemaphoreWait is one entry of a wait-array: the submission may not pass Stage until
// Semaphore reaches Value.
type SemaphoreWait struct {
	Semaphore *Semaphore
	Value     uint64
	Stage     PipelineStage
}

// Satisfied reports whether the semaphore already reached the awaited value.
func (w SemaphoreWait) Satisfied() bool {
	return w.Semaphore != nil && w.Semaphore.Value() >= w.Value
}

// SemaphoreWaits is the array threaded from one subsystem's Render into the next.
type SemaphoreWaits []SemaphoreWait

// Validate checks that every wait has been signalled by an earlier submission.
//
// Returns:
//   - error: ErrSemaphoreNotSignalled wrapped with the offending label, or nil
func (w SemaphoreWaits) Validate() error {
	for _, wait := range w {
		if wait.Semaphore == nil {
			continue
		}
		if !wait.Satisfied() {
			return fmt.Errorf("%w: %s needs %d", ErrSemaphoreNotSignalled, wait.Semaphore.Label(), wait.Value)
		}
	}
	return nil
}

// Merge returns a new array holding w followed by every entry of other.
func (w SemaphoreWaits) Merge(other ...SemaphoreWaits) SemaphoreWaits {
	out := make(SemaphoreWaits, 0, len(w))
	out = append(out, w...)
	for _, o := range other {
		out = append(out, o...)
	}
	return out
}
