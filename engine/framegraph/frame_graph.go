// Package framegraph builds and executes directed acyclic graphs of GPU passes.
//
// A FrameGraph collects FramePasses in declaration order. Edges can only point to
// passes declared earlier, so declaration order is a valid execution order and the
// compiled RunnableGraph records passes exactly in that order. Compile validates
// that every read-after-write, write-after-read and write-after-write hazard between
// passes is covered by a (transitive) dependency edge.
package framegraph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/google/uuid"
)

var (
	// ErrMissingDependency is returned by Validate and Compile when two passes touch the
	// same resource with a hazard and neither is a transitive predecessor of the other.
	ErrMissingDependency = errors.New("framegraph: missing dependency")

	// ErrEmptyGraph is returned by Compile for a graph without passes.
	ErrEmptyGraph = errors.New("framegraph: graph has no passes")
)

// FrameGraph is the mutable builder collecting passes before compilation.
type FrameGraph struct {
	mu sync.Mutex

	name     string
	passes   []*FramePass
	byName   map[string]*FramePass
	textures []*gpu.Texture
	buffers  []*gpu.Buffer

	compiled  bool
	waitStage gpu.PipelineStage
	logger    common.Logger
}

// NewFrameGraph creates an empty graph.
//
// Parameters:
//   - name: the graph name, used as command buffer and semaphore label
//   - options: functional options
//
// Returns:
//   - *FrameGraph: the new graph
func NewFrameGraph(name string, options ...FrameGraphBuilderOption) *FrameGraph {
	g := &FrameGraph{
		name:      name,
		byName:    make(map[string]*FramePass),
		waitStage: gpu.StageFragmentShader,
		logger:    common.NewNopLogger(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *FrameGraph) Name() string { return g.name }

// Passes returns the passes in declaration order.
func (g *FrameGraph) Passes() []*FramePass {
	return append([]*FramePass(nil), g.passes...)
}

// Pass returns the pass registered under name.
func (g *FrameGraph) Pass(name string) (*FramePass, bool) {
	p, ok := g.byName[name]
	return p, ok
}

// Compiled reports whether Compile was called.
func (g *FrameGraph) Compiled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.compiled
}

// CreatePass registers a new pass. Names are unique within a graph.
//
// Parameters:
//   - name: the pass name
//   - record: the recording callback, may be nil for passes that only order others
//   - views: the declared resource accesses
//
// Returns:
//   - *FramePass: the new pass
func (g *FrameGraph) CreatePass(name string, record RecordFunc, views ...View) *FramePass {
	g.checkMutable()
	if _, exists := g.byName[name]; exists {
		panic(fmt.Sprintf("framegraph: duplicate pass %q in graph %q", name, g.name))
	}
	p := &FramePass{
		graph:  g,
		index:  len(g.passes),
		name:   name,
		views:  append([]View(nil), views...),
		record: record,
	}
	g.passes = append(g.passes, p)
	g.byName[name] = p
	return p
}

// CreateTexture declares a graph-owned texture. It is GPU-created by Compile and
// destroyed with the RunnableGraph.
func (g *FrameGraph) CreateTexture(name string, desc gpu.TextureDesc) *gpu.Texture {
	g.checkMutable()
	t := gpu.NewTexture(g.name+"/"+name, desc)
	g.textures = append(g.textures, t)
	return t
}

// CreateBuffer declares a graph-owned buffer. It is GPU-created by Compile and
// destroyed with the RunnableGraph.
func (g *FrameGraph) CreateBuffer(name string, desc gpu.BufferDesc) *gpu.Buffer {
	g.checkMutable()
	b := gpu.NewBuffer(g.name+"/"+name, desc)
	g.buffers = append(g.buffers, b)
	return b
}

// Validate checks resource hazards between passes.
//
// For every view read by a pass, the most recent earlier writer of that resource must
// be a transitive predecessor. For every view written by a pass, every earlier reader
// since the last write, and the last writer, must be transitive predecessors. Resources
// without an earlier writer in the graph are imported and impose no constraint on reads.
//
// Returns:
//   - error: an error wrapping ErrMissingDependency describing the first violation
func (g *FrameGraph) Validate() error {
	ancestors := g.ancestors()
	type state struct {
		writer  *FramePass
		readers []*FramePass
	}
	resources := make(map[uuid.UUID]*state)
	covered := func(p, pred *FramePass) bool {
		return pred == p || ancestors[p.index][pred.index]
	}

	for _, p := range g.passes {
		for _, v := range p.views {
			id := v.resource()
			if id == uuid.Nil {
				continue
			}
			st, ok := resources[id]
			if !ok {
				st = &state{}
				resources[id] = st
			}
			if v.Access.Reads() && st.writer != nil && !covered(p, st.writer) {
				return fmt.Errorf("%w: %q reads %s written by %q", ErrMissingDependency, p.name, v.resourceName(), st.writer.name)
			}
			if v.Access.Writes() {
				if st.writer != nil && !covered(p, st.writer) {
					return fmt.Errorf("%w: %q writes %s also written by %q", ErrMissingDependency, p.name, v.resourceName(), st.writer.name)
				}
				for _, r := range st.readers {
					if !covered(p, r) {
						return fmt.Errorf("%w: %q writes %s read by %q", ErrMissingDependency, p.name, v.resourceName(), r.name)
					}
				}
			}
		}
		for _, v := range p.views {
			id := v.resource()
			if id == uuid.Nil {
				continue
			}
			st := resources[id]
			if v.Access.Writes() {
				st.writer = p
				st.readers = st.readers[:0]
			}
		}
		for _, v := range p.views {
			id := v.resource()
			if id == uuid.Nil || v.Access.Writes() {
				continue
			}
			st := resources[id]
			st.readers = append(st.readers, p)
		}
	}
	return nil
}

// ancestors returns, per pass index, the set of transitive predecessor indices.
func (g *FrameGraph) ancestors() [][]bool {
	out := make([][]bool, len(g.passes))
	for i, p := range g.passes {
		set := make([]bool, len(g.passes))
		for _, d := range p.deps {
			set[d.index] = true
			for j, in := range out[d.index] {
				if in {
					set[j] = true
				}
			}
		}
		out[i] = set
	}
	return out
}

// Compile validates the graph, creates graph-owned resources and returns its runnable
// form. A graph compiles exactly once; a second call panics. Rebuilding requires a new
// FrameGraph.
//
// Parameters:
//   - device: the device the runnable graph is bound to
//
// Returns:
//   - *RunnableGraph: the compiled graph
//   - error: ErrEmptyGraph, ErrMissingDependency or a resource creation error
func (g *FrameGraph) Compile(device gpu.Device) (*RunnableGraph, error) {
	g.mu.Lock()
	if g.compiled {
		g.mu.Unlock()
		panic(fmt.Sprintf("framegraph: graph %q compiled twice", g.name))
	}
	g.compiled = true
	g.mu.Unlock()

	if len(g.passes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGraph, g.name)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", g.name, err)
	}

	r := &RunnableGraph{
		graph:     g,
		device:    device,
		semaphore: device.NewSemaphore(g.name),
	}
	for _, t := range g.textures {
		if err := t.Create(device); err != nil {
			r.Destroy()
			return nil, fmt.Errorf("failed to compile %s: %w", g.name, err)
		}
	}
	for _, b := range g.buffers {
		if err := b.Create(device); err != nil {
			r.Destroy()
			return nil, fmt.Errorf("failed to compile %s: %w", g.name, err)
		}
	}

	edges := 0
	for _, p := range g.passes {
		edges += len(p.deps)
	}
	g.logger.Debugf("compiled %s: %d passes, %d edges, %d owned textures", g.name, len(g.passes), edges, len(g.textures))
	return r, nil
}

func (g *FrameGraph) checkMutable() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.compiled {
		panic(fmt.Sprintf("framegraph: graph %q modified after Compile", g.name))
	}
}
