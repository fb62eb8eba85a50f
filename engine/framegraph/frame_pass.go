package framegraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
)

// RecordFunc records the commands of one pass. It is called each time the owning
// RunnableGraph records, in declaration order, between BeginPass and EndPass.
type RecordFunc func(rec gpu.Recorder)

// EnabledFunc is evaluated before every recording; a pass whose predicate returns false
// is skipped for that recording.
type EnabledFunc func() bool

// FramePass is a named node of a FrameGraph. It declares the views it accesses, the
// callback recording its commands and the passes it depends on.
type FramePass struct {
	graph   *FrameGraph
	index   int
	name    string
	views   []View
	record  RecordFunc
	enabled EnabledFunc
	deps    []*FramePass
}

func (p *FramePass) Name() string       { return p.name }
func (p *FramePass) Index() int         { return p.index }
func (p *FramePass) Graph() *FrameGraph { return p.graph }
func (p *FramePass) Views() []View      { return append([]View(nil), p.views...) }
func (p *FramePass) Dependencies() []*FramePass {
	return append([]*FramePass(nil), p.deps...)
}

// AddView appends a declared resource access and returns p for chaining.
// Views cannot be added once the graph is compiled.
func (p *FramePass) AddView(v View) *FramePass {
	p.graph.checkMutable()
	p.views = append(p.views, v)
	return p
}

// SetEnabled installs the per-recording enabled predicate. nil means always enabled.
func (p *FramePass) SetEnabled(fn EnabledFunc) *FramePass {
	p.enabled = fn
	return p
}

// Enabled evaluates the enabled predicate.
func (p *FramePass) Enabled() bool {
	return p.enabled == nil || p.enabled()
}

// AddDependency declares that p executes after pred. pred must belong to the same graph
// and have been created before p, so declaration order is always a topological order.
// Adding the same edge twice is a no-op.
//
// Parameters:
//   - pred: the predecessor pass; nil is ignored
func (p *FramePass) AddDependency(pred *FramePass) {
	if pred == nil {
		return
	}
	p.graph.checkMutable()
	if pred.graph != p.graph {
		panic(fmt.Sprintf("framegraph: pass %q depends on %q from another graph", p.name, pred.name))
	}
	if pred.index >= p.index {
		panic(fmt.Sprintf("framegraph: pass %q depends on %q which is not registered before it", p.name, pred.name))
	}
	for _, d := range p.deps {
		if d == pred {
			return
		}
	}
	p.deps = append(p.deps, pred)
}

// AddDependencies calls AddDependency for each pass in preds.
func (p *FramePass) AddDependencies(preds ...*FramePass) {
	for _, pred := range preds {
		p.AddDependency(pred)
	}
}

// DependsOn reports whether pred is a transitive predecessor of p.
func (p *FramePass) DependsOn(pred *FramePass) bool {
	if pred == nil || pred.graph != p.graph || pred.index >= p.index {
		return false
	}
	visited := make(map[*FramePass]bool)
	stack := append([]*FramePass(nil), p.deps...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == pred {
			return true
		}
		if visited[cur] || cur.index < pred.index {
			continue
		}
		visited[cur] = true
		stack = append(stack, cur.deps...)
	}
	return false
}

func (p *FramePass) String() string {
	return fmt.Sprintf("%s#%d", p.name, p.index)
}
