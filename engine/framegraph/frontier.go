package framegraph

// Frontier is the set of passes a builder stage continues from. Each stage constructor
// takes the previous frontier and returns the frontier its own passes form.
type Frontier struct {
	passes []*FramePass
}

// NewFrontier creates a frontier over passes, ignoring nil entries.
func NewFrontier(passes ...*FramePass) Frontier {
	f := Frontier{}
	for _, p := range passes {
		if p != nil {
			f.passes = append(f.passes, p)
		}
	}
	return f
}

// Passes returns a copy of the frontier passes.
func (f Frontier) Passes() []*FramePass {
	return append([]*FramePass(nil), f.passes...)
}

// Last returns the most recently declared frontier pass, or nil for an empty frontier.
func (f Frontier) Last() *FramePass {
	var last *FramePass
	for _, p := range f.passes {
		if last == nil || p.index > last.index {
			last = p
		}
	}
	return last
}

// Len returns the number of frontier passes.
func (f Frontier) Len() int { return len(f.passes) }

// Empty reports whether the frontier holds no pass.
func (f Frontier) Empty() bool { return len(f.passes) == 0 }

// DependOn makes pass depend on every frontier pass.
func (f Frontier) DependOn(pass *FramePass) {
	for _, p := range f.passes {
		pass.AddDependency(p)
	}
}

// Advance returns the frontier formed by passes, or f itself when passes is empty.
func (f Frontier) Advance(passes ...*FramePass) Frontier {
	next := NewFrontier(passes...)
	if next.Empty() {
		return f
	}
	return next
}
