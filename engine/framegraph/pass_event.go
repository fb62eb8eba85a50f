package framegraph

import "fmt"

// PassEvent names an insertion point between built-in technique stages.
type PassEvent int

const (
	BeforeDepth PassEvent = iota
	BeforeBackground
	BeforeOpaque
	BeforeTransparent
	BeforePostEffects
)

func (e PassEvent) String() string {
	switch e {
	case BeforeDepth:
		return "before-depth"
	case BeforeBackground:
		return "before-background"
	case BeforeOpaque:
		return "before-opaque"
	case BeforeTransparent:
		return "before-transparent"
	case BeforePostEffects:
		return "before-post-effects"
	}
	return fmt.Sprintf("PassEvent(%d)", int(e))
}

// PassFactory creates custom passes in g. It receives the current frontier and is
// expected to make its first passes depend on it.
type PassFactory func(g *FrameGraph, previous Frontier) []*FramePass

// RenderPassRegisterInfo describes a custom pass set spliced in at Event.
type RenderPassRegisterInfo struct {
	Name   string
	Event  PassEvent
	Create PassFactory
}

// PassRegistry collects custom pass registrations per insertion point.
type PassRegistry struct {
	infos map[PassEvent][]RenderPassRegisterInfo
}

// NewPassRegistry creates an empty registry.
func NewPassRegistry() *PassRegistry {
	return &PassRegistry{infos: make(map[PassEvent][]RenderPassRegisterInfo)}
}

// Register adds info. Registrations for the same event run in registration order.
func (r *PassRegistry) Register(info RenderPassRegisterInfo) {
	if info.Create == nil {
		panic(fmt.Sprintf("framegraph: render pass %q registered without a factory", info.Name))
	}
	r.infos[info.Event] = append(r.infos[info.Event], info)
}

// Registered returns the registrations for event.
func (r *PassRegistry) Registered(event PassEvent) []RenderPassRegisterInfo {
	return append([]RenderPassRegisterInfo(nil), r.infos[event]...)
}

// CreatePasses runs every factory registered for event, chaining each one's result
// into the next. Without registrations the frontier is returned unchanged and g is not
// touched. A factory returning no pass leaves the chain where it was.
//
// Parameters:
//   - g: the graph receiving the custom passes
//   - event: the insertion point
//   - frontier: the frontier of the previous built-in stage
//
// Returns:
//   - Frontier: the frontier the next built-in stage continues from
func (r *PassRegistry) CreatePasses(g *FrameGraph, event PassEvent, frontier Frontier) Frontier {
	if r == nil {
		return frontier
	}
	for _, info := range r.infos[event] {
		frontier = frontier.Advance(info.Create(g, frontier)...)
	}
	return frontier
}
