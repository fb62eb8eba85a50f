package framegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreatePassesIdentityWithoutRegistrations(t *testing.T) {
	g := NewFrameGraph("main")
	prev := g.CreatePass("prepass", nil)
	frontier := NewFrontier(prev)

	reg := NewPassRegistry()
	out := reg.CreatePasses(g, BeforeOpaque, frontier)

	assert.Equal(t, []*FramePass{prev}, out.Passes())
	assert.Len(t, g.Passes(), 1)

	var nilRegistry *PassRegistry
	assert.Equal(t, frontier, nilRegistry.CreatePasses(g, BeforeOpaque, frontier))
}

func TestCreatePassesEmptyFactoryIsNoOp(t *testing.T) {
	g := NewFrameGraph("main")
	prev := g.CreatePass("prepass", nil)

	reg := NewPassRegistry()
	reg.Register(RenderPassRegisterInfo{
		Name:  "nothing",
		Event: BeforeOpaque,
		Create: func(*FrameGraph, Frontier) []*FramePass {
			return nil
		},
	})
	out := reg.CreatePasses(g, BeforeOpaque, NewFrontier(prev))
	assert.Equal(t, prev, out.Last())
}

func TestCreatePassesChainsFactories(t *testing.T) {
	g := NewFrameGraph("main")
	prev := g.CreatePass("prepass", nil)

	reg := NewPassRegistry()
	factory := func(name string) PassFactory {
		return func(g *FrameGraph, previous Frontier) []*FramePass {
			p := g.CreatePass(name, nil)
			previous.DependOn(p)
			return []*FramePass{p}
		}
	}
	reg.Register(RenderPassRegisterInfo{Name: "outline", Event: BeforeTransparent, Create: factory("outline")})
	reg.Register(RenderPassRegisterInfo{Name: "decals", Event: BeforeTransparent, Create: factory("decals")})

	assert.Len(t, reg.Registered(BeforeTransparent), 2)
	assert.Empty(t, reg.Registered(BeforeDepth))

	out := reg.CreatePasses(g, BeforeTransparent, NewFrontier(prev))
	outline, _ := g.Pass("outline")
	decals, _ := g.Pass("decals")
	assert.Equal(t, decals, out.Last())
	assert.True(t, decals.DependsOn(outline))
	assert.True(t, decals.DependsOn(prev))
}

func TestFrontier(t *testing.T) {
	g := NewFrameGraph("main")
	a := g.CreatePass("a", nil)
	b := g.CreatePass("b", nil)
	c := g.CreatePass("c", nil)

	f := NewFrontier(b, nil, a)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, b, f.Last())

	f.DependOn(c)
	assert.ElementsMatch(t, []*FramePass{a, b}, c.Dependencies())

	assert.Equal(t, f, f.Advance())
	assert.Equal(t, c, f.Advance(c).Last())
	assert.True(t, NewFrontier().Empty())
	assert.Nil(t, NewFrontier().Last())
}

func TestRegisterWithoutFactoryPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewPassRegistry().Register(RenderPassRegisterInfo{Name: "broken"})
	})
}
