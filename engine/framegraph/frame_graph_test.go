package framegraph

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colorTarget(name string) *gpu.Texture {
	return gpu.NewTexture(name, gpu.TextureDesc{
		Format: gpu.FormatRGBA16Float,
		Width:  4,
		Height: 4,
		Usage:  gpu.UsageSampled | gpu.UsageColorAttachment,
	})
}

func TestAddDependencyRejectsForwardReference(t *testing.T) {
	g := NewFrameGraph("test")
	a := g.CreatePass("a", nil)
	b := g.CreatePass("b", nil)

	b.AddDependency(a)
	assert.Equal(t, []*FramePass{a}, b.Dependencies())

	assert.Panics(t, func() { a.AddDependency(b) })
	assert.Panics(t, func() { a.AddDependency(a) })

	other := NewFrameGraph("other")
	c := other.CreatePass("c", nil)
	other.CreatePass("d", nil)
	assert.Panics(t, func() { b.AddDependency(c) })
}

func TestAddDependencyIsIdempotent(t *testing.T) {
	g := NewFrameGraph("test")
	a := g.CreatePass("a", nil)
	b := g.CreatePass("b", nil)
	b.AddDependency(a)
	b.AddDependency(a)
	b.AddDependency(nil)
	assert.Len(t, b.Dependencies(), 1)
}

func TestCreatePassRejectsDuplicateName(t *testing.T) {
	g := NewFrameGraph("test")
	g.CreatePass("a", nil)
	assert.Panics(t, func() { g.CreatePass("a", nil) })
}

func TestDependsOnIsTransitive(t *testing.T) {
	g := NewFrameGraph("test")
	a := g.CreatePass("a", nil)
	b := g.CreatePass("b", nil)
	c := g.CreatePass("c", nil)
	d := g.CreatePass("d", nil)
	b.AddDependency(a)
	c.AddDependency(b)

	assert.True(t, c.DependsOn(a))
	assert.True(t, c.DependsOn(b))
	assert.False(t, a.DependsOn(c))
	assert.False(t, d.DependsOn(a))
}

func TestCompileTwicePanics(t *testing.T) {
	dev := gputest.NewDevice()
	g := NewFrameGraph("test")
	g.CreatePass("a", nil)

	_, err := g.Compile(dev)
	require.NoError(t, err)
	assert.Panics(t, func() { _, _ = g.Compile(dev) })
	assert.Panics(t, func() { g.CreatePass("late", nil) })
}

func TestCompileEmptyGraph(t *testing.T) {
	_, err := NewFrameGraph("empty").Compile(gputest.NewDevice())
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestValidateHazards(t *testing.T) {
	target := colorTarget("target")

	t.Run("read after write without edge", func(t *testing.T) {
		g := NewFrameGraph("raw")
		g.CreatePass("write", nil, Output(target))
		g.CreatePass("read", nil, Sampled(target))
		assert.ErrorIs(t, g.Validate(), ErrMissingDependency)
	})

	t.Run("read after write with edge", func(t *testing.T) {
		g := NewFrameGraph("raw")
		w := g.CreatePass("write", nil, Output(target))
		r := g.CreatePass("read", nil, Sampled(target))
		r.AddDependency(w)
		assert.NoError(t, g.Validate())
	})

	t.Run("write after read without edge", func(t *testing.T) {
		g := NewFrameGraph("war")
		w := g.CreatePass("write", nil, Output(target))
		r := g.CreatePass("read", nil, Sampled(target))
		r.AddDependency(w)
		o := g.CreatePass("overwrite", nil, Output(target))
		o.AddDependency(w)
		assert.ErrorIs(t, g.Validate(), ErrMissingDependency)
	})

	t.Run("transitive edge covers hazard", func(t *testing.T) {
		g := NewFrameGraph("chain")
		w := g.CreatePass("write", nil, Output(target))
		mid := g.CreatePass("mid", nil)
		r := g.CreatePass("read", nil, Sampled(target))
		mid.AddDependency(w)
		r.AddDependency(mid)
		assert.NoError(t, g.Validate())
	})

	t.Run("imported resource", func(t *testing.T) {
		g := NewFrameGraph("import")
		g.CreatePass("a", nil, Sampled(target))
		g.CreatePass("b", nil, Sampled(target))
		assert.NoError(t, g.Validate())
	})
}

func TestRunnableGraphRecordsInDeclarationOrder(t *testing.T) {
	dev := gputest.NewDevice()
	g := NewFrameGraph("main")
	target := g.CreateTexture("target", gpu.TextureDesc{Format: gpu.FormatRGBA8Unorm, Width: 2, Height: 2})
	clear := g.CreatePass("clear", func(rec gpu.Recorder) {
		rec.ClearTexture(target, [4]float32{})
	}, TextureView(target, AccessTransferDst))
	draw := g.CreatePass("draw", func(rec gpu.Recorder) {
		rec.Draw("triangle", 3, 1, []gpu.Attachment{gpu.Target(target)}, nil)
	}, Output(target))
	draw.AddDependency(clear)

	r, err := g.Compile(dev)
	require.NoError(t, err)
	assert.True(t, target.Created())

	waits, err := r.Run(nil, dev.Queue())
	require.NoError(t, err)
	require.Len(t, waits, 1)
	assert.Equal(t, r.Semaphore(), waits[0].Semaphore)
	assert.Equal(t, uint64(1), waits[0].Value)

	subs := dev.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, []string{"clear", "draw"}, subs[0].Passes)
	assert.Equal(t, "main", subs[0].Signal)

	r.Destroy()
	assert.False(t, target.Created())
	assert.Panics(t, func() { _ = r.Record() })
}

func TestRunnableGraphReRecordsOnlyWhenEnabledSetChanges(t *testing.T) {
	dev := gputest.NewDevice()
	g := NewFrameGraph("main")
	on := true
	a := g.CreatePass("a", nil)
	b := g.CreatePass("b", nil).SetEnabled(func() bool { return on })
	b.AddDependency(a)

	r, err := g.Compile(dev)
	require.NoError(t, err)

	_, err = r.Run(nil, dev.Queue())
	require.NoError(t, err)
	_, err = r.Run(nil, dev.Queue())
	require.NoError(t, err)
	assert.Equal(t, 1, r.RecordCount())
	assert.Equal(t, []string{"a", "b"}, r.EnabledPasses())

	on = false
	_, err = r.Run(nil, dev.Queue())
	require.NoError(t, err)
	assert.Equal(t, 2, r.RecordCount())
	assert.Equal(t, []string{"a"}, r.EnabledPasses())

	subs := dev.Submissions()
	require.Len(t, subs, 3)
	assert.Equal(t, []string{"a"}, subs[2].Passes)
}

func TestRunWithNothingEnabledPassesWaitsThrough(t *testing.T) {
	dev := gputest.NewDevice()
	g := NewFrameGraph("idle")
	g.CreatePass("a", nil).SetEnabled(func() bool { return false })
	r, err := g.Compile(dev)
	require.NoError(t, err)

	upstream := dev.NewSemaphore("upstream")
	upstream.Signal()
	in := gpu.SemaphoreWaits{upstream.Wait(gpu.StageComputeShader)}

	out, err := r.Run(in, dev.Queue())
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Empty(t, dev.Submissions())
}

func TestRunRejectsUnsignalledWait(t *testing.T) {
	dev := gputest.NewDevice()
	g := NewFrameGraph("consumer")
	g.CreatePass("a", nil)
	r, err := g.Compile(dev)
	require.NoError(t, err)

	producer := dev.NewSemaphore("producer")
	_, err = r.Run(gpu.SemaphoreWaits{{Semaphore: producer, Value: 1}}, dev.Queue())
	assert.ErrorIs(t, err, gpu.ErrSemaphoreNotSignalled)
}

func TestCompileFailsOnTextureCreation(t *testing.T) {
	dev := gputest.NewDevice()
	dev.FailTextures = map[string]bool{"broken/target": true}
	g := NewFrameGraph("broken")
	ok := g.CreateTexture("ok", gpu.TextureDesc{})
	g.CreateTexture("target", gpu.TextureDesc{})
	g.CreatePass("a", nil)

	_, err := g.Compile(dev)
	assert.Error(t, err)
	assert.False(t, ok.Created())
}
