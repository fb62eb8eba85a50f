package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerTick(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(WithQuiet(), WithClock(func() time.Time { return now }))

	now = now.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())

	p.CountSubmission()
	p.CountSubmission()
	p.CountSubmission()
	p.CountSubmission()
	now = now.Add(500 * time.Millisecond)
	require.True(t, p.Tick())

	stats := p.Last()
	assert.InDelta(t, 2.0, stats.FPS, 1e-9)
	assert.InDelta(t, 2.0, stats.SubmissionsPerFrame, 1e-9)
	assert.Greater(t, stats.SysMB, 0.0)
}

func TestProfilerWrapQueueCountsAcceptedSubmissions(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(WithQuiet(), WithInterval(time.Millisecond), WithClock(func() time.Time { return now }))
	dev := gputest.NewDevice()
	q := p.WrapQueue(dev.Queue())

	cb, err := dev.NewCommandBuffer("frame")
	require.NoError(t, err)
	assert.Error(t, q.Submit(cb, nil, nil))
	require.NoError(t, cb.Finish())
	require.NoError(t, q.Submit(cb, nil, nil))

	now = now.Add(time.Second)
	require.True(t, p.Tick())
	assert.InDelta(t, 1.0, p.Last().SubmissionsPerFrame, 1e-9)
}
