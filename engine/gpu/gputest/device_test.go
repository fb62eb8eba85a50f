package gputest

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_SubmitRejectsUnsignalledWait(t *testing.T) {
	d := NewDevice()
	sem := d.NewSemaphore("upstream")

	cb, err := d.NewCommandBuffer("consumer")
	require.NoError(t, err)
	require.NoError(t, cb.Finish())

	waits := gpu.SemaphoreWaits{{Semaphore: sem, Value: 1}}
	err = d.Submit(cb, waits, nil)
	assert.True(t, errors.Is(err, gpu.ErrSemaphoreNotSignalled))

	producer, err := d.NewCommandBuffer("producer")
	require.NoError(t, err)
	require.NoError(t, producer.Finish())
	require.NoError(t, d.Submit(producer, nil, sem))
	require.NoError(t, d.Submit(cb, waits, nil))

	assert.Equal(t, []string{"producer", "consumer"}, d.SubmissionLabels())
	assert.Equal(t, uint64(1), d.Submissions()[0].SignalValue)
}

func TestDevice_TextureLifecycle(t *testing.T) {
	d := NewDevice()
	tex := gpu.NewTexture("lpv_r", gpu.TextureDesc{Format: gpu.FormatRGBA16Float, Dimension: gpu.Dimension3D, Width: 32, Height: 32, Depth: 32})

	assert.False(t, tex.Created())
	require.NoError(t, tex.Create(d))
	require.NoError(t, tex.Create(d))
	assert.True(t, tex.Created())
	assert.Equal(t, []string{"lpv_r"}, d.LiveTextures())

	tex.Destroy()
	tex.Destroy()
	assert.False(t, tex.Created())
	assert.Empty(t, d.LiveTextures())
	assert.Equal(t, []string{"lpv_r"}, d.Destroyed())
}

func TestDevice_WriteBuffer(t *testing.T) {
	d := NewDevice()
	buf := gpu.NewBuffer("grid", gpu.BufferDesc{Size: 8, Usage: gpu.BufferUsageUniform})

	err := d.WriteBuffer(buf, 0, []byte{1})
	assert.True(t, errors.Is(err, gpu.ErrBufferNotCreated))

	require.NoError(t, buf.Create(d))
	require.NoError(t, d.WriteBuffer(buf, 4, []byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, d.BufferContents(buf))
	assert.Error(t, d.WriteBuffer(buf, 6, []byte{1, 2, 3}))
}
