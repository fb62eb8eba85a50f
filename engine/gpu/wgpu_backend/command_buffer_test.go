package wgpu_backend

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedBindGroupBuildsOnce(t *testing.T) {
	var slot cachedBindGroup
	builds := 0
	build := func() (*wgpu.BindGroupLayout, *wgpu.BindGroup, error) {
		builds++
		return nil, nil, nil
	}

	for range 3 {
		group, err := slot.get(build)
		require.NoError(t, err)
		assert.Nil(t, group)
	}
	assert.Equal(t, 1, builds)
	assert.True(t, slot.built)

	slot.release()
	assert.False(t, slot.built)
	_, err := slot.get(build)
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestCachedBindGroupRetriesAfterError(t *testing.T) {
	var slot cachedBindGroup
	errBuild := errors.New("layout mismatch")
	builds := 0
	build := func() (*wgpu.BindGroupLayout, *wgpu.BindGroup, error) {
		builds++
		if builds == 1 {
			return nil, nil, errBuild
		}
		return nil, nil, nil
	}

	_, err := slot.get(build)
	assert.ErrorIs(t, err, errBuild)
	assert.False(t, slot.built)

	_, err = slot.get(build)
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestCommandBufferKeepsOneSlotPerCommand(t *testing.T) {
	cb := &commandBuffer{label: "lpv-spot"}
	cb.BeginPass("propagation-0")
	cb.Dispatch("lpv_propagate", [3]uint32{8, 8, 8}, nil)
	cb.EndPass()
	cb.BeginPass("composite")
	cb.Draw("composite", 3, 1, nil, []gpu.Binding{})
	cb.EndPass()
	require.NoError(t, cb.Finish())

	require.Len(t, cb.groups, 2)
	require.Len(t, cb.ops, 2)
	for _, slot := range cb.groups {
		slot.built = true
	}
	slots := append([]*cachedBindGroup(nil), cb.groups...)

	cb.Release()
	assert.Nil(t, cb.groups)
	assert.Nil(t, cb.ops)
	for _, slot := range slots {
		assert.False(t, slot.built)
	}
}
