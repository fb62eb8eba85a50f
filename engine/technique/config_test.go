package technique

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(1), cfg.ShadowCount(light.LightTypeDirectional))
	assert.Equal(t, uint32(8), cfg.ShadowCount(light.LightTypePoint))
	assert.Equal(t, uint32(10), cfg.ShadowCount(light.LightTypeSpot))
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
width: 1920
height: 1080
deferred: false
shadow_maps:
  point: 4
lpv_grid_size: 16
`))
	require.NoError(t, err)

	assert.Equal(t, uint32(1920), cfg.Width)
	assert.Equal(t, uint32(1080), cfg.Height)
	assert.False(t, cfg.Deferred)
	assert.Equal(t, uint32(4), cfg.ShadowMaps.Point)
	assert.Equal(t, DefaultConfig().ShadowMaps.Spot, cfg.ShadowMaps.Spot)
	assert.Equal(t, uint32(16), cfg.LpvGridSize)
	assert.True(t, cfg.SSAO)
}

func TestParseConfigEmptyDocument(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfigRejectsUnknownFields(t *testing.T) {
	_, err := ParseConfig([]byte("shadowmaps: 3\n"))
	assert.Error(t, err)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"zero shadow resolution", func(c *Config) { c.ShadowMaps.Resolution = 0 }},
		{"empty lpv grid", func(c *Config) { c.LpvGridSize = 0 }},
		{"huge lpv grid", func(c *Config) { c.LpvGridSize = 512 }},
		{"vct without voxels", func(c *Config) { c.VoxelConeTracing = true; c.VoxelGridSize = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "technique.yaml")
	require.NoError(t, os.WriteFile(path, []byte("voxel_cone_tracing: true\nworkers: 3\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.VoxelConeTracing)
	assert.Equal(t, 3, cfg.Workers)

	require.NoError(t, os.WriteFile(path, []byte("workers: 0\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInitialiseRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	r := NewRenderTechnique(gputest.NewDevice(), nil, nil, WithConfig(cfg))
	assert.ErrorIs(t, r.Initialise(), ErrInvalidConfig)
	assert.False(t, r.Initialised())
}

func TestCountersMarshal(t *testing.T) {
	c := GPUTechniqueCounters{Frame: 7, LightCount: 3, ShadowCasters: [3]uint32{1, 2, 3}, GIFlags: GIFlagLpv | GIFlagSSAO, Width: 640, Height: 480}
	data := c.Marshal()
	require.Len(t, data, c.Size())
	assert.Equal(t, []byte{7, 0, 0, 0}, data[0:4])
	assert.Equal(t, []byte{2, 0, 0, 0}, data[12:16])
	assert.Equal(t, []byte{byte(GIFlagLpv | GIFlagSSAO), 0, 0, 0}, data[20:24])
	assert.Equal(t, []byte{0xe0, 0x01, 0, 0}, data[28:32])
}
