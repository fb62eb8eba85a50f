package technique

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Config.Validate and LoadConfig for unusable settings.
var ErrInvalidConfig = errors.New("technique: invalid config")

// ShadowConfig holds the shadow map budget per light type. A zero capacity disables
// shadow maps, and therefore GI, for that light type.
type ShadowConfig struct {
	Directional uint32 `yaml:"directional"`
	Point       uint32 `yaml:"point"`
	Spot        uint32 `yaml:"spot"`
	Resolution  uint32 `yaml:"resolution"`
}

// Config selects the technique's feature set and budgets. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`

	Deferred            bool `yaml:"deferred"`
	VisibilityBuffer    bool `yaml:"visibility_buffer"`
	SSAO                bool `yaml:"ssao"`
	WeightedBlendOIT    bool `yaml:"weighted_blend_oit"`
	VoxelConeTracing    bool `yaml:"voxel_cone_tracing"`
	EnvironmentMap      bool `yaml:"environment_map"`
	LayeredLpvSupported bool `yaml:"layered_lpv_supported"`

	ShadowMaps    ShadowConfig `yaml:"shadow_maps"`
	LpvGridSize   uint32       `yaml:"lpv_grid_size"`
	VoxelGridSize uint32       `yaml:"voxel_grid_size"`

	// Workers bounds the pool fanning out per-engine CPU updates.
	Workers int  `yaml:"workers"`
	Debug   bool `yaml:"debug"`
}

// DefaultConfig returns the deferred, SSAO, weighted-blend OIT configuration with
// layered LPV enabled and the default shadow budgets.
//
// Returns:
//   - Config: the default configuration
func DefaultConfig() Config {
	return Config{
		Width:               1280,
		Height:              720,
		Deferred:            true,
		SSAO:                true,
		WeightedBlendOIT:    true,
		LayeredLpvSupported: true,
		ShadowMaps: ShadowConfig{
			Directional: light.DefaultDirectionalShadowCount,
			Point:       light.DefaultPointShadowCount,
			Spot:        light.DefaultSpotShadowCount,
			Resolution:  light.ShadowMapResolution,
		},
		LpvGridSize:   32,
		VoxelGridSize: 64,
		Workers:       max(runtime.NumCPU()-1, 1),
	}
}

// ShadowCount returns the shadow map capacity configured for t.
//
// Parameters:
//   - t: the light type
//
// Returns:
//   - uint32: the number of shadow map slots
func (c Config) ShadowCount(t light.LightType) uint32 {
	switch t {
	case light.LightTypeDirectional:
		return c.ShadowMaps.Directional
	case light.LightTypePoint:
		return c.ShadowMaps.Point
	case light.LightTypeSpot:
		return c.ShadowMaps.Spot
	}
	return 0
}

// Validate checks the configuration for values the technique cannot build with.
//
// Returns:
//   - error: an ErrInvalidConfig wrapping the first problem found, or nil
func (c Config) Validate() error {
	switch {
	case c.Width == 0 || c.Height == 0:
		return fmt.Errorf("%w: render size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.ShadowMaps.Resolution == 0:
		return fmt.Errorf("%w: shadow resolution must be positive", ErrInvalidConfig)
	case c.LpvGridSize == 0 || c.LpvGridSize > 256:
		return fmt.Errorf("%w: lpv grid size %d not in [1, 256]", ErrInvalidConfig, c.LpvGridSize)
	case c.VoxelConeTracing && c.VoxelGridSize == 0:
		return fmt.Errorf("%w: voxel cone tracing needs a voxel grid size", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// ParseConfig decodes YAML over DefaultConfig. Unknown keys are rejected and the
// result is validated.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if decoding or validation fails
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode technique config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if the file cannot be read or parsed
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read technique config: %w", err)
	}
	return ParseConfig(data)
}
