package shadow

import "github.com/Carmen-Shannon/oxy-gi/common"

// ShadowMapBuilderOption is a function that configures a shadow map during construction.
type ShadowMapBuilderOption func(*shadowMapImpl)

// WithCount sets the slot capacity. Zero keeps the light type's default.
//
// Parameters:
//   - count: the maximum number of lights rendered per frame
//
// Returns:
//   - ShadowMapBuilderOption: a function that applies the count option
func WithCount(count uint32) ShadowMapBuilderOption {
	return func(s *shadowMapImpl) {
		s.count = common.Coalesce(count, s.count)
	}
}

// WithResolution sets the width and height of each layer.
//
// Parameters:
//   - resolution: the layer size in texels
//
// Returns:
//   - ShadowMapBuilderOption: a function that applies the resolution option
func WithResolution(resolution uint32) ShadowMapBuilderOption {
	return func(s *shadowMapImpl) {
		s.resolution = common.Coalesce(resolution, s.resolution)
	}
}

// WithHalfExtent sets the orthographic half-extent of directional shadow frusta.
//
// Parameters:
//   - halfExtent: the half-size in world units
//
// Returns:
//   - ShadowMapBuilderOption: a function that applies the half-extent option
func WithHalfExtent(halfExtent float32) ShadowMapBuilderOption {
	return func(s *shadowMapImpl) {
		s.halfExtent = common.Coalesce(halfExtent, s.halfExtent)
	}
}

// WithCaster sets the callback recording shadow casters into each face.
//
// Parameters:
//   - caster: the caster callback
//
// Returns:
//   - ShadowMapBuilderOption: a function that applies the caster option
func WithCaster(caster CasterFunc) ShadowMapBuilderOption {
	return func(s *shadowMapImpl) {
		s.caster = caster
	}
}

// WithLogger sets the logger.
//
// Parameters:
//   - logger: the logger; nil keeps the no-op logger
//
// Returns:
//   - ShadowMapBuilderOption: a function that applies the logger option
func WithLogger(logger common.Logger) ShadowMapBuilderOption {
	return func(s *shadowMapImpl) {
		s.logger = common.OrNop(logger)
	}
}
