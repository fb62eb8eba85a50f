package light

// ShadowMapResolution is the default width and height in texels of each reflective
// shadow map layer. Reflective shadow maps feed LPV injection, so they are kept far
// smaller than a plain depth shadow map.
const ShadowMapResolution = 512

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// used for the directional light shadow frustum. Controls how much of the scene
// around the camera center is captured in the shadow map.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane for shadow projections.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane for the directional light's
// orthographic shadow projection.
const DefaultShadowFar float32 = 200.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.001

// DefaultShadowNormalBiasScale is the multiplier applied to the shadow map
// texel world-size to compute the normal-offset bias. Typical values are 2.0–4.0.
const DefaultShadowNormalBiasScale float32 = 3.0

// Default shadow map slot capacities per light type.
const (
	DefaultDirectionalShadowCount = 1
	DefaultPointShadowCount       = 8
	DefaultSpotShadowCount        = 10
)

// DefaultShadowCount returns the default slot capacity for t.
//
// Parameters:
//   - t: the light type
//
// Returns:
//   - uint32: the slot capacity
func DefaultShadowCount(t LightType) uint32 {
	switch t {
	case LightTypeDirectional:
		return DefaultDirectionalShadowCount
	case LightTypePoint:
		return DefaultPointShadowCount
	case LightTypeSpot:
		return DefaultSpotShadowCount
	}
	return 0
}

// ShadowFaces returns the number of shadow map layers one light of type t occupies:
// six cube faces for point lights, one otherwise.
//
// Parameters:
//   - t: the light type
//
// Returns:
//   - uint32: the layer count per light
func ShadowFaces(t LightType) uint32 {
	if t == LightTypePoint {
		return 6
	}
	return 1
}
