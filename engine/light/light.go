package light

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all fragments
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with both distance and angle from the cone axis, controlled by inner and
	// outer cone angles.
	LightTypeSpot

	// LightTypeCount is the number of light types.
	LightTypeCount
)

// LightTypes lists every light type in processing order.
var LightTypes = [LightTypeCount]LightType{LightTypeDirectional, LightTypePoint, LightTypeSpot}

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return fmt.Sprintf("LightType(%d)", int(t))
}

// GIType selects which global illumination engine, if any, a light contributes to.
type GIType int

const (
	// GINone contributes no indirect light.
	GINone GIType = iota
	// GILightPropagationVolumes injects into a single-cascade volume.
	GILightPropagationVolumes
	// GILightPropagationVolumesGeometry injects into a single-cascade volume with
	// geometry occlusion.
	GILightPropagationVolumesGeometry
	// GILayeredLightPropagationVolumes injects into every cascade of a layered volume.
	GILayeredLightPropagationVolumes
	// GILayeredLightPropagationVolumesGeometry injects into every cascade of a layered
	// volume with geometry occlusion.
	GILayeredLightPropagationVolumesGeometry
)

// GITypes lists every GI type.
var GITypes = []GIType{
	GINone,
	GILightPropagationVolumes,
	GILightPropagationVolumesGeometry,
	GILayeredLightPropagationVolumes,
	GILayeredLightPropagationVolumesGeometry,
}

func (g GIType) String() string {
	switch g {
	case GINone:
		return "none"
	case GILightPropagationVolumes:
		return "lpv"
	case GILightPropagationVolumesGeometry:
		return "lpv-geometry"
	case GILayeredLightPropagationVolumes:
		return "layered-lpv"
	case GILayeredLightPropagationVolumesGeometry:
		return "layered-lpv-geometry"
	}
	return fmt.Sprintf("GIType(%d)", int(g))
}

// ParseGIType converts the String form of a GI type back to its value.
//
// Parameters:
//   - s: the GI type name
//
// Returns:
//   - GIType: the parsed value
//   - error: error if s names no GI type
func ParseGIType(s string) (GIType, error) {
	for _, g := range GITypes {
		if g.String() == s {
			return g, nil
		}
	}
	return GINone, fmt.Errorf("light: unknown GI type %q", s)
}

// Layered reports whether g uses the cascaded volume.
func (g GIType) Layered() bool {
	return g == GILayeredLightPropagationVolumes || g == GILayeredLightPropagationVolumesGeometry
}

// Geometry reports whether g uses geometry occlusion.
func (g GIType) Geometry() bool {
	return g == GILightPropagationVolumesGeometry || g == GILayeredLightPropagationVolumesGeometry
}

// Single returns the single-cascade variant with the same geometry flavour.
func (g GIType) Single() GIType {
	switch g {
	case GILayeredLightPropagationVolumes:
		return GILightPropagationVolumes
	case GILayeredLightPropagationVolumesGeometry:
		return GILightPropagationVolumesGeometry
	}
	return g
}

// NoShadowMap is the shadow map index of a light without an assigned slot.
const NoShadowMap = -1

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	lightType      LightType
	position       mgl32.Vec3
	direction      mgl32.Vec3
	color          mgl32.Vec3
	intensity      float32
	lightRange     float32
	innerCone      float32 // stored as cos(angle in radians)
	outerCone      float32 // stored as cos(angle in radians)
	enabled        bool
	shadowProducer bool
	giType         GIType
	boundingBox    common.AABB
	customBox      bool
	shadowMapIndex int
}

// Light defines the interface for a light source in the scene.
//
// All light types (directional, point, spot) share this interface; type-specific
// properties (e.g. cone angles for spot lights) return zero values when not applicable.
// Lights are owned by the scene's light Cache; the render technique reads them each CPU
// update to select shadow casters and to register them with GI engines.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Direction returns the normalized direction of the light.
	// For directional lights this is the light direction. For spot lights this
	// is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - mgl32.Vec3: the normalized direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point and spot lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	//
	// Returns:
	//   - float32: cos(inner half-angle)
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// Enabled returns whether this light is active for rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// ShadowProducer returns whether this light is eligible for a shadow map slot.
	// Only shadow producers can contribute to global illumination, since injection
	// reads the light's reflective shadow map.
	//
	// Returns:
	//   - bool: true if the light produces shadows
	ShadowProducer() bool

	// GIType returns the global illumination engine the light requests.
	//
	// Returns:
	//   - GIType: the requested GI type
	GIType() GIType

	// BoundingBox returns the light's local-space influence box. Point and spot lights
	// default to a cube of half-size Range centred on the origin.
	//
	// Returns:
	//   - common.AABB: the local bounding box
	BoundingBox() common.AABB

	// DerivedTransform returns the local-to-world matrix of the light.
	//
	// Returns:
	//   - mgl32.Mat4: the world transform
	DerivedTransform() mgl32.Mat4

	// WorldBoundingBox returns BoundingBox transformed by DerivedTransform.
	//
	// Returns:
	//   - common.AABB: the world-space influence box
	WorldBoundingBox() common.AABB

	// ShadowMapIndex returns the slot assigned by the last light selection, or
	// NoShadowMap.
	//
	// Returns:
	//   - int: the slot index or NoShadowMap
	ShadowMapIndex() int

	// SetShadowMapIndex assigns a shadow map slot. Called by light selection only.
	//
	// Parameters:
	//   - index: the slot index or NoShadowMap
	SetShadowMapIndex(index int)

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - position: the new position
	SetPosition(position mgl32.Vec3)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - direction: the direction (will be normalized)
	SetDirection(direction mgl32.Vec3)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - color: the color
	SetColor(color mgl32.Vec3)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	//
	// Parameters:
	//   - lightRange: the range value
	SetRange(lightRange float32)

	// SetSpotCone sets the inner and outer cone half-angles for spot lights.
	// Angles are specified in degrees and stored internally as cosines.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetShadowProducer sets whether the light is eligible for shadow mapping.
	//
	// Parameters:
	//   - producer: true to enable shadow production
	SetShadowProducer(producer bool)

	// SetGIType changes the requested GI engine. Takes effect on the next light selection.
	//
	// Parameters:
	//   - giType: the requested GI type
	SetGIType(giType GIType)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:             &sync.Mutex{},
		lightType:      lightType,
		direction:      mgl32.Vec3{0, -1, 0},
		color:          mgl32.Vec3{1, 1, 1},
		intensity:      1.0,
		lightRange:     10.0,
		innerCone:      0.9063, // cos(25°)
		outerCone:      0.8192, // cos(35°)
		enabled:        true,
		shadowMapIndex: NoShadowMap,
	}
	for _, opt := range opts {
		opt(l)
	}
	if !l.customBox {
		l.boundingBox = rangeBox(l.lightRange)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) ShadowProducer() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shadowProducer
}

func (l *lightImpl) GIType() GIType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.giType
}

func (l *lightImpl) BoundingBox() common.AABB {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.boundingBox
}

func (l *lightImpl) DerivedTransform() mgl32.Mat4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return mgl32.Translate3D(l.position[0], l.position[1], l.position[2])
}

func (l *lightImpl) WorldBoundingBox() common.AABB {
	return l.BoundingBox().Transform(l.DerivedTransform())
}

func (l *lightImpl) ShadowMapIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shadowMapIndex
}

func (l *lightImpl) SetShadowMapIndex(index int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shadowMapIndex = index
}

func (l *lightImpl) SetPosition(position mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = position
}

func (l *lightImpl) SetDirection(direction mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = normalize(direction)
}

func (l *lightImpl) SetColor(color mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lightRange = lightRange
	if !l.customBox {
		l.boundingBox = rangeBox(lightRange)
	}
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.innerCone = cosDeg(innerDeg)
	l.outerCone = cosDeg(outerDeg)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) SetShadowProducer(producer bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shadowProducer = producer
}

func (l *lightImpl) SetGIType(giType GIType) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.giType = giType
}

func (l *lightImpl) String() string {
	return fmt.Sprintf("%s light at %v", l.lightType, l.Position())
}

// rangeBox returns the local influence box of a light with the given range.
func rangeBox(r float32) common.AABB {
	return common.NewAABB(mgl32.Vec3{-r, -r, -r}, mgl32.Vec3{r, r, r})
}

// normalize normalizes v. Returns a zero vector if the input has zero length.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return mgl32.Vec3{}
	}
	return v.Normalize()
}

// cosDeg converts an angle in degrees to the cosine of that angle in radians.
func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(deg) * math.Pi / 180.0))
}
