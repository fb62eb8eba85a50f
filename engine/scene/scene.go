package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene is the render technique's view of the scene graph: the light cache, the
// world bounds GI grids are fitted to, and the ambient term.
// Mesh, material and animation instancing are owned elsewhere; their bounds are
// reported through ExpandBounds.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene name.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// Active returns whether the scene is active for rendering.
	//
	// Returns:
	//   - bool: true if active
	Active() bool

	// SetActive sets whether the scene is active for rendering.
	//
	// Parameters:
	//   - active: true to activate
	SetActive(active bool)

	// Lights returns the scene's light cache.
	//
	// Returns:
	//   - *light.Cache: the light cache
	Lights() *light.Cache

	// AddLight adds a light to the cache. Adding a light twice is a no-op.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light from the cache.
	//
	// Parameters:
	//   - l: the light to remove
	//
	// Returns:
	//   - bool: true if the light was present
	RemoveLight(l light.Light) bool

	// Bounds returns the world-space bounding box of the scene geometry.
	//
	// Returns:
	//   - common.AABB: the scene bounds, empty when nothing was reported
	Bounds() common.AABB

	// SetBounds replaces the scene bounds.
	//
	// Parameters:
	//   - box: the new bounds
	SetBounds(box common.AABB)

	// ExpandBounds grows the scene bounds to enclose box.
	//
	// Parameters:
	//   - box: the box to enclose
	ExpandBounds(box common.AABB)

	// AmbientColor returns the scene ambient color.
	//
	// Returns:
	//   - mgl32.Vec3: the ambient RGB
	AmbientColor() mgl32.Vec3

	// SetAmbientColor sets the scene ambient color.
	//
	// Parameters:
	//   - color: the ambient RGB
	SetAmbientColor(color mgl32.Vec3)
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	lights       *light.Cache
	bounds       common.AABB
	ambientColor mgl32.Vec3
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with an empty light cache and empty bounds.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:           &sync.RWMutex{},
		name:         name,
		active:       true,
		lights:       light.NewCache(),
		bounds:       common.EmptyAABB(),
		ambientColor: mgl32.Vec3{0.03, 0.03, 0.03},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Lights() *light.Cache {
	return s.lights
}

func (s *scene) AddLight(l light.Light) {
	s.lights.Add(l)
}

func (s *scene) RemoveLight(l light.Light) bool {
	return s.lights.Remove(l)
}

func (s *scene) Bounds() common.AABB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

func (s *scene) SetBounds(box common.AABB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = box
}

func (s *scene) ExpandBounds(box common.AABB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = s.bounds.Union(box)
}

func (s *scene) AmbientColor() mgl32.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambientColor = color
}
