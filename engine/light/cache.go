package light

import "sync"

// Cache holds the scene's lights in insertion order, grouped by type. Enumeration
// happens under the cache lock so that light selection sees a consistent set while the
// application adds or removes lights.
type Cache struct {
	mu     sync.Mutex
	lights [LightTypeCount][]Light
}

// NewCache creates an empty light cache.
func NewCache() *Cache {
	return &Cache{}
}

// Add appends l to the cache. Adding a light twice is a no-op.
//
// Parameters:
//   - l: the light to add
func (c *Cache) Add(l Light) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := l.Type()
	for _, existing := range c.lights[t] {
		if existing == l {
			return
		}
	}
	c.lights[t] = append(c.lights[t], l)
}

// Remove deletes l from the cache, keeping the order of the remaining lights.
//
// Parameters:
//   - l: the light to remove
//
// Returns:
//   - bool: true if l was present
func (c *Cache) Remove(l Light) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := l.Type()
	for i, existing := range c.lights[t] {
		if existing == l {
			c.lights[t] = append(c.lights[t][:i], c.lights[t][i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of cached lights of every type.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ls := range c.lights {
		n += len(ls)
	}
	return n
}

// Lights returns a snapshot of the lights of type t in insertion order.
//
// Parameters:
//   - t: the light type
//
// Returns:
//   - []Light: the lights of that type
func (c *Cache) Lights(t LightType) []Light {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Light(nil), c.lights[t]...)
}

// All returns a snapshot of every cached light, grouped by type in LightTypes order.
func (c *Cache) All() []Light {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Light
	for _, ls := range c.lights {
		out = append(out, ls...)
	}
	return out
}

// WithLights calls fn with the lights of type t while holding the cache lock.
// fn must not call back into the cache.
//
// Parameters:
//   - t: the light type
//   - fn: the callback receiving the insertion-ordered lights
func (c *Cache) WithLights(t LightType, fn func(lights []Light)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.lights[t])
}
