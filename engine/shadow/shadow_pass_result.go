package shadow

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
)

// ShadowPassResult is the reflective shadow map texture set of one shadow map. Every
// texture is a 2D array with one layer per slot face.
type ShadowPassResult struct {
	Depth    *gpu.Texture
	Normal   *gpu.Texture
	Position *gpu.Texture
	Flux     *gpu.Texture
}

func newShadowPassResult(lightType light.LightType, layers, resolution uint32) *ShadowPassResult {
	colour := func(name string, format gpu.TextureFormat) *gpu.Texture {
		return gpu.NewTexture(fmt.Sprintf("rsm-%s-%s", lightType, name), gpu.TextureDesc{
			Format: format,
			Width:  resolution,
			Height: resolution,
			Layers: layers,
			Usage:  gpu.UsageColorAttachment | gpu.UsageSampled,
		})
	}
	return &ShadowPassResult{
		Depth: gpu.NewTexture(fmt.Sprintf("rsm-%s-depth", lightType), gpu.TextureDesc{
			Format: gpu.FormatDepth32Float,
			Width:  resolution,
			Height: resolution,
			Layers: layers,
			Usage:  gpu.UsageDepthAttachment | gpu.UsageSampled,
		}),
		Normal:   colour("normal", gpu.FormatRGBA16Float),
		Position: colour("position", gpu.FormatRGBA32Float),
		Flux:     colour("flux", gpu.FormatRGBA16Float),
	}
}

// Textures returns depth, normal, position and flux in that order.
func (r *ShadowPassResult) Textures() []*gpu.Texture {
	return []*gpu.Texture{r.Depth, r.Normal, r.Position, r.Flux}
}

// Created reports whether every texture is GPU-created.
func (r *ShadowPassResult) Created() bool {
	for _, t := range r.Textures() {
		if !t.Created() {
			return false
		}
	}
	return true
}

// Layer returns the array layer holding face of slot.
//
// Parameters:
//   - slot: the shadow map slot
//   - face: the face within the slot
//   - faces: the number of faces per slot
//
// Returns:
//   - int: the array layer
func (r *ShadowPassResult) Layer(slot, face int, faces uint32) int {
	return slot*int(faces) + face
}

func (r *ShadowPassResult) create(device gpu.Device) error {
	for _, t := range r.Textures() {
		if err := t.Create(device); err != nil {
			r.destroy()
			return err
		}
	}
	return nil
}

func (r *ShadowPassResult) destroy() {
	for _, t := range r.Textures() {
		t.Destroy()
	}
}
