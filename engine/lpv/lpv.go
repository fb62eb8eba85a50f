// Package lpv implements cascaded Light Propagation Volumes.
//
// An engine serves one light type and one variant (plain or geometry-aware, single
// cascade or layered). Every frame it injects the reflective shadow maps of its
// registered lights into a spherical-harmonics volume and propagates that volume for
// MaxPropagationSteps steps, ping-ponging between two buffers per cascade and
// accumulating every step into a LightVolumePassResult shared with the indirect
// lighting stage.
package lpv

import "fmt"

// MaxPropagationSteps is the number of propagation passes per cascade.
const MaxPropagationSteps = 8

// MaxCascadesCount is the number of grids of a layered volume.
const MaxCascadesCount = 3

// DefaultGridSize is the default number of cells along each grid axis.
const DefaultGridSize = 32

// MinCellSize bounds the cell size of the finest cascade in world units.
const MinCellSize float32 = 0.05

// DefaultGridExtent is the grid extent used around the camera when neither the scene
// nor the registered lights provide a region.
const DefaultGridExtent float32 = 32.0

// Binding points of the indirect lighting programs sampling the results.
const (
	// LpvGridConfigBinding is the grid config UBO of the single-cascade result; R, G and
	// B follow at the next three bindings.
	LpvGridConfigBinding uint32 = 0
	// LlpvGridConfigBinding is the grid config UBO of the layered result; each cascade's
	// R, G and B follow in cascade order.
	LlpvGridConfigBinding uint32 = 4
)

// Compute programs recorded by the engines.
const (
	ProgramDownsample         = "lpv_downsample"
	ProgramGeometryInjection  = "lpv_geometry_injection"
	ProgramLightInjection     = "lpv_light_injection"
	ProgramPropagation        = "lpv_propagation"
	ProgramLayeredPropagation = "llpv_propagation"
)

// State is the lifecycle state of an engine.
type State int

const (
	// StateUninitialised has no compiled graph.
	StateUninitialised State = iota
	// StateInitialising is building and compiling its graph.
	StateInitialising
	// StateReady can be updated and rendered.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialised:
		return "uninitialised"
	case StateInitialising:
		return "initialising"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
