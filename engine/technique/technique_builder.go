package technique

import (
	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-gi/engine/profiler"
)

// RenderTechniqueBuilderOption is a functional option for configuring a RenderTechnique.
// Use the With* functions to create options that are applied directly to the technique.
type RenderTechniqueBuilderOption func(*renderTechnique)

// WithConfig replaces the whole configuration.
//
// Parameters:
//   - cfg: the configuration, usually DefaultConfig or LoadConfig output
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithConfig(cfg Config) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config = cfg
	}
}

// WithSize sets the render target size.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithSize(width, height uint32) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.Width = width
		r.config.Height = height
	}
}

// WithDeferred selects deferred shading for opaque geometry.
//
// Parameters:
//   - enabled: true for a G-buffer, false for forward shading
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithDeferred(enabled bool) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.Deferred = enabled
	}
}

// WithVisibilityBuffer replaces the depth prepass by a visibility buffer that is
// resolved into the G-buffer.
//
// Parameters:
//   - enabled: whether to use a visibility buffer
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithVisibilityBuffer(enabled bool) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.VisibilityBuffer = enabled
	}
}

// WithSSAO toggles screen-space ambient occlusion.
//
// Parameters:
//   - enabled: whether SSAO runs
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithSSAO(enabled bool) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.SSAO = enabled
	}
}

// WithWeightedBlendOIT toggles weighted-blended order-independent transparency.
//
// Parameters:
//   - enabled: true for WBOIT, false for sorted forward transparency
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithWeightedBlendOIT(enabled bool) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.WeightedBlendOIT = enabled
	}
}

// WithVoxelConeTracing toggles the voxelisation graph and the indirect-vct pass.
//
// Parameters:
//   - enabled: whether voxel cone tracing runs
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithVoxelConeTracing(enabled bool) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.VoxelConeTracing = enabled
	}
}

// WithEnvironmentMap toggles the environment capture graph.
//
// Parameters:
//   - enabled: whether the environment is captured
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithEnvironmentMap(enabled bool) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.EnvironmentMap = enabled
	}
}

// WithLayeredLpvSupported enables layered LPV. When disabled, lights asking for a
// layered variant use the single-cascade variant of the same flavour.
//
// Parameters:
//   - supported: whether layered volumes may be created
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithLayeredLpvSupported(supported bool) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.LayeredLpvSupported = supported
	}
}

// WithShadowConfig sets the shadow map budgets and resolution.
//
// Parameters:
//   - cfg: the shadow configuration
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithShadowConfig(cfg ShadowConfig) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.ShadowMaps = cfg
	}
}

// WithWorkers sets the number of workers fanning out LPV CPU updates.
//
// Parameters:
//   - n: the worker count, must be at least 1
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithWorkers(n int) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.config.Workers = n
	}
}

// WithLogger sets the logger shared by the technique and its subsystems.
//
// Parameters:
//   - logger: the logger; nil keeps the no-op logger
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithLogger(logger common.Logger) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.logger = common.OrNop(logger)
	}
}

// WithSceneRecorder sets the recorder issuing the scene's geometry work.
//
// Parameters:
//   - rec: the scene recorder; nil keeps the clear-only recorder
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithSceneRecorder(rec SceneRecorder) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		if rec != nil {
			r.sceneRecorder = rec
		}
	}
}

// WithRenderPass registers a custom pass set at construction.
//
// Parameters:
//   - info: the registration
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithRenderPass(info framegraph.RenderPassRegisterInfo) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.registry.Register(info)
	}
}

// WithProfiler sets the profiler ticked at the end of every Render.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - RenderTechniqueBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) RenderTechniqueBuilderOption {
	return func(r *renderTechnique) {
		r.profiler = p
	}
}
