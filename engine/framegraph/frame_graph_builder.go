package framegraph

import (
	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
)

// FrameGraphBuilderOption is a functional option applied by NewFrameGraph.
type FrameGraphBuilderOption func(*FrameGraph)

// WithLogger sets the logger used for compile summaries.
//
// Parameters:
//   - logger: the logger; nil keeps the no-op logger
//
// Returns:
//   - FrameGraphBuilderOption: a function that applies the logger option
func WithLogger(logger common.Logger) FrameGraphBuilderOption {
	return func(g *FrameGraph) {
		g.logger = common.OrNop(logger)
	}
}

// WithWaitStage sets the pipeline stage at which consumers of this graph's output
// wait on its semaphore. The default is gpu.StageFragmentShader.
//
// Parameters:
//   - stage: the consumer wait stage
//
// Returns:
//   - FrameGraphBuilderOption: a function that applies the wait stage option
func WithWaitStage(stage gpu.PipelineStage) FrameGraphBuilderOption {
	return func(g *FrameGraph) {
		g.waitStage = stage
	}
}
