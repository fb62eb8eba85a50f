package lpv

import "github.com/Carmen-Shannon/oxy-gi/common"

// EngineBuilderOption is a function that configures an engine during construction.
type EngineBuilderOption func(*engineImpl)

// WithLogger sets the logger used for initialisation and pruning messages.
//
// Parameters:
//   - logger: the logger; nil keeps the no-op logger
//
// Returns:
//   - EngineBuilderOption: a function that applies the logger option
func WithLogger(logger common.Logger) EngineBuilderOption {
	return func(e *engineImpl) {
		e.logger = common.OrNop(logger)
	}
}
